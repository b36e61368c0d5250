package notify

import (
	"embed"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	"github.com/goliatone/go-template"
)

const DefaultSubject = "Verify your email"

// Template names, resolved against the template dir first and the
// embedded defaults second.
const (
	ActivationHTMLTemplate = "activation.html"
	ActivationTextTemplate = "activation.txt"
)

//go:embed templates/*.tpl
var embedded embed.FS

// Renderer turns an ActivationTask into a Message.
type Renderer struct {
	baseURL     string
	subject     string
	templateDir string
	engine      *template.Engine
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithTemplateDir makes templates in dir take precedence over the
// embedded ones.
func WithTemplateDir(dir string) RendererOption {
	return func(r *Renderer) {
		r.templateDir = dir
	}
}

// NewRenderer builds a renderer over the activation templates. An empty
// subject falls back to DefaultSubject.
func NewRenderer(baseURL, subject string, opts ...RendererOption) (*Renderer, error) {
	if _, err := url.Parse(baseURL); err != nil || baseURL == "" {
		return nil, fmt.Errorf("notify: invalid base url %q", baseURL)
	}
	if subject == "" {
		subject = DefaultSubject
	}

	r := &Renderer{
		baseURL: strings.TrimRight(baseURL, "/"),
		subject: subject,
	}
	for _, opt := range opts {
		opt(r)
	}

	defaults, err := fs.Sub(embedded, "templates")
	if err != nil {
		return nil, err
	}

	engineOpts := []template.Option{template.WithFS(defaults)}
	if r.templateDir != "" {
		engineOpts = append(engineOpts, template.WithBaseDir(r.templateDir))
	}

	engine, err := template.NewRenderer(engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("notify: template engine: %w", err)
	}
	r.engine = engine

	return r, nil
}

// ActivationLink builds the link the activation endpoint expects.
func (r *Renderer) ActivationLink(identityID string) string {
	return r.baseURL + "/auth/activate?id=" + url.QueryEscape(identityID)
}

// Render builds the message for task.
func (r *Renderer) Render(task ActivationTask) (Message, error) {
	data := map[string]any{
		"email":       task.Email,
		"identity_id": task.IdentityID,
		"link":        r.ActivationLink(task.IdentityID),
	}

	html, err := r.engine.RenderTemplate(ActivationHTMLTemplate, data)
	if err != nil {
		return Message{}, err
	}

	text, err := r.engine.RenderTemplate(ActivationTextTemplate, data)
	if err != nil {
		return Message{}, err
	}

	return Message{
		To:      task.Email,
		Subject: r.subject,
		Text:    strings.TrimSpace(text) + "\n",
		HTML:    html,
	}, nil
}
