package notify

import (
	"context"

	auth "github.com/goliatone/go-auth-jwt"
	goerrors "github.com/goliatone/go-errors"
)

// Mailer renders and sends activation emails.
type Mailer struct {
	renderer *Renderer
	sender   Sender
	logger   auth.Logger
}

// NewMailer wires a renderer to a sender. A nil logger is replaced by a
// logrus backed one.
func NewMailer(renderer *Renderer, sender Sender, logger auth.Logger) *Mailer {
	if logger == nil {
		logger = auth.NewLogrusLogger(nil, "notify")
	}
	return &Mailer{renderer: renderer, sender: sender, logger: logger}
}

// Deliver renders task and hands it to the sender.
func (m *Mailer) Deliver(ctx context.Context, task ActivationTask) error {
	msg, err := m.renderer.Render(task)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to render activation email")
	}
	if err := m.sender.Send(ctx, msg); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to send activation email").
			WithMetadata(map[string]any{"identity_id": task.IdentityID})
	}
	m.logger.Info("activation email sent", "identity_id", task.IdentityID)
	return nil
}
