package notify

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	auth "github.com/goliatone/go-auth-jwt"
	"github.com/mailgun/mailgun-go/v4"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// MailgunConfig holds the configuration for Mailgun
type MailgunConfig struct {
	Key    string
	Domain string
	From   string
}

// MailgunSender delivers through the Mailgun API.
type MailgunSender struct {
	cfg MailgunConfig
	mg  mailgun.Mailgun
}

// NewMailgunSender validates cfg and builds the client once.
func NewMailgunSender(cfg MailgunConfig) (*MailgunSender, error) {
	if cfg.Key == "" || cfg.Domain == "" || cfg.From == "" {
		return nil, errors.New("invalid Mailgun configuration")
	}
	return &MailgunSender{cfg: cfg, mg: mailgun.NewMailgun(cfg.Domain, cfg.Key)}, nil
}

// Send satisfies Sender.
func (s *MailgunSender) Send(ctx context.Context, msg Message) error {
	message := s.mg.NewMessage(s.cfg.From, msg.Subject, msg.Text)
	if msg.HTML != "" {
		message.SetHtml(msg.HTML)
	}
	if err := message.AddRecipient(msg.To); err != nil {
		return err
	}
	_, _, err := s.mg.Send(ctx, message)
	return err
}

// SendGridConfig holds the configuration for SendGrid
type SendGridConfig struct {
	Key      string
	From     string
	FromName string
}

// SendGridSender delivers through the SendGrid v3 API.
type SendGridSender struct {
	cfg    SendGridConfig
	client *sendgrid.Client
}

// NewSendGridSender validates cfg and builds the client once.
func NewSendGridSender(cfg SendGridConfig) (*SendGridSender, error) {
	if cfg.Key == "" || cfg.From == "" {
		return nil, errors.New("invalid SendGrid configuration")
	}
	return &SendGridSender{cfg: cfg, client: sendgrid.NewSendClient(cfg.Key)}, nil
}

// Send satisfies Sender.
func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	from := mail.NewEmail(s.cfg.FromName, s.cfg.From)
	to := mail.NewEmail("", msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: unexpected status code %d", response.StatusCode)
	}
	return nil
}

// SMTPConfig holds the configuration for plain SMTP delivery
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// SMTPSender delivers through an SMTP relay.
type SMTPSender struct {
	cfg      SMTPConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender validates cfg. Username and Password are optional for
// unauthenticated relays.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" || cfg.Port == "" || cfg.From == "" {
		return nil, errors.New("invalid SMTP configuration")
	}
	return &SMTPSender{cfg: cfg, sendMail: smtp.SendMail}, nil
}

// Send satisfies Sender. net/smtp has no context support, ctx is only
// checked before dialing.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var a smtp.Auth
	if s.cfg.Username != "" {
		a = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := s.cfg.Host + ":" + s.cfg.Port
	return s.sendMail(addr, a, s.cfg.From, []string{msg.To}, buildMIME(s.cfg.From, msg))
}

func buildMIME(from string, msg Message) []byte {
	const boundary = "go-auth-jwt-boundary"
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n", boundary, msg.Text)
	if msg.HTML != "" {
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n", boundary, msg.HTML)
	}
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}

// LogSender only logs what would have been sent. Meant for local development.
type LogSender struct {
	Logger auth.Logger
}

// Send satisfies Sender.
func (s LogSender) Send(_ context.Context, msg Message) error {
	logger := s.Logger
	if logger == nil {
		logger = auth.NewLogrusLogger(nil, "notify.log")
	}
	logger.Info("activation email", "to", msg.To, "subject", msg.Subject, "body", msg.Text)
	return nil
}
