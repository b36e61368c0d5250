package notify

import (
	"context"
	"time"
)

// ActivationTask is the queued request to send an activation email.
type ActivationTask struct {
	Email      string    `json:"email"`
	IdentityID string    `json:"identity_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Message is a rendered email ready for a Sender.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers one rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function into a Sender.
type SenderFunc func(ctx context.Context, msg Message) error

// Send satisfies Sender.
func (f SenderFunc) Send(ctx context.Context, msg Message) error {
	if f == nil {
		return nil
	}
	return f(ctx, msg)
}
