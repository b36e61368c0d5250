package auth

import "context"

// RegistrationNotifier is told about every successful registration. It is
// fire-and-forget: delivery problems are the notifier's to log, and they
// never fail the registration.
type RegistrationNotifier interface {
	NotifyRegistration(ctx context.Context, email, identityID string)
}

// NotifierFunc adapts a function into a RegistrationNotifier.
type NotifierFunc func(ctx context.Context, email, identityID string)

// NotifyRegistration satisfies RegistrationNotifier.
func (f NotifierFunc) NotifyRegistration(ctx context.Context, email, identityID string) {
	if f == nil {
		return
	}
	f(ctx, email, identityID)
}

type noopNotifier struct{}

func (noopNotifier) NotifyRegistration(context.Context, string, string) {}

func normalizeNotifier(n RegistrationNotifier) RegistrationNotifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}
