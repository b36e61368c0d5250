package auth

import "context"

// ClaimsDecorator can add extension claims to an access token before it is
// signed. Protected claims are rejected by the token service.
type ClaimsDecorator interface {
	Decorate(ctx context.Context, identity *Identity, claims map[string]any) error
}

// ClaimsDecoratorFunc adapts a function into a ClaimsDecorator.
type ClaimsDecoratorFunc func(ctx context.Context, identity *Identity, claims map[string]any) error

// Decorate satisfies the ClaimsDecorator interface.
func (f ClaimsDecoratorFunc) Decorate(ctx context.Context, identity *Identity, claims map[string]any) error {
	if f == nil {
		return nil
	}
	return f(ctx, identity, claims)
}

type noopClaimsDecorator struct{}

func (noopClaimsDecorator) Decorate(context.Context, *Identity, map[string]any) error {
	return nil
}

func normalizeClaimsDecorator(d ClaimsDecorator) ClaimsDecorator {
	if d == nil {
		return noopClaimsDecorator{}
	}
	return d
}
