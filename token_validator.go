package auth

import "errors"

// TokenValidator verifies tokens and extracts claims without tying callers
// to a specific signing implementation. *TokenService satisfies it.
type TokenValidator interface {
	Decode(tokenString string) (*Claims, error)
}

// TokenValidatorFunc adapts a function into a TokenValidator.
type TokenValidatorFunc func(tokenString string) (*Claims, error)

// Decode satisfies the TokenValidator interface.
func (f TokenValidatorFunc) Decode(tokenString string) (*Claims, error) {
	if f == nil {
		return nil, ErrInvalidToken
	}
	return f(tokenString)
}

var _ TokenValidator = (*TokenService)(nil)

// MultiTokenValidator tries validators in order until one succeeds.
// ErrInvalidToken means "try next", so a service can accept tokens signed by
// an outgoing key pair while the new one rolls out. Any other error, such as
// ErrTokenExpired, is returned right away.
type MultiTokenValidator struct {
	validators []TokenValidator
}

// NewMultiTokenValidator filters nil validators and returns a composite validator.
func NewMultiTokenValidator(validators ...TokenValidator) *MultiTokenValidator {
	filtered := make([]TokenValidator, 0, len(validators))
	for _, v := range validators {
		if v != nil {
			filtered = append(filtered, v)
		}
	}
	return &MultiTokenValidator{validators: filtered}
}

// Decode satisfies the TokenValidator interface.
func (m *MultiTokenValidator) Decode(tokenString string) (*Claims, error) {
	var lastErr error
	for _, v := range m.validators {
		claims, err := v.Decode(tokenString)
		if err == nil {
			return claims, nil
		}
		if errors.Is(err, ErrInvalidToken) || IsMalformedError(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrInvalidToken
}
