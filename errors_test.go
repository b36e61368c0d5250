package auth_test

import (
	"errors"
	"fmt"
	"testing"

	auth "github.com/goliatone/go-auth-jwt"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
)

func TestIsTokenExpiredError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Structured token expired error",
			err:      auth.ErrTokenExpired,
			expected: true,
		},
		{
			name:     "Legacy token expired error (string match)",
			err:      errors.New("some wrapper: token is expired"),
			expected: true,
		},
		{
			name:     "Different structured error",
			err:      auth.ErrInvalidToken,
			expected: false,
		},
		{
			name:     "Different legacy error",
			err:      errors.New("invalid token"),
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := auth.IsTokenExpiredError(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "already exists", err: auth.ErrAlreadyExists, want: auth.TextCodeAlreadyExists},
		{name: "invalid credentials", err: auth.ErrInvalidCredentials, want: auth.TextCodeInvalidCreds},
		{name: "not found", err: auth.ErrNotFound, want: auth.TextCodeNotFound},
		{name: "subject missing", err: auth.ErrSubjectMissing, want: auth.TextCodeSubjectMissing},
		{name: "token expired", err: auth.ErrTokenExpired, want: auth.TextCodeTokenExpired},
		{name: "invalid token", err: auth.ErrInvalidToken, want: auth.TextCodeInvalidToken},
		{name: "wrapped", err: fmt.Errorf("refresh: %w", auth.ErrTokenExpired), want: auth.TextCodeTokenExpired},
		{
			name: "text code on a foreign instance",
			err:  goerrors.New("nope", goerrors.CategoryAuth).WithTextCode(auth.TextCodeInvalidToken),
			want: auth.TextCodeInvalidToken,
		},
		{name: "plain error", err: errors.New("boom"), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.ErrorKind(tt.err))
		})
	}
}

func TestErrorCategories(t *testing.T) {
	assert.Equal(t, goerrors.CategoryConflict, auth.ErrAlreadyExists.Category)
	assert.Equal(t, goerrors.CategoryAuth, auth.ErrInvalidCredentials.Category)
	assert.Equal(t, goerrors.CategoryNotFound, auth.ErrNotFound.Category)
	assert.Equal(t, goerrors.CategoryAuth, auth.ErrTokenExpired.Category)
	assert.Equal(t, goerrors.CategoryValidation, auth.ErrCredentialTooLong.Category)
	assert.Equal(t, goerrors.CategoryInternal, auth.ErrMalformedHash.Category)
}

func TestIsMalformedError(t *testing.T) {
	assert.True(t, auth.IsMalformedError(errors.New("token is malformed: bad segment")))
	assert.False(t, auth.IsMalformedError(auth.ErrTokenExpired))
	assert.False(t, auth.IsMalformedError(nil))
}
