package auth_test

import (
	"testing"
	"time"

	auth "github.com/goliatone/go-auth-jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenKindValid(t *testing.T) {
	assert.True(t, auth.KindAccess.Valid())
	assert.True(t, auth.KindRefresh.Valid())
	assert.False(t, auth.TokenKind("").Valid())
	assert.False(t, auth.TokenKind("ACCESS").Valid())
}

func TestIsProtectedClaim(t *testing.T) {
	for _, name := range []string{"sub", "iss", "iat", "exp", "nbf", "jti", "type", "aud"} {
		assert.True(t, auth.IsProtectedClaim(name), name)
	}
	for _, name := range []string{"email", "plan", "roles", ""} {
		assert.False(t, auth.IsProtectedClaim(name), name)
	}
}

func TestClaimsExtraExcludesRegisteredClaims(t *testing.T) {
	ts := newTestTokens(t)

	token, err := ts.Encode("subject", auth.KindAccess, time.Minute, map[string]any{
		"email": "user@example.com",
		"tier":  "gold",
	})
	require.NoError(t, err)

	claims, err := ts.Decode(token)
	require.NoError(t, err)

	assert.Equal(t, "user@example.com", claims.Email())
	assert.Equal(t, "gold", claims.Extra["tier"])
	for name := range claims.Extra {
		assert.False(t, auth.IsProtectedClaim(name), name)
	}
}
