package auth

import (
	"time"
)

// TokenKind tells access and refresh tokens apart. It travels in the
// "type" claim.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Valid reports whether k is a known kind
func (k TokenKind) Valid() bool {
	return k == KindAccess || k == KindRefresh
}

// Claim names written by the token service.
const (
	ClaimSubject  = "sub"
	ClaimIssuer   = "iss"
	ClaimIssuedAt = "iat"
	ClaimExpires  = "exp"
	ClaimNotAfter = "nbf"
	ClaimTokenID  = "jti"
	ClaimKind     = "type"
	ClaimAudience = "aud"
	ClaimEmail    = "email"
)

// Claims is the decoded, verified content of a token.
type Claims struct {
	subject  string
	kind     TokenKind
	email    string
	tokenID  string
	issuer   string
	issuedAt time.Time
	expires  time.Time

	// Extra holds every non registered claim, including email.
	Extra map[string]any
}

// Subject returns the subject claim
func (c *Claims) Subject() string {
	return c.subject
}

// Kind returns the token kind. Decoding does not enforce it.
func (c *Claims) Kind() TokenKind {
	return c.kind
}

// Email is only present on access tokens
func (c *Claims) Email() string {
	return c.email
}

// TokenID returns the jti claim
func (c *Claims) TokenID() string {
	return c.tokenID
}

// Issuer returns the iss claim
func (c *Claims) Issuer() string {
	return c.issuer
}

// IssuedAt returns the issued at time
func (c *Claims) IssuedAt() time.Time {
	return c.issuedAt
}

// Expires returns the expiration time
func (c *Claims) Expires() time.Time {
	return c.expires
}
