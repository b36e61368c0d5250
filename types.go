package auth

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Logger is the minimal structured logger used across the package.
// Args are key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds auth options
type Config interface {
	GetIssuer() string
	GetSigningMethod() string
	GetPrivateKeyPath() string
	GetPublicKeyPath() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetAccessCookieName() string
	GetRefreshCookieName() string
	GetCookieSecure() bool
	GetBaseURL() string
}

// Authenticator holds the register, login, refresh and activate flows.
type Authenticator interface {
	Register(ctx context.Context, email, password string) (*RegisterResult, error)
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*IssuedToken, error)
	Activate(ctx context.Context, identityID string) error
	Logout(ctx context.Context) error
	CurrentIdentity(ctx context.Context, accessToken string) (*Identity, error)
	Me(ctx context.Context, accessToken string) (*Me, error)
	UpdateProfile(ctx context.Context, accessToken string, update ProfileUpdate) (*Profile, error)
}

type defLogger struct{}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Print("[DBG] AUTH " + line(msg, args))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Print("[INF] AUTH " + line(msg, args))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Print("[WRN] AUTH " + line(msg, args))
}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Print("[ERR] AUTH " + line(msg, args))
}

func line(msg string, args []any) string {
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(args); i += 2 {
		key := fmt.Sprint(args[i])
		var val any = "(missing)"
		if i+1 < len(args) {
			val = args[i+1]
		}
		fmt.Fprintf(&b, " %s=%v", key, val)
	}
	b.WriteString("\n")
	return b.String()
}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return defLogger{}
	}
	return l
}
