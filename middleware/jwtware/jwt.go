package jwtware

import (
	"errors"
	"strings"

	auth "github.com/goliatone/go-auth-jwt"
	"github.com/goliatone/go-router"
)

var (
	defaultTokenLookup       = "cookie:access_token_jwt,header:" + router.HeaderAuthorization
	ErrJWTMissingOrMalformed = errors.New("missing or malformed JWT")
)

// DefaultContextKey is the Locals key holding *auth.Claims.
const DefaultContextKey = "claims"

// ValidationListener is invoked after a token has been validated and before
// the request proceeds.
type ValidationListener func(ctx router.Context, claims *auth.Claims) error

type Config struct {
	Filter         func(router.Context) bool
	SuccessHandler router.HandlerFunc
	ErrorHandler   router.ErrorHandler
	// TokenValidator is required. *auth.TokenService and
	// *auth.MultiTokenValidator both satisfy it.
	TokenValidator auth.TokenValidator
	ContextKey     string
	// TokenLookup is a comma separated list of source:name pairs tried in
	// order, e.g. "cookie:access_token_jwt,header:Authorization,query:token".
	TokenLookup string
	AuthScheme  string
	// ValidationListeners are invoked after validation succeeds.
	ValidationListeners []ValidationListener
	// PropagateContext stores the claims in the request's context.Context
	// so auth.ClaimsFromContext works in downstream services.
	PropagateContext bool
}

// New returns a middleware that only lets requests with a valid access
// token through.
func New(config ...Config) router.MiddlewareFunc {
	cfg := GetDefaultConfig(config...)
	extractors := cfg.getExtractors()

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			raw, err := ExtractRawTokenFromContext(ctx, extractors)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			claims, err := cfg.TokenValidator.Decode(raw)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			if claims.Kind() != auth.KindAccess {
				return cfg.ErrorHandler(ctx, auth.ErrInvalidToken)
			}

			if claims.Subject() == "" {
				return cfg.ErrorHandler(ctx, auth.ErrSubjectMissing)
			}

			if err := cfg.runValidationListeners(ctx, claims); err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			ctx.Locals(cfg.ContextKey, claims)

			if cfg.PropagateContext {
				ctx.SetContext(auth.WithClaimsContext(ctx.Context(), claims))
			}

			return cfg.SuccessHandler(ctx)
		}
	}
}

// GetClaims returns the claims stored by New under the default key.
func GetClaims(ctx router.Context) (*auth.Claims, bool) {
	return GetClaimsWithKey(ctx, DefaultContextKey)
}

// GetClaimsWithKey is GetClaims for a custom ContextKey.
func GetClaimsWithKey(ctx router.Context, key string) (*auth.Claims, bool) {
	claims, ok := ctx.Locals(key).(*auth.Claims)
	return claims, ok && claims != nil
}

// ExtractRawTokenFromContext returns the first token found by extractors.
func ExtractRawTokenFromContext(ctx router.Context, extractors []JWTExtractor) (string, error) {
	err := ErrJWTMissingOrMalformed
	for _, extractor := range extractors {
		var raw string
		raw, err = extractor(ctx)
		if raw != "" && err == nil {
			return raw, nil
		}
	}
	return "", err
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = DefaultErrorHandler
	}

	if cfg.TokenValidator == nil {
		panic("AUTH: JWT middleware configuration: TokenValidator is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}

// DefaultErrorHandler answers 400 for missing tokens and 401 for anything
// else, with the error text code as body.
func DefaultErrorHandler(ctx router.Context, err error) error {
	if errors.Is(err, ErrJWTMissingOrMalformed) {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"code":   auth.TextCodeTokenMissing,
			"detail": ErrJWTMissingOrMalformed.Error(),
		})
	}

	code := auth.ErrorKind(err)
	if code == "" {
		code = auth.TextCodeInvalidToken
	}
	return ctx.JSON(router.StatusUnauthorized, map[string]any{
		"code":   code,
		"detail": "Invalid or expired token",
	})
}

func (cfg *Config) getExtractors() []JWTExtractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

func (cfg *Config) runValidationListeners(ctx router.Context, claims *auth.Claims) error {
	for _, listener := range cfg.ValidationListeners {
		if listener == nil {
			continue
		}
		if err := listener(ctx, claims); err != nil {
			return err
		}
	}
	return nil
}

func GetExtractors(tokenLookup string, authSchemes ...string) []JWTExtractor {
	extractors := make([]JWTExtractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 {
		authScheme = strings.TrimSpace(authSchemes[0])
	}

	// cookie:access_token_jwt,header:Authorization,query:token
	for _, rootPart := range strings.Split(tokenLookup, ",") {
		parts := strings.SplitN(strings.TrimSpace(rootPart), ":", 2)
		if len(parts) != 2 {
			continue
		}
		source, name := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])

		switch source {
		case "header":
			extractors = append(extractors, jwtFromHeader(name, authScheme))
		case "query":
			extractors = append(extractors, jwtFromQuery(name))
		case "cookie":
			extractors = append(extractors, jwtFromCookie(name))
		}
	}

	return extractors
}

type JWTExtractor func(ctx router.Context) (string, error)

// jwtFromHeader returns a function that extracts token from the request header.
func jwtFromHeader(header string, authScheme string) JWTExtractor {
	return func(ctx router.Context) (string, error) {
		a := ctx.Header(header)
		l := len(authScheme)
		if l == 0 {
			return "", ErrJWTMissingOrMalformed
		}
		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) && a[l] == ' ' {
			return strings.TrimSpace(a[l:]), nil
		}
		return "", ErrJWTMissingOrMalformed
	}
}

// jwtFromQuery returns a function that extracts token from the query string.
func jwtFromQuery(param string) JWTExtractor {
	return func(ctx router.Context) (string, error) {
		token := ctx.Query(param, "")
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}

// jwtFromCookie returns a function that extracts token from the named cookie.
func jwtFromCookie(name string) JWTExtractor {
	return func(ctx router.Context) (string, error) {
		token := ctx.Cookies(name)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}
