package auth

import (
	"crypto"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const (
	DefaultIssuer     = "go-auth-jwt"
	DefaultAccessTTL  = 3 * time.Minute
	DefaultRefreshTTL = 24 * time.Hour
)

const expiryLeeway = time.Second

// TokenConfig is built once at startup and handed to NewTokenService.
// A nil PrivateKey yields a verify only service.
type TokenConfig struct {
	Method     SigningMethod
	PrivateKey crypto.Signer
	PublicKey  crypto.PublicKey
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (c TokenConfig) withDefaults() TokenConfig {
	if c.Method == "" {
		c.Method = MethodRS256
	}
	if c.Issuer == "" {
		c.Issuer = DefaultIssuer
	}
	if c.AccessTTL == 0 {
		c.AccessTTL = DefaultAccessTTL
	}
	if c.RefreshTTL == 0 {
		c.RefreshTTL = DefaultRefreshTTL
	}
	return c
}

// Validate checks key material and lifetimes.
func (c TokenConfig) Validate() error {
	if c.Method != MethodRS256 && c.Method != MethodEdDSA {
		return invalidTokenConfig("unsupported signing method %q", c.Method)
	}
	if c.PublicKey == nil {
		return invalidTokenConfig("public key is required")
	}
	if c.PrivateKey != nil {
		if !keysMatchMethod(c.Method, c.PrivateKey, c.PublicKey) {
			return invalidTokenConfig("key types do not match %s", c.Method)
		}
		if pub, ok := c.PrivateKey.Public().(interface{ Equal(crypto.PublicKey) bool }); ok && !pub.Equal(c.PublicKey) {
			return invalidTokenConfig("public key does not belong to private key")
		}
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		return invalidTokenConfig("token lifetimes must be positive")
	}
	if c.AccessTTL >= c.RefreshTTL {
		return invalidTokenConfig("access lifetime must be shorter than refresh lifetime")
	}
	return nil
}

func invalidTokenConfig(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTokenConfig, fmt.Sprintf(format, args...))
}

// IssuedToken is a signed token plus the data callers need to store it.
type IssuedToken struct {
	Value     string    `json:"token"`
	Kind      TokenKind `json:"type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenPair is the result of a successful login
type TokenPair struct {
	Access  IssuedToken `json:"access"`
	Refresh IssuedToken `json:"refresh"`
}

// TokenService signs and verifies tokens with an asymmetric key pair.
// It is immutable after construction and safe for concurrent use.
type TokenService struct {
	cfg    TokenConfig
	method jwt.SigningMethod
	parser *jwt.Parser
	now    func() time.Time
	logger Logger
}

// TokenServiceOption configures a TokenService
type TokenServiceOption func(*TokenService)

// WithTokenClock overrides the clock used for iat, exp and validation.
func WithTokenClock(now func() time.Time) TokenServiceOption {
	return func(ts *TokenService) {
		if now != nil {
			ts.now = now
		}
	}
}

// WithTokenLogger sets the logger
func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenService) {
		ts.logger = normalizeLogger(logger)
	}
}

// NewTokenService validates cfg and returns a ready service.
func NewTokenService(cfg TokenConfig, opts ...TokenServiceOption) (*TokenService, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ts := &TokenService{
		cfg:    cfg,
		method: cfg.Method.jwtMethod(),
		now:    time.Now,
		logger: defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	ts.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{ts.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithTimeFunc(ts.now),
		// exp is whole seconds and the parser rejects now == exp, the
		// leeway lets Decode apply the strict now > exp rule itself.
		jwt.WithLeeway(expiryLeeway),
	)

	return ts, nil
}

// Config returns a copy of the configuration
func (ts *TokenService) Config() TokenConfig {
	return ts.cfg
}

// Encode signs a token for subject. Extra claims are merged in but may not
// override any protected claim.
func (ts *TokenService) Encode(subject string, kind TokenKind, ttl time.Duration, extra map[string]any) (string, error) {
	token, _, err := ts.encode(subject, kind, ttl, extra)
	return token, err
}

// IssueAccess signs an access token carrying the identity email. The email
// claim comes from identity and cannot be supplied through extra.
func (ts *TokenService) IssueAccess(identity *Identity, extra map[string]any) (*IssuedToken, error) {
	if identity == nil {
		return nil, ErrSubjectMissing
	}
	if _, ok := extra[ClaimEmail]; ok {
		return nil, protectedClaimViolation(ClaimEmail)
	}
	merged := make(map[string]any, len(extra)+1)
	for k, v := range extra {
		merged[k] = v
	}
	merged[ClaimEmail] = identity.Email

	value, exp, err := ts.encode(identity.ID, KindAccess, ts.cfg.AccessTTL, merged)
	if err != nil {
		return nil, err
	}
	return &IssuedToken{Value: value, Kind: KindAccess, ExpiresAt: exp}, nil
}

// IssueRefresh signs a refresh token that only carries the subject.
func (ts *TokenService) IssueRefresh(identity *Identity) (*IssuedToken, error) {
	if identity == nil {
		return nil, ErrSubjectMissing
	}
	value, exp, err := ts.encode(identity.ID, KindRefresh, ts.cfg.RefreshTTL, nil)
	if err != nil {
		return nil, err
	}
	return &IssuedToken{Value: value, Kind: KindRefresh, ExpiresAt: exp}, nil
}

func (ts *TokenService) encode(subject string, kind TokenKind, ttl time.Duration, extra map[string]any) (string, time.Time, error) {
	if ts.cfg.PrivateKey == nil {
		return "", time.Time{}, invalidTokenConfig("token service is verify only")
	}
	if subject == "" {
		return "", time.Time{}, ErrSubjectMissing
	}
	if !kind.Valid() {
		return "", time.Time{}, errors.New(fmt.Sprintf("unknown token kind %q", kind), errors.CategoryBadInput)
	}
	if ttl <= 0 {
		return "", time.Time{}, errors.New("token lifetime must be positive", errors.CategoryBadInput)
	}
	if err := guardExtraClaims(extra); err != nil {
		return "", time.Time{}, err
	}

	now := ts.now().Truncate(jwt.TimePrecision)
	exp := now.Add(ttl)

	claims := make(jwt.MapClaims, len(extra)+6)
	for k, v := range extra {
		claims[k] = v
	}
	claims[ClaimSubject] = subject
	claims[ClaimIssuer] = ts.cfg.Issuer
	claims[ClaimIssuedAt] = jwt.NewNumericDate(now)
	claims[ClaimExpires] = jwt.NewNumericDate(exp)
	claims[ClaimTokenID] = uuid.NewString()
	claims[ClaimKind] = string(kind)

	signed, err := jwt.NewWithClaims(ts.method, claims).SignedString(ts.cfg.PrivateKey)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signed, exp, nil
}

// Decode verifies signature, algorithm, issuer and expiration. A token is
// valid up to and including the second of its exp claim and expired once
// the clock is past it. It does not check the token kind, callers do.
func (ts *TokenService) Decode(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	mc := jwt.MapClaims{}
	token, err := ts.parser.ParseWithClaims(tokenString, mc, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != ts.method.Alg() {
			ts.logger.Warn("token service decode got unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.cfg.PublicKey, nil
	})
	if err != nil {
		return nil, mapParseError(err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims := claimsFromMap(mc)
	if ts.now().After(claims.expires) {
		return nil, ErrTokenExpired
	}

	return claims, nil
}

// The parser only validates claims after the signature verified, so an
// expiration error here always comes from a genuine token.
func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return ErrInvalidToken
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	}
	return ErrInvalidToken
}

func claimsFromMap(mc jwt.MapClaims) *Claims {
	c := &Claims{Extra: map[string]any{}}

	c.subject, _ = mc.GetSubject()
	c.issuer, _ = mc.GetIssuer()
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		c.issuedAt = iat.Time
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.expires = exp.Time
	}
	if kind, ok := mc[ClaimKind].(string); ok {
		c.kind = TokenKind(kind)
	}
	if jti, ok := mc[ClaimTokenID].(string); ok {
		c.tokenID = jti
	}
	if email, ok := mc[ClaimEmail].(string); ok {
		c.email = email
	}

	for k, v := range mc {
		if IsProtectedClaim(k) {
			continue
		}
		c.Extra[k] = v
	}

	return c
}
