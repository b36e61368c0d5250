package config

import (
	"fmt"
	"strings"
	"time"

	auth "github.com/goliatone/go-auth-jwt"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. AUTH_TOKEN_ISSUER.
const EnvPrefix = "AUTH"

// Options is the service configuration. It satisfies auth.Config.
type Options struct {
	Issuer                string
	SigningMethod         string
	PrivateKeyPath        string
	PublicKeyPath         string
	PreviousPublicKeyPath string
	AccessTokenTTL        time.Duration
	RefreshTokenTTL       time.Duration
	AccessCookieName      string
	RefreshCookieName     string
	CookieSecure          bool
	BaseURL               string

	ListenAddr           string
	DatabaseDSN          string
	RedisURL             string
	HashCost             int
	HashidIdentities     bool
	IdempotentActivation bool
	LogLevel             string

	Mail *Mail
}

var _ auth.Config = (*Options)(nil)

// Load reads configPath (optional) and applies AUTH_* environment overrides.
func Load(configPath string) (*Options, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return fromViper(v), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("token.issuer", auth.DefaultIssuer)
	v.SetDefault("token.signing_method", string(auth.MethodRS256))
	v.SetDefault("token.private_key_path", "keys/private.pem")
	v.SetDefault("token.public_key_path", "keys/public.pem")
	v.SetDefault("token.previous_public_key_path", "")
	v.SetDefault("token.access_ttl", auth.DefaultAccessTTL)
	v.SetDefault("token.refresh_ttl", auth.DefaultRefreshTTL)

	v.SetDefault("cookie.access_name", "access_token_jwt")
	v.SetDefault("cookie.refresh_name", "refresh_token_jwt")
	v.SetDefault("cookie.secure", false)

	v.SetDefault("server.base_url", "http://localhost:8000")
	v.SetDefault("server.listen", ":8000")

	v.SetDefault("database.dsn", "file:auth.db")
	v.SetDefault("redis.url", "redis://localhost:6379/0")

	v.SetDefault("identity.hash_cost", 0)
	v.SetDefault("identity.hashid", false)
	v.SetDefault("identity.idempotent_activation", false)

	v.SetDefault("log.level", "info")

	setMailDefaults(v)
}

func fromViper(v *viper.Viper) *Options {
	return &Options{
		Issuer:                v.GetString("token.issuer"),
		SigningMethod:         v.GetString("token.signing_method"),
		PrivateKeyPath:        v.GetString("token.private_key_path"),
		PublicKeyPath:         v.GetString("token.public_key_path"),
		PreviousPublicKeyPath: v.GetString("token.previous_public_key_path"),
		AccessTokenTTL:        v.GetDuration("token.access_ttl"),
		RefreshTokenTTL:       v.GetDuration("token.refresh_ttl"),
		AccessCookieName:      v.GetString("cookie.access_name"),
		RefreshCookieName:     v.GetString("cookie.refresh_name"),
		CookieSecure:          v.GetBool("cookie.secure"),
		BaseURL:               v.GetString("server.base_url"),
		ListenAddr:            v.GetString("server.listen"),
		DatabaseDSN:           v.GetString("database.dsn"),
		RedisURL:              v.GetString("redis.url"),
		HashCost:              v.GetInt("identity.hash_cost"),
		HashidIdentities:      v.GetBool("identity.hashid"),
		IdempotentActivation:  v.GetBool("identity.idempotent_activation"),
		LogLevel:              v.GetString("log.level"),
		Mail:                  getMailConfig(v),
	}
}

// GetIssuer returns the token issuer
func (o *Options) GetIssuer() string { return o.Issuer }

// GetSigningMethod returns the JWT algorithm name
func (o *Options) GetSigningMethod() string { return o.SigningMethod }

// GetPrivateKeyPath returns the PEM private key path
func (o *Options) GetPrivateKeyPath() string { return o.PrivateKeyPath }

// GetPublicKeyPath returns the PEM public key path
func (o *Options) GetPublicKeyPath() string { return o.PublicKeyPath }

// GetAccessTokenTTL returns the access token lifetime
func (o *Options) GetAccessTokenTTL() time.Duration { return o.AccessTokenTTL }

// GetRefreshTokenTTL returns the refresh token lifetime
func (o *Options) GetRefreshTokenTTL() time.Duration { return o.RefreshTokenTTL }

// GetAccessCookieName returns the access cookie name
func (o *Options) GetAccessCookieName() string { return o.AccessCookieName }

// GetRefreshCookieName returns the refresh cookie name
func (o *Options) GetRefreshCookieName() string { return o.RefreshCookieName }

// GetCookieSecure reports whether cookies carry the Secure flag
func (o *Options) GetCookieSecure() bool { return o.CookieSecure }

// GetBaseURL returns the public base url used in activation links
func (o *Options) GetBaseURL() string { return o.BaseURL }
