package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	auth "github.com/goliatone/go-auth-jwt"
	"github.com/goliatone/go-auth-jwt/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeKeys(t *testing.T, dir, prefix string) (string, string) {
	t.Helper()
	priv, pub, err := auth.GenerateKeyPair(auth.MethodEdDSA)
	require.NoError(t, err)
	privPEM, pubPEM, err := auth.EncodeKeyPairPEM(priv, pub)
	require.NoError(t, err)

	privPath := filepath.Join(dir, prefix+"private.pem")
	pubPath := filepath.Join(dir, prefix+"public.pem")
	require.NoError(t, os.WriteFile(privPath, privPEM, 0o600))
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0o644))
	return privPath, pubPath
}

func TestLoad_Defaults(t *testing.T) {
	opts, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "RS256", opts.GetSigningMethod())
	assert.Equal(t, auth.DefaultIssuer, opts.GetIssuer())
	assert.Equal(t, 3*time.Minute, opts.GetAccessTokenTTL())
	assert.Equal(t, 24*time.Hour, opts.GetRefreshTokenTTL())
	assert.Equal(t, "access_token_jwt", opts.GetAccessCookieName())
	assert.Equal(t, "refresh_token_jwt", opts.GetRefreshCookieName())
	assert.False(t, opts.GetCookieSecure())
	assert.Equal(t, "http://localhost:8000", opts.GetBaseURL())
	assert.Equal(t, "redis://localhost:6379/0", opts.RedisURL)
	assert.Equal(t, "file:auth.db", opts.DatabaseDSN)
	require.NotNil(t, opts.Mail)
	assert.Equal(t, config.MailProviderLog, opts.Mail.Provider)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "auth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
token:
  issuer: file-issuer
  signing_method: EdDSA
  access_ttl: 5m
cookie:
  secure: true
mail:
  provider: mailgun
  mailgun:
    domain: mg.example.com
`), 0o644))

	t.Setenv("AUTH_TOKEN_ISSUER", "env-issuer")
	t.Setenv("AUTH_MAIL_MAILGUN_KEY", "secret")

	opts, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-issuer", opts.GetIssuer())
	assert.Equal(t, "EdDSA", opts.GetSigningMethod())
	assert.Equal(t, 5*time.Minute, opts.GetAccessTokenTTL())
	assert.True(t, opts.GetCookieSecure())
	assert.Equal(t, config.MailProviderMailgun, opts.Mail.Provider)
	assert.Equal(t, "mg.example.com", opts.Mail.Mailgun.Domain)
	assert.Equal(t, "secret", opts.Mail.Mailgun.Key)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBuildTokenConfig(t *testing.T) {
	dir := t.TempDir()
	privPath, pubPath := writeKeys(t, dir, "")

	opts, err := config.Load("")
	require.NoError(t, err)
	opts.SigningMethod = "EdDSA"
	opts.PrivateKeyPath = privPath
	opts.PublicKeyPath = pubPath

	tc, err := config.BuildTokenConfig(opts)
	require.NoError(t, err)
	assert.Equal(t, auth.MethodEdDSA, tc.Method)
	require.NoError(t, tc.Validate())

	tokens, err := auth.NewTokenService(tc)
	require.NoError(t, err)

	validator, err := config.BuildValidator(opts, tokens)
	require.NoError(t, err)
	assert.Same(t, tokens, validator)
}

func TestBuildTokenConfig_MissingKeys(t *testing.T) {
	opts, err := config.Load("")
	require.NoError(t, err)
	opts.PrivateKeyPath = filepath.Join(t.TempDir(), "nope.pem")

	_, err = config.BuildTokenConfig(opts)
	assert.Error(t, err)
}

func TestBuildValidator_AcceptsPreviousKey(t *testing.T) {
	dir := t.TempDir()
	oldPriv, oldPub := writeKeys(t, dir, "old_")
	newPriv, newPub := writeKeys(t, dir, "new_")

	opts, err := config.Load("")
	require.NoError(t, err)
	opts.SigningMethod = "EdDSA"

	opts.PrivateKeyPath, opts.PublicKeyPath = oldPriv, oldPub
	oldCfg, err := config.BuildTokenConfig(opts)
	require.NoError(t, err)
	oldTokens, err := auth.NewTokenService(oldCfg)
	require.NoError(t, err)

	opts.PrivateKeyPath, opts.PublicKeyPath = newPriv, newPub
	opts.PreviousPublicKeyPath = oldPub
	newCfg, err := config.BuildTokenConfig(opts)
	require.NoError(t, err)
	newTokens, err := auth.NewTokenService(newCfg)
	require.NoError(t, err)

	identity := &auth.Identity{ID: "user-1", Email: "a@example.com"}
	legacy, err := oldTokens.IssueAccess(identity, nil)
	require.NoError(t, err)

	_, err = newTokens.Decode(legacy.Value)
	require.ErrorIs(t, err, auth.ErrInvalidToken)

	validator, err := config.BuildValidator(opts, newTokens)
	require.NoError(t, err)

	claims, err := validator.Decode(legacy.Value)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject())
}
