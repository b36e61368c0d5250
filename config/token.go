package config

import (
	auth "github.com/goliatone/go-auth-jwt"
)

// BuildTokenConfig loads the configured key pair into an auth.TokenConfig.
// Validation happens in auth.NewTokenService.
func BuildTokenConfig(cfg auth.Config) (auth.TokenConfig, error) {
	method, err := auth.ParseSigningMethod(cfg.GetSigningMethod())
	if err != nil {
		return auth.TokenConfig{}, err
	}

	priv, pub, err := auth.LoadKeyPairFiles(method, cfg.GetPrivateKeyPath(), cfg.GetPublicKeyPath())
	if err != nil {
		return auth.TokenConfig{}, err
	}

	return auth.TokenConfig{
		Method:     method,
		PrivateKey: priv,
		PublicKey:  pub,
		Issuer:     cfg.GetIssuer(),
		AccessTTL:  cfg.GetAccessTokenTTL(),
		RefreshTTL: cfg.GetRefreshTokenTTL(),
	}, nil
}

// BuildValidator returns the token service itself, or a validator that also
// accepts tokens signed by the previous key when one is configured.
func BuildValidator(opts *Options, tokens *auth.TokenService) (auth.TokenValidator, error) {
	if opts.PreviousPublicKeyPath == "" {
		return tokens, nil
	}

	current := tokens.Config()
	pub, err := auth.LoadPublicKeyFile(current.Method, opts.PreviousPublicKeyPath)
	if err != nil {
		return nil, err
	}

	previous, err := auth.NewTokenService(auth.TokenConfig{
		Method:     current.Method,
		PublicKey:  pub,
		Issuer:     current.Issuer,
		AccessTTL:  current.AccessTTL,
		RefreshTTL: current.RefreshTTL,
	})
	if err != nil {
		return nil, err
	}

	return auth.NewMultiTokenValidator(tokens, previous), nil
}
