package auth

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// SigningMethod names the asymmetric algorithm used to sign tokens.
type SigningMethod string

const (
	MethodRS256 SigningMethod = "RS256"
	MethodEdDSA SigningMethod = "EdDSA"
)

const rsaKeyBits = 2048

// ParseSigningMethod accepts the JWT "alg" names, case insensitive.
func ParseSigningMethod(name string) (SigningMethod, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "RS256":
		return MethodRS256, nil
	case "EDDSA", "ED25519":
		return MethodEdDSA, nil
	}
	return "", errors.New(fmt.Sprintf("unsupported signing method %q", name), errors.CategoryBadInput).
		WithTextCode(TextCodeInvalidTokenConfig)
}

func (m SigningMethod) jwtMethod() jwt.SigningMethod {
	switch m {
	case MethodEdDSA:
		return jwt.SigningMethodEdDSA
	default:
		return jwt.SigningMethodRS256
	}
}

// LoadKeyPair parses PEM encoded key material for method.
func LoadKeyPair(method SigningMethod, privatePEM, publicPEM []byte) (crypto.Signer, crypto.PublicKey, error) {
	switch method {
	case MethodRS256:
		priv, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.CategoryBadInput, "parse RSA private key")
		}
		pub, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.CategoryBadInput, "parse RSA public key")
		}
		return priv, pub, nil
	case MethodEdDSA:
		priv, err := jwt.ParseEdPrivateKeyFromPEM(privatePEM)
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.CategoryBadInput, "parse Ed25519 private key")
		}
		pub, err := jwt.ParseEdPublicKeyFromPEM(publicPEM)
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.CategoryBadInput, "parse Ed25519 public key")
		}
		signer, ok := priv.(crypto.Signer)
		if !ok {
			return nil, nil, ErrInvalidTokenConfig
		}
		return signer, pub, nil
	}
	return nil, nil, ErrInvalidTokenConfig
}

// LoadKeyPairFiles reads both PEM files and calls LoadKeyPair.
func LoadKeyPairFiles(method SigningMethod, privatePath, publicPath string) (crypto.Signer, crypto.PublicKey, error) {
	privatePEM, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CategoryInternal, "read private key").
			WithMetadata(map[string]any{"path": privatePath})
	}
	publicPEM, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CategoryInternal, "read public key").
			WithMetadata(map[string]any{"path": publicPath})
	}
	return LoadKeyPair(method, privatePEM, publicPEM)
}

// LoadPublicKeyFile reads a PEM public key for verify-only services.
func LoadPublicKeyFile(method SigningMethod, path string) (crypto.PublicKey, error) {
	publicPEM, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "read public key").
			WithMetadata(map[string]any{"path": path})
	}
	switch method {
	case MethodRS256:
		pub, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryBadInput, "parse RSA public key")
		}
		return pub, nil
	case MethodEdDSA:
		pub, err := jwt.ParseEdPublicKeyFromPEM(publicPEM)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryBadInput, "parse Ed25519 public key")
		}
		return pub, nil
	}
	return nil, ErrInvalidTokenConfig
}

// GenerateKeyPair creates a fresh key pair for method.
func GenerateKeyPair(method SigningMethod) (crypto.Signer, crypto.PublicKey, error) {
	switch method {
	case MethodRS256:
		priv, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.CategoryInternal, "generate RSA key")
		}
		return priv, &priv.PublicKey, nil
	case MethodEdDSA:
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.CategoryInternal, "generate Ed25519 key")
		}
		return priv, pub, nil
	}
	return nil, nil, ErrInvalidTokenConfig
}

// EncodeKeyPairPEM returns PKCS8 private and PKIX public PEM blocks.
func EncodeKeyPairPEM(priv crypto.Signer, pub crypto.PublicKey) (privatePEM, publicPEM []byte, err error) {
	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CategoryInternal, "marshal private key")
	}
	pubDER, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CategoryInternal, "marshal public key")
	}

	privatePEM = pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})
	publicPEM = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	return privatePEM, publicPEM, nil
}

func keysMatchMethod(method SigningMethod, priv crypto.Signer, pub crypto.PublicKey) bool {
	switch method {
	case MethodRS256:
		_, okPriv := priv.(*rsa.PrivateKey)
		_, okPub := pub.(*rsa.PublicKey)
		return okPriv && okPub
	case MethodEdDSA:
		_, okPriv := priv.(ed25519.PrivateKey)
		_, okPub := pub.(ed25519.PublicKey)
		return okPriv && okPub
	}
	return false
}
