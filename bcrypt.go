package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the largest plaintext the hasher accepts.
const MaxPasswordBytes = 1024

// bcrypt only reads the first 72 bytes of its input.
const bcryptInputWindow = 72

// PasswordHasher hashes and verifies credentials.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

// BcryptHasher is the default PasswordHasher. It is safe for concurrent use.
type BcryptHasher struct {
	cost int
}

// HasherOption configures a BcryptHasher
type HasherOption func(*BcryptHasher)

// WithHashCost sets the bcrypt work factor. Values outside the bcrypt
// range are ignored.
func WithHashCost(cost int) HasherOption {
	return func(h *BcryptHasher) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			h.cost = cost
		}
	}
}

// NewBcryptHasher returns a hasher using passwordHashCost unless overridden.
func NewBcryptHasher(opts ...HasherOption) *BcryptHasher {
	h := &BcryptHasher{cost: passwordHashCost()}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Cost returns the configured work factor
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash returns a salted bcrypt hash of password.
func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}
	if len(password) > MaxPasswordBytes {
		return "", ErrCredentialTooLong
	}

	out, err := bcrypt.GenerateFromPassword(bcryptInput(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Verify reports whether password matches hash. A mismatch is not an error,
// a hash that cannot be parsed is ErrMalformedHash.
func (h *BcryptHasher) Verify(password, hash string) (bool, error) {
	if hash == "" || len(password) > MaxPasswordBytes {
		return false, nil
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), bcryptInput(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if isMalformedBcrypt(err) {
		return false, ErrMalformedHash
	}
	return false, err
}

func bcryptInput(password string) []byte {
	if len(password) <= bcryptInputWindow {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

func isMalformedBcrypt(err error) bool {
	if errors.Is(err, bcrypt.ErrHashTooShort) {
		return true
	}
	var prefixErr bcrypt.InvalidHashPrefixError
	if errors.As(err, &prefixErr) {
		return true
	}
	var costErr bcrypt.InvalidCostError
	if errors.As(err, &costErr) {
		return true
	}
	var versionErr bcrypt.HashVersionTooNewError
	return errors.As(err, &versionErr)
}

var defaultHasher = NewBcryptHasher()

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	return defaultHasher.Hash(password)
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	ok, err := defaultHasher.Verify(password, hash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrMismatchedHashAndPassword
	}
	return nil
}

const randomHashAttempts = 3

// RandomPasswordHash hashes a random secret nobody knows. Useful as a
// placeholder credential.
func RandomPasswordHash() (string, error) {
	return randomPasswordHash(defaultHasher)
}

func randomPasswordHash(h PasswordHasher) (string, error) {
	var err error
	for i := 0; i < randomHashAttempts; i++ {
		var hash string
		if hash, err = h.Hash(uuid.NewString()); err == nil {
			return hash, nil
		}
	}
	return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate random password hash").
		WithMetadata(map[string]any{"attempts": randomHashAttempts})
}
