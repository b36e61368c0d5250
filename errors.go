package auth

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes are the stable, transport agnostic identifiers for every
// rejection the authenticator can produce. Boundaries map them to status codes.
const (
	TextCodeAlreadyExists      = "ALREADY_EXISTS"
	TextCodeInvalidCreds       = "INVALID_CREDENTIALS"
	TextCodeNotFound           = "NOT_FOUND"
	TextCodeSubjectMissing     = "SUBJECT_MISSING"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeInvalidToken       = "INVALID_TOKEN"
	TextCodeTokenMissing       = "TOKEN_MISSING"
	TextCodeCredentialTooLong  = "CREDENTIAL_TOO_LONG"
	TextCodeMalformedHash      = "MALFORMED_HASH"
	TextCodeEmptyPassword      = "EMPTY_PASSWORD"
	TextCodeDuplicateIdentity  = "DUPLICATE_IDENTITY"
	TextCodeInvalidTransition  = "INVALID_STATE_TRANSITION"
	TextCodeProtectedClaim     = "PROTECTED_CLAIM"
	TextCodeInvalidTokenConfig = "INVALID_TOKEN_CONFIG"
	TextCodeNotActivated       = "NOT_ACTIVATED"
)

// ErrAlreadyExists is returned when registering an email that is taken.
var ErrAlreadyExists = goerrors.New("identity already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeAlreadyExists)

// ErrInvalidCredentials covers both unknown emails and wrong passwords.
// Callers must not be able to tell the two apart.
var ErrInvalidCredentials = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds)

// ErrNotFound is returned when an identity referenced by id does not exist.
var ErrNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeNotFound)

// ErrSubjectMissing is returned for tokens that verify but carry no subject.
var ErrSubjectMissing = goerrors.New("token subject is missing", goerrors.CategoryAuth).
	WithTextCode(TextCodeSubjectMissing)

// ErrTokenExpired is returned for tokens with a valid signature past expiration.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired)

// ErrInvalidToken covers signature mismatch, malformed structure, unexpected
// algorithm and unexpected token kind.
var ErrInvalidToken = goerrors.New("token is invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken)

// ErrTokenMissing is returned by boundaries when no token was supplied.
var ErrTokenMissing = goerrors.New("token is missing", goerrors.CategoryBadInput).
	WithTextCode(TextCodeTokenMissing)

// ErrCredentialTooLong is returned by the hasher for passwords above MaxPasswordBytes.
var ErrCredentialTooLong = goerrors.New("credential exceeds maximum length", goerrors.CategoryValidation).
	WithTextCode(TextCodeCredentialTooLong)

// ErrMalformedHash is returned when a stored hash cannot be parsed at all.
var ErrMalformedHash = goerrors.New("password hash is malformed", goerrors.CategoryInternal).
	WithTextCode(TextCodeMalformedHash)

// ErrNoEmptyString is returned when hashing an empty password.
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword)

// ErrMismatchedHashAndPassword is returned by ComparePasswordAndHash on mismatch.
var ErrMismatchedHashAndPassword = ErrInvalidCredentials

// ErrDuplicateIdentity is surfaced by stores when an insert hits the email
// uniqueness constraint.
var ErrDuplicateIdentity = goerrors.New("identity violates uniqueness constraint", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateIdentity)

// ErrInvalidTransition is returned when an attempt moves between states the
// attempt graph does not allow.
var ErrInvalidTransition = goerrors.New("invalid authentication state transition", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidTransition)

// ErrProtectedClaim is returned when extra claims try to override a reserved claim.
var ErrProtectedClaim = goerrors.New("extra claims cannot override protected claims", goerrors.CategoryBadInput).
	WithTextCode(TextCodeProtectedClaim)

// ErrInvalidTokenConfig is returned by NewTokenService for unusable configuration.
var ErrInvalidTokenConfig = goerrors.New("invalid token configuration", goerrors.CategoryInternal).
	WithTextCode(TextCodeInvalidTokenConfig)

// ErrNotActivated is returned by profile operations on accounts that have not
// completed activation.
var ErrNotActivated = goerrors.New("account is not activated", goerrors.CategoryAuthz).
	WithTextCode(TextCodeNotActivated)

var taxonomy = []*goerrors.Error{
	ErrAlreadyExists,
	ErrInvalidCredentials,
	ErrNotFound,
	ErrSubjectMissing,
	ErrTokenExpired,
	ErrInvalidToken,
	ErrTokenMissing,
	ErrCredentialTooLong,
	ErrMalformedHash,
	ErrNoEmptyString,
	ErrDuplicateIdentity,
	ErrInvalidTransition,
	ErrProtectedClaim,
	ErrInvalidTokenConfig,
	ErrNotActivated,
}

// ErrorKind returns the text code of a taxonomy error, or an empty string
// for anything else (store failures, context cancellation, etc).
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}

	for _, known := range taxonomy {
		if errors.Is(err, known) {
			return known.TextCode
		}
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		for _, known := range taxonomy {
			if richErr.TextCode == known.TextCode {
				return known.TextCode
			}
		}
	}

	return ""
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
