package auth

import (
	"fmt"
)

var protectedClaims = map[string]struct{}{
	ClaimSubject:  {},
	ClaimIssuer:   {},
	ClaimIssuedAt: {},
	ClaimExpires:  {},
	ClaimNotAfter: {},
	ClaimTokenID:  {},
	ClaimKind:     {},
	ClaimAudience: {},
}

// IsProtectedClaim reports whether name is reserved by the token service.
func IsProtectedClaim(name string) bool {
	_, ok := protectedClaims[name]
	return ok
}

func guardExtraClaims(extra map[string]any) error {
	for name := range extra {
		if IsProtectedClaim(name) {
			return protectedClaimViolation(name)
		}
	}
	return nil
}

func protectedClaimViolation(name string) error {
	return fmt.Errorf("%w: %s", ErrProtectedClaim, name)
}
