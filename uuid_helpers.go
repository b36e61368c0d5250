package auth

import (
	"strings"

	"github.com/google/uuid"
)

// parseIdentityID reports whether id can reference a stored identity.
func parseIdentityID(id string) (uuid.UUID, bool) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil || uid == uuid.Nil {
		return uuid.Nil, false
	}
	return uid, true
}
