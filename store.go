package auth

import "context"

// IdentityStore is the persistence gateway the authenticator depends on.
// Each lookup is a typed query; a missing record is (nil, nil), not an error.
type IdentityStore interface {
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	FindByID(ctx context.Context, id string) (*Identity, error)
	// Insert creates an inactive identity. A uniqueness violation on email
	// is reported as ErrDuplicateIdentity.
	Insert(ctx context.Context, email, passwordHash string) (*Identity, error)
	UpdateActivation(ctx context.Context, id string, active bool) error
}

// ProfileStore reads and updates the profile attached to an identity.
type ProfileStore interface {
	FindProfile(ctx context.Context, id string) (*Profile, error)
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*Profile, error)
}
