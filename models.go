package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Identity is the record the authenticator works with. PasswordHash never
// leaves the process.
type Identity struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Active       bool   `json:"is_active"`
}

// User is the users table model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	Profile       *Profile   `bun:"rel:has-one,join:id=id" json:"profile,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Profile is the profiles table model, one row per user sharing its id.
type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:prf"`
	ID            uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	Username      string     `bun:"username,unique,nullzero" json:"username,omitempty"`
	Bio           string     `bun:"bio,nullzero" json:"bio,omitempty"`
	IsActive      bool       `bun:"is_active,notnull" json:"is_active"`
	Birthday      *time.Time `bun:"birthday,nullzero" json:"birthday,omitempty"`
	PhoneNumber   string     `bun:"phone_number,nullzero" json:"phone_number,omitempty"`
}

// ProfileUpdate carries the fields a user may change on their profile.
// Nil fields are left untouched.
type ProfileUpdate struct {
	Username    *string    `json:"username,omitempty"`
	Bio         *string    `json:"bio,omitempty"`
	Birthday    *time.Time `json:"birthday,omitempty"`
	PhoneNumber *string    `json:"phone_number,omitempty"`
}

// Empty reports whether the update changes nothing
func (p ProfileUpdate) Empty() bool {
	return p.Username == nil && p.Bio == nil && p.Birthday == nil && p.PhoneNumber == nil
}

// Me is the current identity together with its profile.
type Me struct {
	Identity *Identity `json:"user"`
	Profile  *Profile  `json:"profile,omitempty"`
}

func (u *User) toIdentity() *Identity {
	if u == nil {
		return nil
	}
	out := &Identity{
		ID:           u.ID.String(),
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
	}
	if u.Profile != nil {
		out.Active = u.Profile.IsActive
	}
	return out
}
