package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"
)

const pgUniqueViolation = "23505"

// IdentityRepository is the bun backed IdentityStore and ProfileStore.
type IdentityRepository struct {
	db         *bun.DB
	users      repository.Repository[*User]
	profiles   repository.Repository[*Profile]
	useHashid  bool
	generateID func(email string) uuid.UUID
}

var (
	_ IdentityStore = (*IdentityRepository)(nil)
	_ ProfileStore  = (*IdentityRepository)(nil)
)

// IdentityRepositoryOption configures an IdentityRepository
type IdentityRepositoryOption func(*IdentityRepository)

// WithHashidIdentities derives identity ids from the email so the same
// address always maps to the same id.
func WithHashidIdentities() IdentityRepositoryOption {
	return func(r *IdentityRepository) {
		r.useHashid = true
	}
}

// NewIdentityRepository wires the users and profiles repositories.
func NewIdentityRepository(db *bun.DB, opts ...IdentityRepositoryOption) *IdentityRepository {
	r := &IdentityRepository{
		db:       db,
		users:    NewUsersRepository(db),
		profiles: NewProfilesRepository(db),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.generateID = r.newID
	return r
}

// NewUsersRepository returns the generic repository for users, keyed by email.
func NewUsersRepository(db *bun.DB) repository.Repository[*User] {
	return repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})
}

// NewProfilesRepository returns the generic repository for profiles.
func NewProfilesRepository(db *bun.DB) repository.Repository[*Profile] {
	return repository.NewRepository[*Profile](db, repository.ModelHandlers[*Profile]{
		NewRecord: func() *Profile { return &Profile{} },
		GetID: func(p *Profile) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Profile, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
		GetIdentifier: func() string {
			return "username"
		},
	})
}

func (r *IdentityRepository) newID(email string) uuid.UUID {
	if r.useHashid {
		if id, err := hashid.NewUUID(email); err == nil {
			return id
		}
	}
	return uuid.New()
}

// FindByEmail satisfies IdentityStore.
func (r *IdentityRepository) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	return r.findOne(ctx, "email", email)
}

// FindByID satisfies IdentityStore. Ids that are not UUIDs cannot exist.
func (r *IdentityRepository) FindByID(ctx context.Context, id string) (*Identity, error) {
	uid, ok := parseIdentityID(id)
	if !ok {
		return nil, nil
	}
	return r.findOne(ctx, "id", uid)
}

func (r *IdentityRepository) findOne(ctx context.Context, column string, value any) (*Identity, error) {
	record := &User{}
	err := r.db.NewSelect().
		Model(record).
		Relation("Profile").
		Where("?TableAlias.? = ?", bun.Ident(column), value).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load identity").
			WithMetadata(map[string]any{column: value})
	}
	return record.toIdentity(), nil
}

// Insert creates the user and its inactive profile in one transaction.
func (r *IdentityRepository) Insert(ctx context.Context, email, passwordHash string) (*Identity, error) {
	user := &User{
		ID:           r.generateID(normalizeEmail(email)),
		Email:        normalizeEmail(email),
		PasswordHash: passwordHash,
	}
	profile := &Profile{ID: user.ID}

	err := RunInTx(ctx, r.db, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := r.users.CreateTx(ctx, tx, user)
		if err != nil {
			return err
		}
		user = created
		profile.ID = created.ID
		_, err = r.profiles.CreateTx(ctx, tx, profile)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateIdentity
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to insert identity")
	}

	user.Profile = profile
	return user.toIdentity(), nil
}

// UpdateActivation sets the activation flag on the identity profile.
func (r *IdentityRepository) UpdateActivation(ctx context.Context, id string, active bool) error {
	uid, ok := parseIdentityID(id)
	if !ok {
		return ErrNotFound
	}

	res, err := r.db.NewUpdate().
		Model((*Profile)(nil)).
		Set("is_active = ?", active).
		Where("id = ?", uid).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update activation").
			WithMetadata(map[string]any{"id": id})
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// FindProfile satisfies ProfileStore.
func (r *IdentityRepository) FindProfile(ctx context.Context, id string) (*Profile, error) {
	uid, ok := parseIdentityID(id)
	if !ok {
		return nil, nil
	}
	profile, err := r.profiles.GetByID(ctx, uid.String())
	if err != nil {
		if repository.IsRecordNotFound(err) || errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load profile")
	}
	return profile, nil
}

// UpdateProfile writes the non nil fields of update.
func (r *IdentityRepository) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*Profile, error) {
	uid, ok := parseIdentityID(id)
	if !ok {
		return nil, ErrNotFound
	}

	record := &Profile{ID: uid}
	columns := make([]string, 0, 4)
	if update.Username != nil {
		record.Username = strings.TrimSpace(*update.Username)
		columns = append(columns, "username")
	}
	if update.Bio != nil {
		record.Bio = *update.Bio
		columns = append(columns, "bio")
	}
	if update.Birthday != nil {
		record.Birthday = update.Birthday
		columns = append(columns, "birthday")
	}
	if update.PhoneNumber != nil {
		record.PhoneNumber = *update.PhoneNumber
		columns = append(columns, "phone_number")
	}

	if len(columns) > 0 {
		res, err := r.db.NewUpdate().
			Model(record).
			Column(columns...).
			WherePK().
			Exec(ctx)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, ErrAlreadyExists
			}
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update profile").
				WithMetadata(map[string]any{"id": id, "columns": columns})
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return nil, ErrNotFound
		}
	}

	profile, err := r.FindProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrNotFound
	}
	return profile, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

// normalizeEmail trims surrounding whitespace. Case is kept as given and
// matched exactly.
func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}
