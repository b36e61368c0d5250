package auth

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() repository.Repository[*User]
	Profiles() repository.Repository[*Profile]
	Identities() *IdentityRepository
}

type mngr struct {
	db         *bun.DB
	identities *IdentityRepository
}

// NewRepositoryManager builds every repository on top of db.
func NewRepositoryManager(db *bun.DB, opts ...IdentityRepositoryOption) RepositoryManager {
	return &mngr{
		db:         db,
		identities: NewIdentityRepository(db, opts...),
	}
}

func (m mngr) Validate() error {
	if m.db == nil {
		return errors.New("repository database should be initialized")
	}

	if m.identities == nil || m.identities.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.identities.profiles == nil {
		return errors.New("repository profiles should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return RunInTx(ctx, m.db, opts, f)
}

func (m mngr) Users() repository.Repository[*User] {
	return m.identities.users
}

func (m mngr) Profiles() repository.Repository[*Profile] {
	return m.identities.profiles
}

func (m mngr) Identities() *IdentityRepository {
	return m.identities
}

// RunInTx runs f in a transaction unless ctx is already done.
func RunInTx(ctx context.Context, db *bun.DB, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return db.RunInTx(ctx, opts, f)
	}
}
