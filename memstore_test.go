package auth_test

import (
	"context"
	"sync"

	auth "github.com/goliatone/go-auth-jwt"
	"github.com/google/uuid"
)

// memoryStore is a stateful auth.IdentityStore for flow tests.
type memoryStore struct {
	mu      sync.Mutex
	byID    map[string]*auth.Identity
	byEmail map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		byID:    map[string]*auth.Identity{},
		byEmail: map[string]string{},
	}
}

func (s *memoryStore) FindByEmail(_ context.Context, email string) (*auth.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, nil
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *memoryStore) FindByID(_ context.Context, id string) (*auth.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *identity
	return &cp, nil
}

func (s *memoryStore) Insert(_ context.Context, email, passwordHash string) (*auth.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[email]; ok {
		return nil, auth.ErrDuplicateIdentity
	}
	identity := &auth.Identity{ID: uuid.NewString(), Email: email, PasswordHash: passwordHash}
	s.byID[identity.ID] = identity
	s.byEmail[email] = identity.ID
	cp := *identity
	return &cp, nil
}

func (s *memoryStore) UpdateActivation(_ context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.byID[id]
	if !ok {
		return auth.ErrNotFound
	}
	identity.Active = active
	return nil
}
