package auth_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	auth "github.com/goliatone/go-auth-jwt"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// MockIdentityStore implements auth.IdentityStore
type MockIdentityStore struct {
	mock.Mock
}

func (m *MockIdentityStore) FindByEmail(ctx context.Context, email string) (*auth.Identity, error) {
	args := m.Called(ctx, email)
	identity, _ := args.Get(0).(*auth.Identity)
	return identity, args.Error(1)
}

func (m *MockIdentityStore) FindByID(ctx context.Context, id string) (*auth.Identity, error) {
	args := m.Called(ctx, id)
	identity, _ := args.Get(0).(*auth.Identity)
	return identity, args.Error(1)
}

func (m *MockIdentityStore) Insert(ctx context.Context, email, passwordHash string) (*auth.Identity, error) {
	args := m.Called(ctx, email, passwordHash)
	identity, _ := args.Get(0).(*auth.Identity)
	return identity, args.Error(1)
}

func (m *MockIdentityStore) UpdateActivation(ctx context.Context, id string, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

// MockProfileStore implements auth.ProfileStore
type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) FindProfile(ctx context.Context, id string) (*auth.Profile, error) {
	args := m.Called(ctx, id)
	profile, _ := args.Get(0).(*auth.Profile)
	return profile, args.Error(1)
}

func (m *MockProfileStore) UpdateProfile(ctx context.Context, id string, update auth.ProfileUpdate) (*auth.Profile, error) {
	args := m.Called(ctx, id, update)
	profile, _ := args.Get(0).(*auth.Profile)
	return profile, args.Error(1)
}

// MockNotifier implements auth.RegistrationNotifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyRegistration(ctx context.Context, email, identityID string) {
	m.Called(ctx, email, identityID)
}

// MockLogger implements auth.Logger and keeps every line it was given.
type MockLogger struct {
	mu    sync.Mutex
	lines []string
}

func (m *MockLogger) record(level, msg string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, fmt.Sprint(level, " ", msg, " ", args))
}

func (m *MockLogger) Debug(msg string, args ...any) { m.record("DBG", msg, args...) }
func (m *MockLogger) Info(msg string, args ...any)  { m.record("INF", msg, args...) }
func (m *MockLogger) Warn(msg string, args ...any)  { m.record("WRN", msg, args...) }
func (m *MockLogger) Error(msg string, args ...any) { m.record("ERR", msg, args...) }

func (m *MockLogger) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lines...)
}

// recordingSink collects activity events
type recordingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event auth.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Events() []auth.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]auth.ActivityEvent(nil), s.events...)
}

func newTestTokens(t *testing.T, opts ...auth.TokenServiceOption) *auth.TokenService {
	t.Helper()
	priv, pub, err := auth.GenerateKeyPair(auth.MethodEdDSA)
	require.NoError(t, err)

	ts, err := auth.NewTokenService(auth.TokenConfig{
		Method:     auth.MethodEdDSA,
		PrivateKey: priv,
		PublicKey:  pub,
		Issuer:     "test-issuer",
	}, opts...)
	require.NoError(t, err)
	return ts
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func fastHasher() *auth.BcryptHasher {
	return auth.NewBcryptHasher(auth.WithHashCost(bcrypt.MinCost))
}
