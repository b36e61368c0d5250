package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// RegisterMessage is the acknowledgment returned by a successful Register.
const RegisterMessage = "User created. Check your email to activate the account."

// RegisterResult never carries the password or its hash.
type RegisterResult struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Message string `json:"detail"`
}

// Auther implements the register, login, refresh, activate and logout flows
// on top of an IdentityStore and a TokenService. It holds no mutable state
// per request and is safe for concurrent use once configured.
type Auther struct {
	store                IdentityStore
	profiles             ProfileStore
	tokens               *TokenService
	hasher               PasswordHasher
	notifier             RegistrationNotifier
	logger               Logger
	activitySink         ActivitySink
	claimsDecorator      ClaimsDecorator
	attemptHooks         []AttemptHook
	machine              *AttemptMachine
	idempotentActivation bool

	dummyOnce sync.Once
	dummyHash string
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(store IdentityStore, tokens *TokenService) *Auther {
	s := &Auther{
		store:           store,
		tokens:          tokens,
		hasher:          NewBcryptHasher(),
		notifier:        noopNotifier{},
		logger:          defLogger{},
		activitySink:    noopActivitySink{},
		claimsDecorator: noopClaimsDecorator{},
	}
	if ps, ok := store.(ProfileStore); ok {
		s.profiles = ps
	}
	s.rebuildMachine()
	return s
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = normalizeLogger(logger)
	s.rebuildMachine()
	return s
}

// WithHasher replaces the bcrypt hasher.
func (s *Auther) WithHasher(hasher PasswordHasher) *Auther {
	if hasher != nil {
		s.hasher = hasher
		s.dummyOnce = sync.Once{}
		s.dummyHash = ""
	}
	return s
}

// WithNotifier sets who gets told about new registrations.
func (s *Auther) WithNotifier(notifier RegistrationNotifier) *Auther {
	s.notifier = normalizeNotifier(notifier)
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	s.rebuildMachine()
	return s
}

// WithAttemptHook observes every attempt state change.
func (s *Auther) WithAttemptHook(hook AttemptHook) *Auther {
	if hook != nil {
		s.attemptHooks = append(s.attemptHooks, hook)
		s.rebuildMachine()
	}
	return s
}

// WithClaimsDecorator configures a ClaimsDecorator for enriching access tokens.
func (s *Auther) WithClaimsDecorator(decorator ClaimsDecorator) *Auther {
	s.claimsDecorator = normalizeClaimsDecorator(decorator)
	return s
}

// WithProfileStore sets the store used by Me and UpdateProfile. Stores that
// implement ProfileStore are picked up automatically.
func (s *Auther) WithProfileStore(profiles ProfileStore) *Auther {
	s.profiles = profiles
	return s
}

// WithIdempotentActivation makes activating an already active account a
// successful no-op instead of ErrNotFound.
func (s *Auther) WithIdempotentActivation() *Auther {
	s.idempotentActivation = true
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() *TokenService {
	return s.tokens
}

func (s *Auther) rebuildMachine() {
	opts := []AttemptMachineOption{
		WithAttemptActivitySink(s.activitySink),
		WithAttemptLogger(s.logger),
	}
	for _, h := range s.attemptHooks {
		opts = append(opts, WithAttemptHook(h))
	}
	s.machine = NewAttemptMachine(opts...)
}

// Register creates an inactive identity and signals the notifier.
func (s *Auther) Register(ctx context.Context, email, password string) (*RegisterResult, error) {
	attempt := s.machine.Begin(FlowRegister)
	email = normalizeEmail(email)

	existing, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, attempt.Reject(ctx, s.storeError("Register find identity", err))
	}
	if existing != nil {
		attempt.Identify(existing.ID)
		return nil, attempt.Reject(ctx, ErrAlreadyExists)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, attempt.Reject(ctx, err)
	}

	if err := attempt.Validate(ctx); err != nil {
		return nil, err
	}

	identity, err := s.store.Insert(ctx, email, hash)
	if err != nil {
		if errors.Is(err, ErrDuplicateIdentity) {
			return nil, attempt.Reject(ctx, ErrAlreadyExists)
		}
		return nil, attempt.Reject(ctx, s.storeError("Register insert identity", err))
	}
	attempt.Identify(identity.ID)

	s.notifier.NotifyRegistration(ctx, identity.Email, identity.ID)

	if err := attempt.Issue(ctx); err != nil {
		return nil, err
	}

	return &RegisterResult{
		ID:      identity.ID,
		Email:   identity.Email,
		Message: RegisterMessage,
	}, nil
}

// Login verifies the credentials and issues an access and a refresh token.
// Unknown emails and wrong passwords fail the same way.
func (s *Auther) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	attempt := s.machine.Begin(FlowLogin)

	identity, err := s.store.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, attempt.Reject(ctx, s.storeError("Login find identity", err))
	}
	if identity == nil {
		s.burnVerify(password)
		return nil, attempt.Reject(ctx, ErrInvalidCredentials)
	}
	attempt.Identify(identity.ID)

	ok, err := s.hasher.Verify(password, identity.PasswordHash)
	if err != nil {
		if errors.Is(err, ErrMalformedHash) {
			s.logger.Error("Login stored password hash is malformed", "user_id", identity.ID)
			return nil, attempt.Reject(ctx, ErrInvalidCredentials)
		}
		return nil, attempt.Reject(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to verify credentials"))
	}
	if !ok {
		return nil, attempt.Reject(ctx, ErrInvalidCredentials)
	}

	if err := attempt.Validate(ctx); err != nil {
		return nil, err
	}

	access, err := s.issueAccess(ctx, identity)
	if err != nil {
		return nil, attempt.Reject(ctx, err)
	}
	refresh, err := s.tokens.IssueRefresh(identity)
	if err != nil {
		return nil, attempt.Reject(ctx, err)
	}

	if err := attempt.Issue(ctx); err != nil {
		return nil, err
	}

	return &TokenPair{Access: *access, Refresh: *refresh}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself is not rotated.
func (s *Auther) Refresh(ctx context.Context, refreshToken string) (*IssuedToken, error) {
	attempt := s.machine.Begin(FlowRefresh)

	identity, err := s.identityFromToken(ctx, refreshToken, KindRefresh, attempt)
	if err != nil {
		return nil, attempt.Reject(ctx, err)
	}

	if err := attempt.Validate(ctx); err != nil {
		return nil, err
	}

	access, err := s.issueAccess(ctx, identity)
	if err != nil {
		return nil, attempt.Reject(ctx, err)
	}

	if err := attempt.Issue(ctx); err != nil {
		return nil, err
	}

	return access, nil
}

// Activate flips the activation flag. Unknown ids and, unless
// WithIdempotentActivation is set, already active accounts are ErrNotFound.
func (s *Auther) Activate(ctx context.Context, identityID string) error {
	attempt := s.machine.Begin(FlowActivate)
	attempt.Identify(identityID)

	identity, err := s.store.FindByID(ctx, identityID)
	if err != nil {
		return attempt.Reject(ctx, s.storeError("Activate find identity", err))
	}
	if identity == nil {
		return attempt.Reject(ctx, ErrNotFound)
	}

	if identity.Active {
		if !s.idempotentActivation {
			return attempt.Reject(ctx, ErrNotFound)
		}
		if err := attempt.Validate(ctx); err != nil {
			return err
		}
		return attempt.Issue(ctx)
	}

	if err := attempt.Validate(ctx); err != nil {
		return err
	}

	if err := s.store.UpdateActivation(ctx, identity.ID, true); err != nil {
		if errors.Is(err, ErrNotFound) {
			return attempt.Reject(ctx, ErrNotFound)
		}
		return attempt.Reject(ctx, s.storeError("Activate update activation", err))
	}

	return attempt.Issue(ctx)
}

// Logout keeps no server side state. Boundaries clear their cookies. The
// user is taken from an identity or claims stored in ctx, when present.
func (s *Auther) Logout(ctx context.Context) error {
	event := ActivityEvent{
		EventType:  ActivityEventLogout,
		UserID:     subjectFromContext(ctx),
		OccurredAt: time.Now(),
	}
	if err := s.activitySink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink failed", "event", event.EventType, "error", err)
	}
	return nil
}

// CurrentIdentity resolves the identity behind an access token.
func (s *Auther) CurrentIdentity(ctx context.Context, accessToken string) (*Identity, error) {
	return s.identityFromToken(ctx, accessToken, KindAccess, nil)
}

// Me returns the identity behind accessToken and its profile, if a profile
// store is configured.
func (s *Auther) Me(ctx context.Context, accessToken string) (*Me, error) {
	identity, err := s.CurrentIdentity(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	out := &Me{Identity: identity}
	if s.profiles == nil {
		return out, nil
	}

	profile, err := s.profiles.FindProfile(ctx, identity.ID)
	if err != nil {
		return nil, s.storeError("Me find profile", err)
	}
	out.Profile = profile
	return out, nil
}

// UpdateProfile applies update to the profile of the identity behind
// accessToken. Only activated accounts can change their profile.
func (s *Auther) UpdateProfile(ctx context.Context, accessToken string, update ProfileUpdate) (*Profile, error) {
	if s.profiles == nil {
		return nil, goerrors.New("profile store is not configured", goerrors.CategoryInternal)
	}

	identity, err := s.CurrentIdentity(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if !identity.Active {
		return nil, ErrNotActivated
	}

	var profile *Profile
	if update.Empty() {
		profile, err = s.profiles.FindProfile(ctx, identity.ID)
	} else {
		profile, err = s.profiles.UpdateProfile(ctx, identity.ID, update)
	}
	if err != nil {
		if ErrorKind(err) != "" {
			return nil, err
		}
		return nil, s.storeError("UpdateProfile", err)
	}
	if profile == nil {
		return nil, ErrNotFound
	}
	return profile, nil
}

func (s *Auther) identityFromToken(ctx context.Context, raw string, kind TokenKind, attempt *Attempt) (*Identity, error) {
	if raw == "" {
		return nil, ErrTokenMissing
	}

	claims, err := s.tokens.Decode(raw)
	if err != nil {
		return nil, err
	}
	if claims.Kind() != kind {
		s.logger.Debug("token kind mismatch", "want", kind, "got", claims.Kind())
		return nil, ErrInvalidToken
	}
	if claims.Subject() == "" {
		return nil, ErrSubjectMissing
	}
	if attempt != nil {
		attempt.Identify(claims.Subject())
	}

	identity, err := s.store.FindByID(ctx, claims.Subject())
	if err != nil {
		return nil, s.storeError("find identity by subject", err)
	}
	if identity == nil {
		return nil, ErrNotFound
	}
	return identity, nil
}

func (s *Auther) issueAccess(ctx context.Context, identity *Identity) (*IssuedToken, error) {
	extra := map[string]any{}
	if err := s.claimsDecorator.Decorate(ctx, identity, extra); err != nil {
		s.logger.Error("claims decorator failed", "user_id", identity.ID, "error", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to decorate claims")
	}
	return s.tokens.IssueAccess(identity, extra)
}

// burnVerify spends the same bcrypt work as a real comparison so a missing
// account cannot be told apart by response time.
func (s *Auther) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		hash, err := randomPasswordHash(s.hasher)
		if err != nil {
			s.logger.Warn("could not prepare timing hash", "error", err)
			return
		}
		s.dummyHash = hash
	})
	if s.dummyHash == "" {
		return
	}
	_, _ = s.hasher.Verify(password, s.dummyHash)
}

func (s *Auther) storeError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	s.logger.Error(op+" store error", "error", err)
	return goerrors.Wrap(err, goerrors.CategoryInternal, "identity store failure")
}
