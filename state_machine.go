package auth

import (
	"context"
	"fmt"
	"time"
)

// AttemptState is the state of one authentication attempt.
type AttemptState string

const (
	AttemptPending         AttemptState = "pending"
	AttemptCredentialValid AttemptState = "credential_valid"
	AttemptRejected        AttemptState = "rejected"
	AttemptIssued          AttemptState = "issued"
)

// Terminal reports whether no further transition is possible.
func (s AttemptState) Terminal() bool {
	return s == AttemptRejected || s == AttemptIssued
}

// AttemptFlow names the operation an attempt belongs to.
type AttemptFlow string

const (
	FlowRegister AttemptFlow = "register"
	FlowLogin    AttemptFlow = "login"
	FlowRefresh  AttemptFlow = "refresh"
	FlowActivate AttemptFlow = "activate"
)

var attemptTransitions = map[AttemptState]map[AttemptState]struct{}{
	AttemptPending: {
		AttemptCredentialValid: {},
		AttemptRejected:        {},
	},
	AttemptCredentialValid: {
		AttemptIssued:   {},
		AttemptRejected: {},
	},
}

// CanTransition reports whether from → to is an edge of the attempt graph.
func CanTransition(from, to AttemptState) bool {
	if allowed, ok := attemptTransitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

// AttemptTransition is passed to hooks after every state change.
type AttemptTransition struct {
	Flow    AttemptFlow
	Subject string
	From    AttemptState
	To      AttemptState
	Cause   error
}

// AttemptHook observes transitions. Errors are logged, never propagated.
type AttemptHook func(ctx context.Context, tc AttemptTransition) error

// AttemptMachine creates attempts and reports their terminal states.
type AttemptMachine struct {
	now          func() time.Time
	activitySink ActivitySink
	logger       Logger
	hooks        []AttemptHook
}

// AttemptMachineOption customizes AttemptMachine construction.
type AttemptMachineOption func(*AttemptMachine)

// WithAttemptClock injects a custom clock (useful for tests).
func WithAttemptClock(clock func() time.Time) AttemptMachineOption {
	return func(m *AttemptMachine) {
		if clock != nil {
			m.now = clock
		}
	}
}

// WithAttemptActivitySink sets the ActivitySink used to publish terminal states.
func WithAttemptActivitySink(sink ActivitySink) AttemptMachineOption {
	return func(m *AttemptMachine) {
		m.activitySink = normalizeActivitySink(sink)
	}
}

// WithAttemptLogger overrides the logger used for sink and hook failures.
func WithAttemptLogger(logger Logger) AttemptMachineOption {
	return func(m *AttemptMachine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithAttemptHook adds a hook executed after each transition.
func WithAttemptHook(h AttemptHook) AttemptMachineOption {
	return func(m *AttemptMachine) {
		if h != nil {
			m.hooks = append(m.hooks, h)
		}
	}
}

// NewAttemptMachine returns a machine with a no-op sink.
func NewAttemptMachine(opts ...AttemptMachineOption) *AttemptMachine {
	m := &AttemptMachine{
		now:          time.Now,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Begin starts an attempt in AttemptPending. Attempts belong to one request
// and are not safe for concurrent use.
func (m *AttemptMachine) Begin(flow AttemptFlow) *Attempt {
	return &Attempt{
		machine:   m,
		flow:      flow,
		state:     AttemptPending,
		startedAt: m.now(),
	}
}

// Attempt tracks one register, login, refresh or activate call.
type Attempt struct {
	machine   *AttemptMachine
	flow      AttemptFlow
	state     AttemptState
	subject   string
	startedAt time.Time
}

// State returns the current state
func (a *Attempt) State() AttemptState {
	return a.state
}

// Flow returns the flow
func (a *Attempt) Flow() AttemptFlow {
	return a.flow
}

// Subject returns the identity id once known
func (a *Attempt) Subject() string {
	return a.subject
}

// Identify records the identity id the attempt resolved to.
func (a *Attempt) Identify(subject string) {
	a.subject = subject
}

// Validate moves to AttemptCredentialValid.
func (a *Attempt) Validate(ctx context.Context) error {
	return a.transition(ctx, AttemptCredentialValid, nil)
}

// Issue moves to AttemptIssued.
func (a *Attempt) Issue(ctx context.Context) error {
	return a.transition(ctx, AttemptIssued, nil)
}

// Reject moves to AttemptRejected and returns cause so callers can
// `return attempt.Reject(ctx, err)`.
func (a *Attempt) Reject(ctx context.Context, cause error) error {
	if err := a.transition(ctx, AttemptRejected, cause); err != nil {
		a.machine.logger.Error("attempt reject failed", "flow", a.flow, "from", a.state, "error", err)
	}
	return cause
}

func (a *Attempt) transition(ctx context.Context, to AttemptState, cause error) error {
	from := a.state
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	a.state = to

	tc := AttemptTransition{
		Flow:    a.flow,
		Subject: a.subject,
		From:    from,
		To:      to,
		Cause:   cause,
	}
	a.machine.runHooks(ctx, tc)

	if to.Terminal() {
		a.machine.recordActivity(ctx, a, tc)
	}
	return nil
}

func (m *AttemptMachine) runHooks(ctx context.Context, tc AttemptTransition) {
	for _, hook := range m.hooks {
		if err := hook(ctx, tc); err != nil {
			m.logger.Warn("attempt hook failed", "flow", tc.Flow, "from", tc.From, "to", tc.To, "error", err)
		}
	}
}

func (m *AttemptMachine) recordActivity(ctx context.Context, a *Attempt, tc AttemptTransition) {
	event := ActivityEvent{
		EventType:  activityEventType(tc.Flow, tc.To),
		Flow:       tc.Flow,
		UserID:     tc.Subject,
		FromState:  tc.From,
		ToState:    tc.To,
		ErrorKind:  ErrorKind(tc.Cause),
		OccurredAt: m.now(),
		Metadata: map[string]any{
			"duration_ms": m.now().Sub(a.startedAt).Milliseconds(),
		},
	}

	if err := m.activitySink.Record(ctx, event); err != nil {
		m.logger.Warn("activity sink failed", "event", event.EventType, "error", err)
	}
}
