package auth

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventRegisterSuccess ActivityEventType = "auth.register.success"
	ActivityEventRegisterFailure ActivityEventType = "auth.register.failure"
	ActivityEventLoginSuccess    ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure    ActivityEventType = "auth.login.failure"
	ActivityEventRefreshSuccess  ActivityEventType = "auth.refresh.success"
	ActivityEventRefreshFailure  ActivityEventType = "auth.refresh.failure"
	ActivityEventActivateSuccess ActivityEventType = "auth.activate.success"
	ActivityEventActivateFailure ActivityEventType = "auth.activate.failure"
	ActivityEventLogout          ActivityEventType = "auth.logout"
)

// ActivityEvent captures audit-friendly information about an attempt that
// reached a terminal state. It never carries credentials or tokens.
type ActivityEvent struct {
	EventType  ActivityEventType
	Flow       AttemptFlow
	UserID     string
	FromState  AttemptState
	ToState    AttemptState
	ErrorKind  string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

func activityEventType(flow AttemptFlow, to AttemptState) ActivityEventType {
	success := to == AttemptIssued
	switch flow {
	case FlowRegister:
		if success {
			return ActivityEventRegisterSuccess
		}
		return ActivityEventRegisterFailure
	case FlowLogin:
		if success {
			return ActivityEventLoginSuccess
		}
		return ActivityEventLoginFailure
	case FlowRefresh:
		if success {
			return ActivityEventRefreshSuccess
		}
		return ActivityEventRefreshFailure
	case FlowActivate:
		if success {
			return ActivityEventActivateSuccess
		}
		return ActivityEventActivateFailure
	}
	return ActivityEventType("auth." + string(flow))
}
