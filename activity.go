package authclient

import (
	"context"
	"time"
)

// ActivityEventType enumerates the events emitted by the Orchestrator.
type ActivityEventType string

const (
	ActivityEventLoginSuccess       ActivityEventType = "auth.client.login.success"
	ActivityEventLoginFailure       ActivityEventType = "auth.client.login.failure"
	ActivityEventRegisterSuccess    ActivityEventType = "auth.client.register.success"
	ActivityEventRegisterFailure    ActivityEventType = "auth.client.register.failure"
	ActivityEventLogout             ActivityEventType = "auth.client.logout"
	ActivityEventLogoutFailure      ActivityEventType = "auth.client.logout.failure"
	ActivityEventAutoLoginSuccess   ActivityEventType = "auth.client.autologin.success"
	ActivityEventAutoLoginFailure   ActivityEventType = "auth.client.autologin.failure"
	ActivityEventSessionRestored    ActivityEventType = "auth.client.session.restored"
	ActivityEventSessionInvalidated ActivityEventType = "auth.client.session.invalidated"
)

// ActivityEvent describes one orchestrator outcome.
type ActivityEvent struct {
	EventType  ActivityEventType
	Operation  Operation
	From       State
	To         State
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
