// Package eventbus republishes auth client transitions on an
// asaskevich/EventBus bus so unrelated components can react without
// holding a reference to the orchestrator.
package eventbus

import (
	"context"
	"time"

	evbus "github.com/asaskevich/EventBus"
	authclient "github.com/goliatone/go-auth-client"
)

const defaultNamespace = "auth"

// Topic suffixes published by the Bridge.
const (
	SuffixLogin    = "login"
	SuffixLogout   = "logout"
	SuffixActivity = "activity"
)

// Event is the payload published on the login and logout topics.
type Event struct {
	Topic      string
	OccurredAt time.Time
}

// Bridge is an authclient.Observer and authclient.ActivitySink that
// publishes onto a bus. Subscribers receive Event on "<ns>:login" and
// "<ns>:logout", and authclient.ActivityEvent on "<ns>:activity".
type Bridge struct {
	bus       evbus.Bus
	namespace string
	now       func() time.Time
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithNamespace sets the topic prefix.
func WithNamespace(ns string) Option {
	return func(b *Bridge) {
		if ns != "" {
			b.namespace = ns
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *Bridge) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBridge returns a bridge publishing on bus. A nil bus gets a fresh one.
func NewBridge(bus evbus.Bus, opts ...Option) *Bridge {
	if bus == nil {
		bus = evbus.New()
	}
	b := &Bridge{
		bus:       bus,
		namespace: defaultNamespace,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Bus returns the underlying bus.
func (b *Bridge) Bus() evbus.Bus {
	return b.bus
}

// Topic returns the full topic name for suffix.
func (b *Bridge) Topic(suffix string) string {
	return b.namespace + ":" + suffix
}

// OnLogin implements authclient.Observer.
func (b *Bridge) OnLogin(context.Context) {
	b.publish(SuffixLogin)
}

// OnLogout implements authclient.Observer.
func (b *Bridge) OnLogout(context.Context) {
	b.publish(SuffixLogout)
}

// Record implements authclient.ActivitySink.
func (b *Bridge) Record(_ context.Context, event authclient.ActivityEvent) error {
	b.bus.Publish(b.Topic(SuffixActivity), event)
	return nil
}

func (b *Bridge) publish(suffix string) {
	topic := b.Topic(suffix)
	b.bus.Publish(topic, Event{Topic: topic, OccurredAt: b.now()})
}
