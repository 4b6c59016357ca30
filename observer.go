package authclient

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Observer is notified of login and logout transitions. Hooks run after the
// operation has released the Orchestrator, in transition order, on the
// goroutine that delivers the queue. A hook may call Login or Logout on the
// same Orchestrator; the nested notification is delivered once the current
// hook returns, so the nested call can return before its own hook fires.
type Observer interface {
	OnLogin(ctx context.Context)
	OnLogout(ctx context.Context)
}

// ObserverFuncs implements Observer with optional hooks. Register it by
// pointer so the registry can key it by identity.
type ObserverFuncs struct {
	Login  func(ctx context.Context)
	Logout func(ctx context.Context)
}

func (o *ObserverFuncs) OnLogin(ctx context.Context) {
	if o != nil && o.Login != nil {
		o.Login(ctx)
	}
}

func (o *ObserverFuncs) OnLogout(ctx context.Context) {
	if o != nil && o.Logout != nil {
		o.Logout(ctx)
	}
}

// OnLogin returns an Observer that only reacts to logins.
func OnLogin(fn func(ctx context.Context)) *ObserverFuncs {
	return &ObserverFuncs{Login: fn}
}

// OnLogout returns an Observer that only reacts to logouts.
func OnLogout(fn func(ctx context.Context)) *ObserverFuncs {
	return &ObserverFuncs{Logout: fn}
}

// Subscription is the handle returned by Subscribe. The registry keeps the
// observer only until Cancel is called.
type Subscription struct {
	ID       uuid.UUID
	observer Observer
	active   atomic.Bool
	registry *ObserverRegistry
}

// Cancel removes the observer. Safe to call more than once and from inside
// a hook.
func (s *Subscription) Cancel() {
	if s == nil || s.registry == nil {
		return
	}
	s.registry.remove(s)
}

// Active reports whether the subscription is still registered.
func (s *Subscription) Active() bool {
	return s != nil && s.active.Load()
}

// ObserverRegistry is a multicast container keyed by observer identity.
type ObserverRegistry struct {
	mu      sync.RWMutex
	entries []*Subscription
	logger  Logger
}

// NewObserverRegistry returns an empty registry.
func NewObserverRegistry(logger Logger) *ObserverRegistry {
	if logger == nil {
		logger = defaultLogger()
	}
	return &ObserverRegistry{logger: logger}
}

// Subscribe registers o. Subscribing the same observer again returns the
// existing subscription instead of adding a second entry.
func (r *ObserverRegistry) Subscribe(o Observer) *Subscription {
	if o == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing := r.find(o); existing != nil {
		return existing
	}

	sub := &Subscription{
		ID:       uuid.New(),
		observer: o,
		registry: r,
	}
	sub.active.Store(true)
	r.entries = append(r.entries, sub)
	return sub
}

// Unsubscribe removes o, reporting whether it was registered.
func (r *ObserverRegistry) Unsubscribe(o Observer) bool {
	if o == nil {
		return false
	}

	r.mu.Lock()
	sub := r.find(o)
	r.mu.Unlock()

	if sub == nil {
		return false
	}
	r.remove(sub)
	return true
}

// Len returns the number of registered observers.
func (r *ObserverRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// NotifyLogin calls OnLogin on every registered observer.
func (r *ObserverRegistry) NotifyLogin(ctx context.Context) {
	r.broadcast(ctx, "login", func(o Observer) { o.OnLogin(ctx) })
}

// NotifyLogout calls OnLogout on every registered observer.
func (r *ObserverRegistry) NotifyLogout(ctx context.Context) {
	r.broadcast(ctx, "logout", func(o Observer) { o.OnLogout(ctx) })
}

// broadcast walks a snapshot in registration order. Entries cancelled
// during the walk are skipped; a panicking observer is logged and the
// remaining observers still run.
func (r *ObserverRegistry) broadcast(ctx context.Context, hook string, invoke func(Observer)) {
	r.mu.RLock()
	snapshot := make([]*Subscription, len(r.entries))
	copy(snapshot, r.entries)
	r.mu.RUnlock()

	for _, sub := range snapshot {
		if !sub.active.Load() {
			continue
		}
		r.invoke(ctx, hook, sub, invoke)
	}
}

func (r *ObserverRegistry) invoke(ctx context.Context, hook string, sub *Subscription, invoke func(Observer)) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.WithContext(ctx).Error("observer hook panicked",
				"hook", hook,
				"subscription", sub.ID.String(),
				"error", fmt.Errorf("%v", rec),
			)
		}
	}()
	invoke(sub.observer)
}

func (r *ObserverRegistry) remove(sub *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !sub.active.CompareAndSwap(true, false) {
		return
	}

	for i, entry := range r.entries {
		if entry == sub {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			break
		}
	}
}

// find must be called with r.mu held.
func (r *ObserverRegistry) find(o Observer) *Subscription {
	if !reflect.TypeOf(o).Comparable() {
		return nil
	}
	for _, entry := range r.entries {
		if !reflect.TypeOf(entry.observer).Comparable() {
			continue
		}
		if entry.observer == o {
			return entry
		}
	}
	return nil
}
