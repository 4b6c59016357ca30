package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/sync/semaphore"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Orchestrator owns the session token lifecycle: it issues login, register
// and logout requests, keeps the secure store and the network header set in
// step with the result and tells observers about every transition.
//
// Login, Register, Logout and TryAutoLogin are serialized; once an operation
// holds the lock it runs to completion. Observer notifications are queued
// while the lock is held and delivered in order after it is released.
type Orchestrator struct {
	cfg     AuthConfig
	network Network
	tokens  *TokenStore
	headers *SessionHeaders

	observers *ObserverRegistry
	initial   []Observer
	state     *sessionState
	lock      *semaphore.Weighted
	inflight  sync.WaitGroup

	notifyMu sync.Mutex
	pending  []notification
	draining bool

	logger         Logger
	loggerProvider LoggerProvider
	activitySink   ActivitySink
	metrics        Metrics
	inspector      TokenInspector
	now            func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) *Orchestrator

// WithLogger sets the fallback logger.
func WithLogger(logger Logger) Option {
	return func(o *Orchestrator) *Orchestrator {
		o.logger = logger
		return o
	}
}

// WithLoggerProvider sets the provider used to hand out named loggers.
func WithLoggerProvider(provider LoggerProvider) Option {
	return func(o *Orchestrator) *Orchestrator {
		o.loggerProvider = provider
		return o
	}
}

// WithActivitySink configures an ActivitySink for emitting client events.
func WithActivitySink(sink ActivitySink) Option {
	return func(o *Orchestrator) *Orchestrator {
		o.activitySink = normalizeActivitySink(sink)
		return o
	}
}

// WithMetrics configures the metrics recorder.
func WithMetrics(metrics Metrics) Option {
	return func(o *Orchestrator) *Orchestrator {
		o.metrics = normalizeMetrics(metrics)
		return o
	}
}

// WithObservers subscribes observers before the stored session is restored
// and the background auto-login starts, so they see its OnLogin.
func WithObservers(observers ...Observer) Option {
	return func(o *Orchestrator) *Orchestrator {
		o.initial = append(o.initial, observers...)
		return o
	}
}

// WithTokenInspector replaces the inspector used to drop stale tokens at
// startup. Passing nil keeps every stored token.
func WithTokenInspector(inspector TokenInspector) Option {
	return func(o *Orchestrator) *Orchestrator {
		o.inspector = normalizeTokenInspector(inspector)
		return o
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) *Orchestrator {
		if now != nil {
			o.now = now
		}
		return o
	}
}

// New returns an Orchestrator. The stored token, if any, is re-attached
// unless it is a JWT that already expired. When cfg.AutoLogin is set a
// background TryAutoLogin is started; use Wait to drain it.
func New(network Network, store SecureStore, cfg AuthConfig, opts ...Option) *Orchestrator {
	cfg = cfg.withDefaults()

	o := &Orchestrator{
		cfg:          cfg,
		network:      network,
		tokens:       NewTokenStore(store),
		state:        newSessionState(),
		lock:         semaphore.NewWeighted(1),
		activitySink: noopActivitySink{},
		metrics:      noopMetrics{},
		inspector:    NewJWTExpiryInspector(0),
		now:          time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			o = opt(o)
		}
	}

	o.loggerProvider, o.logger = ResolveLogger("authclient.orchestrator", o.loggerProvider, o.logger)
	o.observers = NewObserverRegistry(o.loggerProvider.GetLogger("authclient.observers"))
	for _, observer := range o.initial {
		o.observers.Subscribe(observer)
	}
	o.initial = nil

	var mutator HeaderMutator
	if network != nil {
		mutator = network
	}
	o.headers = NewSessionHeaders(mutator, cfg.HeaderName, cfg.HeaderScheme)

	o.restore(context.Background())

	if cfg.AutoLogin {
		o.spawn(func() {
			if err := o.TryAutoLogin(context.Background()); err != nil {
				o.logger.Warn("background auto-login failed", "error", err)
			}
		})
	}

	return o
}

// Config returns a copy of the configuration in use.
func (o *Orchestrator) Config() AuthConfig {
	return o.cfg
}

// IsAuthenticated reports the cached authentication flag.
func (o *Orchestrator) IsAuthenticated() bool {
	return o.state.IsAuthenticated()
}

// State returns the current session state.
func (o *Orchestrator) State() State {
	return o.state.Current()
}

// Token returns the stored session token.
func (o *Orchestrator) Token(ctx context.Context) (Token, bool, error) {
	return o.tokens.Token(ctx)
}

// Subscribe registers an observer for login and logout notifications.
func (o *Orchestrator) Subscribe(observer Observer) *Subscription {
	return o.observers.Subscribe(observer)
}

// Unsubscribe removes a previously registered observer.
func (o *Orchestrator) Unsubscribe(observer Observer) bool {
	return o.observers.Unsubscribe(observer)
}

// Observers exposes the registry, mostly for inspection.
func (o *Orchestrator) Observers() *ObserverRegistry {
	return o.observers
}

// Login exchanges creds for a session token.
func (o *Orchestrator) Login(ctx context.Context, creds Credentials) (Token, error) {
	return o.authenticate(ctx, OperationLogin, creds)
}

// Register creates an account with creds and starts a session with the
// returned token.
func (o *Orchestrator) Register(ctx context.Context, creds Credentials) (Token, error) {
	return o.authenticate(ctx, OperationRegister, creds)
}

// Logout tears down the local session and then tells the identity
// endpoint. The local session is gone even if the remote call fails.
func (o *Orchestrator) Logout(ctx context.Context) error {
	start := o.now()
	if err := o.acquire(ctx, OperationLogout); err != nil {
		o.metrics.ObserveOperation(OperationLogout, OutcomeFailure, o.since(start))
		return err
	}
	defer o.dispatch()
	defer o.lock.Release(1)

	from := o.state.Current()
	err := o.logoutLocked(ctx)
	o.finish(ctx, OperationLogout, start, from, err)
	return err
}

// TryAutoLogin replays the stored credentials. Nothing stored is not an
// error.
func (o *Orchestrator) TryAutoLogin(ctx context.Context) error {
	start := o.now()
	if err := o.acquire(ctx, OperationAutoLogin); err != nil {
		o.metrics.ObserveOperation(OperationAutoLogin, OutcomeFailure, o.since(start))
		return err
	}
	defer o.dispatch()
	defer o.lock.Release(1)

	from := o.state.Current()

	creds, found, err := o.tokens.Credentials(ctx)
	if err != nil {
		o.logger.Warn("auto-login skipped, stored credentials unreadable", "error", err)
		o.finish(ctx, OperationAutoLogin, start, from, err)
		return err
	}
	if !found {
		o.logger.Debug("auto-login skipped, no stored credentials")
		return nil
	}

	_, err = o.authenticateLocked(ctx, OperationLogin, creds)
	if err != nil {
		o.logger.Warn("auto-login failed", "error", err)
	} else {
		o.logger.Info("auto-login succeeded")
	}
	o.finish(ctx, OperationAutoLogin, start, from, err)
	return err
}

// LoginAsync runs Login on a new goroutine. cb is called exactly once.
func (o *Orchestrator) LoginAsync(ctx context.Context, creds Credentials, cb TokenCallback) {
	o.spawn(func() {
		token, err := o.Login(ctx, creds)
		o.callback(ctx, OperationLogin, func() {
			if cb != nil {
				cb(token, err)
			}
		})
	})
}

// RegisterAsync runs Register on a new goroutine. cb is called exactly once.
func (o *Orchestrator) RegisterAsync(ctx context.Context, creds Credentials, cb TokenCallback) {
	o.spawn(func() {
		token, err := o.Register(ctx, creds)
		o.callback(ctx, OperationRegister, func() {
			if cb != nil {
				cb(token, err)
			}
		})
	})
}

// LogoutAsync runs Logout on a new goroutine. cb is called exactly once.
func (o *Orchestrator) LogoutAsync(ctx context.Context, cb ErrorCallback) {
	o.spawn(func() {
		err := o.Logout(ctx)
		o.callback(ctx, OperationLogout, func() {
			if cb != nil {
				cb(err)
			}
		})
	})
}

// Wait blocks until background auto-login and async operations are done.
func (o *Orchestrator) Wait() {
	o.inflight.Wait()
}

func (o *Orchestrator) authenticate(ctx context.Context, op Operation, creds Credentials) (Token, error) {
	start := o.now()
	if err := o.acquire(ctx, op); err != nil {
		o.metrics.ObserveOperation(op, OutcomeFailure, o.since(start))
		return "", err
	}
	defer o.dispatch()
	defer o.lock.Release(1)

	from := o.state.Current()
	token, err := o.authenticateLocked(ctx, op, creds)
	o.finish(ctx, op, start, from, err)
	return token, err
}

// authenticateLocked must be called with the lock held.
func (o *Orchestrator) authenticateLocked(ctx context.Context, op Operation, creds Credentials) (Token, error) {
	res, err := BuildResource(o.cfg, op, creds)
	if err != nil {
		o.logger.Error("unable to build request", "operation", op, "error", err)
		return "", wrapDomainError(ErrInternal, err, map[string]any{"operation": string(op)})
	}

	body, err := o.execute(ctx, res)
	if err != nil {
		return "", err
	}

	token, err := decodeToken(body, o.cfg.TokenField)
	if err != nil {
		o.logger.Error("unable to decode token", "operation", op, "error", err)
		return "", err
	}

	// Stored credentials must always belong to the stored token: the
	// previous ones are purged when the new ones cannot be written.
	if o.cfg.AutoLogin {
		if err := o.tokens.SaveCredentials(ctx, creds); err != nil {
			o.logger.Warn("unable to persist auto-login credentials", "error", err)
			if err := o.tokens.DeleteCredentials(ctx); err != nil {
				o.logger.Error("unable to purge stale auto-login credentials", "operation", op, "error", err)
				return "", err
			}
		}
	}

	if err := o.tokens.SaveToken(ctx, token); err != nil {
		o.logger.Error("unable to persist token", "operation", op, "error", err)
		if o.cfg.AutoLogin {
			if err := o.tokens.DeleteCredentials(ctx); err != nil {
				o.logger.Error("unable to purge auto-login credentials", "operation", op, "error", err)
			}
		}
		return "", err
	}

	o.headers.Attach(token)
	if _, err := o.state.Transition(StateAuthenticated); err != nil {
		o.logger.Error("session transition rejected", "target", StateAuthenticated, "error", err)
	}
	o.metrics.SetAuthenticated(true)
	o.enqueue(ctx, OperationLogin)

	return token, nil
}

// logoutLocked must be called with the lock held.
func (o *Orchestrator) logoutLocked(ctx context.Context) error {
	token, found, err := o.tokens.Token(ctx)
	if err != nil {
		o.logger.Error("unable to read stored token", "error", err)
		return err
	}

	if !found {
		if o.state.IsAuthenticated() {
			o.logger.Warn("token vanished from store, resetting session")
			o.headers.Detach()
			o.state.reset(false)
			o.metrics.SetAuthenticated(false)
		}
		if err := o.tokens.DeleteCredentials(ctx); err != nil {
			o.logger.Error("unable to delete leftover auto-login credentials", "error", err)
			return err
		}
		return ErrUserAlreadyLoggedOut
	}

	// Credentials go first so a half-finished logout can never be
	// replayed by auto-login on the next start.
	if err := o.tokens.DeleteCredentials(ctx); err != nil {
		o.logger.Error("unable to delete auto-login credentials", "error", err)
		return err
	}

	if err := o.tokens.DeleteToken(ctx); err != nil {
		o.logger.Error("unable to delete stored token", "error", err)
		return err
	}

	o.headers.Detach()
	if _, err := o.state.Transition(StateUnauthenticated); err != nil {
		o.logger.Error("session transition rejected", "target", StateUnauthenticated, "error", err)
	}
	o.metrics.SetAuthenticated(false)
	o.enqueue(ctx, OperationLogout)

	res, err := BuildLogoutResource(o.cfg, token)
	if err != nil {
		o.logger.Error("unable to build request", "operation", OperationLogout, "error", err)
		return wrapDomainError(ErrInternal, err, map[string]any{"operation": string(OperationLogout)})
	}

	if _, err := o.execute(ctx, res); err != nil {
		return err
	}

	return nil
}

func (o *Orchestrator) execute(ctx context.Context, res Resource) ([]byte, error) {
	if o.network == nil {
		return nil, wrapDomainError(ErrInternal, errors.New("network collaborator is not configured"), map[string]any{
			"operation": string(res.Operation),
		})
	}

	body, err := o.network.Execute(ctx, res)
	if err != nil {
		mapped := MapTransportError(err)
		o.logger.Warn("identity endpoint call failed",
			"operation", res.Operation,
			"method", res.Method,
			"url", res.URL,
			"error", mapped,
		)
		return nil, mapped
	}

	return body, nil
}

// restore reconciles the cached flag and header set with the store.
func (o *Orchestrator) restore(ctx context.Context) {
	token, found, err := o.tokens.Token(ctx)
	if err != nil {
		o.logger.Warn("unable to read stored token", "error", err)
		return
	}
	if !found {
		return
	}

	if o.inspector.Stale(token, o.now()) {
		if err := o.tokens.DeleteCredentials(ctx); err != nil {
			o.logger.Error("unable to delete auto-login credentials, keeping session", "error", err)
		} else if err := o.tokens.DeleteToken(ctx); err != nil {
			o.logger.Error("unable to delete stale token, keeping session", "error", err)
		} else {
			o.logger.Info("stored token expired, session invalidated")
			o.emit(ctx, ActivityEventSessionInvalidated, OperationAutoLogin, StateUnauthenticated, StateUnauthenticated, map[string]any{
				"reason": "token_expired",
			})
			return
		}
	}

	o.headers.Attach(token)
	o.state.reset(true)
	o.metrics.SetAuthenticated(true)
	o.logger.Debug("session restored from store")
	o.emit(ctx, ActivityEventSessionRestored, OperationAutoLogin, StateUnauthenticated, StateAuthenticated, nil)
}

func (o *Orchestrator) acquire(ctx context.Context, op Operation) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := o.lock.Acquire(ctx, 1); err != nil {
		o.logger.Debug("operation abandoned while waiting", "operation", op, "error", err)
		return wrapDomainError(ErrUnknown, err, map[string]any{"operation": string(op)})
	}
	return nil
}

func (o *Orchestrator) finish(ctx context.Context, op Operation, start time.Time, from State, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	o.metrics.ObserveOperation(op, outcome, o.since(start))

	var meta map[string]any
	if err != nil {
		meta = map[string]any{
			"error": err.Error(),
			"code":  errorTextCode(err),
		}
	}
	o.emit(ctx, eventFor(op, err), op, from, o.state.Current(), meta)
}

func (o *Orchestrator) emit(ctx context.Context, eventType ActivityEventType, op Operation, from, to State, meta map[string]any) {
	if meta == nil {
		meta = map[string]any{}
	}
	event := ActivityEvent{
		EventType:  eventType,
		Operation:  op,
		From:       from,
		To:         to,
		Metadata:   meta,
		OccurredAt: o.now(),
	}
	if err := normalizeActivitySink(o.activitySink).Record(ctx, event); err != nil {
		o.logger.Warn("activity sink record error", "event", eventType, "error", err)
	}
}

type notification struct {
	ctx context.Context
	op  Operation
}

// enqueue must be called with the lock held so the queue follows the
// transition order.
func (o *Orchestrator) enqueue(ctx context.Context, op Operation) {
	o.notifyMu.Lock()
	o.pending = append(o.pending, notification{ctx: ctx, op: op})
	o.notifyMu.Unlock()
}

// dispatch delivers queued notifications after the lock is released. One
// caller drains at a time; a caller that finds the queue being drained
// returns and leaves its entries to the active drainer. Hooks can
// therefore call back into the Orchestrator without deadlocking.
func (o *Orchestrator) dispatch() {
	o.notifyMu.Lock()
	if o.draining {
		o.notifyMu.Unlock()
		return
	}
	o.draining = true

	for len(o.pending) > 0 {
		next := o.pending[0]
		o.pending = o.pending[1:]
		o.notifyMu.Unlock()

		if next.op == OperationLogout {
			o.observers.NotifyLogout(next.ctx)
		} else {
			o.observers.NotifyLogin(next.ctx)
		}

		o.notifyMu.Lock()
	}

	o.draining = false
	o.notifyMu.Unlock()
}

func (o *Orchestrator) spawn(fn func()) {
	o.inflight.Add(1)
	go func() {
		defer o.inflight.Done()
		fn()
	}()
}

func (o *Orchestrator) callback(ctx context.Context, op Operation, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			o.logger.WithContext(ctx).Error("async callback panicked",
				"operation", op,
				"error", fmt.Errorf("%v", rec),
			)
		}
	}()
	fn()
}

func (o *Orchestrator) since(start time.Time) float64 {
	return o.now().Sub(start).Seconds()
}

func eventFor(op Operation, err error) ActivityEventType {
	failed := err != nil
	switch op {
	case OperationLogin:
		if failed {
			return ActivityEventLoginFailure
		}
		return ActivityEventLoginSuccess
	case OperationRegister:
		if failed {
			return ActivityEventRegisterFailure
		}
		return ActivityEventRegisterSuccess
	case OperationLogout:
		if failed {
			return ActivityEventLogoutFailure
		}
		return ActivityEventLogout
	default:
		if failed {
			return ActivityEventAutoLoginFailure
		}
		return ActivityEventAutoLoginSuccess
	}
}

func errorTextCode(err error) string {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich != nil {
		return rich.TextCode
	}
	return TextCodeUnknown
}

// decodeToken extracts the token from a login or register response. With
// field set the body must be a JSON object; dots walk nested objects.
// Otherwise the body is the token, optionally as a JSON string literal.
func decodeToken(body []byte, field string) (Token, error) {
	raw := bytes.TrimSpace(body)
	if len(raw) == 0 {
		return "", ErrBadData
	}

	if field = strings.TrimSpace(field); field != "" {
		return decodeTokenField(raw, field)
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", wrapDomainError(ErrBadData, err, nil)
		}
		return nonBlankToken(s)
	}

	if !utf8.Valid(raw) {
		return "", wrapDomainError(ErrBadData, errors.New("response body is not valid utf-8"), nil)
	}

	return nonBlankToken(string(raw))
}

func decodeTokenField(raw []byte, field string) (Token, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", wrapDomainError(ErrBadData, err, map[string]any{"field": field})
	}

	var current any = payload
	for _, part := range strings.Split(field, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return "", wrapDomainError(ErrBadData, fmt.Errorf("field %q not found", field), map[string]any{"field": field})
		}
		if current, ok = obj[part]; !ok {
			return "", wrapDomainError(ErrBadData, fmt.Errorf("field %q not found", field), map[string]any{"field": field})
		}
	}

	s, ok := current.(string)
	if !ok {
		return "", wrapDomainError(ErrBadData, fmt.Errorf("field %q is not a string", field), map[string]any{"field": field})
	}
	return nonBlankToken(s)
}

func nonBlankToken(s string) (Token, error) {
	token := Token(strings.TrimSpace(s))
	if token.IsZero() {
		return "", ErrBadData
	}
	return token, nil
}
