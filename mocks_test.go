package authclient_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	authclient "github.com/goliatone/go-auth-client"
	"github.com/stretchr/testify/mock"
)

// spyNetwork records every request and answers with programmable handlers.
type spyNetwork struct {
	mu       sync.Mutex
	handlers map[authclient.Operation]func(authclient.Resource) ([]byte, error)
	calls    []authclient.Resource
	headers  map[string]string
	sets     int
	removes  int
}

func newSpyNetwork() *spyNetwork {
	return &spyNetwork{
		handlers: map[authclient.Operation]func(authclient.Resource) ([]byte, error){},
		headers:  map[string]string{},
	}
}

func (n *spyNetwork) respond(op authclient.Operation, body string, err error) *spyNetwork {
	return n.handle(op, func(authclient.Resource) ([]byte, error) {
		if err != nil {
			return nil, err
		}
		return []byte(body), nil
	})
}

func (n *spyNetwork) handle(op authclient.Operation, fn func(authclient.Resource) ([]byte, error)) *spyNetwork {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[op] = fn
	return n
}

func (n *spyNetwork) Execute(_ context.Context, res authclient.Resource) ([]byte, error) {
	n.mu.Lock()
	n.calls = append(n.calls, res)
	handler := n.handlers[res.Operation]
	n.mu.Unlock()

	if handler == nil {
		return nil, errors.New("no handler registered")
	}
	return handler(res)
}

func (n *spyNetwork) SetHeader(key, value string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.headers[key] = value
	n.sets++
}

func (n *spyNetwork) RemoveHeader(key string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.headers, key)
	n.removes++
}

func (n *spyNetwork) Calls() []authclient.Resource {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]authclient.Resource, len(n.calls))
	copy(out, n.calls)
	return out
}

func (n *spyNetwork) CallsFor(op authclient.Operation) int {
	count := 0
	for _, c := range n.Calls() {
		if c.Operation == op {
			count++
		}
	}
	return count
}

// headerWrites reports how many times the header was set and removed.
func (n *spyNetwork) headerWrites() (sets, removes int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sets, n.removes
}

func (n *spyNetwork) Header(key string) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	v, ok := n.headers[key]
	return v, ok
}

// spyStore is an in-memory SecureStore with per-key failure injection.
type spyStore struct {
	mu        sync.Mutex
	data      map[string]string
	setErr    map[string]error
	getErr    map[string]error
	deleteErr map[string]error
}

func newSpyStore() *spyStore {
	return &spyStore{
		data:      map[string]string{},
		setErr:    map[string]error{},
		getErr:    map[string]error{},
		deleteErr: map[string]error{},
	}
}

func (s *spyStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.setErr[key]; err != nil {
		return err
	}
	s.data[key] = value
	return nil
}

func (s *spyStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.getErr[key]; err != nil {
		return "", err
	}
	v, ok := s.data[key]
	if !ok {
		return "", authclient.ErrSecretNotFound
	}
	return v, nil
}

func (s *spyStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.deleteErr[key]; err != nil {
		return err
	}
	delete(s.data, key)
	return nil
}

func (s *spyStore) value(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *spyStore) failSet(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setErr[key] = err
}

func (s *spyStore) failDelete(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteErr[key] = err
}

func (s *spyStore) failGet(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getErr[key] = err
}

// MockSecureStore implements authclient.SecureStore
type MockSecureStore struct {
	mock.Mock
}

func (m *MockSecureStore) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockSecureStore) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockSecureStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// countingObserver counts notifications.
type countingObserver struct {
	logins  atomic.Int32
	logouts atomic.Int32
}

func (o *countingObserver) OnLogin(context.Context) {
	o.logins.Add(1)
}

func (o *countingObserver) OnLogout(context.Context) {
	o.logouts.Add(1)
}

// spyMetrics records what the orchestrator reports.
type spyMetrics struct {
	mu            sync.Mutex
	outcomes      map[string]int
	authenticated []bool
}

func newSpyMetrics() *spyMetrics {
	return &spyMetrics{outcomes: map[string]int{}}
}

func (m *spyMetrics) ObserveOperation(op authclient.Operation, outcome string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[string(op)+":"+outcome]++
}

func (m *spyMetrics) SetAuthenticated(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authenticated = append(m.authenticated, v)
}

func (m *spyMetrics) count(op authclient.Operation, outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcomes[string(op)+":"+outcome]
}

type logEntry struct {
	level string
	msg   string
	args  []any
}

// captureLogger implements authclient.Logger
type captureLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *captureLogger) record(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *captureLogger) Trace(msg string, args ...any) { l.record("trace", msg, args) }
func (l *captureLogger) Debug(msg string, args ...any) { l.record("debug", msg, args) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record("info", msg, args) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args) }
func (l *captureLogger) Error(msg string, args ...any) { l.record("error", msg, args) }
func (l *captureLogger) Fatal(msg string, args ...any) { l.record("fatal", msg, args) }

func (l *captureLogger) WithContext(context.Context) authclient.Logger {
	return l
}

func (l *captureLogger) has(level, msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.level == level && e.msg == msg {
			return true
		}
	}
	return false
}

func testConfig() authclient.AuthConfig {
	return authclient.AuthConfig{
		Scheme:       "https",
		Host:         "api.example.com",
		LoginPath:    "/auth/login",
		RegisterPath: "/auth/register",
		LogoutPath:   "/auth/logout",
	}
}

func testCredentials() authclient.Credentials {
	return authclient.Credentials{"email": "a@b.com", "password": "x"}
}
