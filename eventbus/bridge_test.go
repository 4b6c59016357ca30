package eventbus

import (
	"context"
	"testing"
	"time"

	evbus "github.com/asaskevich/EventBus"
	authclient "github.com/goliatone/go-auth-client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNetwork struct {
	headers map[string]string
}

func (n *stubNetwork) Execute(_ context.Context, res authclient.Resource) ([]byte, error) {
	if res.Operation == authclient.OperationLogin {
		return []byte("tok"), nil
	}
	return nil, nil
}

func (n *stubNetwork) SetHeader(k, v string) { n.headers[k] = v }
func (n *stubNetwork) RemoveHeader(k string) { delete(n.headers, k) }

type memStore map[string]string

func (m memStore) Set(_ context.Context, k, v string) error { m[k] = v; return nil }
func (m memStore) Delete(_ context.Context, k string) error { delete(m, k); return nil }
func (m memStore) Get(_ context.Context, k string) (string, error) {
	v, ok := m[k]
	if !ok {
		return "", authclient.ErrSecretNotFound
	}
	return v, nil
}

func TestBridgePublishesTransitions(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	bus := evbus.New()
	bridge := NewBridge(bus, WithNamespace("session"), WithClock(func() time.Time { return now }))

	var received []Event
	require.NoError(t, bus.Subscribe("session:login", func(e Event) { received = append(received, e) }))
	require.NoError(t, bus.Subscribe("session:logout", func(e Event) { received = append(received, e) }))

	bridge.OnLogin(context.Background())
	bridge.OnLogout(context.Background())

	require.Len(t, received, 2)
	assert.Equal(t, "session:login", received[0].Topic)
	assert.Equal(t, "session:logout", received[1].Topic)
	assert.Equal(t, now, received[0].OccurredAt)
}

func TestBridgeWiredIntoOrchestrator(t *testing.T) {
	bridge := NewBridge(nil)

	var topics []string
	var activity []authclient.ActivityEventType
	require.NoError(t, bridge.Bus().Subscribe(bridge.Topic(SuffixLogin), func(e Event) { topics = append(topics, e.Topic) }))
	require.NoError(t, bridge.Bus().Subscribe(bridge.Topic(SuffixLogout), func(e Event) { topics = append(topics, e.Topic) }))
	require.NoError(t, bridge.Bus().Subscribe(bridge.Topic(SuffixActivity), func(e authclient.ActivityEvent) {
		activity = append(activity, e.EventType)
	}))

	cfg := authclient.AuthConfig{
		Scheme:       "https",
		Host:         "id.example.com",
		LoginPath:    "/login",
		RegisterPath: "/register",
		LogoutPath:   "/logout",
	}
	orch := authclient.New(&stubNetwork{headers: map[string]string{}}, memStore{}, cfg, authclient.WithActivitySink(bridge))
	orch.Subscribe(bridge)

	_, err := orch.Login(context.Background(), authclient.Credentials{"email": "a@b.com"})
	require.NoError(t, err)
	require.NoError(t, orch.Logout(context.Background()))

	assert.Equal(t, []string{"auth:login", "auth:logout"}, topics)
	assert.Equal(t, []authclient.ActivityEventType{
		authclient.ActivityEventLoginSuccess,
		authclient.ActivityEventLogout,
	}, activity)
}
