package metrics

import (
	"context"
	"errors"
	"testing"

	authclient "github.com/goliatone/go-auth-client"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNetwork struct {
	failLogin bool
}

func (n *fakeNetwork) Execute(_ context.Context, res authclient.Resource) ([]byte, error) {
	if res.Operation == authclient.OperationLogin && n.failLogin {
		return nil, errors.New("offline")
	}
	return []byte("tok"), nil
}

func (n *fakeNetwork) SetHeader(string, string) {}
func (n *fakeNetwork) RemoveHeader(string)      {}

type mapStore map[string]string

func (m mapStore) Set(_ context.Context, k, v string) error { m[k] = v; return nil }
func (m mapStore) Delete(_ context.Context, k string) error { delete(m, k); return nil }
func (m mapStore) Get(_ context.Context, k string) (string, error) {
	v, ok := m[k]
	if !ok {
		return "", authclient.ErrSecretNotFound
	}
	return v, nil
}

func TestCollectorRegisters(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewCollector(registry, "")

	count, err := testutil.GatherAndCount(registry)
	require.NoError(t, err)
	// vectors without observations are not gathered
	assert.Equal(t, 1, count)
}

func TestCollectorRecordsOrchestratorOutcomes(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewCollector(registry, "test")
	network := &fakeNetwork{}

	cfg := authclient.AuthConfig{
		Scheme:       "https",
		Host:         "id.example.com",
		LoginPath:    "/login",
		RegisterPath: "/register",
		LogoutPath:   "/logout",
	}
	orch := authclient.New(network, mapStore{}, cfg, authclient.WithMetrics(collector))

	_, err := orch.Login(context.Background(), authclient.Credentials{"email": "a@b.com"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Authenticated))

	require.NoError(t, orch.Logout(context.Background()))
	assert.Equal(t, 0.0, testutil.ToFloat64(collector.Authenticated))

	network.failLogin = true
	_, err = orch.Login(context.Background(), authclient.Credentials{"email": "a@b.com"})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.OperationsTotal.WithLabelValues("login", authclient.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.OperationsTotal.WithLabelValues("login", authclient.OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.OperationsTotal.WithLabelValues("logout", authclient.OutcomeSuccess)))
	assert.Equal(t, 2, testutil.CollectAndCount(collector.OperationDuration))
}
