package authclient_test

import (
	"context"
	"testing"

	authclient "github.com/goliatone/go-auth-client"
	"github.com/goliatone/go-logger/glog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedProvider struct {
	loggers map[string]authclient.Logger
	asked   []string
}

func (p *namedProvider) GetLogger(name string) authclient.Logger {
	p.asked = append(p.asked, name)
	return p.loggers[name]
}

func TestResolveLoggerFallbacks(t *testing.T) {
	fallback := &captureLogger{}

	provider, logger := authclient.ResolveLogger("x", nil, fallback)
	assert.Same(t, fallback, logger)
	assert.Same(t, fallback, provider.GetLogger("anything"))

	_, logger = authclient.ResolveLogger("x", nil, nil)
	require.NotNil(t, logger)
	assert.NotPanics(t, func() { logger.WithContext(context.Background()).Info("ignored") })

	empty := &namedProvider{loggers: map[string]authclient.Logger{}}
	_, logger = authclient.ResolveLogger("x", empty, fallback)
	assert.Same(t, fallback, logger)
}

func TestOrchestratorUsesNamedLoggers(t *testing.T) {
	orchestratorLogger := &captureLogger{}
	observersLogger := &captureLogger{}
	provider := &namedProvider{loggers: map[string]authclient.Logger{
		"authclient.orchestrator": orchestratorLogger,
		"authclient.observers":    observersLogger,
	}}

	network := newSpyNetwork().respond(authclient.OperationLogin, "tok", nil)
	orch := authclient.New(network, newSpyStore(), testConfig(), authclient.WithLoggerProvider(provider))
	orch.Subscribe(authclient.OnLogin(func(context.Context) { panic("boom") }))

	_, err := orch.Login(context.Background(), testCredentials())
	require.NoError(t, err)

	assert.Contains(t, provider.asked, "authclient.orchestrator")
	assert.Contains(t, provider.asked, "authclient.observers")
	assert.True(t, observersLogger.has("error", "observer hook panicked"))
	assert.False(t, orchestratorLogger.has("error", "observer hook panicked"))
}

func TestGlogProviderFromLogger(t *testing.T) {
	base := &captureLogger{}
	var provider authclient.LoggerProvider = glog.ProviderFromLogger(base)

	network := newSpyNetwork()
	orch := authclient.New(network, newSpyStore(), testConfig(), authclient.WithLoggerProvider(provider))

	err := orch.Logout(context.Background())
	require.Error(t, err)
	assert.Empty(t, network.Calls())
}
