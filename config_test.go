package authclient_test

import (
	"testing"

	authclient "github.com/goliatone/go-auth-client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthConfigValidate(t *testing.T) {
	require.NoError(t, testConfig().Validate())

	tests := []struct {
		name  string
		mut   func(*authclient.AuthConfig)
		field string
	}{
		{name: "unsupported scheme", mut: func(c *authclient.AuthConfig) { c.Scheme = "ftp" }, field: "scheme"},
		{name: "missing host", mut: func(c *authclient.AuthConfig) { c.Host = "" }, field: "host"},
		{name: "blank login path", mut: func(c *authclient.AuthConfig) { c.LoginPath = "      " }, field: "login_path"},
		{name: "missing logout path", mut: func(c *authclient.AuthConfig) { c.LogoutPath = "" }, field: "logout_path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mut(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestAuthConfigPathFor(t *testing.T) {
	cfg := testConfig()
	assert.Equal(t, "/auth/login", cfg.PathFor(authclient.OperationLogin))
	assert.Equal(t, "/auth/register", cfg.PathFor(authclient.OperationRegister))
	assert.Equal(t, "/auth/logout", cfg.PathFor(authclient.OperationLogout))
	assert.Empty(t, cfg.PathFor(authclient.OperationAutoLogin))
}

func TestOrchestratorAppliesHeaderDefaults(t *testing.T) {
	orch := authclient.New(newSpyNetwork(), newSpyStore(), testConfig())

	cfg := orch.Config()
	assert.Equal(t, authclient.DefaultHeaderName, cfg.HeaderName)
	assert.Equal(t, authclient.DefaultHeaderScheme, cfg.HeaderScheme)
}
