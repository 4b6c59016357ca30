package httpexec

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	authclient "github.com/goliatone/go-auth-client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientExecuteSendsResourceAndSharedHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer old", r.Header.Get("Authorization"))
		assert.Equal(t, "tenant-1", r.Header.Get("X-Tenant"))
		assert.Equal(t, defaultUserAgent, r.Header.Get("User-Agent"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.JSONEq(t, `{"email":"a@b.com"}`, string(body))

		_, _ = w.Write([]byte(`"tok123"`))
	}))
	defer server.Close()

	client := New(Config{Header: http.Header{"X-Tenant": {"tenant-1"}}})
	client.SetHeader("Authorization", "Bearer old")

	cfg := authclient.AuthConfig{Scheme: "http", Host: strings.TrimPrefix(server.URL, "http://"), LoginPath: "/auth/login"}
	res, err := authclient.BuildCredentialsResource(cfg, authclient.OperationLogin, authclient.Credentials{"email": "a@b.com"})
	require.NoError(t, err)

	body, err := client.Execute(context.Background(), res)
	require.NoError(t, err)
	assert.Equal(t, `"tok123"`, string(body))
}

func TestClientRemoveHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := New(Config{})
	client.SetHeader("Authorization", "Bearer tok")
	client.RemoveHeader("Authorization")
	assert.Empty(t, client.Header().Get("Authorization"))

	_, err := client.Execute(context.Background(), authclient.Resource{Method: http.MethodPut, URL: server.URL + "/logout"})
	require.NoError(t, err)
}

func TestClientExecuteReportsStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected error
	}{
		{name: "conflict", status: http.StatusConflict, expected: authclient.ErrUserAlreadyExists},
		{name: "not found", status: http.StatusNotFound, expected: authclient.ErrUserNotFound},
		{name: "unauthorized", status: http.StatusUnauthorized, expected: authclient.ErrUserAlreadyLoggedOut},
		{name: "bad request", status: http.StatusBadRequest, expected: authclient.ErrInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":"nope"}`))
			}))
			defer server.Close()

			client := New(Config{})
			_, err := client.Execute(context.Background(), authclient.Resource{Method: http.MethodPost, URL: server.URL})
			require.Error(t, err)

			var status *authclient.StatusError
			require.True(t, errors.As(err, &status))
			assert.Equal(t, tt.status, status.StatusCode)
			assert.JSONEq(t, `{"error":"nope"}`, string(status.Body))

			assert.Equal(t, tt.expected, authclient.MapTransportError(err))
		})
	}
}

func TestClientExecuteTimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := New(Config{Timeout: 50 * time.Millisecond})
	_, err := client.Execute(context.Background(), authclient.Resource{Method: http.MethodPost, URL: server.URL})
	require.Error(t, err)
	assert.True(t, authclient.IsNetworkError(authclient.MapTransportError(err)))
}

func TestClientExecuteLimitsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 64)))
	}))
	defer server.Close()

	client := New(Config{MaxBodyBytes: 16})
	body, err := client.Execute(context.Background(), authclient.Resource{Method: http.MethodGet, URL: server.URL})
	require.NoError(t, err)
	assert.Len(t, body, 16)
}

func TestClientExecuteInvalidURL(t *testing.T) {
	client := New(Config{})
	_, err := client.Execute(context.Background(), authclient.Resource{Method: "BAD METHOD", URL: "http://x"})
	require.Error(t, err)
}
