package authclient

import (
	"context"
	"strings"
)

// Credentials holds the fields sent verbatim to the identity endpoint
// (email, password, ...).
type Credentials map[string]string

// Token is the opaque bearer token issued by the identity endpoint.
type Token string

func (t Token) String() string {
	return string(t)
}

// IsZero reports whether the token is blank.
func (t Token) IsZero() bool {
	return strings.TrimSpace(string(t)) == ""
}

// NetworkExecutor performs a request descriptor and returns the raw
// response body. Non-2xx responses should be reported as *StatusError.
type NetworkExecutor interface {
	Execute(ctx context.Context, res Resource) ([]byte, error)
}

// HeaderMutator changes the header set shared by every outgoing request.
type HeaderMutator interface {
	SetHeader(key, value string)
	RemoveHeader(key string)
}

// Network is the transport collaborator consumed by the Orchestrator.
type Network interface {
	NetworkExecutor
	HeaderMutator
}

// SecureStore is a fallible key/value store for secrets, usually backed by
// the OS keychain. Get must return ErrSecretNotFound when the key is missing.
type SecureStore interface {
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Metrics receives operation outcomes. Implementations must be safe for
// concurrent use.
type Metrics interface {
	ObserveOperation(op Operation, outcome string, elapsed float64)
	SetAuthenticated(authenticated bool)
}

// TokenCallback receives the result of an asynchronous login or register.
type TokenCallback func(token Token, err error)

// ErrorCallback receives the result of an asynchronous logout.
type ErrorCallback func(err error)

type noopMetrics struct{}

func (noopMetrics) ObserveOperation(Operation, string, float64) {}
func (noopMetrics) SetAuthenticated(bool)                      {}

func normalizeMetrics(m Metrics) Metrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
