package authclient

import "strings"

// SessionHeaders attaches and detaches the bearer token on the network
// collaborator's shared header set.
type SessionHeaders struct {
	mutator HeaderMutator
	name    string
	scheme  string
}

// NewSessionHeaders returns a manager writing name: "<scheme> <token>".
// An empty scheme sends the raw token.
func NewSessionHeaders(mutator HeaderMutator, name, scheme string) *SessionHeaders {
	if name == "" {
		name = DefaultHeaderName
	}
	return &SessionHeaders{
		mutator: mutator,
		name:    name,
		scheme:  strings.TrimSpace(scheme),
	}
}

// Attach sets the authorization header for token.
func (h *SessionHeaders) Attach(token Token) {
	if h.mutator == nil {
		return
	}
	h.mutator.SetHeader(h.name, h.Value(token))
}

// Detach removes the authorization header.
func (h *SessionHeaders) Detach() {
	if h.mutator == nil {
		return
	}
	h.mutator.RemoveHeader(h.name)
}

// Value renders the header value for token.
func (h *SessionHeaders) Value(token Token) string {
	if h.scheme == "" {
		return string(token)
	}
	return h.scheme + " " + string(token)
}

func (h *SessionHeaders) Name() string {
	return h.name
}
