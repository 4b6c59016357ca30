package authclient

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInspector decides whether a stored token is still worth attaching
// when the Orchestrator starts. The client never verifies signatures; the
// identity endpoint stays the authority.
type TokenInspector interface {
	Stale(token Token, now time.Time) bool
}

// TokenInspectorFunc adapts a function into a TokenInspector.
type TokenInspectorFunc func(token Token, now time.Time) bool

// Stale satisfies the TokenInspector interface.
func (f TokenInspectorFunc) Stale(token Token, now time.Time) bool {
	if f == nil {
		return false
	}
	return f(token, now)
}

// JWTExpiryInspector reports a token as stale when it parses as a JWT whose
// exp claim is in the past. Opaque tokens are never stale.
type JWTExpiryInspector struct {
	// Leeway is subtracted from now before comparing against exp.
	Leeway time.Duration
	parser *jwt.Parser
}

// NewJWTExpiryInspector returns an inspector with the given clock skew leeway.
func NewJWTExpiryInspector(leeway time.Duration) *JWTExpiryInspector {
	return &JWTExpiryInspector{
		Leeway: leeway,
		parser: jwt.NewParser(),
	}
}

// Stale satisfies the TokenInspector interface.
func (i *JWTExpiryInspector) Stale(token Token, now time.Time) bool {
	exp, ok := i.Expiry(token)
	if !ok {
		return false
	}
	return !now.Add(-i.Leeway).Before(exp)
}

// Expiry returns the exp claim of a JWT token, if any.
func (i *JWTExpiryInspector) Expiry(token Token) (time.Time, bool) {
	raw := strings.TrimSpace(string(token))
	if strings.Count(raw, ".") != 2 {
		return time.Time{}, false
	}

	parser := i.parser
	if parser == nil {
		parser = jwt.NewParser()
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

type neverStale struct{}

func (neverStale) Stale(Token, time.Time) bool { return false }

func normalizeTokenInspector(i TokenInspector) TokenInspector {
	if i == nil {
		return neverStale{}
	}
	return i
}
