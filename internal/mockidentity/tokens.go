package mockidentity

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var errTokenInactive = errors.New("token is not active")

// issuer signs HS256 session tokens and tracks which ones are still live.
type issuer struct {
	signingKey []byte
	name       string
	ttl        time.Duration
	now        func() time.Time

	mu     sync.Mutex
	active map[string]string
}

func newIssuer(signingKey []byte, name string, ttl time.Duration, now func() time.Time) *issuer {
	return &issuer{
		signingKey: signingKey,
		name:       name,
		ttl:        ttl,
		now:        now,
		active:     map[string]string{},
	}
}

func (i *issuer) issue(u user) (string, error) {
	now := i.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    i.name,
		Subject:   u.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.signingKey)
	if err != nil {
		return "", err
	}

	i.mu.Lock()
	i.active[claims.ID] = u.Email
	i.mu.Unlock()

	return signed, nil
}

// revoke validates token and removes it from the active set.
func (i *issuer) revoke(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithIssuer(i.name),
	)
	_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.signingKey, nil
	})
	if err != nil {
		return "", err
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	email, ok := i.active[claims.ID]
	if !ok {
		return "", errTokenInactive
	}
	delete(i.active, claims.ID)
	return email, nil
}

func (i *issuer) activeCount() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.active)
}
