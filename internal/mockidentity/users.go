package mockidentity

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	errUserExists       = errors.New("user already exists")
	errUserNotFound     = errors.New("user not found")
	errPasswordMismatch = errors.New("password mismatch")
	errEmptyPassword    = errors.New("password must not be empty")
)

type user struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
}

// directory is the in-memory user table.
type directory struct {
	mu    sync.RWMutex
	cost  int
	users map[string]user
}

func newDirectory(cost int) *directory {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &directory{cost: cost, users: map[string]user{}}
}

func (d *directory) add(email, password string) (user, error) {
	hash, err := d.hash(password)
	if err != nil {
		return user{}, err
	}

	key := normalizeEmail(email)

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.users[key]; ok {
		return user{}, errUserExists
	}
	u := user{ID: uuid.New(), Email: key, PasswordHash: hash}
	d.users[key] = u
	return u, nil
}

func (d *directory) verify(email, password string) (user, error) {
	d.mu.RLock()
	u, ok := d.users[normalizeEmail(email)]
	d.mu.RUnlock()
	if !ok {
		return user{}, errUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return user{}, errPasswordMismatch
		}
		return user{}, err
	}
	return u, nil
}

func (d *directory) hash(password string) (string, error) {
	if password == "" {
		return "", errEmptyPassword
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), d.cost)
	return string(h), err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
