package authclient

import (
	"context"
	"encoding/json"
	"errors"
)

const (
	TokenKey       = "token"
	CredentialsKey = "credentials"
)

// TokenStore wraps a SecureStore with the keys used for the session token
// and the auto-login credentials. Store failures come back as
// ErrSecureStorage; a missing entry is reported through the found flag.
type TokenStore struct {
	store SecureStore
}

// NewTokenStore returns a TokenStore over store.
func NewTokenStore(store SecureStore) *TokenStore {
	return &TokenStore{store: store}
}

func (s *TokenStore) SaveToken(ctx context.Context, token Token) error {
	return s.set(ctx, TokenKey, string(token))
}

func (s *TokenStore) Token(ctx context.Context) (Token, bool, error) {
	raw, found, err := s.get(ctx, TokenKey)
	if err != nil || !found {
		return "", found, err
	}
	if Token(raw).IsZero() {
		return "", false, nil
	}
	return Token(raw), true, nil
}

func (s *TokenStore) DeleteToken(ctx context.Context) error {
	return s.delete(ctx, TokenKey)
}

func (s *TokenStore) SaveCredentials(ctx context.Context, creds Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return wrapDomainError(ErrSecureStorage, err, map[string]any{"key": CredentialsKey})
	}
	return s.set(ctx, CredentialsKey, string(data))
}

// Credentials returns the stored auto-login credentials. An entry that
// can't be decoded is reported as ErrBadData.
func (s *TokenStore) Credentials(ctx context.Context) (Credentials, bool, error) {
	raw, found, err := s.get(ctx, CredentialsKey)
	if err != nil || !found {
		return nil, found, err
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return nil, false, wrapDomainError(ErrBadData, err, map[string]any{"key": CredentialsKey})
	}
	if len(creds) == 0 {
		return nil, false, nil
	}
	return creds, true, nil
}

func (s *TokenStore) DeleteCredentials(ctx context.Context) error {
	return s.delete(ctx, CredentialsKey)
}

func (s *TokenStore) set(ctx context.Context, key, value string) error {
	if s.store == nil {
		return wrapDomainError(ErrSecureStorage, errors.New("secure store is not configured"), map[string]any{"key": key})
	}
	if err := s.store.Set(ctx, key, value); err != nil {
		return wrapDomainError(ErrSecureStorage, err, map[string]any{"key": key, "op": "set"})
	}
	return nil
}

func (s *TokenStore) get(ctx context.Context, key string) (string, bool, error) {
	if s.store == nil {
		return "", false, wrapDomainError(ErrSecureStorage, errors.New("secure store is not configured"), map[string]any{"key": key})
	}
	value, err := s.store.Get(ctx, key)
	if err != nil {
		if IsSecretNotFound(err) {
			return "", false, nil
		}
		return "", false, wrapDomainError(ErrSecureStorage, err, map[string]any{"key": key, "op": "get"})
	}
	return value, true, nil
}

func (s *TokenStore) delete(ctx context.Context, key string) error {
	if s.store == nil {
		return wrapDomainError(ErrSecureStorage, errors.New("secure store is not configured"), map[string]any{"key": key})
	}
	if err := s.store.Delete(ctx, key); err != nil && !IsSecretNotFound(err) {
		return wrapDomainError(ErrSecureStorage, err, map[string]any{"key": key, "op": "delete"})
	}
	return nil
}
