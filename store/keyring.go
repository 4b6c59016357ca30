package store

import (
	"context"
	"errors"

	authclient "github.com/goliatone/go-auth-client"
	"github.com/zalando/go-keyring"
)

const defaultKeyringService = "go-auth-client"

// Keyring stores secrets in the OS keychain (macOS Keychain, Secret
// Service, Windows Credential Manager). Each key is one entry under the
// configured service.
type Keyring struct {
	service string
}

// NewKeyring returns a keychain store for service.
func NewKeyring(cfg KeyringConfig) *Keyring {
	service := cfg.Service
	if service == "" {
		service = defaultKeyringService
	}
	return &Keyring{service: service}
}

func (k *Keyring) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return keyring.Set(k.service, key, value)
}

func (k *Keyring) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	value, err := keyring.Get(k.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", authclient.ErrSecretNotFound
	}
	return value, err
}

func (k *Keyring) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := keyring.Delete(k.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

func (k *Keyring) Close() error {
	return nil
}
