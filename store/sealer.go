package store

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// argon2id parameters, RFC 9106 second recommended option.
const (
	argonTime    = 3
	argonMemory  = 64 * 1024
	argonThreads = 4
)

const defaultSalt = "go-auth-client/secure-store"

// Sealer encrypts values before they reach a backend.
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

type plainSealer struct{}

func (plainSealer) Seal(p []byte) ([]byte, error) { return p, nil }
func (plainSealer) Open(p []byte) ([]byte, error) { return p, nil }

// PlainSealer stores values as is.
func PlainSealer() Sealer {
	return plainSealer{}
}

// PassphraseSealer seals with XChaCha20-Poly1305 under a key derived from
// a passphrase with argon2id. The random nonce is prepended to the output.
type PassphraseSealer struct {
	key []byte
}

// NewPassphraseSealer derives the sealing key. An empty salt falls back to
// a fixed, package wide salt.
func NewPassphraseSealer(passphrase, salt string) (*PassphraseSealer, error) {
	if passphrase == "" {
		return nil, errors.New("store: passphrase required")
	}
	if salt == "" {
		salt = defaultSalt
	}
	key := argon2.IDKey([]byte(passphrase), []byte(salt), argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize)
	return &PassphraseSealer{key: key}, nil
}

func (s *PassphraseSealer) Seal(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("store: init cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("store: nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *PassphraseSealer) Open(sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("store: init cipher: %w", err)
	}

	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return nil, errors.New("store: sealed value too short")
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open sealed value: %w", err)
	}
	return plaintext, nil
}

func sealerFor(cfg Config) (Sealer, error) {
	if cfg.Passphrase == "" {
		return PlainSealer(), nil
	}
	return NewPassphraseSealer(cfg.Passphrase, cfg.Salt)
}
