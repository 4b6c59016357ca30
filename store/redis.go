package store

import (
	"context"
	"errors"
	"fmt"

	authclient "github.com/goliatone/go-auth-client"
	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "auth:client:"

// Redis stores secrets as redis strings under a key prefix. A zero TTL
// keeps entries until they are deleted.
type Redis struct {
	client redis.UniversalClient
	cfg    RedisConfig
	sealer Sealer
	owned  bool
}

// NewRedis connects to cfg.Addr and pings it.
func NewRedis(ctx context.Context, cfg RedisConfig, sealer Sealer) (*Redis, error) {
	if cfg.Addr == "" {
		return nil, errors.New("store: redis address required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("store: redis ping failed: %w", err)
	}

	s := NewRedisFromClient(client, cfg, sealer)
	s.owned = true
	return s, nil
}

// NewRedisFromClient wraps an existing client. The caller keeps ownership.
func NewRedisFromClient(client redis.UniversalClient, cfg RedisConfig, sealer Sealer) *Redis {
	if cfg.Prefix == "" {
		cfg.Prefix = defaultRedisPrefix
	}
	if sealer == nil {
		sealer = PlainSealer()
	}
	return &Redis{client: client, cfg: cfg, sealer: sealer}
}

func (s *Redis) key(name string) string {
	return s.cfg.Prefix + name
}

func (s *Redis) Set(ctx context.Context, key, value string) error {
	sealed, err := s.sealer.Seal([]byte(value))
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(key), sealed, s.cfg.TTL).Err()
}

func (s *Redis) Get(ctx context.Context, key string) (string, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", authclient.ErrSecretNotFound
		}
		return "", err
	}

	plaintext, err := s.sealer.Open(raw)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func (s *Redis) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *Redis) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}
