package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	authclient "github.com/goliatone/go-auth-client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func exerciseStore(t *testing.T, s authclient.SecureStore) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, authclient.TokenKey)
	require.Error(t, err)
	assert.True(t, authclient.IsSecretNotFound(err), "got %v", err)

	require.NoError(t, s.Set(ctx, authclient.TokenKey, "tok123"))
	value, err := s.Get(ctx, authclient.TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "tok123", value)

	require.NoError(t, s.Set(ctx, authclient.TokenKey, "tok456"))
	value, err = s.Get(ctx, authclient.TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "tok456", value)

	require.NoError(t, s.Set(ctx, authclient.CredentialsKey, `{"email":"a@b.com"}`))

	require.NoError(t, s.Delete(ctx, authclient.TokenKey))
	require.NoError(t, s.Delete(ctx, authclient.TokenKey))

	_, err = s.Get(ctx, authclient.TokenKey)
	assert.True(t, authclient.IsSecretNotFound(err), "got %v", err)

	value, err = s.Get(ctx, authclient.CredentialsKey)
	require.NoError(t, err)
	assert.Equal(t, `{"email":"a@b.com"}`, value)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestMemoryStoreHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewMemory().Set(ctx, "k", "v")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()
	exerciseStore(t, NewKeyring(KeyringConfig{Service: "authclient-test"}))
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(context.Background(), SQLiteConfig{Path: filepath.Join(t.TempDir(), "auth.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	exerciseStore(t, s)

	keys, err := s.Keys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{authclient.CredentialsKey}, keys)
}

func TestSQLiteStoreSealsValues(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "auth.db")

	sealer, err := NewPassphraseSealer("correct horse", "salt")
	require.NoError(t, err)

	s, err := OpenSQLite(ctx, SQLiteConfig{Path: path}, sealer)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	exerciseStore(t, s)

	model, err := s.repo.Find(ctx, authclient.CredentialsKey)
	require.NoError(t, err)
	assert.NotContains(t, string(model.Value), "a@b.com")

	wrong, err := NewPassphraseSealer("wrong", "salt")
	require.NoError(t, err)
	other := &SQL{db: s.db, repo: s.repo, sealer: wrong}
	_, err = other.Get(ctx, authclient.CredentialsKey)
	require.Error(t, err)
	assert.False(t, authclient.IsSecretNotFound(err))
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)

	sealer, err := NewPassphraseSealer("secret", "")
	require.NoError(t, err)

	s, err := NewRedis(context.Background(), RedisConfig{Addr: mr.Addr(), Prefix: "test:"}, sealer)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	exerciseStore(t, s)

	raw, err := mr.Get("test:" + authclient.CredentialsKey)
	require.NoError(t, err)
	assert.NotContains(t, raw, "a@b.com")
}

func TestRedisStorePlainWithTTL(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := NewRedis(context.Background(), RedisConfig{Addr: mr.Addr(), TTL: time.Minute}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Set(context.Background(), authclient.TokenKey, "tok"))

	raw, err := mr.Get(defaultRedisPrefix + authclient.TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "tok", raw)
	assert.True(t, mr.TTL(defaultRedisPrefix+authclient.TokenKey) > 0)
}

func TestRedisStoreRequiresAddress(t *testing.T) {
	_, err := NewRedis(context.Background(), RedisConfig{}, nil)
	require.Error(t, err)
}
