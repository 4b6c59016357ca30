package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	authclient "github.com/goliatone/go-auth-client"
	"github.com/goliatone/go-auth-client/repository"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// SQL stores sealed secrets in the auth_secrets table.
type SQL struct {
	db     *bun.DB
	repo   *repository.SecretRepository
	sealer Sealer
	owned  bool
}

// NewSQL wraps an existing Bun database and makes sure the table exists.
// The caller keeps ownership of db.
func NewSQL(ctx context.Context, db *bun.DB, sealer Sealer) (*SQL, error) {
	if db == nil {
		return nil, errors.New("store: sql driver requires database handle")
	}
	if sealer == nil {
		sealer = PlainSealer()
	}

	repo := repository.NewSecretRepository(db)
	if err := repo.CreateTable(ctx); err != nil {
		return nil, fmt.Errorf("store: create secrets table: %w", err)
	}

	return &SQL{db: db, repo: repo, sealer: sealer}, nil
}

// OpenSQLite opens (or creates) a sqlite database at path and returns a
// store that closes it on Close.
func OpenSQLite(ctx context.Context, cfg SQLiteConfig, sealer Sealer) (*SQL, error) {
	if cfg.Path == "" {
		return nil, errors.New("store: sqlite path required")
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	s, err := NewSQL(ctx, db, sealer)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

func (s *SQL) Set(ctx context.Context, key, value string) error {
	sealed, err := s.sealer.Seal([]byte(value))
	if err != nil {
		return err
	}
	return s.repo.Upsert(ctx, &repository.SecretModel{Name: key, Value: sealed})
}

func (s *SQL) Get(ctx context.Context, key string) (string, error) {
	model, err := s.repo.Find(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", authclient.ErrSecretNotFound
		}
		return "", err
	}

	plaintext, err := s.sealer.Open(model.Value)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	_, err := s.repo.Delete(ctx, key)
	return err
}

// Keys lists the stored secret names.
func (s *SQL) Keys(ctx context.Context) ([]string, error) {
	return s.repo.Names(ctx)
}

func (s *SQL) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
