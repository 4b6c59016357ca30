package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/uptrace/bun"
)

// SecretModel is the Bun model for a named secret.
type SecretModel struct {
	bun.BaseModel `bun:"table:auth_secrets"`

	Name      string    `bun:"name,pk"`
	Value     []byte    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// SecretRepository persists secrets using Bun.
type SecretRepository struct {
	db *bun.DB
}

// NewSecretRepository creates a new repository.
func NewSecretRepository(db *bun.DB) *SecretRepository {
	return &SecretRepository{db: db}
}

// CreateTable creates the secrets table when it does not exist.
func (r *SecretRepository) CreateTable(ctx context.Context) error {
	_, err := r.db.NewCreateTable().
		Model((*SecretModel)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// Find returns the secret stored under name. A missing secret is reported
// as sql.ErrNoRows.
func (r *SecretRepository) Find(ctx context.Context, name string) (*SecretModel, error) {
	model := new(SecretModel)
	err := r.db.NewSelect().
		Model(model).
		Where("name = ?", name).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return model, nil
}

// Upsert inserts or replaces the secret.
func (r *SecretRepository) Upsert(ctx context.Context, model *SecretModel) error {
	if model.UpdatedAt.IsZero() {
		model.UpdatedAt = time.Now().UTC()
	}

	_, err := r.db.NewInsert().
		Model(model).
		On("CONFLICT (name) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// Delete removes the secret, reporting whether a row was removed.
func (r *SecretRepository) Delete(ctx context.Context, name string) (bool, error) {
	res, err := r.db.NewDelete().
		Model((*SecretModel)(nil)).
		Where("name = ?", name).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Names lists the stored secret names.
func (r *SecretRepository) Names(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.NewSelect().
		Model((*SecretModel)(nil)).
		Column("name").
		Order("name ASC").
		Scan(ctx, &names)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	return names, nil
}
