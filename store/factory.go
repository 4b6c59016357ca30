package store

import (
	"context"
	"fmt"
)

// New creates a store based on the provided configuration. An empty
// driver selects the in-memory store.
func New(ctx context.Context, cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverMemory
	}

	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverKeyring:
		return NewKeyring(cfg.Keyring), nil
	case DriverSQLite:
		sealer, err := sealerFor(cfg)
		if err != nil {
			return nil, err
		}
		s, err := OpenSQLite(ctx, cfg.SQLite, sealer)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverRedis:
		sealer, err := sealerFor(cfg)
		if err != nil {
			return nil, err
		}
		s, err := NewRedis(ctx, cfg.Redis, sealer)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("store: unsupported driver: %s", driver)
	}
}
