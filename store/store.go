// Package store provides SecureStore backends for the auth client: an in
// memory map, the OS keychain, a sqlite table and redis. The sqlite and
// redis backends can seal values with a passphrase derived key.
package store

import (
	"io"
	"time"

	authclient "github.com/goliatone/go-auth-client"
)

// Driver identifiers supported by New.
const (
	DriverMemory  = "memory"
	DriverKeyring = "keyring"
	DriverSQLite  = "sqlite"
	DriverRedis   = "redis"
)

// Store is a SecureStore that owns resources.
type Store interface {
	authclient.SecureStore
	io.Closer
}

// Config describes the store selection parameters.
type Config struct {
	Driver string `yaml:"driver" json:"driver"`

	// Passphrase enables sealing for the sqlite and redis drivers.
	Passphrase string `yaml:"passphrase" json:"-"`
	Salt       string `yaml:"salt" json:"salt"`

	Keyring KeyringConfig `yaml:"keyring" json:"keyring"`
	SQLite  SQLiteConfig  `yaml:"sqlite" json:"sqlite"`
	Redis   RedisConfig   `yaml:"redis" json:"redis"`
}

// KeyringConfig selects the keychain service entries live under.
type KeyringConfig struct {
	Service string `yaml:"service" json:"service"`
}

// SQLiteConfig points at the database file.
type SQLiteConfig struct {
	Path string `yaml:"path" json:"path"`
}

// RedisConfig captures connection options.
type RedisConfig struct {
	Addr     string        `yaml:"addr" json:"addr"`
	Username string        `yaml:"username" json:"username"`
	Password string        `yaml:"password" json:"-"`
	DB       int           `yaml:"db" json:"db"`
	Prefix   string        `yaml:"prefix" json:"prefix"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
}
