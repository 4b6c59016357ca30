// Package config loads the authctl configuration: a YAML file, an
// optional .env file and AUTHCLIENT_* environment overrides, in that order.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	authclient "github.com/goliatone/go-auth-client"
	"github.com/goliatone/go-auth-client/store"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "AUTHCLIENT_"

// Config is the top level authctl configuration.
type Config struct {
	Auth    authclient.AuthConfig `yaml:"auth" json:"auth"`
	Store   store.Config          `yaml:"store" json:"store"`
	HTTP    HTTPConfig            `yaml:"http" json:"http"`
	Verbose bool                  `yaml:"verbose" json:"verbose"`
}

// HTTPConfig tunes the HTTP executor.
type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		Auth: authclient.AuthConfig{
			Scheme:       "https",
			LoginPath:    "/auth/login",
			RegisterPath: "/auth/register",
			LogoutPath:   "/auth/logout",
		},
		Store: store.Config{
			Driver: store.DriverKeyring,
		},
		HTTP: HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "authctl",
		},
	}
}

// Loader reads configuration sources.
type Loader struct {
	useDotEnv   bool
	dotEnvFiles []string
	lookup      func(string) (string, bool)
}

// NewLoader creates a loader that reads .env from the working directory
// and the process environment.
func NewLoader() *Loader {
	return &Loader{
		useDotEnv: true,
		lookup:    os.LookupEnv,
	}
}

// WithDotEnv toggles loading a .env file before applying overrides.
// Files default to ".env" when none are given.
func (l *Loader) WithDotEnv(enabled bool, files ...string) *Loader {
	l.useDotEnv = enabled
	l.dotEnvFiles = files
	return l
}

// WithLookup replaces the environment lookup.
func (l *Loader) WithLookup(lookup func(string) (string, bool)) *Loader {
	if lookup != nil {
		l.lookup = lookup
	}
	return l
}

// Load builds the configuration. An empty path skips the YAML file.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryNotFound, "unable to read config file").
				WithMetadata(map[string]any{"path": path})
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid config file").
				WithMetadata(map[string]any{"path": path})
		}
	}

	if l.useDotEnv {
		if err := godotenv.Load(l.dotEnvFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid .env file")
		}
	}

	if err := l.applyEnv(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Load is NewLoader().Load(path).
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

func (l *Loader) applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"SCHEME":           &cfg.Auth.Scheme,
		"HOST":             &cfg.Auth.Host,
		"LOGIN_PATH":       &cfg.Auth.LoginPath,
		"REGISTER_PATH":    &cfg.Auth.RegisterPath,
		"LOGOUT_PATH":      &cfg.Auth.LogoutPath,
		"TOKEN_FIELD":      &cfg.Auth.TokenField,
		"HEADER_NAME":      &cfg.Auth.HeaderName,
		"HEADER_SCHEME":    &cfg.Auth.HeaderScheme,
		"STORE_DRIVER":     &cfg.Store.Driver,
		"STORE_PASSPHRASE": &cfg.Store.Passphrase,
		"STORE_SALT":       &cfg.Store.Salt,
		"KEYRING_SERVICE":  &cfg.Store.Keyring.Service,
		"SQLITE_PATH":      &cfg.Store.SQLite.Path,
		"REDIS_ADDR":       &cfg.Store.Redis.Addr,
		"REDIS_USERNAME":   &cfg.Store.Redis.Username,
		"REDIS_PASSWORD":   &cfg.Store.Redis.Password,
		"REDIS_PREFIX":     &cfg.Store.Redis.Prefix,
		"USER_AGENT":       &cfg.HTTP.UserAgent,
	}
	for key, target := range strs {
		if value, ok := l.env(key); ok {
			*target = value
		}
	}

	bools := map[string]*bool{
		"AUTO_LOGIN": &cfg.Auth.AutoLogin,
		"VERBOSE":    &cfg.Verbose,
	}
	for key, target := range bools {
		value, ok := l.env(key)
		if !ok {
			continue
		}
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return envError(key, err)
		}
		*target = parsed
	}

	durations := map[string]*time.Duration{
		"HTTP_TIMEOUT": &cfg.HTTP.Timeout,
		"REDIS_TTL":    &cfg.Store.Redis.TTL,
	}
	for key, target := range durations {
		value, ok := l.env(key)
		if !ok {
			continue
		}
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return envError(key, err)
		}
		*target = parsed
	}

	if value, ok := l.env("REDIS_DB"); ok {
		db, err := strconv.Atoi(value)
		if err != nil {
			return envError("REDIS_DB", err)
		}
		cfg.Store.Redis.DB = db
	}

	return nil
}

func (l *Loader) env(key string) (string, bool) {
	value, ok := l.lookup(EnvPrefix + key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func envError(key string, err error) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid environment override").
		WithMetadata(map[string]any{"variable": EnvPrefix + key})
}
