package authclient

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

const (
	DefaultHeaderName   = "Authorization"
	DefaultHeaderScheme = "Bearer"
)

// AuthConfig describes the identity endpoint and the token policy. It is
// copied into the Orchestrator at construction and never mutated.
type AuthConfig struct {
	Scheme       string `yaml:"scheme" json:"scheme"`
	Host         string `yaml:"host" json:"host"`
	LoginPath    string `yaml:"login_path" json:"login_path"`
	RegisterPath string `yaml:"register_path" json:"register_path"`
	LogoutPath   string `yaml:"logout_path" json:"logout_path"`

	// TokenField names the JSON field holding the token in login and
	// register responses. Empty means the whole body is the token.
	TokenField string `yaml:"token_field" json:"token_field"`

	HeaderName   string `yaml:"header_name" json:"header_name"`
	HeaderScheme string `yaml:"header_scheme" json:"header_scheme"`

	// AutoLogin persists credentials after a successful login and replays
	// them when the Orchestrator is created.
	AutoLogin bool `yaml:"auto_login" json:"auto_login"`
}

// Validate checks the configuration up front. The Orchestrator does not
// require it: bad paths surface as ErrInternal when a request is built.
func (c AuthConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Scheme, validation.Required, validation.In("http", "https")),
		validation.Field(&c.Host, validation.Required, validation.By(notBlank)),
		validation.Field(&c.LoginPath, validation.Required, validation.By(notBlank)),
		validation.Field(&c.RegisterPath, validation.Required, validation.By(notBlank)),
		validation.Field(&c.LogoutPath, validation.Required, validation.By(notBlank)),
	)
}

// PathFor returns the configured path for op.
func (c AuthConfig) PathFor(op Operation) string {
	switch op {
	case OperationLogin:
		return c.LoginPath
	case OperationRegister:
		return c.RegisterPath
	case OperationLogout:
		return c.LogoutPath
	}
	return ""
}

func (c AuthConfig) withDefaults() AuthConfig {
	if c.HeaderName == "" {
		c.HeaderName = DefaultHeaderName
	}
	if c.HeaderScheme == "" {
		c.HeaderScheme = DefaultHeaderScheme
	}
	return c
}

func notBlank(value any) error {
	s, _ := value.(string)
	if s != "" && strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}
