package authclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Operation identifies one of the identity endpoint calls.
type Operation string

const (
	OperationLogin     Operation = "login"
	OperationRegister  Operation = "register"
	OperationLogout    Operation = "logout"
	OperationAutoLogin Operation = "auto_login"
)

// Resource is a transport agnostic request descriptor.
type Resource struct {
	Operation Operation
	Method    string
	URL       string
	Header    http.Header
	Body      []byte
}

// BuildError reports a configuration that can't form an absolute URL or a
// payload that can't be encoded.
type BuildError struct {
	Operation Operation
	Field     string
	Err       error
}

func (e *BuildError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("build %s resource: %s: %v", e.Operation, e.Field, e.Err)
	}
	return fmt.Sprintf("build %s resource: %v", e.Operation, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// BuildCredentialsResource builds the POST request for login or register.
func BuildCredentialsResource(cfg AuthConfig, op Operation, creds Credentials) (Resource, error) {
	if op != OperationLogin && op != OperationRegister {
		return Resource{}, &BuildError{Operation: op, Err: fmt.Errorf("unsupported operation %q", op)}
	}

	endpoint, err := buildURL(cfg, op)
	if err != nil {
		return Resource{}, err
	}

	if creds == nil {
		creds = Credentials{}
	}

	body, err := json.Marshal(creds)
	if err != nil {
		return Resource{}, &BuildError{Operation: op, Field: "body", Err: err}
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Accept", "application/json")

	return Resource{
		Operation: op,
		Method:    http.MethodPost,
		URL:       endpoint,
		Header:    header,
		Body:      body,
	}, nil
}

// BuildLogoutResource builds the PUT request for logout. The raw token is
// sent as the body.
func BuildLogoutResource(cfg AuthConfig, token Token) (Resource, error) {
	endpoint, err := buildURL(cfg, OperationLogout)
	if err != nil {
		return Resource{}, err
	}

	header := http.Header{}
	header.Set("Content-Type", "text/plain; charset=utf-8")
	header.Set("Accept", "application/json")

	return Resource{
		Operation: OperationLogout,
		Method:    http.MethodPut,
		URL:       endpoint,
		Header:    header,
		Body:      []byte(token),
	}, nil
}

func buildURL(cfg AuthConfig, op Operation) (string, error) {
	scheme := strings.TrimSpace(cfg.Scheme)
	host := strings.TrimSpace(cfg.Host)
	path := strings.TrimSpace(cfg.PathFor(op))

	fields := []struct {
		name  string
		value string
	}{
		{"scheme", scheme},
		{"host", host},
		{"path", path},
	}
	for _, f := range fields {
		if err := validation.Validate(f.value, validation.Required); err != nil {
			return "", &BuildError{Operation: op, Field: f.name, Err: err}
		}
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	u := url.URL{
		Scheme: scheme,
		Host:   host,
		Path:   path,
	}

	parsed, err := url.Parse(u.String())
	if err != nil {
		return "", &BuildError{Operation: op, Field: "url", Err: err}
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return "", &BuildError{Operation: op, Field: "url", Err: fmt.Errorf("%q is not an absolute url", u.String())}
	}

	return parsed.String(), nil
}

// BuildResource dispatches on op. Login and register take Credentials (or a
// plain map[string]string); logout takes the Token.
func BuildResource(cfg AuthConfig, op Operation, payload any) (Resource, error) {
	switch op {
	case OperationLogin, OperationRegister:
		switch creds := payload.(type) {
		case Credentials:
			return BuildCredentialsResource(cfg, op, creds)
		case map[string]string:
			return BuildCredentialsResource(cfg, op, Credentials(creds))
		case nil:
			return BuildCredentialsResource(cfg, op, nil)
		}
	case OperationLogout:
		switch token := payload.(type) {
		case Token:
			return BuildLogoutResource(cfg, token)
		case string:
			return BuildLogoutResource(cfg, Token(token))
		}
	default:
		return Resource{}, &BuildError{Operation: op, Err: fmt.Errorf("unsupported operation %q", op)}
	}
	return Resource{}, &BuildError{Operation: op, Field: "payload", Err: fmt.Errorf("unexpected payload %T", payload)}
}
