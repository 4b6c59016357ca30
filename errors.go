package authclient

import (
	"errors"
	"fmt"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeInternal          = "AUTH_CLIENT_INTERNAL"
	TextCodeInternalServer    = "AUTH_CLIENT_INTERNAL_SERVER"
	TextCodeAlreadyLoggedOut  = "AUTH_CLIENT_ALREADY_LOGGED_OUT"
	TextCodeUserNotFound      = "AUTH_CLIENT_USER_NOT_FOUND"
	TextCodeUserAlreadyExists = "AUTH_CLIENT_USER_ALREADY_EXISTS"
	TextCodeNetwork           = "AUTH_CLIENT_NETWORK"
	TextCodeSecureStorage     = "AUTH_CLIENT_SECURE_STORAGE"
	TextCodeBadData           = "AUTH_CLIENT_BAD_DATA"
	TextCodeUnknown           = "AUTH_CLIENT_UNKNOWN"
	TextCodeSecretNotFound    = "AUTH_CLIENT_SECRET_NOT_FOUND"
	TextCodeInvalidTransition = "AUTH_CLIENT_INVALID_TRANSITION"
)

// ErrInternal is returned when a request could not be built from the
// configuration. No network call is made.
var ErrInternal = goerrors.New("internal error", goerrors.CategoryInternal).
	WithTextCode(TextCodeInternal).
	WithCode(goerrors.CodeInternal)

// ErrInternalServer maps a 400 response from the identity endpoint.
var ErrInternalServer = goerrors.New("identity endpoint rejected the request", goerrors.CategoryBadInput).
	WithTextCode(TextCodeInternalServer).
	WithCode(goerrors.CodeBadRequest)

// ErrUserAlreadyLoggedOut is returned by Logout without a stored token and
// maps a 401 response.
var ErrUserAlreadyLoggedOut = goerrors.New("user is already logged out", goerrors.CategoryAuth).
	WithTextCode(TextCodeAlreadyLoggedOut).
	WithCode(goerrors.CodeUnauthorized)

// ErrUserNotFound maps a 404 response.
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrUserAlreadyExists maps a 409 response.
var ErrUserAlreadyExists = goerrors.New("user already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeUserAlreadyExists).
	WithCode(goerrors.CodeConflict)

// ErrNetwork wraps any other transport failure. The original error is
// available as Source.
var ErrNetwork = goerrors.New("network error", goerrors.CategoryOperation).
	WithTextCode(TextCodeNetwork)

// ErrSecureStorage wraps failures of the secure store.
var ErrSecureStorage = goerrors.New("secure storage error", goerrors.CategoryInternal).
	WithTextCode(TextCodeSecureStorage)

// ErrBadData is returned when the response body can't be decoded into a token.
var ErrBadData = goerrors.New("unable to decode token from response", goerrors.CategoryBadInput).
	WithTextCode(TextCodeBadData)

// ErrUnknown wraps anything not otherwise classified.
var ErrUnknown = goerrors.New("unknown error", goerrors.CategoryInternal).
	WithTextCode(TextCodeUnknown)

// ErrSecretNotFound is returned by SecureStore implementations for missing keys.
var ErrSecretNotFound = goerrors.New("secret not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeSecretNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrInvalidTransition is returned when the session state machine is asked
// for a transition it does not allow.
var ErrInvalidTransition = goerrors.New("invalid session state transition", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidTransition)

// StatusError is the transport failure for a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	if e == nil {
		return "unexpected status"
	}
	return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// MapTransportError translates a transport failure into the domain
// taxonomy. Errors that are already classified are returned as is.
func MapTransportError(err error) error {
	if err == nil {
		return nil
	}

	if isDomainError(err) {
		return err
	}

	var status *StatusError
	if errors.As(err, &status) && status != nil {
		switch status.StatusCode {
		case http.StatusBadRequest:
			return ErrInternalServer
		case http.StatusUnauthorized:
			return ErrUserAlreadyLoggedOut
		case http.StatusNotFound:
			return ErrUserNotFound
		case http.StatusConflict:
			return ErrUserAlreadyExists
		}
		return wrapDomainError(ErrNetwork, err, map[string]any{
			"status": status.StatusCode,
		})
	}

	return wrapDomainError(ErrNetwork, err, nil)
}

// IsKind reports whether err is (or wraps) a domain error with the same
// text code as target.
func IsKind(err error, target *goerrors.Error) bool {
	if err == nil || target == nil {
		return false
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich == nil {
		return false
	}
	return rich.TextCode == target.TextCode
}

func IsNetworkError(err error) bool {
	return IsKind(err, ErrNetwork)
}

func IsSecureStorageError(err error) bool {
	return IsKind(err, ErrSecureStorage)
}

func IsSecretNotFound(err error) bool {
	return IsKind(err, ErrSecretNotFound)
}

var domainTextCodes = map[string]struct{}{
	TextCodeInternal:          {},
	TextCodeInternalServer:    {},
	TextCodeAlreadyLoggedOut:  {},
	TextCodeUserNotFound:      {},
	TextCodeUserAlreadyExists: {},
	TextCodeNetwork:           {},
	TextCodeSecureStorage:     {},
	TextCodeBadData:           {},
	TextCodeUnknown:           {},
}

func isDomainError(err error) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich == nil {
		return false
	}
	_, ok := domainTextCodes[rich.TextCode]
	return ok
}

// wrapDomainError clones base so the shared sentinel is never mutated, and
// records err as the source.
func wrapDomainError(base *goerrors.Error, err error, meta map[string]any) error {
	clone := base.Clone()
	if clone == nil {
		return base
	}

	if err != nil {
		clone.Source = err
		if meta == nil {
			meta = map[string]any{}
		}
		meta["error"] = err.Error()
	}

	if len(meta) > 0 {
		clone.WithMetadata(meta)
	}

	return clone
}
