// Package mockidentity is a small identity endpoint used by the CLI demo
// and integration tests. It speaks the wire contract the auth client
// expects: JSON credentials in, bearer token out, and 400/401/404/409 for
// the failure cases.
package mockidentity

import (
	"errors"
	"net"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	authclient "github.com/goliatone/go-auth-client"
)

// Config holds the mock server configuration.
type Config struct {
	SigningKey string
	Issuer     string
	TokenTTL   time.Duration

	// TokenField wraps the token in a JSON object under this key. Empty
	// answers with a bare JSON string.
	TokenField string

	LoginPath    string
	RegisterPath string
	LogoutPath   string

	BcryptCost int
	Logger     authclient.Logger
	Now        func() time.Time
}

// Server is the mock identity endpoint.
type Server struct {
	config Config
	app    *fiber.App
	users  *directory
	tokens *issuer
	logger authclient.Logger
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r credentialsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// New builds the fiber app and routes.
func New(cfg Config) *Server {
	if cfg.SigningKey == "" {
		cfg.SigningKey = "mock-identity-signing-key"
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "mock-identity"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.RegisterPath == "" {
		cfg.RegisterPath = "/register"
	}
	if cfg.LogoutPath == "" {
		cfg.LogoutPath = "/logout"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	_, logger := authclient.ResolveLogger("mockidentity", nil, cfg.Logger)

	s := &Server{
		config: cfg,
		users:  newDirectory(cfg.BcryptCost),
		tokens: newIssuer([]byte(cfg.SigningKey), cfg.Issuer, cfg.TokenTTL, cfg.Now),
		logger: logger,
	}

	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		AppName:               "mock-identity",
	})
	s.app.Post(cfg.LoginPath, s.login)
	s.app.Post(cfg.RegisterPath, s.register)
	s.app.Put(cfg.LogoutPath, s.logout)

	return s
}

// App exposes the fiber app, mostly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// AddUser seeds an account.
func (s *Server) AddUser(email, password string) error {
	_, err := s.users.add(email, password)
	return err
}

// ActiveSessions returns the number of issued, not yet revoked tokens.
func (s *Server) ActiveSessions() int {
	return s.tokens.activeCount()
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Serve serves on an existing listener until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Shutdown stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) login(c *fiber.Ctx) error {
	payload, err := s.parseCredentials(c)
	if err != nil {
		return err
	}

	u, err := s.users.verify(payload.Email, payload.Password)
	if err != nil {
		s.logger.Debug("login rejected", "email", payload.Email, "error", err)
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}

	return s.respondWithToken(c, u)
}

func (s *Server) register(c *fiber.Ctx) error {
	payload, err := s.parseCredentials(c)
	if err != nil {
		return err
	}

	u, err := s.users.add(payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, errUserExists) {
			return fiber.NewError(fiber.StatusConflict, "user already exists")
		}
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return s.respondWithToken(c, u)
}

func (s *Server) logout(c *fiber.Ctx) error {
	token := strings.TrimSpace(string(c.Body()))
	if token == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing token")
	}

	email, err := s.tokens.revoke(token)
	if err != nil {
		s.logger.Debug("logout rejected", "error", err)
		return fiber.NewError(fiber.StatusUnauthorized, "user is already logged out")
	}

	s.logger.Debug("session revoked", "email", email)
	return c.SendStatus(fiber.StatusOK)
}

func (s *Server) parseCredentials(c *fiber.Ctx) (credentialsRequest, error) {
	var payload credentialsRequest
	if err := c.BodyParser(&payload); err != nil {
		return payload, fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	if err := payload.Validate(); err != nil {
		return payload, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return payload, nil
}

func (s *Server) respondWithToken(c *fiber.Ctx, u user) error {
	token, err := s.tokens.issue(u)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "unable to issue token")
	}

	if s.config.TokenField == "" {
		return c.JSON(token)
	}
	return c.JSON(fiber.Map{s.config.TokenField: token})
}
