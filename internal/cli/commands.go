package cli

import (
	"context"
	"errors"
	"flag"
	"strings"
	"time"

	authclient "github.com/goliatone/go-auth-client"
)

func newCredentialsCommand(name, description string) *Command {
	cmd := &Command{
		Name:        name,
		Description: description,
		Flags:       flag.NewFlagSet(name, flag.ContinueOnError),
	}

	email := cmd.Flags.String("email", "", "Account email")
	password := cmd.Flags.String("password", "", "Account password")
	extra := authclient.Credentials{}
	cmd.Flags.Func("field", "Additional credential field as key=value (repeatable)", func(value string) error {
		key, val, ok := strings.Cut(value, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return errors.New("field must be key=value")
		}
		extra[strings.TrimSpace(key)] = val
		return nil
	})

	cmd.Run = func(ctx context.Context, rt *Runtime, args []string) error {
		cmd.Flags.SetOutput(rt.out)
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		if *email == "" || *password == "" {
			return errors.New(name + ": -email and -password are required")
		}

		creds := authclient.Credentials{}
		for k, v := range extra {
			creds[k] = v
		}
		creds["email"] = *email
		creds["password"] = *password

		var (
			token authclient.Token
			err   error
		)
		if name == "register" {
			token, err = rt.Orchestrator.Register(ctx, creds)
		} else {
			token, err = rt.Orchestrator.Login(ctx, creds)
		}
		if err != nil {
			return err
		}

		rt.Print(map[string]any{
			"operation":     name,
			"authenticated": rt.Orchestrator.IsAuthenticated(),
			"token":         maskToken(token),
		})
		return nil
	}

	return cmd
}

func newLogoutCommand() *Command {
	cmd := &Command{
		Name:        "logout",
		Description: "End the session and forget the stored token",
		Flags:       flag.NewFlagSet("logout", flag.ContinueOnError),
	}

	cmd.Run = func(ctx context.Context, rt *Runtime, args []string) error {
		cmd.Flags.SetOutput(rt.out)
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}

		result := map[string]any{"operation": "logout"}
		err := rt.Orchestrator.Logout(ctx)
		switch {
		case err == nil:
			result["remote"] = "ok"
		case authclient.IsKind(err, authclient.ErrUserAlreadyLoggedOut):
			result["remote"] = authclient.ErrUserAlreadyLoggedOut.Message
		default:
			return err
		}

		result["authenticated"] = rt.Orchestrator.IsAuthenticated()
		rt.Print(result)
		return nil
	}

	return cmd
}

func newStatusCommand() *Command {
	cmd := &Command{
		Name:        "status",
		Description: "Show the current session",
		Flags:       flag.NewFlagSet("status", flag.ContinueOnError),
	}

	cmd.Run = func(ctx context.Context, rt *Runtime, args []string) error {
		cmd.Flags.SetOutput(rt.out)
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}

		orch := rt.Orchestrator
		cfg := orch.Config()
		result := map[string]any{
			"authenticated": orch.IsAuthenticated(),
			"state":         orch.State().String(),
			"endpoint":      cfg.Scheme + "://" + cfg.Host,
			"store":         rt.Config.Store.Driver,
			"auto_login":    cfg.AutoLogin,
		}

		token, found, err := orch.Token(ctx)
		if err != nil {
			return err
		}
		if found {
			result["token"] = maskToken(token)
			if exp, ok := authclient.NewJWTExpiryInspector(0).Expiry(token); ok {
				result["expires_at"] = exp.UTC().Format(time.RFC3339)
			}
		}

		rt.Print(result)
		return nil
	}

	return cmd
}

func maskToken(token authclient.Token) string {
	s := token.String()
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + "..." + s[len(s)-4:]
}
