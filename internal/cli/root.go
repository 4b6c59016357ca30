// Package cli implements the authctl command line: login, register,
// logout and status against a configured identity endpoint.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"sort"

	"github.com/goliatone/go-auth-client/internal/config"
)

// Command is a single authctl subcommand.
type Command struct {
	Name        string
	Description string
	Flags       *flag.FlagSet
	Run         func(ctx context.Context, rt *Runtime, args []string) error
}

// App dispatches subcommands.
type App struct {
	Name     string
	Commands map[string]*Command

	out    io.Writer
	loader *config.Loader
}

// NewApp creates the authctl application writing results to out.
func NewApp(out io.Writer, loader *config.Loader) *App {
	if loader == nil {
		loader = config.NewLoader()
	}

	app := &App{
		Name:     "authctl",
		Commands: make(map[string]*Command),
		out:      out,
		loader:   loader,
	}

	for _, cmd := range []*Command{
		newCredentialsCommand("login", "Authenticate with email and password"),
		newCredentialsCommand("register", "Create an account and authenticate"),
		newLogoutCommand(),
		newStatusCommand(),
	} {
		app.Commands[cmd.Name] = cmd
	}

	return app
}

// Run parses the global flags, builds the runtime and runs the selected
// subcommand.
func (a *App) Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet(a.Name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	configPath := fs.String("config", "", "Path to a YAML config file")
	verbose := fs.Bool("verbose", false, "Enable trace logging")
	showMetrics := fs.Bool("metrics", false, "Print operation metrics after the command")

	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) == 0 || rest[0] == "help" {
		a.usage()
		return nil
	}

	cmd, ok := a.Commands[rest[0]]
	if !ok {
		a.usage()
		return fmt.Errorf("unknown command: %s", rest[0])
	}

	cfg, err := a.loader.Load(*configPath)
	if err != nil {
		return err
	}
	if *verbose {
		cfg.Verbose = true
	}

	rt, err := NewRuntime(ctx, *cfg, a.out)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := cmd.Run(ctx, rt, rest[1:]); err != nil {
		return err
	}

	if *showMetrics {
		return rt.PrintMetrics()
	}
	return nil
}

func (a *App) usage() {
	names := make([]string, 0, len(a.Commands))
	for name := range a.Commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(a.out, "Usage: %s [-config path] [-verbose] [-metrics] <command> [args]\n\n", a.Name)
	fmt.Fprintf(a.out, "Commands:\n")
	for _, name := range names {
		fmt.Fprintf(a.out, "  %-15s %s\n", name, a.Commands[name].Description)
	}
}
