// Package cli parses the command line and runs commands against a session.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"todosync/internal/app"
	"todosync/internal/backend"
	"todosync/internal/commands"
	"todosync/internal/config"
	"todosync/internal/exitcode"
	"todosync/internal/gateway"
	"todosync/internal/lifecycle"
)

// SessionOpener opens the gateway of the signed-in session.
type SessionOpener func(ctx context.Context, cfg *config.Config) (gateway.Gateway, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	sessions SessionOpener
	accounts commands.AccountsOpener
	in       io.Reader
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithSessionOpener replaces backend.OpenSession.
func WithSessionOpener(f SessionOpener) Option {
	return func(d *Dispatcher) { d.sessions = f }
}

// WithAccountsOpener replaces backend.OpenAccounts.
func WithAccountsOpener(f commands.AccountsOpener) Option {
	return func(d *Dispatcher) { d.accounts = f }
}

// WithInput sets the reader for prompts (default os.Stdin).
func WithInput(r io.Reader) Option {
	return func(d *Dispatcher) { d.in = r }
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(registry *commands.Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		sessions: backend.OpenSession,
		accounts: backend.OpenAccounts,
		in:       os.Stdin,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	name := "list"
	if len(args) > 0 {
		name, args = args[0], args[1:]
	}

	// Flags require a command.
	if strings.HasPrefix(name, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", name)
		return exitcode.UserError
	}
	cmd, ok := d.registry.Find(name)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", name)
		return exitcode.UserError
	}
	return d.dispatch(ctx, cmd, args, out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	fs := pflag.NewFlagSet(cmd.Name(), pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}

	var (
		configDir   string
		backendName string
		quiet       bool
		debug       bool
	)
	fs.StringVar(&configDir, "config", "", "")
	fs.StringVar(&backendName, "backend", "", "")
	fs.BoolVarP(&quiet, "quiet", "q", false, "")
	fs.BoolVar(&debug, "debug", false, "")
	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}

	cfg, err := config.New(configDir)
	if cfg != nil && backendName != "" {
		cfg.Backend = strings.ToLower(backendName)
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = quiet
	cfg.Debug = debug

	log := newLogger(errOut, debug)
	env := &commands.Env{
		Config:       cfg,
		In:           d.in,
		Log:          log,
		OpenAccounts: d.accounts,
	}
	defer env.Close()

	if !cmd.NeedsAuth() {
		return cmd.Run(ctx, env, fs.Args(), out, errOut)
	}

	gw, err := d.sessions(ctx, cfg)
	if err != nil {
		return commands.Fail(errOut, err)
	}
	if c, ok := gw.(gateway.Closer); ok {
		defer c.Close()
	}

	a := app.New(gw,
		app.WithLogger(log),
		app.WithNotifier(func(n lifecycle.Notice) {
			log.Debug("notice", "level", n.Level, "message", n.Message)
		}),
	)
	if err := a.Bootstrap(ctx); err != nil {
		return commands.Fail(errOut, err)
	}
	env.App = a

	code := cmd.Run(ctx, env, fs.Args(), out, errOut)
	if err := a.Teardown(ctx); err != nil {
		log.Debug("teardown", "error", err)
	}
	return code
}

// newLogger logs to errOut: errors only, everything with --debug.
func newLogger(errOut io.Writer, debug bool) *slog.Logger {
	level := slog.LevelError
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))
}
