package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"todosync/internal/config"
	"todosync/internal/exitcode"
	"todosync/internal/gateway"
	"todosync/internal/model"
)

func init() {
	Register(&LogoutCmd{})
}

// LogoutCmd removes stored credentials. SQL sessions are revoked too.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string      { return "logout" }
func (c *LogoutCmd) Aliases() []string { return []string{"signout"} }
func (c *LogoutCmd) Synopsis() string  { return "Remove stored credentials" }
func (c *LogoutCmd) Usage() string     { return "todosync logout" }
func (c *LogoutCmd) NeedsAuth() bool   { return false }

func (c *LogoutCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	cfg := env.Config
	if cfg.Backend == config.BackendGoogle {
		if !cfg.HasToken() {
			return say(cfg, out, "not logged in")
		}
		if err := cfg.RemoveToken(); err != nil {
			return Fail(errOut, &model.AuthError{Message: fmt.Sprintf("failed to remove token: %v", err)})
		}
		return say(cfg, out, "ok")
	}

	if !cfg.HasSession() {
		return say(cfg, out, "not signed in")
	}
	if sess, err := cfg.LoadSession(); err == nil {
		c.revoke(ctx, env, sess)
	}
	if err := cfg.RemoveSession(); err != nil {
		return Fail(errOut, &model.AuthError{Message: fmt.Sprintf("failed to remove session: %v", err)})
	}
	return say(cfg, out, "ok")
}

// revoke invalidates the session server-side. The local file goes away
// whether or not this succeeds.
func (c *LogoutCmd) revoke(ctx context.Context, env *Env, sess model.Session) {
	gw, err := env.Accounts(ctx)
	if err != nil {
		env.logger().Warn("session not revoked", "error", err)
		return
	}
	r, ok := gw.(gateway.Revoker)
	if !ok {
		return
	}
	if err := r.Revoke(ctx, sess); err != nil {
		env.logger().Warn("session not revoked", "error", err)
	}
}

func say(cfg *config.Config, out io.Writer, msg string) int {
	if !cfg.Quiet {
		fmt.Fprintln(out, msg)
	}
	return exitcode.Success
}
