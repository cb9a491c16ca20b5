package commands

import (
	"context"
	"io"

	"github.com/spf13/pflag"

	"todosync/internal/exitcode"
	"todosync/internal/tui"
)

func init() {
	Register(&UICmd{})
}

// UICmd opens the interactive terminal interface.
type UICmd struct{}

func (c *UICmd) Name() string      { return "ui" }
func (c *UICmd) Aliases() []string { return []string{"tui"} }
func (c *UICmd) Synopsis() string  { return "Open the interactive interface" }
func (c *UICmd) Usage() string     { return "todosync ui" }
func (c *UICmd) NeedsAuth() bool   { return true }

func (c *UICmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *UICmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if err := tui.Run(ctx, env.App); err != nil {
		return Fail(errOut, err)
	}
	return exitcode.Success
}
