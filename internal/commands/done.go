package commands

import (
	"context"
	"io"

	"github.com/spf13/pflag"
)

func init() {
	Register(&DoneCmd{})
}

// DoneCmd flips an item between pending and completed.
type DoneCmd struct{}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return []string{"toggle"} }
func (c *DoneCmd) Synopsis() string  { return "Toggle an item's completion" }
func (c *DoneCmd) Usage() string     { return "todosync done <ref>" }
func (c *DoneCmd) NeedsAuth() bool   { return true }

func (c *DoneCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	ref, err := ParseTaskRef(args)
	if err != nil {
		return Fail(errOut, err)
	}
	item, _, err := ResolveTask(env.App.Repository(), ref)
	if err != nil {
		return Fail(errOut, err)
	}
	if _, err := env.App.Controller().ToggleStatus(ctx, item.ID); err != nil {
		return Fail(errOut, err)
	}
	return finish(ctx, env, out, errOut)
}
