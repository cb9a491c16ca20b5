package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd deletes an item after confirmation.
type RmCmd struct {
	force bool
}

// SetForce skips the confirmation prompt (for testing).
func (c *RmCmd) SetForce(force bool) {
	c.force = force
}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete an item" }
func (c *RmCmd) Usage() string     { return "todosync rm [--force] <ref>" }
func (c *RmCmd) NeedsAuth() bool   { return true }

func (c *RmCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&c.force, "force", "f", false, "")
}

func (c *RmCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	ref, err := ParseTaskRef(args)
	if err != nil {
		return Fail(errOut, err)
	}
	item, _, err := ResolveTask(env.App.Repository(), ref)
	if err != nil {
		return Fail(errOut, err)
	}

	ctl := env.App.Controller()
	if err := ctl.RequestDeleteItem(item.ID); err != nil {
		return Fail(errOut, err)
	}
	if !c.force && !env.confirm(errOut, fmt.Sprintf("delete %q?", item.Body)) {
		ctl.Cancel()
		return Fail(errOut, userError("cancelled"))
	}
	if _, err := ctl.Confirm(ctx); err != nil {
		return Fail(errOut, err)
	}
	return finish(ctx, env, out, errOut)
}
