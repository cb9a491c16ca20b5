package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
)

func init() {
	Register(&RmListCmd{})
}

// RmListCmd deletes a list and its items after confirmation.
type RmListCmd struct {
	force bool
}

// SetForce skips the confirmation prompt (for testing).
func (c *RmListCmd) SetForce(force bool) {
	c.force = force
}

func (c *RmListCmd) Name() string      { return "rmlist" }
func (c *RmListCmd) Aliases() []string { return []string{"deletelist"} }
func (c *RmListCmd) Synopsis() string  { return "Delete a list" }
func (c *RmListCmd) Usage() string     { return "todosync rmlist [--force] <list-name>" }
func (c *RmListCmd) NeedsAuth() bool   { return true }

func (c *RmListCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&c.force, "force", "f", false, "")
}

func (c *RmListCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	list, err := ResolveList(env.App.Repository(), strings.Join(args, " "))
	if err != nil {
		return Fail(errOut, err)
	}

	ctl := env.App.Controller()
	if err := ctl.RequestDeleteList(list.ID); err != nil {
		return Fail(errOut, err)
	}
	question := fmt.Sprintf("delete list %q and its %d items?", list.Name, len(list.RealItems()))
	if !c.force && !env.confirm(errOut, question) {
		ctl.Cancel()
		return Fail(errOut, userError("cancelled"))
	}
	if _, err := ctl.Confirm(ctx); err != nil {
		return Fail(errOut, err)
	}
	return finish(ctx, env, out, errOut)
}
