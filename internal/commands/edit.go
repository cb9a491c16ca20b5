package commands

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"todosync/internal/editing"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd replaces the body of an item.
type EditCmd struct{}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Change an item's text" }
func (c *EditCmd) Usage() string     { return "todosync edit <ref> <body...>" }
func (c *EditCmd) NeedsAuth() bool   { return true }

func (c *EditCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *EditCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	ref, err := ParseTaskRef(args)
	if err != nil {
		return Fail(errOut, err)
	}
	body := strings.TrimSpace(strings.Join(args[ref.Consumed:], " "))
	if body == "" {
		return Fail(errOut, userError("body required"))
	}
	item, _, err := ResolveTask(env.App.Repository(), ref)
	if err != nil {
		return Fail(errOut, err)
	}

	// Same path as the interactive editor: enter edit mode, type, press Enter.
	arb := env.App.Arbiter()
	res, _, err := arb.RequestEdit(ctx, item.ID)
	if err != nil {
		return Fail(errOut, err)
	}
	if res != editing.Started {
		return Fail(errOut, userError("item cannot be edited"))
	}
	if err := arb.SetDraft(item.ID, body); err != nil {
		arb.Cancel()
		return Fail(errOut, err)
	}
	if _, _, err := arb.HandleKey(ctx, item.ID, editing.KeyEnter); err != nil {
		return Fail(errOut, err)
	}
	return finish(ctx, env, out, errOut)
}
