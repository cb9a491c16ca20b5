package commands

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"todosync/internal/model"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd appends an item to a list.
type AddCmd struct {
	listName string
}

// SetListName sets the target list (for testing).
func (c *AddCmd) SetListName(name string) {
	c.listName = name
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Add an item" }
func (c *AddCmd) Usage() string     { return "todosync add [--list <list>] <body...>" }
func (c *AddCmd) NeedsAuth() bool   { return true }

func (c *AddCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.listName, "list", "l", "", "")
}

func (c *AddCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	body := strings.TrimSpace(strings.Join(args, " "))
	if body == "" {
		return Fail(errOut, userError("body required"))
	}

	repo := env.App.Repository()
	var list model.TaskList
	if c.listName != "" {
		var err error
		if list, err = ResolveList(repo, c.listName); err != nil {
			return Fail(errOut, err)
		}
	} else {
		lists := repo.Lists()
		if len(lists) == 0 {
			return Fail(errOut, userError("no lists"))
		}
		list = lists[0]
	}

	if _, _, err := env.App.Controller().CreateItem(ctx, list.ID, body); err != nil {
		return Fail(errOut, err)
	}
	return finish(ctx, env, out, errOut)
}
