package commands

import (
	"context"
	"io"

	"github.com/spf13/pflag"

	"todosync/internal/exitcode"
	"todosync/internal/output"
)

func init() {
	Register(&ListsCmd{})
}

// ListsCmd prints one line per list.
type ListsCmd struct{}

func (c *ListsCmd) Name() string      { return "lists" }
func (c *ListsCmd) Aliases() []string { return nil }
func (c *ListsCmd) Synopsis() string  { return "List all lists" }
func (c *ListsCmd) Usage() string     { return "todosync lists" }
func (c *ListsCmd) NeedsAuth() bool   { return true }

func (c *ListsCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *ListsCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	for i, list := range env.App.Repository().Lists() {
		output.FormatListName(out, output.Letter(i), list)
	}
	return exitcode.Success
}
