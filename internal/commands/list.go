package commands

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"todosync/internal/exitcode"
	"todosync/internal/output"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd prints every list with its items, or a single list.
// It also runs for `todosync` without a command.
type ListCmd struct{}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string     { return "todosync list [<list>]" }
func (c *ListCmd) NeedsAuth() bool   { return true }

func (c *ListCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *ListCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	repo := env.App.Repository()

	if len(args) > 0 {
		list, err := ResolveList(repo, strings.Join(args, " "))
		if err != nil {
			return Fail(errOut, err)
		}
		output.FormatList(out, output.Letter(repo.IndexOf(list.ID)), list)
		return exitcode.Success
	}

	for i, list := range repo.Lists() {
		if i > 0 {
			io.WriteString(out, "\n")
		}
		output.FormatList(out, output.Letter(i), list)
	}
	return exitcode.Success
}
