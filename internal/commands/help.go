package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"todosync/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd prints usage for every command in the default registry.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "todosync help" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	PrintUsage(out, DefaultRegistry)
	return exitcode.Success
}

// PrintUsage writes the usage of every command in r.
func PrintUsage(w io.Writer, r *Registry) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  todosync                 List all lists and their items")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, cmd := range r.All() {
		fmt.Fprintf(tw, "  %s\t%s\n", cmd.Usage(), cmd.Synopsis())
	}
	tw.Flush()
	fmt.Fprint(w, commonFlagsText)
}

const commonFlagsText = `
Task references:
  3      third item of the first list
  b2     second item of list b (letters as shown by 'todosync lists')

Common flags:
  --config <dir>       Override config directory
  --backend <name>     google, sqlite or postgres
  -q, --quiet          Suppress informational output
  --debug              Print debug logs to stderr
`
