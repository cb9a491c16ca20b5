package commands

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"todosync/internal/model"
)

func init() {
	Register(&CreateListCmd{})
}

// CreateListCmd creates a list.
type CreateListCmd struct {
	color string
}

// SetColor sets the list color (for testing).
func (c *CreateListCmd) SetColor(color string) {
	c.color = color
}

func (c *CreateListCmd) Name() string      { return "createlist" }
func (c *CreateListCmd) Aliases() []string { return []string{"addlist"} }
func (c *CreateListCmd) Synopsis() string  { return "Create a new list" }
func (c *CreateListCmd) Usage() string     { return "todosync createlist [--color <#rrggbb>] <list-name>" }
func (c *CreateListCmd) NeedsAuth() bool   { return true }

func (c *CreateListCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.color, "color", "c", "", "")
}

func (c *CreateListCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	name := strings.TrimSpace(strings.Join(args, " "))
	if c.color != "" {
		if err := model.ValidateColor(c.color); err != nil {
			return Fail(errOut, err)
		}
	}
	if name != "" && listExists(env.App.Repository(), name) {
		return Fail(errOut, userError("list already exists: %s", name))
	}

	if _, _, err := env.App.Controller().CreateList(ctx, name, c.color); err != nil {
		return Fail(errOut, err)
	}
	return finish(ctx, env, out, errOut)
}
