package commands

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"todosync/internal/model"
)

func init() {
	Register(&EditListCmd{})
}

// EditListCmd renames or recolors a list.
type EditListCmd struct {
	name  string
	color string
}

// SetName sets the new name (for testing).
func (c *EditListCmd) SetName(name string) { c.name = name }

// SetColor sets the new color (for testing).
func (c *EditListCmd) SetColor(color string) { c.color = color }

func (c *EditListCmd) Name() string      { return "editlist" }
func (c *EditListCmd) Aliases() []string { return []string{"renamelist"} }
func (c *EditListCmd) Synopsis() string  { return "Rename or recolor a list" }
func (c *EditListCmd) Usage() string {
	return "todosync editlist [--name <new-name>] [--color <#rrggbb>] <list-name>"
}
func (c *EditListCmd) NeedsAuth() bool { return true }

func (c *EditListCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.name, "name", "n", "", "")
	fs.StringVarP(&c.color, "color", "c", "", "")
}

func (c *EditListCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if c.name == "" && c.color == "" {
		return Fail(errOut, userError("nothing to change (use --name or --color)"))
	}
	if c.color != "" {
		if err := model.ValidateColor(c.color); err != nil {
			return Fail(errOut, err)
		}
	}

	repo := env.App.Repository()
	list, err := ResolveList(repo, strings.Join(args, " "))
	if err != nil {
		return Fail(errOut, err)
	}
	name := list.Name
	if c.name != "" {
		name = c.name
		if !strings.EqualFold(strings.TrimSpace(name), strings.TrimSpace(list.Name)) && listExists(repo, name) {
			return Fail(errOut, userError("list already exists: %s", strings.TrimSpace(name)))
		}
	}

	if _, err := env.App.Controller().UpdateList(ctx, list.ID, name, c.color); err != nil {
		return Fail(errOut, err)
	}
	return finish(ctx, env, out, errOut)
}
