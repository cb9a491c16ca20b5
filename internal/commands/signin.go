package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"todosync/internal/app"
	"todosync/internal/config"
	"todosync/internal/exitcode"
	"todosync/internal/gateway"
	"todosync/internal/model"
)

func init() {
	Register(&SignInCmd{})
	Register(&SignUpCmd{})
}

// SignInCmd authenticates against a SQL backend and stores the session.
type SignInCmd struct {
	email string
}

// SetEmail sets the account email (for testing).
func (c *SignInCmd) SetEmail(email string) { c.email = email }

func (c *SignInCmd) Name() string      { return "signin" }
func (c *SignInCmd) Aliases() []string { return nil }
func (c *SignInCmd) Synopsis() string  { return "Sign in (sqlite and postgres backends)" }
func (c *SignInCmd) Usage() string     { return "todosync signin [--email <email>]" }
func (c *SignInCmd) NeedsAuth() bool   { return false }

func (c *SignInCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.email, "email", "e", "", "")
}

func (c *SignInCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	email, password, err := readCredentials(env, c.email, errOut)
	if err != nil {
		return Fail(errOut, err)
	}
	if err := model.ValidateCredentials(email, password); err != nil {
		return Fail(errOut, err)
	}
	gw, err := env.Accounts(ctx)
	if err != nil {
		return Fail(errOut, err)
	}
	sess, err := app.SignIn(ctx, gw, email, password)
	if err != nil {
		return Fail(errOut, err)
	}
	return storeSession(env.Config, sess, out, errOut)
}

// SignUpCmd creates an account on a SQL backend and signs in.
type SignUpCmd struct {
	email string
}

// SetEmail sets the account email (for testing).
func (c *SignUpCmd) SetEmail(email string) { c.email = email }

func (c *SignUpCmd) Name() string      { return "signup" }
func (c *SignUpCmd) Aliases() []string { return []string{"register"} }
func (c *SignUpCmd) Synopsis() string  { return "Create an account (sqlite and postgres backends)" }
func (c *SignUpCmd) Usage() string     { return "todosync signup [--email <email>]" }
func (c *SignUpCmd) NeedsAuth() bool   { return false }

func (c *SignUpCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.email, "email", "e", "", "")
}

func (c *SignUpCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	email, password, err := readCredentials(env, c.email, errOut)
	if err != nil {
		return Fail(errOut, err)
	}
	if err := model.ValidateCredentials(email, password); err != nil {
		return Fail(errOut, err)
	}
	gw, err := env.Accounts(ctx)
	if err != nil {
		return Fail(errOut, err)
	}
	reg, ok := gw.(gateway.Registrar)
	if !ok {
		return Fail(errOut, &model.AuthError{Message: "this backend does not support sign up"})
	}
	sess, err := app.SignUp(ctx, reg, email, password)
	if err != nil {
		return Fail(errOut, err)
	}
	return storeSession(env.Config, sess, out, errOut)
}

func readCredentials(env *Env, email string, errOut io.Writer) (string, string, error) {
	var err error
	if email == "" {
		if email, err = env.prompt(errOut, "Email: "); err != nil {
			return "", "", userError("email required")
		}
	}
	password, err := env.password(errOut, "Password: ")
	if err != nil && !errors.Is(err, io.EOF) {
		return "", "", err
	}
	return email, password, nil
}

func storeSession(cfg *config.Config, sess model.Session, out, errOut io.Writer) int {
	if err := cfg.SaveSession(sess); err != nil {
		return Fail(errOut, &model.AuthError{Message: fmt.Sprintf("failed to save session: %v", err)})
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "signed in as %s\n", sess.Email)
	}
	return exitcode.Success
}
