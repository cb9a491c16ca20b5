package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"todosync/internal/exitcode"
	"todosync/internal/model"
)

// userError builds a validation error printed without a field prefix.
func userError(format string, args ...any) error {
	return model.NewValidationError("", fmt.Sprintf(format, args...))
}

// Fail prints err in the CLI's error format and returns its exit code.
func Fail(errOut io.Writer, err error) int {
	code := exitcode.For(err)
	switch code {
	case exitcode.AuthError:
		fmt.Fprintf(errOut, "error: auth error: %v\n", err)
	case exitcode.BackendError:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
	default:
		var verr *model.ValidationError
		if errors.As(err, &verr) && verr.Field == "" {
			fmt.Fprintf(errOut, "error: %s\n", verr.Message)
		} else {
			fmt.Fprintf(errOut, "error: %v\n", err)
		}
	}
	return code
}

// finish waits for the remote calls a command started and reports the outcome.
func finish(ctx context.Context, env *Env, out, errOut io.Writer) int {
	if err := env.App.Wait(ctx); err != nil {
		return Fail(errOut, err)
	}
	if !env.Config.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
