// Package exitcode defines exit codes for the CLI.
package exitcode

import (
	"errors"

	"todosync/internal/model"
)

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, not found, ambiguous, validation).
	UserError = 1

	// AuthError indicates an auth/config error.
	AuthError = 2

	// BackendError indicates a backend/API/network error.
	BackendError = 3
)

// For maps an error to its exit code.
func For(err error) int {
	switch {
	case err == nil:
		return Success
	case model.IsAuth(err):
		return AuthError
	case model.IsValidation(err), errors.Is(err, model.ErrNotFound) && !model.IsRemote(err):
		return UserError
	default:
		return BackendError
	}
}
