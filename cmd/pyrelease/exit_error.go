// SPDX-License-Identifier: MPL-2.0

package cmd

import "fmt"

const (
	// exitOK covers success, nothing to release, and a declined prompt.
	exitOK = 0
	// exitUserError covers failures the user can correct: missing metadata,
	// no version line, no inferable package, invalid flags or config.
	exitUserError = 1
	// exitStepFailed covers failed release steps and unexpected errors.
	exitStepFailed = 2
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
// A nil Err means the handler already reported the failure.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}
