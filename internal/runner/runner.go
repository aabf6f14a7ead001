// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

const (
	// ModeNative runs programs directly through os/exec.
	ModeNative Mode = "native"
	// ModeVirtual runs programs through the embedded mvdan/sh interpreter.
	ModeVirtual Mode = "virtual"
)

var (
	// ErrInvalidExitCode is the sentinel error wrapped by InvalidExitCodeError.
	ErrInvalidExitCode = errors.New("invalid exit code")

	// ErrUnknownMode is returned by New for a Mode it does not recognize.
	ErrUnknownMode = errors.New("unknown runner mode")
)

type (
	// Mode selects a Runner implementation.
	Mode string

	// ExitCode represents a process exit status code.
	// Exit codes are in the range 0-255 on POSIX systems.
	// The zero value (0) means success.
	ExitCode int

	// InvalidExitCodeError is returned when an ExitCode is outside the
	// valid range (0-255).
	InvalidExitCodeError struct {
		Value ExitCode
	}

	// Command describes a single program invocation.
	Command struct {
		Path string   // Program name (looked up in PATH) or path to an executable
		Args []string // Arguments, passed without shell interpretation
		Dir  string   // Working directory; empty means the current directory
		Env  []string // Extra KEY=VALUE pairs appended to the inherited environment

		// ExpandGlobs expands arguments that look like glob patterns
		// (e.g. "dist/*") relative to Dir before running the program.
		ExpandGlobs bool

		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// Result is the outcome of running a Command. Error is set when the
	// program could not be started or was interrupted; a program that ran and
	// exited non-zero has ExitCode set and a nil Error.
	Result struct {
		ExitCode ExitCode
		Error    error
	}

	// Runner executes Commands.
	Runner interface {
		Name() string
		Run(ctx context.Context, cmd Command) *Result
	}
)

// New returns the Runner for mode. The logger, when non-nil, receives a debug
// line for every program started.
func New(mode Mode, logger *log.Logger) (Runner, error) {
	switch mode {
	case ModeNative, "":
		return NewNativeRunner(logger), nil
	case ModeVirtual:
		return NewVirtualRunner(logger), nil
	}
	return nil, fmt.Errorf("%w: %q (expected %q or %q)", ErrUnknownMode, mode, ModeNative, ModeVirtual)
}

// Error implements the error interface.
func (e *InvalidExitCodeError) Error() string {
	return fmt.Sprintf("invalid exit code %d (must be in range 0-255)", e.Value)
}

// Unwrap returns ErrInvalidExitCode so callers can use errors.Is for programmatic detection.
func (e *InvalidExitCodeError) Unwrap() error { return ErrInvalidExitCode }

// Validate returns an InvalidExitCodeError if c is outside 0-255.
func (c ExitCode) Validate() error {
	if c < 0 || c > 255 {
		return &InvalidExitCodeError{Value: c}
	}
	return nil
}

// IsSuccess returns true if the exit code indicates successful execution.
func (c ExitCode) IsSuccess() bool { return c == 0 }

// String returns the decimal string representation of the ExitCode.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }

// Success reports whether the program ran and exited zero.
func (r *Result) Success() bool {
	return r != nil && r.Error == nil && r.ExitCode.IsSuccess()
}

// String renders the command line for log output.
func (c Command) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

func errorResult(err error) *Result {
	return &Result{ExitCode: 1, Error: err}
}

// isGlobPattern reports whether arg contains glob metacharacters and only
// characters that are safe to hand to a shell unquoted.
func isGlobPattern(arg string) bool {
	if !strings.ContainsAny(arg, "*?[") {
		return false
	}
	for _, r := range arg {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("._-/*?[]", r):
		default:
			return false
		}
	}
	return true
}
