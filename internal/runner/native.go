// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// NativeRunner executes programs directly, without a shell.
type NativeRunner struct {
	logger *log.Logger
}

// NewNativeRunner creates a native runner.
func NewNativeRunner(logger *log.Logger) *NativeRunner {
	return &NativeRunner{logger: logger}
}

// Name returns the runner name.
func (r *NativeRunner) Name() string {
	return string(ModeNative)
}

// Run starts the program and waits for it to exit.
func (r *NativeRunner) Run(ctx context.Context, c Command) *Result {
	if c.Path == "" {
		return errorResult(errors.New("no program to execute"))
	}

	args := c.Args
	if c.ExpandGlobs {
		expanded, err := expandGlobs(c.Dir, args)
		if err != nil {
			return errorResult(err)
		}
		args = expanded
	}

	cmd := exec.CommandContext(ctx, c.Path, args...)
	if c.Dir != "" {
		cmd.Dir = c.Dir
	}
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.Stdin = c.Stdin
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr

	if r.logger != nil {
		r.logger.Debug("exec", "runner", r.Name(), "cmd", cmd.String(), "dir", c.Dir)
	}

	return extractExitCode(cmd.Run())
}

// extractExitCode determines the Result from a command execution error.
func extractExitCode(err error) *Result {
	if err == nil {
		return &Result{}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// Command executed but returned non-zero exit code; -1 means killed by a signal.
		code := ExitCode(exitErr.ExitCode())
		if validateErr := code.Validate(); validateErr != nil {
			return &Result{ExitCode: 1, Error: fmt.Errorf("process terminated: %w", err)}
		}
		return &Result{ExitCode: code}
	}

	// Some other error (e.g., command not found, permission denied)
	return errorResult(fmt.Errorf("failed to execute command: %w", err))
}

// expandGlobs replaces glob arguments with their matches relative to dir.
// A pattern without matches is passed through unchanged, like a POSIX shell
// without nullglob.
func expandGlobs(dir string, args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		if !isGlobPattern(arg) {
			out = append(out, arg)
			continue
		}

		matches, err := filepath.Glob(filepath.Join(dir, filepath.FromSlash(arg)))
		if err != nil {
			return nil, fmt.Errorf("expanding %q: %w", arg, err)
		}
		if len(matches) == 0 {
			out = append(out, arg)
			continue
		}
		for _, m := range matches {
			if dir != "" {
				if rel, relErr := filepath.Rel(dir, m); relErr == nil {
					m = rel
				}
			}
			out = append(out, m)
		}
	}
	return out, nil
}
