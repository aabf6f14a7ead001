// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestVirtualRunner_Echo(t *testing.T) {
	t.Parallel()

	var stdout bytes.Buffer
	res := NewVirtualRunner(nil).Run(context.Background(), Command{
		Path:   "echo",
		Args:   []string{"release", "v1.2.0"},
		Dir:    t.TempDir(),
		Stdout: &stdout,
	})
	if !res.Success() {
		t.Fatalf("Run() = %+v", res)
	}
	if got := strings.TrimSpace(stdout.String()); got != "release v1.2.0" {
		t.Errorf("stdout = %q", got)
	}
}

func TestVirtualRunner_ArgumentsAreQuoted(t *testing.T) {
	t.Parallel()

	var stdout bytes.Buffer
	res := NewVirtualRunner(nil).Run(context.Background(), Command{
		Path:   "echo",
		Args:   []string{"$HOME; false", "a  b"},
		Dir:    t.TempDir(),
		Stdout: &stdout,
	})
	if !res.Success() {
		t.Fatalf("Run() = %+v", res)
	}
	if got := strings.TrimSpace(stdout.String()); got != "$HOME; false a  b" {
		t.Errorf("stdout = %q", got)
	}
}

func TestVirtualRunner_ExitCode(t *testing.T) {
	t.Parallel()

	res := NewVirtualRunner(nil).Run(context.Background(), Command{Path: "false", Dir: t.TempDir()})
	if res.Error != nil {
		t.Fatalf("Error = %v", res.Error)
	}
	if res.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", res.ExitCode)
	}
}

func TestVirtualRunner_Env(t *testing.T) {
	t.Parallel()

	var stdout bytes.Buffer
	res := NewVirtualRunner(nil).Run(context.Background(), Command{
		Path:   "printenv",
		Args:   []string{"PYRELEASE_TEST"},
		Env:    []string{"PYRELEASE_TEST=value"},
		Dir:    t.TempDir(),
		Stdout: &stdout,
	})
	if res.Error != nil || res.ExitCode == 127 {
		t.Skip("printenv unavailable")
	}
	if got := strings.TrimSpace(stdout.String()); got != "value" {
		t.Errorf("stdout = %q", got)
	}
}

func TestVirtualRunner_ExpandGlobs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "dist"), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a.whl", "b.tar.gz"} {
		if err := os.WriteFile(filepath.Join(dir, "dist", name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	var stdout bytes.Buffer
	res := NewVirtualRunner(nil).Run(context.Background(), Command{
		Path:        "echo",
		Args:        []string{"dist/*"},
		Dir:         dir,
		ExpandGlobs: true,
		Stdout:      &stdout,
	})
	if !res.Success() {
		t.Fatalf("Run() = %+v", res)
	}
	if got := strings.TrimSpace(stdout.String()); got != "dist/a.whl dist/b.tar.gz" {
		t.Errorf("stdout = %q", got)
	}
}

func TestVirtualRunner_GlobsLiteralWithoutFlag(t *testing.T) {
	t.Parallel()

	var stdout bytes.Buffer
	res := NewVirtualRunner(nil).Run(context.Background(), Command{
		Path:   "echo",
		Args:   []string{"dist/*"},
		Dir:    t.TempDir(),
		Stdout: &stdout,
	})
	if !res.Success() {
		t.Fatalf("Run() = %+v", res)
	}
	if got := strings.TrimSpace(stdout.String()); got != "dist/*" {
		t.Errorf("stdout = %q", got)
	}
}

func TestVirtualRunner_EmptyPath(t *testing.T) {
	t.Parallel()

	if res := NewVirtualRunner(nil).Run(context.Background(), Command{}); res.Error == nil {
		t.Fatal("expected an error for an empty command")
	}
}
