// SPDX-License-Identifier: MPL-2.0

package release

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// MinVerbosity is the quietest verbosity level (fatal messages only).
	MinVerbosity = 0
	// MaxVerbosity is the most detailed verbosity level.
	MaxVerbosity = 5
	// DefaultVerbosity matches an interactive session: info level with prompts.
	DefaultVerbosity = 3

	// PackagePlaceholder is replaced by the package name in Options.MetadataFile.
	PackagePlaceholder = "{package}"

	// DefaultMetadataFile is read when no metadata file is configured.
	DefaultMetadataFile = PackagePlaceholder + "/__init__.py"
)

var (
	// ErrAccountRequired is returned when no hosting account is given.
	ErrAccountRequired = errors.New("account is required")

	// ErrInvalidVerbosity is returned for a verbosity outside 0-5.
	ErrInvalidVerbosity = errors.New("invalid verbosity")
)

// Options is the fully resolved configuration of a release run. The CLI builds
// it from flags, environment and the config file; the orchestrator reads
// nothing else.
type Options struct {
	Account string // Hosting account (GitHub owner)
	Package string // Package directory and repository name; inferred when empty
	WorkDir string // Project root; empty means the current directory

	// MetadataFile is the file declaring the version. It may contain
	// PackagePlaceholder and is resolved relative to WorkDir.
	MetadataFile string

	Python       string // Interpreter used for setup.py
	Pip          string // Installer used for the built wheel
	UploaderPath string // Package index uploader; upload is skipped when empty or missing

	Clean     bool // Remove dist, build and <package>.egg-info before building
	Pull      bool // Run git pull before looking up the remote version
	DryRun    bool // Report the plan without executing anything
	AssumeYes bool // Skip confirmation prompts
	Verbosity int

	// ExcludeDirs extends the directory names skipped by package inference.
	ExcludeDirs []string
}

// Validate reports the first invalid field.
func (o Options) Validate() error {
	if strings.TrimSpace(o.Account) == "" {
		return ErrAccountRequired
	}
	if o.Verbosity < MinVerbosity || o.Verbosity > MaxVerbosity {
		return fmt.Errorf("%w: %d (must be %d-%d)", ErrInvalidVerbosity, o.Verbosity, MinVerbosity, MaxVerbosity)
	}
	return nil
}

// Interactive reports whether the run pauses for confirmation.
func (o Options) Interactive() bool {
	return o.Verbosity >= DefaultVerbosity && !o.AssumeYes && !o.DryRun
}

// MetadataPath returns the metadata file for pkg, relative to WorkDir unless
// the configured path is absolute.
func (o Options) MetadataPath(pkg string) string {
	p := o.MetadataFile
	if p == "" {
		p = DefaultMetadataFile
	}
	p = filepath.FromSlash(strings.ReplaceAll(p, PackagePlaceholder, pkg))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(o.dir(), p)
}

func (o Options) python() string {
	if o.Python == "" {
		return "python"
	}
	return o.Python
}

func (o Options) pip() string {
	if o.Pip == "" {
		return "pip"
	}
	return o.Pip
}

func (o Options) dir() string {
	if o.WorkDir == "" {
		return "."
	}
	return o.WorkDir
}
