// SPDX-License-Identifier: MPL-2.0

package release

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/pyrelease/pyrelease/internal/hosting"
	"github.com/pyrelease/pyrelease/internal/runner"
	"github.com/pyrelease/pyrelease/internal/version"
)

// ErrAborted is returned when the user declines a confirmation prompt.
var ErrAborted = errors.New("aborted by user")

type (
	// Remote looks up the latest published release of a repository.
	Remote interface {
		LatestRelease(ctx context.Context, owner, repo string) hosting.Lookup
	}

	// Prompter asks the user a yes/no question.
	Prompter interface {
		Confirm(title string) (bool, error)
	}

	// Orchestrator runs a release against a project directory.
	Orchestrator struct {
		fs       afero.Fs
		runner   runner.Runner
		remote   Remote
		prompter Prompter
		logger   *log.Logger
		stdin    io.Reader
		stdout   io.Writer
		stderr   io.Writer
		lookPath func(string) (string, error)
	}

	// Option configures an Orchestrator.
	Option func(*Orchestrator)

	// Report describes what a run found and did.
	Report struct {
		Account      string          `json:"account" yaml:"account"`
		Package      string          `json:"package" yaml:"package"`
		MetadataFile string          `json:"metadata_file" yaml:"metadata_file"`
		Local        version.Version `json:"local_version" yaml:"local_version"`
		Remote       RemoteReport    `json:"remote" yaml:"remote"`
		Proceed      bool            `json:"proceed" yaml:"proceed"`
		Reason       string          `json:"reason" yaml:"reason"`
		DryRun       bool            `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
		Planned      []string        `json:"planned,omitempty" yaml:"planned,omitempty"`
		Completed    []string        `json:"completed,omitempty" yaml:"completed,omitempty"`
		Skipped      []string        `json:"skipped,omitempty" yaml:"skipped,omitempty"`

		decision Decision
	}

	// RemoteReport is the serializable view of a hosting.Lookup.
	RemoteReport struct {
		State   hosting.State `json:"state" yaml:"state"`
		Version string        `json:"version,omitempty" yaml:"version,omitempty"`
		Tag     string        `json:"tag,omitempty" yaml:"tag,omitempty"`
		URL     string        `json:"url,omitempty" yaml:"url,omitempty"`
		Error   string        `json:"error,omitempty" yaml:"error,omitempty"`
	}
)

// WithFs sets the filesystem used for package inference, metadata and cleanup.
func WithFs(fsys afero.Fs) Option {
	return func(o *Orchestrator) { o.fs = fsys }
}

// WithPrompter sets the confirmation prompter. Without one, every prompt is
// answered yes.
func WithPrompter(p Prompter) Option {
	return func(o *Orchestrator) { o.prompter = p }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithOutput sets where step programs write their output.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(o *Orchestrator) {
		o.stdout = stdout
		o.stderr = stderr
	}
}

// WithInput sets the input step programs read, so interactive tools such as
// an uploader asking for credentials share the user's terminal.
func WithInput(stdin io.Reader) Option {
	return func(o *Orchestrator) { o.stdin = stdin }
}

// WithLookPath overrides how a bare uploader name is resolved on PATH.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(o *Orchestrator) { o.lookPath = fn }
}

// New creates an Orchestrator that runs steps with r and queries remote.
func New(r runner.Runner, remote Remote, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fs:       afero.NewOsFs(),
		runner:   r,
		remote:   remote,
		logger:   log.New(io.Discard),
		stdout:   io.Discard,
		stderr:   io.Discard,
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Decision returns the release decision recorded in the report.
func (r *Report) Decision() Decision { return r.decision }

// Check resolves the package, reads the local version and decides whether a
// release would proceed. Nothing is pulled or executed.
func (o *Orchestrator) Check(ctx context.Context, opts Options) (*Report, error) {
	report, err := o.prepare(opts)
	if err != nil {
		return nil, err
	}
	o.lookup(ctx, opts, report)
	return report, nil
}

// Run performs a full release. A nil error with Report.Proceed false means
// there was nothing to release; the reason has been logged as a warning.
//
// Flow:
//  1. Resolve the package and read its declared version.
//  2. git pull (when enabled), then look up the latest published release.
//  3. Decide; stop here unless the local version is newer or nothing is released.
//  4. Run clean, build, install, commit, tag and push, stopping at the first failure.
//  5. Upload the built distributions when an uploader is available.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Report, error) {
	report, err := o.prepare(opts)
	if err != nil {
		return nil, err
	}
	report.DryRun = opts.DryRun

	if err := o.confirm(opts, "Get the version from "+report.MetadataFile+" and GitHub?"); err != nil {
		return report, err
	}

	if opts.Pull {
		if opts.DryRun {
			report.Planned = append(report.Planned, pullStep(opts).String())
		} else if err := o.execute(ctx, opts, pullStep(opts)); err != nil {
			return report, err
		}
	}

	decision := o.lookup(ctx, opts, report)
	if !decision.Proceed {
		if decision.Warn {
			o.logger.Warn(decision.Reason, "metadata", report.MetadataFile)
		} else {
			o.logger.Info(decision.Reason)
		}
		return report, nil
	}
	o.logger.Info(decision.Reason)

	uploader := o.uploaderAvailable(opts.UploaderPath)
	steps := plan(planInput{opts: opts, pkg: report.Package, version: report.Local, uploader: uploader})
	if !uploader {
		report.Skipped = append(report.Skipped, StepUpload)
	}

	if opts.DryRun {
		for _, s := range steps {
			report.Planned = append(report.Planned, s.String())
			o.logger.Info("would run", "step", s.Name, "cmd", s.String())
		}
		return report, nil
	}

	if err := o.confirm(opts, fmt.Sprintf("Build and tag %s %s on GitHub?", report.Package, report.Local.Tag())); err != nil {
		return report, err
	}

	for _, s := range steps {
		if s.Name == StepUpload {
			if err := o.confirm(opts, "Upload the distributions to the package index?"); err != nil {
				return report, err
			}
		}
		if err := o.execute(ctx, opts, s); err != nil {
			return report, err
		}
		report.Completed = append(report.Completed, s.Name)

		if s.Name == StepGitPush {
			o.logger.Warn("set the release title on GitHub: edit the tag of the most recent release and enter the version as its title",
				"tag", report.Local.Tag())
		}
	}

	return report, nil
}

// prepare validates opts, infers the package and reads the declared version.
func (o *Orchestrator) prepare(opts Options) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	pkg := opts.Package
	if pkg == "" {
		o.logger.Debug("inferring package from directory", "dir", opts.dir())
		inferred, err := InferPackage(o.fs, opts.dir(), opts.ExcludeDirs)
		if err != nil {
			return nil, err
		}
		pkg = inferred
	}

	metadata := opts.MetadataPath(pkg)
	o.logger.Info("working on package", "package", pkg, "metadata", metadata)

	declared, err := version.ExtractFile(o.fs, metadata)
	if err != nil {
		return nil, err
	}
	o.logger.Info("local version", "version", declared.Version)

	return &Report{
		Account:      opts.Account,
		Package:      pkg,
		MetadataFile: metadata,
		Local:        declared.Version,
	}, nil
}

// lookup queries the remote, records the outcome and decision in report, and
// returns the decision.
func (o *Orchestrator) lookup(ctx context.Context, opts Options, report *Report) Decision {
	o.logger.Debug("looking up latest release", "account", opts.Account, "repo", report.Package)
	res := o.remote.LatestRelease(ctx, opts.Account, report.Package)
	o.logger.Info("remote version", "lookup", res.String(), "url", res.URL)

	report.Remote = RemoteReport{State: res.State, Tag: res.Tag, URL: res.URL}
	if res.State == hosting.StateReleased {
		report.Remote.Version = res.Version.String()
	}
	if res.Err != nil {
		report.Remote.Error = res.Err.Error()
	}

	report.decision = Decide(report.Local, res)
	report.Proceed = report.decision.Proceed
	report.Reason = report.decision.Reason
	return report.decision
}

// execute runs one step and converts its outcome into a *StepError.
func (o *Orchestrator) execute(ctx context.Context, opts Options, s Step) error {
	o.logger.Info("running step", "step", s.Name)

	if s.Command == nil {
		return o.clean(opts, s)
	}

	c := *s.Command
	if c.Stdin == nil {
		c.Stdin = o.stdin
	}
	if c.Stdout == nil {
		c.Stdout = o.stdout
	}
	if c.Stderr == nil {
		c.Stderr = o.stderr
	}

	o.logger.Debug("exec", "cmd", c.String())
	res := o.runner.Run(ctx, c)
	switch {
	case res == nil:
		return &StepError{Step: s.Name, ExitCode: 1, Err: errors.New("runner returned no result")}
	case res.Error != nil:
		return &StepError{Step: s.Name, ExitCode: res.ExitCode, Err: res.Error}
	case !res.ExitCode.IsSuccess():
		return &StepError{Step: s.Name, ExitCode: res.ExitCode}
	}
	return nil
}

// clean removes the build directories listed in s.Paths.
func (o *Orchestrator) clean(opts Options, s Step) error {
	for _, p := range s.Paths {
		target := filepath.Join(opts.dir(), p)
		if _, err := o.fs.Stat(target); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		o.logger.Debug("removing", "path", target)
		if err := o.fs.RemoveAll(target); err != nil {
			return &StepError{Step: s.Name, ExitCode: 1, Err: fmt.Errorf("removing %s: %w", target, err)}
		}
	}
	return nil
}

// confirm asks the prompter when the run is interactive.
func (o *Orchestrator) confirm(opts Options, title string) error {
	if !opts.Interactive() || o.prompter == nil {
		return nil
	}
	ok, err := o.prompter.Confirm(title)
	if err != nil {
		return fmt.Errorf("confirmation prompt: %w", err)
	}
	if !ok {
		return ErrAborted
	}
	return nil
}

// uploaderAvailable reports whether path names an existing uploader. A bare
// program name is looked up on PATH.
func (o *Orchestrator) uploaderAvailable(path string) bool {
	if path == "" {
		o.logger.Info("no uploader configured; skipping upload")
		return false
	}
	if info, err := o.fs.Stat(path); err == nil && !info.IsDir() {
		return true
	}
	if !strings.ContainsAny(path, `/\`) && o.lookPath != nil {
		if _, err := o.lookPath(path); err == nil {
			return true
		}
	}
	o.logger.Warn("uploader not found; skipping upload", "path", path)
	return false
}
