// SPDX-License-Identifier: MPL-2.0

package release

import (
	"fmt"

	"github.com/pyrelease/pyrelease/internal/runner"
	"github.com/pyrelease/pyrelease/internal/version"
)

// Step names, in plan order. StepPull runs before the remote lookup.
const (
	StepPull       = "git-pull"
	StepClean      = "clean"
	StepBuildWheel = "build-wheel"
	StepBuildSdist = "build-sdist"
	StepInstall    = "install"
	StepGitAdd     = "git-add"
	StepGitCommit  = "git-commit"
	StepGitTag     = "git-tag"
	StepGitPush    = "git-push"
	StepUpload     = "upload"
)

type (
	// Step is one unit of the release plan. Steps with a nil Command are
	// performed in-process (only StepClean today).
	Step struct {
		Name    string
		Command *runner.Command
		Paths   []string // Directories removed by StepClean
	}

	// StepError reports a failed step. ExitCode is set when the program ran
	// and exited non-zero; Err is set when it could not be run at all.
	StepError struct {
		Step     string
		ExitCode runner.ExitCode
		Err      error
	}

	// planInput is everything Plan needs to render the commands.
	planInput struct {
		opts     Options
		pkg      string
		version  version.Version
		uploader bool // Uploader configured and present
	}
)

// Error implements the error interface.
func (e *StepError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("step %s failed with exit code %d", e.Step, e.ExitCode)
}

// Unwrap returns the underlying start or execution error, if any.
func (e *StepError) Unwrap() error { return e.Err }

// WheelPath returns the wheel produced by bdist_wheel, relative to the project root.
func WheelPath(pkg string, v version.Version) string {
	return fmt.Sprintf("dist/%s-%s-py3-none-any.whl", pkg, v)
}

// pullStep updates the working copy before the remote version is looked up.
func pullStep(opts Options) Step {
	return Step{Name: StepPull, Command: &runner.Command{Path: "git", Args: []string{"pull"}, Dir: opts.WorkDir}}
}

// plan returns the build, tag and publish steps in execution order.
func plan(in planInput) []Step {
	dir := in.opts.WorkDir
	tag := in.version.Tag()
	cmd := func(path string, args ...string) *runner.Command {
		return &runner.Command{Path: path, Args: args, Dir: dir}
	}

	steps := make([]Step, 0, 9)
	if in.opts.Clean {
		steps = append(steps, Step{
			Name:  StepClean,
			Paths: []string{"dist", "build", in.pkg + ".egg-info"},
		})
	}

	steps = append(steps,
		Step{Name: StepBuildWheel, Command: cmd(in.opts.python(), "setup.py", "bdist_wheel")},
		Step{Name: StepBuildSdist, Command: cmd(in.opts.python(), "setup.py", "sdist")},
		Step{Name: StepInstall, Command: cmd(in.opts.pip(), "install", "-U", WheelPath(in.pkg, in.version))},
		Step{Name: StepGitAdd, Command: cmd("git", "add", ".")},
		Step{Name: StepGitCommit, Command: cmd("git", "commit", "-m", tag)},
		Step{Name: StepGitTag, Command: cmd("git", "tag", "-a", tag, "-m", tag)},
		Step{Name: StepGitPush, Command: cmd("git", "push", "origin", "--tags")},
	)

	if in.uploader {
		upload := cmd(in.opts.UploaderPath, "upload", "dist/*")
		upload.ExpandGlobs = true
		steps = append(steps, Step{Name: StepUpload, Command: upload})
	}

	return steps
}

// String renders the step for plan listings.
func (s Step) String() string {
	if s.Command != nil {
		return s.Command.String()
	}
	return fmt.Sprintf("remove %v", s.Paths)
}
