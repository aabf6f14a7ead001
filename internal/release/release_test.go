// SPDX-License-Identifier: MPL-2.0

package release

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/pyrelease/pyrelease/internal/hosting"
	"github.com/pyrelease/pyrelease/internal/runner"
	"github.com/pyrelease/pyrelease/internal/version"
)

const projectDir = "/proj"

type (
	// recordingRunner records every command and fails the one named in failOn.
	recordingRunner struct {
		calls  []runner.Command
		failOn string // Command line prefix that exits non-zero
		code   runner.ExitCode
	}

	fixedRemote struct {
		lookup hosting.Lookup
		calls  int
	}

	scriptedPrompter struct {
		answers []bool
		titles  []string
	}
)

func (r *recordingRunner) Name() string { return "recording" }

func (r *recordingRunner) Run(_ context.Context, c runner.Command) *runner.Result {
	r.calls = append(r.calls, c)
	if r.failOn != "" && strings.HasPrefix(c.String(), r.failOn) {
		code := r.code
		if code == 0 {
			code = 1
		}
		return &runner.Result{ExitCode: code}
	}
	return &runner.Result{}
}

func (r *recordingRunner) lines() []string {
	out := make([]string, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, c.String())
	}
	return out
}

func (f *fixedRemote) LatestRelease(context.Context, string, string) hosting.Lookup {
	f.calls++
	return f.lookup
}

func (p *scriptedPrompter) Confirm(title string) (bool, error) {
	p.titles = append(p.titles, title)
	if len(p.answers) == 0 {
		return true, nil
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

// newProject lays out a minimal Python project with the given declared version.
func newProject(t *testing.T, declared string) afero.Fs {
	t.Helper()

	fsys := afero.NewMemMapFs()
	files := map[string]string{
		"setup.py":              "from setuptools import setup\n",
		"pca/__init__.py":       "from pca.pca import fit\n\n__version__ = '" + declared + "'\n",
		"docs/index.rst":        "docs\n",
		"dist/old.whl":          "",
		"build/lib/x.py":        "",
		"pca.egg-info/PKG-INFO": "",
	}
	for name, content := range files {
		if err := afero.WriteFile(fsys, filepath.Join(projectDir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := afero.WriteFile(fsys, "/usr/local/bin/twine", nil, 0o755); err != nil {
		t.Fatal(err)
	}
	return fsys
}

func baseOptions() Options {
	return Options{
		Account:      "erdogant",
		WorkDir:      projectDir,
		UploaderPath: "/usr/local/bin/twine",
		Clean:        true,
		Pull:         true,
		Verbosity:    DefaultVerbosity,
		AssumeYes:    true,
	}
}

func released(v string) hosting.Lookup {
	return hosting.Lookup{State: hosting.StateReleased, Version: version.MustParse(v), Tag: "v" + v}
}

func TestRun_StepsInheritInput(t *testing.T) {
	t.Parallel()

	in := strings.NewReader("pypi-user\n")
	r := &recordingRunner{}
	o := New(r, &fixedRemote{lookup: released("1.1.9")}, WithFs(newProject(t, "1.2.0")), WithInput(in))
	if _, err := o.Run(context.Background(), baseOptions()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(r.calls) == 0 {
		t.Fatal("no steps ran")
	}
	for _, c := range r.calls {
		if c.Stdin != in {
			t.Errorf("%s: Stdin = %v, want the orchestrator input", c.String(), c.Stdin)
		}
	}
}

func TestRun_NewerVersionRunsEveryStepOnceInOrder(t *testing.T) {
	t.Parallel()

	fsys := newProject(t, "1.2.0")
	rec := &recordingRunner{}
	remote := &fixedRemote{lookup: released("1.1.9")}

	report, err := New(rec, remote, WithFs(fsys)).Run(context.Background(), baseOptions())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !report.Proceed {
		t.Fatalf("Proceed = false: %s", report.Reason)
	}

	want := []string{
		"git pull",
		"python setup.py bdist_wheel",
		"python setup.py sdist",
		"pip install -U dist/pca-1.2.0-py3-none-any.whl",
		"git add .",
		"git commit -m v1.2.0",
		"git tag -a v1.2.0 -m v1.2.0",
		"git push origin --tags",
		"/usr/local/bin/twine upload dist/*",
	}
	if got := rec.lines(); !slices.Equal(got, want) {
		t.Errorf("commands =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}

	wantSteps := []string{StepClean, StepBuildWheel, StepBuildSdist, StepInstall, StepGitAdd, StepGitCommit, StepGitTag, StepGitPush, StepUpload}
	if !slices.Equal(report.Completed, wantSteps) {
		t.Errorf("Completed = %v, want %v", report.Completed, wantSteps)
	}

	for _, dir := range []string{"dist", "build", "pca.egg-info"} {
		if ok, _ := afero.DirExists(fsys, filepath.Join(projectDir, dir)); ok {
			t.Errorf("%s was not cleaned", dir)
		}
	}
	if !rec.calls[len(rec.calls)-1].ExpandGlobs {
		t.Error("upload should expand dist/*")
	}
	if rec.calls[1].Dir != projectDir {
		t.Errorf("Dir = %q, want %q", rec.calls[1].Dir, projectDir)
	}
	if remote.calls != 1 {
		t.Errorf("remote queried %d times, want 1", remote.calls)
	}
}

func TestRun_EqualVersionDoesNotRelease(t *testing.T) {
	t.Parallel()

	rec := &recordingRunner{}
	report, err := New(rec, &fixedRemote{lookup: released("1.1.9")}, WithFs(newProject(t, "1.1.9"))).
		Run(context.Background(), baseOptions())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if report.Proceed {
		t.Fatal("equal versions must not proceed")
	}
	if !report.Decision().Warn || !strings.Contains(report.Reason, "increase your version") {
		t.Errorf("Reason = %q, want an increase-your-version warning", report.Reason)
	}
	if got := rec.lines(); !slices.Equal(got, []string{"git pull"}) {
		t.Errorf("commands = %v, want only git pull", got)
	}
}

func TestRun_NoReleasesProceeds(t *testing.T) {
	t.Parallel()

	rec := &recordingRunner{}
	report, err := New(rec, &fixedRemote{lookup: hosting.Lookup{State: hosting.StateNoReleases}}, WithFs(newProject(t, "0.0.1"))).
		Run(context.Background(), baseOptions())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !report.Proceed || !report.Decision().FirstRelease {
		t.Fatalf("report = %+v, want first release", report)
	}
	if len(report.Completed) == 0 {
		t.Error("no steps ran")
	}
}

func TestRun_UnreachableDoesNotRelease(t *testing.T) {
	t.Parallel()

	for _, lookup := range []hosting.Lookup{
		{State: hosting.StateUnreachable, Err: hosting.ErrRepositoryNotFound},
		{State: hosting.StateMalformed, Err: hosting.ErrMalformedResponse},
	} {
		rec := &recordingRunner{}
		report, err := New(rec, &fixedRemote{lookup: lookup}, WithFs(newProject(t, "9.0.0"))).
			Run(context.Background(), baseOptions())
		if err != nil {
			t.Fatalf("%s: Run() error: %v", lookup.State, err)
		}
		if report.Proceed {
			t.Errorf("%s: must not proceed", lookup.State)
		}
		if report.Remote.State != lookup.State || report.Remote.Error == "" {
			t.Errorf("%s: Remote = %+v", lookup.State, report.Remote)
		}
		if len(rec.calls) != 1 {
			t.Errorf("%s: commands = %v, want only git pull", lookup.State, rec.lines())
		}
	}
}

func TestRun_PullFailureIsFatal(t *testing.T) {
	t.Parallel()

	rec := &recordingRunner{failOn: "git pull"}
	remote := &fixedRemote{lookup: released("1.0.0")}
	_, err := New(rec, remote, WithFs(newProject(t, "2.0.0"))).Run(context.Background(), baseOptions())

	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Step != StepPull {
		t.Fatalf("err = %v, want StepError for %s", err, StepPull)
	}
	if remote.calls != 0 {
		t.Error("remote must not be queried after a failed pull")
	}
}

func TestRun_StepFailureStopsSequence(t *testing.T) {
	t.Parallel()

	rec := &recordingRunner{failOn: "git commit", code: 128}
	report, err := New(rec, &fixedRemote{lookup: released("1.0.0")}, WithFs(newProject(t, "1.0.1"))).
		Run(context.Background(), baseOptions())

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("err = %v, want *StepError", err)
	}
	if stepErr.Step != StepGitCommit || stepErr.ExitCode != 128 {
		t.Errorf("StepError = %+v", stepErr)
	}
	if last := rec.lines()[len(rec.calls)-1]; last != "git commit -m v1.0.1" {
		t.Errorf("last command = %q, later steps must not run", last)
	}
	if slices.Contains(report.Completed, StepGitTag) {
		t.Error("git-tag recorded as completed after a failed commit")
	}
}

func TestRun_StartFailureIsStepError(t *testing.T) {
	t.Parallel()

	boom := errors.New("exec: \"python\": executable file not found in $PATH")
	r := runnerFunc(func(c runner.Command) *runner.Result {
		if c.Path == "python" {
			return &runner.Result{ExitCode: 1, Error: boom}
		}
		return &runner.Result{}
	})

	_, err := New(r, &fixedRemote{lookup: released("1.0.0")}, WithFs(newProject(t, "1.0.1"))).
		Run(context.Background(), baseOptions())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped start error", err)
	}
}

func TestRun_UploaderMissingSkipsUpload(t *testing.T) {
	t.Parallel()

	opts := baseOptions()
	opts.UploaderPath = "/nowhere/twine.exe"
	rec := &recordingRunner{}
	report, err := New(rec, &fixedRemote{lookup: released("1.0.0")}, WithFs(newProject(t, "1.0.1")),
		WithLookPath(func(string) (string, error) { return "", errors.New("not found") })).
		Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if slices.Contains(report.Completed, StepUpload) {
		t.Error("upload ran without an uploader")
	}
	if !slices.Equal(report.Skipped, []string{StepUpload}) {
		t.Errorf("Skipped = %v", report.Skipped)
	}
}

func TestRun_UploaderResolvedOnPath(t *testing.T) {
	t.Parallel()

	opts := baseOptions()
	opts.UploaderPath = "twine"
	rec := &recordingRunner{}
	report, err := New(rec, &fixedRemote{lookup: released("1.0.0")}, WithFs(newProject(t, "1.0.1")),
		WithLookPath(func(string) (string, error) { return "/usr/bin/twine", nil })).
		Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !slices.Contains(report.Completed, StepUpload) {
		t.Errorf("Completed = %v, want upload", report.Completed)
	}
}

func TestRun_NoCleanKeepsBuildDirectories(t *testing.T) {
	t.Parallel()

	fsys := newProject(t, "1.0.1")
	opts := baseOptions()
	opts.Clean = false
	opts.Pull = false

	rec := &recordingRunner{}
	report, err := New(rec, &fixedRemote{lookup: released("1.0.0")}, WithFs(fsys)).Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if slices.Contains(report.Completed, StepClean) {
		t.Error("clean ran with Clean=false")
	}
	if ok, _ := afero.DirExists(fsys, filepath.Join(projectDir, "dist")); !ok {
		t.Error("dist was removed with Clean=false")
	}
	if rec.lines()[0] == "git pull" {
		t.Error("git pull ran with Pull=false")
	}
}

func TestRun_DryRunExecutesNothing(t *testing.T) {
	t.Parallel()

	fsys := newProject(t, "1.2.0")
	opts := baseOptions()
	opts.DryRun = true

	rec := &recordingRunner{}
	report, err := New(rec, &fixedRemote{lookup: released("1.1.9")}, WithFs(fsys)).Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("dry run executed %v", rec.lines())
	}
	if len(report.Planned) != 10 {
		t.Errorf("Planned = %v, want pull plus nine steps", report.Planned)
	}
	if ok, _ := afero.DirExists(fsys, filepath.Join(projectDir, "dist")); !ok {
		t.Error("dry run removed dist")
	}
}

func TestRun_DeclinedPromptAborts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		answers  []bool
		wantRuns int
	}{
		{"before lookup", []bool{false}, 0},
		{"before build", []bool{true, false}, 1},
		{"before upload", []bool{true, true, false}, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := baseOptions()
			opts.AssumeYes = false
			rec := &recordingRunner{}
			prompter := &scriptedPrompter{answers: tt.answers}

			_, err := New(rec, &fixedRemote{lookup: released("1.1.9")}, WithFs(newProject(t, "1.2.0")), WithPrompter(prompter)).
				Run(context.Background(), opts)
			if !errors.Is(err, ErrAborted) {
				t.Fatalf("err = %v, want ErrAborted", err)
			}
			if len(rec.calls) != tt.wantRuns {
				t.Errorf("ran %d commands (%v), want %d", len(rec.calls), rec.lines(), tt.wantRuns)
			}
		})
	}
}

func TestRun_QuietVerbosityDoesNotPrompt(t *testing.T) {
	t.Parallel()

	opts := baseOptions()
	opts.AssumeYes = false
	opts.Verbosity = 2
	prompter := &scriptedPrompter{answers: []bool{false}}

	if _, err := New(&recordingRunner{}, &fixedRemote{lookup: released("1.1.9")}, WithFs(newProject(t, "1.2.0")), WithPrompter(prompter)).
		Run(context.Background(), opts); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(prompter.titles) != 0 {
		t.Errorf("prompted %v at verbosity 2", prompter.titles)
	}
}

func TestRun_MetadataErrors(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, projectDir+"/pca/__init__.py", []byte("VERSION = '1.0.0'\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := New(&recordingRunner{}, &fixedRemote{}, WithFs(fsys)).Run(context.Background(), baseOptions())
	if !errors.Is(err, version.ErrVersionNotFound) {
		t.Errorf("err = %v, want ErrVersionNotFound", err)
	}

	opts := baseOptions()
	opts.Package = "missing"
	_, err = New(&recordingRunner{}, &fixedRemote{}, WithFs(fsys)).Run(context.Background(), opts)
	if !errors.Is(err, version.ErrMetadataMissing) {
		t.Errorf("err = %v, want ErrMetadataMissing", err)
	}
}

func TestCheck_DoesNotPullOrRun(t *testing.T) {
	t.Parallel()

	rec := &recordingRunner{}
	report, err := New(rec, &fixedRemote{lookup: released("1.1.9")}, WithFs(newProject(t, "1.2.0"))).
		Check(context.Background(), baseOptions())
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if !report.Proceed || report.Remote.Version != "1.1.9" || report.Local.String() != "1.2.0" {
		t.Errorf("report = %+v", report)
	}
	if len(rec.calls) != 0 {
		t.Errorf("check executed %v", rec.lines())
	}
}

func TestOptionsValidate(t *testing.T) {
	t.Parallel()

	opts := baseOptions()
	opts.Account = " "
	if err := opts.Validate(); !errors.Is(err, ErrAccountRequired) {
		t.Errorf("blank account: %v", err)
	}

	opts = baseOptions()
	opts.Verbosity = 6
	if err := opts.Validate(); !errors.Is(err, ErrInvalidVerbosity) {
		t.Errorf("verbosity 6: %v", err)
	}
}

func TestOptionsMetadataPath(t *testing.T) {
	t.Parallel()

	opts := Options{WorkDir: projectDir}
	if got, want := opts.MetadataPath("pca"), filepath.Join(projectDir, "pca", "__init__.py"); got != want {
		t.Errorf("default = %q, want %q", got, want)
	}

	opts.MetadataFile = "pyproject.toml"
	if got, want := opts.MetadataPath("pca"), filepath.Join(projectDir, "pyproject.toml"); got != want {
		t.Errorf("pyproject = %q, want %q", got, want)
	}

	opts.MetadataFile = "src/{package}/_version.py"
	if got, want := opts.MetadataPath("pca"), filepath.Join(projectDir, "src", "pca", "_version.py"); got != want {
		t.Errorf("placeholder = %q, want %q", got, want)
	}
}

type runnerFunc func(runner.Command) *runner.Result

func (f runnerFunc) Name() string { return "func" }

func (f runnerFunc) Run(_ context.Context, c runner.Command) *runner.Result { return f(c) }
