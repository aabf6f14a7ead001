// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/spf13/afero"

	"github.com/pyrelease/pyrelease/internal/testutil"
)

// openFailFs fails Open for one path, after Stat has succeeded.
type openFailFs struct {
	afero.Fs
	failOn string
}

func (f openFailFs) Open(name string) (afero.File, error) {
	if filepath.Clean(name) == filepath.Clean(f.failOn) {
		return nil, os.ErrPermission
	}
	return f.Fs.Open(name)
}

func writeFiles(t *testing.T, fsys afero.Fs, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if err := afero.WriteFile(fsys, filepath.FromSlash(name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestZipDirectoryAndExtractBesideInput(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, map[string]string{
		"/data/results/a.csv":      "a,b\n1,2\n",
		"/data/results/sub/b.json": `{"ok":true}`,
	})

	zipped, err := Zip(fsys, "/data/results", "")
	if err != nil {
		t.Fatalf("Zip() error: %v", err)
	}
	if zipped.Path != filepath.FromSlash("/data/results.zip") {
		t.Errorf("Path = %q", zipped.Path)
	}
	slices.Sort(zipped.Files)
	if want := []string{"results/a.csv", "results/sub/b.json"}; !slices.Equal(zipped.Files, want) {
		t.Errorf("Files = %v, want %v", zipped.Files, want)
	}

	got, err := Extract(fsys, zipped.Path, TargetBesideInput)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if got.Dir != filepath.FromSlash("/data/tmp") {
		t.Errorf("Dir = %q", got.Dir)
	}
	if got.File != "results.zip" || got.FileClean != "results" || got.Path != zipped.Path {
		t.Errorf("result = %+v", got)
	}
	if len(got.ExtractedFiles) != 2 {
		t.Errorf("ExtractedFiles = %v", got.ExtractedFiles)
	}

	data, err := afero.ReadFile(fsys, filepath.FromSlash("/data/tmp/results/sub/b.json"))
	if err != nil {
		t.Fatalf("reading extracted file: %v", err)
	}
	if string(data) != `{"ok":true}` {
		t.Errorf("content = %q", data)
	}
}

func TestZipSingleFile(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, map[string]string{"/work/report.txt": "hello"})

	res, err := Zip(fsys, "/work/report.txt", "/out/report-archive.zip")
	if err != nil {
		t.Fatalf("Zip() error: %v", err)
	}
	if !slices.Equal(res.Files, []string{"report.txt"}) {
		t.Errorf("Files = %v", res.Files)
	}

	got, err := Extract(fsys, "/out/report-archive.zip", Target("/elsewhere"))
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if got.Dir != "/elsewhere" || got.FileClean != "report-archive" {
		t.Errorf("result = %+v", got)
	}
	if data, _ := afero.ReadFile(fsys, filepath.FromSlash("/elsewhere/report.txt")); string(data) != "hello" {
		t.Errorf("content = %q", data)
	}
}

func TestZipSkipsDestinationInsideSource(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, map[string]string{"/src/a.txt": "a"})

	res, err := Zip(fsys, "/src", "/src/self.zip")
	if err != nil {
		t.Fatalf("Zip() error: %v", err)
	}
	if !slices.Equal(res.Files, []string{"src/a.txt"}) {
		t.Errorf("Files = %v", res.Files)
	}
}

func TestZipInvalidPath(t *testing.T) {
	t.Parallel()

	if _, err := Zip(afero.NewMemMapFs(), "/missing", ""); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("err = %v, want ErrInvalidPath", err)
	}
}

func TestExtractInvalidInput(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	if _, err := Extract(fsys, "/missing.zip", TargetBesideInput); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("missing: err = %v, want ErrInvalidPath", err)
	}

	writeFiles(t, fsys, map[string]string{"/not-a-zip.zip": "plain text"})
	if _, err := Extract(fsys, "/not-a-zip.zip", TargetBesideInput); err == nil {
		t.Error("expected an error for a non-zip file")
	}
}

func TestExtractRejectsEscapingEntries(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"../evil.txt", "a/../../evil.txt", "/etc/evil"} {
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = w.Write([]byte("x"))
		if err := zw.Close(); err != nil {
			t.Fatal(err)
		}

		fsys := afero.NewMemMapFs()
		if err := afero.WriteFile(fsys, "/in/evil.zip", buf.Bytes(), 0o644); err != nil {
			t.Fatal(err)
		}

		if _, err := Extract(fsys, "/in/evil.zip", TargetBesideInput); !errors.Is(err, ErrUnsafeEntry) {
			t.Errorf("%q: err = %v, want ErrUnsafeEntry", name, err)
		}
		if ok, _ := afero.Exists(fsys, "/in/evil.txt"); ok {
			t.Errorf("%q: file written outside the target", name)
		}
	}
}

func TestTargetDir(t *testing.T) {
	t.Parallel()

	zipPath := filepath.FromSlash("/a/b/file.zip")
	tests := []struct {
		target Target
		want   string
	}{
		{TargetBesideInput, filepath.FromSlash("/a/b/tmp")},
		{"", filepath.FromSlash("/a/b/tmp")},
		{TargetSystemTemp, filepath.Join(os.TempDir(), "tmp")},
		{Target("/custom"), "/custom"},
	}
	for _, tt := range tests {
		if got := tt.target.Dir(zipPath); got != tt.want {
			t.Errorf("Target(%q).Dir() = %q, want %q", tt.target, got, tt.want)
		}
	}
}

func TestCleanName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"data.zip":        "data",
		"data.tar.gz.zip": "data",
		"archive":         "archive",
		".hidden.zip":     ".hidden",
	}
	for in, want := range tests {
		if got := cleanName(in); got != want {
			t.Errorf("cleanName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestZipCurrentDirectory(t *testing.T) {
	root := t.TempDir()
	proj := filepath.Join(root, "proj")
	if err := os.MkdirAll(proj, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(proj, "a.txt"), []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(testutil.MustChdir(t, proj))

	res, err := Zip(afero.NewOsFs(), ".", "")
	if err != nil {
		t.Fatalf("Zip() error: %v", err)
	}
	if filepath.Base(res.Path) != "proj.zip" {
		t.Errorf("Path = %q, want a proj.zip next to the directory", res.Path)
	}
	if _, err := os.Stat(filepath.Join(root, "proj.zip")); err != nil {
		t.Errorf("archive not written beside the directory: %v", err)
	}
	if _, err := os.Stat(filepath.Join(proj, ".zip")); err == nil {
		t.Error("hidden .zip written inside the directory")
	}
	if want := []string{"proj/a.txt"}; !slices.Equal(res.Files, want) {
		t.Errorf("Files = %v, want %v", res.Files, want)
	}
}

func TestZipRemovesPartialArchive(t *testing.T) {
	t.Parallel()

	mem := afero.NewMemMapFs()
	writeFiles(t, mem, map[string]string{
		"/src/a.txt": "a",
		"/src/b.txt": "b",
	})
	fsys := openFailFs{Fs: mem, failOn: "/src/b.txt"}

	if _, err := Zip(fsys, "/src", "/out/src.zip"); !errors.Is(err, os.ErrPermission) {
		t.Fatalf("Zip() error = %v, want ErrPermission", err)
	}
	if ok, _ := afero.Exists(mem, "/out/src.zip"); ok {
		t.Error("failed Zip left a partial archive")
	}
}

func TestDefaultZipPath(t *testing.T) {
	t.Parallel()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := DefaultZipPath("."), filepath.Join(filepath.Dir(wd), filepath.Base(wd)+".zip"); got != want {
		t.Errorf("dot: %q, want %q", got, want)
	}

	if got, want := DefaultZipPath(filepath.FromSlash("/x/report.txt")), filepath.FromSlash("/x/report.zip"); got != want {
		t.Errorf("file: %q, want %q", got, want)
	}
	if got, want := DefaultZipPath(filepath.FromSlash("/x/dir/")), filepath.FromSlash("/x/dir.zip"); got != want {
		t.Errorf("dir: %q, want %q", got, want)
	}
}
