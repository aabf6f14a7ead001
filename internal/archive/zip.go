// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ErrInvalidPath is returned when the source is neither a file nor a directory.
var ErrInvalidPath = errors.New("path is not a valid file or directory")

// ZipResult describes a created archive.
type ZipResult struct {
	Path  string   `json:"path"`  // Archive written
	Files []string `json:"files"` // Entry names, in write order
}

// DefaultZipPath returns the archive path used when no destination is given:
// src with its extension replaced by .zip, next to src. A src of "." or ".."
// is resolved first so the archive is named after the directory.
func DefaultZipPath(src string) string {
	clean, err := resolveSource(src)
	if err != nil {
		clean = filepath.Clean(src)
	}
	return strings.TrimSuffix(clean, filepath.Ext(clean)) + ".zip"
}

// resolveSource cleans src and makes it absolute when its last element is
// "." or "..", which carry no name.
func resolveSource(src string) (string, error) {
	clean := filepath.Clean(src)
	switch filepath.Base(clean) {
	case ".", "..":
		return filepath.Abs(clean)
	}
	return clean, nil
}

// Zip archives src, a file or a directory walked recursively, into dest.
// Entry names are slash separated and relative to the parent of src, so
// extracting the archive recreates src by name. An empty dest selects
// DefaultZipPath(src). A failed run leaves no archive behind.
func Zip(fsys afero.Fs, src, dest string) (_ ZipResult, err error) {
	src, err = resolveSource(src)
	if err != nil {
		return ZipResult{}, fmt.Errorf("%w: %w", ErrInvalidPath, err)
	}
	info, err := fsys.Stat(src)
	if err != nil || (!info.IsDir() && !info.Mode().IsRegular()) {
		return ZipResult{}, fmt.Errorf("%w: %s", ErrInvalidPath, src)
	}
	if dest == "" {
		dest = DefaultZipPath(src)
	}

	skip := dest
	if filepath.IsAbs(src) && !filepath.IsAbs(dest) {
		if abs, absErr := filepath.Abs(dest); absErr == nil {
			skip = abs
		}
	}
	files, err := collect(fsys, src, info, skip)
	if err != nil {
		return ZipResult{}, err
	}

	if dir := filepath.Dir(dest); dir != "" {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return ZipResult{}, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	out, err := fsys.Create(dest)
	if err != nil {
		return ZipResult{}, fmt.Errorf("creating archive: %w", err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if err != nil {
			_ = fsys.Remove(dest)
		}
	}()

	zw := zip.NewWriter(out)
	base := filepath.Dir(src)
	result := ZipResult{Path: dest}

	for _, path := range files {
		name, relErr := filepath.Rel(base, path)
		if relErr != nil {
			return ZipResult{}, fmt.Errorf("naming entry for %s: %w", path, relErr)
		}
		name = filepath.ToSlash(name)
		if err := addFile(fsys, zw, path, name); err != nil {
			return ZipResult{}, err
		}
		result.Files = append(result.Files, name)
	}

	if err := zw.Close(); err != nil {
		return ZipResult{}, fmt.Errorf("finalizing archive: %w", err)
	}
	return result, nil
}

// collect lists the regular files under src in walk order, skipping dest.
func collect(fsys afero.Fs, src string, info os.FileInfo, dest string) ([]string, error) {
	if !info.IsDir() {
		return []string{src}, nil
	}

	skip := filepath.Clean(dest)
	var files []string
	err := afero.Walk(fsys, src, func(path string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if fi.Mode().IsRegular() && filepath.Clean(path) != skip {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", src, err)
	}
	return files, nil
}

func addFile(fsys afero.Fs, zw *zip.Writer, path, name string) error {
	info, err := fsys.Stat(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("creating header for %s: %w", path, err)
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("adding %s: %w", name, err)
	}

	f, err := fsys.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }() // read-only

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}
