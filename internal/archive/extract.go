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

const (
	// TargetBesideInput extracts into a "tmp" directory next to the archive.
	TargetBesideInput Target = "input"
	// TargetSystemTemp extracts into a "tmp" directory under the OS temp dir.
	TargetSystemTemp Target = "temp"

	// scratchDirName is the directory created by the two named targets.
	scratchDirName = "tmp"

	// maxEntryBytes bounds the uncompressed size of a single entry (1 GB).
	maxEntryBytes = 1 << 30
)

// ErrUnsafeEntry is returned for entries that would be written outside the
// extraction directory.
var ErrUnsafeEntry = errors.New("archive entry escapes the extraction directory")

type (
	// Target selects where Extract writes. Values other than the named
	// constants are used as the destination directory itself.
	Target string

	// ExtractResult describes an extraction.
	ExtractResult struct {
		Dir            string   `json:"dir"`             // Directory extracted into
		File           string   `json:"file"`            // Archive file name
		FileClean      string   `json:"file_clean"`      // Archive file name up to its first dot
		Path           string   `json:"path"`            // Archive path as given
		ExtractedFiles []string `json:"extracted_files"` // Paths of the files written
	}
)

// Dir resolves the extraction directory for an archive at zipPath.
func (t Target) Dir(zipPath string) string {
	switch t {
	case TargetBesideInput, "":
		return filepath.Join(filepath.Dir(zipPath), scratchDirName)
	case TargetSystemTemp:
		return filepath.Join(os.TempDir(), scratchDirName)
	}
	return string(t)
}

// Extract unpacks the archive at zipPath into the directory selected by
// target, creating it when needed. Existing files are overwritten.
func Extract(fsys afero.Fs, zipPath string, target Target) (ExtractResult, error) {
	f, err := fsys.Open(zipPath)
	if err != nil {
		return ExtractResult{}, fmt.Errorf("%w: %s", ErrInvalidPath, zipPath)
	}
	defer func() { _ = f.Close() }() // read-only

	info, err := f.Stat()
	if err != nil {
		return ExtractResult{}, fmt.Errorf("reading %s: %w", zipPath, err)
	}
	if info.IsDir() {
		return ExtractResult{}, fmt.Errorf("%w: %s is a directory", ErrInvalidPath, zipPath)
	}

	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return ExtractResult{}, fmt.Errorf("opening archive %s: %w", zipPath, err)
	}

	dir := target.Dir(zipPath)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return ExtractResult{}, fmt.Errorf("creating %s: %w", dir, err)
	}

	name := filepath.Base(zipPath)
	result := ExtractResult{
		Dir:       dir,
		File:      name,
		FileClean: cleanName(name),
		Path:      zipPath,
	}

	for _, entry := range zr.File {
		dest, err := entryPath(dir, entry.Name)
		if err != nil {
			return ExtractResult{}, err
		}

		if entry.FileInfo().IsDir() {
			if err := fsys.MkdirAll(dest, 0o755); err != nil {
				return ExtractResult{}, fmt.Errorf("creating %s: %w", dest, err)
			}
			continue
		}

		if err := extractEntry(fsys, entry, dest); err != nil {
			return ExtractResult{}, err
		}
		result.ExtractedFiles = append(result.ExtractedFiles, dest)
	}

	return result, nil
}

// entryPath maps an entry name to a path under dir, rejecting absolute names
// and names that climb out of dir.
func entryPath(dir, name string) (string, error) {
	local := filepath.FromSlash(name)
	if filepath.IsAbs(local) || strings.HasPrefix(name, "/") || filepath.VolumeName(local) != "" {
		return "", fmt.Errorf("%w: %s", ErrUnsafeEntry, name)
	}
	dest := filepath.Join(dir, local)
	rel, err := filepath.Rel(dir, dest)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafeEntry, name)
	}
	return dest, nil
}

func extractEntry(fsys afero.Fs, entry *zip.File, dest string) (err error) {
	if err := fsys.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dest), err)
	}

	rc, err := entry.Open()
	if err != nil {
		return fmt.Errorf("opening entry %s: %w", entry.Name, err)
	}
	defer func() { _ = rc.Close() }() // read-only

	perm := entry.Mode().Perm()
	if perm == 0 {
		perm = 0o644
	}
	out, err := fsys.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	// Read one byte past the limit to tell "exactly at the limit" from "over it".
	n, err := io.Copy(out, io.LimitReader(rc, maxEntryBytes+1))
	if err != nil {
		return fmt.Errorf("extracting %s: %w", entry.Name, err)
	}
	if n > maxEntryBytes {
		return fmt.Errorf("extracting %s: entry exceeds %d bytes", entry.Name, int64(maxEntryBytes))
	}
	return nil
}

// cleanName returns name up to its first dot, ignoring a leading one.
func cleanName(name string) string {
	if len(name) < 2 {
		return name
	}
	if i := strings.IndexByte(name[1:], '.'); i >= 0 {
		return name[:i+1]
	}
	return name
}
