// SPDX-License-Identifier: MPL-2.0

package version

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

// maxMetadataBytes bounds how much of a metadata file is read (1 MB).
const maxMetadataBytes = 1 << 20

var (
	// ErrMetadataMissing is returned when the metadata file does not exist.
	ErrMetadataMissing = errors.New("metadata file not found")

	// ErrVersionNotFound is returned when the metadata file declares no version.
	ErrVersionNotFound = errors.New("version string not found")

	// initVersionPattern matches `__version__ = "x.y.z"` at the start of a line.
	// The operator must be space separated, as in the files this tool releases.
	initVersionPattern = regexp.MustCompile(`(?m)^__version__ = ['"]([^'"]*)['"]`)
)

type (
	// Declared is a version read from a metadata file along with where it came from.
	Declared struct {
		Version Version
		Raw     string // Literal value found in the file
		Path    string // Metadata file the value was read from
	}

	// pyproject is the subset of pyproject.toml that can carry a version.
	pyproject struct {
		Project struct {
			Version *string `toml:"version"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				Version *string `toml:"version"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
)

// ExtractFile reads the declared version from the metadata file at path.
// Files ending in .toml are treated as pyproject.toml; everything else is
// scanned for a `__version__ = "..."` line.
func ExtractFile(fsys afero.Fs, path string) (Declared, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Declared{}, fmt.Errorf("%w: %s", ErrMetadataMissing, path)
		}
		return Declared{}, fmt.Errorf("reading metadata file %s: %w", path, err)
	}
	if info.IsDir() {
		return Declared{}, fmt.Errorf("%w: %s is a directory", ErrMetadataMissing, path)
	}
	if info.Size() > maxMetadataBytes {
		return Declared{}, fmt.Errorf("metadata file %s exceeds %d bytes", path, maxMetadataBytes)
	}

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return Declared{}, fmt.Errorf("reading metadata file %s: %w", path, err)
	}

	var raw string
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		raw, err = ExtractPyproject(data)
	} else {
		raw, err = ExtractInit(data)
	}
	if err != nil {
		return Declared{}, fmt.Errorf("%s: %w", path, err)
	}

	v, err := Parse(raw)
	if err != nil {
		return Declared{}, fmt.Errorf("%s: %w", path, err)
	}

	return Declared{Version: v, Raw: raw, Path: path}, nil
}

// ExtractInit returns the value of the first `__version__ = "..."` line.
func ExtractInit(content []byte) (string, error) {
	m := initVersionPattern.FindSubmatch(content)
	if m == nil {
		return "", ErrVersionNotFound
	}
	return string(m[1]), nil
}

// ExtractPyproject returns project.version, falling back to tool.poetry.version.
func ExtractPyproject(content []byte) (string, error) {
	var doc pyproject
	if err := toml.Unmarshal(content, &doc); err != nil {
		return "", fmt.Errorf("parsing pyproject.toml: %w", err)
	}
	if doc.Project.Version != nil {
		return *doc.Project.Version, nil
	}
	if doc.Tool.Poetry.Version != nil {
		return *doc.Tool.Poetry.Version, nil
	}
	return "", ErrVersionNotFound
}
