// SPDX-License-Identifier: MPL-2.0

package release

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
)

// ErrPackageNotFound is returned when no package directory can be inferred.
var ErrPackageNotFound = errors.New("no package directory found")

// DefaultExcludeDirs are directory names (compared case-insensitively) that
// never hold the package being released.
var DefaultExcludeDirs = []string{
	"depricated",
	"__pycache__",
	"_version",
	".git",
	".gitignore",
	"build",
	"dist",
	"docs",
}

// InferPackage returns the first subdirectory of dir, in name order, that is
// neither excluded nor an .egg-info directory.
func InferPackage(fsys afero.Fs, dir string, extraExcludes []string) (string, error) {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return "", fmt.Errorf("listing %s: %w", dir, err)
	}

	excluded := make(map[string]struct{}, len(DefaultExcludeDirs)+len(extraExcludes))
	for _, name := range DefaultExcludeDirs {
		excluded[strings.ToLower(name)] = struct{}{}
	}
	for _, name := range extraExcludes {
		excluded[strings.ToLower(name)] = struct{}{}
	}

	// afero.ReadDir sorts by name.
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		if _, skip := excluded[name]; skip {
			continue
		}
		if strings.HasSuffix(name, ".egg-info") {
			continue
		}
		return e.Name(), nil
	}

	return "", fmt.Errorf("%w in %s", ErrPackageNotFound, dir)
}
