// SPDX-License-Identifier: MPL-2.0

// Package version parses and orders dotted-triple release versions and reads
// the declared version out of a Python package's metadata file.
//
// The package is organized into two concerns:
//   - version.go: the Version type, parsing, and semantic-version ordering
//   - extract.go: reading __version__ from __init__.py or project.version from pyproject.toml
package version
