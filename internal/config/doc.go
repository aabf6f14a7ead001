// SPDX-License-Identifier: MPL-2.0

// Package config handles pyrelease configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/pyrelease/config.cue (or the XDG equivalent on Linux,
// ~/Library/Application Support/pyrelease/config.cue on macOS, %APPDATA%\pyrelease\config.cue
// on Windows), falling back to config.cue in the working directory. Every key can be
// overridden through a PYRELEASE_<KEY> environment variable.
//
// Files are validated against the embedded CUE schema (config_schema.cue) before being
// merged into Viper, so type errors are reported with the offending field path.
package config
