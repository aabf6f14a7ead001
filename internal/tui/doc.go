// SPDX-License-Identifier: MPL-2.0

// Package tui provides the interactive confirmation prompt used before the
// network lookup, the build and the upload. On a terminal it runs a Bubble Tea
// model; otherwise it falls back to an accessible line-based prompt.
package tui
