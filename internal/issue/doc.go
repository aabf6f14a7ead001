// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors for the CLI: an operation, the
// resource involved, remediation suggestions, and an optional link to a
// Markdown catalog entry rendered with glamour.
package issue
