// SPDX-License-Identifier: MPL-2.0

// Package runner executes external programs for the release steps and reports
// their outcome as a Result carrying the process exit code.
//
// Two runners are provided:
//   - native: os/exec, arguments passed verbatim; glob patterns expanded with filepath.Glob
//   - virtual: the mvdan/sh interpreter, which applies POSIX shell glob rules
//     the same way on every platform (including Windows, where cmd.exe does not glob)
package runner
