// SPDX-License-Identifier: MPL-2.0

// Package hosting queries the GitHub REST API for the latest published
// release of a repository.
//
// A lookup has exactly one of four outcomes (see State): a released version,
// a reachable repository without releases, an unreachable repository, or a
// response that could not be understood. Callers branch on the State rather
// than on errors; Lookup.Err carries the diagnostic cause when there is one.
package hosting
