// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for pyrelease.
//
// Command handlers resolve flags, environment and the config file into a
// release.Options value at this boundary; the internal packages never read
// flags or global state.
package cmd
