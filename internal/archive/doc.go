// SPDX-License-Identifier: MPL-2.0

// Package archive creates zip archives from files or directory trees and
// extracts them into a scratch directory. All filesystem access goes through
// an afero.Fs.
package archive
