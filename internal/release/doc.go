// SPDX-License-Identifier: MPL-2.0

// Package release decides whether a Python package is ready to be released and
// drives the build, tag and publish steps.
//
// The flow is linear: infer the package directory, read the declared version,
// pull, look up the latest published release, decide, then run the step plan
// in order and stop at the first failure. External programs run through a
// runner.Runner so tests can substitute a recording fake.
package release
