// SPDX-License-Identifier: MPL-2.0

// Package testutil provides test helpers that fail the test on error:
// environment variables (MustSetenv, MustUnsetenv, SetHomeDir), the working
// directory (MustChdir) and fixture files (MustWriteFile).
package testutil
