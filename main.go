// SPDX-License-Identifier: MPL-2.0

// Command pyrelease releases Python packages to GitHub and PyPI.
package main

import cmd "github.com/pyrelease/pyrelease/cmd/pyrelease"

func main() {
	cmd.Execute()
}
