// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package main

import (
	"os"

	"carisbatch/cmd/cli"
	"carisbatch/cmd/tui"
)

func main() {
	// With no arguments, run the TUI. Otherwise hand off to the CLI.
	if len(os.Args) <= 1 {
		tui.RunTUI()
	} else {
		cli.RunCLI()
	}
}
