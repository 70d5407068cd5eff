// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package util

import "strings"

// QuoteArgForShell single-quotes an argument for a POSIX shell. A leading
// "~/" stays outside the quotes so the remote shell still expands it.
func QuoteArgForShell(arg string) string {
	prefix := ""
	if strings.HasPrefix(arg, "~/") {
		prefix, arg = "~/", arg[2:]
	}
	return prefix + `'` + strings.ReplaceAll(arg, "'", `'\''`) + `'`
}
