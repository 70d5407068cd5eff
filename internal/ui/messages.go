// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package ui

import (
	"carisbatch/batch"
	"carisbatch/internal/discovery"
)

type toolFoundMsg struct {
	tool discovery.Tool
	err  error
}

// runFinishedMsg carries the outcome of an operation started from the run
// form.
type runFinishedMsg struct {
	result batch.Result
}
