// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package ui

import (
	"context"
	"time"

	"carisbatch/batch"
	"carisbatch/internal/config"
	"carisbatch/internal/discovery"

	tea "github.com/charmbracelet/bubbletea"
)

// --- Bubble Tea Commands ---

func findToolCmd(cfg config.Config) tea.Cmd {
	return func() tea.Msg {
		tool, err := discovery.FindTool(cfg)
		return toolFoundMsg{tool: tool, err: err}
	}
}

// runOperationCmd runs op in the background. Cancelling ctx kills the
// process and yields a failed result.
func runOperationCmd(ctx context.Context, op *batch.Operation, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		return runFinishedMsg{result: op.Run(ctx, timeout)}
	}
}
