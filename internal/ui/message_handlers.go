// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package ui

import (
	"carisbatch/internal/logger"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// --- Message Handlers ---
// These methods handle specific message types received by the model's Update function.

func handleWindowSizeMsg(m *model, msg tea.WindowSizeMsg) tea.Cmd {
	m.width = msg.Width
	m.height = msg.Height

	if !m.ready {
		m.viewport = viewport.New(m.width, 1)
		m.detailsViewport = viewport.New(m.width, 1)
		m.resultViewport = viewport.New(m.width, 1)
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.detailsViewport.Width = m.width
		m.resultViewport.Width = m.width
	}
	// Height is set in the views from the space the footer leaves.
	m.filter.Width = m.width - 6
	return nil
}

func handleToolFoundMsg(m *model, msg toolFoundMsg) {
	if msg.err != nil {
		m.toolErr = msg.err
		logger.Warn("carisbatch executable not found", "error", msg.err)
		return
	}
	m.tool = msg.tool
	m.toolErr = nil
	logger.Info("Found carisbatch executable", "path", msg.tool.Path, "source", msg.tool.Source)
}

func handleRunFinishedMsg(m *model, msg runFinishedMsg) tea.Cmd {
	if m.cancelRun != nil {
		m.cancelRun()
		m.cancelRun = nil
	}
	m.result = &msg
	m.currentState = stateRunResult
	m.resultViewport.SetContent(m.renderResultContent())
	m.resultViewport.GotoTop()
	return nil
}
