// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package ui

import (
	"context"

	"carisbatch/internal/logger"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// --- Key Handlers ---

func (m *model) handleOperationListKeys(msg tea.KeyMsg) []tea.Cmd {
	var cmds []tea.Cmd
	page := m.viewport.Height
	if page < 1 {
		page = 10
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		cmds = append(cmds, tea.Quit)
	case key.Matches(msg, m.keymap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keymap.Down):
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keymap.PgUp):
		m.cursor = max(m.cursor-page, 0)
	case key.Matches(msg, m.keymap.PgDown):
		m.cursor = max(min(m.cursor+page, len(m.visible)-1), 0)
	case key.Matches(msg, m.keymap.Home):
		m.cursor = 0
	case key.Matches(msg, m.keymap.End):
		m.cursor = max(len(m.visible)-1, 0)
	case key.Matches(msg, m.keymap.Filter):
		m.currentState = stateFiltering
		cmds = append(cmds, m.filter.Focus())
	case key.Matches(msg, m.keymap.NextGroup):
		m.groupIndex = (m.groupIndex + 1) % len(m.groups)
		m.cursor = 0
		m.applyFilter()
	case key.Matches(msg, m.keymap.Esc):
		if m.filter.Value() != "" {
			m.filter.SetValue("")
			m.applyFilter()
		}
	case key.Matches(msg, m.keymap.Enter):
		if d := m.current(); d != nil {
			m.openDetails()
		}
	case key.Matches(msg, m.keymap.Run):
		if d := m.current(); d != nil {
			m.selected = d
			cmds = append(cmds, m.openRunForm())
		}
	}
	return cmds
}

func (m *model) handleFilterKeys(msg tea.KeyMsg) []tea.Cmd {
	var cmds []tea.Cmd

	switch {
	case key.Matches(msg, m.keymap.Enter):
		m.filter.Blur()
		m.currentState = stateOperationList
		return cmds
	case key.Matches(msg, m.keymap.Esc):
		m.filter.SetValue("")
		m.filter.Blur()
		m.currentState = stateOperationList
		m.applyFilter()
		return cmds
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	cmds = append(cmds, cmd)
	return cmds
}

func (m *model) handleOperationDetailsKeys(msg tea.KeyMsg) []tea.Cmd {
	var cmds []tea.Cmd

	switch {
	case key.Matches(msg, m.keymap.Quit):
		cmds = append(cmds, tea.Quit)
	case key.Matches(msg, m.keymap.Back):
		m.currentState = stateOperationList
	case key.Matches(msg, m.keymap.Run):
		cmds = append(cmds, m.openRunForm())
	default:
		var cmd tea.Cmd
		m.detailsViewport, cmd = m.detailsViewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return cmds
}

func (m *model) handleRunFormKeys(msg tea.KeyMsg) []tea.Cmd {
	var cmds []tea.Cmd

	switch {
	case key.Matches(msg, m.keymap.Esc):
		m.formError = nil
		m.openDetails()
		return cmds
	case key.Matches(msg, m.keymap.Tab):
		m.formFocusIndex = (m.formFocusIndex + 1) % fieldCount
		m.formError = nil
	case key.Matches(msg, m.keymap.ShiftTab):
		m.formFocusIndex = (m.formFocusIndex - 1 + fieldCount) % fieldCount
		m.formError = nil
	case key.Matches(msg, m.keymap.Enter):
		m.formError = nil
		op, timeout, err := m.buildOperationFromForm()
		if err != nil {
			m.formError = err
			return cmds
		}
		line, _ := op.CommandLine()
		ctx, cancel := context.WithCancel(context.Background())
		m.cancelRun = cancel
		m.runLine = line
		m.runHost = m.formInputs[fieldHost].Value()
		m.result = nil
		m.currentState = stateRunningOperation
		logger.Info("Running operation from TUI", "operation", op.String(), "host", m.runHost)
		cmds = append(cmds, runOperationCmd(ctx, op, timeout), m.spinner.Tick)
		return cmds
	default:
		var cmd tea.Cmd
		m.formInputs[m.formFocusIndex], cmd = m.formInputs[m.formFocusIndex].Update(msg)
		cmds = append(cmds, cmd)
		return cmds
	}

	// --- Update Input Focus Styles ---
	for i := range m.formInputs {
		m.formInputs[i].Blur()
		m.formInputs[i].Prompt = "  "
		m.formInputs[i].TextStyle = lipgloss.NewStyle()
	}
	cmds = append(cmds, m.formInputs[m.formFocusIndex].Focus())
	m.formInputs[m.formFocusIndex].Prompt = cursorStyle.Render("> ")
	m.formInputs[m.formFocusIndex].TextStyle = cursorStyle
	return cmds
}

func (m *model) handleRunningKeys(msg tea.KeyMsg) []tea.Cmd {
	if key.Matches(msg, m.keymap.Esc) && m.cancelRun != nil {
		logger.Info("Cancelling operation from TUI", "command", m.runLine)
		m.cancelRun()
	}
	return nil
}

func (m *model) handleRunResultKeys(msg tea.KeyMsg) []tea.Cmd {
	var cmds []tea.Cmd

	switch {
	case key.Matches(msg, m.keymap.Quit):
		cmds = append(cmds, tea.Quit)
	case key.Matches(msg, m.keymap.Back):
		m.currentState = stateRunForm
	case key.Matches(msg, m.keymap.Enter):
		m.openDetails()
	default:
		var cmd tea.Cmd
		m.resultViewport, cmd = m.resultViewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return cmds
}

// openDetails shows the operation under the cursor, or the one already
// selected when coming back from the run form.
func (m *model) openDetails() {
	if m.currentState == stateOperationList || m.selected == nil {
		m.selected = m.current()
	}
	m.currentState = stateOperationDetails
	m.detailsViewport.SetContent(m.renderDetailsContent())
	m.detailsViewport.GotoTop()
}

func (m *model) openRunForm() tea.Cmd {
	m.formInputs = createRunForm(m.selected, m.cfg.DefaultHost, m.defaultTimeout())
	m.formFocusIndex = fieldInput
	m.formError = nil
	m.currentState = stateRunForm
	return m.formInputs[fieldInput].Focus()
}
