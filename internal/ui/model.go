// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package ui

import (
	"context"
	"strings"
	"time"

	"carisbatch/catalog"
	"carisbatch/internal/config"
	"carisbatch/internal/discovery"
	"carisbatch/internal/runner"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Resolver maps a host name to the executor and tool path used there.
type Resolver func(host string) (runner.Executor, string, error)

// Options configures the TUI.
type Options struct {
	Config  config.Config
	Resolve Resolver
}

type model struct {
	keymap       KeyMap
	currentState state
	width        int
	height       int
	ready        bool

	cfg     config.Config
	resolve Resolver
	tool    discovery.Tool
	toolErr error

	// Catalog browsing
	groups     []string // "" first, meaning every group
	groupIndex int
	filter     textinput.Model
	visible    []*catalog.Descriptor
	cursor     int
	selected   *catalog.Descriptor

	viewport        viewport.Model
	detailsViewport viewport.Model
	resultViewport  viewport.Model

	// Run form
	formInputs     []textinput.Model
	formFocusIndex int
	formError      error

	// Running operation
	spinner   spinner.Model
	runHost   string
	runLine   string
	cancelRun context.CancelFunc
	result    *runFinishedMsg
}

// InitialModel builds the model for the catalog browser.
func InitialModel(opts Options) model {
	filter := textinput.New()
	filter.Placeholder = "operation name or summary"
	filter.Prompt = "/ "
	filter.CharLimit = 80

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = statusStyle

	resolve := opts.Resolve
	if resolve == nil {
		resolve = runner.Targets{Config: opts.Config, LocalTool: opts.Config.Tool}.For
	}

	m := model{
		keymap:       DefaultKeyMap,
		currentState: stateOperationList,
		cfg:          opts.Config,
		resolve:      resolve,
		groups:       append([]string{""}, catalog.Groups()...),
		filter:       filter,
		spinner:      s,
	}
	m.applyFilter()
	return m
}

func (m *model) Init() tea.Cmd {
	return findToolCmd(m.cfg)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		cmds = append(cmds, handleWindowSizeMsg(m, msg))

	case toolFoundMsg:
		handleToolFoundMsg(m, msg)

	case runFinishedMsg:
		cmds = append(cmds, handleRunFinishedMsg(m, msg))

	case spinner.TickMsg:
		if m.currentState == stateRunningOperation {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if m.cancelRun != nil {
				m.cancelRun()
			}
			return m, tea.Quit
		}

		switch m.currentState {
		case stateOperationList:
			cmds = append(cmds, m.handleOperationListKeys(msg)...)
		case stateFiltering:
			cmds = append(cmds, m.handleFilterKeys(msg)...)
		case stateOperationDetails:
			cmds = append(cmds, m.handleOperationDetailsKeys(msg)...)
		case stateRunForm:
			cmds = append(cmds, m.handleRunFormKeys(msg)...)
		case stateRunningOperation:
			cmds = append(cmds, m.handleRunningKeys(msg)...)
		case stateRunResult:
			cmds = append(cmds, m.handleRunResultKeys(msg)...)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	header := titleStyle.Render("CARIS Batch") + "  " + m.toolStatus()

	var body, footer string
	switch m.currentState {
	case stateOperationList, stateFiltering:
		body, footer = m.renderOperationListView()
	case stateOperationDetails:
		body, footer = m.renderOperationDetailsView()
	case stateRunForm:
		body, footer = m.renderRunFormView()
	case stateRunningOperation:
		body, footer = m.renderRunningView()
	case stateRunResult:
		body, footer = m.renderRunResultView()
	}

	bodyHeight := m.height - headerHeight - lipgloss.Height(footer) - 2
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	main := mainBorderStyle.Width(m.width - 2).Height(bodyHeight).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, header, main, footer)
}

func (m *model) toolStatus() string {
	switch {
	case m.toolErr != nil:
		return warningStyle.Render("tool: " + m.toolErr.Error())
	case m.tool.Path != "":
		return dimStyle.Render("tool: " + m.tool.Path + " (" + string(m.tool.Source) + ")")
	default:
		return dimStyle.Render("tool: searching...")
	}
}

// currentGroup returns the group being shown, or "" for all of them.
func (m *model) currentGroup() string {
	return m.groups[m.groupIndex]
}

// applyFilter recomputes the visible operations from the group and filter
// text, keeping the cursor in range.
func (m *model) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	group := m.currentGroup()

	m.visible = m.visible[:0]
	for _, d := range catalog.All() {
		if group != "" && d.Group != group {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(d.Command), query) &&
			!strings.Contains(strings.ToLower(d.Summary), query) {
			continue
		}
		m.visible = append(m.visible, d)
	}

	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *model) current() *catalog.Descriptor {
	if len(m.visible) == 0 {
		return nil
	}
	return m.visible[m.cursor]
}

func (m *model) defaultTimeout() time.Duration {
	d, err := m.cfg.Timeout()
	if err != nil {
		return config.DefaultTimeout
	}
	return d
}
