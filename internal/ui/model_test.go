// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package ui

import (
	"context"
	"fmt"
	"testing"

	"carisbatch/batch"
	"carisbatch/catalog"
	"carisbatch/internal/runner"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingExecutor struct {
	lines []string
	out   runner.Output
}

func (r *recordingExecutor) Exec(_ context.Context, line string) (runner.Output, error) {
	r.lines = append(r.lines, line)
	return r.out, nil
}

func newTestModel(t *testing.T, exec runner.Executor) *model {
	t.Helper()
	m := InitialModel(Options{Resolve: func(host string) (runner.Executor, string, error) {
		if host != "" && host != runner.LocalTarget {
			return nil, "", fmt.Errorf("ssh host '%s' not found in configuration", host)
		}
		return exec, "carisbatch", nil
	}})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	require.True(t, m.ready)
	return &m
}

func typeKeys(m *model, s string) {
	for _, r := range s {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func press(m *model, k tea.KeyType) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: k})
	return cmd
}

// selectOperation narrows the list to a single operation.
func selectOperation(t *testing.T, m *model, command string) {
	t.Helper()
	typeKeys(m, "/")
	typeKeys(m, command)
	press(m, tea.KeyEnter)
	require.Equal(t, stateOperationList, m.currentState)
	require.NotEmpty(t, m.visible)
	for i, d := range m.visible {
		if d.Command == command {
			m.cursor = i
			return
		}
	}
	t.Fatalf("%s not listed", command)
}

// collect runs cmd and any batched commands, returning their messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func TestInitialModelListsCatalog(t *testing.T) {
	m := newTestModel(t, nil)
	assert.Len(t, m.visible, len(catalog.All()))
	assert.Equal(t, stateOperationList, m.currentState)
	assert.Contains(t, m.View(), "CARIS Batch")
}

func TestFilterNarrowsAndClears(t *testing.T) {
	m := newTestModel(t, nil)

	typeKeys(m, "/")
	assert.Equal(t, stateFiltering, m.currentState)
	typeKeys(m, "thinpoints")
	require.NotEmpty(t, m.visible)
	assert.Equal(t, "ThinPoints", m.visible[0].Command)
	assert.Less(t, len(m.visible), len(catalog.All()))

	press(m, tea.KeyEsc)
	assert.Equal(t, stateOperationList, m.currentState)
	assert.Empty(t, m.filter.Value())
	assert.Len(t, m.visible, len(catalog.All()))
}

func TestFilterWithoutMatchesKeepsCursorInRange(t *testing.T) {
	m := newTestModel(t, nil)
	m.cursor = 5
	typeKeys(m, "/")
	typeKeys(m, "zzzz-no-such-operation")
	assert.Empty(t, m.visible)
	assert.Equal(t, 0, m.cursor)
	assert.Nil(t, m.current())
	assert.Contains(t, m.View(), "No operations match")
}

func TestNextGroupCycles(t *testing.T) {
	m := newTestModel(t, nil)
	groups := catalog.Groups()
	require.NotEmpty(t, groups)

	typeKeys(m, "t")
	assert.Equal(t, groups[0], m.currentGroup())
	for _, d := range m.visible {
		assert.Equal(t, groups[0], d.Group)
	}

	for range groups {
		typeKeys(m, "t")
	}
	assert.Equal(t, "", m.currentGroup())
	assert.Len(t, m.visible, len(catalog.All()))
}

func TestNavigationStaysInBounds(t *testing.T) {
	m := newTestModel(t, nil)
	press(m, tea.KeyUp)
	assert.Equal(t, 0, m.cursor)
	press(m, tea.KeyEnd)
	assert.Equal(t, len(m.visible)-1, m.cursor)
	press(m, tea.KeyDown)
	assert.Equal(t, len(m.visible)-1, m.cursor)
	press(m, tea.KeyHome)
	assert.Equal(t, 0, m.cursor)
}

func TestDetailsDescribeVariants(t *testing.T) {
	m := newTestModel(t, nil)
	selectOperation(t, m, "ThinPoints")

	press(m, tea.KeyEnter)
	require.Equal(t, stateOperationDetails, m.currentState)
	content := m.renderDetailsContent()
	assert.Contains(t, content, "RANDOM")
	assert.Contains(t, content, "MINIMUM_DISTANCE")
	assert.Contains(t, content, "--percentage")
	assert.Contains(t, content, `--run ThinPoints --method "RANDOM"`)

	typeKeys(m, "b")
	assert.Equal(t, stateOperationList, m.currentState)
}

func TestRunFormRunsOperation(t *testing.T) {
	exec := &recordingExecutor{out: runner.Output{Stdout: "done"}}
	m := newTestModel(t, exec)
	selectOperation(t, m, "ThinPoints")

	typeKeys(m, "r")
	require.Equal(t, stateRunForm, m.currentState)
	m.formInputs[fieldInput].SetValue("in.csar")
	m.formInputs[fieldOutput].SetValue("out.csar")
	m.formInputs[fieldSettings].SetValue("method=RANDOM percentage=10")

	cmd := press(m, tea.KeyEnter)
	require.NoError(t, m.formError)
	require.Equal(t, stateRunningOperation, m.currentState)
	want := `carisbatch --run ThinPoints --method "RANDOM" --percentage "10" "in.csar" "out.csar"`
	assert.Equal(t, want, m.runLine)

	var finished *runFinishedMsg
	for _, msg := range collect(cmd) {
		if f, ok := msg.(runFinishedMsg); ok {
			finished = &f
		}
	}
	require.NotNil(t, finished)
	assert.Equal(t, []string{want}, exec.lines)

	m.Update(*finished)
	assert.Equal(t, stateRunResult, m.currentState)
	content := m.renderResultContent()
	assert.Contains(t, content, "Completed")
	assert.Contains(t, content, "done")

	typeKeys(m, "b")
	assert.Equal(t, stateRunForm, m.currentState)
	assert.Equal(t, "in.csar", m.formInputs[fieldInput].Value())
}

func TestRunFormErrors(t *testing.T) {
	m := newTestModel(t, &recordingExecutor{})
	selectOperation(t, m, "ThinPoints")
	typeKeys(m, "r")

	press(m, tea.KeyEnter)
	assert.ErrorIs(t, m.formError, batch.ErrNotConfigured)
	assert.Equal(t, stateRunForm, m.currentState)

	m.formInputs[fieldInput].SetValue("in.csar")
	press(m, tea.KeyEnter)
	assert.ErrorIs(t, m.formError, batch.ErrSettingsNotConfigured)

	m.formInputs[fieldSettings].SetValue("method=NOPE")
	press(m, tea.KeyEnter)
	assert.ErrorIs(t, m.formError, batch.ErrUnsupportedOption)

	m.formInputs[fieldSettings].SetValue("method=RANDOM")
	m.formInputs[fieldHost].SetValue("nowhere")
	press(m, tea.KeyEnter)
	assert.ErrorContains(t, m.formError, "not found")

	m.formInputs[fieldHost].SetValue("")
	m.formInputs[fieldTimeout].SetValue("soon")
	press(m, tea.KeyEnter)
	assert.ErrorContains(t, m.formError, "invalid timeout")

	m.formInputs[fieldSettings].SetValue(`comments="open`)
	press(m, tea.KeyEnter)
	assert.ErrorContains(t, m.formError, "invalid settings")
}

func TestRunFormTabCyclesFocus(t *testing.T) {
	m := newTestModel(t, nil)
	selectOperation(t, m, "ThinPoints")
	typeKeys(m, "r")

	for i := 1; i <= fieldCount; i++ {
		press(m, tea.KeyTab)
		assert.Equal(t, i%fieldCount, m.formFocusIndex)
		assert.True(t, m.formInputs[m.formFocusIndex].Focused())
	}
	press(m, tea.KeyShiftTab)
	assert.Equal(t, fieldCount-1, m.formFocusIndex)

	press(m, tea.KeyEsc)
	assert.Equal(t, stateOperationDetails, m.currentState)
	assert.Equal(t, "ThinPoints", m.selected.Command)
}

func TestTimedOutResult(t *testing.T) {
	m := newTestModel(t, nil)
	m.Update(runFinishedMsg{result: batch.Result{ExitCode: batch.ExitTimeout, Stderr: batch.TimeoutMessage, Err: batch.ErrTimeout}})
	assert.Equal(t, stateRunResult, m.currentState)
	assert.Contains(t, m.renderResultContent(), "Timed out")
}

func TestCtrlCQuits(t *testing.T) {
	m := newTestModel(t, nil)
	cancelled := false
	m.cancelRun = func() { cancelled = true }
	cmd := press(m, tea.KeyCtrlC)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.True(t, cancelled)
}

func TestListWindow(t *testing.T) {
	cases := []struct {
		total, cursor, height int
		start, end            int
	}{
		{total: 5, cursor: 2, height: 10, start: 0, end: 5},
		{total: 100, cursor: 0, height: 10, start: 0, end: 10},
		{total: 100, cursor: 50, height: 10, start: 45, end: 55},
		{total: 100, cursor: 99, height: 10, start: 90, end: 100},
		{total: 100, cursor: 3, height: 0, start: 0, end: 100},
	}
	for _, tc := range cases {
		start, end := listWindow(tc.total, tc.cursor, tc.height)
		assert.Equal(t, tc.start, start, "%+v", tc)
		assert.Equal(t, tc.end, end, "%+v", tc)
	}
}
