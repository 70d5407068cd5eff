// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package ui

import (
	"fmt"
	"strings"
	"time"

	"carisbatch/batch"
	"carisbatch/catalog"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// --- View Rendering Helpers ---

// helpLine renders key bindings as "key: desc | key: desc".
func (m *model) helpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, footerKeyStyle.Render(h.Key)+footerDescStyle.Render(": "+h.Desc))
	}
	help := strings.Join(parts, footerSeparatorStyle.Render(" | "))
	return lipgloss.NewStyle().Width(m.width).Render(help)
}

// listWindow returns the slice bounds of a list of total rows that keeps
// cursor visible within height rows.
func listWindow(total, cursor, height int) (int, int) {
	if height <= 0 || total <= height {
		return 0, total
	}
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	if start+height > total {
		start = total - height
	}
	return start, start + height
}

func (m *model) renderOperationListView() (string, string) {
	bodyContent := strings.Builder{}

	group := m.currentGroup()
	if group == "" {
		group = "all groups"
	}
	bodyContent.WriteString(fmt.Sprintf("Operations (%s, %d shown)\n", groupStyle.Render(group), len(m.visible)))
	if m.currentState == stateFiltering || m.filter.Value() != "" {
		bodyContent.WriteString(m.filter.View() + "\n")
	}

	rows := m.height - headerHeight - footerHeight - 6
	m.viewport.Height = max(rows, 1)
	start, end := listWindow(len(m.visible), m.cursor, rows)
	for i := start; i < end; i++ {
		d := m.visible[i]
		cursor := "  "
		name := fmt.Sprintf("%-32s", d.Command)
		if m.cursor == i {
			cursor = cursorStyle.Render("> ")
			name = cursorStyle.Render(name)
		}
		bodyContent.WriteString(fmt.Sprintf("%s%s %s %s\n", cursor, name, groupStyle.Render(fmt.Sprintf("[%s]", d.Group)), dimStyle.Render(d.Summary)))
	}
	if len(m.visible) == 0 {
		bodyContent.WriteString(dimStyle.Render("  No operations match the filter.") + "\n")
	}

	footerContent := strings.Builder{}
	footerContent.WriteString("\n")
	if m.currentState == stateFiltering {
		footerContent.WriteString(m.helpLine(m.keymap.Enter, m.keymap.Esc))
	} else {
		footerContent.WriteString(m.helpLine(m.keymap.Up, m.keymap.Down, m.keymap.Enter, m.keymap.Run, m.keymap.Filter, m.keymap.NextGroup, m.keymap.Quit))
	}
	return bodyContent.String(), footerContent.String()
}

// renderDetailsContent describes the selected operation: its variants, their
// settings with flags and defaults, and an example command line.
func (m *model) renderDetailsContent() string {
	d := m.selected
	if d == nil {
		return ""
	}
	b := strings.Builder{}
	b.WriteString(titleStyle.Render(d.Command) + " " + groupStyle.Render("["+d.Group+"]") + "\n")
	if d.Summary != "" {
		b.WriteString(d.Summary + "\n")
	}
	b.WriteString("\n")

	if d.Discriminated() {
		b.WriteString(fmt.Sprintf("Variant key: %s\n", flagStyle.Render(d.OptionKey)))
		for _, name := range d.VariantNames() {
			defaults, _ := d.Variant(name)
			b.WriteString("\n" + variantStyle.Render(name) + "\n")
			writeSettings(&b, defaults)
		}
		if len(d.Common) > 0 {
			b.WriteString("\n" + variantStyle.Render("Common") + "\n")
			writeSettings(&b, d.Common)
		}
	} else {
		b.WriteString(variantStyle.Render("Settings") + "\n")
		writeSettings(&b, d.Common)
	}

	b.WriteString("\nExample:\n")
	if line, err := previewCommandLine(d); err != nil {
		b.WriteString(errorStyle.Render(err.Error()) + "\n")
	} else {
		b.WriteString(commandStyle.Render(line) + "\n")
	}
	return b.String()
}

func writeSettings(b *strings.Builder, defaults catalog.Defaults) {
	if len(defaults) == 0 {
		b.WriteString(dimStyle.Render("  (no options)") + "\n")
		return
	}
	for _, s := range defaults {
		marker := ""
		if batch.IsRepeatable(s.Name) {
			marker = dimStyle.Render(" (repeatable)")
		}
		b.WriteString(fmt.Sprintf("  %-28s %s%s\n", flagStyle.Render(batch.FlagName(s.Name)), describeDefault(s.Default), marker))
	}
}

func describeDefault(v any) string {
	switch v := v.(type) {
	case nil:
		return dimStyle.Render("unset")
	case bool:
		if v {
			return "on"
		}
		return dimStyle.Render("off")
	case string:
		if v == "" {
			return dimStyle.Render("unset")
		}
		return v
	default:
		return fmt.Sprint(v)
	}
}

// previewCommandLine builds the command line for the first variant with
// placeholder paths.
func previewCommandLine(d *catalog.Descriptor) (string, error) {
	op := batch.NewFromDescriptor(d)
	op.Input = previewInput
	op.Output = previewOutput
	if d.Discriminated() {
		if err := op.Configure(batch.Settings{d.OptionKey: firstOr(d.VariantNames(), d.DefaultVariant())}); err != nil {
			return "", err
		}
	}
	return op.CommandLine()
}

func (m *model) renderOperationDetailsView() (string, string) {
	m.detailsViewport.Height = max(m.height-headerHeight-footerHeight-4, 1)

	footerContent := strings.Builder{}
	footerContent.WriteString("\n")
	footerContent.WriteString(m.helpLine(m.keymap.Up, m.keymap.Down, m.keymap.Run, m.keymap.Back, m.keymap.Quit))
	return m.detailsViewport.View(), footerContent.String()
}

var formLabels = [fieldCount]string{
	fieldInput:    "Input",
	fieldOutput:   "Output",
	fieldSettings: "Settings",
	fieldHost:     "Host",
	fieldTimeout:  "Timeout",
}

func (m *model) renderRunFormView() (string, string) {
	bodyContent := strings.Builder{}
	bodyContent.WriteString(titleStyle.Render("Run "+m.selected.Command) + "\n\n")
	for i, input := range m.formInputs {
		bodyContent.WriteString(formLabelStyle.Render(formLabels[i]) + input.View() + "\n")
	}
	if len(m.cfg.SSHHosts) > 0 {
		names := make([]string, 0, len(m.cfg.SSHHosts))
		for _, h := range m.cfg.EnabledHosts() {
			names = append(names, h.Name)
		}
		bodyContent.WriteString("\n" + dimStyle.Render("Hosts: local, "+strings.Join(names, ", ")) + "\n")
	}

	footerContent := strings.Builder{}
	footerContent.WriteString("\n")
	if m.formError != nil {
		footerContent.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.formError)) + "\n")
	}
	footerContent.WriteString(m.helpLine(m.keymap.Tab, m.keymap.ShiftTab, m.keymap.Enter, m.keymap.Esc))
	return bodyContent.String(), footerContent.String()
}

func (m *model) renderRunningView() (string, string) {
	bodyContent := strings.Builder{}
	host := m.runHost
	if host == "" {
		host = "local"
	}
	bodyContent.WriteString(fmt.Sprintf("%s Running on %s\n\n", m.spinner.View(), statusStyle.Render(host)))
	bodyContent.WriteString(commandStyle.Render(m.runLine) + "\n")

	footerContent := strings.Builder{}
	footerContent.WriteString("\n")
	footerContent.WriteString(m.helpLine(
		key.NewBinding(key.WithHelp(m.keymap.Esc.Help().Key, "cancel")),
		key.NewBinding(key.WithHelp("ctrl+c", "quit")),
	))
	return bodyContent.String(), footerContent.String()
}

func (m *model) renderResultContent() string {
	if m.result == nil {
		return ""
	}
	r := m.result.result
	b := strings.Builder{}

	switch {
	case r.TimedOut():
		b.WriteString(warningStyle.Render("Timed out") + "\n")
	case r.Err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Failed: %v", r.Err)) + "\n")
	case r.ExitCode != 0:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Exited with code %d", r.ExitCode)) + "\n")
	default:
		b.WriteString(successStyle.Render("Completed") + "\n")
	}
	b.WriteString(fmt.Sprintf("Exit code: %d  Duration: %s\n", r.ExitCode, r.Duration.Round(time.Millisecond)))
	if r.CommandLine != "" {
		b.WriteString(commandStyle.Render(r.CommandLine) + "\n")
	}
	if r.Stdout != "" {
		b.WriteString("\n" + titleStyle.Render("stdout") + "\n" + r.Stdout)
		if !strings.HasSuffix(r.Stdout, "\n") {
			b.WriteString("\n")
		}
	}
	if r.Stderr != "" {
		b.WriteString("\n" + titleStyle.Render("stderr") + "\n" + errorStyle.Render(r.Stderr) + "\n")
	}
	return b.String()
}

func (m *model) renderRunResultView() (string, string) {
	m.resultViewport.Height = max(m.height-headerHeight-footerHeight-4, 1)

	footerContent := strings.Builder{}
	footerContent.WriteString("\n")
	footerContent.WriteString(m.helpLine(
		m.keymap.Up, m.keymap.Down,
		key.NewBinding(key.WithHelp(m.keymap.Back.Help().Key, "edit form")),
		key.NewBinding(key.WithHelp(m.keymap.Enter.Help().Key, "details")),
		m.keymap.Quit,
	))
	return m.resultViewport.View(), footerContent.String()
}
