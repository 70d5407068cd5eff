// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package ui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	successStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warningStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	cursorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	groupStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Italic(true)
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	flagStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	variantStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	commandStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	formLabelStyle  = lipgloss.NewStyle().Width(10)
	mainBorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("238"))

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	footerKeyStyle = lipgloss.NewStyle().
			Inherit(footerStyle).
			Foreground(lipgloss.Color("39"))

	footerDescStyle = lipgloss.NewStyle().
			Inherit(footerStyle).
			Foreground(lipgloss.Color("250"))

	footerSeparatorStyle = lipgloss.NewStyle().
				Inherit(footerStyle).
				Foreground(lipgloss.Color("240"))
)
