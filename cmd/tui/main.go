// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package tui

import (
	"fmt"
	"os"

	"carisbatch/internal/config"
	"carisbatch/internal/logger"
	"carisbatch/internal/runner"
	"carisbatch/internal/ssh"
	"carisbatch/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

// RunTUI initializes and runs the Bubble Tea TUI application.
func RunTUI() {
	if err := config.EnsureConfigDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Error preparing configuration directory: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	logger.InitLogger(true, cfg.LogLevel)

	manager := ssh.NewManager()
	defer manager.CloseAll()

	targets := runner.Targets{Config: cfg, LocalTool: cfg.Tool, Clients: manager}
	m := ui.InitialModel(ui.Options{Config: cfg, Resolve: targets.For})
	p := tea.NewProgram(&m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Error("TUI exited with error", "error", err)
		fmt.Fprintf(os.Stderr, "Alas, there's been an error: %v\n", err)
		manager.CloseAll()
		os.Exit(1)
	}
}
