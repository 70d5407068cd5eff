// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package cli

import (
	"fmt"
	"os"

	"carisbatch/internal/config"
	"carisbatch/internal/discovery"
	"carisbatch/internal/logger"
	"carisbatch/internal/runner"
	"carisbatch/internal/ssh"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	sshManager      *ssh.Manager
	cfg             config.Config
	statusColor     = color.New(color.FgCyan)
	errorColor      = color.New(color.FgRed)
	stepColor       = color.New(color.FgYellow)
	successColor    = color.New(color.FgGreen)
	warningColor    = color.New(color.FgYellow)
	identifierColor = color.New(color.FgBlue)
	dimColor        = color.New(color.Faint)
)

var rootCmd = &cobra.Command{
	Use:   "cb",
	Short: "CARIS batch command builder and runner",
	Long: `A command-line interface for the CARIS "carisbatch" tool.

Builds carisbatch command lines from named operations and key=value settings,
and runs them locally or on processing servers configured via SSH
(~/.config/carisbatch/config.yaml). Run without arguments for the TUI.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.EnsureConfigDir(); err != nil {
			return fmt.Errorf("failed to ensure config directory: %w", err)
		}
		loaded, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
		logger.InitLogger(false, cfg.LogLevel)
		sshManager = ssh.NewManager()
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		closeConnections()
		return nil
	},
}

// RunCLI executes the command tree and exits non-zero on failure.
func RunCLI() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func closeConnections() {
	if sshManager != nil {
		sshManager.CloseAll()
	}
}

// exitWith closes open SSH connections before exiting, since deferred and
// post-run hooks are skipped by os.Exit.
func exitWith(code int) {
	closeConnections()
	os.Exit(code)
}

// fail prints an error and exits with status 1.
func fail(format string, args ...any) {
	errorColor.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	exitWith(1)
}

// localTool resolves the batch tool on this machine, falling back to the
// bare executable name when discovery finds nothing.
func localTool() string {
	tool, err := discovery.FindTool(cfg)
	if err != nil {
		logger.Debug("Falling back to default tool name", "error", err)
		return config.DefaultTool
	}
	return tool.Path
}

// targets builds the host resolver used by run, job and serve. When stream is
// set the tool's output is mirrored to the terminal as it arrives.
func targets(stream bool) runner.Targets {
	t := runner.Targets{
		Config:    cfg,
		LocalTool: localTool(),
		Clients:   sshManager,
	}
	if stream {
		t.Stdout, t.Stderr = os.Stdout, os.Stderr
	}
	return t
}

// hostOrDefault applies the configured default host.
func hostOrDefault(host string) string {
	if host == "" {
		return cfg.DefaultHost
	}
	return host
}
