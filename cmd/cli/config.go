// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"carisbatch/internal/config"
	"carisbatch/internal/discovery"
	"carisbatch/internal/logger"
	"carisbatch/internal/runner"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configCmd is the parent command for all configuration-related subcommands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage carisbatch configuration",
	Long: `Provides subcommands to manage the configuration stored in
~/.config/carisbatch/config.yaml: the local tool path, the default timeout,
the default host, the log level, and SSH processing hosts.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		path, err := config.DefaultConfigPath()
		if err == nil {
			fmt.Printf("Config file: %s\n", identifierColor.Sprint(path))
		}

		tool, err := discovery.FindTool(cfg)
		if err != nil {
			fmt.Printf("Tool:        %s\n", errorColor.Sprint(err))
		} else {
			fmt.Printf("Tool:        %s %s\n", tool.Path, dimColor.Sprintf("(%s)", tool.Source))
		}
		timeout, err := cfg.Timeout()
		if err != nil {
			fmt.Printf("Timeout:     %s\n", errorColor.Sprint(err))
		} else {
			fmt.Printf("Timeout:     %s\n", timeout)
		}
		defaultHost := cfg.DefaultHost
		if defaultHost == "" {
			defaultHost = runner.LocalTarget
		}
		fmt.Printf("Host:        %s\n", defaultHost)

		shown := cfg
		shown.SSHHosts = make([]config.SSHHost, len(cfg.SSHHosts))
		for i, h := range cfg.SSHHosts {
			if h.Password != "" {
				h.Password = "********"
			}
			shown.SSHHosts[i] = h
		}
		out, err := yaml.Marshal(shown)
		if err != nil {
			fail("failed to encode configuration: %v", err)
		}
		fmt.Printf("\n%s", out)
	},
}

var configSetToolCmd = &cobra.Command{
	Use:   "set-tool <path>",
	Short: "Set the local carisbatch executable",
	Long: `Sets the carisbatch executable used on this machine. Use an absolute path or
a path starting with '~/'. An empty string reverts to discovery:
  cb config set-tool ""`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := strings.TrimSpace(args[0])
		if path != "" {
			resolved, err := config.ResolvePath(path)
			if err != nil {
				fail("%v", err)
			}
			if info, err := os.Stat(resolved); err != nil || info.IsDir() {
				warningColor.Fprintf(os.Stderr, "Warning: '%s' is not an existing file.\n", resolved)
			}
		}

		cfg.Tool = path
		if err := config.SaveConfig(cfg); err != nil {
			fail("failed to save configuration: %v", err)
		}
		if path == "" {
			successColor.Println("Tool path cleared; carisbatch will be discovered.")
		} else {
			successColor.Printf("Tool set to: %s\n", path)
		}
	},
}

var configSetTimeoutCmd = &cobra.Command{
	Use:     "set-timeout <duration>",
	Short:   "Set the default run timeout",
	Example: "  cb config set-timeout 90m\n  cb config set-timeout \"\"   # back to 1h",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		value := strings.TrimSpace(args[0])
		if value != "" {
			d, err := time.ParseDuration(value)
			if err != nil || d <= 0 {
				fail("invalid timeout %q: use a positive duration such as 90m", value)
			}
		}
		cfg.TimeoutValue = value
		if err := config.SaveConfig(cfg); err != nil {
			fail("failed to save configuration: %v", err)
		}
		timeout, _ := cfg.Timeout()
		successColor.Printf("Default timeout set to: %s\n", timeout)
	},
}

var configSetHostCmd = &cobra.Command{
	Use:               "set-default-host <name>",
	Short:             "Set the SSH host used when --host is not given",
	Long:              `Sets the default host for run and job run. Use 'local' or "" to run on this machine.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: hostCompletionFunc,
	Run: func(cmd *cobra.Command, args []string) {
		name := strings.TrimSpace(args[0])
		if name == runner.LocalTarget {
			name = ""
		}
		if name != "" {
			if _, err := cfg.Host(name); err != nil {
				fail("%v", err)
			}
		}
		cfg.DefaultHost = name
		if err := config.SaveConfig(cfg); err != nil {
			fail("failed to save configuration: %v", err)
		}
		if name == "" {
			name = runner.LocalTarget
		}
		successColor.Printf("Default host set to: %s\n", identifierColor.Sprint(name))
	},
}

var configSetLogLevelCmd = &cobra.Command{
	Use:       "set-log-level <level>",
	Short:     "Set the log level (debug, info, warn, error)",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"debug", "info", "warn", "error"},
	Run: func(cmd *cobra.Command, args []string) {
		level := strings.ToLower(strings.TrimSpace(args[0]))
		switch level {
		case "debug", "info", "warn", "error":
		default:
			fail("log level must be one of debug, info, warn, error")
		}
		cfg.LogLevel = level
		if err := config.SaveConfig(cfg); err != nil {
			fail("failed to save configuration: %v", err)
		}
		logger.SetLevel(level)
		successColor.Printf("Log level set to: %s\n", level)
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetToolCmd)
	configCmd.AddCommand(configSetTimeoutCmd)
	configCmd.AddCommand(configSetHostCmd)
	configCmd.AddCommand(configSetLogLevelCmd)

	rootCmd.AddCommand(configCmd)
}
