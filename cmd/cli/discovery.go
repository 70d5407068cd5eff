// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package cli

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"carisbatch/internal/config"
	"carisbatch/internal/discovery"
	"carisbatch/internal/runner"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

var toolCmd = &cobra.Command{
	Use:   "tool",
	Short: "Locate the carisbatch executable",
}

var toolLocalOnly bool

var toolFindCmd = &cobra.Command{
	Use:   "find",
	Short: "Find carisbatch locally and on configured SSH hosts",
	Long: `Looks for carisbatch in the configured path, $CARISBATCH_TOOL, PATH and the
standard install locations, then asks every enabled SSH host where its copy is.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		var collectedErrors []error

		statusColor.Println("Looking for carisbatch locally...")
		tool, err := discovery.FindTool(cfg)
		if err != nil {
			errorColor.Fprintf(os.Stderr, "- local: %v\n", err)
			collectedErrors = append(collectedErrors, err)
		} else {
			fmt.Printf("- %s: %s %s\n", identifierColor.Sprint(runner.LocalTarget), tool.Path, dimColor.Sprintf("(%s)", tool.Source))
		}

		hosts := cfg.EnabledHosts()
		if toolLocalOnly || len(hosts) == 0 {
			if len(collectedErrors) > 0 {
				exitWith(1)
			}
			return
		}

		statusColor.Printf("\nProbing %d SSH host(s)...\n", len(hosts))
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Writer = os.Stderr
		s.Color("cyan")
		s.Suffix = " Probing remote hosts..."
		s.Start()

		newExecutor := func(h config.SSHHost) runner.Executor {
			return &runner.Remote{Clients: sshManager, Host: h}
		}
		toolChan, errorChan, _ := discovery.FindRemoteTools(cmd.Context(), hosts, newExecutor)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for err := range errorChan {
				collectedErrors = append(collectedErrors, err)
			}
		}()

		for t := range toolChan {
			s.Stop()
			fmt.Printf("- %s: %s\n", identifierColor.Sprint(t.ServerName), t.Path)
			s.Restart()
		}
		s.Stop()
		wg.Wait()

		if len(collectedErrors) > 0 {
			errorColor.Fprintln(os.Stderr, "\nErrors:")
			for _, err := range collectedErrors {
				errorColor.Fprintf(os.Stderr, "- %v\n", err)
			}
			if errors.Is(errors.Join(collectedErrors...), discovery.ErrToolNotFound) {
				warningColor.Fprintln(os.Stderr, "Set the path with 'cb config set-tool' or the host's tool field.")
			}
			exitWith(1)
		}
	},
}

func init() {
	toolFindCmd.Flags().BoolVar(&toolLocalOnly, "local", false, "only search this machine")
	toolCmd.AddCommand(toolFindCmd)
	rootCmd.AddCommand(toolCmd)
}
