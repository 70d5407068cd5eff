// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package cli

import (
	"fmt"
	"os"
	"time"

	"carisbatch/batch"
	"carisbatch/internal/job"

	"github.com/spf13/cobra"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Check or run job files",
	Long: `A job file (.yaml, .yml or .toml) lists operations to run in order.
Every step is configured before anything runs.`,
}

var jobCheckCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Validate a job file and print its command lines",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		j, err := job.Load(args[0])
		if err != nil {
			fail("%v", err)
		}
		ops, err := j.Operations()
		if err != nil {
			fail("%v", err)
		}
		statusColor.Printf("Job %s: %d step(s)\n", identifierColor.Sprint(j.Name), len(ops))
		for i, op := range ops {
			if op.Tool == "" {
				op.Tool = localTool()
			}
			line, err := op.CommandLine()
			if err != nil {
				fail("step %d: %v", i+1, err)
			}
			fmt.Printf("%d. %s\n   %s\n", i+1, j.Steps[i].Label(), dimColor.Sprint(line))
		}
		successColor.Println("Job is valid.")
	},
}

var (
	jobHost    string
	jobTimeout time.Duration
	jobStream  bool
)

var jobRunCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Run the steps of a job file in order",
	Long: `Runs every step of a job file. Execution stops at the first step that
fails unless the job sets continue_on_error.`,
	Example: "  cb job run survey.yaml\n  cb job run nightly.toml --host proc1",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		j, err := job.Load(args[0])
		if err != nil {
			fail("%v", err)
		}

		host := hostOrDefault(jobHost)
		executor, tool, err := targets(jobStream).For(host)
		if err != nil {
			fail("%v", err)
		}
		if j.Tool == "" {
			j.Tool = tool
		}
		timeout := jobTimeout
		if timeout <= 0 {
			if timeout, err = cfg.Timeout(); err != nil {
				fail("%v", err)
			}
		}

		total := len(j.Steps)
		observe := func(i int, step job.Step, res *batch.Result) {
			if res == nil {
				stepColor.Printf("\n--- Step %d/%d: %s ---\n", i+1, total, step.Label())
				return
			}
			printResult(*res, jobStream)
		}

		results, err := j.Run(cmd.Context(), executor, timeout, observe)
		if err != nil {
			errorColor.Fprintf(os.Stderr, "\nJob %s failed: %v\n", j.Name, err)
			if len(results) > 0 {
				exitWith(exitCode(results[len(results)-1].Result))
			}
			exitWith(1)
		}
		successColor.Printf("\nJob %s completed: %d step(s).\n", identifierColor.Sprint(j.Name), len(results))
	},
}

func init() {
	jobRunCmd.Flags().StringVar(&jobHost, "host", "", "SSH host to run on ('local' for this machine)")
	jobRunCmd.Flags().DurationVar(&jobTimeout, "timeout", 0, "timeout for steps that set none")
	jobRunCmd.Flags().BoolVar(&jobStream, "stream", false, "show the tool's output while it runs")
	_ = jobRunCmd.RegisterFlagCompletionFunc("host", hostCompletionFunc)

	jobCmd.AddCommand(jobCheckCmd)
	jobCmd.AddCommand(jobRunCmd)
	rootCmd.AddCommand(jobCmd)
}
