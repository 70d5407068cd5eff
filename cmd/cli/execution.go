// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"carisbatch/batch"
	"carisbatch/internal/logger"
	"carisbatch/internal/runner"

	"github.com/briandowns/spinner"
)

// runOperation resolves host and runs op there. Without stream a spinner
// shows progress and output is printed afterwards.
func runOperation(ctx context.Context, op *batch.Operation, host string, timeout time.Duration, stream bool) batch.Result {
	executor, tool, err := targets(stream).For(host)
	if err != nil {
		fail("%v", err)
	}
	op.Executor = executor
	if op.Tool == "" {
		op.Tool = tool
	}

	if host == "" {
		host = runner.LocalTarget
	}
	statusColor.Printf("Running %s on %s...\n", op, identifierColor.Sprint(host))
	if line, err := op.CommandLine(); err == nil {
		fmt.Println(dimColor.Sprint(line))
	}

	if stream {
		return op.Run(ctx, timeout)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Writer = os.Stderr
	s.Color("cyan")
	s.Suffix = fmt.Sprintf(" %s (timeout %s)", op, timeout)
	s.Start()
	res := op.Run(ctx, timeout)
	s.Stop()
	return res
}

// printResult reports a finished run. Captured output is repeated unless it
// was already streamed.
func printResult(res batch.Result, streamed bool) {
	if !streamed {
		if res.Stdout != "" {
			fmt.Print(ensureNewline(res.Stdout))
		}
		if res.Stderr != "" {
			errorColor.Fprint(os.Stderr, ensureNewline(res.Stderr))
		}
	}

	switch {
	case res.TimedOut():
		errorColor.Fprintf(os.Stderr, "%s after %s\n", batch.TimeoutMessage, res.Duration.Round(time.Second))
	case res.Err != nil:
		errorColor.Fprintf(os.Stderr, "Failed: %v\n", res.Err)
	case res.ExitCode != 0:
		errorColor.Fprintf(os.Stderr, "carisbatch exited with code %d after %s\n", res.ExitCode, res.Duration.Round(time.Millisecond))
	default:
		successColor.Printf("Completed in %s\n", res.Duration.Round(time.Millisecond))
	}
}

type resultJSON struct {
	batch.Result
	TimedOut bool   `json:"timed_out"`
	Error    string `json:"error,omitempty"`
}

func printResultJSON(res batch.Result) {
	out := resultJSON{Result: res, TimedOut: res.TimedOut()}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Error("Failed to encode result", "error", err)
	}
}

// exitCode maps a failed result onto a process exit status.
func exitCode(res batch.Result) int {
	if res.ExitCode > 0 && res.ExitCode < 256 {
		return res.ExitCode
	}
	return 1
}

func ensureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
