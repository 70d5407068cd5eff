// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"carisbatch/internal/logger"
)

// Exit codes reported for failures that happen before or around the tool.
const (
	// ExitTimeout is reported when the time limit expires.
	ExitTimeout = 1
	// ExitConfigError is reported when the command line could not be built
	// or the process could not be started.
	ExitConfigError = -1
)

// TimeoutMessage is the Stderr of a timed-out Result.
const TimeoutMessage = "Command Timed out"

// Result is the outcome of Run. For a completed process it carries the
// tool's exit code and captured output.
type Result struct {
	ExitCode    int           `json:"exit_code"`
	Stdout      string        `json:"stdout"`
	Stderr      string        `json:"stderr"`
	CommandLine string        `json:"command_line"`
	Duration    time.Duration `json:"duration"`
	// Err is set when the tool did not run to completion: ErrTimeout, a
	// configuration error, or a start failure.
	Err error `json:"-"`
}

// TimedOut reports whether the process was killed by the time limit.
func (r Result) TimedOut() bool {
	return errors.Is(r.Err, ErrTimeout)
}

// Failed reports whether the run did not succeed for any reason.
func (r Result) Failed() bool {
	return r.Err != nil || r.ExitCode != 0
}

// Unpack returns exit code, stdout, stderr and the command line.
func (r Result) Unpack() (int, string, string, string) {
	return r.ExitCode, r.Stdout, r.Stderr, r.CommandLine
}

// Run builds the command line and executes it, waiting at most timeout. A
// timeout <= 0 means DefaultTimeout. Run never returns an error; failures are
// folded into the Result.
func (o *Operation) Run(ctx context.Context, timeout time.Duration) Result {
	line, err := o.CommandLine()
	if err != nil {
		logger.Warn("Failed to build command line", "operation", o.desc.Command, "error", err)
		return localFailure(line, err)
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger.Debug("Running batch operation", "operation", o.desc.Command, "variant", o.variant, "command", line)
	start := time.Now()
	out, err := o.executor().Exec(ctx, line)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("Batch operation timed out", "operation", o.desc.Command, "timeout", timeout)
			return Result{
				ExitCode:    ExitTimeout,
				Stderr:      TimeoutMessage,
				CommandLine: line,
				Duration:    time.Since(start),
				Err:         fmt.Errorf("%w after %s", ErrTimeout, timeout),
			}
		}
		logger.Error("Batch operation failed to run", "operation", o.desc.Command, "error", err)
		res := localFailure(line, err)
		res.Duration = time.Since(start)
		return res
	}

	logger.Info("Batch operation finished", "operation", o.desc.Command, "exit_code", out.ExitCode, "duration", out.Duration)
	return Result{
		ExitCode:    out.ExitCode,
		Stdout:      out.Stdout,
		Stderr:      out.Stderr,
		CommandLine: line,
		Duration:    out.Duration,
	}
}

func localFailure(line string, err error) Result {
	return Result{
		ExitCode:    ExitConfigError,
		Stderr:      "An error occurred: " + err.Error(),
		CommandLine: line,
		Err:         err,
	}
}
