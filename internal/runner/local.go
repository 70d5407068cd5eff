// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"carisbatch/internal/logger"
)

// defaultWaitDelay bounds how long output is drained after the process was
// killed.
const defaultWaitDelay = 5 * time.Second

// Local runs command lines through the platform shell. The batch tool grammar
// embeds literal double quotes, so the line is handed to the shell verbatim
// instead of being split into argv.
type Local struct {
	// Dir is the working directory; empty means the current one.
	Dir string
	// Env replaces the environment when non-nil.
	Env []string
	// Stdout and Stderr, when set, receive a live copy of the output.
	Stdout io.Writer
	Stderr io.Writer
	// WaitDelay overrides defaultWaitDelay.
	WaitDelay time.Duration
}

func (l *Local) Exec(ctx context.Context, commandLine string) (Output, error) {
	cmd := shellCommand(ctx, commandLine)
	cmd.Dir = l.Dir
	cmd.Env = l.Env
	cmd.WaitDelay = l.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = defaultWaitDelay
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = tee(&stdoutBuf, l.Stdout)
	cmd.Stderr = tee(&stderrBuf, l.Stderr)

	start := time.Now()
	err := cmd.Run()
	out := Output{
		ExitCode: -1,
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		Duration: time.Since(start),
	}
	if cmd.ProcessState != nil {
		out.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err == nil {
		return out, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		logger.Warn("Local command interrupted", "duration", out.Duration, "reason", ctxErr)
		return out, fmt.Errorf("local command interrupted after %s: %w", out.Duration.Round(time.Millisecond), ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}
	if errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState != nil {
		// the process exited but a grandchild kept the pipes open
		return out, nil
	}
	return out, fmt.Errorf("failed to start local command: %w", err)
}
