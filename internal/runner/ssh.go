// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"carisbatch/internal/config"
	"carisbatch/internal/logger"

	gossh "golang.org/x/crypto/ssh"
)

// ClientSource hands out SSH clients; *ssh.Manager satisfies it.
type ClientSource interface {
	GetClient(ctx context.Context, host config.SSHHost) (*gossh.Client, error)
}

// Remote runs command lines on a processing server through its login shell.
type Remote struct {
	Clients ClientSource
	Host    config.SSHHost
	// Stdout and Stderr, when set, receive a live copy of the output.
	Stdout io.Writer
	Stderr io.Writer
}

func (r *Remote) Exec(ctx context.Context, commandLine string) (Output, error) {
	cmdDesc := fmt.Sprintf("remote command on %s", r.Host.Name)
	out := Output{ExitCode: -1}

	if r.Clients == nil {
		return out, fmt.Errorf("ssh manager not initialized for %s", cmdDesc)
	}
	client, err := r.Clients.GetClient(ctx, r.Host)
	if err != nil {
		return out, fmt.Errorf("failed to get ssh client for %s: %w", cmdDesc, err)
	}

	session, err := client.NewSession()
	if err != nil {
		return out, fmt.Errorf("failed to create ssh session for %s: %w", cmdDesc, err)
	}
	defer session.Close()

	var stdoutBuf, stderrBuf bytes.Buffer
	session.Stdout = tee(&stdoutBuf, r.Stdout)
	session.Stderr = tee(&stderrBuf, r.Stderr)

	start := time.Now()
	if err := session.Start(commandLine); err != nil {
		return out, fmt.Errorf("failed to start %s: %w", cmdDesc, err)
	}

	done := make(chan error, 1)
	go func() { done <- session.Wait() }()

	var cmdErr error
	select {
	case cmdErr = <-done:
	case <-ctx.Done():
		// not every server honours signals; closing the session ends the
		// channel either way
		if err := session.Signal(gossh.SIGKILL); err != nil {
			logger.Debug("ssh signal failed", "host", r.Host.Name, "error", err)
		}
		_ = session.Close()
		<-done
		out.Stdout, out.Stderr, out.Duration = stdoutBuf.String(), stderrBuf.String(), time.Since(start)
		logger.Warn("Remote command interrupted", "host", r.Host.Name, "reason", ctx.Err())
		return out, fmt.Errorf("%s interrupted after %s: %w", cmdDesc, out.Duration.Round(time.Millisecond), ctx.Err())
	}

	out.Stdout, out.Stderr, out.Duration = stdoutBuf.String(), stderrBuf.String(), time.Since(start)
	if cmdErr == nil {
		out.ExitCode = 0
		return out, nil
	}
	var exitErr *gossh.ExitError
	if errors.As(cmdErr, &exitErr) {
		out.ExitCode = exitErr.ExitStatus()
		return out, nil
	}
	return out, fmt.Errorf("%s failed: %w", cmdDesc, cmdErr)
}
