// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

//go:build !windows

package runner

import (
	"context"
	"os/exec"
	"syscall"
)

// shellCommand starts the line under /bin/sh in its own process group so a
// timeout takes down the tool as well as the shell.
func shellCommand(ctx context.Context, commandLine string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", commandLine)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	return cmd
}
