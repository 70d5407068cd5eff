// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

//go:build windows

package runner

import (
	"context"
	"os"
	"os/exec"
	"strconv"
	"syscall"
)

// shellCommand hands the line to cmd.exe untouched; Go's argument escaping
// would mangle the embedded quotes. A timeout kills the whole process tree.
func shellCommand(ctx context.Context, commandLine string) *exec.Cmd {
	comspec := os.Getenv("ComSpec")
	if comspec == "" {
		comspec = "cmd.exe"
	}
	cmd := exec.CommandContext(ctx, comspec)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CmdLine: `cmd.exe /S /C "` + commandLine + `"`,
	}
	cmd.Cancel = func() error {
		return exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(cmd.Process.Pid)).Run()
	}
	return cmd
}
