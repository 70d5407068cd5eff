// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package runner

import (
	"io"

	"carisbatch/internal/config"
)

// LocalTarget is the host name that always means this machine.
const LocalTarget = "local"

// Targets maps a host name to the executor and tool path that run there.
type Targets struct {
	Config config.Config
	// LocalTool is the batch tool used on this machine.
	LocalTool string
	// Clients supplies SSH connections for remote hosts.
	Clients ClientSource
	// Stdout and Stderr, when set, receive a live copy of the output.
	Stdout io.Writer
	Stderr io.Writer
}

// For resolves a host name. Empty or "local" selects this machine.
func (t Targets) For(host string) (Executor, string, error) {
	if host == "" || host == LocalTarget {
		tool := t.LocalTool
		if tool == "" {
			tool = config.DefaultTool
		}
		return &Local{Stdout: t.Stdout, Stderr: t.Stderr}, tool, nil
	}
	h, err := t.Config.Host(host)
	if err != nil {
		return nil, "", err
	}
	return &Remote{Clients: t.Clients, Host: h, Stdout: t.Stdout, Stderr: t.Stderr}, h.RemoteTool(), nil
}
