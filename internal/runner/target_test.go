// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package runner_test

import (
	"testing"

	"carisbatch/internal/config"
	"carisbatch/internal/runner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetsFor(t *testing.T) {
	targets := runner.Targets{
		LocalTool: "/usr/bin/carisbatch",
		Config: config.Config{SSHHosts: []config.SSHHost{
			{Name: "proc1", Hostname: "10.0.0.1", User: "hydro", Tool: "/opt/caris/bin/carisbatch"},
			{Name: "proc2", Hostname: "10.0.0.2", User: "hydro"},
			{Name: "old", Hostname: "10.0.0.3", User: "hydro", Disabled: true},
		}},
	}

	exec, tool, err := targets.For("")
	require.NoError(t, err)
	assert.IsType(t, &runner.Local{}, exec)
	assert.Equal(t, "/usr/bin/carisbatch", tool)

	_, tool, err = targets.For(runner.LocalTarget)
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/carisbatch", tool)

	exec, tool, err = targets.For("proc1")
	require.NoError(t, err)
	require.IsType(t, &runner.Remote{}, exec)
	assert.Equal(t, "10.0.0.1", exec.(*runner.Remote).Host.Hostname)
	assert.Equal(t, "/opt/caris/bin/carisbatch", tool)

	_, tool, err = targets.For("proc2")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultTool, tool)

	_, _, err = targets.For("old")
	assert.ErrorContains(t, err, "disabled")
	_, _, err = targets.For("nope")
	assert.ErrorContains(t, err, "not found")
}
