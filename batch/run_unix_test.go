// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

//go:build !windows

package batch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"carisbatch/batch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTool writes an executable shell script standing in for carisbatch.
func stubTool(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "carisbatch")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestRunThroughShellSplitsQuotedTokens(t *testing.T) {
	op := batch.MustNew("ThinPoints")
	op.Tool = stubTool(t, `printf '%s\n' "$@"`)
	op.Input, op.Output = "in put.csar", "out.csar"
	require.NoError(t, op.Configure(batch.Settings{
		"method":       "RANDOM",
		"percentage":   12.5,
		"include_band": []string{"Depth", "Std Dev"},
	}))

	res := op.Run(context.Background(), 10*time.Second)

	require.NoError(t, res.Err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "--run\nThinPoints\n--method\nRANDOM\n--include-band\nDepth\n--include-band\nStd Dev\n--percentage\n12.5\nin put.csar\nout.csar\n", res.Stdout)
}

func TestRunThroughShellReportsExitCode(t *testing.T) {
	op := batch.MustNew("TileRaster")
	op.Tool = stubTool(t, `echo "license not found" 1>&2; exit 4`)
	op.Input = "in.csar"

	res := op.Run(context.Background(), 10*time.Second)

	assert.Equal(t, 4, res.ExitCode)
	assert.Equal(t, "license not found\n", res.Stderr)
	assert.False(t, res.TimedOut())
}

func TestRunThroughShellTimesOut(t *testing.T) {
	op := batch.MustNew("TileRaster")
	op.Tool = stubTool(t, `sleep 5`)
	op.Input = "in.csar"

	start := time.Now()
	res := op.Run(context.Background(), 200*time.Millisecond)

	assert.True(t, res.TimedOut())
	assert.Equal(t, batch.ExitTimeout, res.ExitCode)
	assert.Equal(t, batch.TimeoutMessage, res.Stderr)
	assert.Less(t, time.Since(start), 4*time.Second)
}
