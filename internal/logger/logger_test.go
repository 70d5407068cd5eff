// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: level})))
	t.Cleanup(func() {
		SetLogger(nil)
		SetLevel("info")
	})

	SetLevel("warn")
	Info("hidden")
	Warn("shown", "operation", "ThinPoints")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"operation":"ThinPoints"`)

	buf.Reset()
	SetLevel("debug")
	Debugf("exit code %d", 3)
	assert.Contains(t, buf.String(), "exit code 3")
}

func TestSetLevelUnknownFallsBackToInfo(t *testing.T) {
	t.Cleanup(func() { SetLevel("info") })
	SetLevel("chatty")
	assert.Equal(t, slog.LevelInfo, level.Level())
}
