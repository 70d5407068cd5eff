// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package runner executes a fully built batch tool command line, either on
// this machine or on a processing server over SSH, and captures its exit code
// and output streams.
package runner

import (
	"context"
	"io"
	"time"
)

// Output is what a finished process left behind. A non-zero ExitCode is a
// normal outcome, not an error.
type Output struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Executor runs a shell command line until it exits or ctx is done.
//
// Implementations return an error only when the process could not be run to
// completion: it failed to start, or ctx expired (the error then wraps
// ctx.Err()). Any partial output is still returned.
type Executor interface {
	Exec(ctx context.Context, commandLine string) (Output, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, commandLine string) (Output, error)

func (f ExecutorFunc) Exec(ctx context.Context, commandLine string) (Output, error) {
	return f(ctx, commandLine)
}

// tee returns buf alone or buf mirrored to mirror.
func tee(buf io.Writer, mirror io.Writer) io.Writer {
	if mirror == nil {
		return buf
	}
	return io.MultiWriter(buf, mirror)
}
