// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package job runs a sequence of batch operations described in a YAML or
// TOML file.
package job

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"carisbatch/batch"
	"carisbatch/internal/logger"
	"carisbatch/internal/runner"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format is a job file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ErrStepFailed is returned by Run when a step exits non-zero.
var ErrStepFailed = errors.New("job step failed")

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("unsupported job file extension %q (use .yaml, .yml or .toml)", filepath.Ext(path))
}

// Step is one operation of a job.
type Step struct {
	Name        string         `yaml:"name,omitempty" toml:"name"`
	Operation   string         `yaml:"operation" toml:"operation"`
	Input       string         `yaml:"input,omitempty" toml:"input"`
	Output      string         `yaml:"output,omitempty" toml:"output"`
	InputAsURI  bool           `yaml:"input_as_uri,omitempty" toml:"input_as_uri"`
	OutputAsURI bool           `yaml:"output_as_uri,omitempty" toml:"output_as_uri"`
	Vessels     []string       `yaml:"vessels,omitempty" toml:"vessels"`
	Days        []string       `yaml:"days,omitempty" toml:"days"`
	Lines       []string       `yaml:"lines,omitempty" toml:"lines"`
	FilesToLoad []string       `yaml:"files_to_load,omitempty" toml:"files_to_load"`
	Settings    map[string]any `yaml:"settings,omitempty" toml:"settings"`
	// Timeout overrides the job timeout for this step.
	Timeout string `yaml:"timeout,omitempty" toml:"timeout"`
}

// Label names the step in messages.
func (s Step) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Operation
}

// Job is an ordered list of steps.
type Job struct {
	Name string `yaml:"name,omitempty" toml:"name"`
	// Tool overrides the batch tool executable for every step.
	Tool    string `yaml:"tool,omitempty" toml:"tool"`
	Timeout string `yaml:"timeout,omitempty" toml:"timeout"`
	// ContinueOnError keeps running after a step exits non-zero.
	ContinueOnError bool   `yaml:"continue_on_error,omitempty" toml:"continue_on_error"`
	Steps           []Step `yaml:"steps" toml:"steps"`
}

// Load reads a job file, picking the format from its extension.
func Load(path string) (*Job, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file %s: %w", path, err)
	}
	j, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse job file %s: %w", path, err)
	}
	if j.Name == "" {
		j.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return j, nil
}

// Parse decodes a job. Unknown fields are rejected.
func Parse(data []byte, format Format) (*Job, error) {
	var j Job
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&j); err != nil {
			return nil, fmt.Errorf("invalid yaml: %w", err)
		}
	case FormatTOML:
		meta, err := toml.Decode(string(data), &j)
		if err != nil {
			return nil, fmt.Errorf("invalid toml: %w", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("invalid toml: unknown fields %s", strings.Join(keys, ", "))
		}
	default:
		return nil, fmt.Errorf("unsupported job format %q", format)
	}
	if len(j.Steps) == 0 {
		return nil, errors.New("job has no steps")
	}
	return &j, nil
}

// Operations builds a configured operation for every step. All problems are
// reported together so a job never starts half-valid.
func (j *Job) Operations() ([]*batch.Operation, error) {
	ops := make([]*batch.Operation, len(j.Steps))
	var errs []error
	for i, s := range j.Steps {
		op, err := j.operation(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("step %d (%s): %w", i+1, s.Label(), err))
			continue
		}
		ops[i] = op
	}
	if _, err := j.timeouts(0); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return ops, nil
}

func (j *Job) operation(s Step) (*batch.Operation, error) {
	if strings.TrimSpace(s.Operation) == "" {
		return nil, errors.New("missing operation")
	}
	op, err := batch.New(s.Operation)
	if err != nil {
		return nil, err
	}
	op.Input, op.Output = s.Input, s.Output
	op.InputAsURI, op.OutputAsURI = s.InputAsURI, s.OutputAsURI
	op.Vessels, op.Days, op.Lines = s.Vessels, s.Days, s.Lines
	op.FilesToLoad = s.FilesToLoad
	op.Tool = j.Tool

	if len(s.Settings) > 0 || op.Descriptor().Discriminated() {
		if err := op.Configure(batch.Settings(s.Settings)); err != nil {
			return nil, err
		}
	}
	if _, err := op.Args(); err != nil {
		return nil, err
	}
	return op, nil
}

// timeouts resolves the limit of every step: the step's own timeout, else
// the job's, else fallback.
func (j *Job) timeouts(fallback time.Duration) ([]time.Duration, error) {
	base := fallback
	if j.Timeout != "" {
		d, err := parseTimeout(j.Timeout)
		if err != nil {
			return nil, fmt.Errorf("job timeout: %w", err)
		}
		base = d
	}
	out := make([]time.Duration, len(j.Steps))
	var errs []error
	for i, s := range j.Steps {
		out[i] = base
		if s.Timeout == "" {
			continue
		}
		d, err := parseTimeout(s.Timeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("step %d (%s) timeout: %w", i+1, s.Label(), err))
			continue
		}
		out[i] = d
	}
	return out, errors.Join(errs...)
}

func parseTimeout(value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("%q must be positive", value)
	}
	return d, nil
}

// StepResult pairs a step with its outcome.
type StepResult struct {
	Index  int
	Step   Step
	Result batch.Result
}

// Observer is notified before and after every step. Result is nil on the
// start notification.
type Observer func(index int, step Step, result *batch.Result)

// Run executes the steps in order with exec. timeout applies to steps that
// set no timeout of their own and is overridden by the job's timeout.
// Execution stops at the first step that fails unless ContinueOnError is
// set; either way a failure is reported as ErrStepFailed.
func (j *Job) Run(ctx context.Context, exec runner.Executor, timeout time.Duration, observe Observer) ([]StepResult, error) {
	ops, err := j.Operations()
	if err != nil {
		return nil, err
	}
	limits, err := j.timeouts(timeout)
	if err != nil {
		return nil, err
	}
	if observe == nil {
		observe = func(int, Step, *batch.Result) {}
	}

	logger.Info("Running job", "job", j.Name, "steps", len(ops))
	results := make([]StepResult, 0, len(ops))
	var failed []string
	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("job %s interrupted before step %d: %w", j.Name, i+1, err)
		}
		step := j.Steps[i]
		if exec != nil {
			op.Executor = exec
		}

		observe(i, step, nil)
		res := op.Run(ctx, limits[i])
		observe(i, step, &res)
		results = append(results, StepResult{Index: i, Step: step, Result: res})

		if !res.Failed() {
			continue
		}
		logger.Warn("Job step failed", "job", j.Name, "step", i+1, "operation", op.String(), "exit_code", res.ExitCode)
		failed = append(failed, fmt.Sprintf("%d (%s) exited with %d", i+1, step.Label(), res.ExitCode))
		if !j.ContinueOnError {
			return results, fmt.Errorf("%w: step %s", ErrStepFailed, failed[0])
		}
	}

	if len(failed) > 0 {
		return results, fmt.Errorf("%w: %d of %d steps failed: %s", ErrStepFailed, len(failed), len(ops), strings.Join(failed, "; "))
	}
	logger.Info("Job finished", "job", j.Name)
	return results, nil
}
