// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package batch builds and runs carisbatch command lines.
//
// An Operation wraps one catalog entry. Configure validates settings against
// the entry's defaults, Args and CommandLine render the invocation, and Run
// executes it with a time limit:
//
//	op := batch.MustNew("ThinPoints")
//	op.Input, op.Output = "in.csar", "out.csar"
//	if err := op.Configure(batch.Settings{"method": "RANDOM", "percentage": 10}); err != nil {
//		return err
//	}
//	res := op.Run(ctx, time.Hour)
package batch

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"carisbatch/catalog"
	"carisbatch/internal/config"
	"carisbatch/internal/runner"
)

// DefaultTimeout bounds Run when no positive timeout is given.
const DefaultTimeout = config.DefaultTimeout

// Settings is a settings update. Keys may use hyphens or underscores and may
// carry one leading separator ("-include-band" == "include_band").
type Settings map[string]any

// Operation is one invocation of a batch operation.
type Operation struct {
	// Input and Output are the paths handed to the tool. At least one must be
	// set before the command line can be built.
	Input  string
	Output string
	// InputAsURI and OutputAsURI render the paths as file:// URIs.
	InputAsURI  bool
	OutputAsURI bool
	// Vessels, Days and Lines select part of a HIPS project. They only apply
	// to an input URI ending in .hips.
	Vessels []string
	Days    []string
	Lines   []string
	// FilesToLoad are auxiliary files listed before the input.
	FilesToLoad []string
	// Tool is the executable; empty means "carisbatch".
	Tool string
	// Executor runs the command line; nil means the local shell.
	Executor runner.Executor

	desc     *catalog.Descriptor
	variant  string
	settings catalog.Defaults
}

// New returns an unconfigured operation for a catalog command.
func New(command string) (*Operation, error) {
	d, ok := catalog.Lookup(command)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, command)
	}
	return NewFromDescriptor(d), nil
}

// MustNew is like New but panics on an unknown command.
func MustNew(command string) *Operation {
	op, err := New(command)
	if err != nil {
		panic(err)
	}
	return op
}

// NewFromDescriptor wraps a descriptor that may not be registered.
func NewFromDescriptor(d *catalog.Descriptor) *Operation {
	return &Operation{desc: d}
}

// Descriptor returns the catalog entry behind the operation.
func (o *Operation) Descriptor() *catalog.Descriptor {
	return o.desc
}

func (o *Operation) String() string {
	return o.desc.Command
}

// Configured reports whether Configure has succeeded at least once.
func (o *Operation) Configured() bool {
	return o.settings != nil
}

// Variant returns the active variant key, or "" before configuration.
func (o *Operation) Variant() string {
	return o.variant
}

// Settings returns a snapshot of the current settings in declaration order.
func (o *Operation) Settings() []catalog.Setting {
	return slices.Clone(o.settings)
}

// Setting returns the current value of one setting.
func (o *Operation) Setting(name string) (any, bool) {
	return o.settings.Get(catalog.NormalizeKey(name))
}

// Configure applies a settings update.
//
// The first call, or any call that changes the discriminator value, rebuilds
// the settings from the common defaults plus the selected variant's defaults.
// Every key of the update must then name an existing setting. On error the
// previous settings are kept.
func (o *Operation) Configure(update Settings) error {
	normalized := make(map[string]any, len(update))
	for k, v := range update {
		normalized[catalog.NormalizeKey(k)] = v
	}

	settings, variant := o.settings, o.variant
	key := o.desc.OptionKey
	if key != "" && settings != nil {
		if v, ok := normalized[key]; ok {
			current, _ := settings.Get(key)
			if !reflect.DeepEqual(current, v) {
				settings = nil
			}
		}
	}

	if len(settings) == 0 {
		option := o.desc.Command
		if key != "" {
			if v, ok := normalized[key]; ok {
				option = optionString(v)
			}
		}
		defaults, ok := o.desc.Variant(option)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnsupportedOption, option)
		}
		settings = o.desc.Common.Merge(defaults)
		variant = strings.ToUpper(option)
	} else {
		settings = slices.Clone(settings)
	}

	keys := make([]string, 0, len(normalized))
	for k := range normalized {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		i := slices.IndexFunc(settings, func(s catalog.Setting) bool { return s.Name == k })
		if i < 0 {
			return fmt.Errorf("%w: '%s' is not a valid option for %s", ErrInvalidSetting, k, o.label(settings, variant))
		}
		settings[i].Default = normalized[k]
	}

	o.settings, o.variant = settings, variant
	return nil
}

// label names the active variant in error messages: the discriminator's
// current value, or the command for operations without variants.
func (o *Operation) label(settings catalog.Defaults, variant string) string {
	if key := o.desc.OptionKey; key != "" {
		if v, ok := settings.Get(key); ok {
			return optionString(v)
		}
		return variant
	}
	return o.desc.Command
}

func optionString(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// Args returns the command-line tokens in order: the tool and operation,
// option tokens, auxiliary files, input, then output.
func (o *Operation) Args() ([]string, error) {
	if o.Input == "" && o.Output == "" {
		return nil, ErrNotConfigured
	}

	settings := o.settings
	if settings == nil {
		if o.desc.Discriminated() {
			return nil, ErrSettingsNotConfigured
		}
		defaults, ok := o.desc.Variant(o.desc.DefaultVariant())
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedOption, o.desc.Command)
		}
		settings = o.desc.Common.Merge(defaults)
	}

	args := []string{o.tool(), "--run", o.desc.Command}
	for _, s := range settings {
		tokens, err := formatArgument(s.Name, s.Default)
		if err != nil {
			return nil, err
		}
		args = append(args, tokens...)
	}

	for _, f := range o.FilesToLoad {
		if f != "" {
			args = append(args, quote(f))
		}
	}

	input, err := formatPath(o.Input, o.InputAsURI, &selectors{vessels: o.Vessels, days: o.Days, lines: o.Lines})
	if err != nil {
		return nil, fmt.Errorf("failed to format input: %w", err)
	}
	output, err := formatPath(o.Output, o.OutputAsURI, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to format output: %w", err)
	}
	for _, p := range []string{input, output} {
		if p != "" {
			args = append(args, p)
		}
	}
	return args, nil
}

// CommandLine joins Args with single spaces.
func (o *Operation) CommandLine() (string, error) {
	args, err := o.Args()
	if err != nil {
		return "", err
	}
	return strings.Join(args, " "), nil
}

func (o *Operation) tool() string {
	tool := o.Tool
	if tool == "" {
		tool = config.DefaultTool
	}
	if strings.ContainsAny(tool, " \t") && !strings.HasPrefix(tool, `"`) {
		return quote(tool)
	}
	return tool
}

func (o *Operation) executor() runner.Executor {
	if o.Executor != nil {
		return o.Executor
	}
	return &runner.Local{}
}
