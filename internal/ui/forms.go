// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package ui

import (
	"fmt"
	"strings"
	"time"

	"carisbatch/batch"
	"carisbatch/catalog"
	"carisbatch/internal/runner"
	"carisbatch/internal/util"

	"github.com/charmbracelet/bubbles/textinput"
)

// --- Form Creation ---

func createRunForm(d *catalog.Descriptor, defaultHost string, timeout time.Duration) []textinput.Model {
	inputs := make([]textinput.Model, fieldCount)
	var t textinput.Model

	t = textinput.New()
	t.Placeholder = "Input path (file or folder)"
	t.Focus()
	t.CharLimit = 500
	t.Width = 60
	inputs[fieldInput] = t

	t = textinput.New()
	t.Placeholder = "Output path (optional for some operations)"
	t.CharLimit = 500
	t.Width = 60
	inputs[fieldOutput] = t

	t = textinput.New()
	if d.Discriminated() {
		t.Placeholder = fmt.Sprintf("%s=%s key=value flag ...", d.OptionKey, firstOr(d.VariantNames(), "VALUE"))
	} else {
		t.Placeholder = "key=value flag ..."
	}
	t.CharLimit = 1000
	t.Width = 60
	inputs[fieldSettings] = t

	t = textinput.New()
	t.Placeholder = runner.LocalTarget
	if defaultHost != "" {
		t.SetValue(defaultHost)
	}
	t.CharLimit = 100
	t.Width = 30
	inputs[fieldHost] = t

	t = textinput.New()
	t.Placeholder = timeout.String()
	t.CharLimit = 20
	t.Width = 20
	t.Validate = func(s string) error {
		if s == "" {
			return nil
		}
		if _, err := time.ParseDuration(s); err != nil {
			return fmt.Errorf("timeout must be a duration such as 90m")
		}
		return nil
	}
	inputs[fieldTimeout] = t

	for i := range inputs {
		inputs[i].Prompt = "  "
	}
	inputs[fieldInput].Prompt = cursorStyle.Render("> ")
	return inputs
}

func firstOr(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return values[0]
}

// parseSettingsField reads the key=value words of the settings field.
func parseSettingsField(value string) (batch.Settings, error) {
	fields, err := util.SplitFields(value)
	if err != nil {
		return nil, err
	}
	assigned, err := util.ParseAssignments(fields)
	if err != nil {
		return nil, err
	}
	return batch.Settings(assigned), nil
}

// buildOperationFromForm turns the run form into a configured operation and
// the timeout to run it with.
func (m *model) buildOperationFromForm() (*batch.Operation, time.Duration, error) {
	if m.selected == nil {
		return nil, 0, fmt.Errorf("no operation selected")
	}

	op := batch.NewFromDescriptor(m.selected)
	op.Input = strings.TrimSpace(m.formInputs[fieldInput].Value())
	op.Output = strings.TrimSpace(m.formInputs[fieldOutput].Value())
	if op.Input == "" && op.Output == "" {
		return nil, 0, batch.ErrNotConfigured
	}

	settings, err := parseSettingsField(m.formInputs[fieldSettings].Value())
	if err != nil {
		return nil, 0, fmt.Errorf("invalid settings: %w", err)
	}
	if len(settings) > 0 {
		if err := op.Configure(settings); err != nil {
			return nil, 0, err
		}
	}

	timeout := m.defaultTimeout()
	if raw := strings.TrimSpace(m.formInputs[fieldTimeout].Value()); raw != "" {
		timeout, err = time.ParseDuration(raw)
		if err != nil || timeout <= 0 {
			return nil, 0, fmt.Errorf("invalid timeout %q", raw)
		}
	}

	host := strings.TrimSpace(m.formInputs[fieldHost].Value())
	executor, tool, err := m.resolve(host)
	if err != nil {
		return nil, 0, err
	}
	if (host == "" || host == runner.LocalTarget) && m.tool.Path != "" {
		tool = m.tool.Path
	}
	op.Executor = executor
	op.Tool = tool

	// Surface build errors in the form rather than as a failed run.
	if _, err := op.Args(); err != nil {
		return nil, 0, err
	}
	return op, timeout, nil
}
