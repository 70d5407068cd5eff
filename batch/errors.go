// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package batch

import "errors"

var (
	// ErrUnknownOperation is returned by New for a command the catalog does
	// not describe.
	ErrUnknownOperation = errors.New("unknown operation")
	// ErrUnsupportedOption means the discriminator value selects no variant.
	ErrUnsupportedOption = errors.New("unsupported option")
	// ErrInvalidSetting means a key is not part of the active settings.
	ErrInvalidSetting = errors.New("invalid setting")
	// ErrNotConfigured means neither input nor output was set.
	ErrNotConfigured = errors.New("input and/or output are not configured")
	// ErrSettingsNotConfigured means an operation with variants was never
	// configured.
	ErrSettingsNotConfigured = errors.New("settings are not configured")
	// ErrUnsupportedValue means a setting holds a value with no command-line
	// rendering (maps, structs, channels...).
	ErrUnsupportedValue = errors.New("unsupported setting value")
	// ErrTimeout marks a Result whose process exceeded its time limit.
	ErrTimeout = errors.New("command timed out")
)
