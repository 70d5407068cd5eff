// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package util

import (
	"errors"
	"fmt"
	"strings"
)

// ParseAssignments turns "key=value" arguments into settings. A bare key
// means true, and a key given more than once collects its values into a
// list in order. Values stay strings.
func ParseAssignments(args []string) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, hasValue := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("invalid setting %q: missing key", arg)
		}
		if !hasValue {
			out[key] = true
			continue
		}
		switch prev := out[key].(type) {
		case nil:
			out[key] = value
		case string:
			out[key] = []string{prev, value}
		case []string:
			out[key] = append(prev, value)
		default:
			return nil, fmt.Errorf("invalid setting %q: %s was already given as a flag", arg, key)
		}
	}
	return out, nil
}

// SplitFields splits a line on whitespace, keeping double-quoted sections
// together (the quotes are dropped).
func SplitFields(line string) ([]string, error) {
	var fields []string
	var b strings.Builder
	inQuotes, inField := false, false
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			inField = true
		case !inQuotes && (r == ' ' || r == '\t' || r == '\n'):
			if inField {
				fields = append(fields, b.String())
				b.Reset()
				inField = false
			}
		default:
			b.WriteRune(r)
			inField = true
		}
	}
	if inQuotes {
		return nil, errors.New("unterminated quote")
	}
	if inField {
		fields = append(fields, b.String())
	}
	return fields, nil
}
