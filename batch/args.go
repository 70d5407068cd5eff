// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package batch

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// repeatable lists the options that the batch tool accepts more than once.
// Each value gets its own flag, and a single value is treated as a list of
// one.
var repeatable = map[string]bool{
	"area_features":                   true,
	"attribute":                       true,
	"blocking_feature":                true,
	"channel":                         true,
	"compare":                         true,
	"component_attribute":             true,
	"compute_band":                    true,
	"contour_features":                true,
	"coordinate_format":               true,
	"contributor_attribute":           true,
	"data":                            true,
	"deep_attributes":                 true,
	"filter_acquisition":              true,
	"filter_post_processing":          true,
	"grazing_angle_table":             true,
	"import_type":                     true,
	"include":                         true,
	"include_3D_symbol":               true,
	"include_attribute":               true,
	"include_band":                    true,
	"include_flag":                    true,
	"input_band":                      true,
	"level":                           true,
	"level_file":                      true,
	"matrix":                          true,
	"minimum_distance":                true,
	"overwrite":                       true,
	"override_classification_mapping": true,
	"range":                           true,
	"range_table":                     true,
	"reference_area_features":         true,
	"reference_features":              true,
	"reject_quality":                  true,
	"reject_type":                     true,
	"sbet_files":                      true,
	"sbet_rms_files":                  true,
	"shoal_attributes":                true,
	"smooth_sensor":                   true,
	"status":                          true,
	"surface_name":                    true,
	"svp":                             true,
	"template":                        true,
	"template_name":                   true,
}

// IsRepeatable reports whether the option may be given several times.
func IsRepeatable(key string) bool {
	return repeatable[key]
}

// kind is the closed set of shapes a setting value can take on the command
// line.
type kind int

const (
	kindOmit       kind = iota // nil, false, zero, empty: nothing is written
	kindFlag                   // true: --key
	kindScalar                 // --key "value"
	kindList                   // --key "v1" "v2"
	kindRepeatable             // --key "v1" --key "v2"
)

type argument struct {
	kind   kind
	values []string
}

// FlagName converts a settings key to its command-line flag.
func FlagName(key string) string {
	return "--" + strings.ReplaceAll(key, "_", "-")
}

func quote(s string) string {
	return `"` + s + `"`
}

// formatArgument renders one setting as command-line tokens.
func formatArgument(key string, value any) ([]string, error) {
	arg, err := classify(key, value)
	if err != nil {
		return nil, err
	}

	flag := FlagName(key)
	switch arg.kind {
	case kindFlag:
		return []string{flag}, nil
	case kindScalar:
		return []string{flag + " " + quote(arg.values[0])}, nil
	case kindList:
		tokens := make([]string, 0, len(arg.values)+1)
		tokens = append(tokens, flag)
		for _, v := range arg.values {
			tokens = append(tokens, quote(v))
		}
		return tokens, nil
	case kindRepeatable:
		tokens := make([]string, 0, len(arg.values))
		for _, v := range arg.values {
			tokens = append(tokens, flag+" "+quote(v))
		}
		return tokens, nil
	}
	return nil, nil
}

// classify decides how a value is written. Empty values of every kind are
// omitted; repeatable options wrap scalars into a one-element list.
func classify(key string, value any) (argument, error) {
	if n, ok := value.(json.Number); ok && isZeroNumber(n) {
		return argument{kind: kindOmit}, nil
	}
	if s, ok := stringer(reflect.ValueOf(value)); ok {
		if s == "" {
			return argument{kind: kindOmit}, nil
		}
		if repeatable[key] {
			return argument{kind: kindRepeatable, values: []string{s}}, nil
		}
		return argument{kind: kindScalar, values: []string{s}}, nil
	}

	rv := indirect(reflect.ValueOf(value))
	if !rv.IsValid() {
		return argument{kind: kindOmit}, nil
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return argument{kind: kindOmit}, nil
		}
		values := make([]string, rv.Len())
		for i := range values {
			s, err := scalarString(rv.Index(i))
			if err != nil {
				return argument{}, fmt.Errorf("%w: element %d of '%s': %v", ErrUnsupportedValue, i, key, err)
			}
			values[i] = s
		}
		if repeatable[key] {
			return argument{kind: kindRepeatable, values: values}, nil
		}
		return argument{kind: kindList, values: values}, nil
	}

	if rv.IsZero() {
		return argument{kind: kindOmit}, nil
	}
	s, err := scalarString(rv)
	if err != nil {
		return argument{}, fmt.Errorf("%w: '%s': %v", ErrUnsupportedValue, key, err)
	}
	if repeatable[key] {
		return argument{kind: kindRepeatable, values: []string{s}}, nil
	}
	if rv.Kind() == reflect.Bool {
		return argument{kind: kindFlag}, nil
	}
	return argument{kind: kindScalar, values: []string{s}}, nil
}

// isZeroNumber reports whether a decoded JSON number is zero. Unparsable
// numbers are left to render as written.
func isZeroNumber(n json.Number) bool {
	f, err := n.Float64()
	return err == nil && f == 0
}

// stringer reports the String() of values that implement fmt.Stringer.
func stringer(rv reflect.Value) (string, bool) {
	if !rv.IsValid() || !rv.CanInterface() {
		return "", false
	}
	if (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) && rv.IsNil() {
		return "", false
	}
	s, ok := rv.Interface().(fmt.Stringer)
	if !ok {
		return "", false
	}
	return s.String(), true
}

func indirect(rv reflect.Value) reflect.Value {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}

func scalarString(rv reflect.Value) (string, error) {
	if s, ok := stringer(rv); ok {
		return s, nil
	}
	rv = indirect(rv)
	if !rv.IsValid() {
		return "", nil
	}
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		// the tool expects capitalized booleans as values
		if rv.Bool() {
			return "True", nil
		}
		return "False", nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32:
		return formatFloat(rv.Float(), 32), nil
	case reflect.Float64:
		return formatFloat(rv.Float(), 64), nil
	}
	return "", fmt.Errorf("no rendering for %s", rv.Type())
}

// formatFloat writes the shortest round-tripping representation the way the
// tool's documentation does: integral values keep ".0" (10.0), and very small
// or very large magnitudes switch to exponent form (2.5e-07, 1e+16).
func formatFloat(f float64, bitSize int) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	e := strconv.FormatFloat(f, 'e', -1, bitSize)
	exp, err := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:])
	if err == nil && f != 0 && (exp < -4 || exp >= 16) {
		return e
	}
	s := strconv.FormatFloat(f, 'f', -1, bitSize)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
