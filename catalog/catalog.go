// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package catalog holds the declarative description of every operation the
// CARIS batch tool supports: its command name, the option that selects a
// variant (if any), the settings common to all variants and the default
// settings of each variant.
//
// The tables live in embedded YAML documents, one per product area, and are
// decoded once when the package is initialised.
package catalog

import (
	"embed"
	"fmt"
	"path"
	"slices"
	"sort"
	"strings"
)

//go:embed operations/*.yaml
var tables embed.FS

// Setting is a single option name with its default value.
type Setting struct {
	Name    string
	Default any
}

// Descriptor identifies one operation of the batch tool.
type Descriptor struct {
	// Command is the name passed to `--run`.
	Command string
	// Group is the product area the operation belongs to (e.g. "hips").
	Group string
	// Summary is a one-sentence description of what the operation does.
	Summary string
	// OptionKey is the setting whose value selects a variant. Empty when the
	// operation has a single set of options.
	OptionKey string
	// Common holds the settings shared by every variant.
	Common Defaults

	variants     map[string]Defaults
	variantOrder []string
}

// Discriminated reports whether the operation selects its options through a
// variant key.
func (d *Descriptor) Discriminated() bool {
	return d.OptionKey != ""
}

// Variant returns the default settings registered under value. The lookup is
// case-insensitive.
func (d *Descriptor) Variant(value string) (Defaults, bool) {
	v, ok := d.variants[strings.ToUpper(value)]
	return v, ok
}

// VariantNames lists the registered variants in declaration order.
func (d *Descriptor) VariantNames() []string {
	return append([]string(nil), d.variantOrder...)
}

// DefaultVariant is the registry key used when no discriminator value is
// supplied: the upper-cased command name.
func (d *Descriptor) DefaultVariant() string {
	return strings.ToUpper(d.Command)
}

var (
	registry = map[string]*Descriptor{}
	ordered  []*Descriptor
	groups   []string
)

func init() {
	entries, err := tables.ReadDir("operations")
	if err != nil {
		panic(err)
	}
	for _, entry := range entries {
		data, err := tables.ReadFile(path.Join("operations", entry.Name()))
		if err != nil {
			panic(err)
		}
		group := strings.TrimSuffix(entry.Name(), path.Ext(entry.Name()))
		descriptors, err := Parse(group, data)
		if err != nil {
			panic(fmt.Sprintf("catalog table %s: %v", entry.Name(), err))
		}
		if err := Register(descriptors...); err != nil {
			panic(err)
		}
	}
}

// Register adds descriptors to the process-wide catalog. It is meant to be
// called during program initialisation, before any lookups happen.
func Register(descriptors ...*Descriptor) error {
	for _, d := range descriptors {
		key := strings.ToUpper(d.Command)
		if _, exists := registry[key]; exists {
			return fmt.Errorf("operation %s registered twice", d.Command)
		}
		registry[key] = d
		ordered = append(ordered, d)
		if !slices.Contains(groups, d.Group) {
			groups = append(groups, d.Group)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Command < ordered[j].Command })
	sort.Strings(groups)
	return nil
}

// Lookup finds an operation by command name, ignoring case.
func Lookup(command string) (*Descriptor, bool) {
	d, ok := registry[strings.ToUpper(strings.TrimSpace(command))]
	return d, ok
}

// All returns every registered operation sorted by command name.
func All() []*Descriptor {
	return append([]*Descriptor(nil), ordered...)
}

// Groups returns the product areas present in the catalog.
func Groups() []string {
	return append([]string(nil), groups...)
}

// InGroup returns the operations of one product area.
func InGroup(group string) []*Descriptor {
	var out []*Descriptor
	for _, d := range ordered {
		if strings.EqualFold(d.Group, group) {
			out = append(out, d)
		}
	}
	return out
}

// Names returns every command name, sorted.
func Names() []string {
	names := make([]string, len(ordered))
	for i, d := range ordered {
		names[i] = d.Command
	}
	return names
}

