// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package catalog

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults is an ordered set of settings. The order is the order in which the
// options are written to the command line.
type Defaults []Setting

// UnmarshalYAML decodes a YAML mapping while keeping its key order, which a
// plain map would lose.
func (d *Defaults) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping of settings", node.Line)
	}
	out := make(Defaults, 0, len(node.Content)/2)
	seen := make(map[string]bool, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		name := NormalizeKey(keyNode.Value)
		if name == "" {
			return fmt.Errorf("line %d: empty setting name", keyNode.Line)
		}
		if seen[name] {
			return fmt.Errorf("line %d: setting %q declared twice", keyNode.Line, name)
		}
		seen[name] = true

		var value any
		if err := valueNode.Decode(&value); err != nil {
			return fmt.Errorf("line %d: setting %q: %w", valueNode.Line, name, err)
		}
		out = append(out, Setting{Name: name, Default: value})
	}
	*d = out
	return nil
}

// Names returns the setting names in order.
func (d Defaults) Names() []string {
	names := make([]string, len(d))
	for i, s := range d {
		names[i] = s.Name
	}
	return names
}

// Get returns the default for name.
func (d Defaults) Get(name string) (any, bool) {
	for _, s := range d {
		if s.Name == name {
			return s.Default, true
		}
	}
	return nil, false
}

// Merge returns the union of d and other. A name keeps the position of its
// first occurrence and takes the value of its last.
func (d Defaults) Merge(other Defaults) Defaults {
	out := make(Defaults, 0, len(d)+len(other))
	index := make(map[string]int, len(d)+len(other))
	for _, set := range []Defaults{d, other} {
		for _, s := range set {
			if i, ok := index[s.Name]; ok {
				out[i].Default = s.Default
				continue
			}
			index[s.Name] = len(out)
			out = append(out, s)
		}
	}
	return out
}

// NormalizeKey converts an option name to its canonical settings form:
// hyphens become underscores and a single leading separator is dropped.
func NormalizeKey(key string) string {
	key = strings.ReplaceAll(strings.TrimSpace(key), "-", "_")
	return strings.TrimPrefix(key, "_")
}

type rawDescriptor struct {
	Command   string    `yaml:"command"`
	Summary   string    `yaml:"summary"`
	OptionKey string    `yaml:"option_key"`
	Common    Defaults  `yaml:"common"`
	Variants  yaml.Node `yaml:"variants"`
}

// Parse decodes one catalog table. Each document is a YAML sequence of
// operations:
//
//	- command: ThinPoints
//	  option_key: method
//	  common:
//	    method: null
//	  variants:
//	    RANDOM:
//	      percentage: null
//
// Operations without an option_key must not declare variants; they get a
// single variant keyed by their command name.
func Parse(group string, data []byte) ([]*Descriptor, error) {
	var raw []rawDescriptor
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode catalog table: %w", err)
	}

	descriptors := make([]*Descriptor, 0, len(raw))
	for i, r := range raw {
		d, err := r.build(group)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

func (r rawDescriptor) build(group string) (*Descriptor, error) {
	command := strings.TrimSpace(r.Command)
	if command == "" {
		return nil, fmt.Errorf("missing command name")
	}
	d := &Descriptor{
		Command:   command,
		Group:     group,
		Summary:   strings.TrimSpace(r.Summary),
		OptionKey: NormalizeKey(r.OptionKey),
		Common:    r.Common,
		variants:  map[string]Defaults{},
	}

	if !d.Discriminated() {
		if r.Variants.Kind != 0 {
			return nil, fmt.Errorf("%s: variants declared without an option_key", command)
		}
		d.variants[d.DefaultVariant()] = Defaults{}
		d.variantOrder = []string{d.DefaultVariant()}
		return d, nil
	}

	if _, ok := d.Common.Get(d.OptionKey); !ok {
		return nil, fmt.Errorf("%s: option_key %q is not a common setting", command, d.OptionKey)
	}
	if r.Variants.Kind != yaml.MappingNode || len(r.Variants.Content) == 0 {
		return nil, fmt.Errorf("%s: option_key %q declared without variants", command, d.OptionKey)
	}
	for i := 0; i+1 < len(r.Variants.Content); i += 2 {
		name := strings.ToUpper(strings.TrimSpace(r.Variants.Content[i].Value))
		if _, exists := d.variants[name]; exists {
			return nil, fmt.Errorf("%s: variant %s declared twice", command, name)
		}
		var defaults Defaults
		if err := r.Variants.Content[i+1].Decode(&defaults); err != nil {
			return nil, fmt.Errorf("%s: variant %s: %w", command, name, err)
		}
		d.variants[name] = defaults
		d.variantOrder = append(d.variantOrder, name)
	}
	return d, nil
}
