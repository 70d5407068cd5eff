// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package cli

import (
	"strings"

	"carisbatch/batch"
	"carisbatch/catalog"
	"carisbatch/internal/config"
	"carisbatch/internal/runner"

	"github.com/spf13/cobra"
)

// operationCompletionFunc completes the operation name argument.
func operationCompletionFunc(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return completeOperations(toComplete), cobra.ShellCompDirectiveNoFileComp
}

// operationSettingCompletionFunc completes the operation name, then its
// setting keys as "key=".
func operationSettingCompletionFunc(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return completeOperations(toComplete), cobra.ShellCompDirectiveNoFileComp
	}
	d, ok := catalog.Lookup(args[0])
	if !ok {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	// Once the variant key is set only its own settings apply.
	settings := d.Common
	for _, arg := range args[1:] {
		key, value, found := strings.Cut(arg, "=")
		if found && d.Discriminated() && catalog.NormalizeKey(key) == d.OptionKey {
			if variant, ok := d.Variant(value); ok {
				settings = settings.Merge(variant)
			}
		}
	}

	key, _, found := strings.Cut(toComplete, "=")
	if found && d.Discriminated() && catalog.NormalizeKey(key) == d.OptionKey {
		var out []string
		for _, v := range d.VariantNames() {
			out = append(out, key+"="+v)
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	}

	var out []string
	for _, s := range settings {
		name := strings.TrimPrefix(batch.FlagName(s.Name), "--")
		if strings.HasPrefix(name, toComplete) {
			out = append(out, name+"=")
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

func completeOperations(prefix string) []string {
	var out []string
	for _, name := range catalog.Names() {
		if strings.HasPrefix(strings.ToLower(name), strings.ToLower(prefix)) {
			out = append(out, name)
		}
	}
	return out
}

// hostCompletionFunc completes configured host names plus "local".
func hostCompletionFunc(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	loaded, err := config.LoadConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	hosts := []string{runner.LocalTarget}
	for _, h := range loaded.EnabledHosts() {
		hosts = append(hosts, h.Name)
	}
	var out []string
	for _, h := range hosts {
		if strings.HasPrefix(h, toComplete) {
			out = append(out, h)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
