// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package catalog_test

import (
	"testing"

	"carisbatch/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedTablesLoad(t *testing.T) {
	all := catalog.All()
	assert.Len(t, all, 134)
	assert.Equal(t, []string{
		"base_editor",
		"compose",
		"czmil",
		"engineering_analysis",
		"feature_editing",
		"hips",
		"variable_resolution_surface",
	}, catalog.Groups())

	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Command, all[i].Command)
	}
}

func TestEveryOperationResolvesItsDefaultVariant(t *testing.T) {
	for _, d := range catalog.All() {
		if d.Discriminated() {
			_, ok := d.Common.Get(d.OptionKey)
			assert.True(t, ok, "%s: option key %s missing from common settings", d.Command, d.OptionKey)
			assert.NotEmpty(t, d.VariantNames(), d.Command)
			for _, name := range d.VariantNames() {
				_, ok := d.Variant(name)
				assert.True(t, ok, "%s: variant %s", d.Command, name)
			}
			continue
		}
		_, ok := d.Variant(d.Command)
		assert.True(t, ok, "%s has no variant keyed by its command name", d.Command)
	}
}

func TestLookupIgnoresCase(t *testing.T) {
	d, ok := catalog.Lookup("thinpoints")
	require.True(t, ok)
	assert.Equal(t, "ThinPoints", d.Command)
	assert.Equal(t, "method", d.OptionKey)
	assert.Equal(t, []string{"RANDOM", "MINIMUM_DISTANCE", "APPLY_BIAS"}, d.VariantNames())

	random, ok := d.Variant("random")
	require.True(t, ok)
	assert.Equal(t, []string{"percentage"}, random.Names())

	_, ok = catalog.Lookup("NoSuchOperation")
	assert.False(t, ok)
}

func TestCatalogFixups(t *testing.T) {
	update, ok := catalog.Lookup("UpdateBandValues")
	require.True(t, ok)
	assert.Equal(t, "band_type", update.OptionKey)

	for _, name := range []string{"ClassifyHIPSNoise", "GridPointsUsingCUBE", "CompareHIPS"} {
		d, ok := catalog.Lookup(name)
		require.True(t, ok, name)
		assert.False(t, d.Discriminated(), name)
		_, ok = d.Variant(name)
		assert.True(t, ok, name)
	}
}

func TestInGroup(t *testing.T) {
	hips := catalog.InGroup("HIPS")
	require.NotEmpty(t, hips)
	for _, d := range hips {
		assert.Equal(t, "hips", d.Group)
	}
}

func TestParsePreservesOrderAndTypes(t *testing.T) {
	data := []byte(`
- command: Example
  summary: Does a thing.
  option_key: mode
  common:
    mode: null
    zeta: 5
    alpha: 0.1
  variants:
    fast:
      gamma: "text"
      beta: false
    SLOW: {}
`)
	descriptors, err := catalog.Parse("test", data)
	require.NoError(t, err)
	require.Len(t, descriptors, 1)

	d := descriptors[0]
	assert.Equal(t, "test", d.Group)
	assert.Equal(t, "Does a thing.", d.Summary)
	assert.Equal(t, []string{"mode", "zeta", "alpha"}, d.Common.Names())
	assert.Equal(t, []string{"FAST", "SLOW"}, d.VariantNames())

	zeta, _ := d.Common.Get("zeta")
	assert.Equal(t, 5, zeta)
	alpha, _ := d.Common.Get("alpha")
	assert.Equal(t, 0.1, alpha)

	fast, ok := d.Variant("Fast")
	require.True(t, ok)
	assert.Equal(t, []string{"gamma", "beta"}, fast.Names())
}

func TestParseRejectsMalformedTables(t *testing.T) {
	cases := []struct {
		name string
		data string
		err  string
	}{
		{
			name: "missing command",
			data: "- summary: nothing\n",
			err:  "missing command name",
		},
		{
			name: "option key not common",
			data: "- command: A\n  option_key: mode\n  variants:\n    X: {}\n",
			err:  "is not a common setting",
		},
		{
			name: "variants without option key",
			data: "- command: A\n  variants:\n    X: {}\n",
			err:  "without an option_key",
		},
		{
			name: "option key without variants",
			data: "- command: A\n  option_key: mode\n  common:\n    mode: null\n",
			err:  "declared without variants",
		},
		{
			name: "duplicate setting",
			data: "- command: A\n  common:\n    a_b: null\n    a-b: null\n",
			err:  "declared twice",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := catalog.Parse("test", []byte(c.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), c.err)
		})
	}
}

func TestMerge(t *testing.T) {
	base := catalog.Defaults{{Name: "a"}, {Name: "b", Default: 1}}
	variant := catalog.Defaults{{Name: "c"}, {Name: "b", Default: 2}}

	merged := base.Merge(variant)
	assert.Equal(t, []string{"a", "b", "c"}, merged.Names())
	b, _ := merged.Get("b")
	assert.Equal(t, 2, b)

	// the inputs are left alone
	b, _ = base.Get("b")
	assert.Equal(t, 1, b)
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "include_band", catalog.NormalizeKey("include-band"))
	assert.Equal(t, "_include_band", catalog.NormalizeKey("--include-band"))
	assert.Equal(t, "output_crs", catalog.NormalizeKey("_output_crs"))
	assert.Equal(t, "output_crs", catalog.NormalizeKey("-output-crs"))
}

func TestSettingNamesAreUniquePerTable(t *testing.T) {
	unique := func(t *testing.T, label string, defaults catalog.Defaults) {
		t.Helper()
		seen := make(map[string]bool, len(defaults))
		for _, s := range defaults {
			assert.False(t, seen[s.Name], "%s: %s declared twice", label, s.Name)
			seen[s.Name] = true
		}
	}
	for _, d := range catalog.All() {
		unique(t, d.Command, d.Common)
		for _, name := range d.VariantNames() {
			v, _ := d.Variant(name)
			unique(t, d.Command+"/"+name, v)
		}
	}

	georef, ok := catalog.Lookup("GeoreferenceHIPSBathymetry")
	require.True(t, ok)
	count := 0
	for _, name := range georef.Common.Names() {
		if name == "source_heave" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
