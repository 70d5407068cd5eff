// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package batch_test

import (
	"strings"
	"testing"

	"carisbatch/batch"
	"carisbatch/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func names(settings []catalog.Setting) []string {
	out := make([]string, len(settings))
	for i, s := range settings {
		out[i] = s.Name
	}
	return out
}

type ConfigureSuite struct {
	suite.Suite
	op *batch.Operation
}

func (s *ConfigureSuite) SetupTest() {
	s.op = batch.MustNew("ThinPoints")
	s.op.Input, s.op.Output = "in.csar", "out.csar"
}

func (s *ConfigureSuite) TestFirstConfigureBuildsVariantSettings() {
	s.Require().NoError(s.op.Configure(batch.Settings{"method": "RANDOM", "percentage": 10}))

	s.Equal([]string{"method", "include_band", "comments", "percentage"}, names(s.op.Settings()))
	s.Equal("RANDOM", s.op.Variant())
	v, ok := s.op.Setting("percentage")
	s.True(ok)
	s.Equal(10, v)
}

func (s *ConfigureSuite) TestDiscriminatorChangeRebuilds() {
	s.Require().NoError(s.op.Configure(batch.Settings{"method": "RANDOM", "percentage": 10}))
	s.Require().NoError(s.op.Configure(batch.Settings{"method": "MINIMUM_DISTANCE", "minimum_distance": 5}))

	s.Equal([]string{"method", "include_band", "comments", "minimum_distance", "scale"}, names(s.op.Settings()))
	s.Equal("MINIMUM_DISTANCE", s.op.Variant())
	_, ok := s.op.Setting("percentage")
	s.False(ok)

	line, err := s.op.CommandLine()
	s.Require().NoError(err)
	s.Equal(`carisbatch --run ThinPoints --method "MINIMUM_DISTANCE" --minimum-distance "5" "in.csar" "out.csar"`, line)
}

func (s *ConfigureSuite) TestDiscriminatorChangeResetsCommonSettings() {
	s.Require().NoError(s.op.Configure(batch.Settings{"method": "RANDOM", "percentage": 10, "include_band": "Depth", "comments": "first pass"}))
	s.Require().NoError(s.op.Configure(batch.Settings{"method": "MINIMUM_DISTANCE", "minimum_distance": 5}))

	for _, key := range []string{"include_band", "comments"} {
		v, ok := s.op.Setting(key)
		s.True(ok, key)
		s.Nil(v, key)
	}
}

func (s *ConfigureSuite) TestDiscriminatorChangeKeepsResuppliedCommonSettings() {
	s.Require().NoError(s.op.Configure(batch.Settings{"method": "RANDOM", "percentage": 10, "include_band": "Depth", "comments": "first pass"}))
	s.Require().NoError(s.op.Configure(batch.Settings{"method": "MINIMUM_DISTANCE", "minimum_distance": 5, "include_band": "Density"}))

	v, _ := s.op.Setting("include_band")
	s.Equal("Density", v)
	v, ok := s.op.Setting("comments")
	s.True(ok)
	s.Nil(v)

	line, err := s.op.CommandLine()
	s.Require().NoError(err)
	s.Equal(`carisbatch --run ThinPoints --method "MINIMUM_DISTANCE" --include-band "Density" --minimum-distance "5" "in.csar" "out.csar"`, line)
}

func (s *ConfigureSuite) TestSameDiscriminatorKeepsSettings() {
	s.Require().NoError(s.op.Configure(batch.Settings{"method": "RANDOM", "percentage": 10}))
	s.Require().NoError(s.op.Configure(batch.Settings{"method": "RANDOM", "include_band": "Depth"}))
	s.Require().NoError(s.op.Configure(batch.Settings{"comments": "second pass"}))

	v, _ := s.op.Setting("percentage")
	s.Equal(10, v)
	v, _ = s.op.Setting("include_band")
	s.Equal("Depth", v)
	v, _ = s.op.Setting("comments")
	s.Equal("second pass", v)
}

func (s *ConfigureSuite) TestVariantLookupIsCaseInsensitive() {
	s.Require().NoError(s.op.Configure(batch.Settings{"method": "random", "percentage": 10}))
	s.Equal("RANDOM", s.op.Variant())

	line, err := s.op.CommandLine()
	s.Require().NoError(err)
	s.Contains(line, `--method "random"`)
}

func (s *ConfigureSuite) TestKeysAreNormalized() {
	s.Require().NoError(s.op.Configure(batch.Settings{"-method": "RANDOM", "include-band": "Depth", "_percentage": 5}))

	v, ok := s.op.Setting("include-band")
	s.True(ok)
	s.Equal("Depth", v)
	v, _ = s.op.Setting("percentage")
	s.Equal(5, v)
}

func (s *ConfigureSuite) TestUnsupportedOption() {
	err := s.op.Configure(batch.Settings{"method": "BOGUS"})
	s.ErrorIs(err, batch.ErrUnsupportedOption)
	s.Contains(err.Error(), "BOGUS")
	s.False(s.op.Configured())
}

func (s *ConfigureSuite) TestMissingDiscriminatorFallsBackToCommand() {
	err := s.op.Configure(batch.Settings{"percentage": 10})
	s.ErrorIs(err, batch.ErrUnsupportedOption)
	s.Contains(err.Error(), "ThinPoints")
}

func (s *ConfigureSuite) TestInvalidSettingNamesKeyAndVariant() {
	err := s.op.Configure(batch.Settings{"method": "RANDOM", "scale": 2})
	s.ErrorIs(err, batch.ErrInvalidSetting)
	s.Contains(err.Error(), "'scale'")
	s.Contains(err.Error(), "RANDOM")
	s.False(s.op.Configured())
}

func (s *ConfigureSuite) TestInvalidSettingReportsFirstKeyInOrder() {
	err := s.op.Configure(batch.Settings{"method": "RANDOM", "zzz": 1, "aaa": 2})
	s.ErrorIs(err, batch.ErrInvalidSetting)
	s.Contains(err.Error(), "'aaa'")
}

func (s *ConfigureSuite) TestFailedUpdateKeepsPreviousSettings() {
	s.Require().NoError(s.op.Configure(batch.Settings{"method": "RANDOM", "percentage": 10}))
	before := s.op.Settings()

	s.Error(s.op.Configure(batch.Settings{"comments": "lost", "percentage": 20, "scale": 1}))
	s.Equal(before, s.op.Settings())

	s.Error(s.op.Configure(batch.Settings{"method": "BOGUS"}))
	s.Equal(before, s.op.Settings())
	s.Equal("RANDOM", s.op.Variant())
}

func (s *ConfigureSuite) TestSettingsSnapshotIsACopy() {
	s.Require().NoError(s.op.Configure(batch.Settings{"method": "RANDOM", "percentage": 10}))
	snapshot := s.op.Settings()
	snapshot[3].Default = 99

	v, _ := s.op.Setting("percentage")
	s.Equal(10, v)
}

func TestConfigureSuite(t *testing.T) {
	suite.Run(t, new(ConfigureSuite))
}

func TestNewUnknownOperation(t *testing.T) {
	_, err := batch.New("NoSuchThing")
	assert.ErrorIs(t, err, batch.ErrUnknownOperation)
	assert.Panics(t, func() { batch.MustNew("NoSuchThing") })
}

func TestNewIsCaseInsensitive(t *testing.T) {
	op, err := batch.New("thinpoints")
	require.NoError(t, err)
	assert.Equal(t, "ThinPoints", op.String())
}

func TestArgsRequiresInputOrOutput(t *testing.T) {
	op := batch.MustNew("TileRaster")
	_, err := op.Args()
	assert.ErrorIs(t, err, batch.ErrNotConfigured)
}

func TestArgsRequiresSettingsForVariants(t *testing.T) {
	op := batch.MustNew("ThinPoints")
	op.Input = "in.csar"
	_, err := op.Args()
	assert.ErrorIs(t, err, batch.ErrSettingsNotConfigured)
}

func TestArgsUsesDefaultsWhenNeverConfigured(t *testing.T) {
	op := batch.MustNew("TileRaster")
	op.Input = "in.csar"

	line, err := op.CommandLine()
	require.NoError(t, err)
	assert.Equal(t, `carisbatch --run TileRaster "in.csar"`, line)
	assert.False(t, op.Configured())
}

func TestOperationWithoutVariantsRejectsUnknownKey(t *testing.T) {
	op := batch.MustNew("TileRaster")
	err := op.Configure(batch.Settings{"size": 512, "method": "RANDOM"})
	assert.ErrorIs(t, err, batch.ErrInvalidSetting)
	assert.Contains(t, err.Error(), "TileRaster")

	require.NoError(t, op.Configure(batch.Settings{"size": 512}))
	assert.Equal(t, "TILERASTER", op.Variant())
}

const exampleTable = `
- command: Example
  summary: Exercises every value kind.
  common:
    flag: null
    off: null
    name: null
    ratio: null
    level: null
    bands: null
    zero: null
    unset: null
`

func example(t *testing.T) *batch.Operation {
	t.Helper()
	descriptors, err := catalog.Parse("test", []byte(exampleTable))
	require.NoError(t, err)
	require.Len(t, descriptors, 1)
	return batch.NewFromDescriptor(descriptors[0])
}

func TestArgsTokenOrder(t *testing.T) {
	op := example(t)
	op.Input, op.Output = "in.csar", "out.csar"
	op.FilesToLoad = []string{"a.svp", "", "b.svp"}
	require.NoError(t, op.Configure(batch.Settings{
		"flag":  true,
		"off":   false,
		"name":  "x",
		"ratio": 10.0,
		"level": []string{"a", "b"},
		"bands": []string{"Depth", "Uncertainty"},
		"zero":  0,
	}))

	args, err := op.Args()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"carisbatch", "--run", "Example",
		"--flag",
		`--name "x"`,
		`--ratio "10.0"`,
		`--level "a"`, `--level "b"`,
		"--bands", `"Depth"`, `"Uncertainty"`,
		`"a.svp"`, `"b.svp"`,
		`"in.csar"`, `"out.csar"`,
	}, args)

	line, err := op.CommandLine()
	require.NoError(t, err)
	assert.Equal(t, strings.Join(args, " "), line)
}

func TestArgsOutputOnly(t *testing.T) {
	op := example(t)
	op.Output = "out.csar"

	line, err := op.CommandLine()
	require.NoError(t, err)
	assert.Equal(t, `carisbatch --run Example "out.csar"`, line)
}

func TestArgsUnsupportedValue(t *testing.T) {
	op := example(t)
	op.Input = "in.csar"
	require.NoError(t, op.Configure(batch.Settings{"name": map[string]int{"a": 1}}))

	_, err := op.Args()
	assert.ErrorIs(t, err, batch.ErrUnsupportedValue)
}

func TestToolWithSpacesIsQuoted(t *testing.T) {
	op := example(t)
	op.Input = "in.csar"
	op.Tool = `C:\Program Files\CARIS\BASE Editor\6.1\bin\carisbatch.exe`

	args, err := op.Args()
	require.NoError(t, err)
	assert.Equal(t, `"C:\Program Files\CARIS\BASE Editor\6.1\bin\carisbatch.exe"`, args[0])
}

func TestEveryCatalogOperationBuildsACommandLine(t *testing.T) {
	for _, d := range catalog.All() {
		op := batch.NewFromDescriptor(d)
		op.Input, op.Output = "in", "out"

		update := batch.Settings{}
		if d.Discriminated() {
			variants := d.VariantNames()
			require.NotEmpty(t, variants, d.Command)
			update[d.OptionKey] = variants[0]
		}
		require.NoError(t, op.Configure(update), d.Command)

		line, err := op.CommandLine()
		require.NoError(t, err, d.Command)
		assert.True(t, strings.HasPrefix(line, "carisbatch --run "+d.Command), line)
	}
}
