// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package cli

import (
	"bytes"
	"testing"

	"carisbatch/batch"
	"carisbatch/catalog"
	"carisbatch/internal/config"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOperation(t *testing.T) {
	f := &operationFlags{input: "in.csar", output: "out.csar", tool: "carisbatch"}
	op, err := buildOperation([]string{"ThinPoints", "method=RANDOM", "percentage=10"}, f)
	require.NoError(t, err)

	line, err := op.CommandLine()
	require.NoError(t, err)
	assert.Equal(t, `carisbatch --run ThinPoints --method "RANDOM" --percentage "10" "in.csar" "out.csar"`, line)
}

func TestBuildOperationRequiresVariant(t *testing.T) {
	f := &operationFlags{input: "in.csar", output: "out.csar"}
	_, err := buildOperation([]string{"thinpoints"}, f)
	assert.ErrorIs(t, err, batch.ErrUnsupportedOption)

	op, err := buildOperation([]string{"thinpoints", "method=minimum_distance"}, f)
	require.NoError(t, err)
	assert.Equal(t, "MINIMUM_DISTANCE", op.Variant())
}

func TestBuildOperationErrors(t *testing.T) {
	_, err := buildOperation([]string{"NoSuchOperation"}, &operationFlags{})
	assert.ErrorIs(t, err, batch.ErrUnknownOperation)

	_, err = buildOperation([]string{"ThinPoints", "=RANDOM"}, &operationFlags{})
	assert.Error(t, err)

	_, err = buildOperation([]string{"ThinPoints", "method=RANDOM", "not_a_setting=1"}, &operationFlags{})
	assert.ErrorIs(t, err, batch.ErrInvalidSetting)
}

func TestParseImportSelection(t *testing.T) {
	importable := []config.PotentialHost{{Alias: "a"}, {Alias: "b"}, {Alias: "c"}}

	tests := []struct {
		name    string
		choice  string
		want    []string
		wantErr bool
	}{
		{name: "all", choice: "ALL", want: []string{"a", "b", "c"}},
		{name: "list", choice: "3, 1", want: []string{"c", "a"}},
		{name: "duplicates", choice: "2,2", want: []string{"b"}},
		{name: "out of range", choice: "4", wantErr: true},
		{name: "not a number", choice: "x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseImportSelection(tt.choice, importable)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			var aliases []string
			for _, p := range got {
				aliases = append(aliases, p.Alias)
			}
			assert.Equal(t, tt.want, aliases)
		})
	}
}

func TestImportableHostsSkipsConfigured(t *testing.T) {
	potential := []config.PotentialHost{{Alias: "proc1"}, {Alias: "proc2"}}
	current := []config.SSHHost{{Name: "proc1"}}

	got := importableHosts(potential, current)
	require.Len(t, got, 1)
	assert.Equal(t, "proc2", got[0].Alias)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 3, exitCode(batch.Result{ExitCode: 3}))
	assert.Equal(t, 1, exitCode(batch.Result{ExitCode: -1}))
	assert.Equal(t, 1, exitCode(batch.Result{ExitCode: 300}))
}

func TestOperationSettingCompletion(t *testing.T) {
	names, _ := operationSettingCompletionFunc(&cobra.Command{}, nil, "thin")
	assert.Contains(t, names, "ThinPoints")

	keys, _ := operationSettingCompletionFunc(&cobra.Command{}, []string{"ThinPoints", "method=RANDOM"}, "perc")
	assert.Equal(t, []string{"percentage="}, keys)

	variants, _ := operationSettingCompletionFunc(&cobra.Command{}, []string{"ThinPoints"}, "method=")
	assert.Contains(t, variants, "method=RANDOM")
}

func TestRenderDescription(t *testing.T) {
	d, ok := catalog.Lookup("ThinPoints")
	require.True(t, ok)

	var buf bytes.Buffer
	renderDescription(&buf, d)
	out := buf.String()
	assert.Contains(t, out, "Variant key: --method")
	assert.Contains(t, out, "MINIMUM_DISTANCE")
	assert.Contains(t, out, "--percentage")
}

func TestOperationFlagsKeepCommas(t *testing.T) {
	var f operationFlags
	cmd := &cobra.Command{Use: "test"}
	f.register(cmd)

	require.NoError(t, cmd.Flags().Parse([]string{
		"--file", "a,b.svp",
		"--vessel", "Launch 1,2", "--vessel", "Launch 3",
		"--day", "2024-001", "--line", "0001,A",
	}))
	assert.Equal(t, []string{"a,b.svp"}, f.files)
	assert.Equal(t, []string{"Launch 1,2", "Launch 3"}, f.vessels)
	assert.Equal(t, []string{"2024-001"}, f.days)
	assert.Equal(t, []string{"0001,A"}, f.lines)
}
