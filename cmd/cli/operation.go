// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package cli

import (
	"fmt"
	"time"

	"carisbatch/batch"
	"carisbatch/internal/util"

	"github.com/spf13/cobra"
)

// operationFlags holds the path and selector flags shared by cmd and run.
type operationFlags struct {
	input     string
	output    string
	inputURI  bool
	outputURI bool
	vessels   []string
	days      []string
	lines     []string
	files     []string
	tool      string
}

func (f *operationFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.input, "input", "i", "", "input file or folder")
	fl.StringVarP(&f.output, "output", "o", "", "output file or folder")
	fl.BoolVar(&f.inputURI, "input-uri", false, "pass the input as a file:// URI")
	fl.BoolVar(&f.outputURI, "output-uri", false, "pass the output as a file:// URI")
	fl.StringArrayVar(&f.vessels, "vessel", nil, "HIPS vessel selector (repeatable)")
	fl.StringArrayVar(&f.days, "day", nil, "HIPS day selector (repeatable)")
	fl.StringArrayVar(&f.lines, "line", nil, "HIPS line selector (repeatable)")
	fl.StringArrayVar(&f.files, "file", nil, "auxiliary file placed before the input (repeatable)")
	fl.StringVar(&f.tool, "tool", "", "batch tool executable (default: discovered)")
}

// buildOperation resolves args[0] in the catalog and configures it with the
// key=value settings in args[1:].
func buildOperation(args []string, f *operationFlags) (*batch.Operation, error) {
	op, err := batch.New(args[0])
	if err != nil {
		return nil, err
	}
	op.Input, op.Output = f.input, f.output
	op.InputAsURI, op.OutputAsURI = f.inputURI, f.outputURI
	op.Vessels, op.Days, op.Lines = f.vessels, f.days, f.lines
	op.FilesToLoad = f.files
	op.Tool = f.tool

	settings, err := util.ParseAssignments(args[1:])
	if err != nil {
		return nil, err
	}
	if len(settings) > 0 || op.Descriptor().Discriminated() {
		if err := op.Configure(batch.Settings(settings)); err != nil {
			return nil, err
		}
	}
	return op, nil
}

var cmdFlags operationFlags

var cmdCmd = &cobra.Command{
	Use:   "cmd <operation> [key=value | flag]...",
	Short: "Print the carisbatch command line for an operation",
	Long: `Builds the command line for an operation without running it.

Settings are given as key=value; a key repeated accumulates a list and a bare
key turns a flag on. Keys may use '-' or '_' and one leading '-' is ignored.`,
	Example: `  cb cmd ThinPoints -i in.csar -o out.csar method=RANDOM percentage=10
  cb cmd ExportRaster -i in.csar -o out.bag -- output-format=BAG include-band=Depth include-band=Uncertainty`,
	Args:              cobra.MinimumNArgs(1),
	ValidArgsFunction: operationSettingCompletionFunc,
	Run: func(cmd *cobra.Command, args []string) {
		op, err := buildOperation(args, &cmdFlags)
		if err != nil {
			fail("%v", err)
		}
		if op.Tool == "" {
			op.Tool = localTool()
		}
		line, err := op.CommandLine()
		if err != nil {
			fail("%v", err)
		}
		fmt.Println(line)
	},
}

var (
	runFlags   operationFlags
	runHost    string
	runTimeout time.Duration
	runStream  bool
	runJSON    bool
)

var runCmd = &cobra.Command{
	Use:   "run <operation> [key=value | flag]...",
	Short: "Run an operation locally or on an SSH host",
	Long: `Builds the command line for an operation and runs it, waiting at most
--timeout (default from configuration, else one hour). The tool's exit code
becomes this command's exit code.`,
	Example: `  cb run ThinPoints -i in.csar -o out.csar method=RANDOM percentage=10
  cb run ExportRaster --host proc1 --timeout 2h -i /data/in.csar -o /data/out.bag output-format=BAG include-band=Depth`,
	Args:              cobra.MinimumNArgs(1),
	ValidArgsFunction: operationSettingCompletionFunc,
	Run: func(cmd *cobra.Command, args []string) {
		op, err := buildOperation(args, &runFlags)
		if err != nil {
			fail("%v", err)
		}
		timeout := runTimeout
		if timeout <= 0 {
			if timeout, err = cfg.Timeout(); err != nil {
				fail("%v", err)
			}
		}
		res := runOperation(cmd.Context(), op, hostOrDefault(runHost), timeout, runStream)
		if runJSON {
			printResultJSON(res)
		} else {
			printResult(res, runStream)
		}
		if res.Failed() {
			exitWith(exitCode(res))
		}
	},
}

func init() {
	cmdFlags.register(cmdCmd)
	runFlags.register(runCmd)
	runCmd.Flags().StringVar(&runHost, "host", "", "SSH host to run on ('local' for this machine)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "maximum run time, e.g. 90m")
	runCmd.Flags().BoolVar(&runStream, "stream", false, "show the tool's output while it runs")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the result as JSON")
	_ = runCmd.RegisterFlagCompletionFunc("host", hostCompletionFunc)

	rootCmd.AddCommand(cmdCmd)
	rootCmd.AddCommand(runCmd)
}
