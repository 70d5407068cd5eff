// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"carisbatch/batch"
	"carisbatch/catalog"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var listGroup string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog operations",
	Long: `Lists every operation known to the catalog with its product group and,
for operations that select options through a variant key, the variants.`,
	Example:           "  cb list\n  cb list --group hips",
	Args:              cobra.NoArgs,
	ValidArgsFunction: cobra.NoFileCompletions,
	Run: func(cmd *cobra.Command, args []string) {
		descriptors := catalog.All()
		if listGroup != "" {
			descriptors = catalog.InGroup(listGroup)
			if len(descriptors) == 0 {
				fail("unknown group '%s' (groups: %s)", listGroup, strings.Join(catalog.Groups(), ", "))
			}
		}
		renderOperationTable(os.Stdout, descriptors)
	},
}

var describeCmd = &cobra.Command{
	Use:               "describe <operation>",
	Short:             "Show the variants and settings of an operation",
	Example:           "  cb describe ThinPoints",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: operationCompletionFunc,
	Run: func(cmd *cobra.Command, args []string) {
		d, ok := catalog.Lookup(args[0])
		if !ok {
			fail("%v: %s", batch.ErrUnknownOperation, args[0])
		}
		renderDescription(os.Stdout, d)
	},
}

func init() {
	listCmd.Flags().StringVarP(&listGroup, "group", "g", "", "only list operations of this product group")
	_ = listCmd.RegisterFlagCompletionFunc("group", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return catalog.Groups(), cobra.ShellCompDirectiveNoFileComp
	})
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(describeCmd)
}

// newTable returns a table writer sized to the terminal when out is one.
func newTable(out io.Writer) table.Writer {
	tbl := table.NewWriter()
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		width, _, err := term.GetSize(int(f.Fd()))
		if err == nil {
			tbl.SetAllowedRowLength(width)
		}
	}
	tbl.SetOutputMirror(out)
	tbl.SetStyle(table.StyleRounded)
	return tbl
}

func renderOperationTable(out io.Writer, descriptors []*catalog.Descriptor) {
	tbl := newTable(out)
	tbl.AppendHeader(table.Row{"Operation", "Group", "Variants", "Summary"})
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Variants", WidthMax: 30, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Summary", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
	})
	for _, d := range descriptors {
		variants := ""
		if d.Discriminated() {
			variants = strings.Join(d.VariantNames(), ", ")
		}
		tbl.AppendRow(table.Row{d.Command, d.Group, variants, d.Summary})
	}
	tbl.AppendFooter(table.Row{"Total", len(descriptors), "", ""}, table.RowConfig{AutoMerge: true})
	tbl.Render()
}

func renderDescription(out io.Writer, d *catalog.Descriptor) {
	fmt.Fprintf(out, "%s (%s)\n", text.Bold.Sprint(d.Command), d.Group)
	if d.Summary != "" {
		fmt.Fprintln(out, d.Summary)
	}
	fmt.Fprintln(out)

	if !d.Discriminated() {
		renderSettings(out, "Settings", d.Common)
		return
	}
	fmt.Fprintf(out, "Variant key: %s (one of %s)\n\n", batch.FlagName(d.OptionKey), strings.Join(d.VariantNames(), ", "))
	renderSettings(out, "Common", d.Common)
	for _, name := range d.VariantNames() {
		defaults, _ := d.Variant(name)
		fmt.Fprintln(out)
		renderSettings(out, name, defaults)
	}
}

func renderSettings(out io.Writer, title string, defaults catalog.Defaults) {
	tbl := newTable(out)
	tbl.SetTitle(title)
	tbl.AppendHeader(table.Row{"Setting", "Flag", "Default", "Repeatable"})
	for _, s := range defaults {
		repeatable := ""
		if batch.IsRepeatable(s.Name) {
			repeatable = "yes"
		}
		def := ""
		if s.Default != nil {
			def = fmt.Sprint(s.Default)
		}
		tbl.AppendRow(table.Row{s.Name, batch.FlagName(s.Name), def, repeatable})
	}
	if len(defaults) == 0 {
		tbl.AppendRow(table.Row{"(none)", "", "", ""})
	}
	tbl.Render()
}
