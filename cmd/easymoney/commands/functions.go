package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/aevon-lab/easymoney/internal/catalog"
)

const (
	functionsCmdUse       = "functions"
	functionsCmdShort     = "List the function catalog"
	functionsCategoryFlag = "category"
	functionsCategoryUse  = "only list one category (statistical, date, financial, text, math, array, database)"
	functionsAllFlag      = "all"
	functionsAllUsage     = "include unsupported functions"
)

// NewFunctionsCommand creates the functions subcommand.
func NewFunctionsCommand() *cobra.Command {
	var (
		category string
		all      bool
	)

	cmd := &cobra.Command{
		Use:   functionsCmdUse,
		Short: functionsCmdShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFunctions(cmd, catalog.New(nil), category, all)
		},
	}

	cmd.Flags().StringVar(&category, functionsCategoryFlag, "", functionsCategoryUse)
	cmd.Flags().BoolVar(&all, functionsAllFlag, false, functionsAllUsage)

	return cmd
}

func runFunctions(cmd *cobra.Command, cat *catalog.Catalog, category string, all bool) error {
	entries := cat.List()
	if category != "" {
		entries = cat.ListCategory(catalog.Category(strings.ToLower(category)))
		if len(entries) == 0 {
			return fmt.Errorf("unknown category %q", category)
		}
	}

	tbl := newTable(cmd.OutOrStdout())
	tbl.AppendHeader(table.Row{"Name", "Category", "Args", "Summary"})

	shown := 0
	for _, e := range entries {
		if !e.Supported && !all {
			continue
		}
		tbl.AppendRow(table.Row{e.Name, e.Category, e.Arity(), e.Summary})
		shown++
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d functions", shown)})
	tbl.Render()

	return nil
}
