package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/aevon-lab/easymoney/internal/catalog"
	"github.com/aevon-lab/easymoney/internal/sheet"
)

const (
	sheetCmdUse   = "sheet <dir> [name]"
	sheetCmdShort = "Evaluate the YAML sheets in a directory"
	sheetMinArgs  = 1
	sheetMaxArgs  = 2
	sheetCacheCap = 16
)

// NewSheetCommand creates the sheet subcommand.
func NewSheetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   sheetCmdUse,
		Short: sheetCmdShort,
		Args:  cobra.RangeArgs(sheetMinArgs, sheetMaxArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == sheetMaxArgs {
				name = args[1]
			}
			return runSheet(cmd, args[0], name)
		},
	}
}

func runSheet(cmd *cobra.Command, dir, name string) error {
	repo, err := sheet.NewFileSystemRepository(dir)
	if err != nil {
		return err
	}

	var sheets []sheet.Sheet
	if name != "" {
		s, err := repo.Get(cmd.Context(), name)
		if err != nil {
			return err
		}
		sheets = append(sheets, *s)
	} else {
		sheets, err = repo.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(sheets) == 0 {
			return fmt.Errorf("no sheets found in %q", dir)
		}
	}

	evaluator := sheet.NewEvaluator(catalog.New(nil), sheetCacheCap, nil)
	out := cmd.OutOrStdout()

	for i := range sheets {
		res, err := evaluator.Evaluate(cmd.Context(), &sheets[i])
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "%s:\n", res.Sheet)
		tbl := newTable(out)
		tbl.AppendHeader(table.Row{"Cell", "Function", "Value", "Error"})
		for _, c := range res.Cells {
			value := formatValue(c.Value)
			if c.Undefined {
				value = formatValue(catalog.Undefined)
			}
			tbl.AppendRow(table.Row{c.Name, c.Function, value, c.ErrorType})
		}
		tbl.Render()
		fmt.Fprintln(out)
	}

	return nil
}
