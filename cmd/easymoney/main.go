// Package main provides the entry point for the easymoney CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aevon-lab/easymoney/cmd/easymoney/commands"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "easymoney",
		Short: "easymoney - spreadsheet formula engine",
		Long: `easymoney evaluates spreadsheet-style formulas: statistical aggregates,
30/360 day counts and simple-interest finance.

Commands:
  serve      Run the HTTP evaluation API
  eval       Evaluate one function
  functions  List the function catalog
  sheet      Evaluate YAML sheets`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewEvalCommand())
	rootCmd.AddCommand(commands.NewFunctionsCommand())
	rootCmd.AddCommand(commands.NewSheetCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "easymoney %s (commit: %s)\n", version, commit)
		},
	}
}
