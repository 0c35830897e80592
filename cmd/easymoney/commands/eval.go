package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aevon-lab/easymoney/internal/catalog"
	coreerr "github.com/aevon-lab/easymoney/internal/core/errors"
)

const (
	evalCmdUse    = "eval <function> [arg...]"
	evalCmdShort  = "Evaluate one function"
	evalJSONFlag  = "json"
	evalJSONUsage = "print the result as JSON"
)

// NewEvalCommand creates the eval subcommand. Each argument is a YAML
// literal: [1, 2, 3] is a list, 0.2 a number, abc a string.
func NewEvalCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   evalCmdUse,
		Short: evalCmdShort,
		Example: `  easymoney eval AVERAGE "[1, 2, 3, 4]"
  easymoney eval DAYS360 31 1 2000 1 3 2000
  easymoney eval TRIMMEAN "[1, 2, 3, 4, 100]" 0.4`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, catalog.New(nil), args[0], args[1:], asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, evalJSONFlag, false, evalJSONUsage)

	return cmd
}

// parseArgs decodes each raw argument as a YAML literal.
func parseArgs(raw []string) ([]any, error) {
	args := make([]any, len(raw))
	for i, r := range raw {
		var v any
		if err := yaml.Unmarshal([]byte(r), &v); err != nil {
			return nil, fmt.Errorf("argument %d %q: %w", i+1, r, err)
		}
		args[i] = v
	}
	return args, nil
}

func runEval(cmd *cobra.Command, cat *catalog.Catalog, name string, raw []string, asJSON bool) error {
	args, err := parseArgs(raw)
	if err != nil {
		return err
	}

	result, err := cat.Call(name, args)
	if err != nil {
		return fmt.Errorf("%s: %w", coreerr.Kind(err), err)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		undefined := catalog.IsUndefined(result)
		if undefined {
			result = nil
		}
		enc := json.NewEncoder(out)
		return enc.Encode(map[string]any{"result": result, "undefined": undefined})
	}

	_, err = fmt.Fprintln(out, formatValue(result))
	return err
}
