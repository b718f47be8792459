package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/vest-cli/internal/model"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Find the highest buy price that still earns each grade",
	Long: `Binary-search the buy price for each target grade against a market
summary. A dash means the grade is out of reach at any price.

Examples:
  vest suggest --summary market.json
  vest suggest --summary market.json --grades A+,A,B`,
	RunE: runSuggest,
}

func init() {
	f := suggestCmd.Flags()
	f.String("summary", "-", "market summary JSON file (- for stdin)")
	f.String("grades", "", "comma-separated target grades (default from config)")
	f.String("format", "table", "output format: table or json")
	addOptionFlags(f)

	rootCmd.AddCommand(suggestCmd)
}

func runSuggest(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("summary")
	grades, _ := cmd.Flags().GetString("grades")
	format, _ := cmd.Flags().GetString("format")

	targets, err := parseGrades(grades)
	if err != nil {
		return err
	}
	opts, err := optionsFromFlags(cmd)
	if err != nil {
		return err
	}

	var summary model.MarketSummary
	if err := readJSONInput(cmd, path, &summary); err != nil {
		return err
	}

	engine, err := initEngine()
	if err != nil {
		return err
	}

	sugg, err := engine.SuggestLadder(cmd.Context(), summary, targets, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		return writeJSON(out, map[string]any{"suggestions": sugg})
	}
	formatSuggestions(out, sugg)
	return nil
}
