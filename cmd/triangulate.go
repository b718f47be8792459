package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/vest-cli/internal/market"
	"github.com/sells-group/vest-cli/internal/model"
	"github.com/sells-group/vest-cli/internal/triangulate"
)

var triangulateCmd = &cobra.Command{
	Use:   "triangulate",
	Short: "Estimate a sold-price range from an AI estimate and asking prices",
	Long: `Blend an AI price estimate with active asking prices into a trusted
low/mid/high sold-price range. Either input may be omitted.

Examples:
  # AI estimate only
  vest triangulate --ai-low 15 --ai-mid 25 --ai-high 35

  # Asking prices only, from a JSON array of listings
  vest triangulate --listings listings.json`,
	RunE: runTriangulate,
}

func init() {
	f := triangulateCmd.Flags()
	f.Float64("ai-low", 0, "AI estimate low")
	f.Float64("ai-mid", 0, "AI estimate mid")
	f.Float64("ai-high", 0, "AI estimate high")
	f.Float64("ai-confidence", 0.5, "AI estimate confidence in [0,1]")
	f.String("listings", "", "JSON array of active listings (- for stdin)")
	f.String("format", "table", "output format: table or json")

	rootCmd.AddCommand(triangulateCmd)
}

func runTriangulate(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	format, _ := f.GetString("format")

	var ai *model.ItemPriceEstimate
	if f.Changed("ai-mid") {
		low, _ := f.GetFloat64("ai-low")
		mid, _ := f.GetFloat64("ai-mid")
		high, _ := f.GetFloat64("ai-high")
		conf, _ := f.GetFloat64("ai-confidence")
		ai = &model.ItemPriceEstimate{Low: low, Mid: mid, High: high, Confidence: conf}
	}

	var stats *model.AskingStats
	if path, _ := f.GetString("listings"); path != "" {
		var listings []model.ListingSample
		if err := readJSONInput(cmd, path, &listings); err != nil {
			return err
		}
		s := market.AskingStatsOf(listings)
		stats = &s
	}

	tp := triangulate.Triangulate(ai, stats)

	out := cmd.OutOrStdout()
	if format == "json" {
		return writeJSON(out, tp)
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Range:\t$%.2f / $%.2f / $%.2f\n", tp.Low, tp.Mid, tp.High)
	_, _ = fmt.Fprintf(w, "Confidence:\t%.2f (%s)\n", tp.Confidence, tp.DataQuality)
	_, _ = fmt.Fprintf(w, "Recommendation:\t%s\n", tp.Recommendation)
	_, _ = fmt.Fprintf(w, "Reasoning:\t%s\n", tp.Reasoning)
	_, _ = fmt.Fprintf(w, "Market:\t%s\n", tp.MarketInsight)
	return w.Flush()
}
