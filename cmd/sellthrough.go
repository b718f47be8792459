package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/vest-cli/internal/model"
	"github.com/sells-group/vest-cli/internal/velocity"
)

var sellThroughCmd = &cobra.Command{
	Use:   "sell-through",
	Short: "Estimate sell-through rate and days to sell",
	Long: `Estimate how fast an item sells from its demand level, the number of
competing listings, and where the AI price sits against the market median.

Example:
  vest sell-through --demand high --active 3 --ai-mid 20 --market-median 30`,
	RunE: runSellThrough,
}

func init() {
	f := sellThroughCmd.Flags()
	f.String("demand", "medium", "demand level: low, medium or high")
	f.Int("active", 0, "active listing count")
	f.Float64("ai-mid", 0, "AI mid price estimate")
	f.Float64("market-median", 0, "median asking price")
	f.String("format", "table", "output format: table or json")

	rootCmd.AddCommand(sellThroughCmd)
}

func runSellThrough(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	demand, _ := f.GetString("demand")
	active, _ := f.GetInt("active")
	aiMid, _ := f.GetFloat64("ai-mid")
	median, _ := f.GetFloat64("market-median")
	format, _ := f.GetString("format")

	res := velocity.EstimateSellThrough(velocity.Input{
		DemandLevel:        model.ParseDemandLevel(demand),
		ActiveListingCount: active,
		AIMid:              aiMid,
		MarketMedian:       median,
	})

	out := cmd.OutOrStdout()
	if format == "json" {
		return writeJSON(out, res)
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Sell-through:\t%.0f%%\n", res.Rate*100)
	_, _ = fmt.Fprintf(w, "Days to sell:\t%d\n", res.DaysToSell)
	_, _ = fmt.Fprintf(w, "Market:\t%s\n", res.MarketType)
	_, _ = fmt.Fprintf(w, "Pricing:\t%s\n", res.PricingStrategy)
	for _, r := range res.Reasoning {
		_, _ = fmt.Fprintf(w, "\t%s\n", r)
	}
	return w.Flush()
}
