package main

import (
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/vest-cli/internal/identify"
	"github.com/sells-group/vest-cli/internal/model"
	"github.com/sells-group/vest-cli/internal/scan"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Search the marketplace for an item and score the buy",
	Long: `Run the full pipeline for one item: tiered marketplace search, price
triangulation, sell-through estimate, market summary, V.E.S.T. score and a
buy-price ladder. The result is saved to scan history unless store.driver
is none.

The item comes from an identification file (YAML or JSON) or from flags.

Examples:
  # Score a thrift find at $12 from flags
  vest scan --name "LEGO Star Wars X-Wing 75218" --demand high --ai-mid 40 --buy 12

  # Score an identification file
  vest scan --item item.yaml --buy 12 --format json`,
	RunE: runScan,
}

func init() {
	f := scanCmd.Flags()
	f.String("item", "", "identification file (YAML or JSON)")
	f.String("name", "", "item name")
	f.String("brand", "", "item brand")
	f.String("condition", "", "item condition")
	f.String("query", "", "search query (default: brand and name)")
	f.Float64("ai-low", 0, "AI estimate low")
	f.Float64("ai-mid", 0, "AI estimate mid")
	f.Float64("ai-high", 0, "AI estimate high")
	f.String("demand", "medium", "demand level: low, medium or high")
	f.Float64("buy", 0, "buy price")
	f.String("format", "table", "output format: table or json")
	addOptionFlags(f)

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	buy, _ := cmd.Flags().GetFloat64("buy")
	format, _ := cmd.Flags().GetString("format")
	if buy < 0 {
		return eris.New("scan: --buy must be >= 0")
	}

	item, err := itemFromFlags(cmd)
	if err != nil {
		return err
	}
	opts, err := optionsFromFlags(cmd)
	if err != nil {
		return err
	}

	env, err := initScanEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	res, err := env.Session.Run(ctx, item, buy, opts)
	if err != nil {
		return eris.Wrap(err, "scan")
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		return writeJSON(out, res)
	}
	formatScan(out, res)
	return nil
}

// itemFromFlags loads --item when given, otherwise builds the item from
// the individual flags.
func itemFromFlags(cmd *cobra.Command) (model.Identification, error) {
	f := cmd.Flags()
	if path, _ := f.GetString("item"); path != "" {
		return identify.LoadFile(path)
	}

	name, _ := f.GetString("name")
	brand, _ := f.GetString("brand")
	category, _ := f.GetString("category")
	condition, _ := f.GetString("condition")
	q, _ := f.GetString("query")

	item := model.Identification{
		Name:        name,
		Brand:       brand,
		Category:    category,
		Condition:   condition,
		SearchQuery: q,
		Confidence:  1,
	}
	if f.Changed("ai-mid") {
		low, _ := f.GetFloat64("ai-low")
		mid, _ := f.GetFloat64("ai-mid")
		high, _ := f.GetFloat64("ai-high")
		demand, _ := f.GetString("demand")
		if low == 0 {
			low = mid
		}
		if high == 0 {
			high = mid
		}
		item.PriceEstimate = &model.ItemPriceEstimate{
			Low:         low,
			Mid:         mid,
			High:        high,
			Confidence:  0.5,
			DemandLevel: model.ParseDemandLevel(demand),
		}
	}

	if err := identify.Validate(identify.Normalize(item)); err != nil {
		return model.Identification{}, eris.Wrap(err, "scan: give --item, --name or --query")
	}
	return item, nil
}

// formatScan writes a scan report to out.
func formatScan(out io.Writer, r *scan.Result) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Scan:\t%s\n", r.ID)
	if r.ParentID != "" {
		_, _ = fmt.Fprintf(w, "Rescore of:\t%s\n", r.ParentID)
	}
	_, _ = fmt.Fprintf(w, "Item:\t%s\n", r.Item.Name)
	search := fmt.Sprintf("%q tier %d, %d listings (%d total)", r.Search.Query, r.Search.Tier, len(r.Search.Listings), r.Search.TotalCount)
	if len(r.Search.StrippedTerms) > 0 {
		search += ", dropped " + strings.Join(r.Search.StrippedTerms, ", ")
	}
	_, _ = fmt.Fprintf(w, "Search:\t%s\n", search)
	if len(r.Excluded) > 0 {
		_, _ = fmt.Fprintf(w, "Excluded:\t%s\n", strings.Join(r.Excluded, ", "))
	}
	_, _ = fmt.Fprintf(w, "Price range:\t$%.2f / $%.2f / $%.2f (%s confidence)\n",
		r.Price.Low, r.Price.Mid, r.Price.High, r.Price.DataQuality)
	_, _ = fmt.Fprintf(w, "Sell-through:\t%.0f%%, ~%d days (%s)\n",
		r.SellThrough.Rate*100, r.SellThrough.DaysToSell, r.SellThrough.MarketType)
	_, _ = fmt.Fprintf(w, "List at:\t$%.2f\n", r.ListPrice)
	_, _ = fmt.Fprintf(w, "Deal:\t%s\n", r.Deal.Label)
	_ = w.Flush()

	_, _ = fmt.Fprintln(out)
	formatScore(out, r.Score)
	_, _ = fmt.Fprintln(out)
	formatSuggestions(out, r.Suggestions)
}
