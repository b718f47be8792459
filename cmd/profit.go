package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/vest-cli/internal/model"
	"github.com/sells-group/vest-cli/internal/profit"
)

var profitCmd = &cobra.Command{
	Use:   "profit",
	Short: "Break down fees and take-home profit for a resale",
	Long: `Compute eBay fees, shipping and net profit for one sale.

Examples:
  vest profit --sale 50 --buy 20
  vest profit --sale 50 --buy 20 --category books --promoted 0.05`,
	RunE: runProfit,
}

func init() {
	f := profitCmd.Flags()
	f.Float64("sale", 0, "expected sale price")
	f.Float64("buy", 0, "buy price")
	f.Float64("target", 0, "also solve the max buy price that nets this profit")
	f.String("format", "table", "output format: table or json")
	addOptionFlags(f)

	rootCmd.AddCommand(profitCmd)
}

func runProfit(cmd *cobra.Command, _ []string) error {
	sale, _ := cmd.Flags().GetFloat64("sale")
	buy, _ := cmd.Flags().GetFloat64("buy")
	target, _ := cmd.Flags().GetFloat64("target")
	format, _ := cmd.Flags().GetString("format")

	if sale < 0 || buy < 0 {
		return eris.New("profit: --sale and --buy must be >= 0")
	}
	opts, err := optionsFromFlags(cmd)
	if err != nil {
		return err
	}

	engine, err := initEngine()
	if err != nil {
		return err
	}
	calc := engine.Calculator()

	b := calc.Compute(profit.Input{
		SalePrice:    sale,
		BuyPrice:     buy,
		ShippingCost: opts.ShippingCost,
		Category:     opts.Category,
		PromotedRate: opts.PromotedRate,
	})
	eval := profit.Evaluate(b)

	var maxBuy *float64
	if cmd.Flags().Changed("target") {
		v := calc.MaxBuyPrice(sale, target, opts.ShippingCost, opts.Category, opts.PromotedRate)
		maxBuy = &v
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		return writeJSON(out, struct {
			Breakdown  model.ProfitBreakdown `json:"breakdown"`
			Evaluation profit.Evaluation     `json:"evaluation"`
			MaxBuy     *float64              `json:"max_buy_price,omitempty"`
		}{b, eval, maxBuy})
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Sale price:\t$%.2f\n", b.ExpectedSalePrice)
	_, _ = fmt.Fprintf(w, "Final value fee:\t$%.2f\n", b.EbayFinalValueFee)
	_, _ = fmt.Fprintf(w, "Payment processing:\t$%.2f\n", b.PaymentProcessingFee)
	_, _ = fmt.Fprintf(w, "Promoted listing:\t$%.2f\n", b.PromotedListingFee)
	_, _ = fmt.Fprintf(w, "Shipping:\t$%.2f\n", b.ShippingCost)
	_, _ = fmt.Fprintf(w, "Platform costs:\t$%.2f\n", b.TotalPlatformCosts)
	_, _ = fmt.Fprintf(w, "Buy price:\t$%.2f\n", b.BuyPrice)
	_, _ = fmt.Fprintf(w, "Net profit:\t$%.2f\n", b.NetProfit)
	_, _ = fmt.Fprintf(w, "ROI:\t%.2f%%\n", b.ROI.Percent())
	_, _ = fmt.Fprintf(w, "Margin:\t%.2f%%\n", b.EffectiveMargin.Percent())
	_, _ = fmt.Fprintf(w, "Verdict:\t%s\n", eval.Label)
	for _, m := range eval.Messages {
		_, _ = fmt.Fprintf(w, "\t%s\n", m)
	}
	if maxBuy != nil {
		_, _ = fmt.Fprintf(w, "Max buy for $%.2f:\t$%.2f\n", target, *maxBuy)
	}
	return w.Flush()
}
