package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/vest-cli/internal/model"
	"github.com/sells-group/vest-cli/internal/profit"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a market summary at a buy price",
	Long: `Compute the V.E.S.T. score for a market summary at a buy price.

The summary is a JSON MarketSummary (median_sold_price, total_sold_30_days,
sell_through_rate, ...). The median sold price is the expected sale price.

Examples:
  # Score a summary file at $20
  vest score --summary market.json --buy 20

  # Read the summary from stdin, ship flat $5, print JSON
  cat market.json | vest score --summary - --buy 20 --shipping 5 --format json`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.String("summary", "-", "market summary JSON file (- for stdin)")
	f.Float64("buy", 0, "buy price")
	f.String("format", "table", "output format: table or json")
	addOptionFlags(f)

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("summary")
	buy, _ := cmd.Flags().GetFloat64("buy")
	format, _ := cmd.Flags().GetString("format")

	if buy < 0 {
		return eris.New("score: --buy must be >= 0")
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

	score := engine.ScoreItem(summary, buy, opts)
	zap.L().Debug("scored summary",
		zap.Float64("buy_price", buy),
		zap.Float64("score", score.Total),
		zap.String("grade", string(score.Grade)),
	)

	out := cmd.OutOrStdout()
	if format == "json" {
		return writeJSON(out, struct {
			model.VestScore
			Deal profit.Evaluation `json:"deal"`
		}{score, profit.Evaluate(score.ProfitBreakdown)})
	}
	formatScore(out, score)
	return nil
}
