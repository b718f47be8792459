package scorer

import (
	"context"
	"math"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/vest-cli/internal/model"
)

// solverPrecision is the width at which the buy-price search stops.
const solverPrecision = 0.5

// SolveBuyPrice returns the highest whole-dollar buy price that still
// earns at least target, searching [0, median sold price] through
// ScoreItem. ok is false when even a free item misses the target, which
// keeps "unreachable" apart from "reachable only at $0".
func (e *Engine) SolveBuyPrice(summary model.MarketSummary, target model.Grade, opts Options) (price float64, ok bool) {
	want := GradeValue(target)
	median := model.Sanitize(summary.MedianSoldPrice)
	if want < 0 || median <= 0 {
		return 0, false
	}
	meets := func(buy float64) bool {
		return GradeValue(e.ScoreItem(summary, buy, opts).Grade) >= want
	}
	if !meets(0) {
		return 0, false
	}

	lo, hi := 0.0, median
	for hi-lo > solverPrecision {
		mid := (lo + hi) / 2
		if meets(mid) {
			lo = mid
		} else {
			hi = mid
		}
	}
	return math.Floor(lo), true
}

// SuggestBuyPrice is SolveBuyPrice without the reachability flag; it
// returns 0 when the target cannot be reached.
func (e *Engine) SuggestBuyPrice(summary model.MarketSummary, target model.Grade, opts Options) float64 {
	price, _ := e.SolveBuyPrice(summary, target, opts)
	return price
}

// SuggestBuyPrice solves with the default engine.
func SuggestBuyPrice(summary model.MarketSummary, target model.Grade, opts Options) float64 {
	return defaultEngine.SuggestBuyPrice(summary, target, opts)
}

// Suggestion is the maximum buy price for one target grade. Reachable is
// false when no buy price earns the grade; BuyPrice is then 0.
type Suggestion struct {
	Grade     model.Grade `json:"grade"`
	BuyPrice  float64     `json:"buy_price"`
	Reachable bool        `json:"reachable"`
}

// SuggestLadder solves several target grades concurrently. Results keep the
// order of targets.
func (e *Engine) SuggestLadder(ctx context.Context, summary model.MarketSummary, targets []model.Grade, opts Options) ([]Suggestion, error) {
	out := make([]Suggestion, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, target := range targets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			price, ok := e.SolveBuyPrice(summary, target, opts)
			out[i] = Suggestion{Grade: target, BuyPrice: price, Reachable: ok}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "scorer: suggest ladder")
	}
	return out, nil
}
