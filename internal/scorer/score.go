package scorer

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/vest-cli/internal/model"
	"github.com/sells-group/vest-cli/internal/profit"
)

// Options tune the profit assumptions behind a score.
type Options struct {
	ShippingCost *float64 `json:"shipping_cost,omitempty"`
	Category     string   `json:"category,omitempty"`
	PromotedRate float64  `json:"promoted_rate,omitempty"`
}

// Engine scores items. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	calc    *profit.Calculator
	weights Weights
	rules   []OverrideRule
}

// NewEngine creates an Engine. A nil calculator uses the default fee schedule.
func NewEngine(calc *profit.Calculator, w Weights) (*Engine, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if calc == nil {
		calc = profit.Default()
	}
	return &Engine{calc: calc, weights: w, rules: DefaultRules}, nil
}

var defaultEngine = &Engine{calc: profit.Default(), weights: DefaultWeights(), rules: DefaultRules}

// Default returns the engine with default weights and fees.
func Default() *Engine {
	return defaultEngine
}

// Weights returns the engine's axis weights.
func (e *Engine) Weights() Weights {
	return e.weights
}

// Calculator returns the profit calculator the engine scores with.
func (e *Engine) Calculator() *profit.Calculator {
	return e.calc
}

// ScoreItem scores a market at a buy price using the default engine.
func ScoreItem(summary model.MarketSummary, buyPrice float64, opts Options) model.VestScore {
	return defaultEngine.ScoreItem(summary, buyPrice, opts)
}

// ScoreItem computes the V.E.S.T. score at buyPrice. The median sold price
// is the expected sale price.
func (e *Engine) ScoreItem(summary model.MarketSummary, buyPrice float64, opts Options) model.VestScore {
	s := summary.Normalize()
	m := e.equityMetrics(s, buyPrice, opts)

	c := model.Components{
		Velocity:  Velocity(s, e.weights.Velocity),
		Equity:    Equity(m, e.weights.Equity),
		Stability: Stability(s, e.weights.Stability),
		Trend:     Trend(s, e.weights.Trend),
	}
	raw := roundScore(c.Velocity.Weighted + c.Equity.Weighted + c.Stability.Weighted + c.Trend.Weighted)

	ov := ApplyOverrides(e.rules, raw, OverrideInput{
		DaysToSell:      s.AvgDaysToSell,
		NetProfit:       m.Breakdown.NetProfit,
		GrossMargin:     m.GrossMargin,
		SellThroughRate: s.SellThroughRate,
	})

	return model.VestScore{
		Total:           ov.FinalScore,
		Grade:           ov.FinalGrade,
		Components:      c,
		Recommendation:  ScoreToRecommendation(ov.FinalScore),
		EstimatedProfit: m.Breakdown.NetProfit,
		ROI:             m.Breakdown.ROI,
		ProfitBreakdown: m.Breakdown,
		GradeOverride:   &ov,
	}
}

func (e *Engine) equityMetrics(s model.MarketSummary, buyPrice float64, opts Options) EquityMetrics {
	b := e.calc.Compute(profit.Input{
		SalePrice:    s.MedianSoldPrice,
		BuyPrice:     buyPrice,
		ShippingCost: opts.ShippingCost,
		Category:     opts.Category,
		PromotedRate: opts.PromotedRate,
	})
	return EquityMetrics{
		Breakdown:   b,
		GrossMargin: b.EffectiveMargin.Float(),
		ROI:         b.ROI.Float(),
	}
}

// ParseOptions validates option values arriving from callers.
func ParseOptions(shipping *float64, category string, promoted float64) (Options, error) {
	if shipping != nil && (math.IsNaN(*shipping) || *shipping < 0) {
		return Options{}, eris.New("scorer: shipping cost must be >= 0")
	}
	if math.IsNaN(promoted) || promoted < 0 || promoted > 1 {
		return Options{}, eris.New("scorer: promoted rate must be in [0,1]")
	}
	return Options{ShippingCost: shipping, Category: category, PromotedRate: promoted}, nil
}

func roundScore(v float64) float64 {
	return clampScore(math.Round(v*100) / 100)
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return model.Clamp(v, 0, 100)
}
