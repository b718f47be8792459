// Package velocity estimates how quickly an item will sell from demand,
// listing density and price position.
package velocity

import (
	"fmt"
	"math"

	"github.com/sells-group/vest-cli/internal/model"
)

// MarketType classifies who holds pricing power.
type MarketType string

// Market types.
const (
	MarketSellers  MarketType = "sellers"
	MarketBalanced MarketType = "balanced"
	MarketBuyers   MarketType = "buyers"
)

// PricingStrategy is the listing posture that fits a market type.
type PricingStrategy string

// Pricing strategies.
const (
	StrategyAggressive   PricingStrategy = "aggressive"
	StrategyModerate     PricingStrategy = "moderate"
	StrategyConservative PricingStrategy = "conservative"
)

// Bounds on the estimate.
const (
	MinRate = 0.05
	MaxRate = 0.95
	MinDays = 1
	MaxDays = 45
)

// Input carries the indirect signals the estimate is built from.
type Input struct {
	DemandLevel        model.DemandLevel `json:"demand_level"`
	ActiveListingCount int               `json:"active_listing_count"`
	AIMid              float64           `json:"ai_mid"`
	MarketMedian       float64           `json:"market_median"`
}

// Result is an estimated sell-through rate and time to sell.
type Result struct {
	Rate            float64         `json:"rate"`
	MarketType      MarketType      `json:"market_type"`
	PricingStrategy PricingStrategy `json:"pricing_strategy"`
	DaysToSell      int             `json:"days_to_sell"`
	Reasoning       []string        `json:"reasoning"`
}

type baseline struct {
	rate float64
	days int
}

var baselines = map[model.DemandLevel]baseline{
	model.DemandHigh:   {rate: 0.65, days: 5},
	model.DemandMedium: {rate: 0.40, days: 12},
	model.DemandLow:    {rate: 0.20, days: 25},
}

// EstimateSellThrough applies density and price-position adjustments to the
// demand baseline, then clamps and classifies the result.
func EstimateSellThrough(in Input) Result {
	level := model.ParseDemandLevel(string(in.DemandLevel))
	base := baselines[level]
	rate, days := base.rate, base.days
	reasons := []string{fmt.Sprintf("%s demand baseline: %.0f%% sell-through, %d days", level, rate*100, days)}

	count := in.ActiveListingCount
	if count < 0 {
		count = 0
	}
	switch {
	case count < 5:
		rate += 0.15
		days -= 3
		reasons = append(reasons, fmt.Sprintf("scarce supply (%d listings): +15%%, -3 days", count))
	case count < 10:
		rate += 0.10
		days -= 2
		reasons = append(reasons, fmt.Sprintf("limited supply (%d listings): +10%%, -2 days", count))
	case count > 100:
		rate -= 0.15
		days += 7
		reasons = append(reasons, fmt.Sprintf("saturated market (%d listings): -15%%, +7 days", count))
	case count > 50:
		rate -= 0.10
		days += 4
		reasons = append(reasons, fmt.Sprintf("crowded market (%d listings): -10%%, +4 days", count))
	}

	// Price position needs both sides; a missing estimate is not underpricing.
	median := model.Sanitize(in.MarketMedian)
	aiMid := model.Sanitize(in.AIMid)
	if median > 0 && aiMid > 0 {
		ratio := aiMid / median
		switch {
		case ratio < 0.7:
			rate += 0.15
			days -= 3
			reasons = append(reasons, fmt.Sprintf("priced well below market (%.2fx): +15%%, -3 days", ratio))
		case ratio < 0.85:
			rate += 0.08
			days -= 2
			reasons = append(reasons, fmt.Sprintf("priced below market (%.2fx): +8%%, -2 days", ratio))
		case ratio > 1.3:
			rate -= 0.12
			days += 5
			reasons = append(reasons, fmt.Sprintf("priced well above market (%.2fx): -12%%, +5 days", ratio))
		case ratio > 1.1:
			rate -= 0.05
			days += 2
			reasons = append(reasons, fmt.Sprintf("priced above market (%.2fx): -5%%, +2 days", ratio))
		}
	}

	rate = math.Round(model.Clamp(rate, MinRate, MaxRate)*100) / 100
	days = max(MinDays, min(MaxDays, days))
	mt, strategy := classify(rate)

	return Result{
		Rate:            rate,
		MarketType:      mt,
		PricingStrategy: strategy,
		DaysToSell:      days,
		Reasoning:       reasons,
	}
}

func classify(rate float64) (MarketType, PricingStrategy) {
	switch {
	case rate > 0.55:
		return MarketSellers, StrategyAggressive
	case rate >= 0.35:
		return MarketBalanced, StrategyModerate
	default:
		return MarketBuyers, StrategyConservative
	}
}

// SelectPrice picks the list price for a market type.
func SelectPrice(mt MarketType, tp model.TriangulatedPrice, activeMedian float64) float64 {
	switch mt {
	case MarketSellers:
		return model.RoundCents(math.Max(tp.Mid, model.Sanitize(activeMedian)*0.85))
	case MarketBuyers:
		return model.RoundCents((tp.Low + tp.Mid) / 2)
	default:
		return model.RoundCents(tp.Mid)
	}
}
