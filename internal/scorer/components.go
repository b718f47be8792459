package scorer

import (
	"fmt"
	"math"

	"github.com/sells-group/vest-cli/internal/model"
)

// band is one threshold step: a value at or past min earns points.
type band struct {
	min    float64
	points float64
}

// atLeast returns the points of the first band whose min v reaches.
func atLeast(v float64, bands []band, otherwise float64) float64 {
	for _, b := range bands {
		if v >= b.min {
			return b.points
		}
	}
	return otherwise
}

// below returns the points of the first band whose min v is under.
func below(v float64, bands []band, otherwise float64) float64 {
	for _, b := range bands {
		if v < b.min {
			return b.points
		}
	}
	return otherwise
}

// above returns the points of the first band whose min v exceeds.
func above(v float64, bands []band, otherwise float64) float64 {
	for _, b := range bands {
		if v > b.min {
			return b.points
		}
	}
	return otherwise
}

var (
	daysBands       = []band{{3, 30}, {7, 25}, {14, 15}, {30, 10}}
	sellThruBands   = []band{{0.80, 30}, {0.60, 20}, {0.40, 15}}
	marginBands     = []band{{0.50, 50}, {0.40, 40}, {0.30, 30}, {0.20, 20}, {0.10, 10}, {0, 5}}
	roiBands        = []band{{1.00, 30}, {0.75, 25}, {0.50, 20}, {0.25, 15}, {0, 5}}
	dollarBands     = []band{{50, 20}, {30, 15}, {15, 10}, {5, 5}}
	volatilityBands = []band{{0.10, 50}, {0.20, 40}, {0.30, 25}}
	spreadBands     = []band{{0.30, 30}, {0.50, 20}, {0.75, 10}}
	trendBands      = []band{{1.20, 50}, {1.05, 40}, {0.95, 30}, {0.80, 15}}
	priceTrendBands = []band{{1.10, 50}, {1.02, 40}, {0.98, 30}, {0.90, 15}}
)

// describe picks one of five descriptions by normalized score.
func describe(normalized float64, tiers [5]string) string {
	switch {
	case normalized >= 80:
		return tiers[0]
	case normalized >= 60:
		return tiers[1]
	case normalized >= 40:
		return tiers[2]
	case normalized >= 20:
		return tiers[3]
	default:
		return tiers[4]
	}
}

func component(raw, normalized, weight float64, desc string) model.ComponentScore {
	normalized = model.Clamp(normalized, 0, 100)
	return model.ComponentScore{
		Raw:         raw,
		Normalized:  normalized,
		Weighted:    normalized * weight,
		Weight:      weight,
		Description: desc,
	}
}

// Velocity scores how fast the item moves: 30-day volume, days to sell and
// sell-through rate.
func Velocity(s model.MarketSummary, weight float64) model.ComponentScore {
	volume := math.Min(40, float64(s.TotalSold30Days)/100*40)

	// Zero days means no timing data; it earns the slowest band.
	days := 5.0
	if s.AvgDaysToSell > 0 {
		days = below(s.AvgDaysToSell, daysBands, 5)
	}
	str := above(s.SellThroughRate, sellThruBands, 5)

	n := volume + days + str
	return component(float64(s.TotalSold30Days), n, weight, describe(n, [5]string{
		fmt.Sprintf("Excellent velocity: %d sold in 30 days", s.TotalSold30Days),
		fmt.Sprintf("Strong velocity: sells in about %.0f days", s.AvgDaysToSell),
		"Moderate velocity",
		"Slow seller",
		"Very slow seller",
	}))
}

// EquityMetrics are the profit figures the equity axis and override
// rules are computed from.
type EquityMetrics struct {
	Breakdown   model.ProfitBreakdown
	GrossMargin float64
	ROI         float64
}

// Equity scores profit potential at the given breakdown.
func Equity(m EquityMetrics, weight float64) model.ComponentScore {
	net := m.Breakdown.NetProfit
	margin := atLeast(m.GrossMargin, marginBands, 0)
	roi := atLeast(m.ROI, roiBands, 0)
	dollars := atLeast(net, dollarBands, 0)

	n := margin + roi + dollars
	return component(net, n, weight, describe(n, [5]string{
		fmt.Sprintf("Excellent profit: $%.2f at %.0f%% margin", net, m.GrossMargin*100),
		fmt.Sprintf("Strong profit: $%.2f", net),
		fmt.Sprintf("Fair profit: $%.2f", net),
		"Thin profit",
		"Poor or negative profit",
	}))
}

// Stability scores how predictable the price is.
func Stability(s model.MarketSummary, weight float64) model.ComponentScore {
	volatility := below(s.PriceVolatility, volatilityBands, 10)

	spread := 1.0
	if s.MedianSoldPrice > 0 {
		spread = (s.MaxSoldPrice - s.MinSoldPrice) / s.MedianSoldPrice
	}
	spreadPts := below(spread, spreadBands, 5)

	supply := 5.0
	if s.TotalSold30Days > 0 {
		ratio := float64(s.ActiveListingCount) / float64(s.TotalSold30Days)
		switch {
		case ratio > 0.1 && ratio < 0.5:
			supply = 20
		case ratio >= 0.05 && ratio <= 1.0:
			supply = 15
		}
	}

	n := volatility + spreadPts + supply
	return component(s.PriceVolatility, n, weight, describe(n, [5]string{
		"Very stable pricing",
		"Stable pricing",
		"Somewhat variable pricing",
		"Unpredictable pricing",
		"Volatile pricing",
	}))
}

// Trend scores momentum in volume and price.
func Trend(s model.MarketSummary, weight float64) model.ComponentScore {
	volumeTrend := 1.0
	if monthly := float64(s.TotalSold90Days) / 3; monthly > 0 {
		volumeTrend = float64(s.TotalSold30Days) / monthly
	}
	priceTrend := 1.0
	if s.AvgSoldPrice > 0 && s.AvgActivePrice > 0 {
		priceTrend = s.AvgActivePrice / s.AvgSoldPrice
	}

	n := above(volumeTrend, trendBands, 5) + above(priceTrend, priceTrendBands, 5)
	return component(volumeTrend, n, weight, describe(n, [5]string{
		"Strong upward trend",
		"Rising demand",
		"Steady market",
		"Cooling market",
		"Declining market",
	}))
}
