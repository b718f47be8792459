package scorer

import (
	"testing"

	"github.com/sells-group/vest-cli/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestVelocity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		s    model.MarketSummary
		want float64
	}{
		{"max volume fastest", model.MarketSummary{TotalSold30Days: 250, AvgDaysToSell: 2, SellThroughRate: 0.9}, 100},
		{"half volume", model.MarketSummary{TotalSold30Days: 50, AvgDaysToSell: 10, SellThroughRate: 0.5}, 20 + 15 + 15},
		{"slow", model.MarketSummary{TotalSold30Days: 5, AvgDaysToSell: 40, SellThroughRate: 0.2}, 2 + 5 + 5},
		{"unknown days", model.MarketSummary{TotalSold30Days: 10, SellThroughRate: 0.61}, 4 + 5 + 20},
		{"boundary days", model.MarketSummary{AvgDaysToSell: 3, SellThroughRate: 0.80}, 25 + 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Velocity(tt.s, 0.4)
			assert.InDelta(t, tt.want, got.Normalized, 1e-9)
			assert.InDelta(t, tt.want*0.4, got.Weighted, 1e-9)
		})
	}
}

func TestEquity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		net    float64
		margin float64
		roi    float64
		want   float64
	}{
		{"top bands", 60, 0.55, 1.5, 100},
		{"at thresholds", 30, 0.40, 0.75, 40 + 25 + 15},
		{"break even", 0, 0, 0, 5 + 5},
		{"losing", -4, -0.1, -0.2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Equity(EquityMetrics{
				Breakdown:   model.ProfitBreakdown{NetProfit: tt.net},
				GrossMargin: tt.margin,
				ROI:         tt.roi,
			}, 0.4)
			assert.Equal(t, tt.want, got.Normalized)
			assert.Equal(t, tt.net, got.Raw)
		})
	}
}

func TestStability(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		s    model.MarketSummary
		want float64
	}{
		{"tight", model.MarketSummary{PriceVolatility: 0.05, MinSoldPrice: 95, MaxSoldPrice: 105, MedianSoldPrice: 100, ActiveListingCount: 3, TotalSold30Days: 10}, 50 + 30 + 20},
		{"balanced supply edge", model.MarketSummary{PriceVolatility: 0.15, MinSoldPrice: 80, MaxSoldPrice: 120, MedianSoldPrice: 100, ActiveListingCount: 10, TotalSold30Days: 10}, 40 + 20 + 15},
		{"oversupplied", model.MarketSummary{PriceVolatility: 0.4, MinSoldPrice: 10, MaxSoldPrice: 100, MedianSoldPrice: 50, ActiveListingCount: 40, TotalSold30Days: 10}, 10 + 5 + 5},
		{"no sales", model.MarketSummary{PriceVolatility: 0.25, MinSoldPrice: 90, MaxSoldPrice: 150, MedianSoldPrice: 100, ActiveListingCount: 5}, 25 + 10 + 5},
		{"zero median", model.MarketSummary{}, 50 + 5 + 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Stability(tt.s, 0.1).Normalized)
		})
	}
}

func TestTrend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		s    model.MarketSummary
		want float64
	}{
		{"surging", model.MarketSummary{TotalSold30Days: 50, TotalSold90Days: 90, AvgActivePrice: 60, AvgSoldPrice: 50}, 100},
		{"flat", model.MarketSummary{TotalSold30Days: 30, TotalSold90Days: 90, AvgActivePrice: 50, AvgSoldPrice: 50}, 60},
		{"declining", model.MarketSummary{TotalSold30Days: 10, TotalSold90Days: 90, AvgActivePrice: 40, AvgSoldPrice: 50}, 10},
		{"no history is neutral", model.MarketSummary{}, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Trend(tt.s, 0.1)
			assert.Equal(t, tt.want, got.Normalized)
		})
	}
	assert.Equal(t, "Strong upward trend", Trend(tests[0].s, 0.1).Description)
	assert.Equal(t, "Declining market", Trend(tests[2].s, 0.1).Description)
}
