// Package market turns listing sets into the aggregate statistics the
// triangulation and scoring stages consume.
package market

import (
	"math"
	"slices"

	"github.com/sells-group/vest-cli/internal/model"
)

// Observation windows, in days.
const (
	Window30 = 30
	Window90 = 90
)

// Summarize builds a MarketSummary from active and sold listings. Listings
// with a non-positive or non-finite price are ignored.
func Summarize(active, sold []model.ListingSample) model.MarketSummary {
	activePrices := prices(active)
	soldPrices := prices(sold)

	var s model.MarketSummary
	s.ActiveListingCount = len(activePrices)
	s.AvgActivePrice = model.RoundCents(mean(activePrices))

	var days []float64
	for _, l := range sold {
		if !l.Valid() {
			continue
		}
		if l.SoldDaysAgo < Window30 {
			s.TotalSold30Days++
		}
		if l.SoldDaysAgo < Window90 {
			s.TotalSold90Days++
		}
		if l.DaysOnMarket > 0 {
			days = append(days, l.DaysOnMarket)
		}
	}

	if len(soldPrices) > 0 {
		slices.Sort(soldPrices)
		avg := mean(soldPrices)
		s.AvgSoldPrice = model.RoundCents(avg)
		s.MedianSoldPrice = model.RoundCents(percentile(soldPrices, 50))
		s.MinSoldPrice = model.RoundCents(soldPrices[0])
		s.MaxSoldPrice = model.RoundCents(soldPrices[len(soldPrices)-1])
		s.PriceVolatility = math.Round(model.SafeRatio(stdDev(soldPrices), avg, 0)*10000) / 10000
	}
	s.AvgDaysToSell = math.Round(mean(days)*10) / 10
	s.SellThroughRate = SellThrough(s.TotalSold30Days, s.ActiveListingCount)

	return s.Normalize()
}

// SellThrough is sold/(sold+active), 0 when there is no supply at all.
func SellThrough(sold, active int) float64 {
	sold, active = max(sold, 0), max(active, 0)
	r := model.SafeRatio(float64(sold), float64(sold+active), 0)
	return math.Round(model.Clamp(r, 0, 1)*10000) / 10000
}

// AskingStatsOf summarizes active asking prices for triangulation.
func AskingStatsOf(active []model.ListingSample) model.AskingStats {
	p := prices(active)
	if len(p) == 0 {
		return model.AskingStats{}
	}
	slices.Sort(p)
	return model.AskingStats{
		Avg:    model.RoundCents(mean(p)),
		Median: model.RoundCents(percentile(p, 50)),
		Min:    model.RoundCents(p[0]),
		Max:    model.RoundCents(p[len(p)-1]),
		Count:  len(p),
	}
}

// ActiveMedian returns the median asking price of the valid listings.
func ActiveMedian(active []model.ListingSample) float64 {
	return AskingStatsOf(active).Median
}

// Exclude returns the listings whose IDs are not in ids. The input is not modified.
func Exclude(listings []model.ListingSample, ids []string) []model.ListingSample {
	if len(ids) == 0 {
		return listings
	}
	skip := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		skip[id] = struct{}{}
	}
	out := make([]model.ListingSample, 0, len(listings))
	for _, l := range listings {
		if _, ok := skip[l.ID]; ok {
			continue
		}
		out = append(out, l)
	}
	return out
}

func prices(listings []model.ListingSample) []float64 {
	out := make([]float64, 0, len(listings))
	for _, l := range listings {
		if l.Valid() {
			out = append(out, l.Price)
		}
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev is the population standard deviation.
func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var variance float64
	for _, v := range values {
		d := v - m
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(values)))
}

// percentile interpolates linearly over an ascending slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	idx := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper || upper >= len(sorted) {
		return sorted[lower]
	}
	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}
