// Package triangulate blends an AI price guess with live asking-price
// statistics into a single sold-price estimate.
package triangulate

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sells-group/vest-cli/internal/model"
)

// Asking prices run above what items actually sell for. These factors
// convert asking statistics into sold estimates.
const (
	askingLowFactor  = 0.80
	askingMidFactor  = 0.80
	askingHighFactor = 0.85
)

// AI-only discounts applied when no listings were found.
const (
	aiOnlyLowFactor  = 0.80
	aiOnlyMidFactor  = 0.85
	aiOnlyHighFactor = 0.90
	aiOnlyConfidence = 0.4
)

// Conservative prices returned when there is no evidence at all.
const (
	FallbackLow        = 5.0
	FallbackMid        = 15.0
	FallbackHigh       = 30.0
	FallbackConfidence = 0.1
)

const (
	confidenceBoost = 0.2
	buyMinListings  = 15
	passMaxListings = 3
	disagreement    = 0.5
)

type band struct {
	weight     float64
	quality    model.DataQuality
	confidence float64 // used when there is no AI estimate
}

// bandFor maps a listing count to its evidence band. n must be > 0.
func bandFor(n int) band {
	switch {
	case n >= 10:
		return band{weight: 0.75, quality: model.QualityHigh, confidence: 0.7}
	case n >= 5:
		return band{weight: 0.50, quality: model.QualityMedium, confidence: 0.5}
	default:
		return band{weight: 0.30, quality: model.QualityLow, confidence: 0.3}
	}
}

// Triangulate combines the two price signals. Either may be nil; the
// result is always usable, degrading to low-confidence fallbacks.
func Triangulate(ai *model.ItemPriceEstimate, stats *model.AskingStats) model.TriangulatedPrice {
	n := 0
	if stats != nil && stats.Count > 0 {
		n = stats.Count
	}
	hasAI := ai.Usable()

	switch {
	case n == 0 && !hasAI:
		return fallback()
	case n == 0:
		return aiOnly(ai)
	case !hasAI:
		return askingOnly(stats, n)
	default:
		return blend(ai, stats, n)
	}
}

func fallback() model.TriangulatedPrice {
	return model.TriangulatedPrice{
		Low:            FallbackLow,
		Mid:            FallbackMid,
		High:           FallbackHigh,
		Confidence:     FallbackConfidence,
		DataQuality:    model.QualityLow,
		Reasoning:      "No AI estimate and no marketplace listings; using conservative default prices.",
		MarketInsight:  "No market data available. Research this item manually before buying.",
		Recommendation: model.PricePass,
	}
}

func aiOnly(ai *model.ItemPriceEstimate) model.TriangulatedPrice {
	low, mid, high := ordered(
		model.Sanitize(ai.Low)*aiOnlyLowFactor,
		model.Sanitize(ai.Mid)*aiOnlyMidFactor,
		model.Sanitize(ai.High)*aiOnlyHighFactor,
	)
	reasoning := "No marketplace listings found; AI estimate discounted 10-20% for uncertainty."
	return model.TriangulatedPrice{
		Low:            low,
		Mid:            mid,
		High:           high,
		Confidence:     aiOnlyConfidence,
		DataQuality:    model.QualityLow,
		Reasoning:      withRedFlags(reasoning, ai),
		MarketInsight:  "No active listings to compare against. Price is unverified.",
		Recommendation: recommend(model.QualityLow, 0),
	}
}

func askingOnly(stats *model.AskingStats, n int) model.TriangulatedPrice {
	b := bandFor(n)
	lo, avg, hi := askingAdjusted(stats)
	low, mid, high := ordered(lo, avg, hi)
	return model.TriangulatedPrice{
		Low:         low,
		Mid:         mid,
		High:        high,
		Confidence:  b.confidence,
		DataQuality: b.quality,
		Reasoning: fmt.Sprintf(
			"No AI estimate; %d asking prices discounted 20%% (low/mid) and 15%% (high) to approximate sold prices.", n),
		MarketInsight:  insight(stats, n),
		Recommendation: recommend(b.quality, n),
	}
}

func blend(ai *model.ItemPriceEstimate, stats *model.AskingStats, n int) model.TriangulatedPrice {
	b := bandFor(n)
	ebayW := b.weight
	aiW := 1 - ebayW

	eLow, eMid, eHigh := askingAdjusted(stats)
	low, mid, high := ordered(
		model.Sanitize(ai.Low)*aiW+eLow*ebayW,
		model.Sanitize(ai.Mid)*aiW+eMid*ebayW,
		model.Sanitize(ai.High)*aiW+eHigh*ebayW,
	)

	reasoning := fmt.Sprintf(
		"Blended AI estimate (%.0f%%) with %d asking prices adjusted for the asking-to-sold gap (%.0f%%).",
		aiW*100, n, ebayW*100)
	if aiMid := model.Sanitize(ai.Mid); aiMid > 0 && eMid > 0 {
		if gap := math.Abs(aiMid-eMid) / math.Max(aiMid, eMid); gap > disagreement {
			reasoning += fmt.Sprintf(" AI and market disagree by %.0f%%; treat with caution.", gap*100)
		}
	}

	return model.TriangulatedPrice{
		Low:            low,
		Mid:            mid,
		High:           high,
		Confidence:     math.Min(1, ebayW+confidenceBoost),
		DataQuality:    b.quality,
		Reasoning:      withRedFlags(reasoning, ai),
		MarketInsight:  insight(stats, n),
		Recommendation: recommend(b.quality, n),
	}
}

// askingAdjusted converts asking statistics to sold estimates. Missing
// min/max fall back to the average.
func askingAdjusted(stats *model.AskingStats) (low, mid, high float64) {
	avg := model.Sanitize(stats.Avg)
	lo := model.Sanitize(stats.Min)
	hi := model.Sanitize(stats.Max)
	if lo == 0 {
		lo = avg
	}
	if hi == 0 {
		hi = avg
	}
	return lo * askingLowFactor, avg * askingMidFactor, hi * askingHighFactor
}

func recommend(q model.DataQuality, n int) model.PriceRecommendation {
	switch {
	case q == model.QualityHigh && n > buyMinListings:
		return model.PriceBuy
	case n < passMaxListings:
		return model.PricePass
	default:
		return model.PriceMaybe
	}
}

func insight(stats *model.AskingStats, n int) string {
	avg := model.Sanitize(stats.Avg)
	spread := model.SafeRatio(model.Sanitize(stats.Max)-model.Sanitize(stats.Min), avg, 0)
	switch {
	case n >= 20:
		return fmt.Sprintf("Crowded market: %d active listings averaging $%.2f.", n, avg)
	case spread > 1:
		return fmt.Sprintf("Wide asking range ($%.2f-$%.2f); condition likely drives price.",
			model.Sanitize(stats.Min), model.Sanitize(stats.Max))
	case n < passMaxListings:
		return fmt.Sprintf("Thin market: only %d active listing(s).", n)
	default:
		return fmt.Sprintf("%d active listings averaging $%.2f.", n, avg)
	}
}

func withRedFlags(reasoning string, ai *model.ItemPriceEstimate) string {
	if ai == nil || len(ai.RedFlags) == 0 {
		return reasoning
	}
	return reasoning + " Red flags: " + strings.Join(ai.RedFlags, ", ") + "."
}

// ordered rounds to cents and returns the three prices ascending.
func ordered(a, b, c float64) (low, mid, high float64) {
	v := []float64{model.RoundCents(a), model.RoundCents(b), model.RoundCents(c)}
	sort.Float64s(v)
	return v[0], v[1], v[2]
}
