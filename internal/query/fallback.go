package query

import (
	"context"

	"github.com/sells-group/vest-cli/internal/model"
	"go.uber.org/zap"
)

// DefaultMinResults is the listing count a tier must reach to be accepted.
const DefaultMinResults = 3

const (
	insufficientPenalty = 0.5
	failedConfidence    = 0.1
)

// SearchFunc runs one marketplace search.
type SearchFunc func(ctx context.Context, query string) (model.SearchResult, error)

// Attempt records one tier tried by SearchWithFallback.
type Attempt struct {
	Query   string `json:"query"`
	Tier    int    `json:"tier"`
	Results int    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// FallbackResult is the outcome of a tiered search.
type FallbackResult struct {
	Query         string                `json:"query"`
	Tier          int                   `json:"tier"`
	Confidence    float64               `json:"confidence"`
	Broadened     bool                  `json:"broadened"`
	StrippedTerms []string              `json:"stripped_terms"`
	Listings      []model.ListingSample `json:"listings"`
	TotalCount    int                   `json:"total_count"`
	Attempts      []Attempt             `json:"attempts"`
}

// SearchWithFallback walks the Broaden ladder until a tier returns at least
// minResults listings. When no tier gets there, the broadest tier that
// answered is returned with its confidence halved. A failing tier is
// skipped; if every tier fails the result is empty with confidence 0.1.
func SearchWithFallback(ctx context.Context, original string, search SearchFunc, minResults int) FallbackResult {
	if minResults <= 0 {
		minResults = DefaultMinResults
	}
	log := zap.L().With(zap.String("query", original))

	var (
		attempts []Attempt
		best     *FallbackResult
	)
	for _, v := range Broaden(original) {
		if err := ctx.Err(); err != nil {
			attempts = append(attempts, Attempt{Query: v.Query, Tier: v.Tier, Error: err.Error()})
			break
		}

		res, err := search(ctx, v.Query)
		if err != nil {
			log.Warn("query: tier search failed",
				zap.Int("tier", v.Tier),
				zap.String("variant", v.Query),
				zap.Error(err),
			)
			attempts = append(attempts, Attempt{Query: v.Query, Tier: v.Tier, Error: err.Error()})
			continue
		}

		n := len(res.Listings)
		attempts = append(attempts, Attempt{Query: v.Query, Tier: v.Tier, Results: n})
		log.Debug("query: tier searched",
			zap.Int("tier", v.Tier),
			zap.String("variant", v.Query),
			zap.Int("results", n),
			zap.Int("total_count", res.TotalCount),
		)

		out := FallbackResult{
			Query:         v.Query,
			Tier:          v.Tier,
			Confidence:    v.Confidence,
			Broadened:     v.Tier > 1,
			StrippedTerms: v.StrippedTerms,
			Listings:      res.Listings,
			TotalCount:    res.TotalCount,
		}
		if n >= minResults {
			out.Attempts = attempts
			if out.Broadened {
				log.Info("query: broadened search",
					zap.Int("tier", v.Tier),
					zap.String("variant", v.Query),
					zap.Strings("stripped", v.StrippedTerms),
				)
			}
			return out
		}
		best = &out
	}

	if best == nil {
		log.Warn("query: all tiers failed", zap.Int("attempts", len(attempts)))
		return FallbackResult{
			Query:         original,
			Tier:          1,
			Confidence:    failedConfidence,
			Broadened:     false,
			StrippedTerms: []string{},
			Listings:      []model.ListingSample{},
			Attempts:      attempts,
		}
	}

	best.Confidence *= insufficientPenalty
	best.Broadened = true
	best.Attempts = attempts
	log.Info("query: insufficient results on every tier",
		zap.Int("tier", best.Tier),
		zap.Int("results", len(best.Listings)),
		zap.Int("min_results", minResults),
	)
	return *best
}
