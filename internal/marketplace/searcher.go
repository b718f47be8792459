// Package marketplace adapts marketplace search backends to the listing
// model used by the pricing pipeline.
package marketplace

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/vest-cli/internal/model"
	"github.com/sells-group/vest-cli/internal/query"
	"github.com/sells-group/vest-cli/internal/resilience"
)

// DefaultLimit is the number of listings requested per search.
const DefaultLimit = 50

// Searcher returns active listings for a query.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) (model.SearchResult, error)
}

// SearchFunc adapts s to the tiered search used by query relaxation. Each
// call is bounded by timeout when it is positive.
func SearchFunc(s Searcher, limit int, timeout time.Duration) query.SearchFunc {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return func(ctx context.Context, q string) (model.SearchResult, error) {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return s.Search(ctx, q, limit)
	}
}

// Guarded wraps a searcher with a circuit breaker.
type Guarded struct {
	next    Searcher
	breaker *resilience.Breaker
}

// NewGuarded returns next behind breaker.
func NewGuarded(next Searcher, breaker *resilience.Breaker) *Guarded {
	return &Guarded{next: next, breaker: breaker}
}

// Search implements Searcher.
func (g *Guarded) Search(ctx context.Context, q string, limit int) (model.SearchResult, error) {
	return resilience.Call(ctx, g.breaker, func(ctx context.Context) (model.SearchResult, error) {
		return g.next.Search(ctx, q, limit)
	})
}

// Fallback tries each searcher in order and returns the first success.
type Fallback []Searcher

// Search implements Searcher.
func (f Fallback) Search(ctx context.Context, q string, limit int) (model.SearchResult, error) {
	if len(f) == 0 {
		return model.SearchResult{}, eris.New("marketplace: no searchers configured")
	}
	var errs []error
	for i, s := range f {
		res, err := s.Search(ctx, q, limit)
		if err == nil {
			return res, nil
		}
		zap.L().Warn("marketplace: searcher failed, trying next",
			zap.Int("index", i),
			zap.String("query", q),
			zap.Error(err),
		)
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return model.SearchResult{}, eris.Wrap(errs[len(errs)-1], "marketplace: all searchers failed")
}
