package query

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sells-group/vest-cli/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ladderQuery = "Vintage Levi's 501 Blue Denim Jeans Size 32 Used"

func listings(n int) model.SearchResult {
	out := model.SearchResult{TotalCount: n * 10}
	for i := 0; i < n; i++ {
		out.Listings = append(out.Listings, model.ListingSample{
			ID:    fmt.Sprintf("l-%d", i),
			Price: float64(20 + i),
			Kind:  model.ListingActive,
		})
	}
	return out
}

// scripted returns a SearchFunc answering each query from a table.
func scripted(answers map[string]model.SearchResult, failures map[string]error, calls *[]string) SearchFunc {
	return func(_ context.Context, q string) (model.SearchResult, error) {
		*calls = append(*calls, q)
		if err, ok := failures[q]; ok {
			return model.SearchResult{}, err
		}
		return answers[q], nil
	}
}

func TestSearchWithFallback_FirstTierWins(t *testing.T) {
	t.Parallel()
	var calls []string
	fn := scripted(map[string]model.SearchResult{ladderQuery: listings(5)}, nil, &calls)

	got := SearchWithFallback(context.Background(), ladderQuery, fn, 3)

	assert.Equal(t, 1, got.Tier)
	assert.False(t, got.Broadened)
	assert.Equal(t, 1.0, got.Confidence)
	assert.Len(t, got.Listings, 5)
	assert.Equal(t, 50, got.TotalCount)
	assert.Equal(t, []string{ladderQuery}, calls)
}

func TestSearchWithFallback_BroadensToTier2(t *testing.T) {
	t.Parallel()
	var calls []string
	fn := scripted(map[string]model.SearchResult{
		ladderQuery:                      listings(1),
		"Levi's 501 Denim Jeans Size 32": listings(4),
	}, nil, &calls)

	got := SearchWithFallback(context.Background(), ladderQuery, fn, 3)

	assert.Equal(t, 2, got.Tier)
	assert.True(t, got.Broadened)
	assert.Equal(t, ConfidenceSimplified, got.Confidence)
	assert.Len(t, got.Attempts, 2)
	assert.Len(t, calls, 2)
}

func TestSearchWithFallback_InsufficientEverywhere(t *testing.T) {
	t.Parallel()
	var calls []string
	fn := scripted(map[string]model.SearchResult{
		ladderQuery:                      listings(0),
		"Levi's 501 Denim Jeans Size 32": listings(1),
		"Levi's 501 Jeans":               listings(2),
	}, nil, &calls)

	got := SearchWithFallback(context.Background(), ladderQuery, fn, 3)

	assert.Equal(t, 3, got.Tier)
	assert.True(t, got.Broadened)
	assert.InDelta(t, ConfidenceCore*0.5, got.Confidence, 1e-9)
	assert.Len(t, got.Listings, 2)
	assert.Len(t, got.Attempts, 3)
}

func TestSearchWithFallback_InsufficientKeepsBroadestTier(t *testing.T) {
	t.Parallel()
	var calls []string
	fn := scripted(map[string]model.SearchResult{
		ladderQuery:                      listings(2),
		"Levi's 501 Denim Jeans Size 32": listings(2),
		"Levi's 501 Jeans":               listings(1),
	}, nil, &calls)

	got := SearchWithFallback(context.Background(), ladderQuery, fn, 3)

	assert.Equal(t, 3, got.Tier)
	assert.Equal(t, "Levi's 501 Jeans", got.Query)
	assert.Len(t, got.Listings, 1)
	assert.InDelta(t, ConfidenceCore*0.5, got.Confidence, 1e-9)
}

func TestSearchWithFallback_SkipsFailedTier(t *testing.T) {
	t.Parallel()
	var calls []string
	fn := scripted(
		map[string]model.SearchResult{"Levi's 501 Jeans": listings(6)},
		map[string]error{
			ladderQuery:                      errors.New("timeout"),
			"Levi's 501 Denim Jeans Size 32": errors.New("503"),
		},
		&calls,
	)

	got := SearchWithFallback(context.Background(), ladderQuery, fn, 3)

	assert.Equal(t, 3, got.Tier)
	assert.Equal(t, ConfidenceCore, got.Confidence)
	require.Len(t, got.Attempts, 3)
	assert.Equal(t, "timeout", got.Attempts[0].Error)
	assert.Equal(t, "503", got.Attempts[1].Error)
	assert.Empty(t, got.Attempts[2].Error)
}

func TestSearchWithFallback_AllFail(t *testing.T) {
	t.Parallel()
	fn := func(_ context.Context, _ string) (model.SearchResult, error) {
		return model.SearchResult{}, errors.New("down")
	}

	got := SearchWithFallback(context.Background(), ladderQuery, fn, 3)

	assert.Equal(t, 0.1, got.Confidence)
	assert.Empty(t, got.Listings)
	assert.NotNil(t, got.Listings)
	assert.Equal(t, 0, got.TotalCount)
	assert.Len(t, got.Attempts, 3)
}

func TestSearchWithFallback_DefaultThreshold(t *testing.T) {
	t.Parallel()
	var calls []string
	fn := scripted(map[string]model.SearchResult{"Nintendo Switch": listings(3)}, nil, &calls)

	got := SearchWithFallback(context.Background(), "Nintendo Switch", fn, 0)

	assert.Equal(t, 1, got.Tier)
	assert.False(t, got.Broadened)
}

func TestSearchWithFallback_CanceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	fn := func(_ context.Context, _ string) (model.SearchResult, error) {
		called = true
		return listings(5), nil
	}

	got := SearchWithFallback(ctx, ladderQuery, fn, 3)

	assert.False(t, called)
	assert.Equal(t, 0.1, got.Confidence)
}
