package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/vest-cli/internal/identify"
	"github.com/sells-group/vest-cli/internal/market"
	"github.com/sells-group/vest-cli/internal/model"
	"github.com/sells-group/vest-cli/internal/scorer"
	"github.com/sells-group/vest-cli/internal/store"
)

type fakeSearcher struct {
	mu      sync.Mutex
	queries []string
	res     model.SearchResult
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, q string, _ int) (model.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return f.res, f.err
}

func (f *fakeSearcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

type memStore struct {
	mu   sync.Mutex
	recs map[string]store.ScanRecord
}

func (m *memStore) SaveScan(_ context.Context, rec store.ScanRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recs == nil {
		m.recs = map[string]store.ScanRecord{}
	}
	m.recs[rec.ID] = rec
	return nil
}

func (m *memStore) GetScan(_ context.Context, id string) (*store.ScanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &rec, nil
}

func (m *memStore) ListScans(context.Context, store.ScanFilter) ([]store.ScanRecord, error) {
	return nil, nil
}
func (m *memStore) DeleteScan(context.Context, string) error { return nil }
func (m *memStore) Migrate(context.Context) error            { return nil }
func (m *memStore) Close() error                              { return nil }

func listings(n int) model.SearchResult {
	res := model.SearchResult{TotalCount: n}
	for i := range n {
		res.Listings = append(res.Listings, model.ListingSample{
			ID:    fmt.Sprintf("item-%d", i),
			Title: "LEGO Castle",
			Price: float64(20 + i),
			Kind:  model.ListingActive,
		})
	}
	return res
}

func legoItem() model.Identification {
	return model.Identification{
		Name:     "LEGO Castle 6080",
		Brand:    "LEGO",
		Category: "toys",
		PriceEstimate: &model.ItemPriceEstimate{
			Low: 15, Mid: 25, High: 35, Confidence: 0.7, DemandLevel: model.DemandHigh,
		},
	}
}

var fixedNow = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

func newTestSession(s *fakeSearcher, opts ...Option) *Session {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewSession(s, nil, Config{Seed: 7}, opts...)
}

func TestRun(t *testing.T) {
	t.Parallel()
	fs := &fakeSearcher{res: listings(12)}
	hist := &memStore{}
	sess := newTestSession(fs, WithHistory(hist))

	r, err := sess.Run(context.Background(), legoItem(), 10, scorer.Options{})
	require.NoError(t, err)

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, fixedNow, r.CreatedAt)
	assert.Equal(t, "toys", r.Options.Category, "category falls back to the item's")
	assert.Equal(t, 1, r.Search.Tier)
	assert.Equal(t, []string{"LEGO Castle 6080"}, fs.queries)

	assert.Equal(t, 12, r.Asking.Count)
	assert.LessOrEqual(t, r.Price.Low, r.Price.Mid)
	assert.LessOrEqual(t, r.Price.Mid, r.Price.High)
	assert.Equal(t, model.QualityHigh, r.Price.DataQuality)

	assert.Equal(t, 12, r.Market.ActiveListingCount)
	assert.Positive(t, r.Market.TotalSold30Days)
	assert.Positive(t, r.Market.MedianSoldPrice)
	assert.InDelta(t, 10.0, r.Score.ProfitBreakdown.BuyPrice, 1e-9)
	assert.NotEqual(t, -1, scorer.GradeValue(r.Score.Grade))
	assert.Positive(t, r.ListPrice)
	require.Len(t, r.Suggestions, len(DefaultLadder))

	rec, err := hist.GetScan(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Score.Grade, rec.Grade)
	assert.Equal(t, "LEGO Castle 6080", rec.ItemName)
}

func TestRun_Deterministic(t *testing.T) {
	t.Parallel()
	fs := &fakeSearcher{res: listings(8)}
	sess := newTestSession(fs)

	a, err := sess.Run(context.Background(), legoItem(), 12, scorer.Options{})
	require.NoError(t, err)
	b, err := sess.Run(context.Background(), legoItem(), 12, scorer.Options{})
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.Market, b.Market)
	assert.Equal(t, a.Score, b.Score)
}

func TestRun_BroadensQuery(t *testing.T) {
	t.Parallel()
	fs := &fakeSearcher{}
	fs.res = listings(1)
	item := model.Identification{SearchQuery: "Vintage Levi's 501 Blue Denim Jeans Size 32 Used"}

	r, err := newTestSession(fs).Run(context.Background(), item, 5, scorer.Options{})
	require.NoError(t, err)
	assert.True(t, r.Search.Broadened)
	assert.Equal(t, 3, fs.calls())
	assert.Equal(t, "Levi's 501 Jeans", r.Search.Query)
}

func TestRun_AllSearchesFail(t *testing.T) {
	t.Parallel()
	fs := &fakeSearcher{err: errors.New("marketplace down")}

	r, err := newTestSession(fs).Run(context.Background(), legoItem(), 10, scorer.Options{})
	require.NoError(t, err)
	assert.InDelta(t, 0.1, r.Search.Confidence, 1e-9)
	assert.Empty(t, r.Search.Listings)
	assert.Equal(t, 0, r.Asking.Count)
	// Falls back to the identification's own estimate, discounted.
	assert.InDelta(t, 21.25, r.Price.Mid, 1e-9)
	assert.Equal(t, model.QualityLow, r.Price.DataQuality)
}

func TestRun_NoEstimate(t *testing.T) {
	t.Parallel()
	fs := &fakeSearcher{res: listings(20)}
	item := model.Identification{Name: "LEGO Castle 6080"}

	r, err := newTestSession(fs).Run(context.Background(), item, 10, scorer.Options{})
	require.NoError(t, err)

	// Medium baseline with no density or price-position adjustment.
	assert.InDelta(t, 0.40, r.SellThrough.Rate, 1e-9)
	assert.Equal(t, 12, r.SellThrough.DaysToSell)
	require.Len(t, r.SellThrough.Reasoning, 1)
	for _, reason := range r.SellThrough.Reasoning {
		assert.NotContains(t, reason, "below market")
	}
}

func TestRun_LargeSupply(t *testing.T) {
	t.Parallel()
	res := listings(50)
	res.TotalCount = 3000
	fs := &fakeSearcher{res: res}

	r, err := newTestSession(fs).Run(context.Background(), legoItem(), 10, scorer.Options{})
	require.NoError(t, err)

	assert.Equal(t, market.MaxSynthetic30, r.Market.TotalSold30Days)
	assert.InDelta(t, r.SellThrough.Rate, r.Market.SellThroughRate, 1e-9)
	assert.Equal(t, market.ModeledSupply(r.SellThrough.Rate, 3000), r.Market.ActiveListingCount)
	assert.Less(t, r.Market.ActiveListingCount, 3000)
	assert.InDelta(t, r.SellThrough.Rate,
		market.SellThrough(r.Market.TotalSold30Days, r.Market.ActiveListingCount), 0.01)
}

func TestRun_InvalidItem(t *testing.T) {
	t.Parallel()
	_, err := newTestSession(&fakeSearcher{}).Run(context.Background(), model.Identification{}, 10, scorer.Options{})
	require.ErrorIs(t, err, identify.ErrNoItem)
}

func TestRun_CanceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestSession(&fakeSearcher{res: listings(5)}).Run(ctx, legoItem(), 10, scorer.Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunImage(t *testing.T) {
	t.Parallel()
	fs := &fakeSearcher{res: listings(6)}
	r, err := newTestSession(fs).RunImage(context.Background(), identify.Static{Item: legoItem()}, []byte{0xff}, "image/jpeg", 10, scorer.Options{})
	require.NoError(t, err)
	assert.Equal(t, "LEGO Castle 6080", r.Item.Name)

	_, err = newTestSession(fs).RunImage(context.Background(), identify.Static{}, nil, "", 10, scorer.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan: identify")
}

func TestRescore(t *testing.T) {
	t.Parallel()
	fs := &fakeSearcher{res: listings(12)}
	sess := newTestSession(fs)

	first, err := sess.Run(context.Background(), legoItem(), 10, scorer.Options{})
	require.NoError(t, err)

	second, err := sess.Rescore(context.Background(), first, 14, []string{"item-0", "item-11"})
	require.NoError(t, err)

	assert.Equal(t, 1, fs.calls(), "rescore makes no marketplace call")
	assert.Equal(t, first.ID, second.ParentID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 10, second.Asking.Count)
	assert.Equal(t, 10, second.Market.ActiveListingCount)
	assert.InDelta(t, 21.0, second.Asking.Min, 1e-9)
	assert.InDelta(t, 14.0, second.BuyPrice, 1e-9)
	assert.Len(t, second.Search.Listings, 12, "the original listings are kept")

	same, err := sess.Rescore(context.Background(), first, first.BuyPrice, nil)
	require.NoError(t, err)
	assert.Equal(t, first.Score, same.Score)

	_, err = sess.Rescore(context.Background(), nil, 10, nil)
	require.Error(t, err)
}

func TestRecordRoundTrip(t *testing.T) {
	t.Parallel()
	fs := &fakeSearcher{res: listings(6)}
	r, err := newTestSession(fs).Run(context.Background(), legoItem(), 10, scorer.Options{})
	require.NoError(t, err)

	rec, err := r.Record()
	require.NoError(t, err)
	assert.Equal(t, r.Search.Query, rec.Query)
	assert.InDelta(t, r.Score.Total, rec.Score, 1e-9)

	back, err := FromRecord(&rec)
	require.NoError(t, err)
	assert.Equal(t, r.ID, back.ID)
	assert.Equal(t, r.Score.Grade, back.Score.Grade)
	assert.Len(t, back.Search.Listings, 6)

	_, err = FromRecord(&store.ScanRecord{ID: "x"})
	require.Error(t, err)
}
