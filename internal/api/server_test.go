package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/vest-cli/internal/model"
	"github.com/sells-group/vest-cli/internal/query"
	"github.com/sells-group/vest-cli/internal/scan"
	"github.com/sells-group/vest-cli/internal/scorer"
	"github.com/sells-group/vest-cli/internal/store"
	"github.com/sells-group/vest-cli/internal/velocity"
)

func strongMarket() model.MarketSummary {
	return model.MarketSummary{
		AvgSoldPrice:       45,
		MedianSoldPrice:    45,
		MinSoldPrice:       38,
		MaxSoldPrice:       52,
		TotalSold30Days:    60,
		TotalSold90Days:    150,
		AvgDaysToSell:      6,
		ActiveListingCount: 20,
		AvgActivePrice:     48,
		SellThroughRate:    0.75,
		PriceVolatility:    0.08,
	}
}

func post(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	t.Parallel()
	rec := get(t, New(nil).Handler(), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["scans"])
}

func TestScore(t *testing.T) {
	t.Parallel()
	srv := New(nil)
	h := srv.Handler()

	rec := post(t, h, "/v1/score", map[string]any{"summary": strongMarket(), "buy_price": 12})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decodeBody[model.VestScore](t, rec)
	assert.Equal(t, model.GradeBPlus, got.Grade)
	assert.InDelta(t, 83.0, got.Total, 1e-9)
	assert.InDelta(t, 16.55, got.EstimatedProfit, 1e-9)
	require.NotNil(t, got.GradeOverride)
	assert.Equal(t, "VELOCITY_CHAMPION", got.GradeOverride.OverrideRule)

	metrics := get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, metrics.Code)
	text := metrics.Body.String()
	assert.Contains(t, text, `vest_scoring_scores_total{grade="B+",override="true"} 1`)
	assert.Contains(t, text, `vest_http_requests_total{method="POST",route="/v1/score",status="200"} 1`)
}

func TestScore_BadRequests(t *testing.T) {
	t.Parallel()
	h := New(nil).Handler()

	tests := []struct {
		name string
		body any
	}{
		{"malformed", `{"summary":`},
		{"negative buy", map[string]any{"summary": strongMarket(), "buy_price": -1}},
		{"promoted rate", map[string]any{"summary": strongMarket(), "promoted_rate": 2}},
		{"negative shipping", map[string]any{"summary": strongMarket(), "shipping_cost": -3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := post(t, h, "/v1/score", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "error")
		})
	}
}

func TestProfit(t *testing.T) {
	t.Parallel()
	rec := post(t, New(nil).Handler(), "/v1/profit", map[string]any{
		"sale_price": 45, "buy_price": 12, "shipping_cost": 8,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	got := decodeBody[profitResponse](t, rec)
	assert.InDelta(t, 6.84, got.Breakdown.EbayFinalValueFee, 1e-9)
	assert.InDelta(t, 1.61, got.Breakdown.PaymentProcessingFee, 1e-9)
	assert.InDelta(t, 16.55, got.Breakdown.NetProfit, 1e-9)
	assert.InDelta(t, 82.75, got.Breakdown.ROI.Percent(), 1e-9)
	assert.NotEmpty(t, got.Evaluation.Level)
}

func TestTriangulate(t *testing.T) {
	t.Parallel()
	h := New(nil).Handler()

	rec := post(t, h, "/v1/triangulate", map[string]any{
		"ai_estimate": map[string]any{"low": 10, "mid": 20, "high": 30},
		"asking":      map[string]any{"avg": 15, "min": 12, "max": 25, "count": 12},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[model.TriangulatedPrice](t, rec)
	assert.InDelta(t, 9.7, got.Low, 1e-9)
	assert.InDelta(t, 14.0, got.Mid, 1e-9)
	assert.InDelta(t, 23.44, got.High, 1e-9)

	rec = post(t, h, "/v1/triangulate", map[string]any{})
	require.Equal(t, http.StatusOK, rec.Code)
	got = decodeBody[model.TriangulatedPrice](t, rec)
	assert.InDelta(t, 15.0, got.Mid, 1e-9)
	assert.Equal(t, model.PricePass, got.Recommendation)
}

func TestSellThrough(t *testing.T) {
	t.Parallel()
	rec := post(t, New(nil).Handler(), "/v1/sell-through", map[string]any{
		"demand_level": "HIGH", "active_listing_count": 3, "ai_mid": 40, "market_median": 60,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[velocity.Result](t, rec)
	assert.InDelta(t, 0.95, got.Rate, 1e-9)
	assert.Equal(t, 1, got.DaysToSell)
	assert.Equal(t, velocity.MarketSellers, got.MarketType)
}

func TestBroaden(t *testing.T) {
	t.Parallel()
	h := New(nil).Handler()

	rec := post(t, h, "/v1/broaden", map[string]string{"query": "Vintage Levi's 501 Blue Denim Jeans Size 32 Used"})
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[map[string][]query.Variant](t, rec)["variants"]
	require.Len(t, got, 3)
	assert.Equal(t, "Levi's 501 Jeans", got[2].Query)

	rec = post(t, h, "/v1/broaden", map[string]string{"query": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSuggest(t *testing.T) {
	t.Parallel()
	h := New(nil).Handler()

	rec := post(t, h, "/v1/suggest", map[string]any{"summary": strongMarket(), "grades": []string{"B+", "B", "F-"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decodeBody[map[string][]scorer.Suggestion](t, rec)["suggestions"]
	require.Len(t, got, 3)
	assert.InDelta(t, 18.0, got[0].BuyPrice, 1e-9)
	assert.True(t, got[0].Reachable)
	assert.InDelta(t, 20.0, got[1].BuyPrice, 1e-9)
	assert.InDelta(t, 44.0, got[2].BuyPrice, 1e-9)

	rec = post(t, h, "/v1/suggest", map[string]any{"summary": strongMarket()})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[map[string][]scorer.Suggestion](t, rec)["suggestions"], len(scan.DefaultLadder))

	rec = post(t, h, "/v1/suggest", map[string]any{"summary": strongMarket(), "grades": []string{"Z"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBodyTooLarge(t *testing.T) {
	t.Parallel()
	big := `{"query":"` + strings.Repeat("a", maxBodyBytes+10) + `"}`
	rec := post(t, New(nil).Handler(), "/v1/broaden", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestCORS(t *testing.T) {
	t.Parallel()
	h := New(nil, WithCORSOrigins([]string{"https://app.example.com"})).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/v1/score", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestScanEndpointsDisabled(t *testing.T) {
	t.Parallel()
	h := New(nil).Handler()

	assert.Equal(t, http.StatusNotImplemented, post(t, h, "/v1/scans", map[string]any{}).Code)
	assert.Equal(t, http.StatusNotImplemented, get(t, h, "/v1/scans").Code)
	assert.Equal(t, http.StatusNotImplemented, get(t, h, "/v1/scans/abc").Code)
}

type fakeSearcher struct {
	res model.SearchResult
}

func (f fakeSearcher) Search(context.Context, string, int) (model.SearchResult, error) {
	return f.res, nil
}

func newScanServer(t *testing.T) http.Handler {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	var res model.SearchResult
	for i := range 10 {
		res.Listings = append(res.Listings, model.ListingSample{
			ID: fmt.Sprintf("l%d", i), Title: "Switch OLED", Price: float64(250 + 5*i), Kind: model.ListingActive,
		})
	}
	res.TotalCount = 10

	sess := scan.NewSession(fakeSearcher{res: res}, nil, scan.Config{}, scan.WithHistory(st))
	return New(nil, WithSession(sess), WithHistory(st)).Handler()
}

func TestScanLifecycle(t *testing.T) {
	t.Parallel()
	h := newScanServer(t)

	rec := post(t, h, "/v1/scans", map[string]any{
		"item":      map[string]any{"name": "Switch OLED", "brand": "Nintendo", "category": "electronics-small"},
		"buy_price": 150,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decodeBody[scan.Result](t, rec)
	require.NotEmpty(t, first.ID)
	assert.Equal(t, 10, first.Asking.Count)

	rec = get(t, h, "/v1/scans/"+first.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, first.Score.Total, decodeBody[scan.Result](t, rec).Score.Total)

	rec = post(t, h, "/v1/scans/"+first.ID+"/rescore", map[string]any{"buy_price": 200, "excluded_ids": []string{"l0"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	second := decodeBody[scan.Result](t, rec)
	assert.Equal(t, first.ID, second.ParentID)
	assert.Equal(t, 9, second.Asking.Count)

	rec = get(t, h, "/v1/scans?limit=10")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[map[string][]store.ScanRecord](t, rec)["scans"]
	require.Len(t, list, 2)
	for _, r := range list {
		assert.Nil(t, r.Payload)
	}

	req := httptest.NewRequest(http.MethodDelete, "/v1/scans/"+first.ID, nil)
	del := httptest.NewRecorder()
	h.ServeHTTP(del, req)
	assert.Equal(t, http.StatusNoContent, del.Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/v1/scans/"+first.ID).Code)
}

func TestScan_BadInput(t *testing.T) {
	t.Parallel()
	h := newScanServer(t)

	rec := post(t, h, "/v1/scans", map[string]any{"item": map[string]any{}, "buy_price": 10})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, h, "/v1/scans?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(t, h, "/v1/scans/missing/rescore", map[string]any{"buy_price": 10})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
