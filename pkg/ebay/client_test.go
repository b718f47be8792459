package ebay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/vest-cli/internal/resilience"
)

const searchBody = `{
  "total": 321,
  "limit": 2,
  "itemSummaries": [
    {"itemId": "v1|111|0", "title": "Nintendo Switch OLED", "price": {"value": "289.99", "currency": "USD"},
     "condition": "Used", "image": {"imageUrl": "https://i.ebayimg.com/1.jpg"}},
    {"itemId": "v1|222|0", "title": "Nintendo Switch OLED White", "price": {"value": "305.00", "currency": "USD"},
     "condition": "New"}
  ]
}`

type fakeEbay struct {
	tokenCalls  atomic.Int32
	searchCalls atomic.Int32
	// searchStatus returns the status for the nth search call (1-based).
	searchStatus func(n int32) int
}

func (f *fakeEbay) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/identity/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		n := f.tokenCalls.Add(1)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "id", user)
		assert.Equal(t, "secret", pass)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		_ = json.NewEncoder(w).Encode(Token{AccessToken: fmt.Sprintf("tok-%d", n), ExpiresIn: 7200})
	})
	mux.HandleFunc("/buy/browse/v1/item_summary/search", func(w http.ResponseWriter, r *http.Request) {
		n := f.searchCalls.Add(1)
		assert.Equal(t, "EBAY_US", r.Header.Get("X-EBAY-C-MARKETPLACE-ID"))
		if f.searchStatus != nil {
			if code := f.searchStatus(n); code != http.StatusOK {
				w.WriteHeader(code)
				_, _ = w.Write([]byte(`{"errors":[{"message":"nope"}]}`))
				return
			}
		}
		assert.Equal(t, "nintendo switch", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(searchBody))
	})
	return mux
}

func newTestClient(t *testing.T, f *fakeEbay) Client {
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return NewClient("id", "secret",
		WithBaseURL(srv.URL),
		WithRateLimit(1000),
		WithRetry(resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}),
	)
}

func TestSearch(t *testing.T) {
	t.Parallel()
	f := &fakeEbay{}
	c := newTestClient(t, f)

	resp, err := c.Search(context.Background(), SearchRequest{Query: "nintendo switch", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 321, resp.Total)
	require.Len(t, resp.ItemSummaries, 2)
	assert.Equal(t, 289.99, resp.ItemSummaries[0].Price.Float())
	assert.Equal(t, "https://i.ebayimg.com/1.jpg", resp.ItemSummaries[0].Image.ImageURL)

	_, err = c.Search(context.Background(), SearchRequest{Query: "nintendo switch"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.tokenCalls.Load(), "token is cached between searches")
}

func TestSearch_RetriesTransientStatus(t *testing.T) {
	t.Parallel()
	f := &fakeEbay{searchStatus: func(n int32) int {
		if n == 1 {
			return http.StatusServiceUnavailable
		}
		return http.StatusOK
	}}
	c := newTestClient(t, f)

	resp, err := c.Search(context.Background(), SearchRequest{Query: "nintendo switch"})
	require.NoError(t, err)
	assert.Equal(t, 321, resp.Total)
	assert.Equal(t, int32(2), f.searchCalls.Load())
}

func TestSearch_RefreshesRevokedToken(t *testing.T) {
	t.Parallel()
	f := &fakeEbay{searchStatus: func(n int32) int {
		if n == 1 {
			return http.StatusUnauthorized
		}
		return http.StatusOK
	}}
	c := newTestClient(t, f)

	_, err := c.Search(context.Background(), SearchRequest{Query: "nintendo switch"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.tokenCalls.Load())
}

func TestSearch_PermanentError(t *testing.T) {
	t.Parallel()
	f := &fakeEbay{searchStatus: func(int32) int { return http.StatusBadRequest }}
	c := newTestClient(t, f)

	_, err := c.Search(context.Background(), SearchRequest{Query: "nintendo switch"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 400")
	assert.Equal(t, int32(1), f.searchCalls.Load())
	assert.False(t, resilience.IsTransient(err))
}

func TestSearch_ExhaustedRetriesAreTransient(t *testing.T) {
	t.Parallel()
	f := &fakeEbay{searchStatus: func(int32) int { return http.StatusTooManyRequests }}
	c := newTestClient(t, f)

	_, err := c.Search(context.Background(), SearchRequest{Query: "nintendo switch"})
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
	assert.Equal(t, int32(3), f.searchCalls.Load())
}

func TestSearch_EmptyQuery(t *testing.T) {
	t.Parallel()
	c := NewClient("id", "secret")
	_, err := c.Search(context.Background(), SearchRequest{Query: "  "})
	require.Error(t, err)
}

func TestTokenCache(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	tc := NewTokenCache(func() time.Time { return now })
	calls := 0
	fetch := func(context.Context) (Token, error) {
		calls++
		return Token{AccessToken: fmt.Sprintf("t%d", calls), ExpiresIn: 300}, nil
	}

	tok, err := tc.Get(context.Background(), fetch)
	require.NoError(t, err)
	assert.Equal(t, "t1", tok)
	assert.Equal(t, now.Add(5*time.Minute), tc.ExpiresAt())

	now = now.Add(3 * time.Minute)
	tok, _ = tc.Get(context.Background(), fetch)
	assert.Equal(t, "t1", tok)

	// Inside the refresh margin.
	now = now.Add(time.Minute + time.Second)
	tok, _ = tc.Get(context.Background(), fetch)
	assert.Equal(t, "t2", tok)

	tc.Invalidate()
	tok, _ = tc.Get(context.Background(), fetch)
	assert.Equal(t, "t3", tok)
}

func TestTokenCache_FetchError(t *testing.T) {
	t.Parallel()

	tc := NewTokenCache(nil)
	_, err := tc.Get(context.Background(), func(context.Context) (Token, error) {
		return Token{}, fmt.Errorf("boom")
	})
	require.Error(t, err)
	assert.True(t, tc.ExpiresAt().IsZero())
}

func TestAmountFloat(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 12.5, Amount{Value: "12.50"}.Float())
	assert.Equal(t, 0.0, Amount{Value: "n/a"}.Float())
}
