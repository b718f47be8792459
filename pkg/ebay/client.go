// Package ebay is a minimal client for the eBay Browse API item search.
package ebay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/vest-cli/internal/resilience"
)

const (
	defaultBaseURL     = "https://api.ebay.com"
	defaultMarketplace = "EBAY_US"
	browseScope        = "https://api.ebay.com/oauth/api_scope"
	maxLimit           = 200
)

// ErrUnauthorized is returned when eBay rejects fresh credentials.
var ErrUnauthorized = eris.New("ebay: unauthorized")

// Client searches eBay listings.
type Client interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// SearchRequest is the query for GET /buy/browse/v1/item_summary/search.
type SearchRequest struct {
	Query  string
	Limit  int
	Offset int
	// Filter is passed through verbatim, e.g. "conditions:{USED}".
	Filter string
}

// SearchResponse is the subset of the Browse search response we read.
type SearchResponse struct {
	Total         int           `json:"total"`
	Limit         int           `json:"limit"`
	Offset        int           `json:"offset"`
	ItemSummaries []ItemSummary `json:"itemSummaries"`
}

// ItemSummary is one listing in a search response.
type ItemSummary struct {
	ItemID     string `json:"itemId"`
	Title      string `json:"title"`
	Price      Amount `json:"price"`
	Condition  string `json:"condition"`
	ItemWebURL string `json:"itemWebUrl"`
	Image      struct {
		ImageURL string `json:"imageUrl"`
	} `json:"image"`
}

// Amount is a currency value. eBay sends the value as a string.
type Amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// Float parses the amount, returning 0 when it is not a number.
func (a Amount) Float() float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(a.Value), 64)
	if err != nil {
		return 0
	}
	return v
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the API host, for sandbox or tests.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithMarketplace sets the X-EBAY-C-MARKETPLACE-ID header.
func WithMarketplace(id string) Option {
	return func(c *httpClient) {
		if id != "" {
			c.marketplace = id
		}
	}
}

// WithRateLimit caps requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// WithRetry overrides the retry policy for transient failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

// WithTokenCache shares or injects a token cache.
func WithTokenCache(tc *TokenCache) Option {
	return func(c *httpClient) {
		if tc != nil {
			c.tokens = tc
		}
	}
}

type httpClient struct {
	clientID     string
	clientSecret string
	baseURL      string
	marketplace  string
	http         *http.Client
	limiter      *rate.Limiter
	retry        resilience.RetryConfig
	tokens       *TokenCache
}

// NewClient creates a Browse API client using application credentials.
func NewClient(clientID, clientSecret string, opts ...Option) Client {
	c := &httpClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      defaultBaseURL,
		marketplace:  defaultMarketplace,
		http:         &http.Client{Timeout: 20 * time.Second},
		limiter:      rate.NewLimiter(5, 5),
		retry:        resilience.DefaultRetryConfig(),
		tokens:       NewTokenCache(nil),
	}
	for _, o := range opts {
		o(c)
	}
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = resilience.RetryLogger("ebay", "search")
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, eris.New("ebay: empty query")
	}
	if req.Limit <= 0 || req.Limit > maxLimit {
		req.Limit = 50
	}

	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*SearchResponse, error) {
		resp, err := c.search(ctx, req)
		if eris.Is(err, ErrUnauthorized) {
			// The cached token was revoked early; fetch a new one and try once more.
			c.tokens.Invalidate()
			resp, err = c.search(ctx, req)
		}
		return resp, err
	})
}

func (c *httpClient) search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "ebay: rate limit")
	}
	token, err := c.tokens.Get(ctx, c.fetchToken)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("q", req.Query)
	q.Set("limit", strconv.Itoa(req.Limit))
	if req.Offset > 0 {
		q.Set("offset", strconv.Itoa(req.Offset))
	}
	if req.Filter != "" {
		q.Set("filter", req.Filter)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/buy/browse/v1/item_summary/search?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "ebay: create search request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("X-EBAY-C-MARKETPLACE-ID", c.marketplace)
	httpReq.Header.Set("Accept", "application/json")

	var out SearchResponse
	if err := c.do(httpReq, &out); err != nil {
		return nil, eris.Wrap(err, "ebay: search")
	}
	return &out, nil
}

func (c *httpClient) fetchToken(ctx context.Context) (Token, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", browseScope)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/identity/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, eris.Wrap(err, "ebay: create token request")
	}
	httpReq.SetBasicAuth(c.clientID, c.clientSecret)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var tok Token
	if err := c.do(httpReq, &tok); err != nil {
		return Token{}, eris.Wrap(err, "ebay: fetch token")
	}
	if tok.AccessToken == "" {
		return Token{}, eris.New("ebay: token response missing access_token")
	}
	return tok, nil
}

// do sends req and decodes a 200 JSON body into out. Retryable statuses
// come back as resilience.TransientError.
func (c *httpClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		if resilience.IsTransient(err) {
			return resilience.NewTransientError(err, 0)
		}
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return resilience.NewTransientError(eris.Wrap(err, "read body"), resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resilience.IsTransientHTTPStatus(resp.StatusCode):
		te := resilience.NewTransientError(
			eris.Errorf("status %d: %s", resp.StatusCode, truncate(body)), resp.StatusCode)
		te.RetryAfter = resilience.RetryAfter(resp.Header)
		return te
	default:
		return eris.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "decode response")
	}
	return nil
}

func (c *httpClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func truncate(b []byte) string {
	const n = 300
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
