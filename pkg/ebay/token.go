package ebay

import (
	"context"
	"sync"
	"time"
)

// refreshMargin renews a token this long before eBay says it expires.
const refreshMargin = 60 * time.Second

// Token is an application access token from the client-credentials grant.
type Token struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// TokenCache holds one access token and refreshes it on demand. The clock
// is injectable for tests.
type TokenCache struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
	now       func() time.Time
}

// NewTokenCache returns an empty cache. A nil now uses time.Now.
func NewTokenCache(now func() time.Time) *TokenCache {
	if now == nil {
		now = time.Now
	}
	return &TokenCache{now: now}
}

// Get returns the cached token, calling fetch when it is missing or about
// to expire. Concurrent callers share one fetch.
func (c *TokenCache) Get(ctx context.Context, fetch func(ctx context.Context) (Token, error)) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Add(refreshMargin).Before(c.expiresAt) {
		return c.token, nil
	}

	tok, err := fetch(ctx)
	if err != nil {
		return "", err
	}
	c.token = tok.AccessToken
	c.expiresAt = c.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return c.token, nil
}

// Invalidate drops the cached token so the next Get fetches a new one.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.expiresAt = time.Time{}
}

// ExpiresAt reports when the cached token expires.
func (c *TokenCache) ExpiresAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expiresAt
}
