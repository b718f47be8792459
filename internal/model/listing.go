package model

import "math"

// ListingKind distinguishes live asking listings from sold history.
type ListingKind string

// Listing kinds.
const (
	ListingActive ListingKind = "active"
	ListingSold   ListingKind = "sold"
)

// ListingSample is one marketplace listing.
type ListingSample struct {
	ID        string      `json:"id,omitempty"`
	Title     string      `json:"title,omitempty"`
	Price     float64     `json:"price"`
	Condition string      `json:"condition,omitempty"`
	ImageURL  string      `json:"image_url,omitempty"`
	Kind      ListingKind `json:"kind"`

	// Sold listings only.
	SoldDaysAgo  int     `json:"sold_days_ago,omitempty"`
	DaysOnMarket float64 `json:"days_on_market,omitempty"`
}

// Valid reports whether the listing price can enter aggregate statistics.
func (l ListingSample) Valid() bool {
	return l.Price > 0 && !math.IsNaN(l.Price) && !math.IsInf(l.Price, 0)
}

// SearchResult is what a marketplace search returns for one query.
type SearchResult struct {
	Listings   []ListingSample `json:"listings"`
	TotalCount int             `json:"total_count"`
}

// MarketSummary aggregates a listing set into the statistics the scorers consume.
type MarketSummary struct {
	AvgSoldPrice       float64 `json:"avg_sold_price"`
	MedianSoldPrice    float64 `json:"median_sold_price"`
	MinSoldPrice       float64 `json:"min_sold_price"`
	MaxSoldPrice       float64 `json:"max_sold_price"`
	TotalSold30Days    int     `json:"total_sold_30_days"`
	TotalSold90Days    int     `json:"total_sold_90_days"`
	AvgDaysToSell      float64 `json:"avg_days_to_sell"`
	ActiveListingCount int     `json:"active_listing_count"`
	AvgActivePrice     float64 `json:"avg_active_price"`
	SellThroughRate    float64 `json:"sell_through_rate"`
	PriceVolatility    float64 `json:"price_volatility"`
}

// Normalize returns a copy with invalid numbers zeroed, counts made
// non-negative and the sell-through rate clamped to [0,1].
func (m MarketSummary) Normalize() MarketSummary {
	m.AvgSoldPrice = Sanitize(m.AvgSoldPrice)
	m.MedianSoldPrice = Sanitize(m.MedianSoldPrice)
	m.MinSoldPrice = Sanitize(m.MinSoldPrice)
	m.MaxSoldPrice = Sanitize(m.MaxSoldPrice)
	m.AvgDaysToSell = Sanitize(m.AvgDaysToSell)
	m.AvgActivePrice = Sanitize(m.AvgActivePrice)
	m.PriceVolatility = Sanitize(m.PriceVolatility)
	m.SellThroughRate = Clamp(Sanitize(m.SellThroughRate), 0, 1)
	if m.TotalSold30Days < 0 {
		m.TotalSold30Days = 0
	}
	if m.TotalSold90Days < 0 {
		m.TotalSold90Days = 0
	}
	if m.ActiveListingCount < 0 {
		m.ActiveListingCount = 0
	}
	return m
}
