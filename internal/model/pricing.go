package model

import "strings"

// DemandLevel is the coarse demand signal attached to an AI price estimate.
type DemandLevel string

// Demand levels.
const (
	DemandHigh   DemandLevel = "high"
	DemandMedium DemandLevel = "medium"
	DemandLow    DemandLevel = "low"
)

// ParseDemandLevel normalizes a demand string. Unknown values map to medium.
func ParseDemandLevel(s string) DemandLevel {
	switch DemandLevel(strings.ToLower(strings.TrimSpace(s))) {
	case DemandHigh:
		return DemandHigh
	case DemandLow:
		return DemandLow
	default:
		return DemandMedium
	}
}

// DataQuality labels how much marketplace evidence backs a price.
type DataQuality string

// Data quality labels.
const (
	QualityHigh   DataQuality = "high"
	QualityMedium DataQuality = "medium"
	QualityLow    DataQuality = "low"
)

// PriceRecommendation is the buy/maybe/pass verdict attached to a triangulated price.
type PriceRecommendation string

// Price recommendations.
const (
	PriceBuy   PriceRecommendation = "buy"
	PriceMaybe PriceRecommendation = "maybe"
	PricePass  PriceRecommendation = "pass"
)

// ItemPriceEstimate is the price guess produced by the identification service.
type ItemPriceEstimate struct {
	Low         float64     `json:"low"`
	Mid         float64     `json:"mid"`
	High        float64     `json:"high"`
	MSRP        *float64    `json:"msrp,omitempty"`
	Confidence  float64     `json:"confidence"`
	DemandLevel DemandLevel `json:"demand_level"`
	RedFlags    []string    `json:"red_flags,omitempty"`
}

// Usable reports whether the estimate carries any positive price.
func (e *ItemPriceEstimate) Usable() bool {
	if e == nil {
		return false
	}
	return Sanitize(e.Low) > 0 || Sanitize(e.Mid) > 0 || Sanitize(e.High) > 0
}

// AskingStats summarizes live asking prices from a marketplace search.
type AskingStats struct {
	Avg    float64 `json:"avg"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Count  int     `json:"count"`
}

// TriangulatedPrice is the trusted sold-price estimate derived from the AI
// estimate and asking-price statistics.
type TriangulatedPrice struct {
	Low            float64             `json:"low"`
	Mid            float64             `json:"mid"`
	High           float64             `json:"high"`
	Confidence     float64             `json:"confidence"`
	DataQuality    DataQuality         `json:"data_quality"`
	Reasoning      string              `json:"reasoning"`
	MarketInsight  string              `json:"market_insight"`
	Recommendation PriceRecommendation `json:"recommendation"`
}

// ProfitBreakdown is the fee-adjusted take-home profit for one buy/sell pair.
type ProfitBreakdown struct {
	ExpectedSalePrice    float64 `json:"expected_sale_price"`
	EbayFinalValueFee    float64 `json:"ebay_final_value_fee"`
	PaymentProcessingFee float64 `json:"payment_processing_fee"`
	ShippingCost         float64 `json:"shipping_cost"`
	PromotedListingFee   float64 `json:"promoted_listing_fee"`
	TotalPlatformCosts   float64 `json:"total_platform_costs"`
	BuyPrice             float64 `json:"buy_price"`
	NetProfit            float64 `json:"net_profit"`
	ROI                  Ratio   `json:"roi"`
	EffectiveMargin      Ratio   `json:"effective_margin"`
}
