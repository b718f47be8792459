package model

import "strings"

// Identification is what the item-identification service reports for a photo.
type Identification struct {
	Name          string             `json:"name"`
	Brand         string             `json:"brand,omitempty"`
	Category      string             `json:"category,omitempty"`
	Condition     string             `json:"condition,omitempty"`
	Confidence    float64            `json:"confidence"`
	SearchQuery   string             `json:"search_query,omitempty"`
	PriceEstimate *ItemPriceEstimate `json:"price_estimate,omitempty"`
}

// Query returns the marketplace search phrase, falling back to brand + name.
func (i Identification) Query() string {
	if q := strings.TrimSpace(i.SearchQuery); q != "" {
		return q
	}
	name := strings.TrimSpace(i.Name)
	brand := strings.TrimSpace(i.Brand)
	if brand != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(brand)) {
		return strings.TrimSpace(brand + " " + name)
	}
	return name
}

// Demand returns the estimate's demand level, or medium when no estimate exists.
func (i Identification) Demand() DemandLevel {
	if i.PriceEstimate == nil {
		return DemandMedium
	}
	return ParseDemandLevel(string(i.PriceEstimate.DemandLevel))
}
