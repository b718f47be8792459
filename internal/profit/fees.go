// Package profit computes fee-adjusted take-home profit for a resale.
package profit

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// CategoryDefault is the lookup key used when a category has no entry.
const CategoryDefault = "default"

// FeeSchedule holds the marketplace fee and shipping tables.
type FeeSchedule struct {
	// Shipping maps a normalized category to its default shipping cost.
	Shipping map[string]float64 `yaml:"shipping" mapstructure:"shipping"`
	// FinalValueRates maps a normalized category to the final-value fee rate.
	FinalValueRates map[string]float64 `yaml:"final_value_rates" mapstructure:"final_value_rates"`
	// PaymentRate and PaymentFixed form the per-order processing fee.
	PaymentRate  float64 `yaml:"payment_rate" mapstructure:"payment_rate"`
	PaymentFixed float64 `yaml:"payment_fixed" mapstructure:"payment_fixed"`
	// MaxPromotedRate caps the promoted-listing ad rate.
	MaxPromotedRate float64 `yaml:"max_promoted_rate" mapstructure:"max_promoted_rate"`
}

// DefaultFeeSchedule returns the standard eBay US fee schedule.
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		Shipping: map[string]float64{
			CategoryDefault:     8,
			"electronics-small": 8,
			"electronics-large": 18,
			"clothing":          6,
			"shoes":             10,
			"books":             4,
			"media":             4,
			"toys":              8,
			"collectibles":      6,
			"home":              10,
			"fragile":           12,
		},
		FinalValueRates: map[string]float64{
			CategoryDefault: 0.129,
			"books":         0.1455,
			"media":         0.1455,
			"music":         0.1455,
			"movies":        0.1455,
		},
		PaymentRate:     0.029,
		PaymentFixed:    0.30,
		MaxPromotedRate: 0.15,
	}
}

// NormalizeCategory lower-cases a category and joins words with dashes so
// "Electronics Small" and "electronics_small" share a table entry.
func NormalizeCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	if c == "" {
		return CategoryDefault
	}
	c = strings.NewReplacer("_", "-", "/", "-", " ", "-").Replace(c)
	for strings.Contains(c, "--") {
		c = strings.ReplaceAll(c, "--", "-")
	}
	return c
}

// ShippingFor returns the default shipping cost for a category.
func (s FeeSchedule) ShippingFor(category string) float64 {
	if v, ok := s.Shipping[NormalizeCategory(category)]; ok {
		return v
	}
	return s.Shipping[CategoryDefault]
}

// FinalValueRate returns the final-value fee rate for a category.
func (s FeeSchedule) FinalValueRate(category string) float64 {
	if v, ok := s.FinalValueRates[NormalizeCategory(category)]; ok {
		return v
	}
	return s.FinalValueRates[CategoryDefault]
}

// Validate checks that a FeeSchedule is internally consistent.
func (s FeeSchedule) Validate() error {
	var errs []string

	if _, ok := s.Shipping[CategoryDefault]; !ok {
		errs = append(errs, "shipping table needs a default entry")
	}
	if _, ok := s.FinalValueRates[CategoryDefault]; !ok {
		errs = append(errs, "final value rates need a default entry")
	}
	for k, v := range s.Shipping {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("shipping[%s] must be >= 0", k))
		}
	}
	for k, v := range s.FinalValueRates {
		if v < 0 || v >= 1 {
			errs = append(errs, fmt.Sprintf("final_value_rates[%s] must be in [0,1)", k))
		}
	}
	if s.PaymentRate < 0 || s.PaymentRate >= 1 {
		errs = append(errs, "payment_rate must be in [0,1)")
	}
	if s.PaymentFixed < 0 {
		errs = append(errs, "payment_fixed must be >= 0")
	}
	if s.MaxPromotedRate < 0 || s.MaxPromotedRate >= 1 {
		errs = append(errs, "max_promoted_rate must be in [0,1)")
	}

	if len(errs) > 0 {
		return eris.Errorf("profit: fee schedule validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// LoadFeeSchedule reads a fee schedule from a YAML file. Tables in the file
// are merged over the defaults so a file only needs the entries it changes.
func LoadFeeSchedule(path string) (FeeSchedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FeeSchedule{}, eris.Wrapf(err, "profit: read fee schedule %s", path)
	}

	// The YAML has a top-level "fees" key
	var wrapper struct {
		Fees struct {
			Shipping        map[string]float64 `yaml:"shipping"`
			FinalValueRates map[string]float64 `yaml:"final_value_rates"`
			PaymentRate     *float64           `yaml:"payment_rate"`
			PaymentFixed    *float64           `yaml:"payment_fixed"`
			MaxPromotedRate *float64           `yaml:"max_promoted_rate"`
		} `yaml:"fees"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return FeeSchedule{}, eris.Wrap(err, "profit: parse fee schedule")
	}

	s := DefaultFeeSchedule()
	for k, v := range wrapper.Fees.Shipping {
		s.Shipping[NormalizeCategory(k)] = v
	}
	for k, v := range wrapper.Fees.FinalValueRates {
		s.FinalValueRates[NormalizeCategory(k)] = v
	}
	if wrapper.Fees.PaymentRate != nil {
		s.PaymentRate = *wrapper.Fees.PaymentRate
	}
	if wrapper.Fees.PaymentFixed != nil {
		s.PaymentFixed = *wrapper.Fees.PaymentFixed
	}
	if wrapper.Fees.MaxPromotedRate != nil {
		s.MaxPromotedRate = *wrapper.Fees.MaxPromotedRate
	}

	if err := s.Validate(); err != nil {
		return FeeSchedule{}, err
	}
	return s, nil
}
