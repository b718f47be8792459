// Package model defines the value types shared across the pricing and scoring pipeline.
package model

import "math"

// RoundCents rounds a currency amount to two decimal places, half away from zero.
// The small nudge absorbs binary representation error so 1.605 rounds to 1.61.
func RoundCents(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round((v+math.Copysign(1e-9, v))*100) / 100
}

// Sanitize maps negative, NaN and infinite amounts to zero.
func Sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// SafeRatio returns num/den, or fallback when den is zero or the result is not finite.
func SafeRatio(num, den, fallback float64) float64 {
	if den == 0 {
		return fallback
	}
	r := num / den
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return fallback
	}
	return r
}

// Ratio is a fraction (0.25 means 25%). Percentages only exist at the
// presentation boundary via Percent.
type Ratio float64

// Percent returns the ratio expressed as a percentage rounded to two places.
func (r Ratio) Percent() float64 {
	return math.Round(float64(r)*10000) / 100
}

// Float returns the raw fraction.
func (r Ratio) Float() float64 {
	return float64(r)
}

// RoundRatio rounds a fraction to four places (two places once shown as a percent).
func RoundRatio(v float64) Ratio {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return Ratio(math.Round(v*10000) / 10000)
}
