// Package scorer computes the V.E.S.T. score, grade and recommendation for
// an item at a candidate buy price.
package scorer

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// Weights are the per-axis weights of the V.E.S.T. total. They sum to 1.
type Weights struct {
	Velocity  float64 `json:"velocity" yaml:"velocity" mapstructure:"velocity"`
	Equity    float64 `json:"equity" yaml:"equity" mapstructure:"equity"`
	Stability float64 `json:"stability" yaml:"stability" mapstructure:"stability"`
	Trend     float64 `json:"trend" yaml:"trend" mapstructure:"trend"`
}

// DefaultWeights returns the standard 40/40/10/10 split.
func DefaultWeights() Weights {
	return Weights{
		Velocity:  0.40,
		Equity:    0.40,
		Stability: 0.10,
		Trend:     0.10,
	}
}

// Sum returns the sum of all axis weights.
func (w Weights) Sum() float64 {
	return w.Velocity + w.Equity + w.Stability + w.Trend
}

// weightTolerance absorbs float error in configured weights.
const weightTolerance = 1e-6

// Validate checks that every weight is in [0,1] and that they sum to 1.
func (w Weights) Validate() error {
	var errs []string

	weights := []struct {
		name string
		v    float64
	}{
		{"velocity", w.Velocity},
		{"equity", w.Equity},
		{"stability", w.Stability},
		{"trend", w.Trend},
	}
	for _, x := range weights {
		if math.IsNaN(x.v) || x.v < 0 || x.v > 1 {
			errs = append(errs, fmt.Sprintf("%s weight must be in [0,1]", x.name))
		}
	}

	if sum := w.Sum(); math.Abs(sum-1) > weightTolerance {
		errs = append(errs, fmt.Sprintf("weights should sum to 1.0, got %.4f", sum))
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: weights validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
