package market

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"

	"github.com/sells-group/vest-cli/internal/model"
)

// MaxSynthetic30 caps the number of synthetic 30-day sales.
const MaxSynthetic30 = 250

// SoldParams drives synthetic sold-listing generation.
type SoldParams struct {
	// Rate is the estimated sell-through rate in [0,1).
	Rate float64
	// DaysToSell is the expected time on market.
	DaysToSell int
	// ActiveCount is the number of live listings competing for buyers.
	ActiveCount int
}

// NewRand returns a generator seeded from the search query so the same
// item always yields the same synthetic history.
func NewRand(query string, seed uint64) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(query))
	return rand.New(rand.NewPCG(h.Sum64(), seed))
}

// SoldVolume converts a sell-through rate into 30 and 90 day sale counts
// consistent with rate = sold/(sold+active).
func SoldVolume(rate float64, active int) (sold30, sold90 int) {
	rate = model.Clamp(model.Sanitize(rate), 0, 0.99)
	supply := float64(max(active, 1))
	sold30 = int(math.Round(rate / (1 - rate) * supply))
	sold30 = min(sold30, MaxSynthetic30)
	return sold30, sold30 * 3
}

// ModeledSupply returns the active count that pairs with SoldVolume at
// rate. It is active unless sold30 hit MaxSynthetic30, in which case supply
// shrinks by the same factor so sold/(sold+active) still tracks rate.
func ModeledSupply(rate float64, active int) int {
	rate = model.Clamp(model.Sanitize(rate), 0, 0.99)
	sold30, _ := SoldVolume(rate, active)
	if sold30 < MaxSynthetic30 || rate == 0 {
		return active
	}
	return min(active, max(1, int(math.Round(float64(sold30)*(1-rate)/rate))))
}

// SynthesizeSold generates estimated sold listings from a triangulated
// price. The marketplace only exposes asking prices, so sold history is
// modeled: prices follow a triangular distribution over low..high with
// mode mid, and volume follows the sell-through estimate. The first
// sold30 listings fall inside the last 30 days, the rest in days 30-89.
func SynthesizeSold(tp model.TriangulatedPrice, p SoldParams, rng *rand.Rand) []model.ListingSample {
	sold30, sold90 := SoldVolume(p.Rate, p.ActiveCount)
	if sold90 == 0 || rng == nil {
		return []model.ListingSample{}
	}
	days := float64(max(p.DaysToSell, 1))

	out := make([]model.ListingSample, 0, sold90)
	for i := 0; i < sold90; i++ {
		var ago int
		if i < sold30 {
			ago = rng.IntN(Window30)
		} else {
			ago = Window30 + rng.IntN(Window90-Window30)
		}
		out = append(out, model.ListingSample{
			ID:           fmt.Sprintf("synthetic-%d", i+1),
			Price:        math.Max(model.RoundCents(triangular(rng, tp.Low, tp.Mid, tp.High)), 0.01),
			Condition:    "estimated",
			Kind:         model.ListingSold,
			SoldDaysAgo:  ago,
			DaysOnMarket: math.Round(days*(0.5+rng.Float64())*10) / 10,
		})
	}
	return out
}

// triangular samples the triangular distribution on [a,b] with mode c.
func triangular(rng *rand.Rand, a, c, b float64) float64 {
	if b <= a {
		return c
	}
	c = model.Clamp(c, a, b)
	u := rng.Float64()
	f := (c - a) / (b - a)
	if u < f {
		return a + math.Sqrt(u*(b-a)*(c-a))
	}
	return b - math.Sqrt((1-u)*(b-a)*(b-c))
}
