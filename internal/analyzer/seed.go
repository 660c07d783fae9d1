package analyzer

import (
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"go-cane-vision/pkg/models"
)

// pcgStream is the fixed PCG increment; only the seed varies per request
const pcgStream = 0x5eed_ca4e

// Seed derives the per-request seed from the image size and location.
// The coordinate sum is scaled by 1000 and truncated toward zero.
func Seed(width, height int, gps models.GPSCoordinates) int64 {
	return int64((gps.Lat+gps.Lon)*1000) + int64(width) + int64(height)
}

// NewGenerator returns a generator owned by a single request
func NewGenerator(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), pcgStream))
}

// uniform draws from [lo, hi)
func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}

// weightedIndex picks an index with probability proportional to its weight
func weightedIndex(rng *rand.Rand, weights []float64) int {
	cumulative := make([]float64, len(weights))
	total := 0.0
	for i, w := range weights {
		total += w
		cumulative[i] = total
	}
	r := rng.Float64() * total
	for i, cw := range cumulative {
		if r < cw {
			return i
		}
	}
	return len(weights) - 1
}

// round half away from zero to the given decimal places
func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
