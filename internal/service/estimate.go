package service

import (
	"math"
	"math/rand/v2"
)

// Multiplier bounds for the GDP estimate, inclusive.
const (
	gdpMultiplierMin = 1000
	gdpMultiplierMax = 2000
)

// estimateGDP derives the randomized GDP estimate. A fresh multiplier is
// drawn for every record on every refresh; the figure is intentionally not
// reproducible between refreshes. Returns nil when no rate is available or
// the result is not a usable positive number.
func estimateGDP(population int64, rate *float64, rng Rand) *float64 {
	if rate == nil || *rate <= 0 {
		return nil
	}

	multiplier := rng.IntBetween(gdpMultiplierMin, gdpMultiplierMax)
	gdp := float64(population) * float64(multiplier) / *rate

	if math.IsNaN(gdp) || math.IsInf(gdp, 0) || gdp <= 0 {
		return nil
	}
	return &gdp
}

// mathRand is the production Rand on math/rand/v2.
type mathRand struct{}

func NewRand() Rand { return mathRand{} }

func (mathRand) IntBetween(min, max int) int {
	return min + rand.IntN(max-min+1)
}
