package scale

import (
	"math"

	"github.com/conneroisu/sizekit/internal/cache"
)

// DefaultValueCacheLimit bounds the number of base sizes kept by Values.
const DefaultValueCacheLimit = 20

// Values memoizes the pixel string of every table multiplier per base size.
type Values struct {
	cache *cache.FIFO[float64, map[float64]string]
}

// NewValues creates a value cache bounded to limit base sizes.
func NewValues(limit int) *Values {
	if limit <= 0 {
		limit = DefaultValueCacheLimit
	}

	return &Values{cache: cache.NewFIFO[float64, map[float64]string](limit)}
}

// Precompute returns multiplier -> pixel string for baseSize. The returned
// map is shared with the cache and must not be modified. Non-finite base
// sizes are computed on every call and never occupy a cache slot.
func (v *Values) Precompute(baseSize float64) map[float64]string {
	if math.IsNaN(baseSize) || math.IsInf(baseSize, 0) {
		return computeValues(baseSize)
	}

	return v.cache.GetOrCompute(baseSize, func() map[float64]string {
		return computeValues(baseSize)
	})
}

func computeValues(baseSize float64) map[float64]string {
	out := make(map[float64]string, len(multipliers))
	for _, m := range multipliers {
		out[m] = ScaleValue(baseSize, m)
	}

	return out
}

// Lookup returns the pixel string for one multiplier, falling back to a
// direct computation for multipliers outside the fixed tables.
func (v *Values) Lookup(baseSize, multiplier float64) string {
	if s, ok := v.Precompute(baseSize)[multiplier]; ok {
		return s
	}

	return ScaleValue(baseSize, multiplier)
}

// Len reports how many base sizes are cached.
func (v *Values) Len() int {
	return v.cache.Len()
}

// BaseSizes returns cached base sizes, oldest first.
func (v *Values) BaseSizes() []float64 {
	return v.cache.Keys()
}

// Stats exposes cache counters.
func (v *Values) Stats() cache.Stats {
	return v.cache.Stats()
}

// Clear empties the cache.
func (v *Values) Clear() {
	v.cache.Clear()
}
