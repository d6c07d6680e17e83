package sim

import (
	"math"
	"math/rand"
)

// Sampler draws non-negative integer durations from a truncated normal
// distribution. It is the engine's only source of randomness, so a fixed
// seed makes an entire run reproducible.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler creates a sampler seeded for reproducible runs.
func NewSampler(seed int64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewSource(seed))}
}

// Sample draws from Normal(mu, sigma), rounds up to the nearest integer and
// redraws until the result is non-negative. Negative draws are resolved
// here and never surface as errors. With sigma == 0 the draw is exact:
// ceil(mu), clamped at zero.
func (s *Sampler) Sample(mu, sigma float64) int64 {
	if sigma == 0 {
		v := int64(math.Ceil(mu))
		if v < 0 {
			return 0
		}
		return v
	}
	for {
		v := math.Ceil(s.rng.NormFloat64()*sigma + mu)
		if v >= 0 {
			return int64(v)
		}
	}
}

// Float64 exposes a uniform draw in [0, 1) from the same stream, used for
// the aircraft class mix.
func (s *Sampler) Float64() float64 {
	return s.rng.Float64()
}

// Intn exposes a uniform draw in [0, n) from the same stream, used for
// cosmetic flight numbers.
func (s *Sampler) Intn(n int) int {
	return s.rng.Intn(n)
}
