package lsh

import (
	"math"
	"math/rand/v2"
)

// Sampler draws standard normal samples with the Box-Muller transform.
// Each transform yields two samples; the second is returned by the next
// call.
type Sampler struct {
	rng     *rand.Rand
	pending float64
	hasNext bool
}

// NewSampler samples from rng.
func NewSampler(rng *rand.Rand) *Sampler {
	return &Sampler{rng: rng}
}

// Sample returns the next sample.
func (s *Sampler) Sample() float64 {
	if s.hasNext {
		s.hasNext = false
		return s.pending
	}
	// 1-Float64 lies in (0, 1], keeping the logarithm finite.
	u1 := 1 - s.rng.Float64()
	u2 := s.rng.Float64()
	r := math.Sqrt(-2 * math.Log(u1))
	theta := 2 * math.Pi * u2
	s.pending = r * math.Cos(theta)
	s.hasNext = true
	return r * math.Sin(theta)
}

const (
	maxSample   = 3.0
	scaleFactor = 100
)

// component clamps and scales one sample.
func component(sample float64) int32 {
	sample = max(-maxSample, min(maxSample, sample))
	return int32(math.Round(scaleFactor * sample))
}
