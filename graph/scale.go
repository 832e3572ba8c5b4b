package graph

import "math"

// Scale maps a continuous domain linearly onto a range. Values outside the
// domain are extrapolated, not clamped.
type Scale struct {
	D0, D1 float64
	R0, R1 float64
}

// Linear returns the scale mapping [d0, d1] onto [r0, r1]. The domain may be
// reversed to flip an axis.
func Linear(d0, d1, r0, r1 float64) Scale {
	return Scale{D0: d0, D1: d1, R0: r0, R1: r1}
}

// Map converts a domain value to range units. A zero-width domain maps every
// value to the middle of the range.
func (s Scale) Map(v float64) float64 {
	if s.D0 == s.D1 {
		return (s.R0 + s.R1) / 2
	}
	t := (v - s.D0) / (s.D1 - s.D0)
	return s.R0 + t*(s.R1-s.R0)
}

// Ticks returns round values spanning the domain, ascending. count is a hint:
// the step is 1, 2 or 5 times a power of ten chosen so that roughly count
// intervals cover the domain.
func (s Scale) Ticks(count int) []float64 {
	lo, hi := math.Min(s.D0, s.D1), math.Max(s.D0, s.D1)
	if count <= 0 || math.IsNaN(lo) || math.IsNaN(hi) {
		return nil
	}
	if lo == hi {
		return []float64{lo}
	}

	step := (hi - lo) / float64(count)
	power := math.Floor(math.Log10(step))
	e := step / math.Pow(10, power)
	factor := 1.0
	switch {
	case e >= math.Sqrt(50):
		factor = 10
	case e >= math.Sqrt(10):
		factor = 5
	case e >= math.Sqrt(2):
		factor = 2
	}

	var ticks []float64
	if power < 0 {
		// divide by the inverse step to keep 0.2, 0.4... exact
		inv := math.Pow(10, -power) / factor
		for i := math.Ceil(lo * inv); i <= math.Floor(hi*inv); i++ {
			ticks = append(ticks, i/inv)
		}
		return ticks
	}
	inc := math.Pow(10, power) * factor
	for i := math.Ceil(lo / inc); i <= math.Floor(hi/inc); i++ {
		ticks = append(ticks, i*inc)
	}
	return ticks
}
