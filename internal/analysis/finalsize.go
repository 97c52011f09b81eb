package analysis

import (
	"math"

	"github.com/san-kum/popdyn/internal/dynamo"
)

const bisectIterations = 200

// HerdImmunityThreshold is the immune fraction above which an outbreak
// cannot grow, 1 - 1/R0, or 0 when R0 <= 1.
func HerdImmunityThreshold(r0 float64) float64 {
	if r0 <= 1 {
		return 0
	}
	return 1 - 1/r0
}

// FinalSize solves the SIR final-size relation
//
//	s = s0 * exp(-R0 * (1 - s - r0))
//
// for s = S(inf)/N, given the initial susceptible and recovered fractions
// s0 and r0. All of the remaining 1 - s0 - r0 must be infected.
func FinalSize(ratio, s0, r0 float64) (float64, error) {
	i0 := 1 - s0 - r0
	switch {
	case !(ratio >= 0) || math.IsInf(ratio, 0):
		return 0, dynamo.InvalidParameter("reproduction_ratio", ratio, "must be finite and >= 0")
	case !(s0 > 0 && s0 <= 1):
		return 0, dynamo.InvalidParameter("s0", s0, "fraction must be in (0, 1]")
	case !(r0 >= 0) || i0 < 0:
		return 0, dynamo.InvalidParameter("r0", r0, "fraction must be in [0, 1 - s0]")
	}
	if i0 == 0 {
		return s0, nil
	}

	// g is concave with g(0) < 0 < g(s0), so the root in (0, s0) is unique.
	g := func(s float64) float64 { return s - s0*math.Exp(-ratio*(1-s-r0)) }
	lo, hi := 0.0, s0
	for k := 0; k < bisectIterations && hi-lo > 1e-15; k++ {
		mid := (lo + hi) / 2
		if g(mid) < 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2, nil
}
