package experiment

import (
	"math"

	"github.com/san-kum/popdyn/internal/dynamo"
)

// derivePopulation resolves N and S0 for a closed-population model. When S0
// is given, N is the sum of all compartments and any stated population is
// ignored. Otherwise S0 takes whatever of N the other compartments leave.
func derivePopulation(population, s0 *float64, others ...float64) (n, s float64, err error) {
	rest := 0.0
	for _, v := range others {
		rest += v
	}

	switch {
	case s0 != nil:
		s = *s0
		n = s + rest
	case population != nil:
		n = *population
		s = n - rest
		if s < 0 {
			return 0, 0, dynamo.InvalidParameter("population", n,
				"smaller than the initial non-susceptible compartments")
		}
	default:
		return 0, 0, dynamo.InvalidParameter("population", nil, "either population or s0 is required")
	}

	if !(n > 0) {
		return 0, 0, dynamo.InvalidParameter("population", n, "total population must be positive")
	}
	return n, s, nil
}

// RescaleToPopulation redistributes compartments proportionally so they
// sum to n. Every compartment but the last is truncated to a whole number
// and the last takes the remainder. A zero total puts all of n into the
// first compartment. Compartments already summing to n are returned as is.
func RescaleToPopulation(n float64, x []float64) []float64 {
	out := make([]float64, len(x))
	copy(out, x)
	if len(out) == 0 {
		return out
	}

	total := 0.0
	for _, v := range x {
		total += v
	}
	if total == n {
		return out
	}

	if total <= 0 {
		for i := range out {
			out[i] = 0
		}
		out[0] = n
		return out
	}

	factor := n / total
	assigned := 0.0
	last := len(out) - 1
	for i := 0; i < last; i++ {
		out[i] = math.Trunc(x[i] * factor)
		assigned += out[i]
	}
	out[last] = n - assigned
	return out
}

// currentCompartments returns (S0, others...) with S0 derived the same way
// Solve would derive it, or 0 when that is not possible.
func currentCompartments(population, s0 *float64, others ...float64) []float64 {
	_, s, err := derivePopulation(population, s0, others...)
	if err != nil {
		s = 0
	}
	return append([]float64{s}, others...)
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
