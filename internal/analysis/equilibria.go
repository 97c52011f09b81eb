package analysis

import (
	"math"

	"github.com/san-kum/popdyn/internal/dynamo"
)

// Equilibrium is a zero of a one-dimensional system. Stable means nearby
// states move towards it.
type Equilibrium struct {
	Value  float64 `json:"value"`
	Stable bool    `json:"stable"`
}

// BifurcationPoint lists the equilibria found for one parameter value.
type BifurcationPoint struct {
	Param      float64       `json:"param"`
	Equilibria []Equilibrium `json:"equilibria"`
}

// Equilibria finds the zeros of the one-dimensional sys on [lo, hi] by
// scanning n intervals for sign changes and bisecting each. Tangent zeros,
// where the rate touches 0 without changing sign, are not reported.
func Equilibria(sys dynamo.System, lo, hi float64, n int) ([]Equilibrium, error) {
	if sys.StateDim() != 1 {
		return nil, dynamo.InvalidParameter("system", sys.StateDim(), "must be one-dimensional")
	}
	if !(hi > lo) || n < 1 {
		return nil, dynamo.InvalidParameter("range", []float64{lo, hi}, "needs hi > lo and n >= 1")
	}

	f := func(x float64) float64 { return sys.Derive(dynamo.State{x}, 0)[0] }
	step := (hi - lo) / float64(n)

	var out []Equilibrium
	a, fa := lo, f(lo)
	if fa == 0 {
		out = append(out, classify(f, a, step))
	}
	for k := 1; k <= n; k++ {
		b := lo + step*float64(k)
		fb := f(b)
		switch {
		case fb == 0:
			out = append(out, classify(f, b, step))
		case fa != 0 && math.Signbit(fa) != math.Signbit(fb):
			out = append(out, classify(f, bisect(f, a, b, fa), step))
		}
		a, fa = b, fb
	}
	return out, nil
}

func bisect(f func(float64) float64, a, b, fa float64) float64 {
	for k := 0; k < bisectIterations && b-a > 1e-12*math.Max(1, math.Abs(a)); k++ {
		mid := (a + b) / 2
		fm := f(mid)
		if fm == 0 {
			return mid
		}
		if math.Signbit(fm) == math.Signbit(fa) {
			a, fa = mid, fm
		} else {
			b = mid
		}
	}
	return (a + b) / 2
}

func classify(f func(float64) float64, x, scale float64) Equilibrium {
	h := 1e-6 * math.Max(scale, 1e-9)
	slope := (f(x+h) - f(x-h)) / (2 * h)
	return Equilibrium{Value: x, Stable: slope < 0}
}

// BifurcationDiagram tracks the equilibria of build(p) on [lo, hi] for each
// parameter value.
func BifurcationDiagram(build func(param float64) dynamo.System, params []float64, lo, hi float64, n int) ([]BifurcationPoint, error) {
	out := make([]BifurcationPoint, 0, len(params))
	for _, p := range params {
		eq, err := Equilibria(build(p), lo, hi, n)
		if err != nil {
			return nil, err
		}
		out = append(out, BifurcationPoint{Param: p, Equilibria: eq})
	}
	return out, nil
}
