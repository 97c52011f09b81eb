// Package field samples a planar vector field dX/dt = f(X, Y),
// dY/dt = g(X, Y) on a regular grid and normalizes it for direction plots.
package field

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/expr"
)

const (
	DefaultMaxResolution = 50
	MinResolution        = 1

	// arrowFraction sets arrow length relative to a grid cell.
	arrowFraction = 1.5
)

type Spec struct {
	DX         string  `json:"expr_dx"`
	DY         string  `json:"expr_dy"`
	RangeX     float64 `json:"range_x"`
	RangeY     float64 `json:"range_y"`
	Resolution int     `json:"resolution"`
}

// Sample is the evaluated field. Row i holds Y = y[i], column j holds
// X = x[j]. Unit vectors are zero where the field vanishes.
type Sample struct {
	X         [][]float64 `json:"x"`
	Y         [][]float64 `json:"y"`
	UnitDX    [][]float64 `json:"unit_dx"`
	UnitDY    [][]float64 `json:"unit_dy"`
	ArrowDX   [][]float64 `json:"arrow_dx"`
	ArrowDY   [][]float64 `json:"arrow_dy"`
	Magnitude [][]float64 `json:"magnitude"`
	Scale     float64     `json:"scale"`
	// NonFinite counts grid points where a component was NaN or Inf and
	// was replaced by 0.
	NonFinite int `json:"non_finite"`
}

type Evaluator struct {
	maxResolution int
}

func NewEvaluator(maxResolution int) *Evaluator {
	if maxResolution < MinResolution {
		maxResolution = DefaultMaxResolution
	}
	return &Evaluator{maxResolution: maxResolution}
}

func (e *Evaluator) MaxResolution() int { return e.maxResolution }

// Evaluate parses both expressions and samples them on the grid.
func (e *Evaluator) Evaluate(spec Spec) (*Sample, error) {
	if err := e.validate(spec); err != nil {
		return nil, err
	}

	fx, err := expr.Parse(spec.DX)
	if err != nil {
		return nil, fmt.Errorf("expr_dx: %w", err)
	}
	fy, err := expr.Parse(spec.DY)
	if err != nil {
		return nil, fmt.Errorf("expr_dy: %w", err)
	}

	n := spec.Resolution
	xs := Linspace(-spec.RangeX, spec.RangeX, n)
	ys := Linspace(-spec.RangeY, spec.RangeY, n)
	scale := math.Min(spec.RangeX, spec.RangeY) / (float64(n) * arrowFraction)

	s := &Sample{
		X:         grid(n),
		Y:         grid(n),
		UnitDX:    grid(n),
		UnitDY:    grid(n),
		ArrowDX:   grid(n),
		ArrowDY:   grid(n),
		Magnitude: grid(n),
		Scale:     scale,
	}

	for i, y := range ys {
		for j, x := range xs {
			s.X[i][j] = x
			s.Y[i][j] = y

			dx, dy := fx.Eval(x, y), fy.Eval(x, y)
			if !finite(dx) || !finite(dy) {
				s.NonFinite++
			}
			if !finite(dx) {
				dx = 0
			}
			if !finite(dy) {
				dy = 0
			}

			mag := math.Hypot(dx, dy)
			if mag == 0 {
				continue
			}
			ux, uy := dx/mag, dy/mag
			if math.IsInf(mag, 0) {
				m := math.Max(math.Abs(dx), math.Abs(dy))
				h := math.Hypot(dx/m, dy/m)
				ux, uy = dx/m/h, dy/m/h
				mag = math.MaxFloat64
			}
			s.Magnitude[i][j] = mag
			s.UnitDX[i][j] = ux
			s.UnitDY[i][j] = uy
			s.ArrowDX[i][j] = ux * scale
			s.ArrowDY[i][j] = uy * scale
		}
	}
	return s, nil
}

func (e *Evaluator) validate(spec Spec) error {
	var errs []error
	if !(spec.RangeX > 0) || math.IsInf(spec.RangeX, 0) {
		errs = append(errs, dynamo.InvalidParameter("range_x", spec.RangeX, "must be positive and finite"))
	}
	if !(spec.RangeY > 0) || math.IsInf(spec.RangeY, 0) {
		errs = append(errs, dynamo.InvalidParameter("range_y", spec.RangeY, "must be positive and finite"))
	}
	if spec.Resolution < MinResolution || spec.Resolution > e.maxResolution {
		errs = append(errs, dynamo.InvalidParameter("resolution", spec.Resolution,
			fmt.Sprintf("must be between %d and %d", MinResolution, e.maxResolution)))
	}
	return errors.Join(errs...)
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}
	step := (hi - lo) / float64(n-1)
	for k := range out {
		out[k] = lo + step*float64(k)
	}
	out[n-1] = hi
	return out
}

func grid(n int) [][]float64 {
	rows := make([][]float64, n)
	cells := make([]float64, n*n)
	for i := range rows {
		rows[i] = cells[i*n : (i+1)*n : (i+1)*n]
	}
	return rows
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
