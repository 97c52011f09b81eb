// Package fit implements a small Levenberg-Marquardt least-squares solver
// for the decay-plus-trend model a·e^{-bt} + c·t + d.
package fit

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/popdyn/internal/dynamo"
)

const (
	DefaultMaxIter   = 5000
	DefaultTolerance = 1e-10
	DefaultPoints    = 300

	lambdaInit = 1e-3
	lambdaMax  = 1e16
)

// Model evaluates a curve at t for parameters p.
type Model func(t float64, p []float64) float64

// ExpLinear is a·e^{-bt} + c·t + d with p = [a, b, c, d].
func ExpLinear(t float64, p []float64) float64 {
	return p[0]*math.Exp(-p[1]*t) + p[2]*t + p[3]
}

// InitialGuess is [max-min, 0.1, 0.1, min] of the observations.
func InitialGuess(y []float64) []float64 {
	lo, hi := minMax(y)
	return []float64{hi - lo, 0.1, 0.1, lo}
}

type Options struct {
	MaxIter   int
	Tolerance float64
}

type Result struct {
	Params     []float64 `json:"params"`
	Predicted  []float64 `json:"predicted"`
	RSquared   float64   `json:"r_squared"`
	SSRes      float64   `json:"ss_res"`
	Iterations int       `json:"iterations"`
}

// LeastSquares fits model to (x, y) starting from p0.
func LeastSquares(ctx context.Context, model Model, x, y, p0 []float64, opts Options) (*Result, error) {
	if err := validate(x, y, p0); err != nil {
		return nil, err
	}
	if opts.MaxIter <= 0 {
		opts.MaxIter = DefaultMaxIter
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}

	m := len(p0)
	p := append([]float64(nil), p0...)
	cost := sumSquares(model, x, y, p)
	if math.IsNaN(cost) || math.IsInf(cost, 0) {
		return nil, fmt.Errorf("%w: residuals are not finite at the initial guess", dynamo.ErrFitFailure)
	}

	lambda := lambdaInit
	jac := make([][]float64, len(x))
	for i := range jac {
		jac[i] = make([]float64, m)
	}

	iter := 0
	converged := false
	for ; iter < opts.MaxIter && !converged; iter++ {
		if iter%32 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		jacobian(model, x, p, jac)
		a, g := normalEquations(model, jac, x, y, p)

		for {
			step, ok := solveDamped(a, g, lambda)
			trial := make([]float64, m)
			for j := range p {
				trial[j] = p[j] + step[j]
			}
			trialCost := math.Inf(1)
			if ok {
				trialCost = sumSquares(model, x, y, trial)
			}

			if trialCost < cost {
				reduction := cost - trialCost
				small := norm(step) <= opts.Tolerance*(norm(p)+opts.Tolerance)
				p, cost = trial, trialCost
				lambda = math.Max(lambda/10, 1e-12)
				converged = reduction <= opts.Tolerance*cost || small || cost == 0
				break
			}

			lambda *= 10
			if lambda > lambdaMax {
				// No damping improves the fit: p is a minimum to working precision.
				converged = true
				break
			}
		}
	}

	if !converged {
		return nil, fmt.Errorf("%w: no convergence after %d iterations", dynamo.ErrFitFailure, iter)
	}

	pred := make([]float64, len(x))
	for i, t := range x {
		pred[i] = model(t, p)
	}
	return &Result{
		Params:     p,
		Predicted:  pred,
		RSquared:   RSquared(y, pred),
		SSRes:      cost,
		Iterations: iter,
	}, nil
}

// RSquared is 1 - ss_res/ss_tot, or 0 when y has no variance.
func RSquared(y, pred []float64) float64 {
	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))

	var ssRes, ssTot float64
	for i, v := range y {
		ssRes += (v - pred[i]) * (v - pred[i])
		ssTot += (v - mean) * (v - mean)
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

// Curve samples model at n evenly spaced points over [lo, hi].
func Curve(model Model, p []float64, lo, hi float64, n int) ([]float64, []float64) {
	xs := make([]float64, n)
	ys := make([]float64, n)
	for k := range xs {
		t := lo
		if n > 1 {
			t = lo + (hi-lo)*float64(k)/float64(n-1)
		}
		xs[k] = t
		ys[k] = model(t, p)
	}
	return xs, ys
}

// RankingToCases maps a competitiveness ranking onto a synthetic case count
// with 80·100000/(rank+10).
func RankingToCases(ranks []float64) ([]float64, error) {
	out := make([]float64, len(ranks))
	for i, r := range ranks {
		if !(r > -10) || math.IsInf(r, 0) {
			return nil, dynamo.InvalidParameter(fmt.Sprintf("ranking[%d]", i), r, "must be finite and greater than -10")
		}
		out[i] = 80 * 100000 / (r + 10)
	}
	return out, nil
}

func validate(x, y, p0 []float64) error {
	if len(x) != len(y) {
		return dynamo.InvalidParameter("y", len(y), fmt.Sprintf("length must match x (%d)", len(x)))
	}
	if len(x) < len(p0) {
		return dynamo.InvalidParameter("x", len(x), fmt.Sprintf("need at least %d points", len(p0)))
	}
	for i := range x {
		if !finite(x[i]) {
			return dynamo.InvalidParameter(fmt.Sprintf("x[%d]", i), x[i], "must be finite")
		}
		if !finite(y[i]) {
			return dynamo.InvalidParameter(fmt.Sprintf("y[%d]", i), y[i], "must be finite")
		}
	}
	for j, v := range p0 {
		if !finite(v) {
			return dynamo.InvalidParameter(fmt.Sprintf("initial[%d]", j), v, "must be finite")
		}
	}
	return nil
}

func sumSquares(model Model, x, y, p []float64) float64 {
	total := 0.0
	for i, t := range x {
		r := y[i] - model(t, p)
		total += r * r
	}
	return total
}

// jacobian fills jac[i][j] = ∂model(x[i])/∂p[j] by central differences.
func jacobian(model Model, x, p []float64, jac [][]float64) {
	shifted := append([]float64(nil), p...)
	for j := range p {
		h := 1e-6 * math.Max(math.Abs(p[j]), 1e-3)
		shifted[j] = p[j] + h
		for i, t := range x {
			jac[i][j] = model(t, shifted)
		}
		shifted[j] = p[j] - h
		for i, t := range x {
			jac[i][j] = (jac[i][j] - model(t, shifted)) / (2 * h)
		}
		shifted[j] = p[j]
	}
}

// normalEquations returns JᵀJ and Jᵀr for residuals r = y - model.
func normalEquations(model Model, jac [][]float64, x, y, p []float64) ([][]float64, []float64) {
	m := len(p)
	a := make([][]float64, m)
	for j := range a {
		a[j] = make([]float64, m)
	}
	g := make([]float64, m)

	for i, t := range x {
		r := y[i] - model(t, p)
		row := jac[i]
		for j := 0; j < m; j++ {
			g[j] += row[j] * r
			for k := j; k < m; k++ {
				a[j][k] += row[j] * row[k]
			}
		}
	}
	for j := 0; j < m; j++ {
		for k := 0; k < j; k++ {
			a[j][k] = a[k][j]
		}
	}
	return a, g
}

// solveDamped solves (A + λ·diag(A)) δ = g by Gaussian elimination with
// partial pivoting. A zero diagonal entry is damped as if it were 1.
func solveDamped(a [][]float64, g []float64, lambda float64) ([]float64, bool) {
	m := len(g)
	aug := make([][]float64, m)
	for j := range aug {
		aug[j] = make([]float64, m+1)
		copy(aug[j], a[j])
		d := a[j][j]
		if d <= 0 {
			d = 1
		}
		aug[j][j] += lambda * d
		aug[j][m] = g[j]
	}

	for col := 0; col < m; col++ {
		pivot := col
		for r := col + 1; r < m; r++ {
			if math.Abs(aug[r][col]) > math.Abs(aug[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(aug[pivot][col]) < 1e-300 {
			return nil, false
		}
		aug[col], aug[pivot] = aug[pivot], aug[col]

		for r := col + 1; r < m; r++ {
			f := aug[r][col] / aug[col][col]
			for c := col; c <= m; c++ {
				aug[r][c] -= f * aug[col][c]
			}
		}
	}

	step := make([]float64, m)
	for r := m - 1; r >= 0; r-- {
		sum := aug[r][m]
		for c := r + 1; c < m; c++ {
			sum -= aug[r][c] * step[c]
		}
		step[r] = sum / aug[r][r]
	}
	for _, v := range step {
		if !finite(v) {
			return nil, false
		}
	}
	return step, true
}

func norm(v []float64) float64 {
	total := 0.0
	for _, x := range v {
		total += x * x
	}
	return math.Sqrt(total)
}

func minMax(v []float64) (float64, float64) {
	if len(v) == 0 {
		return 0, 0
	}
	lo, hi := v[0], v[0]
	for _, x := range v[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
