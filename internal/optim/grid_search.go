// Package optim sweeps model parameters over a grid and ranks the points by
// one response indicator.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/experiment"
)

const (
	MaxAxes   = 2
	MaxPoints = 2500
)

// Axis spans Steps evenly spaced values of one parameter, From and To
// included.
type Axis struct {
	Param string  `json:"param" yaml:"param"`
	From  float64 `json:"from" yaml:"from"`
	To    float64 `json:"to" yaml:"to"`
	Steps int     `json:"steps" yaml:"steps"`
}

func (a Axis) Values() []float64 {
	if a.Steps <= 1 {
		return []float64{a.From}
	}
	out := make([]float64, a.Steps)
	step := (a.To - a.From) / float64(a.Steps-1)
	for k := range out {
		out[k] = a.From + step*float64(k)
	}
	out[a.Steps-1] = a.To
	return out
}

// Point is one solved grid point. Value is nil when the point failed.
type Point struct {
	Params map[string]float64 `json:"params"`
	Value  *float64           `json:"value"`
	Error  string             `json:"error,omitempty"`
}

// Result lists the points in grid order, first axis varying slowest.
type Result struct {
	Model    string  `json:"model"`
	Metric   string  `json:"metric"`
	Maximize bool    `json:"maximize"`
	Axes     []Axis  `json:"axes"`
	Points   []Point `json:"points"`
	Best     *Point  `json:"best"`
	Failed   int     `json:"failed"`
}

type GridSearch struct {
	axes    []Axis
	workers int
}

// NewGridSearch sweeps the given axes with at most workers concurrent
// solves. workers <= 0 uses GOMAXPROCS.
func NewGridSearch(axes []Axis, workers int) *GridSearch {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &GridSearch{axes: axes, workers: workers}
}

// Search solves a clone of base at every grid point and picks the point
// with the smallest (or largest, with maximize) metric. A point that fails
// to solve is recorded and skipped; only cancellation aborts the sweep.
func (g *GridSearch) Search(ctx context.Context, base experiment.Request, metric string, maximize bool) (*Result, error) {
	if err := g.validate(base); err != nil {
		return nil, err
	}
	if metric == "" {
		return nil, dynamo.InvalidParameter("metric", metric, "is required")
	}

	combos := make([]map[string]float64, 0)
	g.searchRecursive(0, make(map[string]float64), &combos)

	points := make([]Point, len(combos))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)

	for i, params := range combos {
		eg.Go(func() error {
			points[i] = solvePoint(egCtx, base, params, metric)
			return egCtx.Err()
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	res := &Result{
		Model:    base.Model(),
		Metric:   metric,
		Maximize: maximize,
		Points:   points,
		Axes:     g.axes,
	}
	for i := range points {
		p := &points[i]
		if p.Value == nil {
			res.Failed++
			continue
		}
		if res.Best == nil || better(*p.Value, *res.Best.Value, maximize) {
			res.Best = p
		}
	}
	return res, nil
}

func solvePoint(ctx context.Context, base experiment.Request, params map[string]float64, metric string) Point {
	p := Point{Params: params}
	req := base.Clone()
	for _, name := range sortedKeys(params) {
		if err := req.SetParam(name, params[name]); err != nil {
			p.Error = err.Error()
			return p
		}
	}

	resp, err := req.Solve(ctx)
	if err != nil {
		p.Error = err.Error()
		return p
	}
	v, ok := resp.Indicator(metric)
	if !ok {
		p.Error = fmt.Sprintf("indicator %q not available for %s", metric, req.Model())
		return p
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		p.Error = fmt.Sprintf("indicator %q is not finite", metric)
		return p
	}
	p.Value = &v
	return p
}

func better(v, best float64, maximize bool) bool {
	if maximize {
		return v > best
	}
	return v < best
}

func (g *GridSearch) validate(base experiment.Request) error {
	if len(g.axes) == 0 || len(g.axes) > MaxAxes {
		return dynamo.InvalidParameter("axes", len(g.axes), fmt.Sprintf("expected 1 to %d swept parameters", MaxAxes))
	}

	known := base.GetParams()
	seen := make(map[string]bool)
	total := 1
	var errs []error
	for _, a := range g.axes {
		if _, ok := known[a.Param]; !ok {
			errs = append(errs, dynamo.InvalidParameter("param", a.Param,
				fmt.Sprintf("not a parameter of %s", base.Model())))
		}
		if seen[a.Param] {
			errs = append(errs, dynamo.InvalidParameter("param", a.Param, "swept twice"))
		}
		seen[a.Param] = true
		if a.Steps < 1 {
			errs = append(errs, dynamo.InvalidParameter("steps", a.Steps, "must be >= 1"))
		}
		if math.IsNaN(a.From) || math.IsInf(a.From, 0) || math.IsNaN(a.To) || math.IsInf(a.To, 0) {
			errs = append(errs, dynamo.InvalidParameter(a.Param, []float64{a.From, a.To}, "range must be finite"))
		}
		switch {
		case a.Steps > MaxPoints || total > MaxPoints/max(a.Steps, 1):
			total = MaxPoints + 1
		default:
			total *= max(a.Steps, 1)
		}
	}
	if total > MaxPoints {
		errs = append(errs, dynamo.InvalidParameter("steps", total, fmt.Sprintf("sweep exceeds %d points", MaxPoints)))
	}
	return errors.Join(errs...)
}

// searchRecursive enumerates the grid with the first axis varying slowest.
func (g *GridSearch) searchRecursive(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.axes) {
		params := make(map[string]float64, len(current))
		for k, v := range current {
			params[k] = v
		}
		*out = append(*out, params)
		return
	}

	axis := g.axes[depth]
	for _, val := range axis.Values() {
		current[axis.Param] = val
		g.searchRecursive(depth+1, current, out)
	}
	delete(current, axis.Param)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
