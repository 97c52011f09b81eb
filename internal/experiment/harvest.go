package experiment

import (
	"context"
	"math"

	"github.com/san-kum/popdyn/internal/config"
	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/metrics"
	"github.com/san-kum/popdyn/internal/models"
)

// HarvestRequest solves logistic growth under a constant harvest.
type HarvestRequest struct {
	config.HarvestParams `yaml:",inline"`
	Options              `yaml:",inline"`

	solver config.SolverConfig
}

func newHarvestRequest(cfg *config.Config) *HarvestRequest {
	return &HarvestRequest{HarvestParams: cfg.Harvest, solver: cfg.Solver}
}

func (r *HarvestRequest) Model() string { return "harvest" }

func (r *HarvestRequest) Clone() Request {
	c := *r
	return &c
}

// Solve reports the extinction time only when the population reaches zero
// within the horizon.
func (r *HarvestRequest) Solve(ctx context.Context) (*Response, error) {
	if err := check(r, r.GetParams()); err != nil {
		return nil, err
	}

	sys := models.NewHarvest(r.R, r.K, r.H)
	lowest := metrics.NewMinimum("minimum", 0)
	extinct := metrics.NewExtinction("extinction_time", 0, 0)
	traj, err := integrate(ctx, sys, dynamo.State{r.P0}, r.TMax, r.Options, r.solver, lowest, extinct)
	if err != nil {
		return nil, err
	}

	resp := newResponse(r.Model(), traj)
	ind := &resp.Indicators
	ind.Minimum = ptr(math.Max(lowest.Value(), 0))
	ind.MaxSustainableYield = ptr(sys.MaxSustainableYield())
	if extinct.Reached() {
		ind.ExtinctionTime = ptr(extinct.Value())
	}
	return resp, nil
}

func (r *HarvestRequest) GetParams() map[string]float64 {
	return map[string]float64{
		"p0":    r.P0,
		"r":     r.R,
		"k":     r.K,
		"h":     r.H,
		"t_max": r.TMax,
	}
}

func (r *HarvestRequest) SetParam(name string, value float64) error {
	switch name {
	case "p0":
		r.P0 = value
	case "r":
		r.R = value
	case "k":
		r.K = value
	case "h":
		r.H = value
	case "t_max":
		r.TMax = value
	default:
		return unknownParam(name, value)
	}
	return nil
}
