package experiment

import (
	"context"

	"github.com/san-kum/popdyn/internal/config"
	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/metrics"
	"github.com/san-kum/popdyn/internal/models"
)

// RumorRequest solves the mass-action rumor model. The population only
// enters through the initial compartments.
type RumorRequest struct {
	config.RumorParams `yaml:",inline"`
	Options            `yaml:",inline"`

	solver config.SolverConfig
}

func newRumorRequest(cfg *config.Config) *RumorRequest {
	r := &RumorRequest{RumorParams: cfg.Rumor, solver: cfg.Solver}
	r.Population = clonePtr(r.Population)
	r.S0 = clonePtr(r.S0)
	return r
}

func (r *RumorRequest) Model() string { return "rumor" }

func (r *RumorRequest) Clone() Request {
	c := *r
	c.Population = clonePtr(r.Population)
	c.S0 = clonePtr(r.S0)
	return &c
}

func (r *RumorRequest) Solve(ctx context.Context) (*Response, error) {
	if err := check(r, r.values()); err != nil {
		return nil, err
	}
	n, s0, err := derivePopulation(r.Population, r.S0, r.I0, r.R0)
	if err != nil {
		return nil, err
	}

	sys := models.NewRumor(r.B, r.K)
	peak := metrics.NewPeak("peak_I", 1)
	drift := metrics.NewConservation(sys)
	traj, err := integrate(ctx, sys, dynamo.State{s0, r.I0, r.R0}, r.TMax, r.Options, r.solver, peak, drift)
	if err != nil {
		return nil, err
	}

	resp := newResponse(r.Model(), traj)
	ind := &resp.Indicators
	ind.setPeak("I", peak)
	ind.setRatio(sys.ReproductionRatio(), false)
	ind.Population = ptr(n)
	ind.ConservationDrift = ptr(drift.Value())
	return resp, nil
}

func (r *RumorRequest) values() map[string]float64 {
	v := map[string]float64{
		"i0":    r.I0,
		"r0":    r.R0,
		"b":     r.B,
		"k":     r.K,
		"t_max": r.TMax,
	}
	if r.Population != nil {
		v["population"] = *r.Population
	}
	if r.S0 != nil {
		v["s0"] = *r.S0
	}
	return v
}

func (r *RumorRequest) GetParams() map[string]float64 {
	v := r.values()
	if n, s, err := derivePopulation(r.Population, r.S0, r.I0, r.R0); err == nil {
		v["population"] = n
		v["s0"] = s
	}
	return v
}

func (r *RumorRequest) SetParam(name string, value float64) error {
	switch name {
	case "i0":
		r.I0 = value
	case "r0":
		r.R0 = value
	case "s0":
		r.S0 = &value
	case "b":
		r.B = value
	case "k":
		r.K = value
	case "t_max":
		r.TMax = value
	case "population":
		if !(value > 0) {
			return dynamo.InvalidParameter(name, value, "must be > 0")
		}
		x := RescaleToPopulation(value, currentCompartments(r.Population, r.S0, r.I0, r.R0))
		r.S0, r.I0, r.R0 = &x[0], x[1], x[2]
		r.Population = &value
	default:
		return unknownParam(name, value)
	}
	return nil
}
