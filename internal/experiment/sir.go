package experiment

import (
	"context"

	"github.com/san-kum/popdyn/internal/config"
	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/metrics"
	"github.com/san-kum/popdyn/internal/models"
)

// SIRRequest solves the frequency-dependent SIR model.
type SIRRequest struct {
	config.SIRParams `yaml:",inline"`
	Options          `yaml:",inline"`

	solver config.SolverConfig
}

func newSIRRequest(cfg *config.Config) *SIRRequest {
	r := &SIRRequest{SIRParams: cfg.SIR, solver: cfg.Solver}
	r.Population = clonePtr(r.Population)
	r.S0 = clonePtr(r.S0)
	r.Intervention = r.Intervention.Clone()
	return r
}

func (r *SIRRequest) Model() string { return "sir" }

func (r *SIRRequest) Clone() Request {
	c := *r
	c.Population = clonePtr(r.Population)
	c.S0 = clonePtr(r.S0)
	c.Intervention = r.Intervention.Clone()
	return &c
}

func (r *SIRRequest) Solve(ctx context.Context) (*Response, error) {
	if err := check(r, r.values()); err != nil {
		return nil, err
	}
	n, s0, err := derivePopulation(r.Population, r.S0, r.I0, r.R0)
	if err != nil {
		return nil, err
	}

	sys := models.NewSIR(r.Beta, r.Gamma, n)
	peak := metrics.NewPeak("peak_I", 1)
	drift := metrics.NewConservation(sys)
	loop, err := newLoop(r.Intervention, sys, 1)
	if err != nil {
		return nil, err
	}
	traj, err := integrate(ctx, systemFor(sys, loop), dynamo.State{s0, r.I0, r.R0}, r.TMax, r.Options, r.solver, peak, drift)
	if err != nil {
		return nil, err
	}

	resp := newResponse(r.Model(), traj)
	ind := &resp.Indicators
	ind.setPeak("I", peak)
	ind.setRatio(sys.ReproductionRatio(), true)
	ind.Population = ptr(n)
	ind.AttackRate = ptr(traj.Final()[2] / n)
	ind.ConservationDrift = ptr(drift.Value())
	ind.setIntervention(resp, loop)
	return resp, nil
}

func (r *SIRRequest) values() map[string]float64 {
	v := map[string]float64{
		"i0":    r.I0,
		"r0":    r.R0,
		"beta":  r.Beta,
		"gamma": r.Gamma,
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

// GetParams reports the derived population and S0 when they can be
// derived.
func (r *SIRRequest) GetParams() map[string]float64 {
	v := r.values()
	if n, s, err := derivePopulation(r.Population, r.S0, r.I0, r.R0); err == nil {
		v["population"] = n
		v["s0"] = s
	}
	return v
}

// SetParam sets one parameter. Setting the population rescales the initial
// compartments to it.
func (r *SIRRequest) SetParam(name string, value float64) error {
	switch name {
	case "i0":
		r.I0 = value
	case "r0":
		r.R0 = value
	case "s0":
		r.S0 = &value
	case "beta":
		r.Beta = value
	case "gamma":
		r.Gamma = value
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
