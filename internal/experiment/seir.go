package experiment

import (
	"context"

	"github.com/san-kum/popdyn/internal/config"
	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/metrics"
	"github.com/san-kum/popdyn/internal/models"
)

// SEIRRequest solves SIR with a latent (exposed) compartment.
type SEIRRequest struct {
	config.SEIRParams `yaml:",inline"`
	Options           `yaml:",inline"`

	solver config.SolverConfig
}

func newSEIRRequest(cfg *config.Config) *SEIRRequest {
	r := &SEIRRequest{SEIRParams: cfg.SEIR, solver: cfg.Solver}
	r.Population = clonePtr(r.Population)
	r.S0 = clonePtr(r.S0)
	r.Intervention = r.Intervention.Clone()
	return r
}

func (r *SEIRRequest) Model() string { return "seir" }

func (r *SEIRRequest) Clone() Request {
	c := *r
	c.Population = clonePtr(r.Population)
	c.S0 = clonePtr(r.S0)
	c.Intervention = r.Intervention.Clone()
	return &c
}

func (r *SEIRRequest) Solve(ctx context.Context) (*Response, error) {
	if err := check(r, r.values()); err != nil {
		return nil, err
	}
	n, s0, err := derivePopulation(r.Population, r.S0, r.E0, r.I0, r.R0)
	if err != nil {
		return nil, err
	}

	sys := models.NewSEIR(r.Beta, r.Sigma, r.Gamma, n)
	peak := metrics.NewPeak("peak_I", 2)
	drift := metrics.NewConservation(sys)
	x0 := dynamo.State{s0, r.E0, r.I0, r.R0}
	loop, err := newLoop(r.Intervention, sys, 2)
	if err != nil {
		return nil, err
	}
	traj, err := integrate(ctx, systemFor(sys, loop), x0, r.TMax, r.Options, r.solver, peak, drift)
	if err != nil {
		return nil, err
	}

	resp := newResponse(r.Model(), traj)
	ind := &resp.Indicators
	ind.setPeak("I", peak)
	ind.setRatio(sys.ReproductionRatio(), true)
	ind.Population = ptr(n)
	ind.AttackRate = ptr(traj.Final()[3] / n)
	ind.ConservationDrift = ptr(drift.Value())
	ind.setIntervention(resp, loop)
	return resp, nil
}

func (r *SEIRRequest) values() map[string]float64 {
	v := map[string]float64{
		"e0":    r.E0,
		"i0":    r.I0,
		"r0":    r.R0,
		"beta":  r.Beta,
		"sigma": r.Sigma,
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

func (r *SEIRRequest) GetParams() map[string]float64 {
	v := r.values()
	if n, s, err := derivePopulation(r.Population, r.S0, r.E0, r.I0, r.R0); err == nil {
		v["population"] = n
		v["s0"] = s
	}
	return v
}

func (r *SEIRRequest) SetParam(name string, value float64) error {
	switch name {
	case "e0":
		r.E0 = value
	case "i0":
		r.I0 = value
	case "r0":
		r.R0 = value
	case "s0":
		r.S0 = &value
	case "beta":
		r.Beta = value
	case "sigma":
		r.Sigma = value
	case "gamma":
		r.Gamma = value
	case "t_max":
		r.TMax = value
	case "population":
		if !(value > 0) {
			return dynamo.InvalidParameter(name, value, "must be > 0")
		}
		x := RescaleToPopulation(value, currentCompartments(r.Population, r.S0, r.E0, r.I0, r.R0))
		r.S0, r.E0, r.I0, r.R0 = &x[0], x[1], x[2], x[3]
		r.Population = &value
	default:
		return unknownParam(name, value)
	}
	return nil
}
