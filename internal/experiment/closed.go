package experiment

import (
	"context"

	"github.com/san-kum/popdyn/internal/config"
	"github.com/san-kum/popdyn/internal/models"
)

// LogisticRequest samples the closed-form logistic curve.
type LogisticRequest struct {
	config.LogisticParams `yaml:",inline"`
	Options               `yaml:",inline"`

	solver config.SolverConfig
}

func newLogisticRequest(cfg *config.Config) *LogisticRequest {
	return &LogisticRequest{LogisticParams: cfg.Logistic, solver: cfg.Solver}
}

func (r *LogisticRequest) Model() string { return "logistic" }

func (r *LogisticRequest) Clone() Request {
	c := *r
	return &c
}

func (r *LogisticRequest) Solve(ctx context.Context) (*Response, error) {
	if err := check(r, r.GetParams()); err != nil {
		return nil, err
	}
	traj, err := sample(ctx, models.NewLogistic(r.P0, r.R, r.K), r.TMax, r.Options, r.solver)
	if err != nil {
		return nil, err
	}
	return newResponse(r.Model(), traj), nil
}

func (r *LogisticRequest) GetParams() map[string]float64 {
	return map[string]float64{"p0": r.P0, "r": r.R, "k": r.K, "t_max": r.TMax}
}

func (r *LogisticRequest) SetParam(name string, value float64) error {
	switch name {
	case "p0":
		r.P0 = value
	case "r":
		r.R = value
	case "k":
		r.K = value
	case "t_max":
		r.TMax = value
	default:
		return unknownParam(name, value)
	}
	return nil
}

// ExponentialRequest samples unbounded exponential growth.
type ExponentialRequest struct {
	config.ExponentialParams `yaml:",inline"`
	Options                  `yaml:",inline"`

	solver config.SolverConfig
}

func newExponentialRequest(cfg *config.Config) *ExponentialRequest {
	return &ExponentialRequest{ExponentialParams: cfg.Exponential, solver: cfg.Solver}
}

func (r *ExponentialRequest) Model() string { return "exponential" }

func (r *ExponentialRequest) Clone() Request {
	c := *r
	return &c
}

// Solve fails with a non-finite integration error when the curve overflows
// within the horizon.
func (r *ExponentialRequest) Solve(ctx context.Context) (*Response, error) {
	if err := check(r, r.GetParams()); err != nil {
		return nil, err
	}
	traj, err := sample(ctx, models.NewExponential(r.P0, r.R), r.TMax, r.Options, r.solver)
	if err != nil {
		return nil, err
	}
	return newResponse(r.Model(), traj), nil
}

func (r *ExponentialRequest) GetParams() map[string]float64 {
	return map[string]float64{"p0": r.P0, "r": r.R, "t_max": r.TMax}
}

func (r *ExponentialRequest) SetParam(name string, value float64) error {
	switch name {
	case "p0":
		r.P0 = value
	case "r":
		r.R = value
	case "t_max":
		r.TMax = value
	default:
		return unknownParam(name, value)
	}
	return nil
}
