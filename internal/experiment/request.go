// Package experiment turns model requests into solved responses. A request
// starts from the configured defaults for its model, is overlaid with
// whatever the caller supplies, validated, and then solved on a fresh
// simulator. Nothing is cached between calls.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/san-kum/popdyn/internal/config"
	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/integrators"
	"github.com/san-kum/popdyn/internal/sim"
)

// Request is one solvable model variant with its parameters.
type Request interface {
	dynamo.Configurable
	Model() string
	Solve(ctx context.Context) (*Response, error)
	Clone() Request
	SolverOptions() *Options
}

// Options are the solver knobs a request may override.
type Options struct {
	Samples    int    `yaml:"samples,omitempty" json:"samples,omitempty" validate:"gte=0,lte=100000"`
	Integrator string `yaml:"integrator,omitempty" json:"integrator,omitempty" validate:"omitempty,oneof=rk45 rk4 euler"`
}

// SolverOptions exposes the options of the request embedding them.
func (o *Options) SolverOptions() *Options { return o }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct checks the struct tags of s and reports every failing
// field as a *dynamo.ParameterError.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, dynamo.InvalidParameter(fe.Field(), fe.Value(), fieldReason(fe)))
	}
	return errors.Join(errs...)
}

func fieldReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be >= " + fe.Param()
	case "gt":
		return "must be > " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	case "len":
		return fmt.Sprintf("must have exactly %s values", fe.Param())
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}

// requireFinite rejects NaN and Inf values, which the range tags let
// through for +Inf.
func requireFinite(values map[string]float64) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		if v := values[name]; math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, dynamo.InvalidParameter(name, v, "must be finite"))
		}
	}
	return errors.Join(errs...)
}

func check(req any, values map[string]float64) error {
	return errors.Join(validateStruct(req), requireFinite(values))
}

func integratorByName(name string) (dynamo.Integrator, error) {
	switch name {
	case "", "rk45":
		return integrators.NewRK45(), nil
	case "rk4":
		return integrators.NewRK4(), nil
	case "euler":
		return integrators.NewEuler(), nil
	default:
		return nil, dynamo.InvalidParameter("integrator", name, "must be one of rk45, rk4, euler")
	}
}

// resolve merges the request options over the configured solver defaults.
func (o Options) resolve(solver config.SolverConfig, tMax float64) (dynamo.Integrator, dynamo.Config, error) {
	name := o.Integrator
	if name == "" {
		name = solver.Integrator
	}
	integ, err := integratorByName(name)
	if err != nil {
		return nil, dynamo.Config{}, err
	}

	cfg := dynamo.DefaultConfig()
	cfg.Duration = tMax
	cfg.Samples = o.Samples
	if cfg.Samples == 0 {
		cfg.Samples = solver.Samples
	}
	if cfg.Samples == 0 {
		cfg.Samples = dynamo.DefaultSamples
	}
	if cfg.Samples < dynamo.MinSamples {
		cfg.Samples = dynamo.MinSamples
	}
	if solver.Tolerance > 0 {
		cfg.Tolerance = solver.Tolerance
	}
	if solver.MaxSteps > 0 {
		cfg.MaxSteps = solver.MaxSteps
	}
	return integ, cfg, nil
}

func integrate(ctx context.Context, sys dynamo.System, x0 dynamo.State, tMax float64,
	opts Options, solver config.SolverConfig, ms ...dynamo.Metric) (*sim.Trajectory, error) {
	integ, cfg, err := opts.resolve(solver, tMax)
	if err != nil {
		return nil, err
	}
	s := sim.New(integ)
	for _, m := range ms {
		s.AddMetric(m)
	}
	if obs, ok := sys.(dynamo.Observer); ok {
		s.AddObserver(obs)
	}
	return s.Run(ctx, sys, x0, cfg)
}

func sample(ctx context.Context, model dynamo.ClosedForm, tMax float64,
	opts Options, solver config.SolverConfig, ms ...dynamo.Metric) (*sim.Trajectory, error) {
	_, cfg, err := opts.resolve(solver, tMax)
	if err != nil {
		return nil, err
	}
	s := sim.New(nil)
	for _, m := range ms {
		s.AddMetric(m)
	}
	return s.Sample(ctx, model, cfg)
}

// ApplyParams sets params on req in name order, so the outcome does not
// depend on map iteration, and reports every rejected parameter.
func ApplyParams(req dynamo.Configurable, params map[string]float64) error {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		errs = append(errs, req.SetParam(name, params[name]))
	}
	return errors.Join(errs...)
}

func unknownParam(name string, value float64) error {
	return dynamo.InvalidParameter(name, value, "unknown parameter")
}
