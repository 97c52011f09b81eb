package experiment

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/popdyn/internal/config"
	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/field"
)

// FieldModel is the preset namespace of the vector field viewer.
const FieldModel = "field"

// Registry builds requests prefilled with the configured defaults.
type Registry struct {
	cfg       *config.Config
	models    map[string]func(*config.Config) Request
	evaluator *field.Evaluator
}

func NewRegistry(cfg *config.Config) *Registry {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	r := &Registry{
		cfg:       cfg,
		models:    make(map[string]func(*config.Config) Request),
		evaluator: field.NewEvaluator(cfg.Server.MaxResolution),
	}

	r.models["sir"] = func(c *config.Config) Request { return newSIRRequest(c) }
	r.models["seir"] = func(c *config.Config) Request { return newSEIRRequest(c) }
	r.models["rumor"] = func(c *config.Config) Request { return newRumorRequest(c) }
	r.models["harvest"] = func(c *config.Config) Request { return newHarvestRequest(c) }
	r.models["logistic"] = func(c *config.Config) Request { return newLogisticRequest(c) }
	r.models["exponential"] = func(c *config.Config) Request { return newExponentialRequest(c) }

	return r
}

// UnknownModel wraps dynamo.ErrUnknownModel with the offending name.
func UnknownModel(name string) error {
	return fmt.Errorf("%w: %s", dynamo.ErrUnknownModel, name)
}

func UnknownPreset(model, name string, available []string) error {
	return fmt.Errorf("%w: preset %s/%s (available: %s)", dynamo.ErrUnknownModel,
		model, name, strings.Join(available, ", "))
}

func (r *Registry) Config() *config.Config { return r.cfg }

// New returns a request for model holding the configured defaults.
func (r *Registry) New(model string) (Request, error) {
	fn, ok := r.models[model]
	if !ok {
		return nil, UnknownModel(model)
	}
	return fn(r.cfg), nil
}

// Preset returns a request for model holding the named preset.
func (r *Registry) Preset(model, name string) (Request, error) {
	fn, ok := r.models[model]
	if !ok {
		return nil, UnknownModel(model)
	}
	cfg := config.GetPreset(r.cfg, model, name)
	if cfg == nil {
		return nil, UnknownPreset(model, name, config.ListPresets(model))
	}
	return fn(cfg), nil
}

// ListModels returns the solvable model names, sorted.
func (r *Registry) ListModels() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewField returns a field request holding the configured defaults.
func (r *Registry) NewField() *FieldRequest {
	return &FieldRequest{FieldParams: r.cfg.Field, evaluator: r.evaluator}
}

func (r *Registry) FieldPreset(name string) (*FieldRequest, error) {
	cfg := config.GetPreset(r.cfg, FieldModel, name)
	if cfg == nil {
		return nil, UnknownPreset(FieldModel, name, config.ListPresets(FieldModel))
	}
	return &FieldRequest{FieldParams: cfg.Field, evaluator: r.evaluator}, nil
}

// NewFit returns a fit request with the configured solver options and no
// data.
func (r *Registry) NewFit() *FitRequest {
	p := r.cfg.Fit
	p.Initial = append([]float64(nil), p.Initial...)
	return &FitRequest{FitParams: p}
}
