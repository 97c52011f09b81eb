// Package automation runs scripted batches of solves from YAML scenario
// files, and Monte Carlo parameter uncertainty studies.
package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/popdyn/internal/chart"
	"github.com/san-kum/popdyn/internal/config"
	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/experiment"
	"github.com/san-kum/popdyn/internal/field"
	"github.com/san-kum/popdyn/internal/storage"
)

// Scenario defines a scripted solve sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single solve. Params are applied on top of the preset
// (or the defaults) in name order. For the field model, Field holds the
// expressions and grid instead.
type ScenarioStep struct {
	Name       string             `yaml:"name"`
	Model      string             `yaml:"model"`
	Preset     string             `yaml:"preset"`
	Integrator string             `yaml:"integrator"`
	Samples    int                `yaml:"samples"`
	Params     map[string]float64 `yaml:"params"`
	Field      map[string]string  `yaml:"field"`
	SaveAs     string             `yaml:"save_as"`

	Intervention *config.InterventionParams `yaml:"intervention"`
}

// StepResult is the outcome of one step. Exactly one of Response and Field
// is set.
type StepResult struct {
	Name     string
	Model    string
	Response *experiment.Response
	Field    *field.Sample
	SavedTo  string
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(scenario.Steps) == 0 {
		return nil, dynamo.InvalidParameter("steps", 0, "scenario has no steps")
	}
	return &scenario, nil
}

type Runner struct {
	reg    *experiment.Registry
	logger *zap.Logger

	// OutDir is prepended to relative save_as paths.
	OutDir string
}

func NewRunner(reg *experiment.Registry, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{reg: reg, logger: logger}
}

// RunScenario executes all steps in order and stops at the first failure,
// returning the results of the steps that completed.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step %d", i+1)
		}
		r.logger.Info("running step",
			zap.String("scenario", scenario.Name),
			zap.String("step", name),
			zap.String("model", step.Model),
			zap.Int("index", i+1),
			zap.Int("total", len(scenario.Steps)),
		)

		res, err := r.runStep(ctx, step)
		if err != nil {
			return results, fmt.Errorf("%s: %w", name, err)
		}
		res.Name = name
		results = append(results, *res)
	}

	return results, nil
}

func (r *Runner) runStep(ctx context.Context, step ScenarioStep) (*StepResult, error) {
	if step.Model == experiment.FieldModel {
		return r.runField(step)
	}

	req, err := r.request(step.Model, step.Preset)
	if err != nil {
		return nil, err
	}
	if err := experiment.ApplyParams(req, step.Params); err != nil {
		return nil, err
	}
	if step.Intervention != nil {
		if err := experiment.SetIntervention(req, step.Intervention); err != nil {
			return nil, err
		}
	}
	opts := req.SolverOptions()
	if step.Integrator != "" {
		opts.Integrator = step.Integrator
	}
	if step.Samples > 0 {
		opts.Samples = step.Samples
	}

	resp, err := req.Solve(ctx)
	if err != nil {
		return nil, err
	}
	res := &StepResult{Model: step.Model, Response: resp}
	if step.SaveAs != "" {
		if res.SavedTo, err = r.save(step.SaveAs, resp, nil); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (r *Runner) runField(step ScenarioStep) (*StepResult, error) {
	req := r.reg.NewField()
	if step.Preset != "" {
		var err error
		if req, err = r.reg.FieldPreset(step.Preset); err != nil {
			return nil, err
		}
	}
	for k, v := range step.Field {
		switch k {
		case "expr_dx":
			req.DX = v
		case "expr_dy":
			req.DY = v
		default:
			return nil, dynamo.InvalidParameter(k, v, "unknown field setting")
		}
	}
	for k, v := range step.Params {
		switch k {
		case "range_x":
			req.RangeX = v
		case "range_y":
			req.RangeY = v
		case "resolution":
			req.Resolution = int(v)
		default:
			return nil, dynamo.InvalidParameter(k, v, "unknown parameter")
		}
	}

	s, err := req.Evaluate()
	if err != nil {
		return nil, err
	}
	res := &StepResult{Model: step.Model, Field: s}
	if step.SaveAs != "" {
		if res.SavedTo, err = r.save(step.SaveAs, nil, s); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (r *Runner) request(model, preset string) (experiment.Request, error) {
	if preset != "" {
		return r.reg.Preset(model, preset)
	}
	return r.reg.New(model)
}

// save writes a trajectory or field in the format named by the file
// extension: .csv, .json, .png or .svg.
func (r *Runner) save(path string, resp *experiment.Response, s *field.Sample) (string, error) {
	if !filepath.IsAbs(path) && r.OutDir != "" {
		path = filepath.Join(r.OutDir, path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		if resp != nil {
			err = storage.WriteTrajectoryCSV(f, resp.Trajectory)
		} else {
			err = storage.WriteFieldCSV(f, s)
		}
	case ".json":
		if resp != nil {
			err = storage.WriteJSON(f, resp)
		} else {
			err = storage.WriteJSON(f, s)
		}
	case ".png", ".svg":
		format, _ := chart.FormatFromPath(path)
		if resp != nil {
			err = chart.Trajectory(f, resp, format)
		} else {
			err = chart.Field(f, s, format)
		}
	default:
		err = dynamo.InvalidParameter("save_as", path, "extension must be .csv, .json, .png or .svg")
	}

	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// MonteCarloConfig defines a parameter uncertainty study. Each trial
// draws every parameter in Perturb uniformly within ±fraction of its base
// value.
type MonteCarloConfig struct {
	Model   string             `yaml:"model"`
	Preset  string             `yaml:"preset"`
	Perturb map[string]float64 `yaml:"perturb"`
	Metric  string             `yaml:"metric"`
	Trials  int                `yaml:"trials"`
	Seed    int64              `yaml:"seed"`
}

// MonteCarloResult holds statistics of the metric over the trials that
// solved.
type MonteCarloResult struct {
	Metric string    `json:"metric"`
	Trials int       `json:"trials"`
	Failed int       `json:"failed"`
	Values []float64 `json:"values"`
	Mean   float64   `json:"mean"`
	Std    float64   `json:"std"`
	Min    float64   `json:"min"`
	Max    float64   `json:"max"`
}

// RunMonteCarlo executes the trials sequentially. A zero seed seeds from
// the clock.
func (r *Runner) RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig) (*MonteCarloResult, error) {
	if cfg.Trials <= 0 {
		return nil, dynamo.InvalidParameter("trials", cfg.Trials, "must be > 0")
	}
	if cfg.Metric == "" {
		return nil, dynamo.InvalidParameter("metric", cfg.Metric, "is required")
	}
	base, err := r.request(cfg.Model, cfg.Preset)
	if err != nil {
		return nil, err
	}
	baseParams := base.GetParams()

	names := make([]string, 0, len(cfg.Perturb))
	for name, frac := range cfg.Perturb {
		if _, ok := baseParams[name]; !ok {
			return nil, dynamo.InvalidParameter(name, frac, "unknown parameter")
		}
		if !(frac >= 0 && frac <= 1) {
			return nil, dynamo.InvalidParameter(name, frac, "perturbation must be within [0, 1]")
		}
		names = append(names, name)
	}
	sort.Strings(names)

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	res := &MonteCarloResult{Metric: cfg.Metric, Trials: cfg.Trials}
	for trial := 0; trial < cfg.Trials; trial++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req := base.Clone()
		for _, name := range names {
			v := baseParams[name] * (1 + (rng.Float64()-0.5)*2*cfg.Perturb[name])
			if err := req.SetParam(name, v); err != nil {
				return nil, err
			}
		}

		resp, err := req.Solve(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			res.Failed++
			continue
		}
		v, ok := resp.Indicator(cfg.Metric)
		if !ok {
			return nil, dynamo.InvalidParameter("metric", cfg.Metric,
				"not reported by "+cfg.Model+"; available: "+strings.Join(resp.IndicatorNames(), ", "))
		}
		res.Values = append(res.Values, v)

		if (trial+1)%10 == 0 {
			r.logger.Debug("monte carlo progress", zap.Int("done", trial+1), zap.Int("trials", cfg.Trials))
		}
	}

	summarize(res)
	return res, nil
}

func summarize(res *MonteCarloResult) {
	if len(res.Values) == 0 {
		return
	}
	res.Min, res.Max = math.Inf(1), math.Inf(-1)
	sum := 0.0
	for _, v := range res.Values {
		sum += v
		res.Min = math.Min(res.Min, v)
		res.Max = math.Max(res.Max, v)
	}
	res.Mean = sum / float64(len(res.Values))

	ss := 0.0
	for _, v := range res.Values {
		ss += (v - res.Mean) * (v - res.Mean)
	}
	res.Std = math.Sqrt(ss / float64(len(res.Values)))
}
