package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultIntegrator    = "rk45"
	DefaultSamples       = 500
	DefaultTolerance     = 1e-9
	DefaultMaxSteps      = 1_000_000
	DefaultMaxResolution = 50
	DefaultAddr          = ":8080"
	DefaultFitPoints     = 300
)

// Config holds one defaults structure per model variant. Whatever a request
// leaves out is taken from here.
type Config struct {
	Solver      SolverConfig      `yaml:"solver"`
	SIR         SIRParams         `yaml:"sir"`
	SEIR        SEIRParams        `yaml:"seir"`
	Rumor       RumorParams       `yaml:"rumor"`
	Harvest     HarvestParams     `yaml:"harvest"`
	Logistic    LogisticParams    `yaml:"logistic"`
	Exponential ExponentialParams `yaml:"exponential"`
	Field       FieldParams       `yaml:"field"`
	Fit         FitParams         `yaml:"fit"`
	Server      ServerConfig      `yaml:"server"`
}

type SolverConfig struct {
	Integrator string  `yaml:"integrator" json:"integrator,omitempty" validate:"omitempty,oneof=rk45 rk4 euler"`
	Samples    int     `yaml:"samples" json:"samples,omitempty" validate:"gte=0,lte=100000"`
	Tolerance  float64 `yaml:"tolerance" json:"-" validate:"gt=0"`
	MaxSteps   int     `yaml:"max_steps" json:"-" validate:"gt=0"`
}

// SIRParams leaves Population and S0 optional: N is derived from the
// compartments when absent, and S0 from N when absent.
type SIRParams struct {
	Population *float64 `yaml:"population,omitempty" json:"population,omitempty" validate:"omitempty,gt=0"`
	S0         *float64 `yaml:"s0,omitempty" json:"s0,omitempty" validate:"omitempty,gte=0"`
	I0         float64  `yaml:"i0" json:"i0" validate:"gte=0"`
	R0         float64  `yaml:"r0" json:"r0" validate:"gte=0"`
	Beta       float64  `yaml:"beta" json:"beta" validate:"gte=0"`
	Gamma      float64  `yaml:"gamma" json:"gamma" validate:"gte=0"`
	TMax       float64  `yaml:"t_max" json:"t_max" validate:"gt=0"`

	Intervention *InterventionParams `yaml:"intervention,omitempty" json:"intervention,omitempty"`
}

type SEIRParams struct {
	Population *float64 `yaml:"population,omitempty" json:"population,omitempty" validate:"omitempty,gt=0"`
	S0         *float64 `yaml:"s0,omitempty" json:"s0,omitempty" validate:"omitempty,gte=0"`
	E0         float64  `yaml:"e0" json:"e0" validate:"gte=0"`
	I0         float64  `yaml:"i0" json:"i0" validate:"gte=0"`
	R0         float64  `yaml:"r0" json:"r0" validate:"gte=0"`
	Beta       float64  `yaml:"beta" json:"beta" validate:"gte=0"`
	Sigma      float64  `yaml:"sigma" json:"sigma" validate:"gte=0"`
	Gamma      float64  `yaml:"gamma" json:"gamma" validate:"gte=0"`
	TMax       float64  `yaml:"t_max" json:"t_max" validate:"gt=0"`

	Intervention *InterventionParams `yaml:"intervention,omitempty" json:"intervention,omitempty"`
}

// InterventionParams selects a contact-reduction policy acting on the
// infectious compartment. pid uses Target and the gains, with Max capping
// the reduction (0 means 1). threshold applies Level from On until I falls
// to Off.
type InterventionParams struct {
	Policy string  `yaml:"policy" json:"policy" validate:"oneof=none pid threshold"`
	Target float64 `yaml:"target,omitempty" json:"target,omitempty" validate:"gte=0"`
	Kp     float64 `yaml:"kp,omitempty" json:"kp,omitempty" validate:"gte=0"`
	Ki     float64 `yaml:"ki,omitempty" json:"ki,omitempty" validate:"gte=0"`
	Kd     float64 `yaml:"kd,omitempty" json:"kd,omitempty" validate:"gte=0"`
	Max    float64 `yaml:"max,omitempty" json:"max,omitempty" validate:"gte=0,lte=1"`
	On     float64 `yaml:"on,omitempty" json:"on,omitempty" validate:"gte=0"`
	Off    float64 `yaml:"off,omitempty" json:"off,omitempty" validate:"gte=0"`
	Level  float64 `yaml:"level,omitempty" json:"level,omitempty" validate:"gte=0,lte=1"`
}

// Clone returns a copy of p, or nil for nil.
func (p *InterventionParams) Clone() *InterventionParams {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

type RumorParams struct {
	Population *float64 `yaml:"population,omitempty" json:"population,omitempty" validate:"omitempty,gt=0"`
	S0         *float64 `yaml:"s0,omitempty" json:"s0,omitempty" validate:"omitempty,gte=0"`
	I0         float64  `yaml:"i0" json:"i0" validate:"gte=0"`
	R0         float64  `yaml:"r0" json:"r0" validate:"gte=0"`
	B          float64  `yaml:"b" json:"b" validate:"gte=0"`
	K          float64  `yaml:"k" json:"k" validate:"gte=0"`
	TMax       float64  `yaml:"t_max" json:"t_max" validate:"gt=0"`
}

type HarvestParams struct {
	P0   float64 `yaml:"p0" json:"p0" validate:"gte=0"`
	R    float64 `yaml:"r" json:"r" validate:"gte=0"`
	K    float64 `yaml:"k" json:"k" validate:"gt=0"`
	H    float64 `yaml:"h" json:"h" validate:"gte=0"`
	TMax float64 `yaml:"t_max" json:"t_max" validate:"gt=0"`
}

type LogisticParams struct {
	P0   float64 `yaml:"p0" json:"p0" validate:"gte=0"`
	R    float64 `yaml:"r" json:"r" validate:"gte=0"`
	K    float64 `yaml:"k" json:"k" validate:"gt=0"`
	TMax float64 `yaml:"t_max" json:"t_max" validate:"gt=0"`
}

type ExponentialParams struct {
	P0   float64 `yaml:"p0" json:"p0" validate:"gte=0"`
	R    float64 `yaml:"r" json:"r" validate:"gte=0"`
	TMax float64 `yaml:"t_max" json:"t_max" validate:"gt=0"`
}

type FieldParams struct {
	DX         string  `yaml:"expr_dx" json:"expr_dx"`
	DY         string  `yaml:"expr_dy" json:"expr_dy"`
	RangeX     float64 `yaml:"range_x" json:"range_x" validate:"gt=0"`
	RangeY     float64 `yaml:"range_y" json:"range_y" validate:"gt=0"`
	Resolution int     `yaml:"resolution" json:"resolution" validate:"gte=1"`
}

type FitParams struct {
	Initial   []float64 `yaml:"initial,omitempty" json:"initial,omitempty" validate:"omitempty,len=4"`
	MaxIter   int       `yaml:"max_iter" json:"max_iter,omitempty" validate:"gte=0"`
	Tolerance float64   `yaml:"tolerance" json:"tolerance,omitempty" validate:"gte=0"`
	Points    int       `yaml:"points" json:"points,omitempty" validate:"gte=0,lte=10000"`
}

type ServerConfig struct {
	Addr          string   `yaml:"addr"`
	CORSOrigins   []string `yaml:"cors_origins"`
	MaxResolution int      `yaml:"max_resolution"`
}

func DefaultConfig() *Config {
	return &Config{
		Solver: SolverConfig{
			Integrator: DefaultIntegrator,
			Samples:    DefaultSamples,
			Tolerance:  DefaultTolerance,
			MaxSteps:   DefaultMaxSteps,
		},
		SIR: SIRParams{
			Population: Float(1000),
			I0:         1,
			Beta:       0.3,
			Gamma:      0.1,
			TMax:       100,
		},
		SEIR: SEIRParams{
			Population: Float(1000),
			E0:         1,
			Beta:       0.35,
			Sigma:      0.2,
			Gamma:      0.1,
			TMax:       160,
		},
		Rumor: RumorParams{
			S0:   Float(266),
			I0:   1,
			R0:   8,
			B:    0.004,
			K:    0.01,
			TMax: 15,
		},
		Harvest: HarvestParams{
			P0:   100,
			R:    0.1,
			K:    1000,
			H:    10,
			TMax: 100,
		},
		Logistic: LogisticParams{
			P0:   200,
			R:    0.04,
			K:    750,
			TMax: 100,
		},
		Exponential: ExponentialParams{
			P0:   100,
			R:    0.03,
			TMax: 100,
		},
		Field: FieldParams{
			DX:         "Y",
			DY:         "-X",
			RangeX:     5,
			RangeY:     5,
			Resolution: 20,
		},
		Fit: FitParams{
			MaxIter:   5000,
			Tolerance: 1e-10,
			Points:    DefaultFitPoints,
		},
		Server: ServerConfig{
			Addr:          DefaultAddr,
			CORSOrigins:   []string{"*"},
			MaxResolution: DefaultMaxResolution,
		},
	}
}

// Float returns a pointer to v, for the optional fields.
func Float(v float64) *float64 { return &v }

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := LoadInto(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadInto overlays the file at path onto cfg. Keys absent from the file
// keep their current values.
func LoadInto(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	cfg.detach()
	return yaml.Unmarshal(data, cfg)
}

// detach gives cfg its own copies of the optional values and slices, so
// decoding into it cannot write through to a preset.
func (c *Config) detach() {
	for _, p := range []**float64{
		&c.SIR.Population, &c.SIR.S0,
		&c.SEIR.Population, &c.SEIR.S0,
		&c.Rumor.Population, &c.Rumor.S0,
	} {
		if *p != nil {
			v := **p
			*p = &v
		}
	}
	c.SIR.Intervention = c.SIR.Intervention.Clone()
	c.SEIR.Intervention = c.SEIR.Intervention.Clone()
	c.Fit.Initial = append([]float64(nil), c.Fit.Initial...)
	c.Server.CORSOrigins = append([]string(nil), c.Server.CORSOrigins...)
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
