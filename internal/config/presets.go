package config

import "sort"

// Presets holds named parameter sets per model. Only the model's own
// section of each entry is meaningful.
var Presets = map[string]map[string]*Config{
	"sir": {
		"classic": {SIR: SIRParams{Population: Float(1000), I0: 1, Beta: 0.3, Gamma: 0.1, TMax: 100}},
		"school":  {SIR: SIRParams{Population: Float(500), I0: 5, Beta: 0.5, Gamma: 0.2, TMax: 60}},
		"lockdown": {SIR: SIRParams{
			Population: Float(1000), I0: 1, Beta: 0.3, Gamma: 0.1, TMax: 200,
			Intervention: &InterventionParams{Policy: "threshold", On: 100, Off: 20, Level: 0.6},
		}},
		"feedback": {SIR: SIRParams{
			Population: Float(1000), I0: 1, Beta: 0.3, Gamma: 0.1, TMax: 200,
			Intervention: &InterventionParams{Policy: "pid", Target: 50, Kp: 0.5, Ki: 0.02, Max: 0.9},
		}},
		"province": {SIR: SIRParams{
			Population: Float(100000), S0: Float(99500), I0: 500,
			Beta: 0.1143, Gamma: 0.0286, TMax: 365,
		}},
	},
	"seir": {
		"flu":     {SEIR: SEIRParams{Population: Float(1000), E0: 1, Beta: 0.35, Sigma: 0.2, Gamma: 0.1, TMax: 160}},
		"measles": {SEIR: SEIRParams{Population: Float(10000), E0: 10, Beta: 1.2, Sigma: 0.1, Gamma: 0.125, TMax: 120}},
	},
	"rumor": {
		"office":    {Rumor: RumorParams{S0: Float(266), I0: 1, R0: 8, B: 0.004, K: 0.01, TMax: 15}},
		"classroom": {Rumor: RumorParams{S0: Float(990), I0: 10, B: 0.002, K: 0.5, TMax: 60}},
	},
	"harvest": {
		"sustainable": {Harvest: HarvestParams{P0: 500, R: 0.1, K: 1000, H: 10, TMax: 100}},
		"collapse":    {Harvest: HarvestParams{P0: 500, R: 0.1, K: 1000, H: 30, TMax: 100}},
	},
	"logistic": {
		"page3": {Logistic: LogisticParams{P0: 200, R: 0.04, K: 750, TMax: 100}},
		"fast":  {Logistic: LogisticParams{P0: 100, R: 0.1, K: 1000, TMax: 100}},
	},
	"exponential": {
		"doubling": {Exponential: ExponentialParams{P0: 100, R: 0.0693, TMax: 50}},
	},
	"field": {
		"rotation": {Field: FieldParams{DX: "Y", DY: "-X", RangeX: 5, RangeY: 5, Resolution: 20}},
		"saddle":   {Field: FieldParams{DX: "X", DY: "-Y", RangeX: 5, RangeY: 5, Resolution: 20}},
		"cubic":    {Field: FieldParams{DX: "Y*(X**2 + Y**2)", DY: "-X*(X**2 + Y**2)", RangeX: 5, RangeY: 5, Resolution: 20}},
	},
}

// GetPreset returns base with the model's section replaced by the preset,
// or nil when either name is unknown. base is not modified.
func GetPreset(base *Config, model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	p, ok := modelPresets[preset]
	if !ok {
		return nil
	}

	cfg := *base
	switch model {
	case "sir":
		cfg.SIR = p.SIR
	case "seir":
		cfg.SEIR = p.SEIR
	case "rumor":
		cfg.Rumor = p.Rumor
	case "harvest":
		cfg.Harvest = p.Harvest
	case "logistic":
		cfg.Logistic = p.Logistic
	case "exponential":
		cfg.Exponential = p.Exponential
	case "field":
		cfg.Field = p.Field
	}
	return &cfg
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
