package dynamo

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Sum is the total population held by the state.
func (s State) Sum() float64 {
	total := 0.0
	for _, v := range s {
		total += v
	}
	return total
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

// Labeled systems name their compartments in state order.
type Labeled interface {
	Labels() []string
}

// Conserved systems keep the sum of their compartments constant.
type Conserved interface {
	Total(x State) float64
}

// Constrained systems project a state back onto their domain after every
// accepted step (a harvested population never goes below zero).
type Constrained interface {
	Constrain(x State) State
}

// ClosedForm models are evaluated directly rather than integrated.
type ClosedForm interface {
	Labeled
	At(t float64) State
}

type Integrator interface {
	Step(sys System, x State, t, dt float64) State
}

// AdaptiveIntegrator takes one trial step and reports whether it was
// accepted along with the suggested next step size.
type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(sys System, x State, t, dt, tol float64) (next State, dtNext float64, accepted bool)
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnSample(x State, t float64)
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

type Config struct {
	Duration  float64
	Samples   int
	Dt        float64
	Tolerance float64
	MaxDt     float64
	MinDt     float64
	MaxSteps  int
}

const (
	DefaultSamples   = 500
	MinSamples       = 300
	DefaultTolerance = 1e-9
)

func DefaultConfig() Config {
	return Config{
		Duration:  100.0,
		Samples:   DefaultSamples,
		Dt:        0.01,
		Tolerance: DefaultTolerance,
		MaxDt:     1.0,
		MinDt:     1e-12,
		MaxSteps:  1_000_000,
	}
}
