package metrics

import (
	"math"

	"github.com/san-kum/popdyn/internal/dynamo"
)

// Minimum tracks the smallest value of one compartment.
type Minimum struct {
	name  string
	index int
	value float64
}

func NewMinimum(name string, index int) *Minimum {
	return &Minimum{name: name, index: index, value: math.Inf(1)}
}

func (m *Minimum) Name() string { return m.name }

func (m *Minimum) Observe(x dynamo.State, _ float64) {
	m.value = math.Min(m.value, x[m.index])
}

func (m *Minimum) Value() float64 { return m.value }
func (m *Minimum) Reset()         { m.value = math.Inf(1) }

// Extinction records the first sample time at which a compartment is at or
// below a threshold. Value is NaN until that happens.
type Extinction struct {
	name      string
	index     int
	threshold float64
	time      float64
	reached   bool
}

func NewExtinction(name string, index int, threshold float64) *Extinction {
	return &Extinction{name: name, index: index, threshold: threshold, time: math.NaN()}
}

func (e *Extinction) Name() string { return e.name }

func (e *Extinction) Observe(x dynamo.State, t float64) {
	if !e.reached && x[e.index] <= e.threshold {
		e.reached = true
		e.time = t
	}
}

func (e *Extinction) Value() float64 { return e.time }
func (e *Extinction) Reached() bool  { return e.reached }

func (e *Extinction) Reset() {
	e.reached = false
	e.time = math.NaN()
}
