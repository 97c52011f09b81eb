package metrics

import (
	"math"

	"github.com/san-kum/popdyn/internal/dynamo"
)

// Final records the last observed value of one compartment.
type Final struct {
	name  string
	index int
	value float64
}

func NewFinal(name string, index int) *Final {
	return &Final{name: name, index: index, value: math.NaN()}
}

func (f *Final) Name() string                     { return f.name }
func (f *Final) Observe(x dynamo.State, _ float64) { f.value = x[f.index] }
func (f *Final) Value() float64                   { return f.value }
func (f *Final) Reset()                           { f.value = math.NaN() }
