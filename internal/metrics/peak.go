package metrics

import (
	"math"

	"github.com/san-kum/popdyn/internal/dynamo"
)

// Peak tracks the argmax of one compartment. Ties keep the earliest sample.
type Peak struct {
	name   string
	index  int
	value  float64
	time   float64
	sample int
	seen   int
}

func NewPeak(name string, index int) *Peak {
	p := &Peak{name: name, index: index}
	p.Reset()
	return p
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(x dynamo.State, t float64) {
	if v := x[p.index]; v > p.value {
		p.value = v
		p.time = t
		p.sample = p.seen
	}
	p.seen++
}

func (p *Peak) Value() float64 { return p.value }

// Time of the peak sample.
func (p *Peak) Time() float64 { return p.time }

// Sample is the zero-based index of the peak in the trajectory.
func (p *Peak) Sample() int { return p.sample }

func (p *Peak) Reset() {
	p.value = math.Inf(-1)
	p.time = 0
	p.sample = 0
	p.seen = 0
}
