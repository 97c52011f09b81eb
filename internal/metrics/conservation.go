package metrics

import (
	"math"

	"github.com/san-kum/popdyn/internal/dynamo"
)

// Conservation measures the largest relative drift of a conserved total
// from its value at the first sample.
type Conservation struct {
	name    string
	sys     dynamo.Conserved
	initial float64
	drift   float64
	samples int
}

func NewConservation(sys dynamo.Conserved) *Conservation {
	return &Conservation{
		name: "conservation_drift",
		sys:  sys,
	}
}

func (c *Conservation) Name() string { return c.name }

func (c *Conservation) Observe(x dynamo.State, _ float64) {
	total := c.sys.Total(x)
	if c.samples == 0 {
		c.initial = total
	}
	c.samples++
	if c.initial != 0 {
		c.drift = math.Max(c.drift, math.Abs(total-c.initial)/math.Abs(c.initial))
	}
}

func (c *Conservation) Value() float64 { return c.drift }

func (c *Conservation) Reset() {
	c.initial = 0
	c.drift = 0
	c.samples = 0
}

// Positivity is the fraction of samples whose compartments are all at or
// above -tolerance.
type Positivity struct {
	name       string
	tolerance  float64
	violations int
	samples    int
}

func NewPositivity(tolerance float64) *Positivity {
	return &Positivity{
		name:      "positivity",
		tolerance: tolerance,
	}
}

func (p *Positivity) Name() string { return p.name }

func (p *Positivity) Observe(x dynamo.State, _ float64) {
	p.samples++
	for _, v := range x {
		if v < -p.tolerance {
			p.violations++
			break
		}
	}
}

func (p *Positivity) Value() float64 {
	if p.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(p.violations)/float64(p.samples)
}

func (p *Positivity) Reset() {
	p.violations = 0
	p.samples = 0
}
