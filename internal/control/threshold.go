package control

import "github.com/san-kum/popdyn/internal/dynamo"

// Threshold imposes Level once x[Index] reaches On and lifts it once the
// compartment falls back to Off. Off below On gives hysteresis.
type Threshold struct {
	Index int
	On    float64
	Off   float64
	Level float64

	active bool
}

func NewThreshold(index int, on, off, level float64) *Threshold {
	return &Threshold{Index: index, On: on, Off: off, Level: level}
}

func (c *Threshold) Reduction(x dynamo.State, _ float64) float64 {
	if c.Index < 0 || c.Index >= len(x) {
		return 0
	}
	v := x[c.Index]
	switch {
	case !c.active && v >= c.On:
		c.active = true
	case c.active && v <= c.Off:
		c.active = false
	}
	if c.active {
		return c.Level
	}
	return 0
}

// Active reports whether the last sample left the intervention in force.
func (c *Threshold) Active() bool { return c.active }

func (c *Threshold) Reset() { c.active = false }
