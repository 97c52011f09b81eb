package control

import (
	"fmt"
	"math"

	"github.com/san-kum/popdyn/internal/dynamo"
)

// PID drives compartment Index towards Target. The error is x[Index] -
// Target, relative to Target, so a compartment above target asks for more
// reduction. Output is clamped to [0, Max] and so is the integral term.
type PID struct {
	Kp     float64
	Ki     float64
	Kd     float64
	Target float64
	Index  int
	Max    float64

	integral float64
	prevErr  float64
	prevT    float64
	first    bool
}

func NewPID(kp, ki, kd, target float64) *PID {
	return &PID{
		Kp:     kp,
		Ki:     ki,
		Kd:     kd,
		Target: target,
		Max:    1,
		first:  true,
	}
}

func (p *PID) Reduction(x dynamo.State, t float64) float64 {
	if p.Index < 0 || p.Index >= len(x) {
		return 0
	}
	err := (x[p.Index] - p.Target) / scaleOf(p.Target)

	if p.first {
		p.prevErr = err
		p.prevT = t
		p.first = false
		return p.clamp(p.Kp * err)
	}

	dt := t - p.prevT
	if dt <= 0 {
		return p.clamp(p.Kp*err + p.Ki*p.integral)
	}
	derivative := (err - p.prevErr) / dt
	p.prevErr = err
	p.prevT = t

	p.integral += err * dt
	if p.Ki > 0 {
		p.integral = math.Min(math.Max(p.integral, 0), p.Max/p.Ki)
	}
	return p.clamp(p.Kp*err + p.Ki*p.integral + p.Kd*derivative)
}

// scaleOf normalizes the error by the target so gains do not depend on the
// population size.
func scaleOf(target float64) float64 {
	if target > 0 {
		return target
	}
	return 1
}

func (p *PID) clamp(u float64) float64 {
	switch {
	case u < 0:
		return 0
	case u > p.Max:
		return p.Max
	}
	return u
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.prevT = 0
	p.first = true
}

// GetParams returns the tunable gains.
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"kp":     p.Kp,
		"ki":     p.Ki,
		"kd":     p.Kd,
		"target": p.Target,
		"max":    p.Max,
	}
}

func (p *PID) SetParam(name string, value float64) error {
	switch name {
	case "kp":
		p.Kp = value
	case "ki":
		p.Ki = value
	case "kd":
		p.Kd = value
	case "target":
		p.Target = value
	case "max":
		p.Max = value
	default:
		return fmt.Errorf("pid: unknown parameter %q", name)
	}
	return nil
}
