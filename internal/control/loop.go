package control

import (
	"math"

	"github.com/san-kum/popdyn/internal/dynamo"
)

// Mitigable systems accept a contact reduction.
type Mitigable interface {
	dynamo.System
	dynamo.Labeled
	SetReduction(u float64)
}

// Loop closes a policy around a system. It is both the system handed to
// the simulator and an observer of it: each sample sets the reduction used
// until the next one. A Loop records the reduction it applied per sample.
type Loop struct {
	sys    Mitigable
	policy Policy

	Times      []float64
	Reductions []float64
}

func NewLoop(sys Mitigable, policy Policy) *Loop {
	if policy == nil {
		policy = None{}
	}
	policy.Reset()
	sys.SetReduction(0)
	return &Loop{sys: sys, policy: policy}
}

func (l *Loop) StateDim() int { return l.sys.StateDim() }

func (l *Loop) Derive(x dynamo.State, t float64) dynamo.State { return l.sys.Derive(x, t) }

func (l *Loop) Labels() []string { return l.sys.Labels() }

func (l *Loop) OnSample(x dynamo.State, t float64) {
	u := l.policy.Reduction(x, t)
	if math.IsNaN(u) {
		u = 0
	}
	u = math.Min(math.Max(u, 0), 1)
	l.sys.SetReduction(u)
	l.Times = append(l.Times, t)
	l.Reductions = append(l.Reductions, u)
}

// Peak is the largest reduction applied.
func (l *Loop) Peak() float64 {
	peak := 0.0
	for _, u := range l.Reductions {
		peak = math.Max(peak, u)
	}
	return peak
}

// Mean is the time-weighted mean reduction, each sample's value held until
// the next sample.
func (l *Loop) Mean() float64 {
	n := len(l.Times)
	if n < 2 {
		return 0
	}
	area := 0.0
	for k := 0; k < n-1; k++ {
		area += l.Reductions[k] * (l.Times[k+1] - l.Times[k])
	}
	span := l.Times[n-1] - l.Times[0]
	if span <= 0 {
		return 0
	}
	return area / span
}
