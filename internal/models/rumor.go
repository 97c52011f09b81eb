package models

import (
	"fmt"

	"github.com/san-kum/popdyn/internal/dynamo"
)

// Rumor is the mass-action SIR used for rumor spreading. Unlike SIR the
// contact rate b is not divided by N: dS = -bSI, dI = bSI - kI, dR = kI.
type Rumor struct {
	B float64
	K float64
}

func NewRumor(b, k float64) *Rumor {
	return &Rumor{B: b, K: k}
}

func (m *Rumor) StateDim() int                { return 3 }
func (m *Rumor) Labels() []string             { return []string{"S", "I", "R"} }
func (m *Rumor) Total(x dynamo.State) float64 { return x[0] + x[1] + x[2] }

func (m *Rumor) Derive(x dynamo.State, _ float64) dynamo.State {
	s, i := x[0], x[1]
	spread := m.B * s * i
	stifle := m.K * i
	return dynamo.State{-spread, spread - stifle, stifle}
}

// ReproductionRatio is b/k. Without the N normalization this is a rate
// ratio, not a dimensionless R₀.
func (m *Rumor) ReproductionRatio() Ratio {
	return NewRatio(m.B, m.K)
}

func (m *Rumor) GetParams() map[string]float64 {
	return map[string]float64{"b": m.B, "k": m.K}
}

func (m *Rumor) SetParam(name string, value float64) error {
	switch name {
	case "b":
		m.B = value
	case "k":
		m.K = value
	default:
		return fmt.Errorf("rumor: unknown parameter %q", name)
	}
	return nil
}
