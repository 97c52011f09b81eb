package models

import (
	"fmt"

	"github.com/san-kum/popdyn/internal/dynamo"
)

// SIR is the Kermack-McKendrick model with frequency-dependent
// transmission: dS = -βSI/N, dI = βSI/N - γI, dR = γI. Reduction in [0, 1]
// scales contact down to β(1 - Reduction).
type SIR struct {
	Beta      float64
	Gamma     float64
	N         float64
	Reduction float64
}

func NewSIR(beta, gamma, n float64) *SIR {
	return &SIR{Beta: beta, Gamma: gamma, N: n}
}

func (m *SIR) StateDim() int                { return 3 }
func (m *SIR) Labels() []string             { return []string{"S", "I", "R"} }
func (m *SIR) Total(x dynamo.State) float64 { return x[0] + x[1] + x[2] }

func (m *SIR) Derive(x dynamo.State, _ float64) dynamo.State {
	s, i := x[0], x[1]
	infection := m.Beta * (1 - m.Reduction) * s * i / m.N
	recovery := m.Gamma * i
	return dynamo.State{-infection, infection - recovery, recovery}
}

func (m *SIR) SetReduction(u float64) { m.Reduction = u }

// ReproductionRatio is R₀ = β/γ.
func (m *SIR) ReproductionRatio() Ratio {
	return NewRatio(m.Beta, m.Gamma)
}

func (m *SIR) GetParams() map[string]float64 {
	return map[string]float64{"beta": m.Beta, "gamma": m.Gamma, "population": m.N}
}

func (m *SIR) SetParam(name string, value float64) error {
	switch name {
	case "beta":
		m.Beta = value
	case "gamma":
		m.Gamma = value
	case "population":
		m.N = value
	default:
		return fmt.Errorf("sir: unknown parameter %q", name)
	}
	return nil
}
