package models

import (
	"fmt"

	"github.com/san-kum/popdyn/internal/dynamo"
)

// SEIR adds a latent compartment E entered on infection and left at rate σ.
type SEIR struct {
	Beta      float64
	Sigma     float64
	Gamma     float64
	N         float64
	Reduction float64
}

func NewSEIR(beta, sigma, gamma, n float64) *SEIR {
	return &SEIR{Beta: beta, Sigma: sigma, Gamma: gamma, N: n}
}

func (m *SEIR) StateDim() int    { return 4 }
func (m *SEIR) Labels() []string { return []string{"S", "E", "I", "R"} }
func (m *SEIR) Total(x dynamo.State) float64 {
	return x[0] + x[1] + x[2] + x[3]
}

func (m *SEIR) Derive(x dynamo.State, _ float64) dynamo.State {
	s, e, i := x[0], x[1], x[2]
	infection := m.Beta * (1 - m.Reduction) * s * i / m.N
	onset := m.Sigma * e
	recovery := m.Gamma * i
	return dynamo.State{-infection, infection - onset, onset - recovery, recovery}
}

func (m *SEIR) SetReduction(u float64) { m.Reduction = u }

// ReproductionRatio is β/γ. The latent period delays the epidemic but does
// not change the number of secondary infections.
func (m *SEIR) ReproductionRatio() Ratio {
	return NewRatio(m.Beta, m.Gamma)
}

func (m *SEIR) GetParams() map[string]float64 {
	return map[string]float64{"beta": m.Beta, "sigma": m.Sigma, "gamma": m.Gamma, "population": m.N}
}

func (m *SEIR) SetParam(name string, value float64) error {
	switch name {
	case "beta":
		m.Beta = value
	case "sigma":
		m.Sigma = value
	case "gamma":
		m.Gamma = value
	case "population":
		m.N = value
	default:
		return fmt.Errorf("seir: unknown parameter %q", name)
	}
	return nil
}
