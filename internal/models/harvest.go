package models

import (
	"fmt"

	"github.com/san-kum/popdyn/internal/dynamo"
)

// Harvest is logistic growth with a constant harvest h:
// dP = rP(1 - P/K) - h. A population that reaches zero stays extinct.
type Harvest struct {
	R float64
	K float64
	H float64
}

func NewHarvest(r, k, h float64) *Harvest {
	return &Harvest{R: r, K: k, H: h}
}

func (m *Harvest) StateDim() int    { return 1 }
func (m *Harvest) Labels() []string { return []string{"P"} }

func (m *Harvest) Derive(x dynamo.State, _ float64) dynamo.State {
	p := x[0]
	if p <= 0 {
		return dynamo.State{0}
	}
	return dynamo.State{m.R*p*(1-p/m.K) - m.H}
}

func (m *Harvest) Constrain(x dynamo.State) dynamo.State {
	if x[0] < 0 {
		x[0] = 0
	}
	return x
}

// MaxSustainableYield is rK/4, the largest h with a positive equilibrium.
func (m *Harvest) MaxSustainableYield() float64 {
	return m.R * m.K / 4
}

func (m *Harvest) GetParams() map[string]float64 {
	return map[string]float64{"r": m.R, "k": m.K, "h": m.H}
}

func (m *Harvest) SetParam(name string, value float64) error {
	switch name {
	case "r":
		m.R = value
	case "k":
		m.K = value
	case "h":
		m.H = value
	default:
		return fmt.Errorf("harvest: unknown parameter %q", name)
	}
	return nil
}
