package models

import (
	"math"

	"github.com/san-kum/popdyn/internal/dynamo"
)

// Exponential is unbounded growth P(t) = P0·e^{rt}.
type Exponential struct {
	P0 float64
	R  float64
}

func NewExponential(p0, r float64) *Exponential {
	return &Exponential{P0: p0, R: r}
}

func (m *Exponential) Labels() []string { return []string{"P"} }

func (m *Exponential) At(t float64) dynamo.State {
	return dynamo.State{m.P0 * math.Exp(m.R*t)}
}

// Logistic is the closed-form solution of dP = rP(1 - P/K).
type Logistic struct {
	P0 float64
	R  float64
	K  float64
}

func NewLogistic(p0, r, k float64) *Logistic {
	return &Logistic{P0: p0, R: r, K: k}
}

func (m *Logistic) Labels() []string { return []string{"P"} }

func (m *Logistic) At(t float64) dynamo.State {
	if m.P0 == 0 {
		return dynamo.State{0}
	}
	a := (m.K - m.P0) / m.P0
	return dynamo.State{m.K / (1 + a*math.Exp(-m.R*t))}
}
