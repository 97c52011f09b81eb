package integrators

import (
	"testing"

	"github.com/san-kum/popdyn/internal/dynamo"
)

// benchEpidemic is a normalized SIR system.
type benchEpidemic struct{}

func (b *benchEpidemic) StateDim() int { return 3 }
func (b *benchEpidemic) Derive(x dynamo.State, t float64) dynamo.State {
	inf := 0.3 * x[0] * x[1] / 1000
	rec := 0.1 * x[1]
	return dynamo.State{-inf, inf - rec, rec}
}

func BenchmarkEuler(b *testing.B) {
	integrator := NewEuler()
	sys := &benchEpidemic{}
	x := dynamo.State{999, 1, 0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(sys, x, 0, 0.01)
	}
}

func BenchmarkRK4(b *testing.B) {
	integrator := NewRK4()
	sys := &benchEpidemic{}
	x := dynamo.State{999, 1, 0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(sys, x, 0, 0.01)
	}
}

func BenchmarkRK45(b *testing.B) {
	integrator := NewRK45()
	sys := &benchEpidemic{}
	x := dynamo.State{999, 1, 0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x, _, _ = integrator.StepAdaptive(sys, x, 0, 0.01, 1e-9)
	}
}
