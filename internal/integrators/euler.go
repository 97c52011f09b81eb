package integrators

import "github.com/san-kum/popdyn/internal/dynamo"

// Euler is the explicit first-order method. It is kept for comparison
// against the higher-order integrators.
type Euler struct{}

func NewEuler() *Euler { return &Euler{} }

func (Euler) Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	next := make(dynamo.State, len(x))
	axpy(next, x, dt, sys.Derive(x, t))
	return next
}
