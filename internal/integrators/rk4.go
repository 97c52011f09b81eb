package integrators

import "github.com/san-kum/popdyn/internal/dynamo"

// RK4 is the classic fourth-order Runge-Kutta method with a fixed step.
// Stage buffers are reused across steps, so an RK4 must not be shared
// between goroutines.
type RK4 struct {
	k     [4]dynamo.State
	stage dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) resize(n int) {
	if len(r.stage) == n {
		return
	}
	for i := range r.k {
		r.k[i] = make(dynamo.State, n)
	}
	r.stage = make(dynamo.State, n)
}

func (r *RK4) Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	r.resize(len(x))
	half := dt / 2

	copy(r.k[0], sys.Derive(x, t))
	axpy(r.stage, x, half, r.k[0])
	copy(r.k[1], sys.Derive(r.stage, t+half))
	axpy(r.stage, x, half, r.k[1])
	copy(r.k[2], sys.Derive(r.stage, t+half))
	axpy(r.stage, x, dt, r.k[2])
	copy(r.k[3], sys.Derive(r.stage, t+dt))

	next := make(dynamo.State, len(x))
	for i := range x {
		next[i] = x[i] + dt/6*(r.k[0][i]+2*r.k[1][i]+2*r.k[2][i]+r.k[3][i])
	}
	return next
}

// axpy sets dst = x + a*k.
func axpy(dst, x dynamo.State, a float64, k dynamo.State) {
	for i := range x {
		dst[i] = x[i] + a*k[i]
	}
}
