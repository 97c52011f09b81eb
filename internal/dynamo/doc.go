// Package dynamo provides the core primitives shared by the population
// models, the integrators and the trajectory solver.
//
// The package defines the fundamental interfaces and types:
//
//   - [State]: vector of compartment sizes (S, I, R, ...)
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Integrator] and [AdaptiveIntegrator]: numerical steppers
//   - [Config]: sampling grid and step control for one solve
//   - [ParameterError], [IntegrationError]: structured failures
//
// # Example
//
//	sys := models.NewSIR(0.3, 0.1, 1000)
//	solver := sim.New(integrators.NewRK45())
//	traj, err := solver.Run(ctx, sys, dynamo.State{999, 1, 0}, cfg)
//	if errors.Is(err, dynamo.ErrIntegrationFailure) {
//		// no partial trajectory is returned
//	}
//
// # Thread Safety
//
// Systems are immutable once built and may be shared. Integrators keep
// scratch buffers and must not be shared between goroutines; build one
// per solve.
package dynamo
