// Package control provides feedback interventions for the epidemic models.
//
// A [Policy] looks at the sampled state and returns a contact reduction in
// [0, 1], which lowers transmission to β(1 - u):
//
//   - [PID]: closes the loop on one compartment, e.g. holds I near a cap
//   - [Threshold]: a lockdown switched on and off with hysteresis
//   - [None]: no intervention
//
// # Usage
//
//	pid := control.NewPID(1, 0.01, 0, 50) // Kp, Ki, Kd, target
//	pid.Index, pid.Max = 1, 0.8           // act on I, at most 80% reduction
//	loop := control.NewLoop(models.NewSIR(0.3, 0.1, 1000), pid)
//	s := sim.New(integrators.NewRK45())
//	s.AddObserver(loop)
//	traj, err := s.Run(ctx, loop, x0, cfg)
//
// The reduction is held constant between samples, so the sample interval is
// also the policy's reaction time.
package control
