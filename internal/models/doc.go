// Package models provides the population-dynamics systems.
//
// Each ODE model implements the [dynamo.System] interface and names its
// compartments through [dynamo.Labeled]:
//
//   - [SIR]: susceptible, infected, recovered with β normalized by N
//   - [SEIR]: SIR with an exposed (latent) compartment
//   - [Rumor]: unnormalized SIR for rumor spreading (ignorant, spreader, stifler)
//   - [Harvest]: logistic growth with constant harvesting
//
// [Exponential] and [Logistic] are closed forms implementing
// [dynamo.ClosedForm]; they are sampled, not integrated.
//
// The closed-population models implement [dynamo.Conserved] so that drift
// of S+I+R (or S+E+I+R) away from N can be monitored:
//
//	sys := models.NewSIR(0.3, 0.1, 1000)
//	if c, ok := dynamo.System(sys).(dynamo.Conserved); ok {
//	    total := c.Total(state)
//	}
//
// All ODE models also implement [dynamo.Configurable] so rates can be
// adjusted by name.
package models
