// Package analysis provides closed-form and numerical companions to the
// simulated trajectories:
//
//   - [PhasePlane]: one compartment against another, e.g. I against S
//   - [FinalSize]: the SIR final-size relation, solved for S(inf)/N
//   - [HerdImmunityThreshold]: the immune fraction 1 - 1/R0
//   - [Equilibria]: fixed points of a one-dimensional system with stability
//   - [BifurcationDiagram]: equilibria as one parameter varies
//
// # Harvest collapse
//
// The logistic harvest model loses both equilibria when the quota passes
// the maximum sustainable yield r*K/4:
//
//	diagram := analysis.BifurcationDiagram(func(h float64) dynamo.System {
//	    return models.NewHarvest(0.1, 1000, h)
//	}, hs, 0, 1000, 400)
package analysis
