package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/sim"
)

type Point struct{ X, Y float64 }

// PhasePortrait is a trajectory projected onto two compartments.
type PhasePortrait struct {
	XLabel, YLabel string
	Points         []Point
}

// PhasePlane projects traj onto the compartments xLabel and yLabel.
func PhasePlane(traj *sim.Trajectory, xLabel, yLabel string) (*PhasePortrait, error) {
	xs, ok := traj.Series(xLabel)
	if !ok {
		return nil, dynamo.InvalidParameter("x", xLabel, fmt.Sprintf("not a compartment of %v", traj.Labels))
	}
	ys, ok := traj.Series(yLabel)
	if !ok {
		return nil, dynamo.InvalidParameter("y", yLabel, fmt.Sprintf("not a compartment of %v", traj.Labels))
	}

	p := &PhasePortrait{XLabel: xLabel, YLabel: yLabel, Points: make([]Point, len(xs))}
	for i := range xs {
		p.Points[i] = Point{X: xs[i], Y: ys[i]}
	}
	return p, nil
}

// Bounds returns the smallest rectangle holding every point.
func (p *PhasePortrait) Bounds() (minX, maxX, minY, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, pt := range p.Points {
		minX, maxX = math.Min(minX, pt.X), math.Max(maxX, pt.X)
		minY, maxY = math.Min(minY, pt.Y), math.Max(maxY, pt.Y)
	}
	return
}
