package analysis

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/experiment"
	"github.com/san-kum/popdyn/internal/models"
)

func TestHerdImmunityThreshold(t *testing.T) {
	tests := []struct{ r0, want float64 }{
		{3, 2.0 / 3},
		{1, 0},
		{0.5, 0},
		{2, 0.5},
	}
	for _, tt := range tests {
		if got := HerdImmunityThreshold(tt.r0); math.Abs(got-tt.want) > 1e-15 {
			t.Errorf("HerdImmunityThreshold(%v) = %v, want %v", tt.r0, got, tt.want)
		}
	}
}

func TestFinalSizeSatisfiesRelation(t *testing.T) {
	for _, r0 := range []float64{0.5, 1.5, 3, 8} {
		s, err := FinalSize(r0, 0.999, 0)
		if err != nil {
			t.Fatal(err)
		}
		if res := s - 0.999*math.Exp(-r0*(1-s)); math.Abs(res) > 1e-12 {
			t.Errorf("R0=%v: residual %v at s=%v", r0, res, s)
		}
	}
}

func TestFinalSizeMatchesSimulation(t *testing.T) {
	reg := experiment.NewRegistry(nil)
	req, err := reg.Preset("sir", "classic")
	if err != nil {
		t.Fatal(err)
	}
	if err := req.SetParam("t_max", 300); err != nil {
		t.Fatal(err)
	}
	resp, err := req.Solve(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	n := *resp.Indicators.Population
	want, err := FinalSize(resp.Indicators.ReproductionRatio.Value, 999/n, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := resp.Indicators.Final["S"] / n; math.Abs(got-want) > 1e-3 {
		t.Errorf("simulated S/N = %v, final-size relation gives %v", got, want)
	}
}

func TestFinalSizeEdgeCases(t *testing.T) {
	if s, err := FinalSize(3, 0.5, 0.5); err != nil || s != 0.5 {
		t.Errorf("no infected: got %v, %v", s, err)
	}
	for _, args := range [][3]float64{{-1, 0.9, 0}, {math.Inf(1), 0.9, 0}, {2, 0, 0}, {2, 0.9, 0.2}} {
		if _, err := FinalSize(args[0], args[1], args[2]); !errors.Is(err, dynamo.ErrInvalidParameters) {
			t.Errorf("FinalSize%v: expected invalid parameters, got %v", args, err)
		}
	}
}

func TestHarvestEquilibria(t *testing.T) {
	eq, err := Equilibria(models.NewHarvest(0.1, 1000, 10), 0, 1000, 400)
	if err != nil {
		t.Fatal(err)
	}
	if len(eq) != 3 {
		t.Fatalf("got %d equilibria: %+v", len(eq), eq)
	}

	root := math.Sqrt(1 - 4*10/(0.1*1000))
	want := []Equilibrium{
		{Value: 0, Stable: true},
		{Value: 500 * (1 - root), Stable: false},
		{Value: 500 * (1 + root), Stable: true},
	}
	for i := range want {
		if math.Abs(eq[i].Value-want[i].Value) > 1e-6 || eq[i].Stable != want[i].Stable {
			t.Errorf("equilibrium %d = %+v, want %+v", i, eq[i], want[i])
		}
	}
}

func TestBifurcationDiagram(t *testing.T) {
	build := func(h float64) dynamo.System { return models.NewHarvest(0.1, 1000, h) }
	diagram, err := BifurcationDiagram(build, []float64{0, 10, 20, 30}, 0, 1200, 600)
	if err != nil {
		t.Fatal(err)
	}
	if len(diagram) != 4 {
		t.Fatalf("got %d points", len(diagram))
	}

	// Without harvest, extinction is unstable and K is stable.
	first := diagram[0].Equilibria
	if len(first) != 2 || first[0].Stable || !first[1].Stable || math.Abs(first[1].Value-1000) > 1e-6 {
		t.Errorf("h=0: %+v", first)
	}
	// Past r*K/4 only extinction remains.
	if last := diagram[3].Equilibria; len(last) != 1 || last[0].Value != 0 {
		t.Errorf("h=30: %+v", last)
	}
}

func TestEquilibriaValidation(t *testing.T) {
	if _, err := Equilibria(models.NewSIR(0.3, 0.1, 1000), 0, 1, 10); !errors.Is(err, dynamo.ErrInvalidParameters) {
		t.Errorf("3-D system: got %v", err)
	}
	if _, err := Equilibria(models.NewHarvest(0.1, 1000, 10), 5, 5, 10); !errors.Is(err, dynamo.ErrInvalidParameters) {
		t.Errorf("empty range: got %v", err)
	}
}

func TestPhasePlane(t *testing.T) {
	req, err := experiment.NewRegistry(nil).New("sir")
	if err != nil {
		t.Fatal(err)
	}
	resp, err := req.Solve(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	p, err := PhasePlane(resp.Trajectory, "S", "I")
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Points) != resp.Trajectory.Len() {
		t.Fatalf("got %d points", len(p.Points))
	}
	// S only decreases along an SIR trajectory.
	for i := 1; i < len(p.Points); i++ {
		if p.Points[i].X > p.Points[i-1].X+1e-9 {
			t.Fatalf("S increased at sample %d", i)
		}
	}
	_, maxX, _, maxY := p.Bounds()
	if maxX != p.Points[0].X || math.Abs(maxY-*resp.Indicators.PeakValue) > 1e-9 {
		t.Errorf("bounds: maxS=%v maxI=%v", maxX, maxY)
	}

	if _, err := PhasePlane(resp.Trajectory, "S", "E"); !errors.Is(err, dynamo.ErrInvalidParameters) {
		t.Errorf("unknown label: got %v", err)
	}
}
