package control

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/integrators"
	"github.com/san-kum/popdyn/internal/models"
	"github.com/san-kum/popdyn/internal/sim"
)

func TestNone(t *testing.T) {
	var p Policy = None{}
	if u := p.Reduction(dynamo.State{1, 2}, 0); u != 0 {
		t.Errorf("expected no reduction, got %f", u)
	}
}

func TestThresholdHysteresis(t *testing.T) {
	c := NewThreshold(0, 10, 5, 0.5)
	steps := []struct {
		x    float64
		want float64
	}{
		{1, 0},
		{10, 0.5},
		{7, 0.5},
		{5, 0},
		{7, 0},
		{12, 0.5},
	}
	for i, s := range steps {
		if got := c.Reduction(dynamo.State{s.x}, float64(i)); got != s.want {
			t.Errorf("step %d (x=%v): got %v, want %v", i, s.x, got, s.want)
		}
	}
	c.Reset()
	if c.Active() {
		t.Error("Reset should lift the intervention")
	}
}

func TestPID(t *testing.T) {
	ctrl := NewPID(1, 0, 0, 50)
	ctrl.Index = 1
	if u := ctrl.Reduction(dynamo.State{990, 10, 0}, 0); u != 0 {
		t.Errorf("below target: got %f, want 0", u)
	}
	if u := ctrl.Reduction(dynamo.State{900, 75, 25}, 1); math.Abs(u-0.5) > 1e-12 {
		t.Errorf("half over target: got %f, want 0.5", u)
	}
	if u := ctrl.Reduction(dynamo.State{800, 500, 0}, 2); u != 1 {
		t.Errorf("far over target: got %f, want the cap 1", u)
	}

	ctrl.Max = 0.3
	if u := ctrl.Reduction(dynamo.State{800, 500, 0}, 3); u != 0.3 {
		t.Errorf("custom cap: got %f", u)
	}
}

func TestPIDIntegralWindup(t *testing.T) {
	ctrl := NewPID(0, 1, 0, 10)
	for k := 0; k < 50; k++ {
		ctrl.Reduction(dynamo.State{100}, float64(k))
	}
	// The integral term stops at the cap, so one sample far under target
	// brings the output back down.
	if u := ctrl.Reduction(dynamo.State{0}, 50); u >= 1 {
		t.Errorf("integral wound up: %f", u)
	}
}

func TestPIDParams(t *testing.T) {
	ctrl := NewPID(1, 2, 3, 4)
	if err := ctrl.SetParam("kd", 0.5); err != nil {
		t.Fatal(err)
	}
	if got := ctrl.GetParams()["kd"]; got != 0.5 {
		t.Errorf("kd = %v", got)
	}
	if err := ctrl.SetParam("gain", 1); err == nil {
		t.Error("expected unknown parameter error")
	}

	ctrl.Reduction(dynamo.State{10}, 0)
	ctrl.Reset()
	if !ctrl.first || ctrl.integral != 0 {
		t.Error("Reset should clear the controller state")
	}
}

type fixed []float64

func (f fixed) Reduction(_ dynamo.State, t float64) float64 { return f[int(t)] }
func (fixed) Reset()                                         {}

func TestLoopRecordsAndClamps(t *testing.T) {
	sys := models.NewSIR(0.3, 0.1, 1000)
	loop := NewLoop(sys, fixed{0.2, 1.5, -1, math.NaN(), 0.4})
	for k := 0; k < 5; k++ {
		loop.OnSample(dynamo.State{999, 1, 0}, float64(k))
	}

	want := []float64{0.2, 1, 0, 0, 0.4}
	for i, u := range want {
		if loop.Reductions[i] != u {
			t.Errorf("reduction %d = %v, want %v", i, loop.Reductions[i], u)
		}
	}
	if sys.Reduction != 0.4 {
		t.Errorf("system reduction = %v", sys.Reduction)
	}
	if loop.Peak() != 1 {
		t.Errorf("peak = %v", loop.Peak())
	}
	// Held values over [0,4]: 0.2, 1, 0, 0.
	if m := loop.Mean(); math.Abs(m-0.3) > 1e-12 {
		t.Errorf("mean = %v, want 0.3", m)
	}
}

func TestLoopFlattensCurve(t *testing.T) {
	run := func(p Policy) (float64, *Loop) {
		loop := NewLoop(models.NewSIR(0.3, 0.1, 1000), p)
		s := sim.New(integrators.NewRK4())
		s.AddObserver(loop)
		cfg := dynamo.DefaultConfig()
		cfg.Duration = 200
		cfg.Samples = 401
		traj, err := s.Run(context.Background(), loop, dynamo.State{999, 1, 0}, cfg)
		if err != nil {
			t.Fatal(err)
		}
		peak := 0.0
		for _, v := range traj.Column(1) {
			peak = math.Max(peak, v)
		}
		if len(loop.Reductions) != traj.Len() {
			t.Fatalf("recorded %d reductions for %d samples", len(loop.Reductions), traj.Len())
		}
		return peak, loop
	}

	free, _ := run(None{})
	locked, loop := run(NewThreshold(1, 100, 20, 0.6))
	if locked >= free*0.75 {
		t.Errorf("lockdown peak %v not well below free peak %v", locked, free)
	}
	if loop.Peak() != 0.6 {
		t.Errorf("lockdown level = %v", loop.Peak())
	}
}
