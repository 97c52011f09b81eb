package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/integrators"
)

type decay struct{ rate float64 }

func (d *decay) Derive(x dynamo.State, _ float64) dynamo.State { return dynamo.State{-d.rate * x[0]} }
func (d *decay) StateDim() int                                 { return 1 }
func (d *decay) Labels() []string                              { return []string{"P"} }

// blowup is dx = x², which diverges at t = 1/x0.
type blowup struct{}

func (b *blowup) Derive(x dynamo.State, _ float64) dynamo.State { return dynamo.State{x[0] * x[0]} }
func (b *blowup) StateDim() int                                 { return 1 }

type poisoned struct{}

func (p *poisoned) Derive(x dynamo.State, t float64) dynamo.State {
	if t > 0.5 {
		return dynamo.State{math.NaN()}
	}
	return dynamo.State{1}
}
func (p *poisoned) StateDim() int { return 1 }

type straightLine struct{}

func (s *straightLine) Labels() []string          { return []string{"P"} }
func (s *straightLine) At(t float64) dynamo.State { return dynamo.State{2 * t} }

func testConfig(duration float64, samples int) dynamo.Config {
	cfg := dynamo.DefaultConfig()
	cfg.Duration = duration
	cfg.Samples = samples
	return cfg
}

func TestSimulatorRun(t *testing.T) {
	sim := New(integrators.NewRK45())

	traj, err := sim.Run(context.Background(), &decay{rate: 0.5}, dynamo.State{100}, testConfig(10, 301))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if traj.Len() != 301 || len(traj.States) != 301 {
		t.Fatalf("expected 301 samples, got %d", traj.Len())
	}
	if traj.Times[0] != 0 || traj.Times[300] != 10 {
		t.Errorf("grid should span [0, 10], got [%f, %f]", traj.Times[0], traj.Times[300])
	}
	if traj.Labels[0] != "P" {
		t.Errorf("expected label P, got %v", traj.Labels)
	}

	for k, tk := range traj.Times {
		expected := 100 * math.Exp(-0.5*tk)
		if diff := math.Abs(traj.States[k][0] - expected); diff > 1e-5 {
			t.Fatalf("sample %d (t=%.3f): got %.9f, expected %.9f", k, tk, traj.States[k][0], expected)
		}
	}
}

func TestSimulatorFixedStep(t *testing.T) {
	sim := New(integrators.NewRK4())

	cfg := testConfig(10, 301)
	cfg.Dt = 0.01
	traj, err := sim.Run(context.Background(), &decay{rate: 0.5}, dynamo.State{100}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	expected := 100 * math.Exp(-5)
	if diff := math.Abs(traj.Final()[0] - expected); diff > 1e-6 {
		t.Errorf("final: got %.9f, expected %.9f", traj.Final()[0], expected)
	}
	if traj.StepsTaken < 1000 {
		t.Errorf("expected at least 1000 RK4 steps of 0.01, got %d", traj.StepsTaken)
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	sim := New(integrators.NewRK45())

	tests := []struct {
		name string
		cfg  dynamo.Config
	}{
		{"zero duration", testConfig(0, 500)},
		{"negative duration", testConfig(-1, 500)},
		{"infinite duration", testConfig(math.Inf(1), 500)},
		{"one sample", testConfig(10, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			traj, err := sim.Run(context.Background(), &decay{rate: 1}, dynamo.State{1}, tt.cfg)
			if !errors.Is(err, dynamo.ErrInvalidParameters) {
				t.Errorf("expected ErrInvalidParameters, got %v", err)
			}
			if traj != nil {
				t.Error("expected no trajectory")
			}
		})
	}
}

func TestSimulatorRejectsBadInitialState(t *testing.T) {
	sim := New(integrators.NewRK45())

	_, err := sim.Run(context.Background(), &decay{rate: 1}, dynamo.State{1, 2}, testConfig(10, 500))
	if !errors.Is(err, dynamo.ErrInvalidParameters) {
		t.Errorf("dimension mismatch: expected ErrInvalidParameters, got %v", err)
	}

	_, err = sim.Run(context.Background(), &decay{rate: 1}, dynamo.State{math.NaN()}, testConfig(10, 500))
	if !errors.Is(err, dynamo.ErrInvalidParameters) {
		t.Errorf("NaN state: expected ErrInvalidParameters, got %v", err)
	}
}

type countingMetric struct {
	count int
	last  float64
}

func (c *countingMetric) Name() string { return "count" }
func (c *countingMetric) Observe(x dynamo.State, _ float64) {
	c.count++
	c.last = x[0]
}
func (c *countingMetric) Value() float64 { return float64(c.count) }
func (c *countingMetric) Reset()         { c.count = 0 }

func TestSimulatorMetrics(t *testing.T) {
	sim := New(integrators.NewRK45())
	metric := &countingMetric{}
	sim.AddMetric(metric)

	for run := 0; run < 2; run++ {
		traj, err := sim.Run(context.Background(), &decay{rate: 1}, dynamo.State{1}, testConfig(5, 400))
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if traj.Metrics["count"] != 400 {
			t.Errorf("run %d: expected 400 observations, got %v", run, traj.Metrics["count"])
		}
	}
}

func TestSimulatorDivergence(t *testing.T) {
	sim := New(integrators.NewRK45())
	cfg := testConfig(2, 300)
	cfg.MinDt = 1e-9

	traj, err := sim.Run(context.Background(), &blowup{}, dynamo.State{1}, cfg)
	if !errors.Is(err, dynamo.ErrIntegrationFailure) {
		t.Fatalf("expected ErrIntegrationFailure, got %v", err)
	}
	if traj != nil {
		t.Error("failure must not return a partial trajectory")
	}

	var ie *dynamo.IntegrationError
	if !errors.As(err, &ie) {
		t.Fatalf("expected *IntegrationError, got %T", err)
	}
	if ie.Time < 0.9 || ie.Time > 1.0 {
		t.Errorf("failure should be reported near the singularity at t=1, got %f", ie.Time)
	}
}

func TestSimulatorNonFinite(t *testing.T) {
	sim := New(integrators.NewEuler())
	cfg := testConfig(1, 300)

	_, err := sim.Run(context.Background(), &poisoned{}, dynamo.State{0}, cfg)
	if !errors.Is(err, dynamo.ErrNonFinite) {
		t.Errorf("expected ErrNonFinite, got %v", err)
	}
}

func TestSimulatorStepBudget(t *testing.T) {
	sim := New(integrators.NewRK4())
	cfg := testConfig(10, 300)
	cfg.MaxSteps = 50

	_, err := sim.Run(context.Background(), &decay{rate: 1}, dynamo.State{1}, cfg)
	if !errors.Is(err, dynamo.ErrStepBudget) {
		t.Errorf("expected ErrStepBudget, got %v", err)
	}
}

func TestSimulatorCanceled(t *testing.T) {
	sim := New(integrators.NewRK45())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Run(ctx, &decay{rate: 1}, dynamo.State{1}, testConfig(10, 500))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSimulatorDeterministic(t *testing.T) {
	run := func() *Trajectory {
		traj, err := New(integrators.NewRK45()).Run(context.Background(), &decay{rate: 0.3}, dynamo.State{50}, testConfig(20, 500))
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		return traj
	}

	a, b := run(), run()
	for k := range a.States {
		if a.States[k][0] != b.States[k][0] {
			t.Fatalf("sample %d differs: %v vs %v", k, a.States[k][0], b.States[k][0])
		}
	}
}

func TestSimulatorSample(t *testing.T) {
	sim := New(integrators.NewRK45())
	traj, err := sim.Sample(context.Background(), &straightLine{}, testConfig(3, 301))
	if err != nil {
		t.Fatalf("sample failed: %v", err)
	}
	if traj.Final()[0] != 6 {
		t.Errorf("expected P(3) = 6, got %f", traj.Final()[0])
	}
	if traj.StepsTaken != 0 {
		t.Errorf("closed forms take no integration steps, got %d", traj.StepsTaken)
	}
}

func TestGrid(t *testing.T) {
	times := Grid(100, 500)
	if len(times) != 500 || times[0] != 0 || times[499] != 100 {
		t.Fatalf("unexpected grid ends: %d [%f, %f]", len(times), times[0], times[len(times)-1])
	}
	step := times[1] - times[0]
	for k := 1; k < len(times); k++ {
		if math.Abs(times[k]-times[k-1]-step) > 1e-9 {
			t.Fatalf("grid not uniform at %d", k)
		}
	}
}

func TestTrajectorySeries(t *testing.T) {
	traj := &Trajectory{
		Labels: []string{"S", "I"},
		Times:  []float64{0, 1},
		States: []dynamo.State{{9, 1}, {8, 2}},
	}

	i, ok := traj.Series("I")
	if !ok || i[0] != 1 || i[1] != 2 {
		t.Errorf("Series(I) = %v, %v", i, ok)
	}
	if _, ok := traj.Series("R"); ok {
		t.Error("expected missing label")
	}
}
