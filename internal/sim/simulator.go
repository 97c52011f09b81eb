package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/popdyn/internal/dynamo"
)

// Simulator samples a system on a uniform grid, sub-stepping the integrator
// between sample points. A Simulator holds per-run metric state and must not
// be shared between goroutines.
type Simulator struct {
	integrator dynamo.Integrator
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
}

func New(integrator dynamo.Integrator) *Simulator {
	return &Simulator{
		integrator: integrator,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// Run integrates sys from x0 over [0, cfg.Duration]. On failure it returns
// an error and no trajectory.
func (s *Simulator) Run(ctx context.Context, sys dynamo.System, x0 dynamo.State, cfg dynamo.Config) (*Trajectory, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(x0) != sys.StateDim() {
		return nil, dynamo.InvalidParameter("initial_state", len(x0),
			fmt.Sprintf("expected %d compartments", sys.StateDim()))
	}
	if !x0.IsValid() {
		return nil, dynamo.InvalidParameter("initial_state", x0, "must be finite")
	}

	times := Grid(cfg.Duration, cfg.Samples)
	traj := &Trajectory{
		Labels:  labelsOf(sys, sys.StateDim()),
		Times:   times,
		States:  make([]dynamo.State, len(times)),
		Metrics: make(map[string]float64),
	}
	s.reset()

	st := newStepper(sys, s.integrator, cfg)
	x := x0.Clone()
	s.record(traj, 0, x)

	for k := 1; k < len(times); k++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		var err error
		x, err = st.advance(x, times[k-1], times[k])
		if err != nil {
			return nil, err
		}
		s.record(traj, k, x)
	}

	traj.StepsTaken = st.steps
	traj.Rejected = st.rejected
	s.collect(traj)
	return traj, nil
}

// Sample evaluates a closed-form model on the same grid Run would use.
func (s *Simulator) Sample(ctx context.Context, model dynamo.ClosedForm, cfg dynamo.Config) (*Trajectory, error) {
	if cfg.Duration <= 0 || math.IsNaN(cfg.Duration) || math.IsInf(cfg.Duration, 0) {
		return nil, dynamo.InvalidParameter("t_max", cfg.Duration, "must be positive and finite")
	}
	if cfg.Samples < 2 {
		return nil, dynamo.InvalidParameter("samples", cfg.Samples, "must be at least 2")
	}

	times := Grid(cfg.Duration, cfg.Samples)
	traj := &Trajectory{
		Labels:  model.Labels(),
		Times:   times,
		States:  make([]dynamo.State, len(times)),
		Metrics: make(map[string]float64),
	}
	s.reset()

	for k, t := range times {
		if k%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		x := model.At(t)
		if !x.IsValid() {
			return nil, &dynamo.IntegrationError{Step: k, Time: t, State: x, Wrapped: dynamo.ErrNonFinite}
		}
		s.record(traj, k, x)
	}

	s.collect(traj)
	return traj, nil
}

func (s *Simulator) reset() {
	for _, m := range s.metrics {
		m.Reset()
	}
}

func (s *Simulator) record(traj *Trajectory, k int, x dynamo.State) {
	snapshot := x.Clone()
	traj.States[k] = snapshot
	t := traj.Times[k]
	for _, m := range s.metrics {
		m.Observe(snapshot, t)
	}
	for _, obs := range s.observers {
		obs.OnSample(snapshot, t)
	}
}

func (s *Simulator) collect(traj *Trajectory) {
	for _, m := range s.metrics {
		traj.Metrics[m.Name()] = m.Value()
	}
}

func validateConfig(cfg dynamo.Config) error {
	if cfg.Duration <= 0 || math.IsNaN(cfg.Duration) || math.IsInf(cfg.Duration, 0) {
		return dynamo.InvalidParameter("t_max", cfg.Duration, "must be positive and finite")
	}
	if cfg.Samples < 2 {
		return dynamo.InvalidParameter("samples", cfg.Samples, "must be at least 2")
	}
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive, got %g", cfg.Tolerance)
	}
	if cfg.MaxSteps <= 0 {
		return fmt.Errorf("step budget must be positive, got %d", cfg.MaxSteps)
	}
	return nil
}
