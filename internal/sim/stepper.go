package sim

import (
	"math"

	"github.com/san-kum/popdyn/internal/dynamo"
)

// stepper carries step-size state across sample intervals of one run.
type stepper struct {
	sys       dynamo.System
	integ     dynamo.Integrator
	adaptive  dynamo.AdaptiveIntegrator
	constrain dynamo.Constrained
	cfg       dynamo.Config

	h        float64
	steps    int
	rejected int
}

func newStepper(sys dynamo.System, integ dynamo.Integrator, cfg dynamo.Config) *stepper {
	st := &stepper{sys: sys, integ: integ, cfg: cfg, h: cfg.Dt}
	st.adaptive, _ = integ.(dynamo.AdaptiveIntegrator)
	st.constrain, _ = sys.(dynamo.Constrained)
	if cfg.MaxDt > 0 {
		st.h = math.Min(st.h, cfg.MaxDt)
	}
	return st
}

// advance moves x from t0 to exactly t1.
func (st *stepper) advance(x dynamo.State, t0, t1 float64) (dynamo.State, error) {
	if st.adaptive == nil {
		return st.fixed(x, t0, t1)
	}

	t := t0
	for t < t1 {
		if st.steps+st.rejected >= st.cfg.MaxSteps {
			return nil, st.fail(t, x, dynamo.ErrStepBudget)
		}

		h := st.h
		last := false
		if t+h >= t1 {
			h = t1 - t
			last = true
		}
		if !last && h < st.cfg.MinDt {
			return nil, st.fail(t, x, dynamo.ErrStepTooSmall)
		}

		next, hNext, ok := st.adaptive.StepAdaptive(st.sys, x, t, h, st.cfg.Tolerance)
		if !ok {
			st.rejected++
			if hNext < st.cfg.MinDt {
				return nil, st.fail(t, x, dynamo.ErrStepTooSmall)
			}
			st.h = hNext
			continue
		}

		x = st.accept(next)
		if !x.IsValid() {
			return nil, st.fail(t+h, x, dynamo.ErrNonFinite)
		}

		if last {
			t = t1
		} else {
			t += h
		}
		// A step shortened to land on t1 says little about the next one.
		if !last || hNext < st.h {
			st.h = hNext
		}
		if st.cfg.MaxDt > 0 {
			st.h = math.Min(st.h, st.cfg.MaxDt)
		}
	}
	return x, nil
}

// fixed covers [t0, t1] with the fewest equal steps no longer than cfg.Dt.
func (st *stepper) fixed(x dynamo.State, t0, t1 float64) (dynamo.State, error) {
	n := int(math.Ceil((t1-t0)/st.cfg.Dt - 1e-9))
	if n < 1 {
		n = 1
	}
	h := (t1 - t0) / float64(n)

	for i := 0; i < n; i++ {
		if st.steps >= st.cfg.MaxSteps {
			return nil, st.fail(t0+float64(i)*h, x, dynamo.ErrStepBudget)
		}
		t := t0 + float64(i)*h
		x = st.accept(st.integ.Step(st.sys, x, t, h))
		if !x.IsValid() {
			return nil, st.fail(t+h, x, dynamo.ErrNonFinite)
		}
	}
	return x, nil
}

func (st *stepper) accept(x dynamo.State) dynamo.State {
	st.steps++
	if st.constrain != nil {
		return st.constrain.Constrain(x)
	}
	return x
}

func (st *stepper) fail(t float64, x dynamo.State, cause error) error {
	return &dynamo.IntegrationError{
		Step:    st.steps,
		Time:    t,
		State:   x.Clone(),
		Wrapped: cause,
	}
}
