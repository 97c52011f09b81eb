package experiment

import (
	"github.com/san-kum/popdyn/internal/config"
	"github.com/san-kum/popdyn/internal/control"
	"github.com/san-kum/popdyn/internal/dynamo"
)

// newLoop wraps sys in the configured policy acting on compartment index.
// It returns nil when no intervention is configured.
func newLoop(p *config.InterventionParams, sys control.Mitigable, index int) (*control.Loop, error) {
	if p == nil || p.Policy == "none" {
		return nil, nil
	}
	if err := requireFinite(map[string]float64{
		"intervention.target": p.Target, "intervention.kp": p.Kp, "intervention.ki": p.Ki,
		"intervention.kd": p.Kd, "intervention.on": p.On, "intervention.off": p.Off,
	}); err != nil {
		return nil, err
	}

	switch p.Policy {
	case "pid":
		pid := control.NewPID(p.Kp, p.Ki, p.Kd, p.Target)
		pid.Index = index
		if p.Max > 0 {
			pid.Max = p.Max
		}
		return control.NewLoop(sys, pid), nil
	case "threshold":
		if p.Off > p.On {
			return nil, dynamo.InvalidParameter("intervention.off", p.Off, "must not exceed intervention.on")
		}
		return control.NewLoop(sys, control.NewThreshold(index, p.On, p.Off, p.Level)), nil
	}
	return nil, dynamo.InvalidParameter("intervention.policy", p.Policy, "must be one of none, pid, threshold")
}

// SetIntervention attaches a copy of p to req. Only sir and seir accept an
// intervention.
func SetIntervention(req Request, p *config.InterventionParams) error {
	switch r := req.(type) {
	case *SIRRequest:
		r.Intervention = p.Clone()
	case *SEIRRequest:
		r.Intervention = p.Clone()
	default:
		return dynamo.InvalidParameter("intervention", p.Policy, "not supported by "+req.Model())
	}
	return nil
}

// systemFor returns the loop when there is one, so the simulator drives it.
func systemFor(sys dynamo.System, loop *control.Loop) dynamo.System {
	if loop == nil {
		return sys
	}
	return loop
}

func (ind *Indicators) setIntervention(resp *Response, loop *control.Loop) {
	if loop == nil {
		return
	}
	resp.Reduction = append([]float64(nil), loop.Reductions...)
	ind.PeakReduction = ptr(loop.Peak())
	ind.MeanReduction = ptr(loop.Mean())
}
