package control

import "github.com/san-kum/popdyn/internal/dynamo"

// Policy maps a sampled state to a contact reduction in [0, 1]. Policies
// keep state between samples and are reset before each run.
type Policy interface {
	Reduction(x dynamo.State, t float64) float64
	Reset()
}

type None struct{}

func (None) Reduction(dynamo.State, float64) float64 { return 0 }
func (None) Reset()                                  {}
