package sim

import (
	"strconv"

	"github.com/san-kum/popdyn/internal/dynamo"
)

// Trajectory is a solved model sampled on a uniform time grid. It is not
// modified after Run returns.
type Trajectory struct {
	Labels     []string
	Times      []float64
	States     []dynamo.State
	Metrics    map[string]float64
	StepsTaken int
	Rejected   int
}

func (tr *Trajectory) Len() int { return len(tr.Times) }

func (tr *Trajectory) Final() dynamo.State {
	if len(tr.States) == 0 {
		return nil
	}
	return tr.States[len(tr.States)-1]
}

// Column returns compartment i at every sample.
func (tr *Trajectory) Column(i int) []float64 {
	col := make([]float64, len(tr.States))
	for k, x := range tr.States {
		col[k] = x[i]
	}
	return col
}

// Series returns the compartment with the given label.
func (tr *Trajectory) Series(label string) ([]float64, bool) {
	for i, l := range tr.Labels {
		if l == label {
			return tr.Column(i), true
		}
	}
	return nil, false
}

// Grid returns n evenly spaced times covering [0, duration], both ends
// included.
func Grid(duration float64, n int) []float64 {
	times := make([]float64, n)
	if n == 1 {
		return times
	}
	for k := range times {
		times[k] = duration * float64(k) / float64(n-1)
	}
	times[n-1] = duration
	return times
}

func labelsOf(v any, dim int) []string {
	if l, ok := v.(dynamo.Labeled); ok {
		return l.Labels()
	}
	labels := make([]string, dim)
	for i := range labels {
		labels[i] = "x" + strconv.Itoa(i)
	}
	return labels
}
