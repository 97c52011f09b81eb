package experiment

import (
	"math"
	"strings"

	"github.com/san-kum/popdyn/internal/metrics"
	"github.com/san-kum/popdyn/internal/models"
	"github.com/san-kum/popdyn/internal/sim"
)

// Response is a solved trajectory with its indicators.
type Response struct {
	Model        string               `json:"model"`
	Labels       []string             `json:"labels"`
	Times        []float64            `json:"times"`
	Compartments map[string][]float64 `json:"compartments"`
	Indicators   Indicators           `json:"indicators"`
	Reduction    []float64            `json:"contact_reduction,omitempty"`

	Trajectory *sim.Trajectory `json:"-"`
}

// Indicators only carries the fields that apply to the model.
type Indicators struct {
	PeakCompartment     string             `json:"peak_compartment,omitempty"`
	PeakTime            *float64           `json:"peak_time,omitempty"`
	PeakValue           *float64           `json:"peak_value,omitempty"`
	PeakIndex           *int               `json:"peak_index,omitempty"`
	Final               map[string]float64 `json:"final"`
	ReproductionRatio   *models.Ratio      `json:"reproduction_ratio,omitempty"`
	Behavior            string             `json:"behavior,omitempty"`
	AttackRate          *float64           `json:"attack_rate,omitempty"`
	Population          *float64           `json:"population,omitempty"`
	Minimum             *float64           `json:"minimum,omitempty"`
	ExtinctionTime      *float64           `json:"extinction_time,omitempty"`
	MaxSustainableYield *float64           `json:"max_sustainable_yield,omitempty"`
	ConservationDrift   *float64           `json:"conservation_drift,omitempty"`
	PeakReduction       *float64           `json:"peak_reduction,omitempty"`
	MeanReduction       *float64           `json:"mean_reduction,omitempty"`
}

func newResponse(model string, traj *sim.Trajectory) *Response {
	resp := &Response{
		Model:        model,
		Labels:       traj.Labels,
		Times:        traj.Times,
		Compartments: make(map[string][]float64, len(traj.Labels)),
		Indicators:   Indicators{Final: make(map[string]float64, len(traj.Labels))},
		Trajectory:   traj,
	}
	final := traj.Final()
	for i, label := range traj.Labels {
		resp.Compartments[label] = traj.Column(i)
		resp.Indicators.Final[label] = final[i]
	}
	return resp
}

func (ind *Indicators) setPeak(label string, p *metrics.Peak) {
	t, v, k := p.Time(), p.Value(), p.Sample()
	ind.PeakCompartment = label
	ind.PeakTime = &t
	ind.PeakValue = &v
	ind.PeakIndex = &k
}

func (ind *Indicators) setRatio(r models.Ratio, withBehavior bool) {
	ind.ReproductionRatio = &r
	if withBehavior {
		ind.Behavior = r.Behavior()
	}
}

// Indicator looks up a scalar indicator by name. Final values are named
// final_<label>. An undefined reproduction ratio reads as +Inf.
func (r *Response) Indicator(name string) (float64, bool) {
	ind := r.Indicators
	if label, ok := strings.CutPrefix(name, "final_"); ok {
		v, found := ind.Final[label]
		return v, found
	}

	switch name {
	case "peak_time":
		return deref(ind.PeakTime)
	case "peak_value":
		return deref(ind.PeakValue)
	case "reproduction_ratio":
		if ind.ReproductionRatio == nil {
			return 0, false
		}
		if !ind.ReproductionRatio.Defined {
			return math.Inf(1), true
		}
		return ind.ReproductionRatio.Value, true
	case "attack_rate":
		return deref(ind.AttackRate)
	case "population":
		return deref(ind.Population)
	case "minimum":
		return deref(ind.Minimum)
	case "extinction_time":
		return deref(ind.ExtinctionTime)
	case "conservation_drift":
		return deref(ind.ConservationDrift)
	case "peak_reduction":
		return deref(ind.PeakReduction)
	case "mean_reduction":
		return deref(ind.MeanReduction)
	}
	return 0, false
}

// IndicatorNames lists the names Indicator resolves for this response.
func (r *Response) IndicatorNames() []string {
	var names []string
	for _, name := range []string{
		"peak_time", "peak_value", "reproduction_ratio", "attack_rate",
		"population", "minimum", "extinction_time", "conservation_drift",
		"peak_reduction", "mean_reduction",
	} {
		if _, ok := r.Indicator(name); ok {
			names = append(names, name)
		}
	}
	for _, label := range r.Labels {
		names = append(names, "final_"+label)
	}
	return names
}

func deref(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

func ptr[T any](v T) *T { return &v }
