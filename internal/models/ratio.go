package models

import (
	"encoding/json"
	"strconv"
)

const (
	growingThreshold   = 1.01
	decliningThreshold = 0.99
)

// Ratio is a quotient that may be undefined, such as β/γ with γ = 0.
// Undefined ratios encode as JSON null.
type Ratio struct {
	Value   float64
	Defined bool
}

// NewRatio returns num/den, or an undefined Ratio when den is zero.
func NewRatio(num, den float64) Ratio {
	if den == 0 {
		return Ratio{}
	}
	return Ratio{Value: num / den, Defined: true}
}

// Behavior classifies the ratio as growing, declining or stationary.
// An undefined ratio means no recovery at all and reads as growing.
func (r Ratio) Behavior() string {
	switch {
	case !r.Defined || r.Value > growingThreshold:
		return "growing"
	case r.Value < decliningThreshold:
		return "declining"
	default:
		return "stationary"
	}
}

func (r Ratio) String() string {
	if !r.Defined {
		return "undefined"
	}
	return strconv.FormatFloat(r.Value, 'f', 4, 64)
}

func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

func (r *Ratio) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Ratio{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Ratio{Value: v, Defined: true}
	return nil
}
