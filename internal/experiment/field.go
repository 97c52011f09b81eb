package experiment

import (
	"strings"

	"github.com/san-kum/popdyn/internal/config"
	"github.com/san-kum/popdyn/internal/field"
)

// Expressions substituted for empty field inputs.
const (
	DefaultExprDX = "Y"
	DefaultExprDY = "-X"
)

// FieldRequest evaluates a planar direction field.
type FieldRequest struct {
	config.FieldParams `yaml:",inline"`

	evaluator *field.Evaluator
}

func (r *FieldRequest) Spec() field.Spec {
	spec := field.Spec{
		DX:         strings.TrimSpace(r.DX),
		DY:         strings.TrimSpace(r.DY),
		RangeX:     r.RangeX,
		RangeY:     r.RangeY,
		Resolution: r.Resolution,
	}
	if spec.DX == "" {
		spec.DX = DefaultExprDX
	}
	if spec.DY == "" {
		spec.DY = DefaultExprDY
	}
	return spec
}

func (r *FieldRequest) Evaluate() (*field.Sample, error) {
	return r.evaluator.Evaluate(r.Spec())
}
