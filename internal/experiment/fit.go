package experiment

import (
	"context"
	"slices"

	"github.com/san-kum/popdyn/internal/config"
	"github.com/san-kum/popdyn/internal/fit"
)

// FitRequest fits a·e^{-bt} + c·t + d to observations. With Ranking set,
// y holds competitiveness rankings that are first mapped to case counts.
type FitRequest struct {
	X       []float64 `yaml:"x" json:"x" validate:"required"`
	Y       []float64 `yaml:"y" json:"y" validate:"required"`
	Ranking bool      `yaml:"ranking,omitempty" json:"ranking,omitempty"`

	config.FitParams `yaml:",inline"`
}

type FitResponse struct {
	*fit.Result
	Initial []float64 `json:"initial"`
	CurveX  []float64 `json:"curve_x"`
	CurveY  []float64 `json:"curve_y"`
}

func (r *FitRequest) Solve(ctx context.Context) (*FitResponse, error) {
	if err := validateStruct(r); err != nil {
		return nil, err
	}

	y := r.Y
	if r.Ranking {
		var err error
		if y, err = fit.RankingToCases(r.Y); err != nil {
			return nil, err
		}
	}

	p0 := r.Initial
	if len(p0) == 0 {
		p0 = fit.InitialGuess(y)
	}
	res, err := fit.LeastSquares(ctx, fit.ExpLinear, r.X, y, p0,
		fit.Options{MaxIter: r.MaxIter, Tolerance: r.Tolerance})
	if err != nil {
		return nil, err
	}

	points := r.Points
	if points <= 0 {
		points = config.DefaultFitPoints
	}
	curveX, curveY := fit.Curve(fit.ExpLinear, res.Params, slices.Min(r.X), slices.Max(r.X), points)
	return &FitResponse{
		Result:  res,
		Initial: slices.Clone(p0),
		CurveX:  curveX,
		CurveY:  curveY,
	}, nil
}
