package fit

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/popdyn/internal/dynamo"
)

func synthetic(p []float64, n int) ([]float64, []float64) {
	x := make([]float64, n)
	y := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
		y[i] = ExpLinear(x[i], p)
	}
	return x, y
}

func TestLeastSquaresRecoversParameters(t *testing.T) {
	truth := []float64{5000, 0.3, -20, 1000}
	x, y := synthetic(truth, 20)

	res, err := LeastSquares(context.Background(), ExpLinear, x, y, InitialGuess(y), Options{})
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	for j, want := range truth {
		if got := res.Params[j]; math.Abs(got-want) > 1e-4*math.Abs(want) {
			t.Errorf("param %d: got %.8f, want %.8f", j, got, want)
		}
	}
	if res.RSquared < 0.999999 {
		t.Errorf("expected R² close to 1, got %f", res.RSquared)
	}
	if len(res.Predicted) != len(x) {
		t.Errorf("expected %d predictions, got %d", len(x), len(res.Predicted))
	}
}

func TestLeastSquaresConstantData(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4, 5, 6, 7}
	y := []float64{5, 5, 5, 5, 5, 5, 5, 5}

	res, err := LeastSquares(context.Background(), ExpLinear, x, y, InitialGuess(y), Options{})
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if res.RSquared != 0 {
		t.Errorf("no variance in y: expected R² = 0, got %f", res.RSquared)
	}
	for i, v := range res.Predicted {
		if math.Abs(v-5) > 1e-6 {
			t.Errorf("prediction %d: got %f, want 5", i, v)
		}
	}
}

func TestLeastSquaresValidation(t *testing.T) {
	tests := []struct {
		name string
		x, y []float64
		p0   []float64
	}{
		{"length mismatch", []float64{0, 1, 2, 3}, []float64{1, 2, 3}, []float64{1, 0.1, 0.1, 0}},
		{"too few points", []float64{0, 1, 2}, []float64{1, 2, 3}, []float64{1, 0.1, 0.1, 0}},
		{"NaN observation", []float64{0, 1, 2, 3}, []float64{1, math.NaN(), 3, 4}, []float64{1, 0.1, 0.1, 0}},
		{"infinite guess", []float64{0, 1, 2, 3}, []float64{1, 2, 3, 4}, []float64{math.Inf(1), 0.1, 0.1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LeastSquares(context.Background(), ExpLinear, tt.x, tt.y, tt.p0, Options{})
			if !errors.Is(err, dynamo.ErrInvalidParameters) {
				t.Errorf("expected ErrInvalidParameters, got %v", err)
			}
		})
	}
}

func TestLeastSquaresOverflowingGuess(t *testing.T) {
	x := []float64{-1000, 0, 1, 2}
	y := []float64{1, 2, 3, 4}

	_, err := LeastSquares(context.Background(), ExpLinear, x, y, []float64{1, 1, 0, 0}, Options{})
	if !errors.Is(err, dynamo.ErrFitFailure) {
		t.Errorf("expected ErrFitFailure, got %v", err)
	}
}

func TestInitialGuess(t *testing.T) {
	p := InitialGuess([]float64{40, 10, 25})
	expected := []float64{30, 0.1, 0.1, 10}
	for j := range expected {
		if p[j] != expected[j] {
			t.Errorf("param %d: got %f, want %f", j, p[j], expected[j])
		}
	}
}

func TestRSquared(t *testing.T) {
	y := []float64{1, 2, 3, 4}
	if r := RSquared(y, y); r != 1 {
		t.Errorf("perfect prediction: got %f", r)
	}
	if r := RSquared(y, []float64{2.5, 2.5, 2.5, 2.5}); r != 0 {
		t.Errorf("mean prediction: got %f", r)
	}
	if r := RSquared([]float64{3, 3}, []float64{1, 1}); r != 0 {
		t.Errorf("zero variance: got %f", r)
	}
}

func TestCurve(t *testing.T) {
	xs, ys := Curve(ExpLinear, []float64{0, 0, 2, 1}, 0, 10, DefaultPoints)
	if len(xs) != 300 || len(ys) != 300 {
		t.Fatalf("expected 300 points, got %d", len(xs))
	}
	if xs[0] != 0 || xs[299] != 10 {
		t.Errorf("curve should span [0, 10], got [%f, %f]", xs[0], xs[299])
	}
	if ys[299] != 21 {
		t.Errorf("2t + 1 at t=10: got %f", ys[299])
	}
}

func TestRankingToCases(t *testing.T) {
	cases, err := RankingToCases([]float64{0, 10, 90})
	if err != nil {
		t.Fatalf("RankingToCases: %v", err)
	}
	expected := []float64{800000, 400000, 80000}
	for i := range expected {
		if cases[i] != expected[i] {
			t.Errorf("rank %d: got %f, want %f", i, cases[i], expected[i])
		}
	}

	if _, err := RankingToCases([]float64{-10}); !errors.Is(err, dynamo.ErrInvalidParameters) {
		t.Errorf("rank -10: expected ErrInvalidParameters, got %v", err)
	}
}
