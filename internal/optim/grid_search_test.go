package optim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/experiment"
)

func baseRequest(t *testing.T, model string) experiment.Request {
	t.Helper()
	req, err := experiment.NewRegistry(nil).New(model)
	if err != nil {
		t.Fatal(err)
	}
	return req
}

func TestAxisValues(t *testing.T) {
	got := Axis{Param: "beta", From: 0.1, To: 0.5, Steps: 5}.Values()
	if len(got) != 5 || got[0] != 0.1 || got[4] != 0.5 {
		t.Errorf("values = %v", got)
	}
	if got := (Axis{From: 2, To: 9, Steps: 1}).Values(); len(got) != 1 || got[0] != 2 {
		t.Errorf("single step = %v", got)
	}
}

func TestSearchMaximizesPeak(t *testing.T) {
	gs := NewGridSearch([]Axis{{Param: "beta", From: 0.2, To: 0.5, Steps: 4}}, 2)

	res, err := gs.Search(context.Background(), baseRequest(t, "sir"), "peak_value", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Points) != 4 || res.Failed != 0 {
		t.Fatalf("points = %d, failed = %d", len(res.Points), res.Failed)
	}
	if res.Best == nil || res.Best.Params["beta"] != 0.5 {
		t.Errorf("best = %+v", res.Best)
	}
	for k := 1; k < len(res.Points); k++ {
		if *res.Points[k].Value <= *res.Points[k-1].Value {
			t.Errorf("peak should grow with beta: %v then %v", *res.Points[k-1].Value, *res.Points[k].Value)
		}
	}
}

func TestSearchTwoAxes(t *testing.T) {
	gs := NewGridSearch([]Axis{
		{Param: "beta", From: 0.3, To: 0.4, Steps: 2},
		{Param: "gamma", From: 0.1, To: 0.2, Steps: 3},
	}, 0)

	res, err := gs.Search(context.Background(), baseRequest(t, "sir"), "peak_time", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Points) != 6 {
		t.Fatalf("points = %d", len(res.Points))
	}
	first, last := res.Points[0].Params, res.Points[5].Params
	if first["beta"] != 0.3 || first["gamma"] != 0.1 || last["beta"] != 0.4 || last["gamma"] != 0.2 {
		t.Errorf("grid order: first %v, last %v", first, last)
	}
}

func TestSearchRecordsFailedPoints(t *testing.T) {
	gs := NewGridSearch([]Axis{{Param: "gamma", From: -0.1, To: 0.1, Steps: 2}}, 1)

	res, err := gs.Search(context.Background(), baseRequest(t, "sir"), "peak_value", true)
	if err != nil {
		t.Fatal(err)
	}
	if res.Failed != 1 || res.Points[0].Error == "" || res.Points[0].Value != nil {
		t.Errorf("first point should fail: %+v", res.Points[0])
	}
	if res.Best == nil || res.Best.Params["gamma"] != 0.1 {
		t.Errorf("best = %+v", res.Best)
	}
}

func TestSearchUnavailableIndicator(t *testing.T) {
	gs := NewGridSearch([]Axis{{Param: "r", From: 0.05, To: 0.1, Steps: 2}}, 1)

	res, err := gs.Search(context.Background(), baseRequest(t, "logistic"), "peak_time", false)
	if err != nil {
		t.Fatal(err)
	}
	if res.Failed != 2 || res.Best != nil {
		t.Errorf("failed = %d, best = %+v", res.Failed, res.Best)
	}
}

func TestSearchValidation(t *testing.T) {
	tests := []struct {
		name string
		axes []Axis
	}{
		{"no axes", nil},
		{"three axes", []Axis{{Param: "beta", Steps: 2}, {Param: "gamma", Steps: 2}, {Param: "i0", Steps: 2}}},
		{"unknown param", []Axis{{Param: "sigma", Steps: 2}}},
		{"duplicate", []Axis{{Param: "beta", Steps: 2}, {Param: "beta", Steps: 2}}},
		{"zero steps", []Axis{{Param: "beta", Steps: 0}}},
		{"too many points", []Axis{{Param: "beta", Steps: 100}, {Param: "gamma", Steps: 100}}},
		{"steps beyond the grid cap", []Axis{{Param: "beta", Steps: MaxPoints + 1}}},
		{"product wraps to zero", []Axis{{Param: "beta", Steps: math.MaxInt/2 + 1}, {Param: "gamma", Steps: math.MaxInt/2 + 1}}},
		{"product wraps below the cap", []Axis{{Param: "beta", Steps: math.MaxInt/2 + 1}, {Param: "gamma", Steps: 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGridSearch(tt.axes, 1).Search(context.Background(), baseRequest(t, "sir"), "peak_value", true)
			if !errors.Is(err, dynamo.ErrInvalidParameters) {
				t.Errorf("expected ErrInvalidParameters, got %v", err)
			}
		})
	}
}

func TestSearchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gs := NewGridSearch([]Axis{{Param: "beta", From: 0.2, To: 0.5, Steps: 4}}, 2)
	if _, err := gs.Search(ctx, baseRequest(t, "sir"), "peak_value", true); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
