package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/field"
	"github.com/san-kum/popdyn/internal/optim"
	"github.com/san-kum/popdyn/internal/sim"
)

func sampleTrajectory() *sim.Trajectory {
	return &sim.Trajectory{
		Labels: []string{"S", "I", "R"},
		Times:  []float64{0, 0.5},
		States: []dynamo.State{
			{999, 1, 0},
			{998.5, 1.2, 0.3},
		},
		Metrics: map[string]float64{"peak_I": 1.2},
	}
}

func TestWriteTrajectoryCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTrajectoryCSV(&buf, sampleTrajectory()); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	if strings.Join(records[0], ",") != "time,S,I,R" {
		t.Errorf("header = %v", records[0])
	}
	if records[2][0] != "0.500000" || records[2][2] != "1.200000" {
		t.Errorf("row = %v", records[2])
	}
}

func TestWriteFieldCSV(t *testing.T) {
	s, err := field.NewEvaluator(0).Evaluate(field.Spec{DX: "Y", DY: "-X", RangeX: 1, RangeY: 1, Resolution: 3})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteFieldCSV(&buf, s); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	records, _ := csv.NewReader(&buf).ReadAll()
	if len(records) != 1+9 {
		t.Errorf("expected 10 records, got %d", len(records))
	}
}

func TestWriteFitCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFitCSV(&buf, []float64{0, 1}, []float64{2, 3}, []float64{2.1, 2.9}); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "x,y,predicted\n0.000000,2.000000,2.100000\n") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}

	if err := WriteFitCSV(&buf, []float64{0}, []float64{1, 2}, nil); err == nil {
		t.Error("expected an error for mismatched columns")
	}
}

func TestWriteSweepCSV(t *testing.T) {
	v := 12.5
	res := &optim.Result{
		Metric: "peak_value",
		Axes:   []optim.Axis{{Param: "beta", Steps: 2}},
		Points: []optim.Point{
			{Params: map[string]float64{"beta": -1}, Error: "beta: must be >= 0"},
			{Params: map[string]float64{"beta": 0.3}, Value: &v},
		},
	}

	var buf bytes.Buffer
	if err := WriteSweepCSV(&buf, res); err != nil {
		t.Fatal(err)
	}
	records, _ := csv.NewReader(&buf).ReadAll()
	if strings.Join(records[0], ",") != "beta,peak_value,error" {
		t.Errorf("header = %v", records[0])
	}
	if records[1][1] != "" || records[1][2] == "" {
		t.Errorf("failed point row = %v", records[1])
	}
	if records[2][1] != "12.500000" {
		t.Errorf("value = %q", records[2][1])
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleTrajectory()); err != nil {
		t.Fatal(err)
	}

	var back sim.Trajectory
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if back.Metrics["peak_I"] != 1.2 || len(back.States) != 2 {
		t.Errorf("round trip lost data: %+v", back)
	}
}

func TestReadXY(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLen int
		wantErr bool
	}{
		{"header", "year,cases\n2000,10\n2001,12\n", 2, false},
		{"no header", "0, 1.5\n1, 2.5\n2, 3\n", 3, false},
		{"comments and extra columns", "# source\n0,1,x\n1,2,y\n", 2, false},
		{"bad row", "x,y\n1,2\n3,abc\n", 0, true},
		{"one column", "1\n2\n", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, err := ReadXY(strings.NewReader(tt.input))
			if tt.wantErr {
				if !errors.Is(err, dynamo.ErrInvalidParameters) {
					t.Fatalf("expected ErrInvalidParameters, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(x) != tt.wantLen || len(y) != tt.wantLen {
				t.Errorf("got %d/%d values, want %d", len(x), len(y), tt.wantLen)
			}
		})
	}
}
