package main

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParamNamesCoverAllModels(t *testing.T) {
	names := strings.Join(paramNames(), " ")
	for _, want := range []string{"beta", "gamma", "sigma", "population", "s0", "e0", "b", "k", "h", "p0", "r", "t_max"} {
		if !strings.Contains(" "+names+" ", " "+want+" ") {
			t.Errorf("missing parameter flag %q in %s", want, names)
		}
	}
}

func TestSolveJSONToStdout(t *testing.T) {
	cmd := newSolveCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"sir", "--beta", "0.5", "--samples", "300", "--json", "-"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}

	var resp struct {
		Model      string    `json:"model"`
		Times      []float64 `json:"times"`
		Indicators struct {
			ReproductionRatio float64 `json:"reproduction_ratio"`
		} `json:"indicators"`
	}
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, out.String())
	}
	if resp.Model != "sir" || len(resp.Times) != 300 {
		t.Errorf("model = %q, samples = %d", resp.Model, len(resp.Times))
	}
	if resp.Indicators.ReproductionRatio != 5 {
		t.Errorf("ratio = %v, want 5", resp.Indicators.ReproductionRatio)
	}
}

func TestSolvePresetAndCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collapse.csv")
	cmd := newSolveCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"harvest", "--preset", "collapse", "--csv", path})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "time,P\n") {
		t.Errorf("csv header = %q", strings.SplitN(string(data), "\n", 2)[0])
	}
	if !strings.Contains(out.String(), "harvest solved") {
		t.Errorf("missing summary:\n%s", out.String())
	}
}

func TestSolveRejectsForeignParameter(t *testing.T) {
	cmd := newSolveCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"logistic", "--beta", "1"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "--beta") {
		t.Fatalf("expected a --beta error, got %v", err)
	}
}

func TestSolveUnknownPreset(t *testing.T) {
	cmd := newSolveCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"sir", "--preset", "nope"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "classic") {
		t.Fatalf("expected the available presets in the error, got %v", err)
	}
}

func TestFieldCSV(t *testing.T) {
	cmd := newFieldCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--dx", "X", "--dy", "Y", "--n", "4", "--csv", "-"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if lines[0] != "x,y,unit_dx,unit_dy,magnitude" || len(lines) != 17 {
		t.Errorf("got %d lines, header %q", len(lines), lines[0])
	}
}

func TestFitFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	data := "t,cases\n0,60\n1,45.76122639\n2,37.71517765\n3,33.42520641\n4,31.41341133\n5,30.78339994\n6,30.99148273\n7,31.70789534\n8,32.73262556\n9,33.94435986\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := newFitCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{path, "--json", "-"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	var res struct {
		Params []float64 `json:"params"`
	}
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("stdout is not JSON: %v", err)
	}
	if len(res.Params) != 4 {
		t.Errorf("params = %v", res.Params)
	}
}

func TestSweepTable(t *testing.T) {
	cmd := newSweepCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"sir", "--param", "beta", "--from", "0.2", "--to", "0.4", "--steps", "3", "--csv", "-"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if lines[0] != "beta,peak_time,error" || len(lines) != 4 {
		t.Errorf("got %q", out.String())
	}
}

func TestAnalyzeHarvestJSON(t *testing.T) {
	cmd := newAnalyzeCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"harvest", "--preset", "sustainable", "--quota-steps", "4", "--json", "-"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}

	var report harvestReport
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, out.String())
	}
	if math.Abs(report.MaxSustainableYield-25) > 1e-9 {
		t.Errorf("msy = %v", report.MaxSustainableYield)
	}
	if len(report.Equilibria) != 3 || !report.Equilibria[2].Stable || report.Equilibria[2].Value < 887 || report.Equilibria[2].Value > 888 {
		t.Errorf("equilibria = %+v", report.Equilibria)
	}
	if len(report.Diagram) != 5 {
		t.Fatalf("diagram has %d quotas", len(report.Diagram))
	}
	if last := report.Diagram[4]; last.Param < 29.99 || last.Param > 30.01 || len(last.Equilibria) != 1 {
		t.Errorf("above the yield limit: %+v", last)
	}
}

func TestAnalyzeSIRWithPhase(t *testing.T) {
	cmd := newAnalyzeCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"sir", "--preset", "classic", "--t_max", "300", "--phase", "S,I"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"herd immunity threshold  0.6667", "final S/N, predicted", "I against S"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("missing %q in:\n%s", want, out.String())
		}
	}
}

func TestAnalyzeRejectsModelWithoutAnalysis(t *testing.T) {
	cmd := newAnalyzeCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"logistic"})
	if err := cmd.Execute(); err == nil {
		t.Error("expected an error for logistic without --phase")
	}
}
