package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/popdyn/internal/automation"
	"github.com/san-kum/popdyn/internal/storage"
	"github.com/san-kum/popdyn/internal/viz"
)

var (
	outDir  string
	perturb map[string]string
	trials  int
	seed    int64
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run a scripted scenario of solves",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	cmd.Flags().StringVar(&outDir, "out", "", "directory for save_as outputs")
	return cmd
}

func runBatch(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	reg, err := registry("", "")
	if err != nil {
		return err
	}
	runner := automation.NewRunner(reg, logger)
	runner.OutDir = outDir

	out := cmd.OutOrStdout()
	if sc.Name != "" {
		fmt.Fprintln(out, viz.Title.Render(sc.Name))
	}
	if sc.Description != "" {
		fmt.Fprintln(out, viz.Subtle.Render(sc.Description))
	}

	results, err := runner.RunScenario(cmd.Context(), sc)
	for i, res := range results {
		line := fmt.Sprintf("%d/%d %-20s %-12s", i+1, len(sc.Steps), res.Name, res.Model)
		if r := res.Response; r != nil {
			if v, ok := r.Indicator("peak_time"); ok {
				line += fmt.Sprintf(" peak_time=%.4g", v)
			}
			if v, ok := r.Indicator("extinction_time"); ok {
				line += fmt.Sprintf(" extinction_time=%.4g", v)
			}
		}
		if res.SavedTo != "" {
			line += " -> " + res.SavedTo
		}
		fmt.Fprintln(out, line)
	}
	return err
}

func newMonteCarloCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "montecarlo [model]",
		Short: "spread of an indicator under random parameter perturbations",
		Args:  cobra.ExactArgs(1),
		RunE:  runMonteCarlo,
	}
	cmd.Flags().StringToStringVar(&perturb, "perturb", nil, "relative half-widths, e.g. beta=0.1,gamma=0.05")
	cmd.Flags().StringVar(&metric, "metric", "peak_time", "indicator to collect")
	cmd.Flags().IntVar(&trials, "trials", 100, "number of trials")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed (0 seeds from the clock)")
	cmd.Flags().StringVar(&preset, "preset", "", "start from a preset")
	cmd.Flags().StringVar(&jsonOut, "json", "", "write JSON to this file (- for stdout)")
	return cmd
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	fractions := make(map[string]float64, len(perturb))
	for name, raw := range perturb {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("--perturb %s: %q is not a number", name, raw)
		}
		fractions[name] = v
	}

	reg, err := registry(args[0], preset)
	if err != nil {
		return err
	}
	runner := automation.NewRunner(reg, logger)
	res, err := runner.RunMonteCarlo(cmd.Context(), &automation.MonteCarloConfig{
		Model:   args[0],
		Perturb: fractions,
		Metric:  metric,
		Trials:  trials,
		Seed:    seed,
	})
	if err != nil {
		return err
	}
	logger.Debug("monte carlo finished", zap.Int("trials", res.Trials), zap.Int("failed", res.Failed))

	out := cmd.OutOrStdout()
	if jsonOut != "-" {
		fmt.Fprintf(out, "%s over %d trials (%d failed)\n", res.Metric, res.Trials, res.Failed)
		fmt.Fprintf(out, "  mean %.6g  std %.6g  min %.6g  max %.6g\n", res.Mean, res.Std, res.Min, res.Max)
		fmt.Fprintln(out, "  "+viz.SparklineChart(res.Values, 60))
	}
	return writeOutput(out, jsonOut, func(w io.Writer) error { return storage.WriteJSON(w, res) })
}
