package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/popdyn/internal/optim"
	"github.com/san-kum/popdyn/internal/storage"
	"github.com/san-kum/popdyn/internal/viz"
)

var (
	axis1, axis2 optim.Axis
	metric       string
	maximize     bool
	workers      int
	sweepTimeout time.Duration
)

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "grid search an indicator over one or two parameters",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	f := cmd.Flags()
	f.StringVar(&axis1.Param, "param", "", "first swept parameter")
	f.Float64Var(&axis1.From, "from", 0, "first parameter start")
	f.Float64Var(&axis1.To, "to", 0, "first parameter end")
	f.IntVar(&axis1.Steps, "steps", 10, "first parameter grid points")
	f.StringVar(&axis2.Param, "param2", "", "optional second swept parameter")
	f.Float64Var(&axis2.From, "from2", 0, "second parameter start")
	f.Float64Var(&axis2.To, "to2", 0, "second parameter end")
	f.IntVar(&axis2.Steps, "steps2", 10, "second parameter grid points")
	f.StringVar(&metric, "metric", "peak_time", "indicator to rank points by")
	f.BoolVar(&maximize, "maximize", false, "pick the largest value instead of the smallest")
	f.IntVar(&workers, "workers", 0, "concurrent solves (default GOMAXPROCS)")
	f.StringVar(&preset, "preset", "", "start from a preset")
	f.StringVar(&integrator, "integrator", "", "rk45, rk4 or euler")
	f.DurationVar(&sweepTimeout, "timeout", 2*time.Minute, "abort the sweep after this long")
	f.StringVar(&csvOut, "csv", "", "write CSV to this file (- for stdout)")
	f.StringVar(&jsonOut, "json", "", "write JSON to this file (- for stdout)")
	cmd.MarkFlagRequired("param")
	for _, name := range paramNames() {
		f.Float64(name, 0, "fixed model parameter "+name)
	}
	return cmd
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := buildRequest(cmd, args[0])
	if err != nil {
		return err
	}

	axes := []optim.Axis{axis1}
	if axis2.Param != "" {
		axes = append(axes, axis2)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), sweepTimeout)
	defer cancel()

	start := time.Now()
	res, err := optim.NewGridSearch(axes, workers).Search(ctx, base, metric, maximize)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if csvOut != "-" && jsonOut != "-" {
		fmt.Fprintf(out, "%d points in %v\n\n", len(res.Points), time.Since(start).Round(time.Millisecond))
		fmt.Fprintln(out, viz.SweepTable(res))
	}
	if err := writeOutput(out, csvOut, func(w io.Writer) error { return storage.WriteSweepCSV(w, res) }); err != nil {
		return err
	}
	return writeOutput(out, jsonOut, func(w io.Writer) error { return storage.WriteJSON(w, res) })
}
