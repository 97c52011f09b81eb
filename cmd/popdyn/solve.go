package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/san-kum/popdyn/internal/chart"
	"github.com/san-kum/popdyn/internal/experiment"
	"github.com/san-kum/popdyn/internal/storage"
	"github.com/san-kum/popdyn/internal/viz"
)

var (
	samples    int
	integrator string
	plot       bool
	csvOut     string
	jsonOut    string
	chartOut   string
	timeout    time.Duration
)

// paramNames is the union of every model's parameters; each one gets its
// own --name flag on solve.
func paramNames() []string {
	reg := experiment.NewRegistry(nil)
	seen := make(map[string]bool)
	for _, model := range reg.ListModels() {
		req, err := reg.New(model)
		if err != nil {
			continue
		}
		for name := range req.GetParams() {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newSolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve [model]",
		Short: "solve a model and print its indicators",
		Args:  cobra.ExactArgs(1),
		RunE:  runSolve,
	}
	cmd.Flags().StringVar(&preset, "preset", "", "start from a preset")
	addSolverFlags(cmd.Flags())
	addOutputFlags(cmd.Flags())
	cmd.Flags().BoolVar(&plot, "plot", false, "draw the trajectory in the terminal")
	for _, name := range paramNames() {
		cmd.Flags().Float64(name, 0, "model parameter "+name)
	}
	return cmd
}

func addSolverFlags(fs *pflag.FlagSet) {
	fs.IntVar(&samples, "samples", 0, "output samples (default from config, at least 300)")
	fs.StringVar(&integrator, "integrator", "", "rk45, rk4 or euler")
	fs.DurationVar(&timeout, "timeout", 30*time.Second, "abort the solve after this long")
}

func addOutputFlags(fs *pflag.FlagSet) {
	fs.StringVar(&csvOut, "csv", "", "write CSV to this file (- for stdout)")
	fs.StringVar(&jsonOut, "json", "", "write JSON to this file (- for stdout)")
	fs.StringVar(&chartOut, "chart", "", "render a chart to this .png or .svg file")
}

// buildRequest applies the changed parameter flags and solver options on
// top of the preset and config.
func buildRequest(cmd *cobra.Command, model string) (experiment.Request, error) {
	reg, err := registry(model, preset)
	if err != nil {
		return nil, err
	}
	req, err := reg.New(model)
	if err != nil {
		return nil, fmt.Errorf("%w (available: %s)", err, strings.Join(reg.ListModels(), ", "))
	}

	known := req.GetParams()
	params := make(map[string]float64)
	var flagErr error
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if _, isParam := known[f.Name]; !isParam {
			return
		}
		v, err := cmd.Flags().GetFloat64(f.Name)
		if err != nil {
			flagErr = err
			return
		}
		params[f.Name] = v
	})
	if flagErr != nil {
		return nil, flagErr
	}
	if err := rejectForeignParams(cmd, known); err != nil {
		return nil, err
	}
	if err := experiment.ApplyParams(req, params); err != nil {
		return nil, err
	}

	opts := req.SolverOptions()
	if integrator != "" {
		opts.Integrator = integrator
	}
	if samples > 0 {
		opts.Samples = samples
	}
	return req, nil
}

// rejectForeignParams fails on a parameter flag that belongs to another
// model, instead of silently ignoring it.
func rejectForeignParams(cmd *cobra.Command, known map[string]float64) error {
	var foreign []string
	for _, name := range paramNames() {
		if _, ok := known[name]; !ok && cmd.Flags().Changed(name) {
			foreign = append(foreign, "--"+name)
		}
	}
	if len(foreign) > 0 {
		return fmt.Errorf("%s not a parameter of this model (parameters: %s)",
			strings.Join(foreign, ", "), strings.Join(sortedKeys(known), ", "))
	}
	return nil
}

func runSolve(cmd *cobra.Command, args []string) error {
	req, err := buildRequest(cmd, args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	start := time.Now()
	resp, err := req.Solve(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	out := cmd.OutOrStdout()
	quiet := csvOut == "-" || jsonOut == "-"
	if !quiet {
		fmt.Fprintf(out, "%s solved in %v (%d steps, %d rejected)\n\n",
			resp.Model, elapsed.Round(time.Microsecond), resp.Trajectory.StepsTaken, resp.Trajectory.Rejected)
		if plot {
			fmt.Fprintln(out, viz.Trajectory(resp, 80, 20))
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, viz.Summary(resp))
	}

	if err := writeOutput(out, csvOut, func(w io.Writer) error {
		return storage.WriteTrajectoryCSV(w, resp.Trajectory)
	}); err != nil {
		return err
	}
	if err := writeOutput(out, jsonOut, func(w io.Writer) error {
		return storage.WriteJSON(w, resp)
	}); err != nil {
		return err
	}
	return writeChart(out, chartOut, func(w io.Writer, f chart.Format) error {
		return chart.Trajectory(w, resp, f)
	})
}

// writeOutput runs write against path, or against stdout for "-". An
// empty path writes nothing.
func writeOutput(stdout io.Writer, path string, write func(io.Writer) error) error {
	switch path {
	case "":
		return nil
	case "-":
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, viz.Subtle.Render("wrote "+path))
	return nil
}

func writeChart(stdout io.Writer, path string, render func(io.Writer, chart.Format) error) error {
	if path == "" {
		return nil
	}
	format, err := chart.FormatFromPath(path)
	if err != nil {
		return err
	}
	return writeOutput(stdout, path, func(w io.Writer) error {
		return render(w, format)
	})
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
