package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/san-kum/popdyn/internal/chart"
	"github.com/san-kum/popdyn/internal/experiment"
	"github.com/san-kum/popdyn/internal/storage"
	"github.com/san-kum/popdyn/internal/viz"
)

var (
	exprDX, exprDY string
	rangeX, rangeY float64
	resolution     int
)

func newFieldCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "field",
		Short: "sample a planar direction field dX/dt, dY/dt",
		Args:  cobra.NoArgs,
		RunE:  runField,
	}
	cmd.Flags().StringVar(&exprDX, "dx", "", "expression for dX/dt in X and Y")
	cmd.Flags().StringVar(&exprDY, "dy", "", "expression for dY/dt in X and Y")
	cmd.Flags().Float64Var(&rangeX, "rx", 0, "half-width of the X range")
	cmd.Flags().Float64Var(&rangeY, "ry", 0, "half-width of the Y range")
	cmd.Flags().IntVar(&resolution, "n", 0, "grid points per axis")
	cmd.Flags().StringVar(&preset, "preset", "", "start from a preset")
	addOutputFlags(cmd.Flags())
	return cmd
}

func runField(cmd *cobra.Command, args []string) error {
	reg, err := registry(experiment.FieldModel, preset)
	if err != nil {
		return err
	}
	req := reg.NewField()

	flags := cmd.Flags()
	if flags.Changed("dx") {
		req.DX = exprDX
	}
	if flags.Changed("dy") {
		req.DY = exprDY
	}
	if flags.Changed("rx") {
		req.RangeX = rangeX
	}
	if flags.Changed("ry") {
		req.RangeY = rangeY
	}
	if flags.Changed("n") {
		req.Resolution = resolution
	}

	s, err := req.Evaluate()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if csvOut != "-" && jsonOut != "-" {
		spec := req.Spec()
		fmt.Fprintf(out, "dX/dt = %s\ndY/dt = %s\n\n", spec.DX, spec.DY)
		fmt.Fprintln(out, viz.Field(s, 60, 30))
		if s.NonFinite > 0 {
			fmt.Fprintln(out, viz.Warn.Render(fmt.Sprintf("%d grid points were not finite and were set to 0", s.NonFinite)))
		}
	}

	if err := writeOutput(out, csvOut, func(w io.Writer) error { return storage.WriteFieldCSV(w, s) }); err != nil {
		return err
	}
	if err := writeOutput(out, jsonOut, func(w io.Writer) error { return storage.WriteJSON(w, s) }); err != nil {
		return err
	}
	return writeChart(out, chartOut, func(w io.Writer, f chart.Format) error { return chart.Field(w, s, f) })
}
