package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/popdyn/internal/chart"
	"github.com/san-kum/popdyn/internal/fit"
	"github.com/san-kum/popdyn/internal/storage"
	"github.com/san-kum/popdyn/internal/viz"
)

var (
	ranking  bool
	initial  []float64
	maxIter  int
	fitTol   float64
	fitCurve int
)

func newFitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fit [data.csv]",
		Short: "fit a·exp(-b·t) + c·t + d to two-column CSV data",
		Args:  cobra.ExactArgs(1),
		RunE:  runFit,
	}
	cmd.Flags().BoolVar(&ranking, "ranking", false, "y holds rankings; map them to cases before fitting")
	cmd.Flags().Float64SliceVar(&initial, "initial", nil, "initial guess a,b,c,d")
	cmd.Flags().IntVar(&maxIter, "max-iter", 0, "iteration limit")
	cmd.Flags().Float64Var(&fitTol, "tol", 0, "convergence tolerance")
	cmd.Flags().IntVar(&fitCurve, "points", 0, "points on the fitted curve")
	addOutputFlags(cmd.Flags())
	return cmd
}

func runFit(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	x, y, err := storage.ReadXY(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	reg, err := registry("", "")
	if err != nil {
		return err
	}
	req := reg.NewFit()
	req.X, req.Y, req.Ranking = x, y, ranking
	if len(initial) > 0 {
		req.Initial = initial
	}
	if maxIter > 0 {
		req.MaxIter = maxIter
	}
	if fitTol > 0 {
		req.Tolerance = fitTol
	}
	if fitCurve > 0 {
		req.Points = fitCurve
	}

	res, err := req.Solve(cmd.Context())
	if err != nil {
		return err
	}

	observed := y
	if ranking {
		if observed, err = fit.RankingToCases(y); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if csvOut != "-" && jsonOut != "-" {
		fmt.Fprintf(out, "%d points from %s\n\n", len(x), args[0])
		fmt.Fprintln(out, viz.FitSummary(res))
	}

	if err := writeOutput(out, csvOut, func(w io.Writer) error {
		return storage.WriteFitCSV(w, x, observed, res.Predicted)
	}); err != nil {
		return err
	}
	if err := writeOutput(out, jsonOut, func(w io.Writer) error { return storage.WriteJSON(w, res) }); err != nil {
		return err
	}
	return writeChart(out, chartOut, func(w io.Writer, f chart.Format) error {
		return chart.Fit(w, x, observed, res, f)
	})
}
