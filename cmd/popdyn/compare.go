package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [model] [integrator...]",
		Short: "compare integrators on the same model",
		Long:  "Solves the model once per integrator (rk45, rk4 and euler when none are named) and tabulates the indicators.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareIntegrators,
	}
	cmd.Flags().StringVar(&preset, "preset", "", "start from a preset")
	cmd.Flags().IntVar(&samples, "samples", 0, "output samples")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "abort each solve after this long")
	for _, name := range paramNames() {
		cmd.Flags().Float64(name, 0, "model parameter "+name)
	}
	return cmd
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	model := args[0]
	names := args[1:]
	if len(names) == 0 {
		names = []string{"rk45", "rk4", "euler"}
	}

	base, err := buildRequest(cmd, model)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "comparing integrators for %s\n\n", model)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "integrator\tpeak_time\tpeak_value\tdrift\tsteps\trejected\ttime_ms\t")
	fmt.Fprintln(tw, strings.Repeat("-", 10)+"\t\t\t\t\t\t\t")

	for _, name := range names {
		req := base.Clone()
		req.SolverOptions().Integrator = name

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		start := time.Now()
		resp, err := req.Solve(ctx)
		elapsed := time.Since(start)
		cancel()
		if err != nil {
			fmt.Fprintf(tw, "%s\terror: %v\t\t\t\t\t\t\n", name, err)
			continue
		}

		cell := func(indicator string) string {
			if v, ok := resp.Indicator(indicator); ok {
				return fmt.Sprintf("%.6g", v)
			}
			return "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%.2f\t\n", name,
			cell("peak_time"), cell("peak_value"), cell("conservation_drift"),
			resp.Trajectory.StepsTaken, resp.Trajectory.Rejected,
			float64(elapsed.Microseconds())/1000)
	}
	return tw.Flush()
}
