package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/popdyn/internal/analysis"
	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/experiment"
	"github.com/san-kum/popdyn/internal/models"
	"github.com/san-kum/popdyn/internal/storage"
	"github.com/san-kum/popdyn/internal/viz"
)

var (
	phase      string
	quotaSteps int
)

// epidemicReport compares the simulated outbreak with the final-size
// relation.
type epidemicReport struct {
	Model                 string  `json:"model"`
	ReproductionRatio     float64 `json:"reproduction_ratio"`
	HerdImmunityThreshold float64 `json:"herd_immunity_threshold"`
	PredictedFinalS       float64 `json:"predicted_final_s"`
	SimulatedFinalS       float64 `json:"simulated_final_s"`
}

type harvestReport struct {
	Model               string                      `json:"model"`
	MaxSustainableYield float64                     `json:"max_sustainable_yield"`
	Equilibria          []analysis.Equilibrium      `json:"equilibria"`
	Diagram             []analysis.BifurcationPoint `json:"diagram"`
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [model]",
		Short: "equilibria, final size and phase portraits",
		Long: `For sir and seir, compares the simulated final susceptible fraction with
the final-size relation and reports the herd immunity threshold. For
harvest, lists the equilibria and how they change with the quota h.
--phase X,Y draws one compartment against another for any model.`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyze,
	}
	cmd.Flags().StringVar(&preset, "preset", "", "start from a preset")
	addSolverFlags(cmd.Flags())
	cmd.Flags().StringVar(&jsonOut, "json", "", "write the report as JSON to this file (- for stdout)")
	cmd.Flags().StringVar(&phase, "phase", "", "draw a phase portrait of two compartments, e.g. S,I")
	cmd.Flags().IntVar(&quotaSteps, "quota-steps", 10, "harvest quotas between 0 and 1.2 times the maximum sustainable yield")
	for _, name := range paramNames() {
		cmd.Flags().Float64(name, 0, "model parameter "+name)
	}
	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	req, err := buildRequest(cmd, args[0])
	if err != nil {
		return err
	}

	var (
		report any
		text   string
		resp   *experiment.Response
	)
	switch req.Model() {
	case "sir", "seir":
		resp, err = solveWithTimeout(cmd.Context(), req)
		if err != nil {
			return err
		}
		r, err := analyzeEpidemic(resp)
		if err != nil {
			return err
		}
		report, text = r, epidemicText(r)
	case "harvest":
		r, err := analyzeHarvest(req.GetParams(), quotaSteps)
		if err != nil {
			return err
		}
		report, text = r, harvestText(r)
	default:
		if phase == "" {
			return fmt.Errorf("%w: no analysis for %s beyond --phase", dynamo.ErrInvalidParameters, req.Model())
		}
	}

	out := cmd.OutOrStdout()
	if jsonOut != "-" {
		fmt.Fprint(out, text)
	}
	if phase != "" {
		if resp == nil {
			if resp, err = solveWithTimeout(cmd.Context(), req); err != nil {
				return err
			}
		}
		x, y, ok := strings.Cut(phase, ",")
		if !ok {
			return dynamo.InvalidParameter("phase", phase, "must name two compartments, e.g. S,I")
		}
		p, err := analysis.PhasePlane(resp.Trajectory, strings.TrimSpace(x), strings.TrimSpace(y))
		if err != nil {
			return err
		}
		if jsonOut != "-" {
			fmt.Fprintln(out, viz.Phase(p, 60, 15))
		}
	}

	if report == nil {
		return nil
	}
	return writeOutput(out, jsonOut, func(w io.Writer) error {
		return storage.WriteJSON(w, report)
	})
}

func solveWithTimeout(parent context.Context, req experiment.Request) (*experiment.Response, error) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()
	return req.Solve(ctx)
}

func analyzeEpidemic(resp *experiment.Response) (*epidemicReport, error) {
	ind := resp.Indicators
	if ind.ReproductionRatio == nil || !ind.ReproductionRatio.Defined {
		return nil, dynamo.InvalidParameter("gamma", 0, "final size needs a defined reproduction ratio")
	}
	n := *ind.Population
	s0 := resp.Compartments["S"][0] / n
	r0 := resp.Compartments["R"][0] / n
	predicted, err := analysis.FinalSize(ind.ReproductionRatio.Value, s0, r0)
	if err != nil {
		return nil, err
	}
	return &epidemicReport{
		Model:                 resp.Model,
		ReproductionRatio:     ind.ReproductionRatio.Value,
		HerdImmunityThreshold: analysis.HerdImmunityThreshold(ind.ReproductionRatio.Value),
		PredictedFinalS:       predicted,
		SimulatedFinalS:       ind.Final["S"] / n,
	}, nil
}

func analyzeHarvest(params map[string]float64, steps int) (*harvestReport, error) {
	if steps < 1 {
		return nil, dynamo.InvalidParameter("quota-steps", steps, "must be >= 1")
	}
	r, k, h := params["r"], params["k"], params["h"]
	sys := models.NewHarvest(r, k, h)
	hi := 1.05 * k
	const scan = 2000

	eq, err := analysis.Equilibria(sys, 0, hi, scan)
	if err != nil {
		return nil, err
	}

	msy := sys.MaxSustainableYield()
	quotas := make([]float64, steps+1)
	for i := range quotas {
		quotas[i] = 1.2 * msy * float64(i) / float64(steps)
	}
	diagram, err := analysis.BifurcationDiagram(func(q float64) dynamo.System {
		return models.NewHarvest(r, k, q)
	}, quotas, 0, hi, scan)
	if err != nil {
		return nil, err
	}
	return &harvestReport{Model: "harvest", MaxSustainableYield: msy, Equilibria: eq, Diagram: diagram}, nil
}

func epidemicText(r *epidemicReport) string {
	var b strings.Builder
	b.WriteString(viz.Title.Render(strings.ToUpper(r.Model)+" FINAL SIZE") + "\n")
	fmt.Fprintf(&b, "  R0                       %.4f\n", r.ReproductionRatio)
	fmt.Fprintf(&b, "  herd immunity threshold  %.4f\n", r.HerdImmunityThreshold)
	fmt.Fprintf(&b, "  final S/N, predicted     %.6f\n", r.PredictedFinalS)
	fmt.Fprintf(&b, "  final S/N, simulated     %.6f\n\n", r.SimulatedFinalS)
	return b.String()
}

func harvestText(r *harvestReport) string {
	var b strings.Builder
	b.WriteString(viz.Title.Render("HARVEST EQUILIBRIA") + "\n")
	fmt.Fprintf(&b, "  max sustainable yield  %.4g\n", r.MaxSustainableYield)
	fmt.Fprintf(&b, "  at current quota       %s\n\n", equilibriaText(r.Equilibria))
	for _, p := range r.Diagram {
		fmt.Fprintf(&b, "  h=%-10.4g %s\n", p.Param, equilibriaText(p.Equilibria))
	}
	b.WriteByte('\n')
	return b.String()
}

func equilibriaText(eq []analysis.Equilibrium) string {
	parts := make([]string, len(eq))
	for i, e := range eq {
		kind := "unstable"
		if e.Stable {
			kind = "stable"
		}
		parts[i] = fmt.Sprintf("%.4g (%s)", e.Value, kind)
	}
	return strings.Join(parts, ", ")
}
