package viz

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/popdyn/internal/analysis"
	"github.com/san-kum/popdyn/internal/experiment"
	"github.com/san-kum/popdyn/internal/field"
	"github.com/san-kum/popdyn/internal/optim"
)

// Trajectory plots every compartment of resp in one chart with a legend.
func Trajectory(resp *experiment.Response, width, height int) string {
	if len(resp.Labels) == 0 || len(resp.Times) == 0 {
		return Subtle.Render("(no data)")
	}

	data := make([][]float64, 0, len(resp.Labels))
	colors := make([]asciigraph.AnsiColor, 0, len(resp.Labels))
	for _, label := range resp.Labels {
		data = append(data, resp.Compartments[label])
		colors = append(colors, CurrentTheme.Series[label])
	}

	caption := fmt.Sprintf("%s, t = 0..%g", strings.ToUpper(resp.Model), resp.Times[len(resp.Times)-1])
	graph := asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(1),
		asciigraph.SeriesColors(colors...),
		asciigraph.Caption(caption),
	)
	return graph + "\n" + legend(resp.Labels)
}

func legend(labels []string) string {
	parts := make([]string, len(labels))
	for i, label := range labels {
		style := lipgloss.NewStyle()
		if c := CurrentTheme.Series[label]; c != asciigraph.Default {
			style = style.Foreground(lipgloss.Color(strconv.Itoa(int(c))))
		}
		parts[i] = style.Render("━━ " + label)
	}
	return "  " + strings.Join(parts, "   ")
}

// Summary lists the indicators that apply to resp.
func Summary(resp *experiment.Response) string {
	ind := resp.Indicators
	var rows [][2]string

	if ind.Population != nil {
		rows = append(rows, [2]string{"population", formatValue(*ind.Population)})
	}
	if ind.PeakTime != nil {
		rows = append(rows, [2]string{"peak " + ind.PeakCompartment,
			fmt.Sprintf("%s at t=%.2f (sample %d)", formatValue(*ind.PeakValue), *ind.PeakTime, *ind.PeakIndex)})
	}
	if r := ind.ReproductionRatio; r != nil {
		name := "R₀"
		if resp.Model == "rumor" {
			name = "b/k"
		}
		value := r.String()
		if ind.Behavior != "" {
			value += " (" + behaviorStyle(ind.Behavior).Render(ind.Behavior) + ")"
		}
		rows = append(rows, [2]string{name, value})
	}
	if ind.AttackRate != nil {
		rows = append(rows, [2]string{"attack rate", fmt.Sprintf("%.1f%%", *ind.AttackRate*100)})
	}
	if ind.Minimum != nil {
		rows = append(rows, [2]string{"minimum", formatValue(*ind.Minimum)})
	}
	if ind.MaxSustainableYield != nil {
		rows = append(rows, [2]string{"max sustainable h", formatValue(*ind.MaxSustainableYield)})
	}
	if ind.PeakReduction != nil {
		rows = append(rows, [2]string{"contact reduction",
			fmt.Sprintf("peak %.0f%%, mean %.1f%%", *ind.PeakReduction*100, *ind.MeanReduction*100)})
	}
	if ind.ExtinctionTime != nil {
		rows = append(rows, [2]string{"extinct at", ErrorText.Render(fmt.Sprintf("t=%.2f", *ind.ExtinctionTime))})
	}

	finals := make([]string, 0, len(resp.Labels))
	for _, label := range resp.Labels {
		finals = append(finals, label+"="+formatValue(ind.Final[label]))
	}
	rows = append(rows, [2]string{"final", strings.Join(finals, "  ")})

	if ind.ConservationDrift != nil {
		rows = append(rows, [2]string{"drift", fmt.Sprintf("%.2e", *ind.ConservationDrift)})
	}

	return Title.Render(strings.ToUpper(resp.Model)) + "\n" + table(rows)
}

func behaviorStyle(behavior string) lipgloss.Style {
	switch behavior {
	case "growing":
		return ErrorText
	case "declining":
		return Good
	default:
		return Warn
	}
}

// Field draws the scaled arrows of s on a Braille canvas of w x h
// characters.
func Field(s *field.Sample, w, h int) string {
	n := len(s.X)
	if n == 0 {
		return Subtle.Render("(no data)")
	}
	rx := math.Abs(s.X[0][0]) + s.Scale
	ry := math.Abs(s.Y[0][0]) + s.Scale

	c := NewCanvas(w, h, rx, ry)
	for i := range s.X {
		for j := range s.X[i] {
			x, y := s.X[i][j], s.Y[i][j]
			c.Point(x, y)
			if s.UnitDX[i][j] != 0 || s.UnitDY[i][j] != 0 {
				c.Line(x, y, x+s.ArrowDX[i][j], y+s.ArrowDY[i][j])
			}
		}
	}

	caption := fmt.Sprintf("%dx%d grid over [%g, %g] x [%g, %g]", n, n, s.X[0][0], s.X[0][n-1], s.Y[0][0], s.Y[n-1][0])
	if s.NonFinite > 0 {
		caption += Warn.Render(fmt.Sprintf("  %d non-finite points set to 0", s.NonFinite))
	}
	return c.String() + Subtle.Render(caption)
}

// Phase draws the portrait p as a connected path on a w x h canvas
// fitted to its bounds.
func Phase(p *analysis.PhasePortrait, w, h int) string {
	if len(p.Points) == 0 {
		return Subtle.Render("(no data)")
	}
	minX, maxX, minY, maxY := p.Bounds()
	c := NewCanvasBounds(w, h, minX, maxX, minY, maxY)
	prev := p.Points[0]
	c.Point(prev.X, prev.Y)
	for _, pt := range p.Points[1:] {
		c.Line(prev.X, prev.Y, pt.X, pt.Y)
		prev = pt
	}

	caption := fmt.Sprintf("%s against %s, %s in [%s, %s], %s in [%s, %s]",
		p.YLabel, p.XLabel,
		p.XLabel, formatValue(minX), formatValue(maxX),
		p.YLabel, formatValue(minY), formatValue(maxY))
	return c.String() + Subtle.Render(caption)
}

// FitSummary reports the fitted parameters and goodness of fit.
func FitSummary(res *experiment.FitResponse) string {
	names := []string{"a", "b", "c", "d"}
	params := make([]string, len(res.Params))
	for i, p := range res.Params {
		name := fmt.Sprintf("p%d", i)
		if i < len(names) {
			name = names[i]
		}
		params[i] = fmt.Sprintf("%s=%.6g", name, p)
	}

	rows := [][2]string{
		{"model", "a·exp(-b·t) + c·t + d"},
		{"params", strings.Join(params, "  ")},
		{"R²", fmt.Sprintf("%.6f", res.RSquared)},
		{"ss_res", fmt.Sprintf("%.6g", res.SSRes)},
		{"iterations", strconv.Itoa(res.Iterations)},
	}
	return Title.Render("FIT") + "\n" + table(rows)
}

// SweepTable lists every grid point and highlights the best one.
func SweepTable(res *optim.Result) string {
	var b strings.Builder
	b.WriteString(Title.Render(fmt.Sprintf("SWEEP %s  %s", strings.ToUpper(res.Model), res.Metric)))
	b.WriteByte('\n')

	for _, p := range res.Points {
		cells := make([]string, 0, len(res.Axes)+1)
		for _, a := range res.Axes {
			cells = append(cells, fmt.Sprintf("%s=%-10.4g", a.Param, p.Params[a.Param]))
		}
		line := "  " + strings.Join(cells, "  ")
		switch {
		case p.Value == nil:
			line += "  " + ErrorText.Render(p.Error)
		case res.Best != nil && sameParams(p.Params, res.Best.Params):
			line = Selected.Render(line+"  "+formatValue(*p.Value)) + Good.Render("  best")
		default:
			line += "  " + MetricValue.Render(formatValue(*p.Value))
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if res.Failed > 0 {
		b.WriteString(Warn.Render(fmt.Sprintf("  %d of %d points failed", res.Failed, len(res.Points))))
		b.WriteByte('\n')
	}
	return b.String()
}

func sameParams(a, b map[string]float64) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

func table(rows [][2]string) string {
	width := 0
	for _, r := range rows {
		width = max(width, lipgloss.Width(r[0]))
	}
	var b strings.Builder
	for _, r := range rows {
		pad := strings.Repeat(" ", width-lipgloss.Width(r[0]))
		b.WriteString("  " + MetricLabel.Render(r[0]) + pad + "  " + MetricValue.Render(r[1]) + "\n")
	}
	return b.String()
}

func formatValue(v float64) string {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return strconv.FormatFloat(v, 'f', -1, 64)
	case v != 0 && (math.Abs(v) >= 1e6 || math.Abs(v) < 1e-3):
		return strconv.FormatFloat(v, 'e', 3, 64)
	default:
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
}
