// Package chart renders solved trajectories, curve fits and direction
// fields as PNG or SVG images.
package chart

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/experiment"
	"github.com/san-kum/popdyn/internal/field"
)

type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"

	width  = 960
	height = 540
)

var (
	colorOrange = drawing.Color{R: 255, G: 165, B: 0, A: 255}
	colorBlue   = drawing.Color{R: 31, G: 119, B: 180, A: 255}
	colorGray   = drawing.Color{R: 110, G: 110, B: 110, A: 255}

	compartmentColors = map[string]drawing.Color{
		"S": colorBlue,
		"E": colorOrange,
		"I": chart.ColorRed,
		"R": chart.ColorGreen,
		"P": colorBlue,
	}
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", PNG:
		return PNG, nil
	case SVG:
		return SVG, nil
	default:
		return "", dynamo.InvalidParameter("format", s, "must be png or svg")
	}
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

func (f Format) ContentType() string {
	if f == SVG {
		return "image/svg+xml"
	}
	return "image/png"
}

func (f Format) renderer() chart.RendererProvider {
	if f == SVG {
		return chart.SVG
	}
	return chart.PNG
}

// Trajectory plots every compartment against time and marks the peak when
// the response has one.
func Trajectory(w io.Writer, resp *experiment.Response, f Format) error {
	series := make([]chart.Series, 0, len(resp.Labels)+1)
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, label := range resp.Labels {
		ys := resp.Compartments[label]
		for _, v := range ys {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
		style := chart.Style{StrokeWidth: 2}
		if c, ok := compartmentColors[label]; ok {
			style.StrokeColor = c
		}
		series = append(series, chart.ContinuousSeries{
			Name:    label,
			XValues: resp.Times,
			YValues: ys,
			Style:   style,
		})
	}

	ind := resp.Indicators
	if ind.PeakTime != nil && ind.PeakValue != nil {
		series = append(series, chart.AnnotationSeries{
			Annotations: []chart.Value2{{
				XValue: *ind.PeakTime,
				YValue: *ind.PeakValue,
				Label:  fmt.Sprintf("peak %s %.1f at t=%.1f", ind.PeakCompartment, *ind.PeakValue, *ind.PeakTime),
			}},
		})
	}

	graph := chart.Chart{
		Title:  strings.ToUpper(resp.Model),
		Width:  width,
		Height: height,
		XAxis:  chart.XAxis{Name: "t"},
		YAxis:  chart.YAxis{Name: "population", Range: yRange(lo, hi)},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return render(w, graph, f)
}

// Fit plots the observations as points and the fitted curve as a line.
func Fit(w io.Writer, x, y []float64, res *experiment.FitResponse, f Format) error {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range append(append([]float64(nil), y...), res.CurveY...) {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("fit  R² = %.4f", res.RSquared),
		Width:  width,
		Height: height,
		YAxis:  chart.YAxis{Range: yRange(lo, hi)},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "observed",
				XValues: x,
				YValues: y,
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    4,
					DotColor:    colorBlue,
				},
			},
			chart.ContinuousSeries{
				Name:    "a·exp(-b·t) + c·t + d",
				XValues: res.CurveX,
				YValues: res.CurveY,
				Style:   chart.Style{StrokeColor: chart.ColorRed, StrokeWidth: 2},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return render(w, graph, f)
}

// Field draws one segment per grid point along the scaled arrow, with a dot
// at the grid point.
func Field(w io.Writer, s *field.Sample, f Format) error {
	n := len(s.X)
	series := make([]chart.Series, 0, n*n+1)

	var baseX, baseY []float64
	for i := range s.X {
		for j := range s.X[i] {
			x, y := s.X[i][j], s.Y[i][j]
			baseX = append(baseX, x)
			baseY = append(baseY, y)
			if s.UnitDX[i][j] == 0 && s.UnitDY[i][j] == 0 {
				continue
			}
			series = append(series, chart.ContinuousSeries{
				XValues: []float64{x, x + s.ArrowDX[i][j]},
				YValues: []float64{y, y + s.ArrowDY[i][j]},
				Style:   chart.Style{StrokeColor: colorGray, StrokeWidth: 1},
			})
		}
	}
	series = append(series, chart.ContinuousSeries{
		XValues: baseX,
		YValues: baseY,
		Style: chart.Style{
			StrokeWidth: chart.Disabled,
			DotWidth:    1.5,
			DotColor:    colorBlue,
		},
	})

	rx, ry := extent(s.X)+s.Scale, extent(s.Y)+s.Scale
	graph := chart.Chart{
		Title:  "direction field",
		Width:  height,
		Height: height,
		XAxis:  chart.XAxis{Name: "X", Range: &chart.ContinuousRange{Min: -rx, Max: rx}},
		YAxis:  chart.YAxis{Name: "Y", Range: &chart.ContinuousRange{Min: -ry, Max: ry}},
		Series: series,
	}
	return render(w, graph, f)
}

func render(w io.Writer, graph chart.Chart, f Format) error {
	if err := graph.Render(f.renderer(), w); err != nil {
		return fmt.Errorf("render %s chart: %w", f, err)
	}
	return nil
}

// yRange pads a flat series so the axis never has a zero span.
func yRange(lo, hi float64) chart.Range {
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return &chart.ContinuousRange{Min: 0, Max: 1}
	}
	if hi > lo {
		return &chart.ContinuousRange{Min: lo, Max: hi}
	}
	pad := math.Max(math.Abs(lo)*0.05, 1)
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func extent(grid [][]float64) float64 {
	m := 0.0
	for _, row := range grid {
		for _, v := range row {
			m = math.Max(m, math.Abs(v))
		}
	}
	return m
}
