// Package storage encodes solved results as CSV or JSON onto a writer and
// reads observation tables for curve fitting. Nothing here touches the
// filesystem on its own.
package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/field"
	"github.com/san-kum/popdyn/internal/optim"
	"github.com/san-kum/popdyn/internal/sim"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// WriteTrajectoryCSV writes one row per sample: time, then one column per
// compartment label.
func WriteTrajectoryCSV(w io.Writer, traj *sim.Trajectory) error {
	cw := csv.NewWriter(w)

	header := append([]string{"time"}, traj.Labels...)
	if err := cw.Write(header); err != nil {
		return err
	}

	for k, x := range traj.States {
		row := make([]string, 0, len(x)+1)
		row = append(row, formatFloat(traj.Times[k]))
		for _, v := range x {
			row = append(row, formatFloat(v))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFieldCSV writes one row per grid point.
func WriteFieldCSV(w io.Writer, s *field.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"x", "y", "unit_dx", "unit_dy", "magnitude"}); err != nil {
		return err
	}
	for i := range s.X {
		for j := range s.X[i] {
			row := []string{
				formatFloat(s.X[i][j]),
				formatFloat(s.Y[i][j]),
				formatFloat(s.UnitDX[i][j]),
				formatFloat(s.UnitDY[i][j]),
				formatFloat(s.Magnitude[i][j]),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFitCSV writes the observations next to the fitted values.
func WriteFitCSV(w io.Writer, x, y, predicted []float64) error {
	if len(x) != len(y) || len(x) != len(predicted) {
		return fmt.Errorf("column lengths differ: x=%d y=%d predicted=%d", len(x), len(y), len(predicted))
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"x", "y", "predicted"}); err != nil {
		return err
	}
	for i := range x {
		if err := cw.Write([]string{formatFloat(x[i]), formatFloat(y[i]), formatFloat(predicted[i])}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSweepCSV writes one row per grid point: the swept parameters, the
// metric value (empty when the point failed) and the error.
func WriteSweepCSV(w io.Writer, res *optim.Result) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(res.Axes)+2)
	for _, a := range res.Axes {
		header = append(header, a.Param)
	}
	header = append(header, res.Metric, "error")
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, p := range res.Points {
		row := make([]string, 0, len(header))
		for _, a := range res.Axes {
			row = append(row, formatFloat(p.Params[a.Param]))
		}
		value := ""
		if p.Value != nil {
			value = formatFloat(*p.Value)
		}
		row = append(row, value, p.Error)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadXY reads a two-column table of observations. A first row that does
// not parse as numbers is taken as a header. Extra columns are ignored.
func ReadXY(r io.Reader) (x, y []float64, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	for first := true; ; first = false {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		line, _ := cr.FieldPos(0)
		if len(record) < 2 {
			return nil, nil, dynamo.InvalidParameter(fmt.Sprintf("line %d", line), record, "expected two columns")
		}

		xv, errX := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
		yv, errY := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if errX != nil || errY != nil {
			if first {
				continue
			}
			return nil, nil, dynamo.InvalidParameter(fmt.Sprintf("line %d", line), record, "not a number")
		}
		x = append(x, xv)
		y = append(y, yv)
	}

	if len(x) == 0 {
		return nil, nil, dynamo.InvalidParameter("data", 0, "no observations")
	}
	return x, y, nil
}
