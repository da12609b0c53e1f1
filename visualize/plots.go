// Package visualize renders the exploratory and evaluation charts of the
// attendance pipeline as PNG files.
package visualize

import (
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/fitattend/dataset"
	"github.com/YuminosukeSato/fitattend/metrics"
	"github.com/YuminosukeSato/fitattend/pkg/errors"
	"github.com/YuminosukeSato/fitattend/preprocessing"
)

// AttendanceByWeekday renders a bar chart of the attendance rate per
// canonical weekday. The table must already be cleaned.
func AttendanceByWeekday(t *dataset.Table, path string) error {
	days, err := t.Col(dataset.ColDayOfWeek)
	if err != nil {
		return errors.Wrap(err, "AttendanceByWeekday")
	}
	attended, err := t.Col(dataset.ColAttended)
	if err != nil {
		return errors.Wrap(err, "AttendanceByWeekday")
	}

	counts := make(map[string]int)
	positives := make(map[string]int)
	for i, day := range days {
		counts[day]++
		if attended[i] == "1" {
			positives[day]++
		}
	}

	rates := make(plotter.Values, 0, len(preprocessing.CanonicalWeekdays))
	labels := make([]string, 0, len(preprocessing.CanonicalWeekdays))
	for _, day := range preprocessing.CanonicalWeekdays {
		if counts[day] == 0 {
			continue
		}
		rates = append(rates, float64(positives[day])/float64(counts[day]))
		labels = append(labels, day)
	}
	if len(rates) == 0 {
		return errors.NewValueError("AttendanceByWeekday", "no weekday data to plot")
	}

	p := plot.New()
	p.Title.Text = "Attendance rate by weekday"
	p.Y.Label.Text = "attendance rate"
	p.Y.Min = 0
	p.Y.Max = 1

	bars, err := plotter.NewBarChart(rates, vg.Points(24))
	if err != nil {
		return errors.Wrap(err, "AttendanceByWeekday")
	}
	bars.Color = plotutil.Color(0)
	p.Add(bars)
	p.NominalX(labels...)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrap(err, "AttendanceByWeekday: save plot")
	}
	return nil
}

// WeightHistogram renders a histogram of member weights.
func WeightHistogram(t *dataset.Table, bins int, path string) error {
	values, err := numericColumn(t, dataset.ColWeight, "WeightHistogram")
	if err != nil {
		return err
	}
	if bins <= 0 {
		bins = 20
	}

	p := plot.New()
	p.Title.Text = "Member weight distribution"
	p.X.Label.Text = "weight (kg)"
	p.Y.Label.Text = "bookings"

	hist, err := plotter.NewHist(values, bins)
	if err != nil {
		return errors.Wrap(err, "WeightHistogram")
	}
	hist.FillColor = plotutil.Color(1)
	p.Add(hist)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrap(err, "WeightHistogram: save plot")
	}
	return nil
}

// LeadTimeByOutcome renders box plots of booking lead time (days before the
// class) for missed and attended bookings side by side.
func LeadTimeByOutcome(t *dataset.Table, path string) error {
	days, err := numericColumn(t, dataset.ColDaysBefore, "LeadTimeByOutcome")
	if err != nil {
		return err
	}
	attended, err := t.Col(dataset.ColAttended)
	if err != nil {
		return errors.Wrap(err, "LeadTimeByOutcome")
	}

	var missed, present plotter.Values
	for i, v := range days {
		if attended[i] == "1" {
			present = append(present, v)
		} else {
			missed = append(missed, v)
		}
	}
	if len(missed) == 0 || len(present) == 0 {
		return errors.NewValueError("LeadTimeByOutcome", "both outcomes must be present to compare")
	}

	p := plot.New()
	p.Title.Text = "Booking lead time by outcome"
	p.Y.Label.Text = "days before class"

	boxMissed, err := plotter.NewBoxPlot(vg.Points(40), 0, missed)
	if err != nil {
		return errors.Wrap(err, "LeadTimeByOutcome")
	}
	boxPresent, err := plotter.NewBoxPlot(vg.Points(40), 1, present)
	if err != nil {
		return errors.Wrap(err, "LeadTimeByOutcome")
	}
	p.Add(boxMissed, boxPresent)
	p.NominalX("missed", "attended")

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrap(err, "LeadTimeByOutcome: save plot")
	}
	return nil
}

// NamedCurve is one ROC curve with its legend label.
type NamedCurve struct {
	Name   string
	Points []metrics.ROCPoint
}

// ROCOverlay renders the given ROC curves on one plot together with the
// chance diagonal.
func ROCOverlay(curves []NamedCurve, path string) error {
	if len(curves) == 0 {
		return errors.NewValueError("ROCOverlay", "no curves to plot")
	}

	p := plot.New()
	p.Title.Text = "ROC curves"
	p.X.Label.Text = "false positive rate"
	p.Y.Label.Text = "true positive rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	p.Legend.Top = false

	diag, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return errors.Wrap(err, "ROCOverlay")
	}
	diag.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(diag)

	for i, curve := range curves {
		if len(curve.Points) == 0 {
			return errors.NewValueError("ROCOverlay", "empty curve: "+curve.Name)
		}
		pts := make(plotter.XYs, len(curve.Points))
		for j, pt := range curve.Points {
			pts[j] = plotter.XY{X: pt.FPR, Y: pt.TPR}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return errors.Wrap(err, "ROCOverlay")
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(2)
		p.Add(line)
		p.Legend.Add(curve.Name, line)
	}

	if err := p.Save(5*vg.Inch, 5*vg.Inch, path); err != nil {
		return errors.Wrap(err, "ROCOverlay: save plot")
	}
	return nil
}

func numericColumn(t *dataset.Table, name, op string) (plotter.Values, error) {
	raw, err := t.Col(name)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	values := make(plotter.Values, 0, len(raw))
	for _, cell := range raw {
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, errors.NewParseError(op, name, cell)
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, errors.NewValueError(op, "no data to plot")
	}
	return values, nil
}
