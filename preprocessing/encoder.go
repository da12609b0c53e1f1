package preprocessing

import (
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/fitattend/core/model"
	"github.com/YuminosukeSato/fitattend/dataset"
	"github.com/YuminosukeSato/fitattend/pkg/errors"
)

// Encoder assembles modeling inputs from a cleaned booking table.
//
// Numeric columns pass through; ordered categoricals (day of week, time slot)
// become their level codes; the nominal class category is one-hot encoded with
// the first level dropped. The booking identifier and the label are excluded
// from the design matrix.
type Encoder struct {
	state *model.StateManager

	// Weekday and TimeSlot carry the fixed declared level orders.
	Weekday  *Categorical
	TimeSlot *Categorical

	// Category levels are inferred from the training table during Fit.
	Category *Categorical

	featureNames []string
}

// NewEncoder creates an Encoder with the fixed ordered categoricals declared.
func NewEncoder() *Encoder {
	return &Encoder{
		state:    model.NewStateManager(),
		Weekday:  Weekday(),
		TimeSlot: TimeSlot(),
	}
}

// Fit infers the class-category levels from a cleaned table and freezes the
// feature layout.
func (e *Encoder) Fit(t *dataset.Table) error {
	e.state.Reset()

	cat, err := t.Col(dataset.ColCategory)
	if err != nil {
		return err
	}
	e.Category = InferCategorical(dataset.ColCategory, cat)

	e.featureNames = []string{
		dataset.ColMonthsAsMember,
		dataset.ColWeight,
		dataset.ColDaysBefore,
		dataset.ColDayOfWeek,
		dataset.ColTime,
	}
	// One-hot with first level dropped, so k levels contribute k-1 columns.
	for _, level := range e.Category.Levels[1:] {
		e.featureNames = append(e.featureNames, dataset.ColCategory+"="+level)
	}

	e.state.SetDimensions(len(e.featureNames), t.NumRows())
	e.state.SetFitted()
	return nil
}

// FeatureNames returns the design-matrix column names in order.
func (e *Encoder) FeatureNames() []string {
	return append([]string(nil), e.featureNames...)
}

// Transform builds the design matrix for a cleaned table.
func (e *Encoder) Transform(t *dataset.Table) (*mat.Dense, error) {
	if err := e.state.RequireFitted("Encoder", "Transform"); err != nil {
		return nil, err
	}

	n := t.NumRows()
	if n == 0 {
		return nil, errors.NewModelError("Encoder.Transform", "empty table", errors.ErrEmptyData)
	}

	cols := make([][]float64, 0, len(e.featureNames))

	for _, name := range []string{dataset.ColMonthsAsMember, dataset.ColWeight, dataset.ColDaysBefore} {
		cells, err := t.Col(name)
		if err != nil {
			return nil, err
		}
		vals, err := ParseFloatColumn(cells, name)
		if err != nil {
			return nil, err
		}
		for i, v := range vals {
			if v != v { // NaN
				return nil, errors.NewValueError("Encoder.Transform",
					"missing value in column "+name+" at row "+strconv.Itoa(i)+"; clean the table first")
			}
		}
		cols = append(cols, vals)
	}

	wd, err := t.Col(dataset.ColDayOfWeek)
	if err != nil {
		return nil, err
	}
	wdCodes, err := e.Weekday.Encode(wd)
	if err != nil {
		return nil, err
	}
	cols = append(cols, wdCodes)

	slot, err := t.Col(dataset.ColTime)
	if err != nil {
		return nil, err
	}
	slotCodes, err := e.TimeSlot.Encode(slot)
	if err != nil {
		return nil, err
	}
	cols = append(cols, slotCodes)

	cat, err := t.Col(dataset.ColCategory)
	if err != nil {
		return nil, err
	}
	catCodes, err := e.Category.Encode(cat)
	if err != nil {
		return nil, err
	}
	for level := 1; level < e.Category.NumLevels(); level++ {
		onehot := make([]float64, n)
		for i, code := range catCodes {
			if int(code) == level {
				onehot[i] = 1
			}
		}
		cols = append(cols, onehot)
	}

	X := mat.NewDense(n, len(cols), nil)
	for j, col := range cols {
		for i, v := range col {
			X.Set(i, j, v)
		}
	}
	return X, nil
}

// FitTransform fits the encoder and transforms the same table.
func (e *Encoder) FitTransform(t *dataset.Table) (*mat.Dense, error) {
	if err := e.Fit(t); err != nil {
		return nil, err
	}
	return e.Transform(t)
}

// Label extracts the attendance label as an n×1 matrix.
func (e *Encoder) Label(t *dataset.Table) (*mat.Dense, error) {
	cells, err := t.Col(dataset.ColAttended)
	if err != nil {
		return nil, err
	}
	vals, err := ParseFloatColumn(cells, dataset.ColAttended)
	if err != nil {
		return nil, err
	}
	y := mat.NewDense(len(vals), 1, nil)
	for i, v := range vals {
		if v != 0 && v != 1 {
			return nil, errors.NewParseError("Encoder.Label", dataset.ColAttended, cells[i])
		}
		y.Set(i, 0, v)
	}
	return y, nil
}
