// Package preprocessing cleans and encodes raw booking records into modeling
// inputs: mean imputation for missing numerics, duration parsing, weekday
// canonicalization, placeholder rewriting, and categorical encoding.
package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/fitattend/core/model"
	"github.com/YuminosukeSato/fitattend/pkg/errors"
)

// MeanImputer replaces NaN cells with the per-column mean computed over
// non-missing values. The post-imputation column mean equals the
// pre-imputation mean over non-missing values.
type MeanImputer struct {
	state *model.StateManager

	// Means holds the per-feature mean learned during Fit.
	Means []float64

	// NFeatures is the number of features seen during Fit.
	NFeatures int
}

var _ model.Transformer = (*MeanImputer)(nil)

// NewMeanImputer creates a new MeanImputer.
func NewMeanImputer() *MeanImputer {
	return &MeanImputer{
		state: model.NewStateManager(),
	}
}

// Fit computes the per-column mean over non-NaN entries.
// A column with no observed values cannot be imputed and is an error.
func (m *MeanImputer) Fit(X mat.Matrix) error {
	m.state.Reset()

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("MeanImputer.Fit", "empty data", errors.ErrEmptyData)
	}

	m.NFeatures = c
	m.Means = make([]float64, c)

	for j := 0; j < c; j++ {
		sum := 0.0
		n := 0
		for i := 0; i < r; i++ {
			v := X.At(i, j)
			if math.IsNaN(v) {
				continue
			}
			sum += v
			n++
		}
		if n == 0 {
			return errors.NewValueError("MeanImputer.Fit", "column has no observed values to average")
		}
		m.Means[j] = sum / float64(n)
	}

	m.state.SetDimensions(c, r)
	m.state.SetFitted()
	return nil
}

// Transform returns a copy of X with NaN entries replaced by the fitted means.
func (m *MeanImputer) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.state.RequireFitted("MeanImputer", "Transform"); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	if c != m.NFeatures {
		return nil, errors.NewDimensionError("MeanImputer.Transform", m.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := X.At(i, j)
			if math.IsNaN(v) {
				v = m.Means[j]
			}
			result.Set(i, j, v)
		}
	}
	return result, nil
}

// FitTransform fits the imputer and transforms the same data.
func (m *MeanImputer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}
