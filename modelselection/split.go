// Package modelselection provides the train/test partitioning used by the
// attendance pipeline.
package modelselection

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/fitattend/pkg/errors"
)

// Split holds the result of one train/test partition.
type Split struct {
	TrainIndices []int
	TestIndices  []int
}

// StratifiedShuffleSplit partitions samples into train and test sets while
// preserving the label proportions of the full dataset in each partition.
//
// The splitter owns an explicit seed and builds its own generator, so Split
// is deterministic and touches no global rand state.
type StratifiedShuffleSplit struct {
	TrainFraction float64
	Seed          uint64
}

// NewStratifiedShuffleSplit creates a splitter with the given train fraction.
func NewStratifiedShuffleSplit(trainFraction float64, seed uint64) *StratifiedShuffleSplit {
	if trainFraction <= 0 || trainFraction >= 1 {
		trainFraction = 0.7
	}
	return &StratifiedShuffleSplit{
		TrainFraction: trainFraction,
		Seed:          seed,
	}
}

// Split generates stratified train/test indices for the labels in y (n×1).
func (s *StratifiedShuffleSplit) Split(y mat.Matrix) (Split, error) {
	nSamples, _ := y.Dims()
	if nSamples == 0 {
		return Split{}, errors.NewModelError("StratifiedShuffleSplit.Split", "empty labels", errors.ErrEmptyData)
	}

	// Group indices by class.
	classIndices := make(map[float64][]int)
	var classes []float64
	for i := 0; i < nSamples; i++ {
		label := y.At(i, 0)
		if _, ok := classIndices[label]; !ok {
			classes = append(classes, label)
		}
		classIndices[label] = append(classIndices[label], i)
	}
	// Deterministic class visit order.
	sort.Float64s(classes)

	r := rand.New(rand.NewPCG(s.Seed, s.Seed))

	var split Split
	for _, label := range classes {
		indices := classIndices[label]
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		nTrain := int(math.Round(s.TrainFraction * float64(len(indices))))
		if nTrain == len(indices) && len(indices) > 1 {
			nTrain-- // keep at least one sample of each class in test
		}
		split.TrainIndices = append(split.TrainIndices, indices[:nTrain]...)
		split.TestIndices = append(split.TestIndices, indices[nTrain:]...)
	}

	sort.Ints(split.TrainIndices)
	sort.Ints(split.TestIndices)
	return split, nil
}

// Take gathers the rows of X selected by indices into a new matrix.
func Take(X mat.Matrix, indices []int) *mat.Dense {
	_, c := X.Dims()
	out := mat.NewDense(len(indices), c, nil)
	for i, idx := range indices {
		for j := 0; j < c; j++ {
			out.Set(i, j, X.At(idx, j))
		}
	}
	return out
}
