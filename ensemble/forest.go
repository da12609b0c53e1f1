package ensemble

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/fitattend/core/model"
	"github.com/YuminosukeSato/fitattend/pkg/errors"
)

// RandomForestClassifier bags decision trees trained on bootstrap samples.
// Each tree gets a seed derived from the forest seed and its own index, so
// a forest refit with the same seed reproduces exactly.
type RandomForestClassifier struct {
	state *model.StateManager

	// Hyperparameters
	nEstimators     int
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int // 0 means sqrt(p)
	bootstrap       bool
	seed            uint64

	// Fitted state
	trees      []*DecisionTreeClassifier
	classes_   []float64
	nClasses_  int
	nFeatures_ int
}

var _ model.Classifier = (*RandomForestClassifier)(nil)

// ForestOption is a functional option for RandomForestClassifier.
type ForestOption func(*RandomForestClassifier)

// NewRandomForestClassifier creates a random forest classifier.
func NewRandomForestClassifier(opts ...ForestOption) *RandomForestClassifier {
	rf := &RandomForestClassifier{
		state:           model.NewStateManager(),
		nEstimators:     100,
		maxDepth:        0,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		maxFeatures:     0,
		bootstrap:       true,
		seed:            1,
	}
	for _, opt := range opts {
		opt(rf)
	}
	return rf
}

// WithNEstimators sets the number of trees.
func WithNEstimators(n int) ForestOption {
	return func(rf *RandomForestClassifier) {
		rf.nEstimators = n
	}
}

// WithForestMaxDepth sets the maximum depth of each tree (0 means unlimited).
func WithForestMaxDepth(depth int) ForestOption {
	return func(rf *RandomForestClassifier) {
		rf.maxDepth = depth
	}
}

// WithForestMinSamplesSplit sets the per-tree minimum samples to split.
func WithForestMinSamplesSplit(n int) ForestOption {
	return func(rf *RandomForestClassifier) {
		rf.minSamplesSplit = n
	}
}

// WithForestMinSamplesLeaf sets the per-tree minimum samples per leaf.
func WithForestMinSamplesLeaf(n int) ForestOption {
	return func(rf *RandomForestClassifier) {
		rf.minSamplesLeaf = n
	}
}

// WithForestMaxFeatures sets the features sampled per split (0 means sqrt(p)).
func WithForestMaxFeatures(k int) ForestOption {
	return func(rf *RandomForestClassifier) {
		rf.maxFeatures = k
	}
}

// WithBootstrap sets whether trees train on bootstrap samples.
func WithBootstrap(b bool) ForestOption {
	return func(rf *RandomForestClassifier) {
		rf.bootstrap = b
	}
}

// WithForestRandomState sets the seed for bootstrap and feature sampling.
func WithForestRandomState(seed uint64) ForestOption {
	return func(rf *RandomForestClassifier) {
		rf.seed = seed
	}
}

// Fit trains all trees on bootstrap samples of X (n×p) and y (n×1).
func (rf *RandomForestClassifier) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "RandomForestClassifier.Fit")

	// Refitting invalidates any previous fit.
	rf.state.Reset()

	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples == 0 {
		return errors.NewModelError("RandomForestClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError("RandomForestClassifier.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("RandomForestClassifier.Fit", "y must be a column vector")
	}
	if rf.nEstimators <= 0 {
		return errors.NewValueError("RandomForestClassifier.Fit", "nEstimators must be positive")
	}

	rf.extractClasses(y)
	rf.nFeatures_ = nFeatures

	maxFeatures := rf.maxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Sqrt(float64(nFeatures)))
		if maxFeatures < 1 {
			maxFeatures = 1
		}
	}

	rf.trees = make([]*DecisionTreeClassifier, rf.nEstimators)
	for t := 0; t < rf.nEstimators; t++ {
		treeSeed := rf.seed + uint64(t)
		r := rand.New(rand.NewPCG(treeSeed, treeSeed))

		indices := make([]int, nSamples)
		for j := range indices {
			if rf.bootstrap {
				indices[j] = r.IntN(nSamples)
			} else {
				indices[j] = j
			}
		}

		tree := NewDecisionTreeClassifier(
			WithCriterion("gini"),
			WithMaxDepth(rf.maxDepth),
			WithMinSamplesSplit(rf.minSamplesSplit),
			WithMinSamplesLeaf(rf.minSamplesLeaf),
			WithMaxFeatures(maxFeatures),
			WithTreeRandomState(treeSeed),
		)
		if err := tree.fitIndices(X, y, indices); err != nil {
			return errors.NewModelError("RandomForestClassifier.Fit", "tree training failed", err)
		}
		rf.trees[t] = tree
	}

	rf.state.SetDimensions(nFeatures, nSamples)
	rf.state.SetFitted()
	return nil
}

func (rf *RandomForestClassifier) extractClasses(y mat.Matrix) {
	rows, _ := y.Dims()
	seen := make(map[float64]bool)
	rf.classes_ = rf.classes_[:0]
	for i := 0; i < rows; i++ {
		label := y.At(i, 0)
		if !seen[label] {
			seen[label] = true
			rf.classes_ = append(rf.classes_, label)
		}
	}
	sort.Float64s(rf.classes_)
	rf.nClasses_ = len(rf.classes_)
}

// Predict returns the label with the highest averaged probability per row.
func (rf *RandomForestClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	probas, err := rf.PredictProba(X)
	if err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		bestJ := 0
		for j := 1; j < rf.nClasses_; j++ {
			if probas.At(i, j) > probas.At(i, bestJ) {
				bestJ = j
			}
		}
		predictions.Set(i, 0, rf.classes_[bestJ])
	}
	return predictions, nil
}

// PredictProba averages the leaf class frequencies across all trees.
// A bootstrap sample can miss a class entirely, so each tree's columns are
// mapped back onto the forest's class order before averaging.
func (rf *RandomForestClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := rf.state.RequireFitted("RandomForestClassifier", "PredictProba"); err != nil {
		return nil, err
	}

	nSamples, nFeatures := X.Dims()
	if want, _ := rf.state.GetDimensions(); nFeatures != want {
		return nil, errors.NewDimensionError("RandomForestClassifier.PredictProba", want, nFeatures, 1)
	}

	classCol := make(map[float64]int, rf.nClasses_)
	for j, c := range rf.classes_ {
		classCol[c] = j
	}

	sums := mat.NewDense(nSamples, rf.nClasses_, nil)
	for _, tree := range rf.trees {
		treeProbas, err := tree.PredictProba(X)
		if err != nil {
			return nil, err
		}
		treeClasses := tree.Classes()
		for i := 0; i < nSamples; i++ {
			for tj, c := range treeClasses {
				j := classCol[c]
				sums.Set(i, j, sums.At(i, j)+treeProbas.At(i, tj))
			}
		}
	}

	probas := mat.NewDense(nSamples, rf.nClasses_, nil)
	for i := 0; i < nSamples; i++ {
		for j := 0; j < rf.nClasses_; j++ {
			probas.Set(i, j, sums.At(i, j)/float64(len(rf.trees)))
		}
	}
	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels.
func (rf *RandomForestClassifier) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := rf.Predict(X)
	if err != nil {
		return 0, err
	}
	nSamples, _ := X.Dims()
	correct := 0
	for i := 0; i < nSamples; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(nSamples), nil
}

// Classes returns the sorted class labels seen during Fit.
func (rf *RandomForestClassifier) Classes() []float64 {
	return append([]float64(nil), rf.classes_...)
}

// NEstimators returns the number of fitted trees.
func (rf *RandomForestClassifier) NEstimators() int {
	return len(rf.trees)
}

// FeatureImportances averages the per-tree impurity-decrease importances.
func (rf *RandomForestClassifier) FeatureImportances() []float64 {
	out := make([]float64, rf.nFeatures_)
	if len(rf.trees) == 0 {
		return out
	}
	for _, tree := range rf.trees {
		for j, v := range tree.GetFeatureImportances() {
			out[j] += v
		}
	}
	for j := range out {
		out[j] /= float64(len(rf.trees))
	}
	return out
}
