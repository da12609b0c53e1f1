// Package ensemble implements the tree-based classifiers of the attendance
// pipeline: a CART decision tree and a bagged random forest built on top of it.
package ensemble

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/fitattend/core/model"
	"github.com/YuminosukeSato/fitattend/pkg/errors"
)

// DecisionTreeClassifier is a CART-style classifier. Splits are binary
// thresholds on a single feature chosen to maximize impurity decrease.
type DecisionTreeClassifier struct {
	state *model.StateManager

	// Hyperparameters
	criterion       string // "gini" or "entropy"
	maxDepth        int    // 0 means unlimited
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int // 0 means all features
	seed            uint64

	// Fitted state
	root         *treeNode
	classes_     []float64
	nClasses_    int
	importances_ []float64
}

type treeNode struct {
	isLeaf    bool
	feature   int
	threshold float64 // x <= threshold goes left
	left      *treeNode
	right     *treeNode

	nSamples int
	probas   []float64 // aligned with classes_
}

var _ model.Classifier = (*DecisionTreeClassifier)(nil)

// TreeOption is a functional option for DecisionTreeClassifier.
type TreeOption func(*DecisionTreeClassifier)

// NewDecisionTreeClassifier creates a decision tree classifier.
func NewDecisionTreeClassifier(opts ...TreeOption) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{
		state:           model.NewStateManager(),
		criterion:       "gini",
		maxDepth:        0,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		maxFeatures:     0,
		seed:            1,
	}
	for _, opt := range opts {
		opt(dt)
	}
	return dt
}

// WithCriterion sets the impurity criterion ("gini" or "entropy").
func WithCriterion(criterion string) TreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.criterion = criterion
	}
}

// WithMaxDepth sets the maximum tree depth (0 means unlimited).
func WithMaxDepth(depth int) TreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.maxDepth = depth
	}
}

// WithMinSamplesSplit sets the minimum samples required to attempt a split.
func WithMinSamplesSplit(n int) TreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesSplit = n
	}
}

// WithMinSamplesLeaf sets the minimum samples required in each leaf.
func WithMinSamplesLeaf(n int) TreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesLeaf = n
	}
}

// WithMaxFeatures sets the number of features sampled per split (0 means all).
func WithMaxFeatures(k int) TreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.maxFeatures = k
	}
}

// WithTreeRandomState sets the seed used for feature subsampling.
func WithTreeRandomState(seed uint64) TreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.seed = seed
	}
}

// Fit builds the tree on X (n×p) and labels y (n×1).
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "DecisionTreeClassifier.Fit")

	// Refitting invalidates any previous fit.
	dt.state.Reset()

	nSamples, _ := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples == 0 {
		return errors.NewModelError("DecisionTreeClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError("DecisionTreeClassifier.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("DecisionTreeClassifier.Fit", "y must be a column vector")
	}

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}
	return dt.fitIndices(X, y, indices)
}

// fitIndices builds the tree on the selected rows only. The forest uses it
// to train on bootstrap samples without copying the matrix.
func (dt *DecisionTreeClassifier) fitIndices(X, y mat.Matrix, indices []int) error {
	_, nFeatures := X.Dims()
	if len(indices) == 0 {
		return errors.NewModelError("DecisionTreeClassifier.Fit", "empty data", errors.ErrEmptyData)
	}

	dt.extractClasses(y, indices)
	dt.importances_ = make([]float64, nFeatures)

	r := rand.New(rand.NewPCG(dt.seed, dt.seed))
	dt.root = dt.buildNode(X, y, indices, 0, r)

	// Normalize accumulated impurity decreases.
	total := 0.0
	for _, v := range dt.importances_ {
		total += v
	}
	if total > 0 {
		for j := range dt.importances_ {
			dt.importances_[j] /= total
		}
	}

	dt.state.SetDimensions(nFeatures, len(indices))
	dt.state.SetFitted()
	return nil
}

func (dt *DecisionTreeClassifier) extractClasses(y mat.Matrix, indices []int) {
	seen := make(map[float64]bool)
	dt.classes_ = dt.classes_[:0]
	for _, i := range indices {
		label := y.At(i, 0)
		if !seen[label] {
			seen[label] = true
			dt.classes_ = append(dt.classes_, label)
		}
	}
	sort.Float64s(dt.classes_)
	dt.nClasses_ = len(dt.classes_)
}

func (dt *DecisionTreeClassifier) classIndex(label float64) int {
	for i, c := range dt.classes_ {
		if c == label {
			return i
		}
	}
	return 0
}

func (dt *DecisionTreeClassifier) impurity(counts []int) float64 {
	n := 0
	for _, c := range counts {
		n += c
	}
	if n == 0 {
		return 0
	}
	if dt.criterion == "entropy" {
		res := 0.0
		for _, c := range counts {
			if c == 0 {
				continue
			}
			p := float64(c) / float64(n)
			res -= p * math.Log2(p)
		}
		return res
	}
	res := 0.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		res += p * (1 - p)
	}
	return res
}

type candidateSplit struct {
	gain      float64
	feature   int
	threshold float64
	leftIdx   []int
	rightIdx  []int
}

func (dt *DecisionTreeClassifier) buildNode(X, y mat.Matrix, indices []int, depth int, r *rand.Rand) *treeNode {
	node := &treeNode{nSamples: len(indices)}

	counts := make([]int, dt.nClasses_)
	for _, i := range indices {
		counts[dt.classIndex(y.At(i, 0))]++
	}

	leaf := func() *treeNode {
		node.isLeaf = true
		node.probas = make([]float64, dt.nClasses_)
		for j, c := range counts {
			node.probas[j] = float64(c) / float64(len(indices))
		}
		return node
	}

	if isPure(counts) || len(indices) < dt.minSamplesSplit {
		return leaf()
	}
	if dt.maxDepth > 0 && depth >= dt.maxDepth {
		return leaf()
	}

	best := dt.findBestSplit(X, y, indices, counts, r)
	if best.feature < 0 || best.gain <= 0 {
		return leaf()
	}

	// Importance: impurity decrease weighted by the node's sample share.
	dt.importances_[best.feature] += best.gain * float64(len(indices))

	node.feature = best.feature
	node.threshold = best.threshold
	node.left = dt.buildNode(X, y, best.leftIdx, depth+1, r)
	node.right = dt.buildNode(X, y, best.rightIdx, depth+1, r)
	return node
}

func (dt *DecisionTreeClassifier) findBestSplit(X, y mat.Matrix, indices []int, counts []int, r *rand.Rand) candidateSplit {
	_, nFeatures := X.Dims()
	parent := dt.impurity(counts)

	features := make([]int, nFeatures)
	for j := range features {
		features[j] = j
	}
	if dt.maxFeatures > 0 && dt.maxFeatures < nFeatures {
		r.Shuffle(len(features), func(i, j int) {
			features[i], features[j] = features[j], features[i]
		})
		features = features[:dt.maxFeatures]
	}

	best := candidateSplit{feature: -1}

	type valueIndex struct {
		v float64
		i int
	}
	for _, f := range features {
		ordered := make([]valueIndex, len(indices))
		for k, i := range indices {
			ordered[k] = valueIndex{X.At(i, f), i}
		}
		sort.Slice(ordered, func(a, b int) bool { return ordered[a].v < ordered[b].v })

		leftCounts := make([]int, dt.nClasses_)
		rightCounts := append([]int(nil), counts...)

		for s := 1; s < len(ordered); s++ {
			ci := dt.classIndex(y.At(ordered[s-1].i, 0))
			leftCounts[ci]++
			rightCounts[ci]--

			if ordered[s].v == ordered[s-1].v {
				continue
			}
			if s < dt.minSamplesLeaf || len(ordered)-s < dt.minSamplesLeaf {
				continue
			}

			weighted := float64(s)/float64(len(ordered))*dt.impurity(leftCounts) +
				float64(len(ordered)-s)/float64(len(ordered))*dt.impurity(rightCounts)
			gain := parent - weighted
			if gain > best.gain {
				leftIdx := make([]int, s)
				rightIdx := make([]int, len(ordered)-s)
				for k := 0; k < s; k++ {
					leftIdx[k] = ordered[k].i
				}
				for k := s; k < len(ordered); k++ {
					rightIdx[k-s] = ordered[k].i
				}
				best = candidateSplit{
					gain:      gain,
					feature:   f,
					threshold: (ordered[s-1].v + ordered[s].v) / 2,
					leftIdx:   leftIdx,
					rightIdx:  rightIdx,
				}
			}
		}
	}
	return best
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

// Predict returns the majority-class label for each row of X.
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	probas, err := dt.PredictProba(X)
	if err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		bestJ := 0
		for j := 1; j < dt.nClasses_; j++ {
			if probas.At(i, j) > probas.At(i, bestJ) {
				bestJ = j
			}
		}
		predictions.Set(i, 0, dt.classes_[bestJ])
	}
	return predictions, nil
}

// PredictProba returns the leaf class frequencies for each row of X.
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.state.RequireFitted("DecisionTreeClassifier", "PredictProba"); err != nil {
		return nil, err
	}

	nSamples, nFeatures := X.Dims()
	if want, _ := dt.state.GetDimensions(); nFeatures != want {
		return nil, errors.NewDimensionError("DecisionTreeClassifier.PredictProba", want, nFeatures, 1)
	}

	probas := mat.NewDense(nSamples, dt.nClasses_, nil)
	for i := 0; i < nSamples; i++ {
		node := dt.root
		for !node.isLeaf {
			if X.At(i, node.feature) <= node.threshold {
				node = node.left
			} else {
				node = node.right
			}
		}
		for j, p := range node.probas {
			probas.Set(i, j, p)
		}
	}
	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels.
func (dt *DecisionTreeClassifier) Score(X, y mat.Matrix) float64 {
	predictions, err := dt.Predict(X)
	if err != nil {
		return 0
	}
	nSamples, _ := X.Dims()
	correct := 0
	for i := 0; i < nSamples; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(nSamples)
}

// Classes returns the sorted class labels seen during Fit.
func (dt *DecisionTreeClassifier) Classes() []float64 {
	return append([]float64(nil), dt.classes_...)
}

// GetFeatureImportances returns the normalized impurity-decrease importances.
func (dt *DecisionTreeClassifier) GetFeatureImportances() []float64 {
	return append([]float64(nil), dt.importances_...)
}

// GetDepth returns the depth of the fitted tree (root has depth 0).
func (dt *DecisionTreeClassifier) GetDepth() int {
	return nodeDepth(dt.root)
}

// GetNLeaves returns the number of leaves in the fitted tree.
func (dt *DecisionTreeClassifier) GetNLeaves() int {
	return nodeLeaves(dt.root)
}

func nodeDepth(n *treeNode) int {
	if n == nil || n.isLeaf {
		return 0
	}
	l := nodeDepth(n.left)
	r := nodeDepth(n.right)
	if l > r {
		return l + 1
	}
	return r + 1
}

func nodeLeaves(n *treeNode) int {
	if n == nil {
		return 0
	}
	if n.isLeaf {
		return 1
	}
	return nodeLeaves(n.left) + nodeLeaves(n.right)
}
