// Package linear implements the linear classifier of the attendance pipeline.
package linear

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/fitattend/core/model"
	"github.com/YuminosukeSato/fitattend/pkg/errors"
)

// LogisticRegression fits an additive linear model of the log-odds of
// attendance on all retained predictors. Binary labels only; training uses
// batch gradient descent with an adaptive learning rate.
type LogisticRegression struct {
	state *model.StateManager

	// Hyperparameters
	penalty      string  // "l2" or "none"
	c            float64 // inverse regularization strength
	fitIntercept bool
	maxIter      int
	tol          float64
	seed         uint64

	// Model parameters
	coef_      []float64
	intercept_ float64
	classes_   []int
	nFeatures_ int
	nIter_     int
}

var _ model.Classifier = (*LogisticRegression)(nil)

// LogisticRegressionOption is a functional option for LogisticRegression.
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a LogisticRegression classifier.
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		penalty:      "l2",
		c:            1.0,
		fitIntercept: true,
		maxIter:      100,
		tol:          1e-4,
		seed:         1,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// WithLRPenalty sets the regularization type ("l2" or "none").
func WithLRPenalty(penalty string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.penalty = penalty
	}
}

// WithLRC sets the inverse regularization strength.
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.c = c
	}
}

// WithLRFitIntercept sets whether to fit an intercept term.
func WithLRFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// WithLRMaxIter sets the maximum number of iterations.
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithLRTol sets the tolerance for the stopping criterion.
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// WithLRRandomState sets the seed for weight initialization.
func WithLRRandomState(seed uint64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.seed = seed
	}
}

// Fit trains the model. y must be an n×1 matrix with exactly two distinct
// labels; a single-class y is a degenerate input and fails.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "LogisticRegression.Fit")

	// Refitting invalidates any previous fit.
	lr.state.Reset()

	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples != yRows {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("LogisticRegression.Fit", "y must be a column vector")
	}
	if nSamples == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}

	lr.extractClasses(y)
	if len(lr.classes_) < 2 {
		return errors.NewModelError("LogisticRegression.Fit", "degenerate input", errors.ErrSingleClass)
	}
	if len(lr.classes_) > 2 {
		return errors.NewValueError("LogisticRegression.Fit", "only binary labels are supported")
	}
	lr.nFeatures_ = nFeatures

	// Small random initialization keeps fits reproducible under the seed.
	r := rand.New(rand.NewPCG(lr.seed, lr.seed))
	lr.coef_ = make([]float64, nFeatures)
	for j := range lr.coef_ {
		lr.coef_[j] = r.NormFloat64() * 0.01
	}
	lr.intercept_ = 0

	// 0/1 view of y relative to classes_[1].
	yBinary := make([]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		if int(y.At(i, 0)) == lr.classes_[1] {
			yBinary[i] = 1
		}
	}

	baseLearningRate := 1.0
	maxGrad := math.Inf(1)

	for iter := 0; iter < lr.maxIter; iter++ {
		gradWeights := make([]float64, nFeatures)
		gradIntercept := 0.0

		for i := 0; i < nSamples; i++ {
			z := lr.intercept_
			for j := 0; j < nFeatures; j++ {
				z += X.At(i, j) * lr.coef_[j]
			}
			residual := sigmoid(z) - yBinary[i]
			gradIntercept += residual
			for j := 0; j < nFeatures; j++ {
				gradWeights[j] += residual * X.At(i, j)
			}
		}

		for j := range gradWeights {
			gradWeights[j] /= float64(nSamples)
		}
		gradIntercept /= float64(nSamples)

		if lr.penalty == "l2" {
			lambda := 1.0 / lr.c
			for j := range lr.coef_ {
				gradWeights[j] += lambda * lr.coef_[j] / float64(nSamples)
			}
		}

		learningRate := baseLearningRate / (1.0 + 0.1*float64(iter))
		for j := range lr.coef_ {
			lr.coef_[j] -= learningRate * gradWeights[j]
		}
		if lr.fitIntercept {
			lr.intercept_ -= learningRate * gradIntercept
		}

		lr.nIter_ = iter + 1

		maxGrad = math.Abs(gradIntercept)
		for _, g := range gradWeights {
			if math.Abs(g) > maxGrad {
				maxGrad = math.Abs(g)
			}
		}
		if maxGrad < lr.tol {
			break
		}
	}

	if maxGrad >= lr.tol {
		errors.Warn(errors.NewConvergenceWarning("LogisticRegression", lr.nIter_, ""))
	}

	lr.state.SetDimensions(nFeatures, nSamples)
	lr.state.SetFitted()
	return nil
}

// extractClasses identifies the sorted unique class labels.
func (lr *LogisticRegression) extractClasses(y mat.Matrix) {
	rows, _ := y.Dims()
	classMap := make(map[int]bool)
	for i := 0; i < rows; i++ {
		classMap[int(y.At(i, 0))] = true
	}

	lr.classes_ = lr.classes_[:0]
	for class := range classMap {
		lr.classes_ = append(lr.classes_, class)
	}
	for i := 0; i < len(lr.classes_)-1; i++ {
		for j := i + 1; j < len(lr.classes_); j++ {
			if lr.classes_[i] > lr.classes_[j] {
				lr.classes_[i], lr.classes_[j] = lr.classes_[j], lr.classes_[i]
			}
		}
	}
}

// Predict returns class labels using the 0.5 probability threshold.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.state.RequireFitted("LogisticRegression", "Predict"); err != nil {
		return nil, err
	}

	nSamples, nFeatures := X.Dims()
	if want, _ := lr.state.GetDimensions(); nFeatures != want {
		return nil, errors.NewDimensionError("LogisticRegression.Predict", want, nFeatures, 1)
	}

	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		if lr.probaPositive(X, i) >= 0.5 {
			predictions.Set(i, 0, float64(lr.classes_[1]))
		} else {
			predictions.Set(i, 0, float64(lr.classes_[0]))
		}
	}
	return predictions, nil
}

// PredictProba returns the (n×2) class probability estimates.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.state.RequireFitted("LogisticRegression", "PredictProba"); err != nil {
		return nil, err
	}

	nSamples, nFeatures := X.Dims()
	if want, _ := lr.state.GetDimensions(); nFeatures != want {
		return nil, errors.NewDimensionError("LogisticRegression.PredictProba", want, nFeatures, 1)
	}

	probas := mat.NewDense(nSamples, 2, nil)
	for i := 0; i < nSamples; i++ {
		p := lr.probaPositive(X, i)
		probas.Set(i, 0, 1-p)
		probas.Set(i, 1, p)
	}
	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels.
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lr.Predict(X)
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

// Coef returns the fitted coefficients.
func (lr *LogisticRegression) Coef() []float64 {
	return append([]float64(nil), lr.coef_...)
}

// Intercept returns the fitted intercept term.
func (lr *LogisticRegression) Intercept() float64 {
	return lr.intercept_
}

// Classes returns the sorted class labels seen during Fit.
func (lr *LogisticRegression) Classes() []int {
	return append([]int(nil), lr.classes_...)
}

// NIter returns the number of gradient descent iterations actually run.
func (lr *LogisticRegression) NIter() int {
	return lr.nIter_
}

func (lr *LogisticRegression) probaPositive(X mat.Matrix, row int) float64 {
	z := lr.intercept_
	for j := 0; j < lr.nFeatures_; j++ {
		z += X.At(row, j) * lr.coef_[j]
	}
	return sigmoid(z)
}

// sigmoid computes the logistic function.
func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
