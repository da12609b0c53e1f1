package ensemble

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/fitattend/pkg/errors"
)

// corruptMatrix reports valid dimensions but panics when read.
type corruptMatrix struct{ rows, cols int }

func (m corruptMatrix) Dims() (int, int)    { return m.rows, m.cols }
func (m corruptMatrix) At(i, j int) float64 { panic("corrupt backing store") }
func (m corruptMatrix) T() mat.Matrix       { return m }

// TestDecisionTreeClassifier_FitPanicRecovered tests that a panic inside Fit
// surfaces as an error instead of crashing the caller
func TestDecisionTreeClassifier_FitPanicRecovered(t *testing.T) {
	y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})

	dt := NewDecisionTreeClassifier()
	err := dt.Fit(corruptMatrix{rows: 4, cols: 2}, y)
	if err == nil {
		t.Fatal("expected error from panicking input matrix")
	}

	var panicErr *errors.PanicError
	if !errors.As(err, &panicErr) {
		t.Errorf("expected PanicError, got %T: %v", err, err)
	}
}

// TestDecisionTreeClassifier_FitPredict_Binary tests binary classification
func TestDecisionTreeClassifier_FitPredict_Binary(t *testing.T) {
	// Create simple linearly separable data
	X := mat.NewDense(8, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		1, 1,
		3, 3,
		3, 4,
		4, 3,
		4, 4,
	})

	y := mat.NewDense(8, 1, []float64{
		0, 0, 0, 0, // Class 0 (lower left)
		1, 1, 1, 1, // Class 1 (upper right)
	})

	dt := NewDecisionTreeClassifier(
		WithCriterion("gini"),
		WithMaxDepth(5),
	)

	err := dt.Fit(X, y)
	if err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	predictions, err := dt.Predict(X)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}

	for i := 0; i < 8; i++ {
		pred := predictions.At(i, 0)
		actual := y.At(i, 0)
		if pred != actual {
			t.Errorf("Sample %d: expected %v, got %v", i, actual, pred)
		}
	}

	// Test on new data
	XTest := mat.NewDense(2, 2, []float64{
		0.5, 0.5, // Should be class 0
		3.5, 3.5, // Should be class 1
	})

	testPreds, err := dt.Predict(XTest)
	if err != nil {
		t.Fatalf("Failed to predict on test data: %v", err)
	}

	if testPreds.At(0, 0) != 0 {
		t.Errorf("Test point (0.5,0.5) should be class 0, got %v", testPreds.At(0, 0))
	}
	if testPreds.At(1, 0) != 1 {
		t.Errorf("Test point (3.5,3.5) should be class 1, got %v", testPreds.At(1, 0))
	}
}

// TestDecisionTreeClassifier_PredictProba tests probability predictions
func TestDecisionTreeClassifier_PredictProba(t *testing.T) {
	X := mat.NewDense(6, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		2, 2,
		2, 3,
		3, 2,
	})

	y := mat.NewDense(6, 1, []float64{
		0, 0, 0, // Class 0
		1, 1, 1, // Class 1
	})

	dt := NewDecisionTreeClassifier(
		WithMaxDepth(3),
	)

	err := dt.Fit(X, y)
	if err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	probas, err := dt.PredictProba(X)
	if err != nil {
		t.Fatalf("Failed to predict probabilities: %v", err)
	}

	rows, cols := probas.Dims()
	if rows != 6 || cols != 2 {
		t.Errorf("Expected probas shape (6, 2), got (%d, %d)", rows, cols)
	}

	// Check that probabilities sum to 1
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			prob := probas.At(i, j)
			if prob < 0 || prob > 1 {
				t.Errorf("Invalid probability at (%d, %d): %v", i, j, prob)
			}
			sum += prob
		}
		if math.Abs(sum-1.0) > 1e-6 {
			t.Errorf("Probabilities for sample %d don't sum to 1: %v", i, sum)
		}
	}
}

// TestDecisionTreeClassifier_Score tests accuracy calculation
func TestDecisionTreeClassifier_Score(t *testing.T) {
	// Create XOR-like data with more samples for better learning
	X := mat.NewDense(8, 2, []float64{
		0.0, 0.0,
		0.0, 0.1,
		0.1, 1.0,
		0.0, 0.9,
		1.0, 0.0,
		0.9, 0.0,
		1.0, 1.0,
		0.9, 0.9,
	})

	y := mat.NewDense(8, 1, []float64{
		0, 0, // Both low -> class 0
		1, 1, // One high, one low -> class 1
		1, 1, // One high, one low -> class 1
		0, 0, // Both high -> class 0
	})

	dt := NewDecisionTreeClassifier(
		WithMaxDepth(5),
		WithMinSamplesLeaf(1),
	)

	err := dt.Fit(X, y)
	if err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	score := dt.Score(X, y)
	if score != 1.0 {
		t.Errorf("Decision tree should perfectly fit XOR-like data, got score: %v", score)
	}
}

// TestDecisionTreeClassifier_Entropy tests entropy criterion
func TestDecisionTreeClassifier_Entropy(t *testing.T) {
	X := mat.NewDense(6, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		2, 2,
		2, 3,
		3, 2,
	})

	y := mat.NewDense(6, 1, []float64{
		0, 0, 0,
		1, 1, 1,
	})

	dt := NewDecisionTreeClassifier(
		WithCriterion("entropy"),
		WithMaxDepth(3),
	)

	err := dt.Fit(X, y)
	if err != nil {
		t.Fatalf("Failed to fit with entropy: %v", err)
	}

	score := dt.Score(X, y)
	if score != 1.0 {
		t.Errorf("Expected perfect score on simple data, got %v", score)
	}
}

// TestDecisionTreeClassifier_FeatureImportance tests feature importance calculation
func TestDecisionTreeClassifier_FeatureImportance(t *testing.T) {
	// Create data where feature 0 determines the class
	X := mat.NewDense(8, 3, []float64{
		0, 0, 0,
		0, 1, 1,
		0, 0, 1,
		0, 1, 0,
		1, 0, 0,
		1, 1, 1,
		1, 0, 1,
		1, 1, 0,
	})

	y := mat.NewDense(8, 1, []float64{
		0, 0, 0, 0, // Class 0 when feature 0 = 0
		1, 1, 1, 1, // Class 1 when feature 0 = 1
	})

	dt := NewDecisionTreeClassifier()
	err := dt.Fit(X, y)
	if err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	importances := dt.GetFeatureImportances()
	if len(importances) != 3 {
		t.Fatalf("Expected 3 feature importances, got %d", len(importances))
	}

	// Feature 0 should have highest importance
	if importances[0] <= importances[1] || importances[0] <= importances[2] {
		t.Errorf("Feature 0 should have highest importance: %v", importances)
	}

	// Sum should be 1 (normalized)
	sum := 0.0
	for _, imp := range importances {
		sum += imp
	}
	if math.Abs(sum-1.0) > 1e-6 {
		t.Errorf("Feature importances should sum to 1, got %v", sum)
	}
}

// TestDecisionTreeClassifier_MaxDepth tests max depth constraint
func TestDecisionTreeClassifier_MaxDepth(t *testing.T) {
	X := mat.NewDense(16, 2, nil)
	y := mat.NewDense(16, 1, nil)

	for i := 0; i < 16; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64(i%4))
		y.Set(i, 0, float64(i%2))
	}

	dt := NewDecisionTreeClassifier(
		WithMaxDepth(2),
	)

	err := dt.Fit(X, y)
	if err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	depth := dt.GetDepth()
	if depth > 2 {
		t.Errorf("Tree depth %d exceeds max_depth=2", depth)
	}
}

// TestDecisionTreeClassifier_MinSamples tests minimum samples constraints
func TestDecisionTreeClassifier_MinSamples(t *testing.T) {
	X := mat.NewDense(10, 2, nil)
	y := mat.NewDense(10, 1, nil)

	for i := 0; i < 10; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64(i%3))
		y.Set(i, 0, float64(i%2))
	}

	dt := NewDecisionTreeClassifier(
		WithMinSamplesSplit(5),
		WithMinSamplesLeaf(2),
	)

	err := dt.Fit(X, y)
	if err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	nLeaves := dt.GetNLeaves()
	if nLeaves > 5 {
		t.Errorf("Too many leaves %d for min_samples constraints", nLeaves)
	}
}

// TestDecisionTreeClassifier_NotFitted tests error when predicting without fitting
func TestDecisionTreeClassifier_NotFitted(t *testing.T) {
	dt := NewDecisionTreeClassifier()

	X := mat.NewDense(2, 2, []float64{
		1, 2,
		3, 4,
	})

	if _, err := dt.Predict(X); err == nil {
		t.Error("Expected error when predicting without fitting")
	}
	if _, err := dt.PredictProba(X); err == nil {
		t.Error("Expected error when predicting probabilities without fitting")
	}
}
