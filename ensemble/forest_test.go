package ensemble

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/fitattend/pkg/errors"
)

func forestFixture() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(12, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		1, 1,
		0.5, 0.5,
		0.2, 0.8,
		4, 4,
		4, 5,
		5, 4,
		5, 5,
		4.5, 4.5,
		4.2, 4.8,
	})
	y := mat.NewDense(12, 1, []float64{
		0, 0, 0, 0, 0, 0,
		1, 1, 1, 1, 1, 1,
	})
	return X, y
}

// TestRandomForestClassifier_FitPredict tests binary classification
func TestRandomForestClassifier_FitPredict(t *testing.T) {
	X, y := forestFixture()

	rf := NewRandomForestClassifier(
		WithNEstimators(25),
		WithForestMaxDepth(5),
		WithForestRandomState(42),
	)

	err := rf.Fit(X, y)
	if err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	if rf.NEstimators() != 25 {
		t.Errorf("NEstimators() = %d, want 25", rf.NEstimators())
	}

	predictions, err := rf.Predict(X)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}

	correct := 0
	for i := 0; i < 12; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	if correct < 11 {
		t.Errorf("Only %d/12 training samples classified correctly", correct)
	}

	// Test on new data far inside each cluster
	XTest := mat.NewDense(2, 2, []float64{
		0.3, 0.3, // Should be class 0
		4.7, 4.7, // Should be class 1
	})

	testPreds, err := rf.Predict(XTest)
	if err != nil {
		t.Fatalf("Failed to predict on test data: %v", err)
	}
	if testPreds.At(0, 0) != 0 {
		t.Errorf("Test point (0.3,0.3) should be class 0, got %v", testPreds.At(0, 0))
	}
	if testPreds.At(1, 0) != 1 {
		t.Errorf("Test point (4.7,4.7) should be class 1, got %v", testPreds.At(1, 0))
	}
}

// TestRandomForestClassifier_PredictProba tests probability predictions
func TestRandomForestClassifier_PredictProba(t *testing.T) {
	X, y := forestFixture()

	rf := NewRandomForestClassifier(
		WithNEstimators(15),
		WithForestRandomState(7),
	)

	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	probas, err := rf.PredictProba(X)
	if err != nil {
		t.Fatalf("Failed to predict probabilities: %v", err)
	}

	rows, cols := probas.Dims()
	if rows != 12 || cols != 2 {
		t.Errorf("Expected probas shape (12, 2), got (%d, %d)", rows, cols)
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

	// Averaged probabilities should separate the clusters clearly
	if probas.At(0, 0) <= probas.At(0, 1) {
		t.Errorf("Sample 0 should favor class 0: %v vs %v", probas.At(0, 0), probas.At(0, 1))
	}
	if probas.At(11, 1) <= probas.At(11, 0) {
		t.Errorf("Sample 11 should favor class 1: %v vs %v", probas.At(11, 0), probas.At(11, 1))
	}
}

// TestRandomForestClassifier_Reproducible tests seed determinism
func TestRandomForestClassifier_Reproducible(t *testing.T) {
	X, y := forestFixture()

	a := NewRandomForestClassifier(WithNEstimators(10), WithForestRandomState(3))
	b := NewRandomForestClassifier(WithNEstimators(10), WithForestRandomState(3))

	if err := a.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}
	if err := b.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	pa, err := a.PredictProba(X)
	if err != nil {
		t.Fatalf("Failed to predict probabilities: %v", err)
	}
	pb, err := b.PredictProba(X)
	if err != nil {
		t.Fatalf("Failed to predict probabilities: %v", err)
	}

	rows, cols := pa.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if pa.At(i, j) != pb.At(i, j) {
				t.Fatalf("probabilities differ at (%d,%d) under the same seed: %v vs %v",
					i, j, pa.At(i, j), pb.At(i, j))
			}
		}
	}
}

// TestRandomForestClassifier_Score tests accuracy calculation
func TestRandomForestClassifier_Score(t *testing.T) {
	X, y := forestFixture()

	rf := NewRandomForestClassifier(WithNEstimators(20), WithForestRandomState(1))
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	score, err := rf.Score(X, y)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if score < 0.9 {
		t.Errorf("Score = %v, want >= 0.9 on well-separated clusters", score)
	}
}

// TestRandomForestClassifier_FeatureImportances tests importance aggregation
func TestRandomForestClassifier_FeatureImportances(t *testing.T) {
	// Only feature 0 carries signal
	X := mat.NewDense(12, 2, nil)
	y := mat.NewDense(12, 1, nil)
	for i := 0; i < 12; i++ {
		if i < 6 {
			X.Set(i, 0, float64(i)*0.1)
		} else {
			X.Set(i, 0, 5+float64(i)*0.1)
			y.Set(i, 0, 1)
		}
		X.Set(i, 1, float64(i%2))
	}

	rf := NewRandomForestClassifier(
		WithNEstimators(20),
		WithForestMaxFeatures(2),
		WithForestRandomState(5),
	)
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	imp := rf.FeatureImportances()
	if len(imp) != 2 {
		t.Fatalf("expected 2 importances, got %d", len(imp))
	}
	if imp[0] <= imp[1] {
		t.Errorf("feature 0 should dominate importances: %v", imp)
	}
}

// TestRandomForestClassifier_NotFitted tests error before fitting
func TestRandomForestClassifier_NotFitted(t *testing.T) {
	rf := NewRandomForestClassifier()
	X := mat.NewDense(1, 2, []float64{1, 2})

	if _, err := rf.Predict(X); err == nil {
		t.Error("Expected error when predicting without fitting")
	}
	if _, err := rf.PredictProba(X); err == nil {
		t.Error("Expected error when predicting probabilities without fitting")
	}
}

// TestRandomForestClassifier_FitPanicRecovered tests that a panic during
// tree training surfaces as an error instead of crashing the caller
func TestRandomForestClassifier_FitPanicRecovered(t *testing.T) {
	y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})

	rf := NewRandomForestClassifier(WithNEstimators(3))
	err := rf.Fit(corruptMatrix{rows: 4, cols: 2}, y)
	if err == nil {
		t.Fatal("expected error from panicking input matrix")
	}

	var panicErr *errors.PanicError
	if !errors.As(err, &panicErr) {
		t.Errorf("expected PanicError, got %T: %v", err, err)
	}
}

// TestRandomForestClassifier_DimensionMismatch tests shape validation
func TestRandomForestClassifier_DimensionMismatch(t *testing.T) {
	X, y := forestFixture()

	rf := NewRandomForestClassifier(WithNEstimators(5), WithForestRandomState(2))
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	XBad := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	if _, err := rf.Predict(XBad); err == nil {
		t.Error("expected dimension error for wrong feature count")
	}
}
