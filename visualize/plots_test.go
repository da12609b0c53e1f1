package visualize

import (
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/fitattend/dataset"
	"github.com/YuminosukeSato/fitattend/metrics"
)

func plotFixture(t *testing.T) *dataset.Table {
	t.Helper()

	tbl := dataset.NewTable(dataset.Columns)
	rows := [][]string{
		{"GM001", "12", "79.5", "8", "Wed", "PM", "Strength", "0"},
		{"GM002", "5", "74.1", "2", "Mon", "AM", "HIIT", "1"},
		{"GM003", "24", "88.0", "14", "Mon", "AM", "Cycling", "1"},
		{"GM004", "3", "80.5", "1", "Fri", "PM", "Yoga", "0"},
		{"GM005", "18", "70.2", "6", "Wed", "AM", "HIIT", "1"},
		{"GM006", "9", "95.3", "10", "Sun", "PM", "Strength", "0"},
	}
	for _, row := range rows {
		if err := tbl.AppendRow(row); err != nil {
			t.Fatalf("AppendRow failed: %v", err)
		}
	}
	return tbl
}

func assertPNG(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("plot file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("plot file %s is empty", path)
	}
}

func TestAttendanceByWeekday(t *testing.T) {
	tbl := plotFixture(t)
	path := filepath.Join(t.TempDir(), "weekday.png")

	if err := AttendanceByWeekday(tbl, path); err != nil {
		t.Fatalf("AttendanceByWeekday failed: %v", err)
	}
	assertPNG(t, path)
}

func TestWeightHistogram(t *testing.T) {
	tbl := plotFixture(t)
	path := filepath.Join(t.TempDir(), "weights.png")

	if err := WeightHistogram(tbl, 5, path); err != nil {
		t.Fatalf("WeightHistogram failed: %v", err)
	}
	assertPNG(t, path)
}

func TestWeightHistogram_MalformedColumn(t *testing.T) {
	tbl := plotFixture(t)
	weights, err := tbl.Col(dataset.ColWeight)
	if err != nil {
		t.Fatalf("Col failed: %v", err)
	}
	weights[0] = "heavy"
	if err := tbl.SetCol(dataset.ColWeight, weights); err != nil {
		t.Fatalf("SetCol failed: %v", err)
	}

	if err := WeightHistogram(tbl, 5, filepath.Join(t.TempDir(), "weights.png")); err == nil {
		t.Error("expected parse error for malformed weight")
	}
}

func TestLeadTimeByOutcome(t *testing.T) {
	tbl := plotFixture(t)
	path := filepath.Join(t.TempDir(), "leadtime.png")

	if err := LeadTimeByOutcome(tbl, path); err != nil {
		t.Fatalf("LeadTimeByOutcome failed: %v", err)
	}
	assertPNG(t, path)
}

func TestROCOverlay(t *testing.T) {
	yTrue := mat.NewVecDense(6, []float64{0, 0, 0, 1, 1, 1})
	scoreA := mat.NewVecDense(6, []float64{0.1, 0.3, 0.4, 0.6, 0.7, 0.9})
	scoreB := mat.NewVecDense(6, []float64{0.4, 0.2, 0.6, 0.5, 0.8, 0.3})

	curveA, err := metrics.ROCCurve(yTrue, scoreA)
	if err != nil {
		t.Fatalf("ROCCurve failed: %v", err)
	}
	curveB, err := metrics.ROCCurve(yTrue, scoreB)
	if err != nil {
		t.Fatalf("ROCCurve failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "roc.png")
	err = ROCOverlay([]NamedCurve{
		{Name: "logistic regression", Points: curveA},
		{Name: "random forest", Points: curveB},
	}, path)
	if err != nil {
		t.Fatalf("ROCOverlay failed: %v", err)
	}
	assertPNG(t, path)
}

func TestROCOverlay_NoCurves(t *testing.T) {
	if err := ROCOverlay(nil, filepath.Join(t.TempDir(), "roc.png")); err == nil {
		t.Error("expected error for empty curve set")
	}
}
