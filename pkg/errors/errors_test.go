package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		kind     string
		err      error
		wantMsg  string
		hasStack bool
	}{
		{
			name:     "with original error",
			op:       "Fit",
			kind:     "invalid input",
			err:      fmt.Errorf("test error"),
			wantMsg:  "fitattend: Fit: invalid input: test error",
			hasStack: true,
		},
		{
			name:     "without original error",
			op:       "Predict",
			kind:     "not fitted",
			err:      nil,
			wantMsg:  "fitattend: Predict: not fitted",
			hasStack: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			// 基本的なエラーメッセージの確認
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			if tt.hasStack {
				formatted := fmt.Sprintf("%+v", err)
				if !strings.Contains(formatted, "errors_test.go") {
					t.Error("Expected stack trace to contain test file name")
				}
			}

			// ModelError型にキャスト可能か確認
			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Predict", 10, 8, 0)

	// 基本的なエラーメッセージの確認
	want := "fitattend: Predict: dimension mismatch on axis 0 (rows). Expected 10, got 8"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	// DimensionError型にキャスト可能か確認
	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Error("Error should be castable to *DimensionError")
	}
}

func TestNewParseError(t *testing.T) {
	err := NewParseError("ParseDayCount", "days_before", "about a week")

	want := `fitattend: ParseDayCount: cannot parse "about a week" in field 'days_before'`
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var parseErr *ParseError
	if !As(err, &parseErr) {
		t.Error("Error should be castable to *ParseError")
	}
	if parseErr.Field != "days_before" {
		t.Errorf("Field = %v, want days_before", parseErr.Field)
	}
}

func TestNewUnknownLabelError(t *testing.T) {
	err := NewUnknownLabelError("day_of_week", "Frii", []string{"Mon", "Tue"})

	if !strings.Contains(err.Error(), `unknown label "Frii"`) {
		t.Errorf("Error() = %v, want mention of unknown label", err.Error())
	}
	if !strings.Contains(err.Error(), "Mon, Tue") {
		t.Errorf("Error() = %v, want known labels listed", err.Error())
	}

	var labelErr *UnknownLabelError
	if !As(err, &labelErr) {
		t.Error("Error should be castable to *UnknownLabelError")
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("LogisticRegression", "Predict")

	if !strings.Contains(err.Error(), "LogisticRegression") {
		t.Errorf("Error() should contain model name, got %v", err.Error())
	}
	if !strings.Contains(err.Error(), "Call Fit() before using Predict()") {
		t.Errorf("Error() should tell the caller to fit first, got %v", err.Error())
	}
}

func TestWarningHandler(t *testing.T) {
	var captured error
	SetWarningHandler(func(w error) { captured = w })
	defer SetWarningHandler(nil)

	w := NewUndefinedMetricWarning("AUC", "only one class present in yTrue", 0.5)
	Warn(w)

	if captured == nil {
		t.Fatal("warning handler was not invoked")
	}
	if !strings.Contains(captured.Error(), "'AUC' is ill-defined") {
		t.Errorf("unexpected warning message: %v", captured.Error())
	}
}

func TestRecover(t *testing.T) {
	fn := func() (err error) {
		defer Recover(&err, "explode")
		panic("boom")
	}

	err := fn()
	if err == nil {
		t.Fatal("expected error from recovered panic")
	}

	var panicErr *PanicError
	if !As(err, &panicErr) {
		t.Fatalf("expected *PanicError, got %T", err)
	}
	if panicErr.Operation != "explode" {
		t.Errorf("Operation = %v, want explode", panicErr.Operation)
	}
}
