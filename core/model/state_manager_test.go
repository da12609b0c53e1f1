package model

import (
	"testing"

	"github.com/YuminosukeSato/fitattend/pkg/errors"
)

func TestStateManager_RequireFitted(t *testing.T) {
	s := NewStateManager()

	err := s.RequireFitted("DemoModel", "Predict")
	if err == nil {
		t.Fatal("expected error before SetFitted")
	}
	var notFitted *errors.NotFittedError
	if !errors.As(err, &notFitted) {
		t.Errorf("expected NotFittedError, got %T: %v", err, err)
	}

	s.SetFitted()
	if err := s.RequireFitted("DemoModel", "Predict"); err != nil {
		t.Errorf("RequireFitted after SetFitted = %v, want nil", err)
	}
}

func TestStateManager_ResetClearsDimensions(t *testing.T) {
	s := NewStateManager()
	s.SetDimensions(5, 100)
	s.SetFitted()

	s.Reset()

	if s.IsFitted() {
		t.Error("IsFitted = true after Reset")
	}
	nFeatures, nSamples := s.GetDimensions()
	if nFeatures != 0 || nSamples != 0 {
		t.Errorf("GetDimensions after Reset = (%d, %d), want (0, 0)", nFeatures, nSamples)
	}
}
