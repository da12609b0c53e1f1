// Package model provides state management for machine learning models.
package model

import (
	"sync"

	"github.com/YuminosukeSato/fitattend/pkg/errors"
)

// StateManager manages the fitted state of a model in a thread-safe manner.
// Estimators hold it by composition rather than embedding a base struct.
type StateManager struct {
	Fitted bool
	mu     sync.RWMutex

	// Dimensions seen during fitting.
	NFeatures int
	NSamples  int
}

// NewStateManager creates a new StateManager instance.
func NewStateManager() *StateManager {
	return &StateManager{
		Fitted: false,
	}
}

// IsFitted returns whether the model has been fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Fitted
}

// SetFitted marks the model as fitted.
func (s *StateManager) SetFitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = true
}

// Reset resets the fitted state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = false
	s.NFeatures = 0
	s.NSamples = 0
}

// SetDimensions sets the number of features and samples seen during fitting.
func (s *StateManager) SetDimensions(nFeatures, nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NFeatures = nFeatures
	s.NSamples = nSamples
}

// GetDimensions returns the number of features and samples seen during fitting.
func (s *StateManager) GetDimensions() (nFeatures, nSamples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.NFeatures, s.NSamples
}

// RequireFitted returns a NotFittedError naming the model and the method
// that was called if the model has not been fitted.
func (s *StateManager) RequireFitted(model, method string) error {
	if !s.IsFitted() {
		return errors.NewNotFittedError(model, method)
	}
	return nil
}
