// Package model provides fitted-state management, transformer interfaces and
// persistence of fitted parameters.
package model

import (
	"sync"

	"github.com/YuminosukeSato/robout/pkg/errors"
)

// StateManager guards the fitted state of a transformer.
// Readers (Transform, InverseTransform) run concurrently under Read; a fit
// swaps the state under Commit.
type StateManager struct {
	mu sync.RWMutex

	fitted    bool
	nFeatures int
	nSamples  int
}

// NewStateManager creates a new StateManager instance.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted returns whether the model has been fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fitted
}

// Reset resets the fitted state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = false
	s.nFeatures = 0
	s.nSamples = 0
}

// GetDimensions returns the number of features and samples seen during fitting.
func (s *StateManager) GetDimensions() (nFeatures, nSamples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nFeatures, s.nSamples
}

// Commit runs install under the write lock and, when it succeeds, marks the
// model as fitted with the given dimensions. A failing install leaves the
// previous state untouched.
func (s *StateManager) Commit(nFeatures, nSamples int, install func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if install != nil {
		if err := install(); err != nil {
			return err
		}
	}
	s.fitted = true
	s.nFeatures = nFeatures
	s.nSamples = nSamples
	return nil
}

// Read runs fn under the read lock after checking the model is fitted.
// modelName and method are used for the NotFittedError.
func (s *StateManager) Read(modelName, method string, fn func() error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.fitted {
		return errors.NewNotFittedError(modelName, method)
	}
	return fn()
}

// RequireFitted returns a NotFittedError if the model has not been fitted.
func (s *StateManager) RequireFitted(modelName, method string) error {
	if !s.IsFitted() {
		return errors.NewNotFittedError(modelName, method)
	}
	return nil
}

// ModelState is a snapshot of the fitted state, used for serialization and debugging.
type ModelState struct {
	Fitted    bool `json:"fitted" yaml:"fitted"`
	NFeatures int  `json:"n_features,omitempty" yaml:"n_features,omitempty"`
	NSamples  int  `json:"n_samples,omitempty" yaml:"n_samples,omitempty"`
}

// GetState returns the current state as a ModelState struct.
func (s *StateManager) GetState() ModelState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ModelState{
		Fitted:    s.fitted,
		NFeatures: s.nFeatures,
		NSamples:  s.nSamples,
	}
}
