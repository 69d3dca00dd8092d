package model

import (
	"sync"
)

// StateManager records the outcome of the last FitData call of a fitter.
// Fitters embed it by composition; Reset is called at the start of every fit
// so nothing leaks from one call into the next.
type StateManager struct {
	mu sync.RWMutex

	fitted     bool
	accepted   bool
	nSamples   int
	iterations int
}

// NewStateManager creates a new StateManager instance.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted reports whether the last FitData produced a model, accepted or not.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fitted
}

// IsAccepted reports whether the last FitData accepted its result.
func (s *StateManager) IsAccepted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accepted
}

// Reset clears all recorded state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = false
	s.accepted = false
	s.nSamples = 0
	s.iterations = 0
}

// Begin resets the state and records the dataset size.
func (s *StateManager) Begin(nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = false
	s.accepted = false
	s.nSamples = nSamples
	s.iterations = 0
}

// SetIterations records how many iterations ran.
func (s *StateManager) SetIterations(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.iterations = n
}

// Finish records that a model was produced and whether it was accepted.
func (s *StateManager) Finish(accepted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = true
	s.accepted = accepted
}

// FitState is a snapshot of StateManager, e.g. for logging.
type FitState struct {
	Fitted     bool `json:"fitted"`
	Accepted   bool `json:"accepted"`
	NSamples   int  `json:"n_samples"`
	Iterations int  `json:"iterations"`
}

// GetState returns the current state.
func (s *StateManager) GetState() FitState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FitState{
		Fitted:     s.fitted,
		Accepted:   s.accepted,
		NSamples:   s.nSamples,
		Iterations: s.iterations,
	}
}
