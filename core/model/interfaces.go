// Package model defines the collaborator contracts of the robust fitters:
// the data carrier, the estimable model, residual and inlier checks,
// samplers, and the shared fitting contract.
package model

// Pair is an immutable (independent, dependent) observation.
// Fitters only ever refer to pairs by their position in the input slice.
type Pair[I, D any] struct {
	Independent I
	Dependent   D
}

// NewPair creates a Pair.
func NewPair[I, D any](independent I, dependent D) Pair[I, D] {
	return Pair[I, D]{Independent: independent, Dependent: dependent}
}

// Model is a parametric model that can be estimated from a sample of T.
type Model[T any] interface {
	// NumItemsToEstimate is the minimal sample size k. It is constant for a
	// given model configuration and at least 1.
	NumItemsToEstimate() int

	// Estimate fits the model parameters to sample. It returns false when the
	// sample is degenerate; that is not an error.
	Estimate(sample []T) bool

	// Clone returns a deep copy sharing no mutable state with the receiver.
	Clone() Model[T]
}

// Residual scores items against the model last passed to SetModel.
type Residual[T any] interface {
	SetModel(m Model[T])

	// ComputeResidual returns the error of a single item.
	ComputeResidual(item T) float64

	// ComputeError writes the error of data[i] into out[i].
	// len(out) must be at least len(data).
	ComputeError(data []T, out []float64)
}

// DistanceCheck maps a residual to an inlier decision.
type DistanceCheck interface {
	Check(residual float64) bool
}

// Sampler draws random subsets of a collection.
type Sampler[T any] interface {
	SetCollection(data []T)

	// Sample returns count items drawn without replacement, or nil when the
	// collection holds fewer than count items.
	Sample(count int) []T
}
