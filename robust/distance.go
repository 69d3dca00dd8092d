package robust

import "github.com/YuminosukeSato/robustfit/core/model"

// Threshold accepts residuals strictly below its value.
type Threshold float64

// Check implements model.DistanceCheck.
func (t Threshold) Check(residual float64) bool {
	return residual < float64(t)
}

// DistanceCheckFunc adapts a function into a model.DistanceCheck.
type DistanceCheckFunc func(residual float64) bool

// Check implements model.DistanceCheck.
func (f DistanceCheckFunc) Check(residual float64) bool {
	return f(residual)
}

var (
	_ model.DistanceCheck = Threshold(0)
	_ model.DistanceCheck = DistanceCheckFunc(nil)
)
