package model

// ResidualFunc adapts a plain scoring function into a Residual.
// The batch form loops over the per-item form.
type ResidualFunc[T any] struct {
	fn    func(m Model[T], item T) float64
	model Model[T]
}

// NewResidualFunc wraps fn.
func NewResidualFunc[T any](fn func(m Model[T], item T) float64) *ResidualFunc[T] {
	return &ResidualFunc[T]{fn: fn}
}

func (r *ResidualFunc[T]) SetModel(m Model[T]) {
	r.model = m
}

func (r *ResidualFunc[T]) ComputeResidual(item T) float64 {
	return r.fn(r.model, item)
}

func (r *ResidualFunc[T]) ComputeError(data []T, out []float64) {
	for i, item := range data {
		out[i] = r.fn(r.model, item)
	}
}
