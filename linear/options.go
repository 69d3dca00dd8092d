package linear

// Option is a function that configures Regression
type Option func(*Regression)

// WithParallelThreshold sets the number of rows above which the design
// matrix is filled in parallel. Zero or less disables parallelism.
func WithParallelThreshold(n int) Option {
	return func(r *Regression) {
		r.parallelThreshold = n
	}
}
