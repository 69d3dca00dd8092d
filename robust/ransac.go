package robust

import (
	"context"
	"fmt"
	"time"

	"github.com/YuminosukeSato/robustfit/core/model"
	"github.com/YuminosukeSato/robustfit/core/parallel"
	"github.com/YuminosukeSato/robustfit/pkg/errors"
	"github.com/YuminosukeSato/robustfit/pkg/log"
)

// DefaultMaxIterations is the RANSAC iteration budget used when
// WithMaxIterations is not given.
const DefaultMaxIterations = 1000

// RANSAC (RANdom SAmple Consensus) fits a model to the largest consistent
// subset of the data.
//
// Each iteration estimates the model from a random minimal sample, scores
// every item, and keeps an owned snapshot of the best partition seen so far
// (ties go to the most recent). The StoppingCondition decides when to stop
// early and whether the final result is accepted. The best partition is
// published even when FitData returns false.
type RANSAC[T any] struct {
	// Hyperparameters
	template          model.Model[T]
	residual          model.Residual[T]
	check             model.DistanceCheck
	condition         StoppingCondition
	sampler           model.Sampler[T]
	maxIterations     int
	improveEstimate   bool
	refineOnExhausted bool
	parallelThreshold int
	seed              uint64
	logger            log.Logger

	// Results of the last FitData
	result      Result[T]
	iterations  int
	bestHistory []int
	state       *model.StateManager
}

// RANSACOption configures a RANSAC fitter.
type RANSACOption[T any] func(*RANSAC[T])

// WithMaxIterations sets the iteration budget L.
func WithMaxIterations[T any](n int) RANSACOption[T] {
	return func(r *RANSAC[T]) {
		r.maxIterations = n
	}
}

// WithThreshold classifies residuals strictly below t as inliers.
func WithThreshold[T any](t float64) RANSACOption[T] {
	return func(r *RANSAC[T]) {
		r.check = Threshold(t)
	}
}

// WithDistanceCheck sets an arbitrary inlier check.
func WithDistanceCheck[T any](check model.DistanceCheck) RANSACOption[T] {
	return func(r *RANSAC[T]) {
		r.check = check
	}
}

// WithStoppingCondition sets the stopping condition.
// The default is NumberInliers(0): stop at the first model with k inliers.
func WithStoppingCondition[T any](sc StoppingCondition) RANSACOption[T] {
	return func(r *RANSAC[T]) {
		r.condition = sc
	}
}

// WithSampler replaces the default UniformSampler.
func WithSampler[T any](s model.Sampler[T]) RANSACOption[T] {
	return func(r *RANSAC[T]) {
		r.sampler = s
	}
}

// WithSeed seeds the default sampler. Ignored when WithSampler is given.
func WithSeed[T any](seed uint64) RANSACOption[T] {
	return func(r *RANSAC[T]) {
		r.seed = seed
	}
}

// WithImproveEstimate controls whether an early-stopped fit re-estimates the
// model from all best inliers (default true). The refined model replaces the
// best snapshot only if it keeps at least as many inliers; otherwise the
// unrefined model is kept.
func WithImproveEstimate[T any](improve bool) RANSACOption[T] {
	return func(r *RANSAC[T]) {
		r.improveEstimate = improve
	}
}

// WithRefineOnExhaustion controls whether a fit that used the whole budget
// re-estimates the model from its best inliers regardless of
// WithImproveEstimate (default true). With false, both paths follow
// WithImproveEstimate. As with WithImproveEstimate, a refined model that loses
// inliers is discarded and the unrefined model is kept.
func WithRefineOnExhaustion[T any](refine bool) RANSACOption[T] {
	return func(r *RANSAC[T]) {
		r.refineOnExhausted = refine
	}
}

// WithParallelThreshold scores datasets larger than n items in parallel.
// The residual must then tolerate concurrent ComputeError calls on disjoint
// ranges. Zero (the default) scores sequentially.
func WithParallelThreshold[T any](n int) RANSACOption[T] {
	return func(r *RANSAC[T]) {
		r.parallelThreshold = n
	}
}

// WithLogger sets the logger. The default comes from log.GetLoggerWithName.
func WithLogger[T any](l log.Logger) RANSACOption[T] {
	return func(r *RANSAC[T]) {
		r.logger = l
	}
}

// NewRANSAC creates a RANSAC fitter around a model template. The template
// is never estimated itself; every fit works on clones of it.
// A threshold or distance check is required.
func NewRANSAC[T any](m model.Model[T], residual model.Residual[T], opts ...RANSACOption[T]) (*RANSAC[T], error) {
	r := &RANSAC[T]{
		template:          m,
		residual:          residual,
		maxIterations:     DefaultMaxIterations,
		improveEstimate:   true,
		refineOnExhausted: true,
		seed:              DefaultSeed,
		state:             model.NewStateManager(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := validateCollaborators(m, residual, r.check); err != nil {
		return nil, err
	}
	if t, ok := r.check.(Threshold); ok && !(float64(t) > 0) {
		return nil, errors.NewValidationError("threshold", "must be positive", float64(t))
	}
	if r.maxIterations < 1 {
		return nil, errors.NewValidationError("maxIterations", "must be at least 1", r.maxIterations)
	}
	if r.condition == nil {
		r.condition = NumberInliers(0)
	}
	if r.logger == nil {
		r.logger = log.GetLoggerWithName("robust.ransac")
	}
	r.logger = r.logger.With(log.FitterKey, "RANSAC")
	if r.sampler == nil {
		r.sampler = NewUniformSampler[T](r.seed)
		r.logger = r.logger.With(log.RandomSeedKey, r.seed)
	}
	return r, nil
}

func validateCollaborators[T any](m model.Model[T], residual model.Residual[T], check model.DistanceCheck) error {
	if m == nil {
		return errors.NewValidationError("model", "must not be nil", nil)
	}
	if m.NumItemsToEstimate() < 1 {
		return errors.NewValidationError("model", "minimal sample size must be at least 1", m.NumItemsToEstimate())
	}
	if residual == nil {
		return errors.NewValidationError("residual", "must not be nil", nil)
	}
	if check == nil {
		return errors.NewValidationError("distanceCheck", "a threshold or distance check is required", nil)
	}
	return nil
}

// FitData runs RANSAC on data.
//
// It returns false without error when data is smaller than the minimal
// sample, when the stopping condition refuses to initialise, when the
// refinement fails, or when the final condition rejects the best result.
// A rejection after the whole budget was used also emits a
// *errors.ConvergenceWarning through errors.Warn. A cancelled ctx returns
// false with the context error; a panic in a collaborator returns false with
// a *errors.PanicError. In every case the best partition found so far stays
// available through Result.
func (r *RANSAC[T]) FitData(ctx context.Context, data []T) (ok bool, err error) {
	defer errors.Recover(&err, "RANSAC.FitData")

	start := time.Now()
	n := len(data)
	k := r.template.NumItemsToEstimate()

	r.result = Result[T]{}
	r.iterations = 0
	r.bestHistory = r.bestHistory[:0]
	r.state.Begin(n)

	logger := r.logger.With(
		log.OperationKey, log.OperationFitData,
		log.SamplesKey, n,
		log.MinimalSampleKey, k,
		log.StoppingConditionKey, conditionName(r.condition),
	)

	if n < k {
		logger.Debug("not enough data for a minimal sample", log.ErrorCodeKey, log.ErrorInsufficientData)
		return false, nil
	}
	if !r.condition.Init(n, k) {
		logger.Debug("stopping condition rejected the dataset", log.ErrorCodeKey, log.ErrorInitFailed)
		return false, nil
	}

	r.sampler.SetCollection(data)
	current := r.template.Clone()
	errs := make([]float64, n)
	bestInliers := -1
	stopped := false

	for l := 0; l < r.maxIterations; l++ {
		if cerr := ctx.Err(); cerr != nil {
			r.finish(false)
			logger.Debug("fit cancelled", log.ErrorCodeKey, log.ErrorCancelled, log.IterationsKey, r.iterations)
			return false, errors.WithStack(cerr)
		}
		r.iterations++

		sample := r.sampler.Sample(k)
		if sample == nil || !current.Estimate(sample) {
			r.bestHistory = append(r.bestHistory, max(bestInliers, 0))
			continue
		}

		r.score(current, data, errs)
		numInliers := countInliers(errs, r.check)
		if numInliers >= bestInliers {
			bestInliers = numInliers
			r.result = partition(current.Clone(), data, errs, r.check)
		}
		r.bestHistory = append(r.bestHistory, bestInliers)

		if r.condition.ShouldStopIterations(numInliers) {
			stopped = true
			break
		}
	}

	if r.result.Model == nil {
		// every minimal sample was degenerate
		r.finish(false)
		logger.Debug("no minimal sample could be estimated", log.IterationsKey, r.iterations)
		return false, nil
	}

	refined := false
	if (stopped && r.improveEstimate) ||
		(!stopped && bestInliers >= k && (r.refineOnExhausted || r.improveEstimate)) {
		if !r.refine(data, errs, r.iterations) {
			r.finish(false)
			logger.Debug("refinement on best inliers failed",
				log.ErrorCodeKey, log.ErrorRefineFailed,
				log.InliersKey, len(r.result.Inliers),
				log.IterationsKey, r.iterations,
			)
			return false, nil
		}
		refined = true
	}

	ok = r.condition.FinalFitCondition(len(r.result.Inliers))
	r.finish(ok)
	if !ok && !stopped {
		errors.Warn(errors.NewConvergenceWarning("RANSAC", r.iterations,
			fmt.Sprintf("%s rejected the best model with %d inliers", conditionName(r.condition), len(r.result.Inliers))))
	}
	logger.Debug("fit finished",
		log.AcceptedKey, ok,
		log.RefinedKey, refined,
		log.InliersKey, len(r.result.Inliers),
		log.OutliersKey, len(r.result.Outliers),
		log.IterationsKey, r.iterations,
		log.MaxIterationsKey, r.maxIterations,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return ok, nil
}

func (r *RANSAC[T]) finish(accepted bool) {
	r.state.SetIterations(r.iterations)
	if r.result.Model != nil {
		r.state.Finish(accepted)
	}
}

// score writes the residual of every item against m into errs.
func (r *RANSAC[T]) score(m model.Model[T], data []T, errs []float64) {
	r.residual.SetModel(m)
	parallel.ParallelizeWithThreshold(len(data), r.parallelThreshold, func(start, end int) {
		r.residual.ComputeError(data[start:end], errs[start:end])
	})
}

// refine re-estimates a clone of the best model from all best inliers and
// rescores the data. The refined partition replaces the snapshot only if it
// keeps at least as many inliers. It reports false when the estimate fails.
func (r *RANSAC[T]) refine(data []T, errs []float64, iteration int) bool {
	before := len(r.result.Inliers)
	logger := r.logger.With(log.OperationKey, log.OperationRefine, log.IterationsKey, iteration)

	m := r.result.Model.Clone()
	if !m.Estimate(r.result.Inliers) {
		return false
	}
	r.score(m, data, errs)
	after := countInliers(errs, r.check)
	adopted := after >= before
	if adopted {
		r.result = partition(m, data, errs, r.check)
	}
	logger.Debug("refined on best inliers",
		log.InliersKey, after,
		log.RefinedKey, adopted,
	)
	return true
}

// Model returns the best model of the last fit, or nil.
func (r *RANSAC[T]) Model() model.Model[T] {
	return r.result.Model
}

// Inliers returns the inliers of the last fit in dataset order.
func (r *RANSAC[T]) Inliers() []T {
	return r.result.Inliers
}

// Outliers returns the outliers of the last fit in dataset order.
func (r *RANSAC[T]) Outliers() []T {
	return r.result.Outliers
}

// Result returns the full result of the last fit.
func (r *RANSAC[T]) Result() Result[T] {
	return r.result
}

// Iterations returns the number of iterations the last fit ran.
func (r *RANSAC[T]) Iterations() int {
	return r.iterations
}

// BestInlierHistory returns the best inlier count after each iteration.
func (r *RANSAC[T]) BestInlierHistory() []int {
	out := make([]int, len(r.bestHistory))
	copy(out, r.bestHistory)
	return out
}

// IsFitted reports whether the last fit produced a model.
func (r *RANSAC[T]) IsFitted() bool {
	return r.state.IsFitted()
}

// State returns a snapshot of the last fit's bookkeeping.
func (r *RANSAC[T]) State() model.FitState {
	return r.state.GetState()
}

var _ model.Fitter[int] = (*RANSAC[int])(nil)
