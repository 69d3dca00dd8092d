package robust

import (
	"context"
	"math"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/robustfit/core/model"
	"github.com/YuminosukeSato/robustfit/metrics"
	"github.com/YuminosukeSato/robustfit/pkg/errors"
	"github.com/YuminosukeSato/robustfit/pkg/log"
)

// LMedS defaults.
const (
	DefaultProbability       = 0.99
	DefaultOutlierProportion = 0.4
	DefaultDegreesOfFreedom  = 2.0

	// UnknownNoiseLevel makes LMedS estimate the noise scale from the data.
	UnknownNoiseLevel = -1.0
)

// LMedS (Least Median of Squares) keeps the model whose median error over
// the whole dataset is smallest, then classifies items against a threshold
// derived from that median or from a known noise level.
//
// The residual is expected to return squared errors.
type LMedS[T any] struct {
	// Hyperparameters
	template          model.Model[T]
	residual          model.Residual[T]
	probability       float64
	inlierNoiseLevel  float64
	outlierProportion float64
	degreesOfFreedom  float64
	sampler           model.Sampler[T]
	seed              uint64
	logger            log.Logger

	// Results of the last FitData
	result          Result[T]
	numSamples      int
	bestMedianError float64
	threshold       float64
	medianHistory   []float64
	state           *model.StateManager
}

// LMedSOption configures an LMedS fitter.
type LMedSOption[T any] func(*LMedS[T])

// WithProbability sets the confidence of drawing at least one clean sample.
func WithProbability[T any](p float64) LMedSOption[T] {
	return func(l *LMedS[T]) {
		l.probability = p
	}
}

// WithInlierNoiseLevel sets the known inlier noise sigma. UnknownNoiseLevel
// (the default) estimates it from the best median error.
func WithInlierNoiseLevel[T any](sigma float64) LMedSOption[T] {
	return func(l *LMedS[T]) {
		l.inlierNoiseLevel = sigma
	}
}

// WithOutlierProportion sets the assumed outlier fraction e.
func WithOutlierProportion[T any](e float64) LMedSOption[T] {
	return func(l *LMedS[T]) {
		l.outlierProportion = e
	}
}

// WithDegreesOfFreedom sets the chi-squared degrees of freedom used with a
// known noise level.
func WithDegreesOfFreedom[T any](df float64) LMedSOption[T] {
	return func(l *LMedS[T]) {
		l.degreesOfFreedom = df
	}
}

// WithLMedSSampler replaces the default UniformSampler.
func WithLMedSSampler[T any](s model.Sampler[T]) LMedSOption[T] {
	return func(l *LMedS[T]) {
		l.sampler = s
	}
}

// WithLMedSSeed seeds the default sampler.
func WithLMedSSeed[T any](seed uint64) LMedSOption[T] {
	return func(l *LMedS[T]) {
		l.seed = seed
	}
}

// WithLMedSLogger sets the logger.
func WithLMedSLogger[T any](logger log.Logger) LMedSOption[T] {
	return func(l *LMedS[T]) {
		l.logger = logger
	}
}

// NewLMedS creates an LMedS fitter around a model template.
func NewLMedS[T any](m model.Model[T], residual model.Residual[T], opts ...LMedSOption[T]) (*LMedS[T], error) {
	l := &LMedS[T]{
		template:          m,
		residual:          residual,
		probability:       DefaultProbability,
		inlierNoiseLevel:  UnknownNoiseLevel,
		outlierProportion: DefaultOutlierProportion,
		degreesOfFreedom:  DefaultDegreesOfFreedom,
		seed:              DefaultSeed,
		bestMedianError:   math.Inf(1),
		state:             model.NewStateManager(),
	}
	for _, opt := range opts {
		opt(l)
	}

	// 判定は閾値で行うので DistanceCheck は不要
	if err := validateCollaborators(m, residual, Threshold(0)); err != nil {
		return nil, err
	}
	if !openUnit(l.probability) {
		return nil, errors.NewValidationError("probability", "must be in (0, 1)", l.probability)
	}
	if !(l.outlierProportion >= 0 && l.outlierProportion < 1) {
		return nil, errors.NewValidationError("outlierProportion", "must be in [0, 1)", l.outlierProportion)
	}
	if !(l.degreesOfFreedom > 0) {
		return nil, errors.NewValidationError("degreesOfFreedom", "must be positive", l.degreesOfFreedom)
	}
	if l.inlierNoiseLevel != UnknownNoiseLevel && !(l.inlierNoiseLevel > 0) {
		return nil, errors.NewValidationError("inlierNoiseLevel", "must be positive or UnknownNoiseLevel", l.inlierNoiseLevel)
	}

	l.numSamples = numSamples(l.probability, l.outlierProportion, m.NumItemsToEstimate())
	if l.logger == nil {
		l.logger = log.GetLoggerWithName("robust.lmeds")
	}
	l.logger = l.logger.With(log.FitterKey, "LMedS")
	if l.sampler == nil {
		l.sampler = NewUniformSampler[T](l.seed)
		l.logger = l.logger.With(log.RandomSeedKey, l.seed)
	}
	return l, nil
}

// numSamples is the number of minimal samples needed to draw at least one
// outlier-free sample with the given probability:
//
//	ceil(ln(1-p) / ln(1-(1-e)^k))
func numSamples(p, e float64, k int) int {
	denom := math.Log(1 - math.Pow(1-e, float64(k)))
	n := math.Ceil(math.Log(1-p) / denom)
	if math.IsNaN(n) || n < 1 {
		return 1
	}
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

// FitData runs LMedS on data.
//
// It returns true iff the fraction of outliers is below the assumed outlier
// proportion. With fewer items than the minimal sample, or when no sample
// could be estimated, it returns false with an empty result. With exactly k
// items and an unknown noise level the scale estimate is undefined: the
// call returns false with a *errors.ModelError wrapping
// errors.ErrZeroSampleExcess, and the best model stays available with every
// item classified as an outlier.
func (l *LMedS[T]) FitData(ctx context.Context, data []T) (ok bool, err error) {
	defer errors.Recover(&err, "LMedS.FitData")

	start := time.Now()
	n := len(data)
	k := l.template.NumItemsToEstimate()

	l.result = Result[T]{}
	l.bestMedianError = math.Inf(1)
	l.threshold = 0
	l.medianHistory = l.medianHistory[:0]
	l.state.Begin(n)

	logger := l.logger.With(
		log.OperationKey, log.OperationFitData,
		log.SamplesKey, n,
		log.MinimalSampleKey, k,
		log.MaxIterationsKey, l.numSamples,
	)

	if n < k {
		logger.Debug("not enough data for a minimal sample", log.ErrorCodeKey, log.ErrorInsufficientData)
		return false, nil
	}

	l.sampler.SetCollection(data)
	current := l.template.Clone()
	errs := make([]float64, n)
	var best model.Model[T]
	var bestErrs []float64

	iterations := 0
	for s := 0; s < l.numSamples; s++ {
		if cerr := ctx.Err(); cerr != nil {
			if best != nil {
				l.result = allOutliers(best, data)
			}
			l.finish(iterations, false)
			logger.Debug("fit cancelled", log.ErrorCodeKey, log.ErrorCancelled, log.IterationsKey, iterations)
			return false, errors.WithStack(cerr)
		}
		iterations++

		sample := l.sampler.Sample(k)
		if sample == nil || !current.Estimate(sample) {
			l.medianHistory = append(l.medianHistory, l.bestMedianError)
			continue
		}

		l.residual.SetModel(current)
		l.residual.ComputeError(data, errs)
		median, merr := metrics.Median(errs)
		if merr != nil {
			return false, merr
		}
		if median < l.bestMedianError {
			l.bestMedianError = median
			best = current.Clone()
			bestErrs = append(bestErrs[:0], errs...)
		}
		l.medianHistory = append(l.medianHistory, l.bestMedianError)
	}

	if best == nil {
		l.finish(iterations, false)
		logger.Debug("no minimal sample could be estimated", log.IterationsKey, iterations)
		return false, nil
	}

	threshold, err := l.deriveThreshold(n, k)
	if err != nil {
		l.result = allOutliers(best, data)
		l.finish(iterations, false)
		logger.Debug("threshold derivation failed", log.MedianErrorKey, l.bestMedianError)
		return false, err
	}
	l.threshold = threshold

	l.result = partition(best, data, bestErrs, Threshold(threshold))
	ok = float64(len(l.result.Outliers))/float64(n) < l.outlierProportion
	l.finish(iterations, ok)

	logger.Debug("fit finished",
		log.AcceptedKey, ok,
		log.MedianErrorKey, l.bestMedianError,
		log.ThresholdKey, threshold,
		log.InliersKey, len(l.result.Inliers),
		log.OutliersKey, len(l.result.Outliers),
		log.IterationsKey, iterations,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return ok, nil
}

// deriveThreshold converts the best median error (or the known noise level)
// into an inlier threshold.
func (l *LMedS[T]) deriveThreshold(n, k int) (float64, error) {
	var threshold float64
	if l.inlierNoiseLevel != UnknownNoiseLevel {
		chi2 := distuv.ChiSquared{K: l.degreesOfFreedom}
		threshold = l.inlierNoiseLevel * l.inlierNoiseLevel * chi2.Quantile(l.probability)
	} else {
		sigma, err := metrics.RobustSigma(l.bestMedianError, n, k)
		if err != nil {
			return 0, err
		}
		threshold = 2 * sigma
	}
	if err := errors.CheckScalar("LMedS.threshold", threshold, 0); err != nil {
		return 0, err
	}
	return threshold, nil
}

func (l *LMedS[T]) finish(iterations int, accepted bool) {
	l.state.SetIterations(iterations)
	if l.result.Model != nil {
		l.state.Finish(accepted)
	}
}

// Model returns the best model of the last fit, or nil.
func (l *LMedS[T]) Model() model.Model[T] {
	return l.result.Model
}

// Inliers returns the inliers of the last fit in dataset order.
func (l *LMedS[T]) Inliers() []T {
	return l.result.Inliers
}

// Outliers returns the outliers of the last fit in dataset order.
func (l *LMedS[T]) Outliers() []T {
	return l.result.Outliers
}

// Result returns the full result of the last fit.
func (l *LMedS[T]) Result() Result[T] {
	return l.result
}

// BestMedianError returns the smallest median error of the last fit.
func (l *LMedS[T]) BestMedianError() float64 {
	return l.bestMedianError
}

// Threshold returns the inlier threshold derived by the last fit.
func (l *LMedS[T]) Threshold() float64 {
	return l.threshold
}

// NumSamples returns the number of minimal samples drawn per fit.
func (l *LMedS[T]) NumSamples() int {
	return l.numSamples
}

// MedianHistory returns the best median error after each sample.
func (l *LMedS[T]) MedianHistory() []float64 {
	out := make([]float64, len(l.medianHistory))
	copy(out, l.medianHistory)
	return out
}

// IsFitted reports whether the last fit produced a model.
func (l *LMedS[T]) IsFitted() bool {
	return l.state.IsFitted()
}

// State returns a snapshot of the last fit's bookkeeping.
func (l *LMedS[T]) State() model.FitState {
	return l.state.GetState()
}

var _ model.Fitter[int] = (*LMedS[int])(nil)
