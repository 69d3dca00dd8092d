package robust

import (
	"context"

	"github.com/YuminosukeSato/robustfit/core/model"
	"github.com/YuminosukeSato/robustfit/pkg/errors"
	"github.com/YuminosukeSato/robustfit/pkg/log"
)

// Simple estimates the model from the whole dataset in one step and then
// classifies every item. It has no resistance to outliers and serves as a
// baseline for the robust fitters.
type Simple[T any] struct {
	template model.Model[T]
	residual model.Residual[T]
	check    model.DistanceCheck
	logger   log.Logger

	result Result[T]
	state  *model.StateManager
}

// SimpleOption configures a Simple fitter.
type SimpleOption[T any] func(*Simple[T])

// WithSimpleThreshold classifies residuals strictly below t as inliers.
func WithSimpleThreshold[T any](t float64) SimpleOption[T] {
	return func(s *Simple[T]) {
		s.check = Threshold(t)
	}
}

// WithSimpleDistanceCheck sets an arbitrary inlier check.
func WithSimpleDistanceCheck[T any](check model.DistanceCheck) SimpleOption[T] {
	return func(s *Simple[T]) {
		s.check = check
	}
}

// WithSimpleLogger sets the logger.
func WithSimpleLogger[T any](l log.Logger) SimpleOption[T] {
	return func(s *Simple[T]) {
		s.logger = l
	}
}

// NewSimple creates a Simple fitter. A threshold or distance check is required.
func NewSimple[T any](m model.Model[T], residual model.Residual[T], opts ...SimpleOption[T]) (*Simple[T], error) {
	s := &Simple[T]{
		template: m,
		residual: residual,
		state:    model.NewStateManager(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := validateCollaborators(m, residual, s.check); err != nil {
		return nil, err
	}
	if s.logger == nil {
		s.logger = log.GetLoggerWithName("robust.simple")
	}
	s.logger = s.logger.With(log.FitterKey, "Simple")
	return s, nil
}

// FitData estimates from all of data. It returns false, with an empty
// result, only when the estimate fails; otherwise it returns true however
// many items end up as outliers.
func (s *Simple[T]) FitData(ctx context.Context, data []T) (ok bool, err error) {
	defer errors.Recover(&err, "Simple.FitData")

	s.result = Result[T]{}
	s.state.Begin(len(data))
	if cerr := ctx.Err(); cerr != nil {
		return false, errors.WithStack(cerr)
	}

	m := s.template.Clone()
	if !m.Estimate(data) {
		s.logger.Debug("estimate on full dataset failed",
			log.OperationKey, log.OperationEstimate,
			log.SamplesKey, len(data),
		)
		return false, nil
	}

	errs := make([]float64, len(data))
	s.residual.SetModel(m)
	s.residual.ComputeError(data, errs)
	s.result = partition(m, data, errs, s.check)
	s.state.SetIterations(1)
	s.state.Finish(true)

	s.logger.Debug("fit finished",
		log.OperationKey, log.OperationFitData,
		log.SamplesKey, len(data),
		log.InliersKey, len(s.result.Inliers),
		log.OutliersKey, len(s.result.Outliers),
	)
	return true, nil
}

// Model returns the model of the last fit, or nil.
func (s *Simple[T]) Model() model.Model[T] {
	return s.result.Model
}

// Inliers returns the inliers of the last fit in dataset order.
func (s *Simple[T]) Inliers() []T {
	return s.result.Inliers
}

// Outliers returns the outliers of the last fit in dataset order.
func (s *Simple[T]) Outliers() []T {
	return s.result.Outliers
}

// Result returns the full result of the last fit.
func (s *Simple[T]) Result() Result[T] {
	return s.result
}

// IsFitted reports whether the last fit produced a model.
func (s *Simple[T]) IsFitted() bool {
	return s.state.IsFitted()
}

var _ model.Fitter[int] = (*Simple[int])(nil)
