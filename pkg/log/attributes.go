// Standard attribute keys for robust fitting operations.
//
// Keys follow a hierarchical naming convention ("fit.inliers",
// "data.samples") so log records from the different fitters can be
// filtered and compared.

package log

// Fitter and operation context.
const (
	// FitterKey identifies the fitting strategy.
	// Examples: "RANSAC", "LMedS", "Simple"
	FitterKey = "fit.strategy"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit_data", "estimate", "refine"
	OperationKey = "fit.operation"

	// ComponentKey identifies which package is logging.
	ComponentKey = "fit.component"

	// StoppingConditionKey identifies the RANSAC stopping condition.
	StoppingConditionKey = "fit.stopping_condition"
)

// Data shape.
const (
	// SamplesKey is the number of items in the dataset.
	SamplesKey = "data.samples"

	// MinimalSampleKey is the minimal sample size k of the model.
	MinimalSampleKey = "data.minimal_sample"
)

// Fit results.
const (
	// InliersKey is the number of items classified as inliers.
	InliersKey = "fit.inliers"

	// OutliersKey is the number of items classified as outliers.
	OutliersKey = "fit.outliers"

	// IterationsKey is the number of iterations actually run.
	IterationsKey = "fit.iterations"

	// MaxIterationsKey is the configured iteration budget.
	MaxIterationsKey = "fit.max_iterations"

	// ThresholdKey is the inlier/outlier threshold in use.
	ThresholdKey = "fit.threshold"

	// MedianErrorKey is the best median error found by LMedS.
	MedianErrorKey = "fit.median_error"

	// AcceptedKey reports whether the fit was accepted.
	AcceptedKey = "fit.accepted"

	// RefinedKey reports whether the final model was refined on all inliers.
	RefinedKey = "fit.refined"

	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Error context.
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"
)

// Configuration.
const (
	// RandomSeedKey records the sampler seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Standard attribute values.
const (
	OperationFitData  = "fit_data"
	OperationEstimate = "estimate"
	OperationRefine   = "refine"

	ErrorInsufficientData = "INSUFFICIENT_DATA"
	ErrorInitFailed       = "STOPPING_CONDITION_INIT"
	ErrorRefineFailed     = "REFINEMENT_FAILED"
	ErrorCancelled        = "CANCELLED"
)
