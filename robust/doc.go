// Package robust estimates model parameters from data contaminated by
// outliers and reports which items are consistent with the estimate.
//
// Three strategies share the model.Fitter contract:
//
//   - RANSAC: sample, estimate, score, keep the best partition, and stop
//     according to a StoppingCondition.
//   - LMedS: minimise the median error over an analytically derived number
//     of samples, then derive an inlier threshold from the winning median.
//   - Simple: estimate once from all data. Not robust; a baseline.
//
// A fitter is not safe for concurrent use. FitData fully resets the fitter
// before it runs, and every result it publishes is an owned snapshot: a
// Result obtained from an earlier call never changes afterwards.
package robust
