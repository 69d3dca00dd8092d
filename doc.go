// Package robustfit estimates model parameters from paired observations
// contaminated by outliers, and reports which observations agree with the
// estimate.
//
// The library is domain-agnostic: anything implementing model.Model can be
// fitted, from the reference least-squares line in package linear to
// homographies or affine transforms supplied by the caller.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/robustfit/linear"
//	    "github.com/YuminosukeSato/robustfit/robust"
//	)
//
//	func main() {
//	    data, _ := linear.Points(
//	        []float64{0, 1, 2, 3, 4, 5},
//	        []float64{1, 3, 5, 40, 9, 11},
//	    )
//
//	    fitter, err := robust.NewRANSAC[linear.Sample](linear.NewLine(), linear.NewAbsoluteResidual(),
//	        robust.WithThreshold[linear.Sample](0.1),
//	        robust.WithStoppingCondition[linear.Sample](robust.NumberInliers(5)),
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    ok, err := fitter.FitData(context.Background(), data)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(ok, fitter.Result().OutlierIndices) // true [3]
//	}
//
// # Packages
//
//   - robust: RANSAC, LMedS and the Simple baseline, stopping conditions,
//     distance checks and samplers
//   - core/model: collaborator contracts (Model, Residual, DistanceCheck,
//     Sampler) and the Fitter interface
//   - core/parallel: parallel scoring of large datasets
//   - linear: least-squares hyperplane model and its residuals
//   - metrics: median, robust scale and residual summaries
//   - pkg/errors: structured errors and warnings (cockroachdb/errors)
//   - pkg/log: structured logging (zerolog, log/slog)
//
// # Errors
//
// Expected outcomes are booleans: too little data, a degenerate sample or a
// rejected result make FitData return false, and the best partition found
// stays readable. Errors are reserved for cancellation, recovered panics and
// numerically undefined cases such as LMedS with no samples beyond the
// minimal sample size.
//
// # Concurrency
//
// A fitter is not safe for concurrent use; use one instance per goroutine.
// All randomness comes from an injectable, seedable sampler, so fits are
// reproducible.
package robustfit
