package robust

import "github.com/YuminosukeSato/robustfit/core/model"

// Result is the outcome of one FitData call.
//
// Inliers and Outliers keep dataset order and partition the input exactly
// once whenever Model is non-nil. When LMedS could not derive a threshold
// (cancellation or errors.ErrZeroSampleExcess) every item is an outlier.
// The index slices refer to positions in the data passed to FitData.
type Result[T any] struct {
	Model          model.Model[T]
	Inliers        []T
	Outliers       []T
	InlierIndices  []int
	OutlierIndices []int
}

// NumInliers returns len(r.Inliers).
func (r Result[T]) NumInliers() int {
	return len(r.Inliers)
}

// partition classifies data[i] by errs[i] into a fresh Result for m.
func partition[T any](m model.Model[T], data []T, errs []float64, check model.DistanceCheck) Result[T] {
	res := Result[T]{
		Model:          m,
		Inliers:        make([]T, 0, len(data)),
		Outliers:       make([]T, 0),
		InlierIndices:  make([]int, 0, len(data)),
		OutlierIndices: make([]int, 0),
	}
	for i, item := range data {
		if check.Check(errs[i]) {
			res.Inliers = append(res.Inliers, item)
			res.InlierIndices = append(res.InlierIndices, i)
		} else {
			res.Outliers = append(res.Outliers, item)
			res.OutlierIndices = append(res.OutlierIndices, i)
		}
	}
	return res
}

// allOutliers is the Result for a model with no usable threshold: every item
// is an outlier.
func allOutliers[T any](m model.Model[T], data []T) Result[T] {
	res := Result[T]{
		Model:          m,
		Inliers:        make([]T, 0),
		Outliers:       make([]T, len(data)),
		InlierIndices:  make([]int, 0),
		OutlierIndices: make([]int, len(data)),
	}
	copy(res.Outliers, data)
	for i := range data {
		res.OutlierIndices[i] = i
	}
	return res
}

// countInliers is partition without the allocations.
func countInliers(errs []float64, check model.DistanceCheck) int {
	n := 0
	for _, e := range errs {
		if check.Check(e) {
			n++
		}
	}
	return n
}
