package linear

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/robustfit/core/model"
)

// AbsoluteResidual は |y - (w·x + b)| を残差とする
type AbsoluteResidual struct {
	model *Regression
}

// NewAbsoluteResidual creates an AbsoluteResidual.
func NewAbsoluteResidual() *AbsoluteResidual {
	return &AbsoluteResidual{}
}

func (r *AbsoluteResidual) SetModel(m model.Model[Sample]) {
	r.model = asRegression(m)
}

func (r *AbsoluteResidual) ComputeResidual(item Sample) float64 {
	return math.Abs(item.Dependent - r.model.predict(item.Independent))
}

func (r *AbsoluteResidual) ComputeError(data []Sample, out []float64) {
	for i, item := range data {
		out[i] = r.ComputeResidual(item)
	}
}

// SquaredResidual は (y - (w·x + b))² を残差とする。LMedS の中央値誤差はこの尺度で扱う
type SquaredResidual struct {
	model *Regression
}

// NewSquaredResidual creates a SquaredResidual.
func NewSquaredResidual() *SquaredResidual {
	return &SquaredResidual{}
}

func (r *SquaredResidual) SetModel(m model.Model[Sample]) {
	r.model = asRegression(m)
}

func (r *SquaredResidual) ComputeResidual(item Sample) float64 {
	d := item.Dependent - r.model.predict(item.Independent)
	return d * d
}

func (r *SquaredResidual) ComputeError(data []Sample, out []float64) {
	for i, item := range data {
		out[i] = r.ComputeResidual(item)
	}
}

func asRegression(m model.Model[Sample]) *Regression {
	reg, ok := m.(*Regression)
	if !ok {
		panic(fmt.Sprintf("linear: residual requires *Regression, got %T", m))
	}
	return reg
}
