package linear

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/robustfit/core/model"
	"github.com/YuminosukeSato/robustfit/pkg/errors"
)

func TestRegression_Line(t *testing.T) {
	// y = 2x + 1
	data, err := Points([]float64{1, 2, 3, 4}, []float64{3, 5, 7, 9})
	require.NoError(t, err)

	r := NewLine()
	assert.Equal(t, 2, r.NumItemsToEstimate())
	require.True(t, r.Estimate(data))

	assert.InDelta(t, 2.0, r.Weights()[0], 1e-9)
	assert.InDelta(t, 1.0, r.Intercept(), 1e-9)

	pred, err := r.Predict([]float64{5})
	require.NoError(t, err)
	assert.InDelta(t, 11.0, pred, 1e-9)
}

func TestRegression_MinimalSample(t *testing.T) {
	data, _ := Points([]float64{0, 2}, []float64{1, 5})
	r := NewLine()
	require.True(t, r.Estimate(data))
	assert.InDelta(t, 2.0, r.Weights()[0], 1e-9)
	assert.InDelta(t, 1.0, r.Intercept(), 1e-9)
}

func TestRegression_MultipleFeatures(t *testing.T) {
	// y = 2*x1 + 3*x2 + 1
	xs := [][]float64{{1, 1}, {2, 1}, {3, 2}, {4, 2}, {5, 3}}
	data := make([]Sample, len(xs))
	for i, x := range xs {
		data[i] = model.NewPair(x, 2*x[0]+3*x[1]+1)
	}

	r := NewRegression(2, WithParallelThreshold(2))
	assert.Equal(t, 3, r.NumItemsToEstimate())
	require.True(t, r.Estimate(data))

	w := r.Weights()
	assert.InDelta(t, 2.0, w[0], 1e-8)
	assert.InDelta(t, 3.0, w[1], 1e-8)
	assert.InDelta(t, 1.0, r.Intercept(), 1e-8)
}

func TestRegression_DegenerateSamples(t *testing.T) {
	tests := []struct {
		name string
		data []Sample
	}{
		{"too few", []Sample{model.NewPair([]float64{1}, 1.0)}},
		{"identical x", []Sample{model.NewPair([]float64{1}, 1.0), model.NewPair([]float64{1}, 2.0)}},
		{"wrong dimension", []Sample{model.NewPair([]float64{1, 2}, 1.0), model.NewPair([]float64{2}, 2.0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewLine()
			assert.False(t, r.Estimate(tt.data))
			assert.False(t, r.IsEstimated())
		})
	}
}

func TestRegression_FailedEstimateKeepsParameters(t *testing.T) {
	good, _ := Points([]float64{0, 1}, []float64{1, 3})
	bad, _ := Points([]float64{4, 4}, []float64{0, 9})

	r := NewLine()
	require.True(t, r.Estimate(good))
	require.False(t, r.Estimate(bad))
	assert.InDelta(t, 2.0, r.Weights()[0], 1e-9)
	assert.InDelta(t, 1.0, r.Intercept(), 1e-9)
}

func TestRegression_CloneIsIndependent(t *testing.T) {
	first, _ := Points([]float64{0, 1}, []float64{1, 3})
	second, _ := Points([]float64{0, 1}, []float64{0, -1})

	r := NewLine()
	require.True(t, r.Estimate(first))
	c := r.Clone().(*Regression)

	require.True(t, r.Estimate(second))
	assert.InDelta(t, 2.0, c.Weights()[0], 1e-9, "clone must not observe later estimates")
	assert.InDelta(t, -1.0, r.Weights()[0], 1e-9)

	// Weights はコピーを返す
	w := c.Weights()
	w[0] = 100
	assert.InDelta(t, 2.0, c.Weights()[0], 1e-9)
}

func TestRegression_PredictErrors(t *testing.T) {
	r := NewLine()
	_, err := r.Predict([]float64{1})
	var notFitted *errors.NotFittedError
	assert.True(t, errors.As(err, &notFitted))

	data, _ := Points([]float64{0, 1}, []float64{0, 1})
	require.True(t, r.Estimate(data))
	_, err = r.Predict([]float64{1, 2})
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}

func TestPointsLengthMismatch(t *testing.T) {
	_, err := Points([]float64{1, 2}, []float64{1})
	assert.Error(t, err)
}

func TestResiduals(t *testing.T) {
	data, _ := Points([]float64{0, 1}, []float64{1, 3})
	r := NewLine()
	require.True(t, r.Estimate(data))

	probe := []Sample{model.NewPair([]float64{2}, 4.0), model.NewPair([]float64{0}, 1.0)}

	abs := NewAbsoluteResidual()
	abs.SetModel(r)
	assert.InDelta(t, 1.0, abs.ComputeResidual(probe[0]), 1e-9)

	sq := NewSquaredResidual()
	sq.SetModel(r)
	out := make([]float64, 2)
	sq.ComputeError(probe, out)
	assert.InDelta(t, 1.0, out[0], 1e-9)
	assert.InDelta(t, 0.0, out[1], 1e-9)

	absOut := make([]float64, 2)
	abs.ComputeError(probe, absOut)
	assert.InDelta(t, math.Sqrt(out[0]), absOut[0], 1e-9)
}

type otherModel struct{}

func (otherModel) NumItemsToEstimate() int      { return 1 }
func (otherModel) Estimate([]Sample) bool       { return true }
func (o otherModel) Clone() model.Model[Sample] { return o }

func TestResidualRejectsForeignModel(t *testing.T) {
	assert.Panics(t, func() {
		NewAbsoluteResidual().SetModel(otherModel{})
	})
}
