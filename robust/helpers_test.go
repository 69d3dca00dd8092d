package robust

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/robustfit/core/model"
	"github.com/YuminosukeSato/robustfit/linear"
)

// contaminatedLine returns 100 points: 80 on y = 2x + 1 with N(0, 0.01²)
// noise and 20 outliers between 1 and 6 above the line. Outliers sit at the
// indices i with i%5 == 4.
func contaminatedLine(t testing.TB, seed uint64) []linear.Sample {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed+1))
	noise := distuv.Normal{Mu: 0, Sigma: 0.01, Src: rand.NewPCG(seed+2, seed+3)}

	xs := make([]float64, 100)
	ys := make([]float64, 100)
	for i := range xs {
		x := rng.Float64() * 10
		xs[i] = x
		if isPlantedOutlier(i) {
			ys[i] = 2*x + 1 + 1 + 5*rng.Float64()
		} else {
			ys[i] = 2*x + 1 + noise.Rand()
		}
	}
	data, err := linear.Points(xs, ys)
	require.NoError(t, err)
	return data
}

func isPlantedOutlier(i int) bool {
	return i%5 == 4
}

// scatter returns n points uniform in [0, 10]², with no line through most of them.
func scatter(t testing.TB, seed uint64, n int) []linear.Sample {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed))
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range xs {
		xs[i] = rng.Float64() * 10
		ys[i] = rng.Float64() * 10
	}
	data, err := linear.Points(xs, ys)
	require.NoError(t, err)
	return data
}

// assertPartition checks that res splits data exactly once, in order.
func assertPartition[T any](t *testing.T, data []T, res Result[T]) {
	t.Helper()
	require.Equal(t, len(data), len(res.Inliers)+len(res.Outliers))
	require.Len(t, res.InlierIndices, len(res.Inliers))
	require.Len(t, res.OutlierIndices, len(res.Outliers))

	seen := make([]bool, len(data))
	for i, idx := range res.InlierIndices {
		require.False(t, seen[idx], "index %d classified twice", idx)
		seen[idx] = true
		assert.Equal(t, data[idx], res.Inliers[i])
		if i > 0 {
			assert.Less(t, res.InlierIndices[i-1], idx)
		}
	}
	for i, idx := range res.OutlierIndices {
		require.False(t, seen[idx], "index %d classified twice", idx)
		seen[idx] = true
		assert.Equal(t, data[idx], res.Outliers[i])
		if i > 0 {
			assert.Less(t, res.OutlierIndices[i-1], idx)
		}
	}
	for i, ok := range seen {
		assert.True(t, ok, "index %d missing", i)
	}
}

// assertReclassifies checks that scoring the returned model again yields the
// returned partition.
func assertReclassifies[T any](t *testing.T, data []T, res Result[T], residual model.Residual[T], check model.DistanceCheck) {
	t.Helper()
	require.NotNil(t, res.Model)
	errs := make([]float64, len(data))
	residual.SetModel(res.Model)
	residual.ComputeError(data, errs)
	again := partition(res.Model, data, errs, check)
	assert.Equal(t, res.InlierIndices, again.InlierIndices)
	assert.Equal(t, res.OutlierIndices, again.OutlierIndices)
}

func lineParams(t *testing.T, m model.Model[linear.Sample]) (slope, intercept float64) {
	t.Helper()
	reg, ok := m.(*linear.Regression)
	require.True(t, ok, "unexpected model type %T", m)
	return reg.Weights()[0], reg.Intercept()
}

// countingLine records the size of every sample it is asked to estimate.
// Clones share the record.
type countingLine struct {
	*linear.Regression
	sizes *[]int
}

func newCountingLine() countingLine {
	return countingLine{Regression: linear.NewLine(), sizes: new([]int)}
}

func (c countingLine) Estimate(sample []linear.Sample) bool {
	*c.sizes = append(*c.sizes, len(sample))
	return c.Regression.Estimate(sample)
}

func (c countingLine) Clone() model.Model[linear.Sample] {
	return countingLine{Regression: c.Regression.Clone().(*linear.Regression), sizes: c.sizes}
}

func (c countingLine) count(size int) int {
	n := 0
	for _, s := range *c.sizes {
		if s == size {
			n++
		}
	}
	return n
}

// countingResidual scores countingLine and plain Regression models.
func countingResidual() *model.ResidualFunc[linear.Sample] {
	return model.NewResidualFunc(func(m model.Model[linear.Sample], s linear.Sample) float64 {
		var reg *linear.Regression
		switch v := m.(type) {
		case countingLine:
			reg = v.Regression
		case *linear.Regression:
			reg = v
		}
		p, _ := reg.Predict(s.Independent)
		return math.Abs(s.Dependent - p)
	})
}

// hook lets a test run code inside Estimate.
type hookLine struct {
	*linear.Regression
	onEstimate func()
}

func (h hookLine) Estimate(sample []linear.Sample) bool {
	h.onEstimate()
	return h.Regression.Estimate(sample)
}

func (h hookLine) Clone() model.Model[linear.Sample] {
	return hookLine{Regression: h.Regression.Clone().(*linear.Regression), onEstimate: h.onEstimate}
}

func hookResidual() *model.ResidualFunc[linear.Sample] {
	return model.NewResidualFunc(func(m model.Model[linear.Sample], s linear.Sample) float64 {
		p, _ := m.(hookLine).Predict(s.Independent)
		return math.Abs(s.Dependent - p)
	})
}
