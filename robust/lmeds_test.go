package robust

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/robustfit/linear"
	"github.com/YuminosukeSato/robustfit/pkg/errors"
	"github.com/YuminosukeSato/robustfit/pkg/log"
)

func newLineLMedS(t *testing.T, opts ...LMedSOption[linear.Sample]) *LMedS[linear.Sample] {
	t.Helper()
	l, err := NewLMedS[linear.Sample](linear.NewLine(), linear.NewSquaredResidual(), opts...)
	require.NoError(t, err)
	return l
}

func TestNumSamples(t *testing.T) {
	tests := []struct {
		name string
		p, e float64
		k    int
		want int
	}{
		// ln(0.01) / ln(1 - 0.36) = 10.3
		{"defaults k=2", 0.99, 0.4, 2, 11},
		// ln(0.01) / ln(1 - 0.216) = 18.9
		{"defaults k=3", 0.99, 0.4, 3, 19},
		{"no outliers", 0.99, 0, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, numSamples(tt.p, tt.e, tt.k))
		})
	}
}

func TestLMedS_ContaminatedLine(t *testing.T) {
	data := contaminatedLine(t, 21)
	l := newLineLMedS(t)
	assert.Equal(t, 11, l.NumSamples())

	ok, err := l.FitData(context.Background(), data)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, l.IsFitted())

	slope, intercept := lineParams(t, l.Model())
	assert.InDelta(t, 2.0, slope, 0.1)
	assert.InDelta(t, 1.0, intercept, 0.1)

	res := l.Result()
	assert.Less(t, float64(len(res.Outliers))/float64(len(data)), DefaultOutlierProportion)
	for _, idx := range res.InlierIndices {
		assert.False(t, isPlantedOutlier(idx), "planted outlier %d classified as inlier", idx)
	}
	assertPartition(t, data, res)
	assertReclassifies[linear.Sample](t, data, res, linear.NewSquaredResidual(), Threshold(l.Threshold()))

	// 閾値は 2 * 1.4826 * (1 + 5/(N-k)) * sqrt(median)
	want := 2 * 1.4826 * (1 + 5.0/98) * math.Sqrt(l.BestMedianError())
	assert.InDelta(t, want, l.Threshold(), 1e-12)
}

func TestLMedS_KnownNoiseLevel(t *testing.T) {
	data := contaminatedLine(t, 22)
	l := newLineLMedS(t, WithInlierNoiseLevel[linear.Sample](0.01))

	_, err := l.FitData(context.Background(), data)
	require.NoError(t, err)

	// chi2(df=2) の分位点は -2 ln(1-p)
	want := 0.01 * 0.01 * (-2 * math.Log(1-DefaultProbability))
	assert.InDelta(t, want, l.Threshold(), 1e-9)
	assertPartition(t, data, l.Result())
}

func TestLMedS_MonotoneMedian(t *testing.T) {
	data := contaminatedLine(t, 23)
	l := newLineLMedS(t, WithProbability[linear.Sample](0.9999), WithOutlierProportion[linear.Sample](0.5))
	_, err := l.FitData(context.Background(), data)
	require.NoError(t, err)

	history := l.MedianHistory()
	require.Len(t, history, l.NumSamples())
	for i := 1; i < len(history); i++ {
		assert.LessOrEqual(t, history[i], history[i-1], "sample %d", i)
	}
	assert.Equal(t, history[len(history)-1], l.BestMedianError())
}

func TestLMedS_InsufficientData(t *testing.T) {
	l := newLineLMedS(t)
	one, _ := linear.Points([]float64{1}, []float64{3})

	ok, err := l.FitData(context.Background(), one)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, l.Model())
	assert.Empty(t, l.Inliers())
	assert.Empty(t, l.Outliers())
}

func TestLMedS_ZeroSampleExcess(t *testing.T) {
	two, _ := linear.Points([]float64{0, 1}, []float64{1, 3})

	l := newLineLMedS(t)
	ok, err := l.FitData(context.Background(), two)
	assert.False(t, ok)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrZeroSampleExcess))
	var modelErr *errors.ModelError
	assert.True(t, errors.As(err, &modelErr))
	assert.NotNil(t, l.Model(), "the best model stays available")
	// 閾値がないので全件が外れ値として分類される
	assert.Empty(t, l.Inliers())
	assert.Len(t, l.Outliers(), 2)
	assert.Equal(t, []int{0, 1}, l.Result().OutlierIndices)
	assertPartition(t, two, l.Result())

	// 既知の雑音レベルでは閾値が定義できる
	known := newLineLMedS(t, WithInlierNoiseLevel[linear.Sample](0.1))
	ok, err = known.FitData(context.Background(), two)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, known.Inliers(), 2)
}

func TestLMedS_Deterministic(t *testing.T) {
	data := contaminatedLine(t, 24)
	a := newLineLMedS(t, WithLMedSSeed[linear.Sample](5))
	b := newLineLMedS(t, WithLMedSSeed[linear.Sample](5))

	_, err := a.FitData(context.Background(), data)
	require.NoError(t, err)
	_, err = b.FitData(context.Background(), data)
	require.NoError(t, err)

	if diff := cmp.Diff(a.Result().InlierIndices, b.Result().InlierIndices); diff != "" {
		t.Errorf("inlier indices differ (-a +b):\n%s", diff)
	}
	assert.Equal(t, a.BestMedianError(), b.BestMedianError())
	assert.Equal(t, a.MedianHistory(), b.MedianHistory())
}

func TestLMedS_ResultsAreSnapshots(t *testing.T) {
	l := newLineLMedS(t)
	_, err := l.FitData(context.Background(), contaminatedLine(t, 25))
	require.NoError(t, err)
	first := l.Result()
	slope, _ := lineParams(t, first.Model)

	_, err = l.FitData(context.Background(), scatter(t, 26, 40))
	require.NoError(t, err)
	again, _ := lineParams(t, first.Model)
	assert.Equal(t, slope, again)
}

func TestLMedS_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := newLineLMedS(t)
	ok, err := l.FitData(ctx, contaminatedLine(t, 27))
	assert.False(t, ok)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLMedS_WithSampler(t *testing.T) {
	data := contaminatedLine(t, 28)
	l := newLineLMedS(t, WithLMedSSampler[linear.Sample](NewUniformSampler[linear.Sample](77)))
	ok, err := l.FitData(context.Background(), data)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewLMedS_Validation(t *testing.T) {
	tests := []struct {
		name string
		opt  LMedSOption[linear.Sample]
	}{
		{"probability one", WithProbability[linear.Sample](1)},
		{"negative outlier proportion", WithOutlierProportion[linear.Sample](-0.1)},
		{"outlier proportion one", WithOutlierProportion[linear.Sample](1)},
		{"zero degrees of freedom", WithDegreesOfFreedom[linear.Sample](0)},
		{"zero noise level", WithInlierNoiseLevel[linear.Sample](0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLMedS[linear.Sample](linear.NewLine(), linear.NewSquaredResidual(), tt.opt)
			var valErr *errors.ValidationError
			assert.True(t, errors.As(err, &valErr))
		})
	}
}

func TestLMedS_Logging(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	l := newLineLMedS(t, WithLMedSLogger[linear.Sample](logger))
	_, err := l.FitData(context.Background(), contaminatedLine(t, 29))
	require.NoError(t, err)

	assert.True(t, logger.ContainsMessage("fit finished"))
	assert.True(t, logger.ContainsField(log.FitterKey, "LMedS"))
	assert.True(t, logger.ContainsField(log.RandomSeedKey, float64(DefaultSeed)))
}
