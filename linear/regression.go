// Package linear は外れ値推定の参照モデルとして最小二乗の超平面 y = w·x + b を提供する
package linear

import (
	"github.com/YuminosukeSato/robustfit/core/model"
	"github.com/YuminosukeSato/robustfit/core/parallel"
	"github.com/YuminosukeSato/robustfit/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Sample は説明変数ベクトルと目的変数の組
type Sample = model.Pair[[]float64, float64]

// defaultParallelThreshold はこの行数以下の計画行列を逐次に構築する
const defaultParallelThreshold = 1000

// Regression は最小二乗の超平面モデル。最小サンプル数は nFeatures + 1
type Regression struct {
	nFeatures         int
	weights           []float64 // 重み（係数）
	intercept         float64   // 切片
	estimated         bool
	parallelThreshold int
}

// NewRegression は nFeatures 次元の回帰モデルを作成する
func NewRegression(nFeatures int, opts ...Option) *Regression {
	r := &Regression{
		nFeatures:         nFeatures,
		parallelThreshold: defaultParallelThreshold,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewLine は 1 次元の直線 y = a x + b のモデルを作成する
func NewLine(opts ...Option) *Regression {
	return NewRegression(1, opts...)
}

// NumItemsToEstimate は最小サンプル数を返す
func (r *Regression) NumItemsToEstimate() int {
	return r.nFeatures + 1
}

// Estimate は正規方程式 w = (X^T X)^(-1) X^T y でパラメータを推定する
// サンプル不足・次元不一致・特異行列の場合は false を返し、以前のパラメータを保持する
func (r *Regression) Estimate(sample []Sample) bool {
	n := len(sample)
	if r.nFeatures < 1 || n < r.NumItemsToEstimate() {
		return false
	}
	for _, s := range sample {
		if len(s.Independent) != r.nFeatures {
			return false
		}
	}

	c := r.nFeatures

	// 切片項のために X に 1 の列を追加
	// X_with_intercept = [1, X]
	XWithIntercept := mat.NewDense(n, c+1, nil)
	yVec := mat.NewVecDense(n, nil)
	parallel.ParallelizeWithThreshold(n, r.parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			XWithIntercept.Set(i, 0, 1.0)
			for j := 0; j < c; j++ {
				XWithIntercept.Set(i, j+1, sample[i].Independent[j])
			}
			yVec.SetVec(i, sample[i].Dependent)
		}
	})

	var XTX mat.Dense
	XTX.Mul(XWithIntercept.T(), XWithIntercept)

	var XTXInv mat.Dense
	if err := XTXInv.Inverse(&XTX); err != nil {
		return false
	}

	var XTy mat.VecDense
	XTy.MulVec(XWithIntercept.T(), yVec)

	var w mat.VecDense
	w.MulVec(&XTXInv, &XTy)

	params := make([]float64, c+1)
	for i := range params {
		params[i] = w.AtVec(i)
	}
	if errors.CheckNumericalStability("Regression.Estimate", params, 0) != nil {
		return false
	}

	r.intercept = params[0]
	r.weights = params[1:]
	r.estimated = true
	return true
}

// Clone はパラメータを共有しない複製を返す
func (r *Regression) Clone() model.Model[Sample] {
	c := *r
	if r.weights != nil {
		c.weights = make([]float64, len(r.weights))
		copy(c.weights, r.weights)
	}
	return &c
}

// IsEstimated は一度でも推定に成功したかを返す
func (r *Regression) IsEstimated() bool {
	return r.estimated
}

// NFeatures は説明変数の次元を返す
func (r *Regression) NFeatures() int {
	return r.nFeatures
}

// Weights は推定された重みのコピーを返す
func (r *Regression) Weights() []float64 {
	if r.weights == nil {
		return nil
	}
	out := make([]float64, len(r.weights))
	copy(out, r.weights)
	return out
}

// Intercept は推定された切片を返す
func (r *Regression) Intercept() float64 {
	return r.intercept
}

// Predict は x に対する予測値を返す
func (r *Regression) Predict(x []float64) (float64, error) {
	if !r.estimated {
		return 0, errors.NewNotFittedError("Regression", "Predict")
	}
	if len(x) != r.nFeatures {
		return 0, errors.NewDimensionError("Regression.Predict", r.nFeatures, len(x), 1)
	}
	return r.predict(x), nil
}

func (r *Regression) predict(x []float64) float64 {
	return floats.Dot(r.weights, x) + r.intercept
}

// Points は 1 次元の観測点を Sample に変換する
func Points(xs, ys []float64) ([]Sample, error) {
	if len(xs) != len(ys) {
		return nil, errors.NewDimensionError("Points", len(xs), len(ys), 0)
	}
	out := make([]Sample, len(xs))
	for i := range xs {
		out[i] = model.NewPair([]float64{xs[i]}, ys[i])
	}
	return out, nil
}
