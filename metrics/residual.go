// Package metrics は残差ベクトルの統計量を計算する
package metrics

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/robustfit/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MADScale は正規分布の中央絶対偏差を標準偏差に換算する係数
const MADScale = 1.4826

// Median は残差の中央値を返す。偶数個の場合は小さい側の中央値（経験分布の 0.5 分位点）
// 入力は変更しない
func Median(residuals []float64) (float64, error) {
	if len(residuals) == 0 {
		return 0, errors.NewValueError("Median", "empty residual vector")
	}
	sorted := make([]float64, len(residuals))
	copy(sorted, residuals)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil), nil
}

// RobustSigma は LMedS の中央値誤差から雑音の標準偏差を推定する
//
//	sigma = 1.4826 * (1 + 5/(n-k)) * sqrt(medianError)
//
// n == k のとき有限標本補正の分母が 0 になるため ErrZeroSampleExcess を返す
func RobustSigma(medianError float64, n, k int) (float64, error) {
	if n <= k {
		return 0, errors.NewModelError("RobustSigma", "undefined scale estimate", errors.ErrZeroSampleExcess)
	}
	if medianError < 0 {
		return 0, errors.NewValueError("RobustSigma", "median error must be non-negative")
	}
	correction := 1 + 5/float64(n-k)
	return MADScale * correction * math.Sqrt(medianError), nil
}

// RMSE は残差の二乗平均平方根（Root Mean Squared Error）を計算する
func RMSE(residuals []float64) (float64, error) {
	if len(residuals) == 0 {
		return 0, errors.NewValueError("RMSE", "empty residual vector")
	}
	return math.Sqrt(floats.Dot(residuals, residuals) / float64(len(residuals))), nil
}

// MAE は残差の絶対値の平均（Mean Absolute Error）を計算する
func MAE(residuals []float64) (float64, error) {
	if len(residuals) == 0 {
		return 0, errors.NewValueError("MAE", "empty residual vector")
	}
	return floats.Norm(residuals, 1) / float64(len(residuals)), nil
}

// Subset は indices の位置の残差を取り出す
func Subset(residuals []float64, indices []int) []float64 {
	out := make([]float64, len(indices))
	for i, idx := range indices {
		out[i] = residuals[idx]
	}
	return out
}
