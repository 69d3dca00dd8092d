package errors

import "math"

// finite は NaN と ±Inf を除く値なら true を返します。
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// CheckNumericalStability は values に非有限値が含まれていれば
// NumericalInstabilityError を返します。
//
// 推定されたパラメータの検証に使います。iteration は失敗した反復番号で、
// 反復と無関係な呼び出しでは 0 を渡します。
func CheckNumericalStability(operation string, values []float64, iteration int) error {
	for _, v := range values {
		if !finite(v) {
			return NewNumericalInstabilityError(operation, values, iteration)
		}
	}
	return nil
}

// CheckScalar は単一のスカラー (閾値やスケール推定値など) を検証します。
func CheckScalar(operation string, value float64, iteration int) error {
	if finite(value) {
		return nil
	}
	return NewNumericalInstabilityError(operation, []float64{value}, iteration)
}
