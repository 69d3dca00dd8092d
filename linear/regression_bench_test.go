package linear

import (
	"math/rand/v2"
	"testing"

	"github.com/YuminosukeSato/robustfit/core/model"
)

// createBenchmarkData はベンチマーク用のデータを生成する
func createBenchmarkData(rows, cols int) []Sample {
	// シードを固定して再現性を確保
	rng := rand.New(rand.NewPCG(42, 42))

	trueWeights := make([]float64, cols)
	for j := 0; j < cols; j++ {
		trueWeights[j] = float64(j+1) * 0.5
	}

	data := make([]Sample, rows)
	for i := 0; i < rows; i++ {
		x := make([]float64, cols)
		sum := 1.0 // 切片
		for j := 0; j < cols; j++ {
			x[j] = rng.Float64()*2.0 - 1.0
			sum += x[j] * trueWeights[j]
		}
		// 小さなノイズを追加
		sum += (rng.Float64() - 0.5) * 0.1
		data[i] = model.NewPair(x, sum)
	}
	return data
}

// BenchmarkRegressionEstimate は全データでの推定（リファインメント相当）を測定する
func BenchmarkRegressionEstimate(b *testing.B) {
	sizes := []struct {
		name string
		rows int
		cols int
	}{
		{"Small_100x1", 100, 1},
		{"Small_500x10", 500, 10},
		{"Medium_2000x10", 2000, 10},
		{"Large_10000x20", 10000, 20},
	}

	for _, size := range sizes {
		b.Run(size.name, func(b *testing.B) {
			data := createBenchmarkData(size.rows, size.cols)
			r := NewRegression(size.cols)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if !r.Estimate(data) {
					b.Fatal("estimate failed")
				}
			}
		})
	}
}

// BenchmarkRegressionEstimateSequential は並列化を無効にした比較用
func BenchmarkRegressionEstimateSequential(b *testing.B) {
	data := createBenchmarkData(10000, 20)
	r := NewRegression(20, WithParallelThreshold(0))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if !r.Estimate(data) {
			b.Fatal("estimate failed")
		}
	}
}
