package model

import "context"

// Fitter は外れ値を含むデータからモデルを推定する共通インターフェース
//
// FitData の bool は「結果を受け入れたか」を表す。false でもエラーとは限らず、
// Model/Inliers/Outliers には最善の途中結果が残る。error はキャンセルや
// 数値的に定義できないケースなど、呼び出し側が対処すべき異常に限られる。
type Fitter[T any] interface {
	FitData(ctx context.Context, data []T) (bool, error)

	// Model は直近の FitData で採用されたモデルを返す（未実行なら nil）
	Model() Model[T]

	// Inliers はデータ順に並んだインライアを返す
	Inliers() []T

	// Outliers はデータ順に並んだアウトライアを返す
	Outliers() []T
}
