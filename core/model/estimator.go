// Package model は推定器の共通型と、学習済みモデルの永続化（ModelStore）を提供します。
package model

import "gonum.org/v1/gonum/mat"

// EstimatorState はモデルの学習状態を表す
type EstimatorState int

const (
	// NotFitted はモデルが未学習の状態
	NotFitted EstimatorState = iota
	// Fitted はモデルが学習済みの状態
	Fitted
)

// BaseEstimator は全ての推定器に埋め込む学習状態
type BaseEstimator struct {
	state EstimatorState
}

// IsFitted はモデルが学習済みかどうかを返す
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted はモデルを学習済み状態に設定する
func (e *BaseEstimator) SetFitted() {
	e.state = Fitted
}

// Reset はモデルを初期状態にリセットする
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
}

// Transformer は列ごとの統計量を学習してデータを変換する前処理のインターフェース
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error

	// Transform は学習済みパラメータでデータを変換する
	Transform(X mat.Matrix) (*mat.Dense, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X mat.Matrix) (*mat.Dense, error)
}

// Classifier はクラスインデックスを学習・予測する分類器のインターフェース
type Classifier interface {
	// Fit は特徴量行列とクラスインデックスのラベルで学習する
	Fit(X mat.Matrix, y []int) error

	// PredictProba はクラスごとの確率（行 × クラス）を返す
	PredictProba(X mat.Matrix) (*mat.Dense, error)

	// Predict は行ごとに最も確率の高いクラスインデックスを返す
	Predict(X mat.Matrix) ([]int, error)
}
