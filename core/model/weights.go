package model

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dslr/pkg/errors"
)

const (
	// ModelTypeOneVsRest は一対他ロジスティック回帰のアーティファクト種別
	ModelTypeOneVsRest = "OneVsRestLogisticRegression"

	// FormatVersion はアーティファクト形式のバージョン（互換性チェック用）
	FormatVersion = "1"
)

// NormalizationParams は学習時に計算した特徴量ごとの平均と標準偏差。
// 推論時にはこの値をそのまま再利用する。
type NormalizationParams struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// Hyperparameters は学習設定の記録
type Hyperparameters struct {
	LearningRate float64 `json:"learning_rate"`
	Epochs       int     `json:"epochs"`
	BatchSize    int     `json:"batch_size"`
}

// ModelWeights は学習済みモデルの永続化単位（シリアライゼーション用）。
// Weights は numClasses × numFeatures、Biases は numClasses。
type ModelWeights struct {
	// ModelType はモデルの種類
	ModelType string `json:"model_type"`

	// Version はアーティファクト形式のバージョン
	Version string `json:"version"`

	// ID は学習ごとに発行されるUUID
	ID string `json:"id"`

	// CreatedAt は学習完了時刻
	CreatedAt time.Time `json:"created_at"`

	// Classes はクラスインデックス順のラベル名
	Classes []string `json:"classes"`

	// Features は特徴量の名前（オプション）
	Features []string `json:"features,omitempty"`

	// Weights は重み行列
	Weights [][]float64 `json:"weights"`

	// Biases はクラスごとのバイアス
	Biases []float64 `json:"biases"`

	// Normalization は学習時の正規化パラメータ
	Normalization *NormalizationParams `json:"normalization,omitempty"`

	// Hyperparameters は学習設定
	Hyperparameters Hyperparameters `json:"hyperparameters"`

	// IsFitted はモデルが学習済みかどうか
	IsFitted bool `json:"is_fitted"`
}

// NewModelWeights は重み行列とバイアスから新しいアーティファクトを作成する。
// 入力はコピーされる。
func NewModelWeights(weights mat.Matrix, biases []float64, classes, features []string) *ModelWeights {
	r, c := weights.Dims()
	rows := make([][]float64, r)
	for i := 0; i < r; i++ {
		rows[i] = make([]float64, c)
		for j := 0; j < c; j++ {
			rows[i][j] = weights.At(i, j)
		}
	}
	return &ModelWeights{
		ModelType: ModelTypeOneVsRest,
		Version:   FormatVersion,
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Classes:   append([]string(nil), classes...),
		Features:  append([]string(nil), features...),
		Weights:   rows,
		Biases:    append([]float64(nil), biases...),
		IsFitted:  true,
	}
}

// NumClasses はクラス数を返す
func (mw *ModelWeights) NumClasses() int {
	return len(mw.Weights)
}

// NumFeatures は特徴量の数を返す
func (mw *ModelWeights) NumFeatures() int {
	if len(mw.Weights) == 0 {
		return 0
	}
	return len(mw.Weights[0])
}

// Matrix は重みを numClasses × numFeatures の行列として返す
func (mw *ModelWeights) Matrix() *mat.Dense {
	r, c := mw.NumClasses(), mw.NumFeatures()
	if r == 0 || c == 0 {
		return nil
	}
	data := make([]float64, 0, r*c)
	for _, row := range mw.Weights {
		data = append(data, row...)
	}
	return mat.NewDense(r, c, data)
}

// Validate はアーティファクトの形状と値の妥当性を検証する
func (mw *ModelWeights) Validate() error {
	if mw.ModelType != ModelTypeOneVsRest {
		return errors.Newf("unsupported model_type %q", mw.ModelType)
	}
	if mw.Version != FormatVersion {
		return errors.Newf("unsupported version %q (want %q)", mw.Version, FormatVersion)
	}
	if !mw.IsFitted {
		return errors.New("model is not fitted")
	}

	nClasses, nFeatures := mw.NumClasses(), mw.NumFeatures()
	if nClasses == 0 || nFeatures == 0 {
		return errors.Newf("weights must be non-empty, got %d x %d", nClasses, nFeatures)
	}
	if len(mw.Biases) != nClasses {
		return errors.Newf("weights has %d rows but biases has %d entries", nClasses, len(mw.Biases))
	}
	if len(mw.Classes) != nClasses {
		return errors.Newf("weights has %d rows but %d class names", nClasses, len(mw.Classes))
	}
	if len(mw.Features) != 0 && len(mw.Features) != nFeatures {
		return errors.Newf("weights has %d columns but %d feature names", nFeatures, len(mw.Features))
	}
	for i, row := range mw.Weights {
		if len(row) != nFeatures {
			return errors.Newf("weights row %d has %d columns, want %d", i, len(row), nFeatures)
		}
		if err := errors.CheckNumericalStability("weights", row, i); err != nil {
			return err
		}
	}
	if err := errors.CheckNumericalStability("biases", mw.Biases, 0); err != nil {
		return err
	}

	if n := mw.Normalization; n != nil {
		if len(n.Mean) != nFeatures || len(n.Std) != nFeatures {
			return errors.Newf("normalization has %d means and %d stds, want %d", len(n.Mean), len(n.Std), nFeatures)
		}
		if err := errors.CheckNumericalStability("normalization.mean", n.Mean, 0); err != nil {
			return err
		}
		for j, s := range n.Std {
			if !(s > 0) || math.IsInf(s, 0) {
				return errors.Newf("normalization std for feature %d must be positive and finite, got %g", j, s)
			}
		}
	}
	return nil
}

// Clone はModelWeightsのディープコピーを作成
func (mw *ModelWeights) Clone() *ModelWeights {
	clone := *mw
	clone.Classes = append([]string(nil), mw.Classes...)
	clone.Features = append([]string(nil), mw.Features...)
	clone.Biases = append([]float64(nil), mw.Biases...)
	clone.Weights = make([][]float64, len(mw.Weights))
	for i, row := range mw.Weights {
		clone.Weights[i] = append([]float64(nil), row...)
	}
	if mw.Normalization != nil {
		clone.Normalization = &NormalizationParams{
			Mean: append([]float64(nil), mw.Normalization.Mean...),
			Std:  append([]float64(nil), mw.Normalization.Std...),
		}
	}
	return &clone
}
