package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dslr/core/model"
	"github.com/YuminosukeSato/dslr/pkg/errors"
	"github.com/YuminosukeSato/dslr/pkg/log"
)

// MeanImputer は欠損値（NaN）を列の平均値で置き換える。
// 平均は入力自身の欠損していない値から計算する。
type MeanImputer struct {
	model.BaseEstimator

	// Means は列ごとの補完値
	Means []float64

	// Fallback は観測値が一つも無い列に使う値（通常は学習時の平均）
	Fallback []float64

	// Imputed は最後のTransformで置き換えたセル数
	Imputed int
}

// NewMeanImputer は新しいMeanImputerを作成する。fallbackはnilでもよい。
func NewMeanImputer(fallback []float64) *MeanImputer {
	return &MeanImputer{Fallback: fallback}
}

// Fit は列ごとにNaNを除いた平均を計算する
func (m *MeanImputer) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("MeanImputer.Fit", "empty data", errors.ErrEmptyData)
	}
	if m.Fallback != nil && len(m.Fallback) != c {
		return errors.NewDimensionError("MeanImputer.Fit", len(m.Fallback), c, 1)
	}

	m.Reset()
	m.Means = make([]float64, c)
	for j := 0; j < c; j++ {
		sum, n := 0.0, 0
		for i := 0; i < r; i++ {
			if v := X.At(i, j); !math.IsNaN(v) {
				sum += v
				n++
			}
		}
		switch {
		case n > 0:
			m.Means[j] = sum / float64(n)
		case m.Fallback != nil:
			m.Means[j] = m.Fallback[j]
		default:
			return errors.NewValueError("MeanImputer.Fit",
				fmt.Sprintf("feature %d has no observed values and no fallback", j))
		}
	}

	m.SetFitted()
	return nil
}

// Transform はNaNを補完値で置き換えた新しい行列を返す
func (m *MeanImputer) Transform(X mat.Matrix) (*mat.Dense, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("MeanImputer", "Transform")
	}
	r, c := X.Dims()
	if r == 0 {
		return nil, errors.NewModelError("MeanImputer.Transform", "empty data", errors.ErrEmptyData)
	}
	if c != len(m.Means) {
		return nil, errors.NewDimensionError("MeanImputer.Transform", len(m.Means), c, 1)
	}

	imputed := 0
	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		if math.IsNaN(v) {
			imputed++
			return m.Means[j]
		}
		return v
	}, X)
	m.Imputed = imputed

	if imputed > 0 {
		log.GetLoggerWithName("preprocessing").Debug("Missing values imputed",
			log.OperationKey, log.OperationTransform,
			log.ImputedKey, imputed,
		)
	}
	return result, nil
}

// FitTransform はFitとTransformを同時に実行する
func (m *MeanImputer) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

var _ model.Transformer = (*MeanImputer)(nil)
