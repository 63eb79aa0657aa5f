package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/dslr/core/model"
	"github.com/YuminosukeSato/dslr/pkg/errors"
	"github.com/YuminosukeSato/dslr/pkg/log"
)

// MinStd 未満の標準偏差は定数列とみなし、スケール1で中心化のみ行う
const MinStd = 1e-8

// StandardScaler は特徴量ごとの平均と母標準偏差（ddof=0）でzスコア標準化を行う。
// 学習時に計算した統計量をモデルに保存し、推論時にも同じ値で変換する。
type StandardScaler struct {
	model.BaseEstimator

	// Mean は各特徴量の平均値
	Mean []float64

	// Scale は各特徴量の標準偏差（定数列では1）
	Scale []float64

	// NFeatures は特徴量の数
	NFeatures int

	// FeatureNames は警告とログに使う特徴量名（オプション）
	FeatureNames []string
}

// NewStandardScaler は新しいStandardScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler(dataset.Courses...)
//	Xs, err := scaler.FitTransform(X)
func NewStandardScaler(featureNames ...string) *StandardScaler {
	return &StandardScaler{FeatureNames: featureNames}
}

// NewStandardScalerFromParams は保存済みの正規化パラメータから学習済みスケーラーを復元する
func NewStandardScalerFromParams(p *model.NormalizationParams, featureNames ...string) (*StandardScaler, error) {
	if p == nil || len(p.Mean) == 0 {
		return nil, errors.NewModelError("StandardScaler.FromParams", "missing normalization parameters", errors.ErrEmptyData)
	}
	if len(p.Mean) != len(p.Std) {
		return nil, errors.NewDimensionError("StandardScaler.FromParams", len(p.Mean), len(p.Std), 1)
	}
	for j, s := range p.Std {
		if !(s > 0) || math.IsInf(s, 0) {
			return nil, errors.NewValueError("StandardScaler.FromParams",
				fmt.Sprintf("std for feature %d must be positive and finite, got %g", j, s))
		}
	}

	s := &StandardScaler{
		Mean:         append([]float64(nil), p.Mean...),
		Scale:        append([]float64(nil), p.Std...),
		NFeatures:    len(p.Mean),
		FeatureNames: featureNames,
	}
	s.SetFitted()
	return s, nil
}

// Fit は訓練データから平均と母標準偏差を計算する。
// NaNを含むデータは事前条件違反としてValueErrorを返す。
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	s.Reset()
	s.NFeatures = c
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		for i, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.NewValueError("StandardScaler.Fit",
					fmt.Sprintf("non-finite value %g at row %d, feature %d", v, i, j))
			}
		}

		mean, std := stat.PopMeanStdDev(col, nil)
		s.Mean[j] = mean

		// 丸め誤差で分散が負になるとstdはNaNになる
		if !(std >= MinStd) {
			errors.Warn(errors.NewZeroVarianceWarning(j, s.featureName(j), std))
			std = 1.0
		}
		s.Scale[j] = std
	}

	s.SetFitted()
	log.GetLoggerWithName("preprocessing").Debug("StandardScaler fitted",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhasePreprocessing,
		log.SamplesKey, r,
		log.FeaturesKey, c,
	)
	return nil
}

// Transform は学習済みの統計情報でデータを標準化する
func (s *StandardScaler) Transform(X mat.Matrix) (*mat.Dense, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "Transform")
	}

	r, c := X.Dims()
	if r == 0 {
		return nil, errors.NewModelError("StandardScaler.Transform", "empty data", errors.ErrEmptyData)
	}
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.Transform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	}, X)

	if err := errors.CheckMatrix("StandardScaler.Transform", result, 0); err != nil {
		return nil, err
	}
	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (*mat.Dense, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if r == 0 {
		return nil, errors.NewModelError("StandardScaler.InverseTransform", "empty data", errors.ErrEmptyData)
	}
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.InverseTransform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return v*s.Scale[j] + s.Mean[j]
	}, X)
	return result, nil
}

// Params は保存用の正規化パラメータ（コピー）を返す
func (s *StandardScaler) Params() (*model.NormalizationParams, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "Params")
	}
	return &model.NormalizationParams{
		Mean: append([]float64(nil), s.Mean...),
		Std:  append([]float64(nil), s.Scale...),
	}, nil
}

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return "StandardScaler()"
	}
	return fmt.Sprintf("StandardScaler(n_features=%d)", s.NFeatures)
}

func (s *StandardScaler) featureName(j int) string {
	if j < len(s.FeatureNames) {
		return s.FeatureNames[j]
	}
	return ""
}

var _ model.Transformer = (*StandardScaler)(nil)
