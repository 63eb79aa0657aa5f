package pipeline

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dslr/core/model"
	"github.com/YuminosukeSato/dslr/dataset"
	"github.com/YuminosukeSato/dslr/linear"
	"github.com/YuminosukeSato/dslr/metrics"
	"github.com/YuminosukeSato/dslr/pkg/errors"
	"github.com/YuminosukeSato/dslr/pkg/log"
	"github.com/YuminosukeSato/dslr/pkg/telemetry"
	"github.com/YuminosukeSato/dslr/preprocessing"
)

// NormalizationPolicy は推論時の正規化パラメータの選び方
type NormalizationPolicy int

const (
	// TrainingStats はモデルに保存された学習時の平均と標準偏差を使う（デフォルト）
	TrainingStats NormalizationPolicy = iota
	// RecomputeFromInput は推論入力自身の平均と標準偏差で正規化し直す
	RecomputeFromInput
)

func (p NormalizationPolicy) String() string {
	switch p {
	case TrainingStats:
		return "training"
	case RecomputeFromInput:
		return "recompute"
	default:
		return fmt.Sprintf("NormalizationPolicy(%d)", int(p))
	}
}

// PredictorOption はPredictorの設定を変更する
type PredictorOption func(*Predictor)

// WithPolicy は正規化ポリシーを設定する
func WithPolicy(policy NormalizationPolicy) PredictorOption {
	return func(p *Predictor) {
		p.policy = policy
	}
}

// WithTelemetry は予測件数を記録するメトリクスを設定する
func WithTelemetry(tel *telemetry.Telemetry) PredictorOption {
	return func(p *Predictor) {
		p.tel = tel
	}
}

// Predictor は保存済みモデルで寮を予測する。モデルは変更しない。
type Predictor struct {
	model  *model.ModelWeights
	clf    *linear.OneVsRest
	policy NormalizationPolicy
	tel    *telemetry.Telemetry
}

// Prediction は推論結果
type Prediction struct {
	// Classes はクラスインデックス（入力の行順）
	Classes []int

	// Houses はClassesに対応する寮名
	Houses []string

	// Probabilities は行 × クラスの確率
	Probabilities *mat.Dense

	// Imputed は補完した欠損値の数
	Imputed int
}

// NewPredictor はモデルから推論器を作成する
func NewPredictor(mw *model.ModelWeights, opts ...PredictorOption) (*Predictor, error) {
	clf, err := linear.NewOneVsRestFromWeights(mw)
	if err != nil {
		return nil, err
	}
	p := &Predictor{model: mw, clf: clf}
	for _, opt := range opts {
		opt(p)
	}

	if p.policy == TrainingStats && mw.Normalization == nil {
		return nil, errors.NewModelError("NewPredictor", "model has no normalization parameters",
			errors.NewValidationError("policy", "training statistics are not available, use recompute", p.policy.String()))
	}
	return p, nil
}

// Policy は正規化ポリシーを返す
func (p *Predictor) Policy() NormalizationPolicy {
	return p.policy
}

// Predict は生の特徴量（NaNを含んでもよい）から寮を予測する
func (p *Predictor) Predict(X mat.Matrix) (*Prediction, error) {
	r, c := X.Dims()
	if r == 0 {
		return nil, errors.MarkInvalidInput(errors.NewModelError("Predictor.Predict", "empty data", errors.ErrEmptyData))
	}
	if c != p.model.NumFeatures() {
		return nil, errors.MarkInvalidInput(errors.NewDimensionError("Predictor.Predict", p.model.NumFeatures(), c, 1))
	}

	var fallback []float64
	if p.model.Normalization != nil {
		fallback = p.model.Normalization.Mean
	}
	imputer := preprocessing.NewMeanImputer(fallback)
	Xi, err := imputer.FitTransform(X)
	if err != nil {
		return nil, errors.Wrap(err, "impute missing values")
	}

	var Xs *mat.Dense
	switch p.policy {
	case RecomputeFromInput:
		Xs, err = preprocessing.NewStandardScaler(p.model.Features...).FitTransform(Xi)
	default:
		var scaler *preprocessing.StandardScaler
		scaler, err = preprocessing.NewStandardScalerFromParams(p.model.Normalization, p.model.Features...)
		if err == nil {
			Xs, err = scaler.Transform(Xi)
		}
	}
	if err != nil {
		return nil, errors.Wrap(err, "normalize features")
	}

	P, err := p.clf.PredictProba(Xs)
	if err != nil {
		return nil, err
	}

	classes := linear.Argmax(P)
	houses := make([]string, len(classes))
	for i, k := range classes {
		houses[i] = p.model.Classes[k]
	}
	p.tel.RecordPredictions(houses)

	log.GetLoggerWithName("pipeline").Info("Houses predicted",
		log.OperationKey, log.OperationPredict,
		log.PhaseKey, log.PhaseInference,
		log.PredsKey, len(houses),
		log.ImputedKey, imputer.Imputed,
		"normalization", p.policy.String(),
	)

	return &Prediction{
		Classes:       classes,
		Houses:        houses,
		Probabilities: P,
		Imputed:       imputer.Imputed,
	}, nil
}

// PredictDataset はデータセットの全行を予測する
func (p *Predictor) PredictDataset(ds *dataset.Dataset) (*Prediction, error) {
	X := ds.Features()
	if X == nil {
		return nil, errors.MarkInvalidInput(errors.NewModelError("Predictor.PredictDataset", "no rows in "+ds.Path, errors.ErrEmptyData))
	}
	return p.Predict(X)
}

// Accuracy は正解ラベルが分かるときの正解率（診断用）
func (pr *Prediction) Accuracy(yTrue []int) (float64, error) {
	return metrics.Accuracy(yTrue, pr.Classes)
}
