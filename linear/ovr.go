package linear

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dslr/core/model"
	"github.com/YuminosukeSato/dslr/core/parallel"
	"github.com/YuminosukeSato/dslr/metrics"
	"github.com/YuminosukeSato/dslr/pkg/errors"
	"github.com/YuminosukeSato/dslr/pkg/log"
)

// OneVsRest はクラスごとに二値ロジスティック回帰を学習する多クラス分類器。
// 重み行列は nClasses × nFeatures、バイアスは nClasses。
type OneVsRest struct {
	model.BaseEstimator

	config Config

	// NClasses はクラス数。0ならFit時にラベルの最大値+1とする。
	NClasses int

	// NFeatures は特徴量の数
	NFeatures int

	// Classifiers はクラスインデックス順の二値分類器
	Classifiers []*BinaryClassifier
}

// NewOneVsRest は新しい一対他分類器を作成する
//
// 使用例:
//
//	clf := linear.NewOneVsRest(4, linear.WithLearningRate(0.1), linear.WithEpochs(5000))
//	err := clf.FitContext(ctx, X, y)
//	classes, err := clf.Predict(Xtest)
func NewOneVsRest(nClasses int, opts ...Option) *OneVsRest {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &OneVsRest{config: cfg, NClasses: nClasses}
}

// NewOneVsRestFromWeights は保存済みのモデルから推論用の分類器を復元する
func NewOneVsRestFromWeights(mw *model.ModelWeights) (*OneVsRest, error) {
	if err := mw.Validate(); err != nil {
		return nil, errors.NewModelError("OneVsRest.FromWeights", "invalid model", err)
	}

	o := &OneVsRest{
		config:    DefaultConfig(),
		NClasses:  mw.NumClasses(),
		NFeatures: mw.NumFeatures(),
	}
	o.config.LearningRate = mw.Hyperparameters.LearningRate
	o.config.Epochs = mw.Hyperparameters.Epochs
	o.config.BatchSize = mw.Hyperparameters.BatchSize

	W := mw.Matrix()
	o.Classifiers = make([]*BinaryClassifier, o.NClasses)
	for k := range o.Classifiers {
		o.Classifiers[k] = &BinaryClassifier{
			Weights: mat.VecDenseCopyOf(W.RowView(k)),
			Bias:    mw.Biases[k],
		}
	}
	o.SetFitted()
	return o, nil
}

// Config は学習設定を返す
func (o *OneVsRest) Config() Config {
	return o.config
}

// Fit はクラスcごとにラベルを「c なら1、それ以外は0」に変換し、二値分類器を学習する。
// X は正規化済みで、NaNを含まず、yと行数が一致している必要がある。
func (o *OneVsRest) Fit(X mat.Matrix, y []int) error {
	return o.FitContext(context.Background(), X, y)
}

// FitContext はFitの取り消し可能版。ctxが終了すると学習を打ち切り、
// 分類器は未学習のままになる。
func (o *OneVsRest) FitContext(ctx context.Context, X mat.Matrix, y []int) (err error) {
	defer errors.Recover(&err, "OneVsRest.Fit")
	start := time.Now()

	if err := o.config.Validate(); err != nil {
		return err
	}
	Xd, nClasses, err := o.validateTrainingInput(X, y)
	if err != nil {
		return err
	}

	n, c := Xd.Dims()
	o.Reset()
	o.NClasses = nClasses
	o.NFeatures = c
	o.Classifiers = make([]*BinaryClassifier, nClasses)

	logger := o.config.logger()
	logger.Info("Training one-vs-rest classifier",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, n,
		log.FeaturesKey, c,
		log.LearningRateKey, o.config.LearningRate,
		log.EpochsKey, o.config.Epochs,
		log.BatchSizeKey, o.config.batchSizeFor(n),
	)

	trainClass := func(k int) error {
		yk := mat.NewVecDense(n, nil)
		for i, label := range y {
			if label == k {
				yk.SetVec(i, 1)
			}
		}

		cfg := o.config
		cfg.Logger = logger.With(log.ClassKey, k)

		clf := NewBinaryClassifier(c)
		if err := clf.FitContext(ctx, Xd, yk, cfg); err != nil {
			return errors.Wrapf(err, "class %d", k)
		}
		if clf.FinalCost() > clf.InitialCost() {
			errors.Warn(errors.NewConvergenceWarning("OneVsRest", k, cfg.Epochs, clf.InitialCost(), clf.FinalCost()))
		}
		o.Classifiers[k] = clf
		return nil
	}

	workers := 1
	if o.config.Parallel {
		workers = o.config.Workers
	}
	if err := parallel.ForEach(nClasses, workers, trainClass); err != nil {
		return err
	}

	o.SetFitted()
	logger.Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

func (o *OneVsRest) validateTrainingInput(X mat.Matrix, y []int) (*mat.Dense, int, error) {
	n, c := X.Dims()
	if n == 0 || c == 0 || len(y) == 0 {
		return nil, 0, errors.MarkInvalidInput(errors.NewModelError("OneVsRest.Fit", "empty data", errors.ErrEmptyData))
	}
	if len(y) != n {
		return nil, 0, errors.MarkInvalidInput(errors.NewDimensionError("OneVsRest.Fit", n, len(y), 0))
	}

	Xd := mat.DenseCopyOf(X)
	if err := errors.CheckMatrix("OneVsRest.Fit", Xd, 0); err != nil {
		return nil, 0, err
	}

	nClasses := o.NClasses
	if nClasses <= 0 {
		for _, label := range y {
			if label+1 > nClasses {
				nClasses = label + 1
			}
		}
	}
	if nClasses < 2 {
		return nil, 0, errors.NewValueError("OneVsRest.Fit", fmt.Sprintf("need at least 2 classes, got %d", nClasses))
	}
	for i, label := range y {
		if label < 0 || label >= nClasses {
			return nil, 0, errors.NewValueError("OneVsRest.Fit",
				fmt.Sprintf("label %d at row %d is outside [0, %d)", label, i, nClasses))
		}
	}
	return Xd, nClasses, nil
}

// Weights は重み行列（nClasses × nFeatures）のコピーを返す
func (o *OneVsRest) Weights() (*mat.Dense, error) {
	if !o.IsFitted() {
		return nil, errors.NewNotFittedError("OneVsRest", "Weights")
	}
	W := mat.NewDense(o.NClasses, o.NFeatures, nil)
	for k, clf := range o.Classifiers {
		W.SetRow(k, clf.Weights.RawVector().Data)
	}
	return W, nil
}

// Biases はクラスごとのバイアスを返す
func (o *OneVsRest) Biases() ([]float64, error) {
	if !o.IsFitted() {
		return nil, errors.NewNotFittedError("OneVsRest", "Biases")
	}
	b := make([]float64, o.NClasses)
	for k, clf := range o.Classifiers {
		b[k] = clf.Bias
	}
	return b, nil
}

// CostHistory はクラスごとのコスト履歴を返す
func (o *OneVsRest) CostHistory() [][]CostPoint {
	history := make([][]CostPoint, len(o.Classifiers))
	for k, clf := range o.Classifiers {
		history[k] = append([]CostPoint(nil), clf.Costs...)
	}
	return history
}

// PredictProba は sigmoid(X·Wᵀ + b) を返す（行 × クラス）。
// 各列はそのクラスの二値分類器の確率で、行ごとの和は1とは限らない。
func (o *OneVsRest) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	if !o.IsFitted() {
		return nil, errors.NewNotFittedError("OneVsRest", "PredictProba")
	}
	r, c := X.Dims()
	if r == 0 {
		return nil, errors.MarkInvalidInput(errors.NewModelError("OneVsRest.PredictProba", "empty data", errors.ErrEmptyData))
	}
	if c != o.NFeatures {
		return nil, errors.MarkInvalidInput(errors.NewDimensionError("OneVsRest.PredictProba", o.NFeatures, c, 1))
	}
	if err := errors.CheckMatrix("OneVsRest.PredictProba", X, 0); err != nil {
		return nil, err
	}

	W, _ := o.Weights()
	b, _ := o.Biases()

	var P mat.Dense
	P.Mul(X, W.T())
	P.Apply(func(_, k int, z float64) float64 {
		return Sigmoid(z + b[k])
	}, &P)
	return &P, nil
}

// Predict は行ごとに確率が最大のクラスインデックスを返す。
// 同じ確率のクラスが複数ある場合は小さいインデックスを選ぶ。
func (o *OneVsRest) Predict(X mat.Matrix) ([]int, error) {
	P, err := o.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return Argmax(P), nil
}

// Score は正解率を返す
func (o *OneVsRest) Score(X mat.Matrix, y []int) (float64, error) {
	pred, err := o.Predict(X)
	if err != nil {
		return 0, err
	}
	acc, err := metrics.Accuracy(y, pred)
	if err != nil {
		return 0, errors.MarkInvalidInput(err)
	}
	return acc, nil
}

// Export は学習結果を永続化用のアーティファクトに変換する
func (o *OneVsRest) Export(classes, features []string, norm *model.NormalizationParams) (*model.ModelWeights, error) {
	W, err := o.Weights()
	if err != nil {
		return nil, err
	}
	if len(classes) != o.NClasses {
		return nil, errors.NewDimensionError("OneVsRest.Export", o.NClasses, len(classes), 0)
	}
	b, _ := o.Biases()

	mw := model.NewModelWeights(W, b, classes, features)
	mw.Hyperparameters = model.Hyperparameters{
		LearningRate: o.config.LearningRate,
		Epochs:       o.config.Epochs,
		BatchSize:    o.config.BatchSize,
	}
	if norm != nil {
		mw.Normalization = &model.NormalizationParams{
			Mean: append([]float64(nil), norm.Mean...),
			Std:  append([]float64(nil), norm.Std...),
		}
	}
	if err := mw.Validate(); err != nil {
		return nil, errors.NewModelError("OneVsRest.Export", "invalid model", err)
	}
	return mw, nil
}

// Argmax は各行で最大値を持つ列のインデックスを返す（同値なら最初の列）。
// NaNは無視される。
func Argmax(P *mat.Dense) []int {
	r, _ := P.Dims()
	out := make([]int, r)
	for i := 0; i < r; i++ {
		out[i] = floats.MaxIdx(P.RawRowView(i))
	}
	return out
}

var _ model.Classifier = (*OneVsRest)(nil)
