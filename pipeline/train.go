// Package pipeline はデータセットから学習・推論までの一連の処理をまとめます。
//
// 学習: 正規化 → 一対他ロジスティック回帰 → 正規化パラメータ付きのモデル。
// 推論: 欠損補完 → 正規化 → 確率 → argmax → 寮名。
package pipeline

import (
	"context"
	"fmt"
	"time"

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

// TrainResult は学習の成果物と診断情報
type TrainResult struct {
	Model      *model.ModelWeights
	Classifier *linear.OneVsRest
	Scaler     *preprocessing.StandardScaler

	// Accuracy は学習データに対する正解率
	Accuracy float64

	// Confusion は学習データの混同行列（行が正解）
	Confusion *mat.Dense

	Duration time.Duration
}

// Train はデータセットから寮の分類器を学習する。
// telはnilでもよい。ctxは学習中もエポックごとに確認する。
func Train(ctx context.Context, ds *dataset.Dataset, cfg linear.Config, tel *telemetry.Telemetry) (*TrainResult, error) {
	start := time.Now()
	logger := log.GetLoggerWithName("pipeline")

	X := ds.Features()
	if X == nil {
		return nil, errors.MarkInvalidInput(errors.NewModelError("pipeline.Train", "no complete rows in "+ds.Path, errors.ErrEmptyData))
	}
	y := ds.Labels()
	for i, label := range y {
		if label < 0 {
			return nil, errors.NewValueError("pipeline.Train", fmt.Sprintf("student with Index %d has no house", ds.Students[i].Index))
		}
	}

	scaler := preprocessing.NewStandardScaler(dataset.Courses...)
	Xs, err := scaler.FitTransform(X)
	if err != nil {
		return nil, errors.Wrap(err, "normalize training features")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	clf := linear.NewOneVsRest(len(dataset.Houses), linear.WithConfig(cfg))
	if err := clf.FitContext(ctx, Xs, y); err != nil {
		return nil, err
	}

	norm, err := scaler.Params()
	if err != nil {
		return nil, err
	}
	mw, err := clf.Export(dataset.Houses, dataset.Courses, norm)
	if err != nil {
		return nil, err
	}

	pred, err := clf.Predict(Xs)
	if err != nil {
		return nil, err
	}
	acc, err := metrics.Accuracy(y, pred)
	if err != nil {
		return nil, err
	}
	cm, err := metrics.ConfusionMatrix(y, pred, len(dataset.Houses))
	if err != nil {
		return nil, err
	}

	res := &TrainResult{
		Model:      mw,
		Classifier: clf,
		Scaler:     scaler,
		Accuracy:   acc,
		Confusion:  cm,
		Duration:   time.Since(start),
	}

	tel.RecordEpochs(cfg.Epochs * len(dataset.Houses))
	for k, history := range clf.CostHistory() {
		if len(history) > 0 {
			tel.SetFinalLoss(dataset.Houses[k], history[len(history)-1].Cost)
		}
	}
	tel.SetAccuracy(acc)
	tel.ObserveTraining(res.Duration)

	logger.Info("Model trained",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, ds.Len(),
		log.DroppedKey, ds.Dropped,
		log.AccuracyKey, acc,
		log.DurationMsKey, res.Duration.Milliseconds(),
		log.EstimatorIDKey, mw.ID,
	)
	return res, nil
}
