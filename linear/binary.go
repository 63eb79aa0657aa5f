package linear

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dslr/metrics"
	"github.com/YuminosukeSato/dslr/pkg/errors"
	"github.com/YuminosukeSato/dslr/pkg/log"
)

// Sigmoid はロジスティック関数 1 / (1 + exp(-z))
func Sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

// CostPoint はコスト履歴の1点
type CostPoint struct {
	Epoch int     `json:"epoch"`
	Cost  float64 `json:"cost"`
}

// BinaryClassifier は一つのクラス対その他を判定するロジスティック回帰
type BinaryClassifier struct {
	// Weights は特徴量ごとの重み
	Weights *mat.VecDense

	// Bias は切片
	Bias float64

	// Costs は学習中に記録した交差エントロピー
	Costs []CostPoint
}

// NewBinaryClassifier は重みとバイアスを0で初期化した分類器を作成する
func NewBinaryClassifier(nFeatures int) *BinaryClassifier {
	return &BinaryClassifier{
		Weights: mat.NewVecDense(nFeatures, nil),
	}
}

// Probabilities は各行のsigmoid(x·w + b)を返す
func (b *BinaryClassifier) Probabilities(X mat.Matrix) *mat.VecDense {
	r, _ := X.Dims()
	p := mat.NewVecDense(r, nil)
	p.MulVec(X, b.Weights)
	for i := 0; i < r; i++ {
		p.SetVec(i, Sigmoid(p.AtVec(i)+b.Bias))
	}
	return p
}

// Cost は交差エントロピー -mean(y·log(p) + (1-y)·log(1-p)) を返す
func (b *BinaryClassifier) Cost(X mat.Matrix, y mat.Vector) float64 {
	cost, err := metrics.BinaryLogLoss(y, b.Probabilities(X))
	if err != nil {
		return math.NaN()
	}
	return cost
}

// Step はバッチ1つ分の勾配降下を行う
//
//	dw = Xᵀ(ŷ - y) / m,  db = Σ(ŷ - y) / m
//	w -= lr·dw,          b -= lr·db
func (b *BinaryClassifier) Step(X mat.Matrix, y mat.Vector, learningRate float64) {
	m, _ := X.Dims()
	diff := b.Probabilities(X)
	diff.SubVec(diff, y)

	var dw mat.VecDense
	dw.MulVec(X.T(), diff)
	dw.ScaleVec(1/float64(m), &dw)
	db := mat.Sum(diff) / float64(m)

	b.Weights.AddScaledVec(b.Weights, -learningRate, &dw)
	b.Bias -= learningRate * db
}

// Fit はエポックごとに行を先頭から連続したバッチに分け、バッチごとに1回更新する。
// 行の順序はシャッフルしない。重みは0から学習し直す。
func (b *BinaryClassifier) Fit(X *mat.Dense, y *mat.VecDense, cfg Config) error {
	return b.FitContext(context.Background(), X, y, cfg)
}

// FitContext はFitと同じ学習を行い、エポックごとにctxの取り消しを確認する。
// 取り消された場合は途中の重みのままctxのエラーを返す。
func (b *BinaryClassifier) FitContext(ctx context.Context, X *mat.Dense, y *mat.VecDense, cfg Config) error {
	n, c := X.Dims()
	if n == 0 || c == 0 {
		return errors.MarkInvalidInput(errors.NewModelError("BinaryClassifier.Fit", "empty data", errors.ErrEmptyData))
	}
	if y.Len() != n {
		return errors.MarkInvalidInput(errors.NewDimensionError("BinaryClassifier.Fit", n, y.Len(), 0))
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	b.Weights = mat.NewVecDense(c, nil)
	b.Bias = 0
	b.Costs = b.Costs[:0]

	logger := cfg.logger()
	batch := cfg.batchSizeFor(n)
	b.Costs = append(b.Costs, CostPoint{Epoch: 0, Cost: b.Cost(X, y)})

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "training stopped at epoch %d of %d", epoch-1, cfg.Epochs)
		}
		for start := 0; start < n; start += batch {
			end := start + batch
			if end > n {
				end = n
			}
			Xb := X.Slice(start, end, 0, c)
			yb := y.SliceVec(start, end)
			b.Step(Xb, yb, cfg.LearningRate)
		}

		if epoch == cfg.Epochs || (cfg.LogEvery > 0 && epoch%cfg.LogEvery == 0) {
			cost := b.Cost(X, y)
			b.Costs = append(b.Costs, CostPoint{Epoch: epoch, Cost: cost})
			logger.Debug("Training progress", log.EpochKey, epoch, log.LossKey, cost)
		}
	}

	if err := errors.CheckNumericalStability("BinaryClassifier.Fit", b.Weights.RawVector().Data, cfg.Epochs); err != nil {
		return err
	}
	return errors.CheckScalar("BinaryClassifier.Fit", b.Bias, cfg.Epochs)
}

// InitialCost は学習前のコスト
func (b *BinaryClassifier) InitialCost() float64 {
	if len(b.Costs) == 0 {
		return math.NaN()
	}
	return b.Costs[0].Cost
}

// FinalCost は最後に記録したコスト
func (b *BinaryClassifier) FinalCost() float64 {
	if len(b.Costs) == 0 {
		return math.NaN()
	}
	return b.Costs[len(b.Costs)-1].Cost
}
