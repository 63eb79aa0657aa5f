// Package metrics は分類器の評価指標を提供します。
package metrics

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dslr/pkg/errors"
)

// Accuracy は予測クラスが正解と一致した割合を返す
func Accuracy(yTrue, yPred []int) (float64, error) {
	if err := checkLabels("Accuracy", yTrue, yPred); err != nil {
		return 0, err
	}

	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue)), nil
}

// ClassificationError は 1 - Accuracy を返す
func ClassificationError(yTrue, yPred []int) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// ConfusionMatrix は nClasses × nClasses の混同行列を返す。
// 行が正解、列が予測クラス。
func ConfusionMatrix(yTrue, yPred []int, nClasses int) (*mat.Dense, error) {
	if err := checkLabels("ConfusionMatrix", yTrue, yPred); err != nil {
		return nil, err
	}
	if nClasses <= 0 {
		return nil, errors.NewValidationError("n_classes", "must be positive", nClasses)
	}

	cm := mat.NewDense(nClasses, nClasses, nil)
	for i := range yTrue {
		t, p := yTrue[i], yPred[i]
		if t < 0 || t >= nClasses || p < 0 || p >= nClasses {
			return nil, errors.NewValueError("ConfusionMatrix",
				fmt.Sprintf("label pair (%d, %d) at row %d is outside [0, %d)", t, p, i, nClasses))
		}
		cm.Set(t, p, cm.At(t, p)+1)
	}
	return cm, nil
}

// BinaryLogLoss は二値の交差エントロピー -mean(y·log(p) + (1-y)·log(1-p)) を返す。
// log(0) を避けるため確率は [1e-15, 1-1e-15] にクリップする。
func BinaryLogLoss(yTrue, yPred mat.Vector) (float64, error) {
	if yTrue == nil || yPred == nil || yTrue.Len() == 0 {
		return 0, errors.NewModelError("BinaryLogLoss", "empty data", errors.ErrEmptyData)
	}
	if yTrue.Len() != yPred.Len() {
		return 0, errors.NewDimensionError("BinaryLogLoss", yTrue.Len(), yPred.Len(), 0)
	}

	n := yTrue.Len()
	sum := 0.0
	for i := 0; i < n; i++ {
		y, p := yTrue.AtVec(i), yPred.AtVec(i)
		if y != 0 && y != 1 {
			return 0, errors.NewValueError("BinaryLogLoss", fmt.Sprintf("label %g at row %d is not 0 or 1", y, i))
		}
		sum += y*errors.StabilizeLog(p) + (1-y)*errors.StabilizeLog(1-p)
	}
	return -sum / float64(n), nil
}

func checkLabels(op string, yTrue, yPred []int) error {
	if len(yTrue) == 0 {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if len(yTrue) != len(yPred) {
		return errors.NewDimensionError(op, len(yTrue), len(yPred), 0)
	}
	return nil
}
