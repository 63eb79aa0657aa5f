package pipeline

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dslr/core/model"
	"github.com/YuminosukeSato/dslr/dataset"
	"github.com/YuminosukeSato/dslr/linear"
	"github.com/YuminosukeSato/dslr/pkg/errors"
	"github.com/YuminosukeSato/dslr/pkg/telemetry"
)

// syntheticCSV は寮kの生徒だけ科目kの点数が高いデータを作る
func syntheticCSV(n int, withHouse bool) string {
	var b strings.Builder
	b.WriteString(strings.Join(dataset.Header, ","))
	b.WriteString("\n")
	for i := 0; i < n; i++ {
		k := i % len(dataset.Houses)
		scores := make([]string, len(dataset.Courses))
		for j := range scores {
			v := float64(i%5) * 0.1
			if j == k {
				v += 10
			}
			scores[j] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		house := ""
		if withHouse {
			house = dataset.Houses[k]
		}
		fmt.Fprintf(&b, "%d,%s,First%d,Last%d,2000-01-%02d,Right,%s\n",
			i, house, i, i, i%28+1, strings.Join(scores, ","))
	}
	return b.String()
}

func loadSynthetic(t *testing.T, n int, mode dataset.Mode) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Read(strings.NewReader(syntheticCSV(n, mode == dataset.Training)), "synthetic.csv", mode)
	require.NoError(t, err)
	return ds
}

func testConfig() linear.Config {
	cfg := linear.DefaultConfig()
	cfg.LearningRate = 0.5
	cfg.Epochs = 300
	return cfg
}

func TestTrainAndPredict(t *testing.T) {
	train := loadSynthetic(t, 40, dataset.Training)

	res, err := Train(context.Background(), train, testConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Accuracy)
	assert.Equal(t, dataset.Houses, res.Model.Classes)
	assert.Equal(t, dataset.Courses, res.Model.Features)
	require.NotNil(t, res.Model.Normalization)
	assert.Len(t, res.Model.Normalization.Mean, len(dataset.Courses))

	// 対角成分の合計が全件数
	assert.Equal(t, 40.0, mat.Trace(res.Confusion))

	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, model.SaveModel(res.Model, path, model.FormatJSON))
	loaded, err := model.LoadModel(path)
	require.NoError(t, err)

	p, err := NewPredictor(loaded)
	require.NoError(t, err)
	assert.Equal(t, TrainingStats, p.Policy())

	pred, err := p.PredictDataset(train)
	require.NoError(t, err)
	for i, s := range train.Students {
		assert.Equal(t, s.House, pred.Houses[i], "row %d", i)
	}
	acc, err := pred.Accuracy(train.Labels())
	require.NoError(t, err)
	assert.Equal(t, 1.0, acc)
}

func TestPredictIsDeterministic(t *testing.T) {
	res, err := Train(context.Background(), loadSynthetic(t, 20, dataset.Training), testConfig(), nil)
	require.NoError(t, err)

	test := loadSynthetic(t, 20, dataset.Prediction)
	p, err := NewPredictor(res.Model)
	require.NoError(t, err)

	a, err := p.PredictDataset(test)
	require.NoError(t, err)
	b, err := p.PredictDataset(test)
	require.NoError(t, err)
	assert.Equal(t, a.Houses, b.Houses)
	assert.True(t, mat.Equal(a.Probabilities, b.Probabilities))
}

func TestPredictPolicies(t *testing.T) {
	train := loadSynthetic(t, 40, dataset.Training)
	res, err := Train(context.Background(), train, testConfig(), nil)
	require.NoError(t, err)

	stored, err := NewPredictor(res.Model)
	require.NoError(t, err)
	recompute, err := NewPredictor(res.Model, WithPolicy(RecomputeFromInput))
	require.NoError(t, err)
	assert.Equal(t, "recompute", recompute.Policy().String())

	// 学習データそのものなら再計算した統計量も学習時と一致する
	a, err := stored.PredictDataset(train)
	require.NoError(t, err)
	b, err := recompute.PredictDataset(train)
	require.NoError(t, err)
	assert.Equal(t, a.Classes, b.Classes)
	assert.True(t, mat.EqualApprox(a.Probabilities, b.Probabilities, 1e-9))
}

func TestPredictorWithoutNormalization(t *testing.T) {
	mw := model.NewModelWeights(mat.NewDense(4, 13, nil), make([]float64, 4), dataset.Houses, dataset.Courses)

	_, err := NewPredictor(mw)
	require.Error(t, err)

	p, err := NewPredictor(mw, WithPolicy(RecomputeFromInput))
	require.NoError(t, err)
	pred, err := p.PredictDataset(loadSynthetic(t, 8, dataset.Prediction))
	require.NoError(t, err)
	for _, h := range pred.Houses {
		assert.Equal(t, "Gryffindor", h)
	}
}

func TestZeroModelPredictsFirstHouse(t *testing.T) {
	mw := model.NewModelWeights(mat.NewDense(4, 13, nil), make([]float64, 4), dataset.Houses, dataset.Courses)
	mw.Normalization = &model.NormalizationParams{Mean: make([]float64, 13), Std: ones(13)}

	p, err := NewPredictor(mw)
	require.NoError(t, err)
	pred, err := p.PredictDataset(loadSynthetic(t, 12, dataset.Prediction))
	require.NoError(t, err)

	for i, k := range pred.Classes {
		assert.Equal(t, 0, k, "row %d", i)
		assert.Equal(t, 0.5, pred.Probabilities.At(i, 3))
	}
}

func TestPredictImputesMissingValues(t *testing.T) {
	res, err := Train(context.Background(), loadSynthetic(t, 40, dataset.Training), testConfig(), nil)
	require.NoError(t, err)
	p, err := NewPredictor(res.Model)
	require.NoError(t, err)

	test := loadSynthetic(t, 8, dataset.Prediction)
	X := test.Features()
	X.Set(0, 5, math.NaN())
	for i := 0; i < 8; i++ {
		// 観測値が無い列は学習時の平均で補う
		X.Set(i, 12, math.NaN())
	}

	pred, err := p.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, 9, pred.Imputed)
	assert.Len(t, pred.Houses, 8)
	assert.Equal(t, "Gryffindor", pred.Houses[0])
	assert.Equal(t, "Hufflepuff", pred.Houses[1])
}

func TestPredictInvalidInput(t *testing.T) {
	mw := model.NewModelWeights(mat.NewDense(4, 13, nil), make([]float64, 4), dataset.Houses, dataset.Courses)
	mw.Normalization = &model.NormalizationParams{Mean: make([]float64, 13), Std: ones(13)}
	p, err := NewPredictor(mw)
	require.NoError(t, err)

	_, err = p.Predict(mat.NewDense(2, 3, nil))
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	empty, err := dataset.Read(strings.NewReader(strings.Join(dataset.Header, ",")+"\n"), "empty.csv", dataset.Prediction)
	require.NoError(t, err)
	_, err = p.PredictDataset(empty)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestTrainErrors(t *testing.T) {
	t.Run("empty dataset", func(t *testing.T) {
		ds := &dataset.Dataset{Path: "empty.csv"}
		_, err := Train(context.Background(), ds, testConfig(), nil)
		assert.True(t, errors.Is(err, errors.ErrInvalidInput))
	})

	t.Run("unlabeled rows", func(t *testing.T) {
		ds := loadSynthetic(t, 8, dataset.Prediction)
		_, err := Train(context.Background(), ds, testConfig(), nil)
		assert.True(t, errors.Is(err, errors.ErrInvalidInput))
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Train(ctx, loadSynthetic(t, 8, dataset.Training), testConfig(), nil)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := testConfig()
		cfg.Epochs = 0
		_, err := Train(context.Background(), loadSynthetic(t, 8, dataset.Training), cfg, nil)
		var ve *errors.ValidationError
		assert.True(t, errors.As(err, &ve))
	})
}

func TestTrainTelemetry(t *testing.T) {
	tel := telemetry.New()
	cfg := testConfig()

	res, err := Train(context.Background(), loadSynthetic(t, 40, dataset.Training), cfg, tel)
	require.NoError(t, err)

	assert.Equal(t, float64(cfg.Epochs*4), testutil.ToFloat64(tel.EpochsTotal))
	assert.Equal(t, res.Accuracy, testutil.ToFloat64(tel.TrainingAccuracy))
	loss := testutil.ToFloat64(tel.FinalLoss.WithLabelValues("Slytherin"))
	assert.Greater(t, loss, 0.0)
	assert.Less(t, loss, math.Ln2)

	p, err := NewPredictor(res.Model, WithTelemetry(tel))
	require.NoError(t, err)
	_, err = p.PredictDataset(loadSynthetic(t, 8, dataset.Prediction))
	require.NoError(t, err)
	assert.Equal(t, 2.0, testutil.ToFloat64(tel.PredictionsTotal.WithLabelValues("Ravenclaw")))
}

func TestWritePredictions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "houses.csv")

	require.NoError(t, WritePredictions(path, []string{"Hufflepuff", "Ravenclaw", "Gryffindor"}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Index,Hogwarts House\n0,Hufflepuff\n1,Ravenclaw\n2,Gryffindor\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestWritePredictionsFailure(t *testing.T) {
	dir := t.TempDir()

	err := WritePredictions(filepath.Join(dir, "missing", "houses.csv"), []string{"Slytherin"})
	require.Error(t, err)

	err = WritePredictions(filepath.Join(dir, "houses.csv"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func ones(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}
