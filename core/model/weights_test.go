package model

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewModelWeightsCopiesInput(t *testing.T) {
	w := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	biases := []float64{0.5, -0.5}
	classes := []string{"a", "b"}

	mw := NewModelWeights(w, biases, classes, nil)

	w.Set(0, 0, 100)
	biases[0] = 100
	classes[0] = "changed"

	assert.Equal(t, 1.0, mw.Weights[0][0])
	assert.Equal(t, 0.5, mw.Biases[0])
	assert.Equal(t, "a", mw.Classes[0])
	assert.Equal(t, 2, mw.NumClasses())
	assert.Equal(t, 3, mw.NumFeatures())
	assert.True(t, mw.IsFitted)
	assert.Equal(t, ModelTypeOneVsRest, mw.ModelType)

	_, err := uuid.Parse(mw.ID)
	assert.NoError(t, err)
}

func TestModelWeightsMatrix(t *testing.T) {
	w := mat.NewDense(2, 2, []float64{1, -2, 3, -4})
	mw := NewModelWeights(w, []float64{0, 0}, []string{"a", "b"}, nil)

	assert.True(t, mat.Equal(w, mw.Matrix()))
	assert.Nil(t, (&ModelWeights{}).Matrix())
}

func TestModelWeightsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(mw *ModelWeights)
		wantErr bool
	}{
		{name: "valid", mutate: func(*ModelWeights) {}},
		{name: "wrong type", mutate: func(mw *ModelWeights) { mw.ModelType = "LinearRegression" }, wantErr: true},
		{name: "not fitted", mutate: func(mw *ModelWeights) { mw.IsFitted = false }, wantErr: true},
		{name: "empty weights", mutate: func(mw *ModelWeights) { mw.Weights = nil }, wantErr: true},
		{name: "class count", mutate: func(mw *ModelWeights) { mw.Classes = mw.Classes[:1] }, wantErr: true},
		{name: "feature names", mutate: func(mw *ModelWeights) { mw.Features = []string{"only"} }, wantErr: true},
		{name: "nan weight", mutate: func(mw *ModelWeights) { mw.Weights[1][0] = math.NaN() }, wantErr: true},
		{name: "inf bias", mutate: func(mw *ModelWeights) { mw.Biases[2] = math.Inf(-1) }, wantErr: true},
		{name: "mean length", mutate: func(mw *ModelWeights) { mw.Normalization.Mean = []float64{0} }, wantErr: true},
		{name: "negative std", mutate: func(mw *ModelWeights) { mw.Normalization.Std[0] = -1 }, wantErr: true},
		{name: "no normalization", mutate: func(mw *ModelWeights) { mw.Normalization = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := newTestWeights()
			tt.mutate(mw)
			err := mw.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestModelWeightsClone(t *testing.T) {
	original := newTestWeights()
	clone := original.Clone()

	clone.Weights[0][0] = 99
	clone.Biases[0] = 99
	clone.Normalization.Mean[0] = 99
	clone.Classes[0] = "Z"

	assert.Equal(t, 0.0, original.Weights[0][0])
	assert.Equal(t, 0.0, original.Biases[0])
	assert.Equal(t, 1.0/3.0, original.Normalization.Mean[0])
	assert.Equal(t, "A", original.Classes[0])
	require.NoError(t, clone.Validate())
}
