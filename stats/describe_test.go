package stats

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/dslr/pkg/errors"
)

func TestStatistics(t *testing.T) {
	nan := math.NaN()
	x := []float64{4, nan, 1, 3, 2}

	tests := []struct {
		name string
		fn   func([]float64) float64
		want float64
	}{
		{"Count", Count, 4},
		{"Mean", Mean, 2.5},
		{"Var", Var, 5.0 / 3.0},
		{"Std", Std, math.Sqrt(5.0 / 3.0)},
		{"Min", Min, 1},
		{"Max", Max, 4},
		{"PtP", PtP, 3},
		{"25%", Percentile(25), 1.75},
		{"50%", Percentile(50), 2.5},
		{"75%", Percentile(75), 3.25},
		{"0%", Percentile(0), 1},
		{"100%", Percentile(100), 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.fn(x), 1e-12)
		})
	}
}

func TestStatisticsDoNotReorderInput(t *testing.T) {
	x := []float64{3, 1, 2}
	Percentile(50)(x)
	assert.Equal(t, []float64{3, 1, 2}, x)
}

func TestStatisticsEmptyColumn(t *testing.T) {
	nan := math.NaN()
	x := []float64{nan, nan}

	assert.Equal(t, 0.0, Count(x))
	for _, s := range Statistics[1:] {
		assert.True(t, math.IsNaN(s.Fn(x)), "%s should be NaN", s.Name)
	}
	assert.Equal(t, 0.0, Count(nil))
}

func TestSingleValue(t *testing.T) {
	x := []float64{7}
	assert.Equal(t, 7.0, Mean(x))
	assert.Equal(t, 7.0, Percentile(75)(x))
	assert.True(t, math.IsNaN(Var(x)))
	assert.Equal(t, 0.0, PtP(x))
}

func TestStatisticOrder(t *testing.T) {
	names := make([]string, len(Statistics))
	for i, s := range Statistics {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"Count", "Mean", "Std", "Min", "25%", "50%", "75%", "Max", "Var", "PtP"}, names)
}

func TestDescribeAndFormat(t *testing.T) {
	table, err := Describe([]Column{
		{Name: "Index", Values: []float64{0, 1, 2, 3}},
		{Name: "Flying", Values: []float64{-1.5, 2, math.NaN(), 0.5}},
	})
	require.NoError(t, err)

	v, ok := table.Get("Mean", "Index")
	require.True(t, ok)
	assert.Equal(t, 1.5, v)

	v, ok = table.Get("Count", "Flying")
	require.True(t, ok)
	assert.Equal(t, 3.0, v)

	_, ok = table.Get("Median", "Index")
	assert.False(t, ok)
	_, ok = table.Get("Mean", "Charms")
	assert.False(t, ok)

	var buf bytes.Buffer
	require.NoError(t, table.Format(&buf))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 1+len(Statistics))

	assert.Equal(t, "                Index        Flying", lines[0])
	assert.Equal(t, "Count        4.000000      3.000000", lines[1])
	assert.Equal(t, "Min          0.000000     -1.500000", lines[4])
	assert.Equal(t, "PtP          3.000000      3.500000", lines[10])
}

func TestDescribeNoColumns(t *testing.T) {
	_, err := Describe(nil)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestDescribeManyColumns(t *testing.T) {
	// 並列計算になる列数でも列ごとの結果は変わらない
	columns := make([]Column, 3*parallelColumns)
	for j := range columns {
		values := make([]float64, 10)
		for i := range values {
			values[i] = float64(i*(j+1)) - float64(j)
		}
		if j%3 == 0 {
			values[2] = math.NaN()
		}
		columns[j] = Column{Name: fmt.Sprintf("c%d", j), Values: values}
	}

	table, err := Describe(columns)
	require.NoError(t, err)
	require.Len(t, table.Values, len(Statistics))

	for i, s := range Statistics {
		for j, c := range columns {
			want := s.Fn(c.Values)
			assert.InDelta(t, want, table.Values[i][j], 1e-12, "%s of %s", s.Name, c.Name)
		}
	}
}
