// Package stats はNaNを無視する記述統計と、その固定幅テーブル出力を提供します。
package stats

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/dslr/core/parallel"
	"github.com/YuminosukeSato/dslr/pkg/errors"
)

// DDOF は標準偏差と分散の自由度補正（標本分散）
const DDOF = 1

// Statistic は名前付きの統計量
type Statistic struct {
	Name string
	Fn   func([]float64) float64
}

// Statistics は出力する統計量。この順で行になる。
var Statistics = []Statistic{
	{Name: "Count", Fn: Count},
	{Name: "Mean", Fn: Mean},
	{Name: "Std", Fn: Std},
	{Name: "Min", Fn: Min},
	{Name: "25%", Fn: Percentile(25)},
	{Name: "50%", Fn: Percentile(50)},
	{Name: "75%", Fn: Percentile(75)},
	{Name: "Max", Fn: Max},
	{Name: "Var", Fn: Var},
	{Name: "PtP", Fn: PtP},
}

// dropNaN はNaNを除いたコピーを返す
func dropNaN(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Count はNaNでない値の数
func Count(x []float64) float64 {
	n := 0
	for _, v := range x {
		if !math.IsNaN(v) {
			n++
		}
	}
	return float64(n)
}

// Mean は算術平均
func Mean(x []float64) float64 {
	v := dropNaN(x)
	if len(v) == 0 {
		return math.NaN()
	}
	return stat.Mean(v, nil)
}

// Var は標本分散（ddof=1）。値が1つ以下ならNaN。
func Var(x []float64) float64 {
	v := dropNaN(x)
	if len(v) <= DDOF {
		return math.NaN()
	}
	return stat.Variance(v, nil)
}

// Std は標本標準偏差
func Std(x []float64) float64 {
	return math.Sqrt(Var(x))
}

// Min は最小値
func Min(x []float64) float64 {
	v := dropNaN(x)
	if len(v) == 0 {
		return math.NaN()
	}
	return floats.Min(v)
}

// Max は最大値
func Max(x []float64) float64 {
	v := dropNaN(x)
	if len(v) == 0 {
		return math.NaN()
	}
	return floats.Max(v)
}

// PtP は最大値と最小値の差
func PtP(x []float64) float64 {
	return Max(x) - Min(x)
}

// Percentile はp%点を返す関数を作る。
// 昇順に並べた値で rank = (n-1)·p/100 とし、前後の値を線形補間する。
func Percentile(p float64) func([]float64) float64 {
	return func(x []float64) float64 {
		v := dropNaN(x)
		if len(v) == 0 {
			return math.NaN()
		}
		sort.Float64s(v)

		rank := float64(len(v)-1) * p / 100
		lo := int(rank)
		hi := lo + 1
		lower := v[lo]
		upper := lower
		if hi < len(v) {
			upper = v[hi]
		}
		return lower + (upper-lower)*(rank-float64(lo))
	}
}

// Column は名前付きの数値列
type Column struct {
	Name   string
	Values []float64
}

// Table は列ごとに Statistics を計算した結果。
// Values[i][j] は Statistics[i] の Columns[j] に対する値。
type Table struct {
	Columns []string
	Values  [][]float64
}

// parallelColumns を超える列数なら列ごとに並列計算する
const parallelColumns = 8

// Describe は各列の統計量を計算する
func Describe(columns []Column) (*Table, error) {
	if len(columns) == 0 {
		return nil, errors.NewModelError("Describe", "no numeric columns", errors.ErrEmptyData)
	}

	t := &Table{
		Columns: make([]string, len(columns)),
		Values:  make([][]float64, len(Statistics)),
	}
	for j, c := range columns {
		t.Columns[j] = c.Name
	}
	for i := range Statistics {
		t.Values[i] = make([]float64, len(columns))
	}

	// 列ごとに独立なので、列が多いときだけ並列に計算する
	err := parallel.ForEachWithThreshold(len(columns), parallelColumns, 0, func(j int) error {
		for i, s := range Statistics {
			t.Values[i][j] = s.Fn(columns[j].Values)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Get は統計量名と列名で値を引く
func (t *Table) Get(statistic, column string) (float64, bool) {
	j := -1
	for k, c := range t.Columns {
		if c == column {
			j = k
			break
		}
	}
	if j < 0 {
		return 0, false
	}
	for i, s := range Statistics {
		if s.Name == statistic {
			return t.Values[i][j], true
		}
	}
	return 0, false
}

const labelWidth = 8

// Format は固定幅のテキストテーブルを書き出す。
// 1列目は幅8の左寄せ、各列は幅 8+len(列名) の右寄せで小数6桁。
func (t *Table) Format(w io.Writer) error {
	bw := bufio.NewWriter(w)

	bw.WriteString(strings.Repeat(" ", labelWidth))
	for _, name := range t.Columns {
		fmt.Fprintf(bw, "%*s", labelWidth+len(name), name)
	}
	bw.WriteString("\n")

	for i, s := range Statistics {
		fmt.Fprintf(bw, "%-*s", labelWidth, s.Name)
		for j, name := range t.Columns {
			fmt.Fprintf(bw, "%*.6f", labelWidth+len(name), t.Values[i][j])
		}
		bw.WriteString("\n")
	}
	return errors.Wrap(bw.Flush(), "write describe table")
}
