package plots

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/dslr/dataset"
	"github.com/YuminosukeSato/dslr/linear"
	"github.com/YuminosukeSato/dslr/pkg/errors"
)

const sample = "Index,Hogwarts House,First Name,Last Name,Birthday,Best Hand," +
	"Arithmancy,Astronomy,Herbology,Defense Against the Dark Arts,Divination,Muggle Studies," +
	"Ancient Runes,History of Magic,Transfiguration,Potions,Care of Magical Creatures,Charms,Flying\n" +
	"0,Ravenclaw,A,B,2000-03-30,Left,58384,-487.88,5.72,4.87,4.72,272.03,532.24,5.23,1039.79,3.79,0.71,1.0,-232.79\n" +
	"1,Slytherin,C,D,1999-10-14,Right,67239,-552.06,-5.98,5.52,-5.61,-487.34,367.76,4.91,1058.94,7.24,0.09,-0.25,-227.34\n" +
	"2,Ravenclaw,E,F,1999-11-03,Left,23702,-366.07,7.72,3.66,6.14,664.89,602.58,3.55,1088.08,8.72,-0.51,-2.0,-256.84\n" +
	"3,Gryffindor,G,H,2000-08-19,Left,32667,697.74,-6.49,-6.98,4.02,-537.00,523.98,-4.80,920.39,0.82,-0.01,-2.16,157.98\n" +
	"4,Gryffindor,I,J,1999-08-22,Left,60888,436.77,-7.82,,2.24,-444.26,599.32,-3.44,937.43,4.31,-0.64,-1.79,201.49\n" +
	"5,Hufflepuff,K,L,1998-09-24,Right,70992,-470.60,4.13,5.42,-3.04,-478.96,428.94,5.60,1049.36,4.06,0.44,-2.39,-42.45\n"

func loadSample(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Read(strings.NewReader(sample), "sample.csv", dataset.Prediction)
	require.NoError(t, err)
	return ds
}

func requireNonEmptyFile(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestHistogram(t *testing.T) {
	ds := loadSample(t)

	p, err := Histogram(ds, "Care of Magical Creatures", 0)
	require.NoError(t, err)
	assert.Equal(t, "Care of Magical Creatures", p.Title.Text)

	path := filepath.Join(t.TempDir(), "hist.png")
	require.NoError(t, Save(p, path))
	requireNonEmptyFile(t, path)

	_, err = Histogram(ds, "Quidditch", 10)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestScatter(t *testing.T) {
	ds := loadSample(t)

	p, err := Scatter(ds, "Astronomy", "Defense Against the Dark Arts")
	require.NoError(t, err)
	assert.Equal(t, "Astronomy", p.X.Label.Text)

	path := filepath.Join(t.TempDir(), "scatter.svg")
	require.NoError(t, Save(p, path))
	requireNonEmptyFile(t, path)

	_, err = Scatter(ds, "Astronomy", "Quidditch")
	assert.Error(t, err)
}

func TestScatterPointsSkipMissing(t *testing.T) {
	points, err := scatterPoints(loadSample(t), "Astronomy", "Defense Against the Dark Arts")
	require.NoError(t, err)
	// Index 4 は Defense が空欄
	assert.Len(t, points["Gryffindor"], 1)
	assert.Len(t, points["Ravenclaw"], 2)
}

func TestPairPlot(t *testing.T) {
	ds := loadSample(t)
	courses := []string{"Astronomy", "Herbology", "Flying"}

	grid, err := PairPlot(ds, courses, 5)
	require.NoError(t, err)
	require.Len(t, grid, 3)
	for _, row := range grid {
		assert.Len(t, row, 3)
	}
	assert.Equal(t, "Flying", grid[2][2].X.Label.Text)
	assert.Equal(t, "Astronomy", grid[0][0].Y.Label.Text)

	path := filepath.Join(t.TempDir(), "pair.png")
	require.NoError(t, SaveGrid(grid, path))
	requireNonEmptyFile(t, path)

	err = SaveGrid(grid, filepath.Join(t.TempDir(), "pair.pdf"))
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))

	_, err = PairPlot(ds, nil, 5)
	assert.Error(t, err)
}

func TestLossCurve(t *testing.T) {
	history := [][]linear.CostPoint{
		{{Epoch: 0, Cost: 0.69}, {Epoch: 10, Cost: 0.4}, {Epoch: 20, Cost: 0.3}},
		{{Epoch: 0, Cost: 0.69}, {Epoch: 10, Cost: 0.5}, {Epoch: 20, Cost: 0.45}},
	}

	p, err := LossCurve(history, []string{"Gryffindor", "Hufflepuff"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "loss.png")
	require.NoError(t, Save(p, path))
	requireNonEmptyFile(t, path)

	_, err = LossCurve(history, []string{"Gryffindor"})
	assert.Error(t, err)
	_, err = LossCurve(nil, nil)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestAbbreviate(t *testing.T) {
	assert.Equal(t, "Flying", abbreviate("Flying"))
	assert.Equal(t, "Defense Again.", abbreviate("Defense Against the Dark Arts"))
}
