// Package plots はデータセットと学習履歴をgonum/plotで描画します。
//
// 寮ごとに色分けしたヒストグラム、散布図、ペアプロット、損失曲線を作成します。
package plots

import (
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/YuminosukeSato/dslr/dataset"
	"github.com/YuminosukeSato/dslr/linear"
	"github.com/YuminosukeSato/dslr/pkg/errors"
	"github.com/YuminosukeSato/dslr/pkg/log"
)

// 既定の出力サイズ
var (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 5 * vg.Inch
	PairCellSize  = 1.6 * vg.Inch
)

// DefaultBins はヒストグラムのビン数
const DefaultBins = 20

// houseColor は寮の色にアルファ値を付けたもの
func houseColor(house string, alpha uint8) color.NRGBA {
	c, ok := dataset.Colors[house]
	if !ok {
		return color.NRGBA{A: alpha}
	}
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: alpha}
}

// Histogram は科目の点数分布を寮ごとに重ねたヒストグラムを作る
func Histogram(ds *dataset.Dataset, course string, bins int) (*plot.Plot, error) {
	groups, err := ds.ByHouse(course)
	if err != nil {
		return nil, err
	}
	if bins <= 0 {
		bins = DefaultBins
	}

	p := plot.New()
	p.Title.Text = course
	p.X.Label.Text = "Score"
	p.Y.Label.Text = "Students"
	p.Legend.Top = true

	if err := addHistograms(p, groups, bins); err != nil {
		return nil, err
	}
	return p, nil
}

func addHistograms(p *plot.Plot, groups map[string][]float64, bins int) error {
	for _, house := range dataset.Houses {
		values := groups[house]
		if len(values) == 0 {
			continue
		}
		h, err := plotter.NewHist(plotter.Values(values), bins)
		if err != nil {
			return errors.Wrapf(err, "histogram for %s", house)
		}
		h.FillColor = houseColor(house, 0x80)
		h.LineStyle.Width = vg.Length(0)
		p.Add(h)
		p.Legend.Add(house, h)
	}
	return nil
}

// scatterPoints は両方の科目に値がある生徒を寮ごとの点列にする
func scatterPoints(ds *dataset.Dataset, courseX, courseY string) (map[string]plotter.XYs, error) {
	jx, jy := dataset.CourseIndex(courseX), dataset.CourseIndex(courseY)
	if jx < 0 {
		return nil, errors.NewValueError("plots.Scatter", "unknown course "+courseX)
	}
	if jy < 0 {
		return nil, errors.NewValueError("plots.Scatter", "unknown course "+courseY)
	}

	out := make(map[string]plotter.XYs, len(dataset.Houses))
	for _, s := range ds.Students {
		x, y := s.Scores[jx], s.Scores[jy]
		if s.House == "" || math.IsNaN(x) || math.IsNaN(y) {
			continue
		}
		out[s.House] = append(out[s.House], plotter.XY{X: x, Y: y})
	}
	return out, nil
}

// Scatter は2科目の散布図を寮ごとに色分けして作る
func Scatter(ds *dataset.Dataset, courseX, courseY string) (*plot.Plot, error) {
	points, err := scatterPoints(ds, courseX, courseY)
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = courseX + " vs " + courseY
	p.X.Label.Text = courseX
	p.Y.Label.Text = courseY
	p.Legend.Top = true

	if err := addScatters(p, points, vg.Points(2)); err != nil {
		return nil, err
	}
	return p, nil
}

func addScatters(p *plot.Plot, points map[string]plotter.XYs, radius vg.Length) error {
	for _, house := range dataset.Houses {
		xys := points[house]
		if len(xys) == 0 {
			continue
		}
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return errors.Wrapf(err, "scatter for %s", house)
		}
		s.GlyphStyle.Color = houseColor(house, 0xB0)
		s.GlyphStyle.Radius = radius
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(s)
		p.Legend.Add(house, s)
	}
	return nil
}

// PairPlot は科目の組み合わせごとのグリッドを作る。
// 対角はヒストグラム、それ以外は散布図（行の科目がY軸、列の科目がX軸）。
func PairPlot(ds *dataset.Dataset, courses []string, bins int) ([][]*plot.Plot, error) {
	if len(courses) == 0 {
		return nil, errors.NewValueError("plots.PairPlot", "no courses selected")
	}
	if bins <= 0 {
		bins = DefaultBins
	}

	grid := make([][]*plot.Plot, len(courses))
	for row, cy := range courses {
		grid[row] = make([]*plot.Plot, len(courses))
		for col, cx := range courses {
			p := plot.New()
			if row == len(courses)-1 {
				p.X.Label.Text = abbreviate(cx)
			}
			if col == 0 {
				p.Y.Label.Text = abbreviate(cy)
			}

			if row == col {
				groups, err := ds.ByHouse(cx)
				if err != nil {
					return nil, err
				}
				if err := addHistograms(p, groups, bins); err != nil {
					return nil, err
				}
			} else {
				points, err := scatterPoints(ds, cx, cy)
				if err != nil {
					return nil, err
				}
				if err := addScatters(p, points, vg.Points(0.8)); err != nil {
					return nil, err
				}
			}
			// 凡例はグリッドでは邪魔になるので消す
			p.Legend = plot.NewLegend()
			grid[row][col] = p
		}
	}
	return grid, nil
}

// abbreviate は長い科目名を軸ラベル用に短くする
func abbreviate(course string) string {
	const maxLen = 14
	if len(course) <= maxLen {
		return course
	}
	return strings.TrimSpace(course[:maxLen-1]) + "."
}

// LossCurve はクラスごとのコスト履歴を折れ線で描く
func LossCurve(history [][]linear.CostPoint, classes []string) (*plot.Plot, error) {
	if len(history) == 0 {
		return nil, errors.NewModelError("plots.LossCurve", "no cost history", errors.ErrEmptyData)
	}
	if len(classes) != len(history) {
		return nil, errors.NewDimensionError("plots.LossCurve", len(history), len(classes), 0)
	}

	p := plot.New()
	p.Title.Text = "Training loss"
	p.X.Label.Text = "Epoch"
	p.Y.Label.Text = "Cross-entropy"
	p.Legend.Top = true

	for k, points := range history {
		if len(points) == 0 {
			continue
		}
		xys := make(plotter.XYs, len(points))
		for i, cp := range points {
			xys[i] = plotter.XY{X: float64(cp.Epoch), Y: cp.Cost}
		}
		l, err := plotter.NewLine(xys)
		if err != nil {
			return nil, errors.Wrapf(err, "loss curve for %s", classes[k])
		}
		l.LineStyle.Color = houseColor(classes[k], 0xFF)
		l.LineStyle.Width = vg.Points(1.5)
		p.Add(l)
		p.Legend.Add(classes[k], l)
	}
	return p, nil
}

// Save は1枚のプロットを既定サイズで保存する。形式は拡張子で決まる。
func Save(p *plot.Plot, path string) error {
	if err := p.Save(DefaultWidth, DefaultHeight, path); err != nil {
		return errors.Wrapf(err, "save plot to %s", path)
	}
	logPlot(path)
	return nil
}

// SaveGrid はグリッドを1枚のPNGに描画して保存する
func SaveGrid(grid [][]*plot.Plot, path string) (err error) {
	if len(grid) == 0 {
		return errors.NewModelError("plots.SaveGrid", "empty grid", errors.ErrEmptyData)
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".png" {
		return errors.NewValidationError("path", "pair plots are written as .png", path)
	}
	defer errors.Recover(&err, "plots.SaveGrid")

	rows, cols := len(grid), len(grid[0])
	img := vgimg.New(vg.Length(cols)*PairCellSize, vg.Length(rows)*PairCellSize)
	dc := draw.New(img)

	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter,
		PadTop:    vg.Points(4),
		PadBottom: vg.Points(4),
		PadLeft:   vg.Points(4),
		PadRight:  vg.Points(4),
	}
	canvases := plot.Align(grid, tiles, dc)
	for j := range grid {
		for i := range grid[j] {
			if grid[j][i] != nil {
				grid[j][i].Draw(canvases[j][i])
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrapf(cerr, "close %s", path)
		}
	}()
	if _, err = (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	logPlot(path)
	return nil
}

func logPlot(path string) {
	log.GetLoggerWithName("plots").Info("Plot saved",
		log.OperationKey, log.OperationPlot,
		log.PathKey, path,
	)
}
