package chart

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"IndicatorInsight/src/processor"
	"IndicatorInsight/src/utils"
)

var (
	heatmapWidth  = 10 * vg.Inch
	heatmapHeight = 8 * vg.Inch
)

// corrGrid 把相关矩阵适配为 plotter.GridXYZ, 第0行画在最上方
type corrGrid struct {
	m *processor.CorrelationMatrix
}

func (g corrGrid) Dims() (c, r int) {
	n := g.m.Size()
	return n, n
}

func (g corrGrid) Z(c, r int) float64 {
	return g.m.At(g.m.Size()-1-r, c)
}

func (g corrGrid) X(c int) float64 { return float64(c) }
func (g corrGrid) Y(r int) float64 { return float64(r) }

// HeatmapPlot 相关系数热力图, 色阶固定在[-1, 1], 每格标注两位小数
func HeatmapPlot(m *processor.CorrelationMatrix, opts Options) (*plot.Plot, error) {
	if m == nil || m.Size() == 0 {
		return nil, ErrEmptyTable
	}
	name := opts.Palette
	if name == "" {
		name = "coolwarm"
	}
	pal, err := Palette(name)
	if err != nil {
		return nil, err
	}

	g := corrGrid{m: m}
	h := plotter.NewHeatMap(g, pal)
	h.Min, h.Max = -1, 1
	h.NaN = color.NRGBA{R: 220, G: 220, B: 220, A: 255}

	p := plot.New()
	p.Title.Text = opts.Title
	p.Add(h)

	n := m.Size()
	xys := make(plotter.XYs, 0, n*n)
	texts := make([]string, 0, n*n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			xys = append(xys, plotter.XY{X: g.X(c), Y: g.Y(r)})
			texts = append(texts, annotation(g.Z(c, r)))
		}
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return nil, err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].YAlign = draw.YCenter
	}
	p.Add(labels)

	rows := make([]string, n)
	for i, l := range m.Labels {
		rows[n-1-i] = l
	}
	p.NominalX(m.Labels...)
	p.NominalY(rows...)
	p.X.Tick.Label.Rotation = 0.5
	p.X.Tick.Label.XAlign = draw.XRight
	return p, nil
}

func annotation(v float64) string {
	if v != v {
		return "nan"
	}
	return utils.FormatFloat(v, 2)
}

// SaveHeatmap 生成热力图并写入path
func SaveHeatmap(m *processor.CorrelationMatrix, path string, opts Options) error {
	p, err := HeatmapPlot(m, opts)
	if err != nil {
		return err
	}
	w, h := opts.size(heatmapWidth, heatmapHeight)
	return Save(p, path, w, h, opts.dpi())
}
