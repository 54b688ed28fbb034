package chart

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"IndicatorInsight/src/processor"
)

var (
	barWidth  = 12 * vg.Inch
	barHeight = 8 * vg.Inch
)

// BarPlot 分组柱状图, 每组对应一个年份, 组内每个国家一根柱子
func BarPlot(ts *processor.TimeSeries, opts Options) (*plot.Plot, error) {
	if err := checkTable(ts); err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = opts.XLabel
	if p.X.Label.Text == "" {
		p.X.Label.Text = processor.YearColumn
	}
	p.Y.Label.Text = opts.YLabel

	grid := plotter.NewGrid()
	grid.Vertical.Color = nil
	p.Add(grid)
	p.Legend.Top = true

	cols := ts.Columns()
	n := len(cols)
	w := vg.Points(math.Max(4, 80/float64(n)))
	for i, name := range cols {
		values, _ := ts.Column(name)
		b, err := plotter.NewBarChart(plotter.Values(values), w)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		b.Color = plotutil.Color(i)
		b.LineStyle.Width = 0
		b.Offset = vg.Length(float64(i)-float64(n-1)/2) * w
		p.Add(b)
		p.Legend.Add(name, b)
	}

	p.NominalX(ts.Years()...)
	return p, nil
}

// SaveBar 生成柱状图并写入path
func SaveBar(ts *processor.TimeSeries, path string, opts Options) error {
	p, err := BarPlot(ts, opts)
	if err != nil {
		return err
	}
	w, h := opts.size(barWidth, barHeight)
	return Save(p, path, w, h, opts.dpi())
}
