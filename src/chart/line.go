package chart

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"IndicatorInsight/src/processor"
)

const maxYearLabels = 12

var (
	lineWidth  = 10 * vg.Inch
	lineHeight = 6 * vg.Inch
)

// LinePlot 每个国家一条折线, x轴为年份
func LinePlot(ts *processor.TimeSeries, opts Options) (*plot.Plot, error) {
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
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	p.Legend.Left = true

	for i, name := range ts.Columns() {
		values, _ := ts.Column(name)
		pts := make(plotter.XYs, len(values))
		for j, v := range values {
			pts[j].X = float64(j)
			pts[j].Y = v
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		l.Color = plotutil.Color(i)
		l.Width = vg.Points(1.5)
		p.Add(l)
		p.Legend.Add(name, l)
	}

	p.X.Tick.Marker = yearTicks(ts.Years(), maxYearLabels)
	p.X.Min = -0.5
	p.X.Max = float64(ts.Len()) - 0.5
	return p, nil
}

// SaveLine 生成折线图并写入path
func SaveLine(ts *processor.TimeSeries, path string, opts Options) error {
	p, err := LinePlot(ts, opts)
	if err != nil {
		return err
	}
	w, h := opts.size(lineWidth, lineHeight)
	return Save(p, path, w, h, opts.dpi())
}
