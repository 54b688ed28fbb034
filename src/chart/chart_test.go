package chart

import (
	"bytes"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot/vg"

	"IndicatorInsight/src/processor"
)

func sampleSeries(t *testing.T) *processor.TimeSeries {
	t.Helper()
	ts, err := processor.NewTimeSeries("Country Name",
		[]string{"1990", "1995", "2000"},
		[]string{"India", "Brazil"},
		[][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)
	return ts
}

func smallOpts() Options {
	return Options{Title: "test", YLabel: "value", Width: 4 * vg.Inch, Height: 3 * vg.Inch, DPI: 50}
}

func decodePNG(t *testing.T, path string) (int, int) {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

func TestSaveLine(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "line.png")
	require.NoError(t, SaveLine(sampleSeries(t), out, smallOpts()))

	w, h := decodePNG(t, out)
	assert.Equal(t, 200, w)
	assert.Equal(t, 150, h)
}

func TestSaveBarTwice(t *testing.T) {
	out := filepath.Join(t.TempDir(), "bar.png")
	require.NoError(t, SaveBar(sampleSeries(t), out, smallOpts()))
	require.NoError(t, SaveBar(sampleSeries(t), out, smallOpts()), "existing file is overwritten")
	w, _ := decodePNG(t, out)
	assert.Equal(t, 200, w)
}

func TestSaveVector(t *testing.T) {
	out := filepath.Join(t.TempDir(), "line.svg")
	require.NoError(t, SaveLine(sampleSeries(t), out, smallOpts()))
	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<svg")
}

func TestSaveUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "sub", "line.bmp")
	err := SaveLine(sampleSeries(t), out, smallOpts())
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.NoFileExists(t, out)
	assert.NoDirExists(t, filepath.Join(dir, "sub"))
}

func TestEmptyTable(t *testing.T) {
	empty, err := processor.NewTimeSeries("Country Name", nil, nil, nil)
	require.NoError(t, err)

	dir := t.TempDir()
	assert.ErrorIs(t, SaveLine(empty, filepath.Join(dir, "a.png"), smallOpts()), ErrEmptyTable)
	assert.ErrorIs(t, SaveBar(nil, filepath.Join(dir, "b.png"), smallOpts()), ErrEmptyTable)
	assert.NoFileExists(t, filepath.Join(dir, "a.png"))
}

func TestLinePlotRejectsNaN(t *testing.T) {
	ts, err := processor.NewTimeSeries("Country Name", []string{"1990", "1991"},
		[]string{"India"}, [][]float64{{1, math.NaN()}})
	require.NoError(t, err)
	_, err = LinePlot(ts, smallOpts())
	assert.Error(t, err)
}

func TestSaveHeatmap(t *testing.T) {
	m := &processor.CorrelationMatrix{
		Labels: []string{"CO2", "Energy"},
		Values: mat.NewSymDense(2, []float64{1, 0.5, 0.5, 1}),
	}
	out := filepath.Join(t.TempDir(), "heatmap_india.png")
	opts := smallOpts()
	opts.Palette = "Blues"
	require.NoError(t, SaveHeatmap(m, out, opts))
	w, h := decodePNG(t, out)
	assert.Equal(t, 200, w)
	assert.Equal(t, 150, h)
}

func TestHeatmapErrors(t *testing.T) {
	m := &processor.CorrelationMatrix{
		Labels: []string{"a"},
		Values: mat.NewSymDense(1, []float64{1}),
	}
	_, err := HeatmapPlot(m, Options{Palette: "rainbow-unicorn"})
	assert.ErrorIs(t, err, ErrUnknownPalette)

	_, err = HeatmapPlot(&processor.CorrelationMatrix{}, Options{})
	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestCorrGridOrientation(t *testing.T) {
	m := &processor.CorrelationMatrix{
		Labels: []string{"a", "b"},
		Values: mat.NewSymDense(2, []float64{1, 0.2, 0.2, 1}),
	}
	g := corrGrid{m: m}
	c, r := g.Dims()
	assert.Equal(t, 2, c)
	assert.Equal(t, 2, r)
	// 顶部一行(r=1)对应矩阵第0行
	assert.Equal(t, 1.0, g.Z(0, 1))
	assert.Equal(t, 0.2, g.Z(1, 1))
	assert.Equal(t, "nan", annotation(math.NaN()))
	assert.Equal(t, "0.20", annotation(0.2))
}

func TestPalette(t *testing.T) {
	for _, name := range PaletteNames() {
		p, err := Palette(name)
		require.NoError(t, err, name)
		assert.Len(t, p.Colors(), paletteSize, name)
	}
	p, err := Palette("YlGnBu")
	require.NoError(t, err)
	first := p.Colors()[0]
	r, g, b, _ := first.RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), g)
	assert.Equal(t, uint32(0xd9d9), b)
}

func TestYearTicks(t *testing.T) {
	years := make([]string, 30)
	for i := range years {
		years[i] = string(rune('A' + i%26))
	}
	ticks := yearTicks(years, 12)
	require.Len(t, ticks, 30)
	labelled := 0
	for _, tk := range ticks {
		if tk.Label != "" {
			labelled++
		}
	}
	assert.LessOrEqual(t, labelled, 12)
	assert.Equal(t, "A", ticks[0].Label)
}
