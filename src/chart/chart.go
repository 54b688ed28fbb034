package chart

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"IndicatorInsight/src/processor"
)

var (
	ErrEmptyTable     = errors.New("empty table")
	ErrUnknownPalette = errors.New("unknown palette")

	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// DefaultDPI 图片分辨率
const DefaultDPI = 300

// Options 图表参数
type Options struct {
	Title   string
	XLabel  string
	YLabel  string
	Width   vg.Length // 为0时按图表类型取默认尺寸
	Height  vg.Length
	DPI     int
	Palette string // 仅热力图使用
}

func (o Options) size(w, h vg.Length) (vg.Length, vg.Length) {
	if o.Width > 0 {
		w = o.Width
	}
	if o.Height > 0 {
		h = o.Height
	}
	return w, h
}

func (o Options) dpi() int {
	if o.DPI > 0 {
		return o.DPI
	}
	return DefaultDPI
}

func checkTable(ts *processor.TimeSeries) error {
	if ts == nil || ts.Len() == 0 || len(ts.Columns()) == 0 {
		return ErrEmptyTable
	}
	return nil
}

// Save 将图表写入文件, 按扩展名选择格式; png按DPI栅格化
func Save(p *plot.Plot, path string, width, height vg.Length, dpi int) error {
	// 先渲染, 格式不支持时不留下空文件
	var wt io.WriterTo
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "png", "":
		c := vgimg.NewWith(vgimg.UseWH(width, height), vgimg.UseDPI(dpi))
		p.Draw(draw.New(c))
		wt = vgimg.PngCanvas{Canvas: c}
		ext = "png"
	default:
		var err error
		if wt, err = p.WriterTo(width, height, ext); err != nil {
			return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建图片文件失败: %w", err)
	}
	defer f.Close()

	if _, err := wt.WriteTo(f); err != nil {
		return fmt.Errorf("写入%s失败: %w", ext, err)
	}
	return f.Close()
}

// yearTicks 类别型x轴, 标签过密时只标注部分年份
func yearTicks(years []string, maxLabels int) plot.ConstantTicks {
	step := 1
	if maxLabels > 0 && len(years) > maxLabels {
		step = (len(years) + maxLabels - 1) / maxLabels
	}
	ticks := make(plot.ConstantTicks, len(years))
	for i, y := range years {
		ticks[i].Value = float64(i)
		if i%step == 0 {
			ticks[i].Label = y
		}
	}
	return ticks
}
