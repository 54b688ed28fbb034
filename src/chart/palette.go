package chart

import (
	"fmt"
	"image/color"
	"sort"
	"strings"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
)

const paletteSize = 256

// gradient 按锚点线性插值的顺序色板
type gradient struct {
	stops []color.NRGBA
	n     int
}

func (g gradient) Colors() []color.Color {
	out := make([]color.Color, g.n)
	if g.n == 1 {
		out[0] = g.stops[0]
		return out
	}
	segs := float64(len(g.stops) - 1)
	for i := 0; i < g.n; i++ {
		pos := float64(i) / float64(g.n-1) * segs
		k := int(pos)
		if k >= len(g.stops)-1 {
			k = len(g.stops) - 2
		}
		frac := pos - float64(k)
		a, b := g.stops[k], g.stops[k+1]
		out[i] = color.NRGBA{
			R: lerp(a.R, b.R, frac),
			G: lerp(a.G, b.G, frac),
			B: lerp(a.B, b.B, frac),
			A: 255,
		}
	}
	return out
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
}

func hex(s string) color.NRGBA {
	var c color.NRGBA
	c.A = 255
	fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B)
	return c
}

func stops(codes ...string) []color.NRGBA {
	out := make([]color.NRGBA, len(codes))
	for i, s := range codes {
		out[i] = hex(s)
	}
	return out
}

// ColorBrewer 顺序色板锚点
var sequential = map[string][]color.NRGBA{
	"ylgnbu":  stops("#ffffd9", "#edf8b1", "#c7e9b4", "#7fcdbb", "#41b6c4", "#1d91c0", "#225ea8", "#253494", "#081d58"),
	"blues":   stops("#f7fbff", "#deebf7", "#c6dbef", "#9ecae1", "#6baed6", "#4292c6", "#2171b5", "#08519c", "#08306b"),
	"greens":  stops("#f7fcf5", "#e5f5e0", "#c7e9c0", "#a1d99b", "#74c476", "#41ab5d", "#238b45", "#006d2c", "#00441b"),
	"reds":    stops("#fff5f0", "#fee0d2", "#fcbba1", "#fc9272", "#fb6a4a", "#ef3b2c", "#cb181d", "#a50f15", "#67000d"),
	"oranges": stops("#fff5eb", "#fee6ce", "#fdd0a2", "#fdae6b", "#fd8d3c", "#f16913", "#d94801", "#a63603", "#7f2704"),
	"purples": stops("#fcfbfd", "#efedf5", "#dadaeb", "#bcbddc", "#9e9ac8", "#807dba", "#6a51a3", "#54278f", "#3f007d"),
	"greys":   stops("#ffffff", "#f0f0f0", "#d9d9d9", "#bdbdbd", "#969696", "#737373", "#525252", "#252525", "#000000"),
	"viridis": stops("#440154", "#482878", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"),
}

// Palette 按名称取色板, 名称不区分大小写
func Palette(name string) (palette.Palette, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "coolwarm":
		cm := moreland.SmoothBlueRed()
		cm.SetMin(-1)
		cm.SetMax(1)
		return cm.Palette(paletteSize), nil
	case "heat":
		return palette.Heat(paletteSize, 1), nil
	}
	if s, ok := sequential[key]; ok {
		return gradient{stops: s, n: paletteSize}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPalette, name)
}

// PaletteNames 支持的色板名称
func PaletteNames() []string {
	names := []string{"coolwarm", "heat"}
	for n := range sequential {
		names = append(names, n)
	}
	sort.Strings(names[2:])
	return names
}
