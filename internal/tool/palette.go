package tool

import (
	"strings"

	"github.com/example/markshot/internal/geom"
)

// NamedColor is a palette entry.
type NamedColor struct {
	Name  string
	Color geom.Color
}

var palette = []NamedColor{
	{"Black", geom.RGBA(0, 0, 0, 255)},
	{"White", geom.RGBA(255, 255, 255, 255)},
	{"Red", geom.RGBA(255, 0, 0, 255)},
	{"Lime", geom.RGBA(0, 255, 0, 255)},
	{"Blue", geom.RGBA(0, 0, 255, 255)},
	{"Yellow", geom.RGBA(255, 255, 0, 255)},
	{"Cyan", geom.RGBA(0, 255, 255, 255)},
	{"Magenta", geom.RGBA(255, 0, 255, 255)},
	{"Maroon", geom.RGBA(128, 0, 0, 255)},
	{"Green", geom.RGBA(0, 128, 0, 255)},
	{"Navy", geom.RGBA(0, 0, 128, 255)},
	{"Olive", geom.RGBA(128, 128, 0, 255)},
	{"Teal", geom.RGBA(0, 128, 128, 255)},
	{"Purple", geom.RGBA(128, 0, 128, 255)},
	{"Silver", geom.RGBA(192, 192, 192, 255)},
	{"Gray", geom.RGBA(128, 128, 128, 255)},
}

var (
	widths    = []float64{1, 2, 4, 6, 8}
	textSizes = []float64{12, 16, 20, 24, 32}
)

const defaultColorIndex = 2

// Palette returns a copy of the built-in colours.
func Palette() []NamedColor {
	out := make([]NamedColor, len(palette))
	copy(out, palette)
	return out
}

// PaletteColor looks up a palette colour by case-insensitive name.
func PaletteColor(name string) (geom.Color, bool) {
	for _, c := range palette {
		if strings.EqualFold(c.Name, name) {
			return c.Color, true
		}
	}
	return geom.Color{}, false
}

// Widths returns the stroke widths offered by the width cycler.
func Widths() []float64 {
	return append([]float64(nil), widths...)
}

// TextSizes returns the font sizes offered by the size cycler.
func TextSizes() []float64 {
	return append([]float64(nil), textSizes...)
}

// NextWidth returns the width following w, wrapping around.
func NextWidth(w float64) float64 {
	return next(widths, w)
}

// NextTextSize returns the font size following s, wrapping around.
func NextTextSize(s float64) float64 {
	return next(textSizes, s)
}

// NextColor returns the palette colour following c, wrapping around. Colours
// not in the palette restart at the first entry.
func NextColor(c geom.Color) geom.Color {
	for i, p := range palette {
		if p.Color.NRGBA() == c.NRGBA() {
			return palette[(i+1)%len(palette)].Color
		}
	}
	return palette[0].Color
}

func next(list []float64, v float64) float64 {
	for _, x := range list {
		if x > v {
			return x
		}
	}
	return list[0]
}
