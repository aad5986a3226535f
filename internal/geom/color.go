package geom

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// Color is a straight-alpha colour with components in [0,1].
type Color struct {
	R, G, B, A float64
}

// RGBA builds a Color from 8-bit components.
func RGBA(r, g, b, a uint8) Color {
	return Color{float64(r) / 255, float64(g) / 255, float64(b) / 255, float64(a) / 255}
}

// FromColor converts any image colour.
func FromColor(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGBA(n.R, n.G, n.B, n.A)
}

var (
	Black       = Color{0, 0, 0, 1}
	White       = Color{1, 1, 1, 1}
	Red         = Color{1, 0, 0, 1}
	Transparent = Color{}
)

func unit(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// NRGBA returns c as an 8-bit non-premultiplied colour.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: unit(c.R), G: unit(c.G), B: unit(c.B), A: unit(c.A)}
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return c.NRGBA().RGBA()
}

// WithAlpha returns c with its alpha replaced.
func (c Color) WithAlpha(a float64) Color {
	c.A = a
	return c
}

// Hex formats c as #rrggbbaa.
func (c Color) Hex() string {
	n := c.NRGBA()
	return fmt.Sprintf("#%02x%02x%02x%02x", n.R, n.G, n.B, n.A)
}

func (c Color) String() string { return c.Hex() }

// StrokeStyle is the pen used by shape, line and text operations.
type StrokeStyle struct {
	Color Color
	Width float64
}

// Stroke builds a StrokeStyle, forcing a positive width.
func Stroke(c Color, width float64) StrokeStyle {
	return StrokeStyle{Color: c, Width: width}.Normalize()
}

// Normalize returns s with a usable width.
func (s StrokeStyle) Normalize() StrokeStyle {
	if math.IsNaN(s.Width) || s.Width <= 0 {
		s.Width = 1
	}
	return s
}

// MaxStrokePixels caps the brush a stroke is drawn with.
const MaxStrokePixels = 256

// Pixels returns the stroke width rounded to whole pixels, between 1 and
// MaxStrokePixels.
func (s StrokeStyle) Pixels() int {
	return min(max(Pixel(math.Round(s.Normalize().Width)), 1), MaxStrokePixels)
}

// ParseHex parses #rgb, #rrggbb or #rrggbbaa.
func ParseHex(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) == 6 {
		s += "ff"
	}
	if len(s) != 8 {
		return Color{}, fmt.Errorf("invalid hex colour %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	return RGBA(uint8(v>>24), uint8(v>>16), uint8(v>>8), uint8(v)), nil
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) { return []byte(c.Hex()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(b []byte) error {
	v, err := ParseHex(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
