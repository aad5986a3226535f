// Package geom holds the value types shared by the selector, the tool machine
// and the compositor: points, rectangles, colours and stroke styles, plus the
// mapping between screen space and canvas space.
package geom

import (
	"fmt"
	"image"
	"math"
)

// Point is a coordinate. Canvas-space points are relative to the selection
// origin; screen-space points are global desktop coordinates.
type Point struct {
	X, Y float64
}

// Pt returns a Point with non-finite components replaced by zero.
func Pt(x, y float64) Point {
	return Point{X: finite(x), Y: finite(y)}
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p translated by -q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Eq reports whether p and q land on the same pixel.
func (p Point) Eq(q Point) bool {
	return math.Round(p.X) == math.Round(q.X) && math.Round(p.Y) == math.Round(q.Y)
}

// Image rounds p to the nearest integer pixel.
func (p Point) Image() image.Point {
	return image.Pt(Pixel(math.Round(p.X)), Pixel(math.Round(p.Y)))
}

// Floor returns the pixel p falls in.
func (p Point) Floor() image.Point {
	return image.Pt(Pixel(math.Floor(p.X)), Pixel(math.Floor(p.Y)))
}

// PixelLimit bounds pixel coordinates converted from floats.
const PixelLimit = 1 << 30

// Pixel truncates v to an int, saturating at ±PixelLimit. NaN maps to 0.
func Pixel(v float64) int {
	switch {
	case math.IsNaN(v):
		return 0
	case v > PixelLimit:
		return PixelLimit
	case v < -PixelLimit:
		return -PixelLimit
	}
	return int(v)
}

func (p Point) String() string {
	return fmt.Sprintf("(%g,%g)", p.X, p.Y)
}

// Rect is an axis-aligned rectangle with a non-negative size.
type Rect struct {
	X, Y, W, H float64
}

// R builds a Rect, normalising negative sizes by moving the origin.
func R(x, y, w, h float64) Rect {
	x, y, w, h = finite(x), finite(y), finite(w), finite(h)
	if w < 0 {
		x += w
		w = -w
	}
	if h < 0 {
		y += h
		h = -h
	}
	return Rect{X: x, Y: y, W: w, H: h}
}

// RectFromPoints returns the axis-aligned box spanned by a and b.
func RectFromPoints(a, b Point) Rect {
	return R(a.X, a.Y, b.X-a.X, b.Y-a.Y)
}

// FromImageRect converts an integer rectangle.
func FromImageRect(r image.Rectangle) Rect {
	r = r.Canon()
	return Rect{X: float64(r.Min.X), Y: float64(r.Min.Y), W: float64(r.Dx()), H: float64(r.Dy())}
}

// Min returns the top-left corner.
func (r Rect) Min() Point { return Point{r.X, r.Y} }

// Max returns the bottom-right corner.
func (r Rect) Max() Point { return Point{r.X + r.W, r.Y + r.H} }

// Empty reports whether r has zero area once rounded to pixels.
func (r Rect) Empty() bool {
	return r.Image().Empty()
}

// Contains reports whether p lies inside r (right and bottom edges excluded).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Intersect returns the overlap of r and s, or a zero Rect when disjoint.
func (r Rect) Intersect(s Rect) Rect {
	x0 := math.Max(r.X, s.X)
	y0 := math.Max(r.Y, s.Y)
	x1 := math.Min(r.X+r.W, s.X+s.W)
	y1 := math.Min(r.Y+r.H, s.Y+s.H)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Clamp returns p moved inside r.
func (r Rect) Clamp(p Point) Point {
	return Point{
		X: math.Min(math.Max(p.X, r.X), r.X+r.W),
		Y: math.Min(math.Max(p.Y, r.Y), r.Y+r.H),
	}
}

// Translate returns r moved by d.
func (r Rect) Translate(d Point) Rect {
	return Rect{X: r.X + d.X, Y: r.Y + d.Y, W: r.W, H: r.H}
}

// Inset shrinks r by n on every side; a negative n grows it.
func (r Rect) Inset(n float64) Rect {
	return R(r.X+n, r.Y+n, r.W-2*n, r.H-2*n)
}

// Image rounds both corners of r to the nearest pixel. Corners beyond
// PixelLimit saturate.
func (r Rect) Image() image.Rectangle {
	return image.Rectangle{Min: r.Min().Image(), Max: r.Max().Image()}
}

func (r Rect) String() string {
	return fmt.Sprintf("(%g,%g %gx%g)", r.X, r.Y, r.W, r.H)
}
