package geom

import "math"

// Mapping converts between screen space and canvas space. Canvas pixels are
// native resolution; Scale is the number of canvas pixels per screen unit.
type Mapping struct {
	Origin Point
	Scale  float64
}

// NewMapping returns the mapping for a selection captured at pixelWidth
// native pixels.
func NewMapping(selection Rect, pixelWidth int) Mapping {
	scale := 1.0
	if selection.W > 0 && pixelWidth > 0 {
		scale = float64(pixelWidth) / selection.W
	}
	return Mapping{Origin: selection.Min(), Scale: scale}
}

func (m Mapping) scale() float64 {
	if m.Scale <= 0 || math.IsNaN(m.Scale) || math.IsInf(m.Scale, 0) {
		return 1
	}
	return m.Scale
}

// ToCanvas maps a screen point into canvas space.
func (m Mapping) ToCanvas(p Point) Point {
	s := m.scale()
	return Point{(p.X - m.Origin.X) * s, (p.Y - m.Origin.Y) * s}
}

// ToScreen maps a canvas point back to screen space.
func (m Mapping) ToScreen(p Point) Point {
	s := m.scale()
	return Point{p.X/s + m.Origin.X, p.Y/s + m.Origin.Y}
}

// RectToCanvas maps a screen rectangle into canvas space.
func (m Mapping) RectToCanvas(r Rect) Rect {
	return RectFromPoints(m.ToCanvas(r.Min()), m.ToCanvas(r.Max()))
}

// RectToScreen maps a canvas rectangle into screen space.
func (m Mapping) RectToScreen(r Rect) Rect {
	return RectFromPoints(m.ToScreen(r.Min()), m.ToScreen(r.Max()))
}
