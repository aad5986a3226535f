package render

import (
	"image"
	"image/draw"
	"math"

	"github.com/example/markshot/internal/geom"
)

// coverage accumulates the pixels one operation touches so the colour is
// composited once, even where strokes overlap.
type coverage struct {
	a     *image.Alpha
	dirty image.Rectangle
}

func newCoverage(bounds image.Rectangle) *coverage {
	return &coverage{a: image.NewAlpha(bounds)}
}

func (c *coverage) set(x, y int) {
	p := image.Pt(x, y)
	if !p.In(c.a.Rect) {
		return
	}
	c.a.Pix[c.a.PixOffset(x, y)] = 0xff
	c.dirty = c.dirty.Union(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
}

// span covers [x0, x1) on row y.
func (c *coverage) span(y, x0, x1 int) {
	if y < c.a.Rect.Min.Y || y >= c.a.Rect.Max.Y {
		return
	}
	x0 = max(x0, c.a.Rect.Min.X)
	x1 = min(x1, c.a.Rect.Max.X)
	if x1 <= x0 {
		return
	}
	off := c.a.PixOffset(x0, y)
	for i := 0; i < x1-x0; i++ {
		c.a.Pix[off+i] = 0xff
	}
	c.dirty = c.dirty.Union(image.Rect(x0, y, x1, y+1))
}

// stamp covers a thick x thick square brush around (x, y).
func (c *coverage) stamp(x, y, thick int) {
	lo := -(thick - 1) / 2
	hi := thick / 2
	for dy := lo; dy <= hi; dy++ {
		c.span(y+dy, x+lo, x+hi+1)
	}
}

// line draws a Bresenham segment with a square brush.
func (c *coverage) line(p0, p1 image.Point, thick int) {
	p0, p1, ok := clipSegment(p0, p1, c.a.Rect.Inset(-thick))
	if !ok {
		return
	}
	x0, y0, x1, y1 := p0.X, p0.Y, p1.X, p1.Y
	dx := abs(x1 - x0)
	dy := abs(y1 - y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		c.stamp(x0, y0, thick)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *coverage) polyline(pts []image.Point, thick int) {
	if len(pts) == 1 {
		c.stamp(pts[0].X, pts[0].Y, thick)
		return
	}
	for i := 1; i < len(pts); i++ {
		c.line(pts[i-1], pts[i], thick)
	}
}

// rectOutline strokes the pixel rows and columns Min..Max-1 of r.
func (c *coverage) rectOutline(r image.Rectangle, thick int) {
	x0, y0 := r.Min.X, r.Min.Y
	x1, y1 := r.Max.X-1, r.Max.Y-1
	c.line(image.Pt(x0, y0), image.Pt(x1, y0), thick)
	c.line(image.Pt(x1, y0), image.Pt(x1, y1), thick)
	c.line(image.Pt(x1, y1), image.Pt(x0, y1), thick)
	c.line(image.Pt(x0, y1), image.Pt(x0, y0), thick)
}

func (c *coverage) rectFill(r image.Rectangle) {
	r = r.Intersect(c.a.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		c.span(y, r.Min.X, r.Max.X)
	}
}

func ellipseGeometry(r geom.Rect) (cx, cy, rx, ry float64) {
	rx, ry = r.W/2, r.H/2
	return r.X + rx, r.Y + ry, rx, ry
}

// maxEllipseSteps caps the outline sample grid for enormous ellipses.
const maxEllipseSteps = 1 << 30

// ellipseOutline strokes the ellipse inscribed in r as closed polylines.
func (c *coverage) ellipseOutline(r geom.Rect, thick int) {
	for _, pts := range ellipseArcs(r, c.a.Rect, thick) {
		c.polyline(pts, thick)
	}
}

// ellipseArcs samples the outline of the ellipse inscribed in r. Samples lie
// on a fixed angular grid of about one pixel of arc; only the runs that can
// reach clip, widened by a thick brush, are returned.
func ellipseArcs(r geom.Rect, clip image.Rectangle, thick int) [][]image.Point {
	cx, cy, rx, ry := ellipseGeometry(r)
	// the polyline runs through pixel centres, so pull it in by half a pixel
	cx, cy = cx-0.5, cy-0.5
	rx = math.Max(rx-0.5, 0)
	ry = math.Max(ry-0.5, 0)
	steps := math.Ceil(2 * math.Pi * math.Sqrt((rx*rx+ry*ry)/2))
	steps = math.Min(math.Max(steps, 8), maxEllipseSteps)
	n := int(steps)

	m := float64(thick + 2)
	lo := geom.Pt(float64(clip.Min.X)-m, float64(clip.Min.Y)-m)
	hi := geom.Pt(float64(clip.Max.X)+m, float64(clip.Max.Y)+m)
	var spans []span
	if cx-rx >= lo.X && cx+rx <= hi.X && cy-ry >= lo.Y && cy+ry <= hi.Y {
		spans = []span{{0, 2 * math.Pi}}
	} else {
		spans = intersectSpans(cosSpans(cx, rx, lo.X, hi.X), sinSpans(cy, ry, lo.Y, hi.Y))
	}

	var arcs [][]image.Point
	for _, sp := range spans {
		i0 := max(geom.Pixel(math.Floor(sp.lo/(2*math.Pi)*steps))-1, 0)
		i1 := min(geom.Pixel(math.Ceil(sp.hi/(2*math.Pi)*steps))+1, n)
		if i1 < i0 {
			continue
		}
		pts := make([]image.Point, 0, i1-i0+1)
		for i := i0; i <= i1; i++ {
			angle := 2 * math.Pi * float64(i) / steps
			pts = append(pts, geom.Pt(cx+math.Cos(angle)*rx, cy+math.Sin(angle)*ry).Image())
		}
		arcs = append(arcs, pts)
	}
	return arcs
}

// span is a closed range of angles within [0, 2π].
type span struct{ lo, hi float64 }

// cosSpans returns the angles where c + r*cos(θ) lies in [lo, hi].
func cosSpans(c, r, lo, hi float64) []span {
	if r <= 0 {
		if c >= lo && c <= hi {
			return []span{{0, 2 * math.Pi}}
		}
		return nil
	}
	a, b := (lo-c)/r, (hi-c)/r
	if a > 1 || b < -1 {
		return nil
	}
	t0, t1 := math.Acos(math.Min(b, 1)), math.Acos(math.Max(a, -1))
	return []span{{t0, t1}, {2*math.Pi - t1, 2*math.Pi - t0}}
}

// sinSpans returns the angles where c + r*sin(θ) lies in [lo, hi].
func sinSpans(c, r, lo, hi float64) []span {
	var out []span
	for _, s := range cosSpans(c, r, lo, hi) {
		// sin(θ) = cos(θ - π/2)
		s.lo += math.Pi / 2
		s.hi += math.Pi / 2
		switch {
		case s.hi <= 2*math.Pi:
			out = append(out, s)
		case s.lo >= 2*math.Pi:
			out = append(out, span{s.lo - 2*math.Pi, s.hi - 2*math.Pi})
		default:
			out = append(out, span{s.lo, 2 * math.Pi}, span{0, s.hi - 2*math.Pi})
		}
	}
	return out
}

func intersectSpans(a, b []span) []span {
	var out []span
	for _, s := range a {
		for _, t := range b {
			lo, hi := math.Max(s.lo, t.lo), math.Min(s.hi, t.hi)
			if lo <= hi {
				out = append(out, span{lo, hi})
			}
		}
	}
	return out
}

// ellipseFill covers every pixel whose centre lies inside the ellipse.
func (c *coverage) ellipseFill(r geom.Rect) {
	cx, cy, rx, ry := ellipseGeometry(r)
	if rx <= 0 || ry <= 0 {
		return
	}
	y0 := max(geom.Pixel(math.Floor(r.Y)), c.a.Rect.Min.Y)
	y1 := min(geom.Pixel(math.Ceil(r.Y+r.H)), c.a.Rect.Max.Y)
	for y := y0; y < y1; y++ {
		dy := (float64(y) + 0.5 - cy) / ry
		if dy*dy > 1 {
			continue
		}
		half := rx * math.Sqrt(1-dy*dy)
		x0 := geom.Pixel(math.Ceil(cx - half - 0.5))
		x1 := geom.Pixel(math.Floor(cx+half-0.5)) + 1
		c.span(y, x0, x1)
	}
}

// triangle covers every pixel whose centre lies inside the triangle abc.
func (c *coverage) triangle(a, b, d geom.Point) {
	box := image.Rect(
		geom.Pixel(math.Floor(min(a.X, b.X, d.X))), geom.Pixel(math.Floor(min(a.Y, b.Y, d.Y))),
		geom.Pixel(math.Ceil(max(a.X, b.X, d.X)))+1, geom.Pixel(math.Ceil(max(a.Y, b.Y, d.Y)))+1,
	).Intersect(c.a.Rect)
	edge := func(p, q geom.Point, x, y float64) float64 {
		return (q.X-p.X)*(y-p.Y) - (q.Y-p.Y)*(x-p.X)
	}
	area := edge(a, b, d.X, d.Y)
	if area == 0 {
		return
	}
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			w0 := edge(b, d, px, py)
			w1 := edge(d, a, px, py)
			w2 := edge(a, b, px, py)
			if area < 0 {
				w0, w1, w2 = -w0, -w1, -w2
			}
			if w0 >= 0 && w1 >= 0 && w2 >= 0 {
				c.set(x, y)
			}
		}
	}
}

// paint composites col through the covered pixels onto dst.
func (c *coverage) paint(dst *image.RGBA, col geom.Color) {
	r := c.dirty.Intersect(dst.Bounds())
	if r.Empty() || col.A <= 0 {
		return
	}
	draw.DrawMask(dst, r, image.NewUniform(col.NRGBA()), image.Point{}, c.a, r.Min, draw.Over)
}

// clipSegment trims p0-p1 to r (Liang-Barsky). ok is false when the
// segment misses r entirely.
func clipSegment(p0, p1 image.Point, r image.Rectangle) (image.Point, image.Point, bool) {
	if p0.In(r) && p1.In(r) {
		return p0, p1, true
	}
	x0, y0 := float64(p0.X), float64(p0.Y)
	dx, dy := float64(p1.X-p0.X), float64(p1.Y-p0.Y)
	t0, t1 := 0.0, 1.0
	clip := func(p, q float64) bool {
		if p == 0 {
			return q >= 0
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return false
			}
			t0 = math.Max(t0, t)
		} else {
			if t < t0 {
				return false
			}
			t1 = math.Min(t1, t)
		}
		return true
	}
	minX, minY := float64(r.Min.X), float64(r.Min.Y)
	maxX, maxY := float64(r.Max.X-1), float64(r.Max.Y-1)
	if !clip(-dx, x0-minX) || !clip(dx, maxX-x0) || !clip(-dy, y0-minY) || !clip(dy, maxY-y0) {
		return p0, p1, false
	}
	a := image.Pt(int(math.Round(x0+t0*dx)), int(math.Round(y0+t0*dy)))
	b := image.Pt(int(math.Round(x0+t1*dx)), int(math.Round(y0+t1*dy)))
	return a, b, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// pixelCentre maps a canvas point onto the pixel it falls in.
func pixelCentre(p geom.Point) image.Point {
	return p.Floor()
}
