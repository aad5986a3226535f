// Package render composites a base capture with annotation operations.
package render

import (
	"context"
	"fmt"
	"image"
	"log"
	"math"

	"github.com/example/markshot/internal/geom"
	"github.com/example/markshot/internal/oplog"
)

// Render replays ops over a copy of base and returns the result. base is
// never modified, and equal inputs always give byte-identical output. The
// last Crop in ops is applied after every other operation.
func Render(base *image.RGBA, ops []oplog.Operation) *image.RGBA {
	out, _ := RenderContext(context.Background(), base, ops)
	return out
}

// RenderContext is Render with cancellation checked between operations. On
// cancellation it returns ctx.Err() and a partial image that must be
// discarded.
func RenderContext(ctx context.Context, base *image.RGBA, ops []oplog.Operation) (*image.RGBA, error) {
	out := copyBase(base)
	var cut *oplog.Crop
	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if c, ok := op.(oplog.Crop); ok {
			cut = &c
			continue
		}
		paint(out, op)
	}
	if cut != nil {
		r := cut.Bounds.Image().Intersect(out.Bounds())
		if r.Empty() {
			log.Printf("render: ignoring crop %v outside %v canvas", cut.Bounds, out.Bounds().Size())
			return out, nil
		}
		out = crop(out, r)
	}
	return out, nil
}

// copyBase returns a zero-based copy of base.
func copyBase(base *image.RGBA) *image.RGBA {
	if base == nil {
		return image.NewRGBA(image.Rectangle{})
	}
	return crop(base, base.Bounds())
}

// paint applies a single painting operation to dst.
func paint(dst *image.RGBA, op oplog.Operation) {
	switch o := op.(type) {
	case oplog.Rectangle:
		paintRectangle(dst, o)
	case oplog.Ellipse:
		paintEllipse(dst, o)
	case oplog.Arrow:
		paintArrow(dst, o)
	case oplog.Line:
		paintLine(dst, o)
	case oplog.Text:
		paintText(dst, o)
	case oplog.Blur:
		blurRegion(dst, visible(o.Bounds, dst.Bounds(), 0), o.Radius)
	case oplog.Pixelate:
		pixelateRegion(dst, visible(o.Bounds, dst.Bounds(), 0), o.BlockSize)
	case oplog.Highlight:
		highlightOutside(dst, visible(o.Bounds, dst.Bounds(), 0))
	case oplog.Crop:
	default:
		panic(fmt.Sprintf("render: unhandled operation %T", op))
	}
}

// visible trims r to the canvas widened by margin pixels before converting
// it to integer pixels. Edges moved by the trim stay outside the canvas.
func visible(r geom.Rect, canvas image.Rectangle, margin int) image.Rectangle {
	return r.Intersect(geom.FromImageRect(canvas.Inset(-margin))).Image()
}

func paintRectangle(dst *image.RGBA, o oplog.Rectangle) {
	thick := o.Style.Pixels()
	r := visible(o.Bounds, dst.Bounds(), thick+2)
	if r.Empty() {
		return
	}
	c := newCoverage(dst.Bounds())
	if o.Filled {
		c.rectFill(r)
	}
	c.rectOutline(r, thick)
	c.paint(dst, o.Style.Color)
}

func paintEllipse(dst *image.RGBA, o oplog.Ellipse) {
	if o.Bounds.Empty() {
		return
	}
	c := newCoverage(dst.Bounds())
	if o.Filled {
		c.ellipseFill(o.Bounds)
	}
	c.ellipseOutline(o.Bounds, o.Style.Pixels())
	c.paint(dst, o.Style.Color)
}

// ArrowHeadLength returns the length of the arrow head drawn for width.
func ArrowHeadLength(width float64) float64 {
	return 4*width + 6
}

func paintArrow(dst *image.RGBA, o oplog.Arrow) {
	thick := o.Style.Pixels()
	from, to := o.From, o.To
	angle := math.Atan2(to.Y-from.Y, to.X-from.X)
	size := ArrowHeadLength(float64(thick))
	// pixel centre of the tip
	tip := geom.Pt(math.Floor(to.X)+0.5, math.Floor(to.Y)+0.5)
	left := geom.Pt(tip.X-math.Cos(angle+math.Pi/6)*size, tip.Y-math.Sin(angle+math.Pi/6)*size)
	right := geom.Pt(tip.X-math.Cos(angle-math.Pi/6)*size, tip.Y-math.Sin(angle-math.Pi/6)*size)
	// stop the shaft inside the head so a wide shaft does not poke past the tip
	back := math.Min(size*0.75, math.Hypot(to.X-from.X, to.Y-from.Y))
	neck := geom.Pt(tip.X-math.Cos(angle)*back, tip.Y-math.Sin(angle)*back)

	c := newCoverage(dst.Bounds())
	c.line(pixelCentre(from), pixelCentre(neck), thick)
	c.triangle(tip, left, right)
	c.set(pixelCentre(to).X, pixelCentre(to).Y)
	c.paint(dst, o.Style.Color)
}

func paintLine(dst *image.RGBA, o oplog.Line) {
	if len(o.Points) == 0 {
		return
	}
	pts := make([]image.Point, len(o.Points))
	for i, p := range o.Points {
		pts[i] = pixelCentre(p)
	}
	c := newCoverage(dst.Bounds())
	c.polyline(pts, o.Style.Pixels())
	c.paint(dst, o.Style.Color)
}

func paintText(dst *image.RGBA, o oplog.Text) {
	if o.Content == "" {
		return
	}
	if err := drawText(dst, o.Anchor, o.Content, o.Style.Color, o.FontSize); err != nil {
		log.Printf("render: text at %v: %v", o.Anchor, err)
	}
}
