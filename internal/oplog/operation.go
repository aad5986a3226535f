// Package oplog defines the annotation operations and the cursor-based log
// that holds a session's edit history.
package oplog

import (
	"fmt"

	"github.com/example/markshot/internal/geom"
)

// Kind names an operation variant.
type Kind int

const (
	KindRectangle Kind = iota
	KindEllipse
	KindArrow
	KindLine
	KindText
	KindBlur
	KindPixelate
	KindHighlight
	KindCrop
)

var kindNames = [...]string{"rectangle", "ellipse", "arrow", "line", "text", "blur", "pixelate", "highlight", "crop"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind resolves a kind by name.
func ParseKind(name string) (Kind, error) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown operation %q", name)
}

// Operation is one immutable annotation. The set of implementations is
// closed: only the variants in this package satisfy it.
type Operation interface {
	Kind() Kind
	operation()
}

// Rectangle strokes, and optionally fills, an axis-aligned box.
type Rectangle struct {
	Bounds geom.Rect
	Style  geom.StrokeStyle
	Filled bool
}

// Ellipse strokes, and optionally fills, the ellipse inscribed in Bounds.
type Ellipse struct {
	Bounds geom.Rect
	Style  geom.StrokeStyle
	Filled bool
}

// Arrow is a straight shaft from From to To with a head at To.
type Arrow struct {
	From, To geom.Point
	Style    geom.StrokeStyle
}

// Line is a polyline through Points, used for freehand and straight lines.
type Line struct {
	Points []geom.Point
	Style  geom.StrokeStyle
}

// Text draws Content with its top-left corner at Anchor.
type Text struct {
	Anchor   geom.Point
	Content  string
	Style    geom.StrokeStyle
	FontSize float64
}

// Blur blurs the pixels inside Bounds.
type Blur struct {
	Bounds geom.Rect
	Radius int
}

// Pixelate replaces the pixels inside Bounds with block averages.
type Pixelate struct {
	Bounds    geom.Rect
	BlockSize int
}

// Highlight darkens everything outside Bounds.
type Highlight struct {
	Bounds geom.Rect
}

// Crop clips the final output to Bounds.
type Crop struct {
	Bounds geom.Rect
}

func (Rectangle) Kind() Kind { return KindRectangle }
func (Ellipse) Kind() Kind   { return KindEllipse }
func (Arrow) Kind() Kind     { return KindArrow }
func (Line) Kind() Kind      { return KindLine }
func (Text) Kind() Kind      { return KindText }
func (Blur) Kind() Kind      { return KindBlur }
func (Pixelate) Kind() Kind  { return KindPixelate }
func (Highlight) Kind() Kind { return KindHighlight }
func (Crop) Kind() Kind      { return KindCrop }

func (Rectangle) operation() {}
func (Ellipse) operation()   {}
func (Arrow) operation()     {}
func (Line) operation()      {}
func (Text) operation()      {}
func (Blur) operation()      {}
func (Pixelate) operation()  {}
func (Highlight) operation() {}
func (Crop) operation()      {}

// StyleOf returns the stroke style carried by op, if any.
func StyleOf(op Operation) (geom.StrokeStyle, bool) {
	switch o := op.(type) {
	case Rectangle:
		return o.Style, true
	case Ellipse:
		return o.Style, true
	case Arrow:
		return o.Style, true
	case Line:
		return o.Style, true
	case Text:
		return o.Style, true
	}
	return geom.StrokeStyle{}, false
}

// WithStyle returns a copy of op using style. ok is false for variants that
// carry no style.
func WithStyle(op Operation, style geom.StrokeStyle) (Operation, bool) {
	style = style.Normalize()
	switch o := op.(type) {
	case Rectangle:
		o.Style = style
		return o, true
	case Ellipse:
		o.Style = style
		return o, true
	case Arrow:
		o.Style = style
		return o, true
	case Line:
		o.Points = append([]geom.Point(nil), o.Points...)
		o.Style = style
		return o, true
	case Text:
		o.Style = style
		return o, true
	}
	return op, false
}
