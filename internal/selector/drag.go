package selector

import (
	"fmt"

	"github.com/example/markshot/internal/geom"
)

// DragState is the state of an interactive drag selection.
type DragState int

const (
	DragIdle DragState = iota
	Dragging
	Committed
	Cancelled
)

func (s DragState) String() string {
	switch s {
	case DragIdle:
		return "idle"
	case Dragging:
		return "dragging"
	case Committed:
		return "committed"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("drag(%d)", int(s))
}

// Drag is the press, move, release machine behind InteractiveDrag. All
// points are screen space and clamped to the display bounds.
type Drag struct {
	display geom.Rect
	state   DragState
	anchor  geom.Point
	current geom.Point
}

// NewDrag returns an idle drag confined to display.
func NewDrag(display geom.Rect) *Drag {
	return &Drag{display: display}
}

// State returns the current state.
func (d *Drag) State() DragState { return d.state }

// Rect returns the live selection rectangle.
func (d *Drag) Rect() geom.Rect {
	if d.state == DragIdle || d.state == Cancelled {
		return geom.Rect{}
	}
	return geom.RectFromPoints(d.anchor, d.current)
}

// Press records the anchor and starts dragging.
func (d *Drag) Press(p geom.Point) {
	if d.state != DragIdle {
		return
	}
	d.anchor = d.display.Clamp(p)
	d.current = d.anchor
	d.state = Dragging
}

// Move updates the live rectangle.
func (d *Drag) Move(p geom.Point) {
	if d.state != Dragging {
		return
	}
	d.current = d.display.Clamp(p)
}

// Release ends the drag. A zero-area rectangle cancels instead of
// committing.
func (d *Drag) Release(p geom.Point) (geom.Rect, error) {
	if d.state != Dragging {
		return geom.Rect{}, fmt.Errorf("release while %s: %w", d.state, ErrCancelled)
	}
	d.Move(p)
	r := d.Rect()
	if r.Empty() {
		d.state = Cancelled
		return geom.Rect{}, ErrCancelled
	}
	d.state = Committed
	return r, nil
}

// Cancel abandons the drag unless it already committed.
func (d *Drag) Cancel() {
	if d.state != Committed {
		d.state = Cancelled
	}
}
