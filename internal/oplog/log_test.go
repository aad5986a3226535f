package oplog

import (
	"errors"
	"testing"

	"github.com/example/markshot/internal/geom"
)

func rect(x float64) Operation {
	return Rectangle{Bounds: geom.R(x, 0, 10, 10), Style: geom.Stroke(geom.Red, 1)}
}

func TestAppendAfterUndoDropsRedoTail(t *testing.T) {
	var l Log
	op0, op1, op2 := rect(0), rect(1), rect(2)
	l.Append(op0)
	l.Append(op1)
	l.Append(op2)
	if l.Len() != 3 || l.Cursor() != 3 {
		t.Fatalf("len=%d cursor=%d", l.Len(), l.Cursor())
	}
	l.Undo()
	l.Undo()
	if l.Cursor() != 1 {
		t.Fatalf("cursor after undo = %d", l.Cursor())
	}
	x := Blur{Bounds: geom.R(0, 0, 5, 5), Radius: 2}
	l.Append(x)
	if l.Len() != 2 || l.Cursor() != 2 {
		t.Fatalf("len=%d cursor=%d", l.Len(), l.Cursor())
	}
	if l.At(0) != op0 || l.At(1) != x {
		t.Fatalf("unexpected contents %v %v", l.At(0), l.At(1))
	}
	if l.Redo() {
		t.Fatalf("redo should be a no-op")
	}
	if l.Cursor() != 2 {
		t.Fatalf("cursor moved on redo: %d", l.Cursor())
	}
}

func TestUndoRedoBounds(t *testing.T) {
	var l Log
	if l.Undo() || l.Redo() {
		t.Fatalf("empty log moved")
	}
	l.Append(rect(0))
	if !l.Undo() || l.Undo() {
		t.Fatalf("undo bounds wrong")
	}
	if l.Cursor() != 0 || l.Len() != 1 {
		t.Fatalf("undo removed operation")
	}
	if !l.Redo() || l.Redo() {
		t.Fatalf("redo bounds wrong")
	}
}

func TestAppendDoesNotAliasSnapshots(t *testing.T) {
	var l Log
	l.Append(rect(0))
	l.Append(rect(1))
	l.Undo()
	snap := l.Snapshot()
	l.Append(rect(9))
	if len(snap) != 1 || snap[0] != rect(0) {
		t.Fatalf("snapshot changed: %v", snap)
	}
}

func TestRestyle(t *testing.T) {
	var l Log
	l.Append(rect(0))
	l.Append(Crop{Bounds: geom.R(0, 0, 5, 5)})
	l.Append(rect(2))
	l.Undo()

	blue := geom.Stroke(geom.Color{B: 1, A: 1}, 4)
	if err := l.Restyle(0, blue); err != nil {
		t.Fatalf("restyle: %v", err)
	}
	if got := l.At(0).(Rectangle).Style; got != blue {
		t.Fatalf("style = %v", got)
	}
	if err := l.Restyle(1, blue); !errors.Is(err, ErrNoStyle) {
		t.Fatalf("expected ErrNoStyle, got %v", err)
	}
	if err := l.Restyle(2, blue); !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
	if err := l.Restyle(-1, blue); !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
}

func TestActiveCrop(t *testing.T) {
	var l Log
	if _, ok := l.ActiveCrop(); ok {
		t.Fatalf("unexpected crop")
	}
	l.Append(Crop{Bounds: geom.R(0, 0, 5, 5)})
	l.Append(rect(0))
	c, ok := l.ActiveCrop()
	if !ok || c.Bounds != geom.R(0, 0, 5, 5) {
		t.Fatalf("crop = %v %v", c, ok)
	}
	l.Undo()
	l.Undo()
	if _, ok := l.ActiveCrop(); ok {
		t.Fatalf("undone crop still active")
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindRectangle, KindEllipse, KindArrow, KindLine, KindText, KindBlur, KindPixelate, KindHighlight, KindCrop} {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Fatalf("ParseKind(%s) = %v, %v", k, got, err)
		}
	}
	if _, err := ParseKind("star"); err == nil {
		t.Fatalf("expected error")
	}
}
