package oplog

import (
	"errors"
	"fmt"

	"github.com/example/markshot/internal/geom"
)

var (
	// ErrInactive is returned when restyling an operation at or past the cursor.
	ErrInactive = errors.New("operation is not active")
	// ErrNoStyle is returned when restyling a variant that carries no style.
	ErrNoStyle = errors.New("operation has no style")
)

// Log is an ordered edit history with a cursor. Operations at index >= Cursor
// are undone but kept for redo until the next Append.
type Log struct {
	ops    []Operation
	cursor int
}

// Len returns the number of stored operations, active or not.
func (l *Log) Len() int { return len(l.ops) }

// Cursor returns the number of active operations.
func (l *Log) Cursor() int { return l.cursor }

// At returns the operation at index i.
func (l *Log) At(i int) Operation { return l.ops[i] }

// Append drops the redo tail, stores op and advances the cursor.
func (l *Log) Append(op Operation) {
	if op == nil {
		return
	}
	l.ops = append(l.ops[:l.cursor:l.cursor], op)
	l.cursor = len(l.ops)
}

// Undo deactivates the newest active operation. It reports whether the
// cursor moved.
func (l *Log) Undo() bool {
	if l.cursor == 0 {
		return false
	}
	l.cursor--
	return true
}

// Redo reactivates the next undone operation. It reports whether the cursor
// moved.
func (l *Log) Redo() bool {
	if l.cursor >= len(l.ops) {
		return false
	}
	l.cursor++
	return true
}

// CanUndo reports whether Undo would move the cursor.
func (l *Log) CanUndo() bool { return l.cursor > 0 }

// CanRedo reports whether Redo would move the cursor.
func (l *Log) CanRedo() bool { return l.cursor < len(l.ops) }

// Restyle replaces the operation at index i with a copy using style. Only
// active operations that carry a style can be restyled.
func (l *Log) Restyle(i int, style geom.StrokeStyle) error {
	if i < 0 || i >= l.cursor {
		return fmt.Errorf("restyle %d: %w", i, ErrInactive)
	}
	op, ok := WithStyle(l.ops[i], style)
	if !ok {
		return fmt.Errorf("restyle %d (%s): %w", i, l.ops[i].Kind(), ErrNoStyle)
	}
	l.ops[i] = op
	return nil
}

// Snapshot returns a copy of the active operations. The copy is safe to hand
// to another goroutine while the log keeps changing.
func (l *Log) Snapshot() []Operation {
	out := make([]Operation, l.cursor)
	copy(out, l.ops[:l.cursor])
	return out
}

// ActiveCrop returns the last active Crop, if any.
func (l *Log) ActiveCrop() (Crop, bool) {
	return LastCrop(l.ops[:l.cursor])
}

// LastCrop returns the last Crop in ops.
func LastCrop(ops []Operation) (Crop, bool) {
	for i := len(ops) - 1; i >= 0; i-- {
		if c, ok := ops[i].(Crop); ok {
			return c, true
		}
	}
	return Crop{}, false
}
