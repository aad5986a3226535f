package overlay

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"golang.org/x/mobile/event/key"

	"github.com/example/markshot/internal/geom"
	"github.com/example/markshot/internal/oplog"
	"github.com/example/markshot/internal/selector"
	"github.com/example/markshot/internal/session"
	"github.com/example/markshot/internal/tool"
)

// Action is what the user asked the overlay to do with the capture.
type Action int

const (
	ActionNone Action = iota
	ActionFinish
	ActionSave
	ActionCopy
	ActionCancel
)

func (a Action) String() string {
	switch a {
	case ActionFinish:
		return "finish"
	case ActionSave:
		return "save"
	case ActionCopy:
		return "copy"
	case ActionCancel:
		return "cancel"
	}
	return "none"
}

// editor turns input into session calls. It owns no window and is driven
// from the window's event goroutine.
type editor struct {
	sess    *session.Session
	table   map[KeyShortcut]string
	picking bool
	typing  bool
	text    []rune
	textAt  geom.Point
	message string
}

func newEditor(sess *session.Session) *editor {
	return &editor{sess: sess, table: keyboardActions()}
}

func (e *editor) machine() *tool.Machine { return e.sess.Machine() }

// pointer applies a screen-space event and reports whether the view changed.
func (e *editor) pointer(ev selector.Event) bool {
	p := e.sess.Mapping().ToCanvas(ev.Point)
	m := e.machine()
	switch ev.Kind {
	case selector.Press:
		if e.typing {
			e.commitText()
			return true
		}
		if e.picking {
			e.picking = false
			c, err := e.sess.PickColor(p)
			if err != nil {
				e.message = err.Error()
			} else {
				e.message = "picked " + c.Hex()
			}
			return true
		}
		e.message = ""
		if err := m.PointerDown(m.Tool(), p); err != nil {
			if errors.Is(err, tool.ErrCropExists) {
				e.message = "crop already set, undo it first"
			} else {
				e.message = err.Error()
			}
			return true
		}
		if m.State() == tool.AwaitingText {
			e.typing = true
			e.text = e.text[:0]
			e.textAt = e.sess.Canvas().Bounds().Clamp(p)
		}
		return true
	case selector.Motion:
		if m.State() != tool.Drafting {
			return false
		}
		m.PointerMove(p)
		return true
	case selector.Release:
		if m.State() != tool.Drafting {
			return false
		}
		if _, ok := m.PointerUp(p); !ok {
			e.message = "nothing drawn"
		}
		return true
	case selector.CancelKey:
		return e.cancel()
	}
	return false
}

func (e *editor) commitText() {
	e.typing = false
	if _, ok := e.machine().SubmitText(string(e.text)); !ok {
		e.message = "empty text discarded"
	}
	e.text = e.text[:0]
}

// cancel drops the innermost pending interaction. It returns false when
// there was nothing to drop.
func (e *editor) cancel() bool {
	switch {
	case e.typing:
		e.typing = false
		e.text = e.text[:0]
		e.machine().Cancel()
	case e.picking:
		e.picking = false
	case e.machine().State() != tool.Idle:
		e.machine().Cancel()
	default:
		return false
	}
	e.message = ""
	return true
}

// key applies a key event. It returns whether the view changed and the
// action the user chose, if any.
func (e *editor) key(ev key.Event) (bool, Action) {
	if ev.Direction == key.DirRelease {
		return false, ActionNone
	}
	if e.typing {
		return e.typeKey(ev), ActionNone
	}
	name, ok := lookup(e.table, ev)
	if !ok {
		return false, ActionNone
	}
	m := e.machine()
	d := m.Defaults()
	switch {
	case strings.HasPrefix(name, "tool:"):
		t, err := tool.ParseTool(strings.TrimPrefix(name, "tool:"))
		if err != nil {
			log.Printf("overlay: %v", err)
			return false, ActionNone
		}
		m.SetTool(t)
		e.message = ""
	case name == "fill":
		m.SetFill(!d.Fill)
	case name == "color":
		m.SetColor(tool.NextColor(d.Color))
	case name == "width":
		m.SetWidth(tool.NextWidth(d.Width))
	case name == "textsize":
		m.SetFontSize(tool.NextTextSize(d.FontSize))
	case name == "pick":
		e.picking = true
		e.message = "click to pick a colour"
	case name == "undo":
		if !m.Undo() {
			e.message = "nothing to undo"
		}
	case name == "redo":
		if !m.Redo() {
			e.message = "nothing to redo"
		}
	case name == "finish":
		return false, ActionFinish
	case name == "save":
		return false, ActionSave
	case name == "copy":
		return false, ActionCopy
	case name == "escape":
		if e.cancel() {
			return true, ActionNone
		}
		return false, ActionCancel
	case name == "quit":
		return false, ActionCancel
	default:
		return false, ActionNone
	}
	return true, ActionNone
}

func (e *editor) typeKey(ev key.Event) bool {
	switch ev.Code {
	case key.CodeReturnEnter:
		e.commitText()
	case key.CodeEscape:
		e.cancel()
	case key.CodeDeleteBackspace:
		if len(e.text) == 0 {
			return false
		}
		e.text = e.text[:len(e.text)-1]
	default:
		if ev.Rune < 0x20 || ev.Modifiers&key.ModControl != 0 {
			return false
		}
		e.text = append(e.text, ev.Rune)
	}
	return true
}

// ops returns what the canvas should show: every active operation except
// crops, the gesture preview, and the text being typed. The newest crop,
// committed or previewed, is returned separately so it can be outlined.
func (e *editor) ops() ([]oplog.Operation, geom.Rect, bool) {
	all := e.sess.Ops()
	if e.typing && len(e.text) > 0 {
		d := e.machine().Defaults()
		all = append(all, oplog.Text{Anchor: e.textAt, Content: string(e.text), Style: d.Style(), FontSize: d.FontSize})
	}
	var crop geom.Rect
	hasCrop := false
	ops := all[:0:0]
	for _, op := range all {
		if c, ok := op.(oplog.Crop); ok {
			crop, hasCrop = c.Bounds, true
			continue
		}
		ops = append(ops, op)
	}
	return ops, crop, hasCrop
}

func (e *editor) status() string {
	d := e.machine().Defaults()
	s := fmt.Sprintf("%s  %s  width %g", d.Tool, d.Color.Hex(), d.Width)
	switch d.Tool {
	case tool.ToolText:
		s += fmt.Sprintf("  size %g", d.FontSize)
	case tool.ToolRectangle, tool.ToolEllipse:
		if d.Fill {
			s += "  filled"
		}
	}
	if e.typing {
		s += "  typing: " + string(e.text) + "_"
	}
	if e.message != "" {
		s += "  | " + e.message
	}
	return s
}
