package tool

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/example/markshot/internal/geom"
	"github.com/example/markshot/internal/oplog"
)

var (
	// ErrBusy is returned when a gesture starts while another is in progress.
	ErrBusy = errors.New("gesture already in progress")
	// ErrDegenerateShape marks a gesture too small to keep. It is only logged.
	ErrDegenerateShape = errors.New("degenerate shape")
	// ErrCropExists refuses a second active crop.
	ErrCropExists = errors.New("a crop is already active")
)

// State is the gesture state of a Machine.
type State int

const (
	Idle State = iota
	Drafting
	AwaitingText
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Drafting:
		return "drafting"
	case AwaitingText:
		return "awaiting-text"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// TextPrompt asks for annotation text at anchor. ok is false when the user
// declined or the prompt is asynchronous.
type TextPrompt func(anchor geom.Point) (content string, ok bool)

// Option configures a Machine.
type Option func(*Machine)

// WithTextPrompt installs a synchronous prompt for the Text tool.
func WithTextPrompt(p TextPrompt) Option {
	return func(m *Machine) { m.prompt = p }
}

// WithLog makes the Machine write to an existing log.
func WithLog(l *oplog.Log) Option {
	return func(m *Machine) { m.log = l }
}

// WithBounds clamps gesture points to the canvas rectangle.
func WithBounds(r geom.Rect) Option {
	return func(m *Machine) { m.bounds = &r }
}

// Machine tracks the active tool and the in-progress gesture, and appends
// finished operations to its log.
type Machine struct {
	log      *oplog.Log
	defaults Defaults
	prompt   TextPrompt
	bounds   *geom.Rect

	state   State
	drafted Tool
	anchor  geom.Point
	current geom.Point
	points  []geom.Point
}

// NewMachine returns an idle Machine using d as its starting defaults.
func NewMachine(d Defaults, opts ...Option) *Machine {
	m := &Machine{defaults: d.Normalize()}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = &oplog.Log{}
	}
	return m
}

// Log returns the operation log the Machine writes to.
func (m *Machine) Log() *oplog.Log { return m.log }

// State returns the gesture state.
func (m *Machine) State() State { return m.state }

// Defaults returns the current tool defaults.
func (m *Machine) Defaults() Defaults { return m.defaults }

// Tool returns the selected tool.
func (m *Machine) Tool() Tool { return m.defaults.Tool }

// SetTool selects the tool used by the next gesture.
func (m *Machine) SetTool(t Tool) { m.defaults.Tool = t }

// SetColor sets the colour for new operations.
func (m *Machine) SetColor(c geom.Color) { m.defaults.Color = c }

// SetWidth sets the stroke width for new operations.
func (m *Machine) SetWidth(w float64) {
	if w > 0 {
		m.defaults.Width = w
	}
}

// SetFontSize sets the font size for new text.
func (m *Machine) SetFontSize(s float64) {
	if s > 0 {
		m.defaults.FontSize = s
	}
}

// SetFill toggles filling for rectangles and ellipses.
func (m *Machine) SetFill(fill bool) { m.defaults.Fill = fill }

func (m *Machine) clamp(p geom.Point) geom.Point {
	if m.bounds == nil {
		return p
	}
	return m.bounds.Clamp(p)
}

// PointerDown starts a gesture with tool t at p. The Text tool emits its
// operation immediately when a synchronous prompt supplies content.
func (m *Machine) PointerDown(t Tool, p geom.Point) error {
	if m.state != Idle {
		return ErrBusy
	}
	m.defaults.Tool = t
	m.drafted = t
	m.anchor = m.clamp(p)
	m.current = m.anchor
	m.points = append(m.points[:0], m.anchor)

	if t == ToolText {
		m.state = AwaitingText
		if m.prompt != nil {
			if content, ok := m.prompt(m.anchor); ok {
				m.SubmitText(content)
			}
		}
		return nil
	}
	if t == ToolCrop {
		if _, ok := m.log.ActiveCrop(); ok {
			m.reset()
			return ErrCropExists
		}
	}
	m.state = Drafting
	return nil
}

// PointerMove updates the in-progress geometry.
func (m *Machine) PointerMove(p geom.Point) {
	if m.state != Drafting {
		return
	}
	p = m.clamp(p)
	m.current = p
	if m.drafted == ToolPencil {
		if last := m.points[len(m.points)-1]; !last.Eq(p) {
			m.points = append(m.points, p)
		}
	}
}

// PointerUp finishes the gesture. It returns the appended operation, or false
// when the gesture was discarded.
func (m *Machine) PointerUp(p geom.Point) (oplog.Operation, bool) {
	if m.state != Drafting {
		return nil, false
	}
	m.PointerMove(p)
	op, err := m.build()
	m.reset()
	if err != nil {
		log.Printf("tool: discarding %s gesture: %v", m.drafted, err)
		return nil, false
	}
	m.log.Append(op)
	return op, true
}

// SubmitText finishes a pending Text gesture. Empty content is discarded.
func (m *Machine) SubmitText(content string) (oplog.Operation, bool) {
	if m.state != AwaitingText {
		return nil, false
	}
	anchor := m.anchor
	m.reset()
	if strings.TrimSpace(content) == "" {
		log.Printf("tool: discarding text gesture: %v", ErrDegenerateShape)
		return nil, false
	}
	op := oplog.Text{
		Anchor:   anchor,
		Content:  content,
		Style:    m.defaults.Style(),
		FontSize: m.defaults.FontSize,
	}
	m.log.Append(op)
	return op, true
}

// Cancel abandons the current gesture without touching the log.
func (m *Machine) Cancel() {
	m.reset()
}

func (m *Machine) reset() {
	m.state = Idle
	m.points = nil
}

// Preview returns the operation the current gesture would produce. It is
// never written to the log.
func (m *Machine) Preview() (oplog.Operation, bool) {
	if m.state != Drafting {
		return nil, false
	}
	op, err := m.build()
	if err != nil {
		return nil, false
	}
	return op, true
}

// Undo deactivates the newest operation. Gestures in progress are cancelled.
func (m *Machine) Undo() bool {
	m.Cancel()
	return m.log.Undo()
}

// Redo reactivates the next undone operation.
func (m *Machine) Redo() bool {
	m.Cancel()
	return m.log.Redo()
}

// ChangeStyle restyles the active operation at index i.
func (m *Machine) ChangeStyle(i int, style geom.StrokeStyle) error {
	return m.log.Restyle(i, style)
}

func (m *Machine) build() (oplog.Operation, error) {
	style := m.defaults.Style()
	box := geom.RectFromPoints(m.anchor, m.current)
	switch m.drafted {
	case ToolRectangle:
		if box.Empty() {
			return nil, ErrDegenerateShape
		}
		return oplog.Rectangle{Bounds: box, Style: style, Filled: m.defaults.Fill}, nil
	case ToolEllipse:
		if box.Empty() {
			return nil, ErrDegenerateShape
		}
		return oplog.Ellipse{Bounds: box, Style: style, Filled: m.defaults.Fill}, nil
	case ToolArrow:
		if m.anchor.Eq(m.current) {
			return nil, ErrDegenerateShape
		}
		return oplog.Arrow{From: m.anchor, To: m.current, Style: style}, nil
	case ToolLine:
		if m.anchor.Eq(m.current) {
			return nil, ErrDegenerateShape
		}
		return oplog.Line{Points: []geom.Point{m.anchor, m.current}, Style: style}, nil
	case ToolPencil:
		if len(m.points) < 2 {
			return nil, ErrDegenerateShape
		}
		return oplog.Line{Points: append([]geom.Point(nil), m.points...), Style: style}, nil
	case ToolBlur:
		if box.Empty() {
			return nil, ErrDegenerateShape
		}
		return oplog.Blur{Bounds: box, Radius: m.defaults.BlurRadius}, nil
	case ToolPixelate:
		if box.Empty() {
			return nil, ErrDegenerateShape
		}
		return oplog.Pixelate{Bounds: box, BlockSize: m.defaults.PixelateBlock}, nil
	case ToolHighlight:
		if box.Empty() {
			return nil, ErrDegenerateShape
		}
		return oplog.Highlight{Bounds: box}, nil
	case ToolCrop:
		if box.Empty() {
			return nil, ErrDegenerateShape
		}
		return oplog.Crop{Bounds: box}, nil
	}
	return nil, fmt.Errorf("tool %s does not draft", m.drafted)
}
