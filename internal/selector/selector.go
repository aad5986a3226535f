// Package selector resolves the screen rectangle a capture session works on.
// It never touches pixels.
package selector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/markshot/internal/geom"
)

var (
	// ErrNoWindowFound means the pointer is not over any window.
	ErrNoWindowFound = errors.New("no window under pointer")
	// ErrCancelled means the user abandoned the selection.
	ErrCancelled = errors.New("selection cancelled")
)

// Mode picks how the selection is made.
type Mode int

const (
	FullDisplay Mode = iota
	WindowUnderPointer
	InteractiveDrag
)

var modeNames = [...]string{"screen", "window", "region"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode accepts screen, window or region.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range modeNames {
		if n == s {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown selection mode %q", s)
}

// WindowQuery asks for the window at a screen point.
type WindowQuery struct {
	Point geom.Point
	// Decorations includes the window manager frame in the result.
	Decorations bool
}

// WindowLocator finds window geometry. Implementations return an error
// wrapping ErrNoWindowFound when nothing is at the point.
type WindowLocator interface {
	WindowAt(ctx context.Context, q WindowQuery) (geom.Rect, error)
}

// PointerLocator reports the pointer position in screen space.
type PointerLocator interface {
	Pointer(ctx context.Context) (geom.Point, error)
}

// EventKind classifies an input Event.
type EventKind int

const (
	Press EventKind = iota
	Motion
	Release
	CancelKey
)

// Event is a pointer or key event in screen space.
type Event struct {
	Kind  EventKind
	Point geom.Point
}

// EventSource yields input for an interactive drag.
type EventSource interface {
	Next(ctx context.Context) (Event, error)
}

// Result is a resolved selection.
type Result struct {
	Mode Mode
	Rect geom.Rect
}

// Option configures a Selector.
type Option func(*Selector)

// WithWindows sets the window and pointer locators used by
// WindowUnderPointer.
func WithWindows(w WindowLocator, p PointerLocator) Option {
	return func(s *Selector) {
		s.windows = w
		s.pointer = p
	}
}

// WithEvents sets the input used by InteractiveDrag.
func WithEvents(src EventSource) Option {
	return func(s *Selector) { s.events = src }
}

// WithDecorations includes window frames in WindowUnderPointer results.
func WithDecorations(on bool) Option {
	return func(s *Selector) { s.decorations = on }
}

// WithObserver receives the live rectangle while dragging.
func WithObserver(fn func(geom.Rect)) Option {
	return func(s *Selector) { s.observe = fn }
}

// Selector resolves a Result for one display.
type Selector struct {
	display     geom.Rect
	windows     WindowLocator
	pointer     PointerLocator
	events      EventSource
	decorations bool
	observe     func(geom.Rect)
}

// New returns a Selector for the display bounds.
func New(display geom.Rect, opts ...Option) *Selector {
	s := &Selector{display: display}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Display returns the display bounds.
func (s *Selector) Display() geom.Rect { return s.display }

// Begin resolves a selection using mode.
func (s *Selector) Begin(ctx context.Context, mode Mode) (Result, error) {
	switch mode {
	case FullDisplay:
		if s.display.Empty() {
			return Result{}, fmt.Errorf("display has no area: %w", ErrCancelled)
		}
		return Result{Mode: mode, Rect: s.display}, nil
	case WindowUnderPointer:
		r, err := s.windowUnderPointer(ctx)
		if err != nil {
			return Result{}, err
		}
		return Result{Mode: mode, Rect: r}, nil
	case InteractiveDrag:
		r, err := s.drag(ctx)
		if err != nil {
			return Result{}, err
		}
		return Result{Mode: mode, Rect: r}, nil
	}
	return Result{}, fmt.Errorf("unsupported selection mode %v", mode)
}

func (s *Selector) windowUnderPointer(ctx context.Context) (geom.Rect, error) {
	if s.windows == nil || s.pointer == nil {
		return geom.Rect{}, fmt.Errorf("window selection unavailable: %w", ErrNoWindowFound)
	}
	p, err := s.pointer.Pointer(ctx)
	if err != nil {
		return geom.Rect{}, fmt.Errorf("query pointer: %w", err)
	}
	r, err := s.windows.WindowAt(ctx, WindowQuery{Point: p, Decorations: s.decorations})
	if err != nil {
		return geom.Rect{}, err
	}
	r = r.Intersect(s.display)
	if r.Empty() {
		return geom.Rect{}, fmt.Errorf("window at %v has no area: %w", p, ErrNoWindowFound)
	}
	return r, nil
}

func (s *Selector) drag(ctx context.Context) (geom.Rect, error) {
	if s.events == nil {
		return geom.Rect{}, fmt.Errorf("no input for interactive selection: %w", ErrCancelled)
	}
	d := NewDrag(s.display)
	for {
		ev, err := s.events.Next(ctx)
		if err != nil {
			d.Cancel()
			if errors.Is(err, ErrCancelled) {
				return geom.Rect{}, err
			}
			return geom.Rect{}, fmt.Errorf("selection input: %w", errors.Join(ErrCancelled, err))
		}
		switch ev.Kind {
		case Press:
			d.Press(ev.Point)
		case Motion:
			d.Move(ev.Point)
		case Release:
			if d.State() != Dragging {
				continue
			}
			return d.Release(ev.Point)
		case CancelKey:
			d.Cancel()
			return geom.Rect{}, ErrCancelled
		}
		if s.observe != nil {
			s.observe(d.Rect())
		}
	}
}
