// Package session ties one capture to its annotation state: the selection,
// the frozen base image, the operation log and the tool machine.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/example/markshot/internal/capture"
	"github.com/example/markshot/internal/geom"
	"github.com/example/markshot/internal/oplog"
	"github.com/example/markshot/internal/render"
	"github.com/example/markshot/internal/selector"
	"github.com/example/markshot/internal/tool"
)

var (
	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("session closed")
	// ErrOutsideCanvas is returned when a point lies outside the capture.
	ErrOutsideCanvas = errors.New("point outside canvas")
)

// Canvas is the frozen base image plus the operations drawn on it. Base is
// never written to.
type Canvas struct {
	Base *image.RGBA
	Log  *oplog.Log
}

// Bounds returns the canvas rectangle in canvas pixels.
func (c *Canvas) Bounds() geom.Rect {
	return geom.FromImageRect(image.Rect(0, 0, c.Base.Bounds().Dx(), c.Base.Bounds().Dy()))
}

// FinalImage is the flattened output of a session.
type FinalImage struct {
	Image  *image.RGBA
	Width  int
	Height int
}

// Metadata describes a finished capture for persistence.
type Metadata struct {
	ID        uuid.UUID
	Timestamp time.Time
	// Source names what was captured, such as "region" or a window title.
	Source    string
	Selection geom.Rect
}

// Config describes how to start a session.
type Config struct {
	Selector    *selector.Selector
	Mode        selector.Mode
	Provider    capture.Provider
	Defaults    tool.Defaults
	ToolOptions []tool.Option
	// Source overrides the metadata source; the selection mode is used
	// when empty.
	Source string
	Now    func() time.Time
}

// Session is one capture being annotated. It is driven from a single event
// goroutine.
type Session struct {
	canvas    *Canvas
	machine   *tool.Machine
	mapping   geom.Mapping
	selection selector.Result
	source    string
	id        uuid.UUID
	started   time.Time
	closed    bool
}

// New resolves the selection, captures it and prepares an empty log. No
// session is returned when either step fails.
func New(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Selector == nil {
		return nil, fmt.Errorf("session: no selector configured")
	}
	if cfg.Provider == nil {
		return nil, fmt.Errorf("session: no capture provider configured")
	}
	sel, err := cfg.Selector.Begin(ctx, cfg.Mode)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", cfg.Mode, err)
	}
	base, err := cfg.Provider.Capture(ctx, sel.Rect)
	if err != nil {
		return nil, fmt.Errorf("capture %v: %w", sel.Rect, err)
	}
	if base.Bounds().Empty() {
		return nil, fmt.Errorf("capture %v returned no pixels: %w", sel.Rect, capture.ErrNoSuchDisplay)
	}
	return Open(base, sel, cfg)
}

// Open starts a session on an image that has already been captured.
func Open(base *image.RGBA, sel selector.Result, cfg Config) (*Session, error) {
	if base == nil || base.Bounds().Empty() {
		return nil, fmt.Errorf("session: empty base image")
	}
	now := time.Now
	if cfg.Now != nil {
		now = cfg.Now
	}
	canvas := &Canvas{Base: zeroBased(base), Log: &oplog.Log{}}
	opts := append([]tool.Option{tool.WithLog(canvas.Log), tool.WithBounds(canvas.Bounds())}, cfg.ToolOptions...)
	source := cfg.Source
	if source == "" {
		source = sel.Mode.String()
	}
	s := &Session{
		canvas:    canvas,
		machine:   tool.NewMachine(cfg.Defaults, opts...),
		mapping:   geom.NewMapping(sel.Rect, canvas.Base.Bounds().Dx()),
		selection: sel,
		source:    source,
		id:        uuid.New(),
		started:   now(),
	}
	log.Printf("session: %s %v captured at %dx%d", source, sel.Rect, canvas.Base.Bounds().Dx(), canvas.Base.Bounds().Dy())
	return s, nil
}

func zeroBased(img *image.RGBA) *image.RGBA {
	if img.Bounds().Min == (image.Point{}) {
		return img
	}
	return render.Render(img, nil)
}

// Canvas returns the base image and log.
func (s *Session) Canvas() *Canvas { return s.canvas }

// Machine returns the tool machine editing the log.
func (s *Session) Machine() *tool.Machine { return s.machine }

// Mapping converts between screen and canvas coordinates.
func (s *Session) Mapping() geom.Mapping { return s.mapping }

// Selection returns the resolved selection.
func (s *Session) Selection() selector.Result { return s.selection }

// Ops returns the active operations followed by the in-progress preview,
// ready to hand to a render.Scheduler.
func (s *Session) Ops() []oplog.Operation {
	ops := s.canvas.Log.Snapshot()
	if p, ok := s.machine.Preview(); ok {
		ops = append(ops, p)
	}
	return ops
}

// Render composites the active operations onto the base image.
func (s *Session) Render() *image.RGBA {
	return render.Render(s.canvas.Base, s.canvas.Log.Snapshot())
}

// PickColor reads the rendered pixel at p, in canvas space, and makes it
// the current colour.
func (s *Session) PickColor(p geom.Point) (geom.Color, error) {
	if s.closed {
		return geom.Color{}, ErrClosed
	}
	// the picker samples what is on screen, ignoring any crop
	ops := s.canvas.Log.Snapshot()
	uncropped := ops[:0:0]
	for _, op := range ops {
		if op.Kind() != oplog.KindCrop {
			uncropped = append(uncropped, op)
		}
	}
	img := render.Render(s.canvas.Base, uncropped)
	// the pixel a stroke through p would cover
	at := p.Floor()
	if !at.In(img.Bounds()) {
		return geom.Color{}, fmt.Errorf("pick %v: %w", p, ErrOutsideCanvas)
	}
	c := geom.FromColor(img.RGBAAt(at.X, at.Y))
	s.machine.SetColor(c)
	return c, nil
}

// Defaults returns the tool defaults as updated during the session.
func (s *Session) Defaults() tool.Defaults { return s.machine.Defaults() }

// Finish flattens the session at the current cursor. It can be called any
// number of times; the log is left untouched and the metadata ID stays the
// same.
func (s *Session) Finish() (FinalImage, Metadata) {
	md := Metadata{
		ID:        s.id,
		Timestamp: s.started,
		Source:    s.source,
		Selection: s.selection.Rect,
	}
	if s.closed {
		return FinalImage{}, md
	}
	img := s.Render()
	return FinalImage{Image: img, Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}, md
}

// Close cancels any gesture and releases the buffers.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.machine.Cancel()
	s.closed = true
	s.canvas.Base = image.NewRGBA(image.Rectangle{})
}
