package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/example/markshot/internal/geom"
	"github.com/example/markshot/internal/selector"
)

type platformBackend interface {
	ListDisplays() ([]Display, error)
	ListWindows() ([]WindowInfo, error)
	Pointer() (image.Point, error)
	Grab(rect image.Rectangle) (*image.RGBA, error)
}

var backend = newBackend()

var (
	errNoDisplays = errors.New("no displays available")
	errNoWindows  = errors.New("no windows available")
)

// Display describes one monitor in the desktop layout.
type Display struct {
	Index   int
	Name    string
	Bounds  image.Rectangle
	Primary bool
}

// WindowInfo describes a top-level window. Windows are listed top of the
// stacking order first.
type WindowInfo struct {
	Index      int
	ID         uint32
	Title      string
	Class      string
	PID        uint32
	Executable string
	// Rect is the client area; Frame adds the window manager decorations.
	Rect    image.Rectangle
	Frame   image.Rectangle
	Display int
	Active  bool
}

// Displays lists monitors, falling back to the cross-platform backend when
// the native one is unavailable.
func Displays() ([]Display, error) {
	displays, err := backend.ListDisplays()
	if err == nil && len(displays) > 0 {
		return displays, nil
	}
	fallback, ferr := screenshotDisplaysFn()
	if ferr != nil {
		if err == nil {
			err = errNoDisplays
		}
		return nil, fmt.Errorf("list displays: %w", errors.Join(err, ferr, ErrNoSuchDisplay))
	}
	return fallback, nil
}

// DesktopBounds returns the union of every display.
func DesktopBounds(displays []Display) image.Rectangle {
	var r image.Rectangle
	for _, d := range displays {
		r = r.Union(d.Bounds)
	}
	return r
}

// FindDisplay resolves "", "primary", "all", an index or a name fragment.
// "all" returns a pseudo display covering the whole desktop.
func FindDisplay(displays []Display, sel string) (Display, error) {
	if len(displays) == 0 {
		return Display{}, fmt.Errorf("%w: %w", ErrNoSuchDisplay, errNoDisplays)
	}
	lower := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(sel), "#"))
	switch lower {
	case "":
		return displays[0], nil
	case "all":
		return Display{Index: -1, Name: "all", Bounds: DesktopBounds(displays)}, nil
	case "primary":
		for _, d := range displays {
			if d.Primary {
				return d, nil
			}
		}
		return displays[0], nil
	}
	if idx, err := strconv.Atoi(lower); err == nil {
		if idx < 0 || idx >= len(displays) {
			return Display{}, fmt.Errorf("display index %d out of range: %w", idx, ErrNoSuchDisplay)
		}
		return displays[idx], nil
	}
	for _, d := range displays {
		if strings.Contains(strings.ToLower(d.Name), lower) {
			return d, nil
		}
	}
	return Display{}, fmt.Errorf("display %q: %w", sel, ErrNoSuchDisplay)
}

// DisplayAt returns the display containing p.
func DisplayAt(displays []Display, p image.Point) (Display, bool) {
	for _, d := range displays {
		if p.In(d.Bounds) {
			return d, true
		}
	}
	return Display{}, false
}

// ListWindows returns the top-level windows, topmost first.
func ListWindows() ([]WindowInfo, error) {
	windows, err := backend.ListWindows()
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		return nil, errNoWindows
	}
	return windows, nil
}

// SelectWindow matches a selector against windows. Selectors are "active",
// "index:N", "id:0x..", "pid:N", "class:..", "title:.." or a bare title,
// class or executable fragment.
func SelectWindow(sel string, windows []WindowInfo) (WindowInfo, error) {
	if len(windows) == 0 {
		return WindowInfo{}, errNoWindows
	}
	sel = strings.TrimSpace(sel)
	lower := strings.ToLower(sel)
	prefix, value, hasPrefix := strings.Cut(lower, ":")
	if !hasPrefix {
		prefix, value = "", lower
	}
	value = strings.TrimSpace(value)
	match := func(pred func(WindowInfo) bool, what string) (WindowInfo, error) {
		for _, w := range windows {
			if pred(w) {
				return w, nil
			}
		}
		return WindowInfo{}, fmt.Errorf("no window with %s: %w", what, selector.ErrNoWindowFound)
	}
	contains := func(s string) bool { return strings.Contains(strings.ToLower(s), value) }

	switch {
	case sel == "" || lower == "active":
		return match(func(w WindowInfo) bool { return w.Active }, "focus")
	case prefix == "index":
		idx, err := strconv.Atoi(value)
		if err != nil || idx < 0 || idx >= len(windows) {
			return WindowInfo{}, fmt.Errorf("window index %q out of range", value)
		}
		return windows[idx], nil
	case prefix == "id":
		id, err := parseWindowID(value)
		if err != nil {
			return WindowInfo{}, err
		}
		return match(func(w WindowInfo) bool { return w.ID == id }, fmt.Sprintf("id 0x%x", id))
	case prefix == "pid":
		pid, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return WindowInfo{}, fmt.Errorf("invalid pid %q", value)
		}
		return match(func(w WindowInfo) bool { return w.PID == uint32(pid) }, "pid "+value)
	case prefix == "class":
		return match(func(w WindowInfo) bool { return contains(w.Class) }, "class "+value)
	case prefix == "title":
		return match(func(w WindowInfo) bool { return contains(w.Title) }, "title "+value)
	}
	return match(func(w WindowInfo) bool {
		return contains(w.Title) || contains(w.Class) || contains(w.Executable)
	}, fmt.Sprintf("title, class or executable %q", sel))
}

func parseWindowID(val string) (uint32, error) {
	v := strings.TrimSpace(val)
	base := 10
	if strings.HasPrefix(v, "0x") || strings.HasPrefix(v, "0X") {
		v, base = v[2:], 16
	}
	parsed, err := strconv.ParseUint(v, base, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid window id %q", val)
	}
	return uint32(parsed), nil
}

// Windows answers window and pointer queries for the region selector.
type Windows struct{}

// WindowAt returns the topmost window containing q.Point.
func (Windows) WindowAt(_ context.Context, q selector.WindowQuery) (geom.Rect, error) {
	windows, err := backend.ListWindows()
	if err != nil {
		return geom.Rect{}, fmt.Errorf("list windows: %w", err)
	}
	w, ok := WindowAt(windows, q.Point.Image(), q.Decorations)
	if !ok {
		return geom.Rect{}, fmt.Errorf("at %v: %w", q.Point, selector.ErrNoWindowFound)
	}
	return geom.FromImageRect(w.Bounds(q.Decorations)), nil
}

// Pointer returns the pointer position in screen space.
func (Windows) Pointer(context.Context) (geom.Point, error) {
	p, err := backend.Pointer()
	if err != nil {
		return geom.Point{}, err
	}
	return geom.Pt(float64(p.X), float64(p.Y)), nil
}

// WindowAt finds the topmost window whose client area, or frame when
// decorations is set, contains p.
func WindowAt(windows []WindowInfo, p image.Point, decorations bool) (WindowInfo, bool) {
	for _, w := range windows {
		if p.In(w.Bounds(decorations)) {
			return w, true
		}
	}
	return WindowInfo{}, false
}

// Bounds returns the frame when decorations is set and known, otherwise the
// client area.
func (w WindowInfo) Bounds(decorations bool) image.Rectangle {
	if decorations && !w.Frame.Empty() {
		return w.Frame
	}
	return w.Rect
}
