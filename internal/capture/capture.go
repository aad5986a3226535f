// Package capture grabs screen pixels and answers geometry questions about
// displays and windows.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"log"
	"strings"

	"github.com/example/markshot/internal/geom"
)

var (
	// ErrPermissionDenied means the compositor or user refused the capture.
	ErrPermissionDenied = errors.New("capture permission denied")
	// ErrNoSuchDisplay means no display covers the requested area or no
	// display server could be reached.
	ErrNoSuchDisplay = errors.New("no such display")
	// ErrUnsupported means the backend does not exist on this platform.
	ErrUnsupported = errors.New("not supported on this platform")
)

// Error records the capture step that failed.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return "capture " + e.Op + ": " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// Provider returns the pixels of a screen-space rectangle at native
// resolution, already cropped to it.
type Provider interface {
	Capture(ctx context.Context, r geom.Rect) (*image.RGBA, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, r geom.Rect) (*image.RGBA, error)

// Capture implements Provider.
func (f ProviderFunc) Capture(ctx context.Context, r geom.Rect) (*image.RGBA, error) {
	return f(ctx, r)
}

// Options tune what a backend includes in the capture.
type Options struct {
	IncludeCursor bool
}

// Backend names accepted by NewProvider.
const (
	BackendAuto       = "auto"
	BackendX11        = "x11"
	BackendPortal     = "portal"
	BackendScreenshot = "screenshot"
)

// Backends lists the accepted backend names.
func Backends() []string {
	return []string{BackendAuto, BackendX11, BackendPortal, BackendScreenshot}
}

// NewProvider returns the named capture backend. "auto" tries the backends
// that suit the current session in order.
func NewProvider(name string, opts Options) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", BackendAuto:
		if runningOnWayland() {
			return Chain{PortalProvider{Options: opts}, ScreenshotProvider{}}, nil
		}
		return Chain{X11Provider{}, ScreenshotProvider{}, PortalProvider{Options: opts}}, nil
	case BackendX11:
		return X11Provider{}, nil
	case BackendPortal:
		return PortalProvider{Options: opts}, nil
	case BackendScreenshot:
		return ScreenshotProvider{}, nil
	}
	return nil, fmt.Errorf("unknown capture backend %q (want one of %s)", name, strings.Join(Backends(), ", "))
}

// Chain tries each provider in turn and returns the first success.
// Permission errors stop the chain: asking another backend would prompt
// the user again.
type Chain []Provider

// Capture implements Provider.
func (c Chain) Capture(ctx context.Context, r geom.Rect) (*image.RGBA, error) {
	var errs []error
	for _, p := range c {
		img, err := p.Capture(ctx, r)
		if err == nil {
			return img, nil
		}
		if errors.Is(err, ErrPermissionDenied) || ctx.Err() != nil {
			return nil, err
		}
		log.Printf("capture: %T failed, trying next backend: %v", p, err)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("no capture backends configured: %w", ErrUnsupported)
	}
	return nil, errors.Join(errs...)
}

// X11Provider reads pixels straight from the X root window.
type X11Provider struct{}

// Capture implements Provider.
func (X11Provider) Capture(ctx context.Context, r geom.Rect) (*image.RGBA, error) {
	rect, err := requestRect(r)
	if err != nil {
		return nil, err
	}
	img, err := backend.Grab(rect)
	if err != nil {
		return nil, &Error{Op: fmt.Sprintf("x11 %v", rect), Err: err}
	}
	return img, nil
}

// PortalProvider asks the XDG desktop portal for a screenshot and crops it.
type PortalProvider struct {
	Options Options
}

// Capture implements Provider.
func (p PortalProvider) Capture(ctx context.Context, r geom.Rect) (*image.RGBA, error) {
	rect, err := requestRect(r)
	if err != nil {
		return nil, err
	}
	shot, err := portalScreenshotFn(ctx, p.Options)
	if err != nil {
		return nil, &Error{Op: "portal", Err: err}
	}
	origin := image.Point{}
	if displays, err := Displays(); err == nil {
		origin = DesktopBounds(displays).Min
	}
	return cropToRect(shot, rect.Sub(origin))
}

// Frozen serves captures from a frame grabbed earlier, so the pixels
// match what the user saw while selecting.
type Frozen struct {
	Image *image.RGBA
	// Origin is the screen position of Image's top-left pixel.
	Origin image.Point
}

// Capture implements Provider.
func (f Frozen) Capture(_ context.Context, r geom.Rect) (*image.RGBA, error) {
	if f.Image == nil {
		return nil, fmt.Errorf("frozen frame is empty: %w", ErrNoSuchDisplay)
	}
	rect, err := requestRect(r)
	if err != nil {
		return nil, err
	}
	return cropToRect(f.Image, rect.Sub(f.Origin).Add(f.Image.Bounds().Min))
}

func requestRect(r geom.Rect) (image.Rectangle, error) {
	rect := r.Image()
	if rect.Empty() {
		return image.Rectangle{}, fmt.Errorf("capture region %v is empty: %w", r, ErrNoSuchDisplay)
	}
	return rect, nil
}

func cropToRect(src *image.RGBA, rect image.Rectangle) (*image.RGBA, error) {
	rect = rect.Intersect(src.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("requested region outside captured image: %w", ErrNoSuchDisplay)
	}
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), src, rect.Min, draw.Src)
	return dst, nil
}
