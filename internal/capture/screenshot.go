package capture

import (
	"context"
	"fmt"
	"image"
	"image/draw"

	"github.com/kbinani/screenshot"

	"github.com/example/markshot/internal/geom"
)

var (
	screenshotDisplaysFn = screenshotDisplays
	screenshotGrabFn     = screenshotGrab
)

// ScreenshotProvider captures through the cross-platform screenshot library.
type ScreenshotProvider struct{}

// Capture implements Provider.
func (ScreenshotProvider) Capture(ctx context.Context, r geom.Rect) (*image.RGBA, error) {
	rect, err := requestRect(r)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := screenshotGrabFn(rect)
	if err != nil {
		return nil, &Error{Op: fmt.Sprintf("screenshot %v", rect), Err: err}
	}
	return img, nil
}

func screenshotDisplays() ([]Display, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, fmt.Errorf("no active displays: %w", ErrNoSuchDisplay)
	}
	displays := make([]Display, 0, n)
	for i := 0; i < n; i++ {
		displays = append(displays, Display{
			Index:   i,
			Name:    fmt.Sprintf("display-%d", i),
			Bounds:  screenshot.GetDisplayBounds(i),
			Primary: i == 0,
		})
	}
	return displays, nil
}

func screenshotGrab(rect image.Rectangle) (*image.RGBA, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return nil, fmt.Errorf("no active displays: %w", ErrNoSuchDisplay)
	}
	img, err := screenshot.CaptureRect(rect)
	if err != nil {
		return nil, err
	}
	if img.Bounds().Min == (image.Point{}) {
		return img, nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
	return dst, nil
}
