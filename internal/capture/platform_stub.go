//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

package capture

import (
	"fmt"
	"image"
)

// nativeBackend covers platforms without X11. Displays and pixels come from
// the cross-platform screenshot library; windows are not enumerable.
type nativeBackend struct{}

func newBackend() platformBackend {
	return nativeBackend{}
}

func (nativeBackend) ListDisplays() ([]Display, error) {
	return screenshotDisplaysFn()
}

func (nativeBackend) ListWindows() ([]WindowInfo, error) {
	return nil, fmt.Errorf("window listing: %w", ErrUnsupported)
}

func (nativeBackend) Pointer() (image.Point, error) {
	return image.Point{}, fmt.Errorf("pointer query: %w", ErrUnsupported)
}

func (nativeBackend) Grab(rect image.Rectangle) (*image.RGBA, error) {
	return screenshotGrabFn(rect)
}

func runningOnWayland() bool { return false }
