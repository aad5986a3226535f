// Package clipboard publishes finished captures to the system clipboard.
package clipboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"sync"
)

var errNoDisplay = errors.New("clipboard initialization requires DISPLAY or WAYLAND_DISPLAY")

var (
	initOnce sync.Once
	initErr  error
)

var (
	writePNGFn  = writePNG
	writeTextFn = writeText
)

func hasDisplay() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

// System is the desktop clipboard. The zero value is ready to use.
type System struct {
	mu      sync.Mutex
	changed <-chan struct{}
}

// WriteImage publishes img as image/png.
func (s *System) WriteImage(img *image.RGBA) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode clipboard image: %w", err)
	}
	changed, err := writePNGFn(buf.Bytes())
	if err != nil {
		return err
	}
	s.hold(changed)
	return nil
}

// WriteText publishes UTF-8 text, such as a picked colour.
func (s *System) WriteText(text string) error {
	changed, err := writeTextFn(text)
	if err != nil {
		return err
	}
	s.hold(changed)
	return nil
}

func (s *System) hold(changed <-chan struct{}) {
	s.mu.Lock()
	s.changed = changed
	s.mu.Unlock()
}

// Wait blocks until another application takes the clipboard or ctx ends.
// X11 clipboards are served by the owning process, so a command line run
// must stay alive for the copy to be pasted.
func (s *System) Wait(ctx context.Context) error {
	s.mu.Lock()
	changed := s.changed
	s.mu.Unlock()
	if changed == nil {
		return nil
	}
	select {
	case <-changed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
