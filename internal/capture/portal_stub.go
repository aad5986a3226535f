//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

package capture

import (
	"context"
	"fmt"
	"image"
)

var portalScreenshotFn = portalScreenshot

func portalScreenshot(context.Context, Options) (*image.RGBA, error) {
	return nil, fmt.Errorf("desktop portal: %w", ErrUnsupported)
}
