//go:build linux || freebsd || openbsd || netbsd || dragonfly

package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	portalDest      = "org.freedesktop.portal.Desktop"
	portalPath      = "/org/freedesktop/portal/desktop"
	portalMethod    = "org.freedesktop.portal.Screenshot.Screenshot"
	portalResponse  = "org.freedesktop.portal.Request.Response"
	portalCancelled = 1
)

var (
	portalScreenshotFn = portalScreenshot
	portalHandleToken  = newPortalHandleToken
)

func portalScreenshot(ctx context.Context, opts Options) (*image.RGBA, error) {
	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("dbus connect: %w", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Printf("dbus close: %v", cerr)
		}
	}()

	sigc := make(chan *dbus.Signal, 4)
	conn.Signal(sigc)
	defer conn.RemoveSignal(sigc)

	obj := conn.Object(portalDest, portalPath)
	var handle dbus.ObjectPath
	call := obj.CallWithContext(ctx, portalMethod, 0, "", portalScreenshotOptions(opts))
	if call.Err != nil {
		return nil, portalError("portal screenshot call", call.Err)
	}
	if err := call.Store(&handle); err != nil {
		return nil, fmt.Errorf("portal screenshot response: %w", err)
	}

	rule := fmt.Sprintf("type='signal',interface='org.freedesktop.portal.Request',member='Response',path='%s'", handle)
	if err := conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.AddMatch", 0, rule).Err; err != nil {
		return nil, fmt.Errorf("portal screenshot subscribe: %w", err)
	}
	defer conn.BusObject().Call("org.freedesktop.DBus.RemoveMatch", 0, rule)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case sig, ok := <-sigc:
			if !ok {
				return nil, fmt.Errorf("portal screenshot: session bus closed")
			}
			if sig.Path != handle || sig.Name != portalResponse {
				continue
			}
			path, err := portalResult(sig.Body)
			if err != nil {
				return nil, err
			}
			img, err := loadPNG(path)
			if err != nil {
				return nil, fmt.Errorf("portal screenshot image: %w", err)
			}
			return img, nil
		}
	}
}

// portalResult reads the (response code, results) pair of a Response signal.
func portalResult(body []interface{}) (string, error) {
	if len(body) < 2 {
		return "", fmt.Errorf("portal screenshot: malformed response")
	}
	if code, ok := body[0].(uint32); ok && code != 0 {
		if code == portalCancelled {
			return "", fmt.Errorf("portal screenshot cancelled by user: %w", ErrPermissionDenied)
		}
		return "", fmt.Errorf("portal screenshot refused (code %d): %w", code, ErrPermissionDenied)
	}
	res, ok := body[1].(map[string]dbus.Variant)
	if !ok {
		return "", fmt.Errorf("portal screenshot: malformed results")
	}
	uriVar, ok := res["uri"]
	if !ok {
		return "", fmt.Errorf("portal screenshot: response missing image data")
	}
	uri, ok := uriVar.Value().(string)
	if !ok {
		return "", fmt.Errorf("portal screenshot: uri is %T", uriVar.Value())
	}
	if u, err := url.Parse(uri); err == nil && u.Scheme == "file" {
		return u.Path, nil
	}
	return strings.TrimPrefix(uri, "file://"), nil
}

func portalError(op string, err error) error {
	var derr dbus.Error
	if errors.As(err, &derr) {
		switch derr.Name {
		case "org.freedesktop.portal.Error.NotAllowed", "org.freedesktop.DBus.Error.AccessDenied":
			return fmt.Errorf("%s: %w: %w", op, ErrPermissionDenied, err)
		case "org.freedesktop.DBus.Error.ServiceUnknown", "org.freedesktop.DBus.Error.UnknownMethod":
			return fmt.Errorf("%s: %w: %w", op, ErrUnsupported, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func newPortalHandleToken() string {
	return fmt.Sprintf("markshot_%d", time.Now().UnixNano())
}

// portalScreenshotOptions builds a non-interactive request; the region is
// chosen by the selector, not the portal dialog.
func portalScreenshotOptions(opts Options) map[string]dbus.Variant {
	cursorMode := "hidden"
	if opts.IncludeCursor {
		cursorMode = "embedded"
	}
	return map[string]dbus.Variant{
		"interactive":  dbus.MakeVariant(false),
		"handle_token": dbus.MakeVariant(portalHandleToken()),
		"modal":        dbus.MakeVariant(false),
		"cursor_mode":  dbus.MakeVariant(cursorMode),
	}
}

func loadPNG(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			log.Printf("close %s: %v", path, cerr)
		}
	}()
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("remove %s: %v", path, err)
		}
	}()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return rgba, nil
}
