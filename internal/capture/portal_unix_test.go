//go:build linux || freebsd || openbsd || netbsd || dragonfly

package capture

import (
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
)

func TestPortalScreenshotOptions(t *testing.T) {
	prev := portalHandleToken
	portalHandleToken = func() string { return "markshot_test" }
	t.Cleanup(func() { portalHandleToken = prev })

	opts := portalScreenshotOptions(Options{IncludeCursor: true})
	if got := opts["cursor_mode"].Value(); got != "embedded" {
		t.Fatalf("cursor_mode = %v", got)
	}
	if got := opts["handle_token"].Value(); got != "markshot_test" {
		t.Fatalf("handle_token = %v", got)
	}
	if got := opts["interactive"].Value(); got != false {
		t.Fatalf("interactive = %v", got)
	}
	opts = portalScreenshotOptions(Options{})
	if got := opts["cursor_mode"].Value(); got != "hidden" {
		t.Fatalf("cursor_mode = %v", got)
	}
}

func TestPortalResult(t *testing.T) {
	ok := []interface{}{uint32(0), map[string]dbus.Variant{"uri": dbus.MakeVariant("file:///tmp/Screenshot%20one.png")}}
	path, err := portalResult(ok)
	if err != nil || path != "/tmp/Screenshot one.png" {
		t.Fatalf("path = %q %v", path, err)
	}
	cancelled := []interface{}{uint32(1), map[string]dbus.Variant{}}
	if _, err := portalResult(cancelled); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	missing := []interface{}{uint32(0), map[string]dbus.Variant{}}
	if _, err := portalResult(missing); err == nil {
		t.Fatalf("expected error for missing uri")
	}
	if _, err := portalResult(nil); err == nil {
		t.Fatalf("expected error for short body")
	}
}

func TestPortalErrorMapping(t *testing.T) {
	err := portalError("call", dbus.Error{Name: "org.freedesktop.portal.Error.NotAllowed"})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	err = portalError("call", dbus.Error{Name: "org.freedesktop.DBus.Error.ServiceUnknown"})
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}
