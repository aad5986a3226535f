//go:build linux

package platform

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	appName      = "markshot"
	expireMillis = int32(5000)
)

// imageData is the freedesktop image-data hint, signature (iiibiiay).
type imageData struct {
	Width, Height, Stride   int32
	HasAlpha                bool
	BitsPerSample, Channels int32
	Data                    []byte
}

// Notify sends n over org.freedesktop.Notifications and returns the ID the
// server assigned, which later notifications can replace.
func Notify(n Notification) (uint32, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return 0, fmt.Errorf("session bus: %w", err)
	}
	defer conn.Close()

	obj := conn.Object("org.freedesktop.Notifications", "/org/freedesktop/Notifications")
	var id uint32
	err = obj.Call("org.freedesktop.Notifications.Notify", 0,
		appName, n.Replaces, "", n.Title, n.Body, []string{}, hints(n), expireMillis).Store(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func hints(n Notification) map[string]dbus.Variant {
	h := map[string]dbus.Variant{
		"desktop-entry": dbus.MakeVariant(appName),
	}
	if t := n.Thumbnail; t != nil && !t.Rect.Empty() {
		w, ht := t.Rect.Dx(), t.Rect.Dy()
		off := t.PixOffset(t.Rect.Min.X, t.Rect.Min.Y)
		h["image-data"] = dbus.MakeVariant(imageData{
			Width:         int32(w),
			Height:        int32(ht),
			Stride:        int32(t.Stride),
			HasAlpha:      true,
			BitsPerSample: 8,
			Channels:      4,
			Data:          t.Pix[off : off+(ht-1)*t.Stride+w*4],
		})
	} else if n.ImagePath != "" {
		h["image-path"] = dbus.MakeVariant(n.ImagePath)
	}
	if !n.Selection.Empty() {
		c := n.Selection.Min.Add(n.Selection.Size().Div(2))
		h["x"] = dbus.MakeVariant(int32(c.X))
		h["y"] = dbus.MakeVariant(int32(c.Y))
	}
	return h
}
