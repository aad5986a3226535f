// Package notify reports finished captures through desktop notifications.
package notify

import (
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"

	"github.com/example/markshot/internal/platform"
	"github.com/example/markshot/internal/session"
)

var send = platform.Notify

// Event identifies a notification trigger.
type Event string

const (
	// EventCapture fires when a session finishes.
	EventCapture Event = "capture"
	// EventSave fires when the image is persisted.
	EventSave Event = "save"
	// EventCopy fires when the image reaches the clipboard.
	EventCopy Event = "copy"
)

// ThumbnailSize bounds the longer side of the preview sent with a capture.
const ThumbnailSize = 128

// Preferences holds the notification title and one message template per
// event. Templates may use {source}, {size}, {selection} and {path}.
type Preferences struct {
	Title     string
	Templates map[Event]string
}

// DefaultPreferences returns the built-in messages.
func DefaultPreferences() Preferences {
	return Preferences{
		Title: "markshot",
		Templates: map[Event]string{
			EventCapture: "Captured {source} ({size})",
			EventSave:    "Saved {path}",
			EventCopy:    "Copied {size} image to the clipboard",
		},
	}
}

// LoadPreferences applies MARKSHOT_NOTIFY_* overrides to the defaults.
func LoadPreferences(getenv func(string) string) Preferences {
	if getenv == nil {
		getenv = os.Getenv
	}
	prefs := DefaultPreferences()
	if v := strings.TrimSpace(getenv("MARKSHOT_NOTIFY_TITLE")); v != "" {
		prefs.Title = v
	}
	for key, event := range map[string]Event{
		"MARKSHOT_NOTIFY_CAPTURE_TEXT": EventCapture,
		"MARKSHOT_NOTIFY_SAVE_TEXT":    EventSave,
		"MARKSHOT_NOTIFY_COPY_TEXT":    EventCopy,
	} {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			prefs.Templates[event] = v
		}
	}
	return prefs
}

// Notifier implements session.Notifier. Notifications about one session
// replace each other, so a capture that is then saved and copied leaves a
// single popup.
type Notifier struct {
	prefs   Preferences
	enabled map[Event]bool

	mu    sync.Mutex
	shown map[uuid.UUID]uint32
}

var _ session.Notifier = (*Notifier)(nil)

// New returns a Notifier with every event disabled.
func New(prefs Preferences) *Notifier {
	templates := make(map[Event]string, len(prefs.Templates))
	for k, v := range prefs.Templates {
		templates[k] = v
	}
	return &Notifier{
		prefs:   Preferences{Title: prefs.Title, Templates: templates},
		enabled: make(map[Event]bool),
		shown:   make(map[uuid.UUID]uint32),
	}
}

// Enable toggles notifications for event.
func (n *Notifier) Enable(event Event, on bool) {
	if n == nil {
		return
	}
	n.enabled[event] = on
}

// Captured announces a finished session with a thumbnail of the result.
func (n *Notifier) Captured(final session.FinalImage, md session.Metadata) {
	if !n.enabledFor(EventCapture) {
		return
	}
	n.dispatch(EventCapture, newFields(final, md, ""), md, platform.Notification{
		Thumbnail: Thumbnail(final.Image, ThumbnailSize),
	})
}

// Saved announces where the session was persisted. Saved files are shown
// as the notification image.
func (n *Notifier) Saved(final session.FinalImage, md session.Metadata, path string) {
	if !n.enabledFor(EventSave) {
		return
	}
	path = strings.TrimSpace(path)
	note := platform.Notification{}
	if abs, err := filepath.Abs(path); err == nil {
		if _, err := os.Stat(abs); err == nil {
			path = abs
			note.ImagePath = abs
		}
	}
	n.dispatch(EventSave, newFields(final, md, path), md, note)
}

// Copied announces that the image is on the clipboard.
func (n *Notifier) Copied(final session.FinalImage, md session.Metadata) {
	if !n.enabledFor(EventCopy) {
		return
	}
	n.dispatch(EventCopy, newFields(final, md, ""), md, platform.Notification{
		Thumbnail: Thumbnail(final.Image, ThumbnailSize),
	})
}

func (n *Notifier) enabledFor(event Event) bool {
	return n != nil && n.enabled[event]
}

func (n *Notifier) dispatch(event Event, f fields, md session.Metadata, note platform.Notification) {
	body := strings.TrimSpace(f.expand(n.prefs.Templates[event]))
	if body == "" {
		return
	}
	note.Title = n.prefs.Title
	note.Body = body
	note.Selection = md.Selection.Image()

	n.mu.Lock()
	note.Replaces = n.shown[md.ID]
	n.mu.Unlock()

	id, err := send(note)
	if err != nil {
		log.Printf("notification %s: %v", event, err)
		return
	}
	if id != 0 && md.ID != uuid.Nil {
		n.mu.Lock()
		n.shown[md.ID] = id
		n.mu.Unlock()
	}
}

// fields are the values a template can reference.
type fields struct {
	source, size, selection, path string
}

func newFields(final session.FinalImage, md session.Metadata, path string) fields {
	sel := md.Selection.Image()
	return fields{
		source:    md.Source,
		size:      fmt.Sprintf("%dx%d", final.Width, final.Height),
		selection: fmt.Sprintf("%dx%d+%d+%d", sel.Dx(), sel.Dy(), sel.Min.X, sel.Min.Y),
		path:      path,
	}
}

func (f fields) expand(template string) string {
	return strings.NewReplacer(
		"{source}", f.source,
		"{size}", f.size,
		"{selection}", f.selection,
		"{path}", f.path,
	).Replace(template)
}

// Thumbnail scales img to fit inside limit x limit, keeping its aspect
// ratio. Smaller images are copied at their own size.
func Thumbnail(img image.Image, limit int) *image.NRGBA {
	if img == nil || img.Bounds().Empty() || limit <= 0 {
		return nil
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > limit || h > limit {
		if w >= h {
			w, h = limit, max(1, h*limit/w)
		} else {
			w, h = max(1, w*limit/h), limit
		}
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
