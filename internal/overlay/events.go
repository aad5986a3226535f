package overlay

import (
	"context"
	"image"
	"io"
	"sync"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"

	"github.com/example/markshot/internal/geom"
	"github.com/example/markshot/internal/selector"
)

// pointerEvent converts a window mouse event to a screen-space selector
// event. The right button cancels.
func pointerEvent(e mouse.Event, origin image.Point) (selector.Event, bool) {
	p := geom.Pt(float64(e.X)+float64(origin.X), float64(e.Y)+float64(origin.Y))
	switch {
	case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress:
		return selector.Event{Kind: selector.Press, Point: p}, true
	case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirRelease:
		return selector.Event{Kind: selector.Release, Point: p}, true
	case e.Button == mouse.ButtonRight && e.Direction == mouse.DirPress:
		return selector.Event{Kind: selector.CancelKey, Point: p}, true
	case e.Direction == mouse.DirNone:
		return selector.Event{Kind: selector.Motion, Point: p}, true
	}
	return selector.Event{}, false
}

func isCancelKey(e key.Event) bool {
	return e.Direction == key.DirPress && e.Code == key.CodeEscape
}

// eventQueue feeds window input to the selector goroutine.
type eventQueue struct {
	ch   chan selector.Event
	done chan struct{}
	once sync.Once
}

func newEventQueue() *eventQueue {
	return &eventQueue{ch: make(chan selector.Event, 64), done: make(chan struct{})}
}

// Next implements selector.EventSource.
func (q *eventQueue) Next(ctx context.Context) (selector.Event, error) {
	select {
	case <-ctx.Done():
		return selector.Event{}, ctx.Err()
	case ev := <-q.ch:
		return ev, nil
	case <-q.done:
		return selector.Event{}, io.EOF
	}
}

// push queues ev. Motion is dropped when the reader falls behind; other
// events wait for room.
func (q *eventQueue) push(ev selector.Event) {
	if ev.Kind == selector.Motion {
		select {
		case q.ch <- ev:
		default:
		}
		return
	}
	select {
	case q.ch <- ev:
	case <-q.done:
	}
}

func (q *eventQueue) close() {
	q.once.Do(func() { close(q.done) })
}
