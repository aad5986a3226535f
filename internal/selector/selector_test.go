package selector

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/example/markshot/internal/geom"
)

type script []Event

func (s *script) Next(ctx context.Context) (Event, error) {
	if len(*s) == 0 {
		return Event{}, context.Canceled
	}
	ev := (*s)[0]
	*s = (*s)[1:]
	return ev, nil
}

type fakeWindows struct {
	rects map[bool]geom.Rect
	last  WindowQuery
}

func (f *fakeWindows) WindowAt(_ context.Context, q WindowQuery) (geom.Rect, error) {
	f.last = q
	r, ok := f.rects[q.Decorations]
	if !ok {
		return geom.Rect{}, fmt.Errorf("at %v: %w", q.Point, ErrNoWindowFound)
	}
	return r, nil
}

type fixedPointer geom.Point

func (p fixedPointer) Pointer(context.Context) (geom.Point, error) { return geom.Point(p), nil }

var display = geom.R(0, 0, 1920, 1080)

func TestFullDisplay(t *testing.T) {
	res, err := New(display).Begin(context.Background(), FullDisplay)
	if err != nil {
		t.Fatal(err)
	}
	if res.Rect != display || res.Mode != FullDisplay {
		t.Fatalf("result = %+v", res)
	}
}

func TestWindowUnderPointer(t *testing.T) {
	w := &fakeWindows{rects: map[bool]geom.Rect{
		false: geom.R(100, 130, 400, 300),
		true:  geom.R(96, 100, 408, 334),
	}}
	s := New(display, WithWindows(w, fixedPointer(geom.Pt(200, 200))))
	res, err := s.Begin(context.Background(), WindowUnderPointer)
	if err != nil {
		t.Fatal(err)
	}
	if res.Rect != geom.R(100, 130, 400, 300) || w.last.Point != geom.Pt(200, 200) {
		t.Fatalf("result = %+v query = %+v", res, w.last)
	}

	s = New(display, WithWindows(w, fixedPointer(geom.Pt(200, 200))), WithDecorations(true))
	res, err = s.Begin(context.Background(), WindowUnderPointer)
	if err != nil {
		t.Fatal(err)
	}
	if res.Rect != geom.R(96, 100, 408, 334) {
		t.Fatalf("decorated result = %+v", res)
	}
}

func TestWindowUnderPointerNotFound(t *testing.T) {
	w := &fakeWindows{}
	_, err := New(display, WithWindows(w, fixedPointer(geom.Pt(5, 5)))).Begin(context.Background(), WindowUnderPointer)
	if !errors.Is(err, ErrNoWindowFound) {
		t.Fatalf("expected ErrNoWindowFound, got %v", err)
	}
	_, err = New(display).Begin(context.Background(), WindowUnderPointer)
	if !errors.Is(err, ErrNoWindowFound) {
		t.Fatalf("expected ErrNoWindowFound without locator, got %v", err)
	}
}

func TestInteractiveDragCommits(t *testing.T) {
	ev := script{
		{Kind: Motion, Point: geom.Pt(3, 3)},
		{Kind: Press, Point: geom.Pt(500, 400)},
		{Kind: Motion, Point: geom.Pt(600, 450)},
		{Kind: Release, Point: geom.Pt(2000, 300)},
	}
	var live []geom.Rect
	s := New(display, WithEvents(&ev), WithObserver(func(r geom.Rect) { live = append(live, r) }))
	res, err := s.Begin(context.Background(), InteractiveDrag)
	if err != nil {
		t.Fatal(err)
	}
	if res.Rect != geom.R(500, 300, 1420, 100) {
		t.Fatalf("rect = %v", res.Rect)
	}
	if len(live) != 3 || live[2] != geom.R(500, 400, 100, 50) {
		t.Fatalf("live = %v", live)
	}
}

func TestInteractiveDragZeroAreaCancels(t *testing.T) {
	ev := script{
		{Kind: Press, Point: geom.Pt(10, 10)},
		{Kind: Motion, Point: geom.Pt(10, 200)},
		{Kind: Release, Point: geom.Pt(10, 300)},
	}
	_, err := New(display, WithEvents(&ev)).Begin(context.Background(), InteractiveDrag)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}

func TestInteractiveDragCancelKey(t *testing.T) {
	ev := script{
		{Kind: Press, Point: geom.Pt(10, 10)},
		{Kind: Motion, Point: geom.Pt(100, 200)},
		{Kind: CancelKey},
		{Kind: Release, Point: geom.Pt(300, 300)},
	}
	_, err := New(display, WithEvents(&ev)).Begin(context.Background(), InteractiveDrag)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}

func TestInteractiveDragInputEnds(t *testing.T) {
	ev := script{{Kind: Press, Point: geom.Pt(10, 10)}}
	_, err := New(display, WithEvents(&ev)).Begin(context.Background(), InteractiveDrag)
	if !errors.Is(err, ErrCancelled) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation wrapping context.Canceled, got %v", err)
	}
}

func TestDragMachine(t *testing.T) {
	d := NewDrag(geom.R(0, 0, 100, 100))
	if d.State() != DragIdle || !d.Rect().Empty() {
		t.Fatalf("new drag not idle")
	}
	d.Move(geom.Pt(50, 50))
	if d.State() != DragIdle {
		t.Fatalf("move before press changed state")
	}
	d.Press(geom.Pt(-20, 20))
	d.Move(geom.Pt(40, 140))
	if d.Rect() != geom.R(0, 20, 40, 80) {
		t.Fatalf("live rect = %v", d.Rect())
	}
	r, err := d.Release(geom.Pt(40, 140))
	if err != nil || d.State() != Committed || r != geom.R(0, 20, 40, 80) {
		t.Fatalf("release = %v %v %s", r, err, d.State())
	}
	d.Cancel()
	if d.State() != Committed {
		t.Fatalf("cancel after commit changed state")
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{FullDisplay, WindowUnderPointer, InteractiveDrag} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Fatalf("ParseMode(%s) = %v %v", m, got, err)
		}
	}
	if _, err := ParseMode("desk"); err == nil {
		t.Fatalf("expected error")
	}
}
