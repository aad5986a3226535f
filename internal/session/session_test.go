package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/example/markshot/internal/capture"
	"github.com/example/markshot/internal/geom"
	"github.com/example/markshot/internal/oplog"
	"github.com/example/markshot/internal/selector"
	"github.com/example/markshot/internal/tool"
)

func white(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

func newSession(t *testing.T, w, h int) *Session {
	t.Helper()
	frame := white(w, h)
	s, err := New(context.Background(), Config{
		Selector: selector.New(geom.R(0, 0, float64(w), float64(h))),
		Mode:     selector.FullDisplay,
		Provider: capture.Frozen{Image: frame},
		Defaults: tool.DefaultDefaults(),
		Now:      func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)
	return s
}

func drag(t *testing.T, m *tool.Machine, tl tool.Tool, from, to geom.Point) oplog.Operation {
	t.Helper()
	if err := m.PointerDown(tl, from); err != nil {
		t.Fatal(err)
	}
	m.PointerMove(to)
	op, ok := m.PointerUp(to)
	if !ok {
		t.Fatalf("%s gesture discarded", tl)
	}
	return op
}

func TestUndoRedoRestoresOutput(t *testing.T) {
	s := newSession(t, 120, 90)
	m := s.Machine()
	drag(t, m, tool.ToolRectangle, geom.Pt(10, 10), geom.Pt(60, 50))
	drag(t, m, tool.ToolArrow, geom.Pt(20, 70), geom.Pt(100, 20))
	before := s.Render()

	if !m.Undo() {
		t.Fatalf("undo failed")
	}
	mid := s.Render()
	if bytes.Equal(mid.Pix, before.Pix) {
		t.Fatalf("undo did not change output")
	}
	if !m.Redo() {
		t.Fatalf("redo failed")
	}
	after := s.Render()
	if !bytes.Equal(before.Pix, after.Pix) {
		t.Fatalf("redo did not restore output")
	}

	m.Undo()
	m.Undo()
	if !bytes.Equal(s.Render().Pix, s.Canvas().Base.Pix) {
		t.Fatalf("undoing everything should yield the base image")
	}
}

func TestFinishAppliesCrop(t *testing.T) {
	s := newSession(t, 200, 100)
	m := s.Machine()
	drag(t, m, tool.ToolRectangle, geom.Pt(0, 0), geom.Pt(50, 50))
	drag(t, m, tool.ToolCrop, geom.Pt(10, 20), geom.Pt(90, 80))

	final, md := s.Finish()
	if final.Width != 80 || final.Height != 60 || final.Image.Bounds() != image.Rect(0, 0, 80, 60) {
		t.Fatalf("final = %dx%d %v", final.Width, final.Height, final.Image.Bounds())
	}
	if md.ID == uuid.Nil || md.Source != "screen" || md.Selection != geom.R(0, 0, 200, 100) {
		t.Fatalf("metadata = %+v", md)
	}
	if !md.Timestamp.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("timestamp = %v", md.Timestamp)
	}

	again, md2 := s.Finish()
	if !bytes.Equal(final.Image.Pix, again.Image.Pix) || md2.ID != md.ID {
		t.Fatalf("finish should be repeatable with a stable id: %v then %v", md.ID, md2.ID)
	}
	if s.Canvas().Log.Len() != 2 {
		t.Fatalf("finish changed the log")
	}

	m.Undo()
	final, _ = s.Finish()
	if final.Width != 200 || final.Height != 100 {
		t.Fatalf("finish after undoing crop = %dx%d", final.Width, final.Height)
	}
}

type failingProvider struct{ err error }

func (p failingProvider) Capture(context.Context, geom.Rect) (*image.RGBA, error) {
	return nil, p.err
}

func TestNewPropagatesCaptureErrors(t *testing.T) {
	s, err := New(context.Background(), Config{
		Selector: selector.New(geom.R(0, 0, 100, 100)),
		Mode:     selector.FullDisplay,
		Provider: failingProvider{err: fmt.Errorf("portal: %w", capture.ErrPermissionDenied)},
	})
	if s != nil || !errors.Is(err, capture.ErrPermissionDenied) {
		t.Fatalf("New = %v %v", s, err)
	}
}

func TestNewPropagatesSelectionErrors(t *testing.T) {
	s, err := New(context.Background(), Config{
		Selector: selector.New(geom.R(0, 0, 100, 100)),
		Mode:     selector.InteractiveDrag,
		Provider: capture.Frozen{Image: white(100, 100)},
	})
	if s != nil || !errors.Is(err, selector.ErrCancelled) {
		t.Fatalf("New = %v %v", s, err)
	}
	if _, err := New(context.Background(), Config{Mode: selector.FullDisplay}); err == nil {
		t.Fatalf("expected error without selector")
	}
}

func TestMappingFollowsCaptureScale(t *testing.T) {
	hidpi := white(200, 160)
	s, err := Open(hidpi, selector.Result{Mode: selector.InteractiveDrag, Rect: geom.R(300, 200, 100, 80)}, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Mapping().ToCanvas(geom.Pt(310, 210)); !got.Eq(geom.Pt(20, 20)) {
		t.Fatalf("ToCanvas = %v", got)
	}
	if got := s.Canvas().Bounds(); got != geom.R(0, 0, 200, 160) {
		t.Fatalf("canvas bounds = %v", got)
	}
	if _, md := s.Finish(); md.Source != "region" {
		t.Fatalf("source = %q", md.Source)
	}
}

func TestOpenNormalisesOrigin(t *testing.T) {
	img := image.NewRGBA(image.Rect(50, 50, 60, 58))
	s, err := Open(img, selector.Result{Rect: geom.R(50, 50, 10, 8)}, Config{Source: "Terminal"})
	if err != nil {
		t.Fatal(err)
	}
	if s.Canvas().Base.Bounds() != image.Rect(0, 0, 10, 8) {
		t.Fatalf("base bounds = %v", s.Canvas().Base.Bounds())
	}
	if _, md := s.Finish(); md.Source != "Terminal" {
		t.Fatalf("source = %q", md.Source)
	}
	if _, err := Open(nil, selector.Result{}, Config{}); err == nil {
		t.Fatalf("expected error for nil image")
	}
}

func TestPickColor(t *testing.T) {
	s := newSession(t, 50, 50)
	s.Canvas().Base.SetRGBA(5, 5, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	got, err := s.PickColor(geom.Pt(5.4, 5.2))
	if err != nil {
		t.Fatal(err)
	}
	want := geom.RGBA(10, 20, 30, 255)
	if got != want || s.Defaults().Color != want {
		t.Fatalf("picked %v, defaults %v", got, s.Defaults().Color)
	}
	if _, err := s.PickColor(geom.Pt(80, 5)); !errors.Is(err, ErrOutsideCanvas) {
		t.Fatalf("expected ErrOutsideCanvas, got %v", err)
	}
}

func TestPickColorUsesCoveredPixel(t *testing.T) {
	s := newSession(t, 20, 10)
	blue := color.RGBA{B: 255, A: 255}
	s.Canvas().Base.SetRGBA(1, 1, blue)
	got, err := s.PickColor(geom.Pt(0.6, 0.6))
	if err != nil {
		t.Fatal(err)
	}
	if got != geom.RGBA(255, 255, 255, 255) {
		t.Fatalf("picking inside pixel (0,0) returned %v", got)
	}
	// a stroke through the same point covers the same pixel
	m := s.Machine()
	m.SetColor(geom.RGBA(255, 0, 0, 255))
	m.SetWidth(1)
	drag(t, m, tool.ToolLine, geom.Pt(0.6, 0.6), geom.Pt(5.6, 0.6))
	if got, _ := s.PickColor(geom.Pt(0.6, 0.6)); got != geom.RGBA(255, 0, 0, 255) {
		t.Fatalf("picked %v where the stroke drew", got)
	}

	s.Canvas().Base.SetRGBA(19, 5, blue)
	got, err = s.PickColor(geom.Pt(19.6, 5))
	if err != nil {
		t.Fatalf("last half-pixel rejected: %v", err)
	}
	if got != geom.FromColor(blue) {
		t.Fatalf("picked %v at the right edge", got)
	}
}

func TestPickColorIgnoresCrop(t *testing.T) {
	s := newSession(t, 50, 50)
	s.Canvas().Base.SetRGBA(40, 40, color.RGBA{B: 200, A: 255})
	drag(t, s.Machine(), tool.ToolCrop, geom.Pt(0, 0), geom.Pt(20, 20))
	got, err := s.PickColor(geom.Pt(40, 40))
	if err != nil || got != geom.RGBA(0, 0, 200, 255) {
		t.Fatalf("picked %v %v", got, err)
	}
}

func TestOpsIncludesPreview(t *testing.T) {
	s := newSession(t, 100, 100)
	m := s.Machine()
	drag(t, m, tool.ToolRectangle, geom.Pt(10, 10), geom.Pt(30, 30))
	if err := m.PointerDown(tool.ToolEllipse, geom.Pt(40, 40)); err != nil {
		t.Fatal(err)
	}
	m.PointerMove(geom.Pt(80, 70))
	ops := s.Ops()
	if len(ops) != 2 || ops[1].Kind() != oplog.KindEllipse {
		t.Fatalf("ops = %v", ops)
	}
	if s.Canvas().Log.Len() != 1 {
		t.Fatalf("preview leaked into the log")
	}
}

func TestCloseReleasesSession(t *testing.T) {
	s := newSession(t, 10, 10)
	s.Close()
	if final, _ := s.Finish(); final.Image != nil {
		t.Fatalf("finish after close returned an image")
	}
	if _, err := s.PickColor(geom.Pt(1, 1)); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

type recordingNotifier struct{ events []string }

func (r *recordingNotifier) Captured(final FinalImage, md Metadata) {
	r.events = append(r.events, fmt.Sprintf("captured %s %dx%d", md.Source, final.Width, final.Height))
}

func (r *recordingNotifier) Saved(_ FinalImage, md Metadata, path string) {
	r.events = append(r.events, fmt.Sprintf("saved %s %s", md.ID, path))
}

func (r *recordingNotifier) Copied(final FinalImage, md Metadata) {
	r.events = append(r.events, fmt.Sprintf("copied %s %dx%d", md.ID, final.Width, final.Height))
}

type persisterFunc func(ctx context.Context, img *image.RGBA, md Metadata) (string, error)

func (f persisterFunc) Persist(ctx context.Context, img *image.RGBA, md Metadata) (string, error) {
	return f(ctx, img, md)
}

type clipboardFunc func(img *image.RGBA) error

func (f clipboardFunc) WriteImage(img *image.RGBA) error { return f(img) }

func TestPostCaptureNotifiesWithSessionMetadata(t *testing.T) {
	s := newSession(t, 40, 30)
	final, md := s.Finish()
	n := &recordingNotifier{}
	var copied *image.RGBA
	out, err := PostCapture{
		Persister: persisterFunc(func(_ context.Context, img *image.RGBA, got Metadata) (string, error) {
			if got.ID != md.ID {
				t.Fatalf("persisted id %v, want %v", got.ID, md.ID)
			}
			return "/shots/a.png", nil
		}),
		Clipboard: clipboardFunc(func(img *image.RGBA) error { copied = img; return nil }),
		Notifier:  n,
	}.Run(context.Background(), final, md)
	if err != nil {
		t.Fatal(err)
	}
	if out.Path != "/shots/a.png" || !out.Copied || copied != final.Image {
		t.Fatalf("outcome = %+v", out)
	}
	want := []string{
		"captured screen 40x30",
		fmt.Sprintf("saved %s /shots/a.png", md.ID),
		fmt.Sprintf("copied %s 40x30", md.ID),
	}
	if fmt.Sprint(n.events) != fmt.Sprint(want) {
		t.Fatalf("events = %q", n.events)
	}
}

func TestPostCaptureKeepsCopyingAfterSaveFails(t *testing.T) {
	s := newSession(t, 10, 10)
	final, md := s.Finish()
	n := &recordingNotifier{}
	boom := errors.New("disk full")
	out, err := PostCapture{
		Persister: persisterFunc(func(context.Context, *image.RGBA, Metadata) (string, error) { return "", boom }),
		Clipboard: clipboardFunc(func(*image.RGBA) error { return nil }),
		Notifier:  n,
	}.Run(context.Background(), final, md)
	if !errors.Is(err, boom) || !out.Copied || out.Path != "" {
		t.Fatalf("outcome = %+v, err = %v", out, err)
	}
	if len(n.events) != 2 {
		t.Fatalf("events = %q", n.events)
	}
}
