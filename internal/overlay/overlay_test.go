package overlay

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"io"
	"strings"
	"testing"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"

	"github.com/example/markshot/internal/geom"
	"github.com/example/markshot/internal/oplog"
	"github.com/example/markshot/internal/selector"
	"github.com/example/markshot/internal/session"
	"github.com/example/markshot/internal/theme"
	"github.com/example/markshot/internal/tool"
)

func filled(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}

// newTestEditor opens a 100x80 session whose selection sits at (50,40) on
// screen.
func newTestEditor(t *testing.T) *editor {
	t.Helper()
	sess, err := session.Open(filled(100, 80, color.White),
		selector.Result{Mode: selector.InteractiveDrag, Rect: geom.R(50, 40, 100, 80)},
		session.Config{Defaults: tool.DefaultDefaults()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(sess.Close)
	return newEditor(sess)
}

func press(x, y float64) selector.Event {
	return selector.Event{Kind: selector.Press, Point: geom.Pt(x, y)}
}

func move(x, y float64) selector.Event {
	return selector.Event{Kind: selector.Motion, Point: geom.Pt(x, y)}
}

func release(x, y float64) selector.Event {
	return selector.Event{Kind: selector.Release, Point: geom.Pt(x, y)}
}

func keyPress(r rune, mods key.Modifiers) key.Event {
	return key.Event{Rune: r, Modifiers: mods, Direction: key.DirPress}
}

func codePress(c key.Code) key.Event {
	return key.Event{Rune: -1, Code: c, Direction: key.DirPress}
}

func TestEditorDrawsInCanvasSpace(t *testing.T) {
	e := newTestEditor(t)
	e.pointer(press(60, 50))
	if !e.pointer(move(80, 70)) {
		t.Fatalf("move while drafting should repaint")
	}
	ops, _, _ := e.ops()
	if len(ops) != 1 {
		t.Fatalf("preview missing: %v", ops)
	}
	e.pointer(release(90, 80))
	log := e.sess.Canvas().Log
	if log.Len() != 1 {
		t.Fatalf("log len = %d", log.Len())
	}
	r, ok := log.At(0).(oplog.Rectangle)
	if !ok || r.Bounds != geom.R(10, 10, 30, 30) {
		t.Fatalf("op = %#v", log.At(0))
	}
	if e.pointer(move(10, 10)) {
		t.Fatalf("idle motion should not repaint")
	}
}

func TestEditorUndoRedoKeys(t *testing.T) {
	e := newTestEditor(t)
	e.pointer(press(60, 50))
	e.pointer(release(90, 80))
	if dirty, act := e.key(keyPress('z', key.ModControl)); !dirty || act != ActionNone {
		t.Fatalf("undo = %v %v", dirty, act)
	}
	if e.sess.Canvas().Log.Cursor() != 0 {
		t.Fatalf("undo did not move cursor")
	}
	e.key(keyPress('Z', key.ModControl|key.ModShift))
	if e.sess.Canvas().Log.Cursor() != 1 {
		t.Fatalf("redo did not move cursor")
	}
	e.key(keyPress('z', key.ModControl))
	e.key(keyPress('y', key.ModControl))
	if e.sess.Canvas().Log.Cursor() != 1 {
		t.Fatalf("ctrl+y did not redo")
	}
}

func TestEditorToolAndStyleKeys(t *testing.T) {
	e := newTestEditor(t)
	d := e.machine().Defaults()
	e.key(keyPress('o', 0))
	e.key(keyPress('c', 0))
	e.key(keyPress('w', 0))
	e.key(keyPress('f', 0))
	got := e.machine().Defaults()
	if got.Tool != tool.ToolEllipse {
		t.Fatalf("tool = %s", got.Tool)
	}
	if got.Color == d.Color || got.Width == d.Width || !got.Fill {
		t.Fatalf("style unchanged: %+v", got)
	}
	if !strings.Contains(e.status(), "ellipse") || !strings.Contains(e.status(), "filled") {
		t.Fatalf("status = %q", e.status())
	}
	e.key(keyPress('X', key.ModShift))
	if e.machine().Tool() != tool.ToolRectangle {
		t.Fatalf("shifted tool key ignored")
	}
}

func TestEditorTextEntry(t *testing.T) {
	e := newTestEditor(t)
	e.key(keyPress('t', 0))
	e.pointer(press(70, 60))
	if !e.typing {
		t.Fatalf("text tool did not start typing")
	}
	for _, r := range "hix" {
		e.key(keyPress(r, 0))
	}
	e.key(codePress(key.CodeDeleteBackspace))
	ops, _, _ := e.ops()
	if len(ops) != 1 || ops[0].(oplog.Text).Content != "hi" {
		t.Fatalf("text preview = %v", ops)
	}
	if e.sess.Canvas().Log.Len() != 0 {
		t.Fatalf("preview written to log")
	}
	e.key(codePress(key.CodeReturnEnter))
	log := e.sess.Canvas().Log
	if log.Len() != 1 {
		t.Fatalf("text not committed")
	}
	txt := log.At(0).(oplog.Text)
	if txt.Content != "hi" || txt.Anchor != geom.Pt(20, 20) {
		t.Fatalf("text = %+v", txt)
	}
}

func TestEditorEmptyTextDiscarded(t *testing.T) {
	e := newTestEditor(t)
	e.key(keyPress('t', 0))
	e.pointer(press(70, 60))
	e.pointer(press(80, 70))
	if e.typing || e.sess.Canvas().Log.Len() != 0 {
		t.Fatalf("empty text kept: typing=%v len=%d", e.typing, e.sess.Canvas().Log.Len())
	}
}

func TestEditorCropOutline(t *testing.T) {
	e := newTestEditor(t)
	e.key(keyPress('x', 0))
	e.pointer(press(55, 45))
	e.pointer(release(65, 55))
	e.key(keyPress('r', 0))
	e.pointer(press(60, 50))
	e.pointer(release(100, 90))
	ops, crop, ok := e.ops()
	if !ok || crop != geom.R(10, 10, 40, 40) {
		t.Fatalf("crop = %v %v", crop, ok)
	}
	if len(ops) != 1 || ops[0].Kind() != oplog.KindRectangle {
		t.Fatalf("crop left in render ops: %v", ops)
	}
	e.pointer(press(70, 70))
	if !strings.Contains(e.message, "crop already set") {
		t.Fatalf("message = %q", e.message)
	}
	if e.sess.Canvas().Log.Len() != 2 {
		t.Fatalf("second crop accepted")
	}
}

func TestEditorPickColor(t *testing.T) {
	e := newTestEditor(t)
	e.key(keyPress('i', 0))
	if !e.picking {
		t.Fatalf("picker not armed")
	}
	e.pointer(press(60, 50))
	if e.picking || e.machine().Defaults().Color != geom.RGBA(255, 255, 255, 255) {
		t.Fatalf("picked %v", e.machine().Defaults().Color)
	}
	if e.sess.Canvas().Log.Len() != 0 {
		t.Fatalf("picking drew an operation")
	}
}

func TestEditorEscape(t *testing.T) {
	e := newTestEditor(t)
	e.pointer(press(60, 50))
	if dirty, act := e.key(codePress(key.CodeEscape)); !dirty || act != ActionNone {
		t.Fatalf("escape while drafting = %v %v", dirty, act)
	}
	if e.machine().State() != tool.Idle {
		t.Fatalf("gesture not cancelled")
	}
	if _, act := e.key(codePress(key.CodeEscape)); act != ActionCancel {
		t.Fatalf("escape when idle = %v", act)
	}
	if _, act := e.key(keyPress('q', 0)); act != ActionCancel {
		t.Fatalf("q = %v", act)
	}
}

func TestEditorFinishKeys(t *testing.T) {
	e := newTestEditor(t)
	cases := []struct {
		ev   key.Event
		want Action
	}{
		{codePress(key.CodeReturnEnter), ActionFinish},
		{keyPress('s', key.ModControl), ActionSave},
		{keyPress('c', key.ModControl), ActionCopy},
	}
	for _, c := range cases {
		if _, act := e.key(c.ev); act != c.want {
			t.Fatalf("%v = %v, want %v", c.ev, act, c.want)
		}
	}
	if dirty, act := e.key(key.Event{Rune: 'x', Direction: key.DirRelease}); dirty || act != ActionNone {
		t.Fatalf("key release handled")
	}
}

func TestBindingsAreUnique(t *testing.T) {
	seen := map[KeyShortcut]string{}
	for _, b := range Bindings() {
		for _, k := range b.Keys {
			if prev, ok := seen[k]; ok {
				t.Fatalf("%s bound to %s and %s", k, prev, b.Action)
			}
			seen[k] = b.Action
		}
	}
	if !strings.Contains(HelpText(), "Ctrl+Shift+Z") {
		t.Fatalf("help text:\n%s", HelpText())
	}
}

func TestPointerEvent(t *testing.T) {
	origin := image.Pt(100, 50)
	cases := []struct {
		in   mouse.Event
		kind selector.EventKind
		ok   bool
	}{
		{mouse.Event{X: 10, Y: 5, Button: mouse.ButtonLeft, Direction: mouse.DirPress}, selector.Press, true},
		{mouse.Event{X: 10, Y: 5, Button: mouse.ButtonLeft, Direction: mouse.DirRelease}, selector.Release, true},
		{mouse.Event{X: 10, Y: 5, Direction: mouse.DirNone}, selector.Motion, true},
		{mouse.Event{X: 10, Y: 5, Button: mouse.ButtonRight, Direction: mouse.DirPress}, selector.CancelKey, true},
		{mouse.Event{X: 10, Y: 5, Button: mouse.ButtonMiddle, Direction: mouse.DirPress}, 0, false},
	}
	for _, c := range cases {
		ev, ok := pointerEvent(c.in, origin)
		if ok != c.ok {
			t.Fatalf("%v ok = %v", c.in, ok)
		}
		if ok && (ev.Kind != c.kind || ev.Point != geom.Pt(110, 55)) {
			t.Fatalf("%v = %+v", c.in, ev)
		}
	}
}

func TestEventQueue(t *testing.T) {
	q := newEventQueue()
	q.push(press(1, 2))
	ev, err := q.Next(context.Background())
	if err != nil || ev.Kind != selector.Press {
		t.Fatalf("next = %+v %v", ev, err)
	}
	for i := 0; i < cap(q.ch)+10; i++ {
		q.push(move(float64(i), 0))
	}
	if len(q.ch) != cap(q.ch) {
		t.Fatalf("queue len = %d", len(q.ch))
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q2 := newEventQueue()
	if _, err := q2.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled next = %v", err)
	}
	q2.close()
	q2.close()
	if _, err := q2.Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("closed next = %v", err)
	}
	q2.push(press(0, 0))
}

func TestSceneDraw(t *testing.T) {
	th := theme.Default()
	red := color.RGBA{255, 0, 0, 255}
	blue := color.RGBA{0, 0, 255, 255}
	sc := scene{
		Frozen:    filled(40, 40, red),
		Origin:    image.Pt(100, 100),
		Selection: geom.R(110, 110, 20, 20),
		Canvas:    filled(20, 20, blue),
		Theme:     th,
	}
	dst := image.NewRGBA(image.Rect(0, 0, 40, 40))
	sc.draw(dst)
	if got := dst.RGBAAt(20, 20); got != blue {
		t.Fatalf("inside selection = %v", got)
	}
	if got := dst.RGBAAt(9, 9); got != th.SelectionBorder {
		t.Fatalf("border = %v", got)
	}
	out := dst.RGBAAt(2, 2)
	if out.R == 0 || out.R >= 255 || out.G != 0 {
		t.Fatalf("scrim = %v", out)
	}
}

func TestSceneSelectingShowsFrozenPixels(t *testing.T) {
	red := color.RGBA{255, 0, 0, 255}
	sc := scene{Frozen: filled(40, 40, red), Selection: geom.R(5, 5, 10, 10), Status: "select"}
	dst := image.NewRGBA(image.Rect(0, 0, 40, 40))
	sc.draw(dst)
	if got := dst.RGBAAt(10, 10); got != red {
		t.Fatalf("live selection = %v", got)
	}
}
