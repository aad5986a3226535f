package tool

import (
	"errors"
	"testing"

	"github.com/example/markshot/internal/geom"
	"github.com/example/markshot/internal/oplog"
)

func drag(t *testing.T, m *Machine, tl Tool, pts ...geom.Point) (oplog.Operation, bool) {
	t.Helper()
	if err := m.PointerDown(tl, pts[0]); err != nil {
		t.Fatalf("PointerDown: %v", err)
	}
	for _, p := range pts[1 : len(pts)-1] {
		m.PointerMove(p)
	}
	return m.PointerUp(pts[len(pts)-1])
}

func TestRectangleGestureAppends(t *testing.T) {
	m := NewMachine(DefaultDefaults())
	op, ok := drag(t, m, ToolRectangle, geom.Pt(10, 10), geom.Pt(50, 30), geom.Pt(110, 60))
	if !ok {
		t.Fatalf("rectangle discarded")
	}
	r, isRect := op.(oplog.Rectangle)
	if !isRect || r.Bounds != geom.R(10, 10, 100, 50) {
		t.Fatalf("unexpected op %#v", op)
	}
	if m.Log().Cursor() != 1 || m.State() != Idle {
		t.Fatalf("cursor=%d state=%s", m.Log().Cursor(), m.State())
	}
}

func TestMinimumSizePolicy(t *testing.T) {
	cases := []struct {
		name string
		tool Tool
		pts  []geom.Point
	}{
		{"zero width rectangle", ToolRectangle, []geom.Point{geom.Pt(5, 5), geom.Pt(5, 40)}},
		{"click ellipse", ToolEllipse, []geom.Point{geom.Pt(5, 5), geom.Pt(5, 5)}},
		{"click arrow", ToolArrow, []geom.Point{geom.Pt(5, 5), geom.Pt(5.2, 4.9)}},
		{"click line", ToolLine, []geom.Point{geom.Pt(5, 5), geom.Pt(5, 5)}},
		{"single point pencil", ToolPencil, []geom.Point{geom.Pt(5, 5), geom.Pt(5, 5), geom.Pt(5, 5)}},
		{"flat blur", ToolBlur, []geom.Point{geom.Pt(5, 5), geom.Pt(60, 5)}},
		{"flat crop", ToolCrop, []geom.Point{geom.Pt(5, 5), geom.Pt(5, 60)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMachine(DefaultDefaults())
			if _, ok := drag(t, m, tc.tool, tc.pts...); ok {
				t.Fatalf("degenerate gesture appended")
			}
			if m.Log().Len() != 0 {
				t.Fatalf("log len = %d", m.Log().Len())
			}
			if m.State() != Idle {
				t.Fatalf("state = %s", m.State())
			}
		})
	}
}

func TestPencilRecordsPoints(t *testing.T) {
	m := NewMachine(DefaultDefaults())
	op, ok := drag(t, m, ToolPencil, geom.Pt(0, 0), geom.Pt(1, 1), geom.Pt(1, 1), geom.Pt(4, 2), geom.Pt(9, 9))
	if !ok {
		t.Fatalf("pencil discarded")
	}
	line := op.(oplog.Line)
	if len(line.Points) != 4 {
		t.Fatalf("points = %v", line.Points)
	}
}

func TestPreviewNeverTouchesLog(t *testing.T) {
	m := NewMachine(DefaultDefaults())
	if err := m.PointerDown(ToolEllipse, geom.Pt(0, 0)); err != nil {
		t.Fatal(err)
	}
	m.PointerMove(geom.Pt(20, 20))
	p, ok := m.Preview()
	if !ok {
		t.Fatalf("no preview")
	}
	if e := p.(oplog.Ellipse); e.Bounds != geom.R(0, 0, 20, 20) {
		t.Fatalf("preview = %v", e.Bounds)
	}
	if m.Log().Len() != 0 {
		t.Fatalf("preview leaked into log")
	}
	m.Cancel()
	if _, ok := m.Preview(); ok || m.State() != Idle {
		t.Fatalf("cancel did not reset")
	}
	if m.Log().Len() != 0 {
		t.Fatalf("cancel appended")
	}
}

func TestPointerDownWhileDrafting(t *testing.T) {
	m := NewMachine(DefaultDefaults())
	if err := m.PointerDown(ToolRectangle, geom.Pt(0, 0)); err != nil {
		t.Fatal(err)
	}
	if err := m.PointerDown(ToolRectangle, geom.Pt(1, 1)); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
}

func TestTextWithSyncPrompt(t *testing.T) {
	var asked geom.Point
	m := NewMachine(DefaultDefaults(), WithTextPrompt(func(p geom.Point) (string, bool) {
		asked = p
		return "hello\nworld", true
	}))
	if err := m.PointerDown(ToolText, geom.Pt(12, 34)); err != nil {
		t.Fatal(err)
	}
	if asked != geom.Pt(12, 34) {
		t.Fatalf("prompt anchor = %v", asked)
	}
	if m.State() != Idle || m.Log().Len() != 1 {
		t.Fatalf("state=%s len=%d", m.State(), m.Log().Len())
	}
	txt := m.Log().At(0).(oplog.Text)
	if txt.Content != "hello\nworld" || txt.FontSize != DefaultDefaults().FontSize {
		t.Fatalf("text = %#v", txt)
	}
}

func TestTextAsyncSubmitAndCancel(t *testing.T) {
	m := NewMachine(DefaultDefaults())
	if err := m.PointerDown(ToolText, geom.Pt(1, 2)); err != nil {
		t.Fatal(err)
	}
	if m.State() != AwaitingText {
		t.Fatalf("state = %s", m.State())
	}
	if _, ok := m.SubmitText("   "); ok {
		t.Fatalf("blank text appended")
	}
	if err := m.PointerDown(ToolText, geom.Pt(1, 2)); err != nil {
		t.Fatal(err)
	}
	m.Cancel()
	if _, ok := m.SubmitText("late"); ok {
		t.Fatalf("submit after cancel appended")
	}
	if err := m.PointerDown(ToolText, geom.Pt(1, 2)); err != nil {
		t.Fatal(err)
	}
	if _, ok := m.SubmitText("note"); !ok {
		t.Fatalf("text discarded")
	}
	if m.Log().Len() != 1 {
		t.Fatalf("len = %d", m.Log().Len())
	}
}

func TestUndoRedoAndTruncate(t *testing.T) {
	m := NewMachine(DefaultDefaults())
	for i := 0; i < 3; i++ {
		x := float64(i * 10)
		if _, ok := drag(t, m, ToolRectangle, geom.Pt(x, 0), geom.Pt(x+5, 5)); !ok {
			t.Fatalf("rect %d discarded", i)
		}
	}
	m.Undo()
	m.Undo()
	if m.Log().Cursor() != 1 || m.Log().Len() != 3 {
		t.Fatalf("cursor=%d len=%d", m.Log().Cursor(), m.Log().Len())
	}
	if _, ok := drag(t, m, ToolArrow, geom.Pt(0, 0), geom.Pt(30, 30)); !ok {
		t.Fatalf("arrow discarded")
	}
	if m.Log().Len() != 2 || m.Log().Cursor() != 2 {
		t.Fatalf("cursor=%d len=%d", m.Log().Cursor(), m.Log().Len())
	}
	if m.Redo() {
		t.Fatalf("redo after append should be a no-op")
	}
}

func TestSecondCropRefused(t *testing.T) {
	m := NewMachine(DefaultDefaults())
	if _, ok := drag(t, m, ToolCrop, geom.Pt(0, 0), geom.Pt(10, 10)); !ok {
		t.Fatalf("crop discarded")
	}
	if err := m.PointerDown(ToolCrop, geom.Pt(1, 1)); !errors.Is(err, ErrCropExists) {
		t.Fatalf("expected ErrCropExists, got %v", err)
	}
	if m.State() != Idle {
		t.Fatalf("state = %s", m.State())
	}
	m.Undo()
	if _, ok := drag(t, m, ToolCrop, geom.Pt(0, 0), geom.Pt(20, 20)); !ok {
		t.Fatalf("crop after undo discarded")
	}
}

func TestBoundsClampGestures(t *testing.T) {
	m := NewMachine(DefaultDefaults(), WithBounds(geom.R(0, 0, 100, 100)))
	op, ok := drag(t, m, ToolRectangle, geom.Pt(50, 50), geom.Pt(300, -40))
	if !ok {
		t.Fatalf("discarded")
	}
	if got := op.(oplog.Rectangle).Bounds; got != geom.R(50, 0, 50, 50) {
		t.Fatalf("bounds = %v", got)
	}
}

func TestDefaultsFlowThrough(t *testing.T) {
	d := DefaultDefaults()
	d.Tool = ToolEllipse
	m := NewMachine(d)
	m.SetColor(geom.RGBA(0, 0, 255, 255))
	m.SetWidth(6)
	m.SetFill(true)
	op, ok := drag(t, m, ToolEllipse, geom.Pt(0, 0), geom.Pt(10, 10))
	if !ok {
		t.Fatalf("discarded")
	}
	e := op.(oplog.Ellipse)
	if !e.Filled || e.Style.Width != 6 || e.Style.Color != geom.RGBA(0, 0, 255, 255) {
		t.Fatalf("ellipse = %#v", e)
	}
	out := m.Defaults()
	if out.Width != 6 || !out.Fill || out.Tool != ToolEllipse {
		t.Fatalf("defaults = %#v", out)
	}
}

func TestChangeStyle(t *testing.T) {
	m := NewMachine(DefaultDefaults())
	drag(t, m, ToolRectangle, geom.Pt(0, 0), geom.Pt(10, 10))
	style := geom.Stroke(geom.Black, 8)
	if err := m.ChangeStyle(0, style); err != nil {
		t.Fatalf("ChangeStyle: %v", err)
	}
	if m.Log().At(0).(oplog.Rectangle).Style != style {
		t.Fatalf("style not replaced")
	}
	m.Undo()
	if err := m.ChangeStyle(0, style); !errors.Is(err, oplog.ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
}

func TestParseToolAndCyclers(t *testing.T) {
	for _, tl := range Tools() {
		got, err := ParseTool(tl.String())
		if err != nil || got != tl {
			t.Fatalf("ParseTool(%s) = %v, %v", tl, got, err)
		}
	}
	if NextWidth(8) != 1 || NextWidth(2) != 4 {
		t.Fatalf("width cycler wrong")
	}
	if NextColor(geom.RGBA(128, 128, 128, 255)) != palette[0].Color {
		t.Fatalf("color cycler did not wrap")
	}
	if c, ok := PaletteColor("red"); !ok || c != geom.Red {
		t.Fatalf("PaletteColor(red) = %v %v", c, ok)
	}
}
