package overlay

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/example/markshot/internal/geom"
	"github.com/example/markshot/internal/theme"
)

const statusHeight = 20

// scene is everything one overlay frame shows. Rectangles are in screen
// space; Origin is the screen position of the window's top-left pixel.
type scene struct {
	Frozen    *image.RGBA
	Origin    image.Point
	Selection geom.Rect
	// Canvas is the rendered annotation layer scaled into Selection. It is
	// nil while the user is still selecting.
	Canvas  *image.RGBA
	Crop    geom.Rect
	HasCrop bool
	Theme   *theme.Theme
	Status  string
}

func (s scene) window(r geom.Rect) image.Rectangle {
	return r.Image().Sub(s.Origin)
}

func (s scene) draw(dst *image.RGBA) {
	th := s.Theme
	if th == nil {
		th = theme.Default()
	}
	bounds := dst.Bounds()
	draw.Draw(dst, bounds, &image.Uniform{th.Background}, image.Point{}, draw.Src)
	if s.Frozen != nil {
		draw.Draw(dst, bounds, s.Frozen, s.Frozen.Bounds().Min, draw.Src)
	}
	draw.Draw(dst, bounds, &image.Uniform{th.Scrim}, image.Point{}, draw.Over)

	sel := s.window(s.Selection)
	if !sel.Empty() {
		switch {
		case s.Canvas != nil:
			xdraw.NearestNeighbor.Scale(dst, sel, s.Canvas, s.Canvas.Bounds(), draw.Src, nil)
		case s.Frozen != nil:
			draw.Draw(dst, sel, s.Frozen, sel.Min.Add(s.Frozen.Bounds().Min), draw.Src)
		}
		drawRect(dst, sel.Inset(-1), th.SelectionBorder)
	}
	if s.HasCrop {
		drawDashedRect(dst, s.window(s.Crop), 4, color.White, color.Black)
	}
	if s.Status != "" {
		drawStatus(dst, s.Status, th)
	}
}

func drawStatus(dst *image.RGBA, msg string, th *theme.Theme) {
	b := dst.Bounds()
	bar := image.Rect(b.Min.X, b.Max.Y-statusHeight, b.Max.X, b.Max.Y)
	draw.Draw(dst, bar, &image.Uniform{th.ToolbarBackground}, image.Point{}, draw.Over)
	d := &font.Drawer{Dst: dst, Src: &image.Uniform{th.Foreground}, Face: basicfont.Face7x13,
		Dot: fixed.P(bar.Min.X+6, bar.Max.Y-5)}
	d.DrawString(msg)
}

func drawRect(dst *image.RGBA, r image.Rectangle, c color.Color) {
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		dst.Set(x, r.Min.Y, c)
		dst.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		dst.Set(r.Min.X, y, c)
		dst.Set(r.Max.X-1, y, c)
	}
}

// drawDashedRect outlines r with alternating dashes of c1 and c2.
func drawDashedRect(dst *image.RGBA, r image.Rectangle, dash int, c1, c2 color.Color) {
	if r.Empty() {
		return
	}
	pick := func(i int) color.Color {
		if (i/dash)%2 == 0 {
			return c1
		}
		return c2
	}
	for i, x := 0, r.Min.X; x < r.Max.X; i, x = i+1, x+1 {
		dst.Set(x, r.Min.Y, pick(i))
		dst.Set(x, r.Max.Y-1, pick(i))
	}
	for i, y := 0, r.Min.Y; y < r.Max.Y; i, y = i+1, y+1 {
		dst.Set(r.Min.X, y, pick(i))
		dst.Set(r.Max.X-1, y, pick(i))
	}
}
