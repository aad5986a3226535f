package render

import (
	"fmt"
	"image"
	"math"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/example/markshot/internal/geom"
)

// DefaultFontSize is used for text with no usable size.
const DefaultFontSize = 16

// MaxFontSize caps text size. Drawn text is also limited to the canvas
// height.
const MaxFontSize = 1024

// textReach is how far outside the canvas a text anchor may sit and still
// be drawn; fixed.Int26_6 covers about ±2^25 pixels.
const textReach = 1 << 24

// maxCachedFaces bounds the face cache; a full cache is emptied.
const maxCachedFaces = 32

var (
	fontOnce sync.Once
	fontErr  error
	regular  *opentype.Font

	// textMu guards faces. opentype faces keep per-face scratch buffers, so
	// glyph rasterisation is serialised under it too.
	textMu sync.Mutex
	faces  = map[float64]font.Face{}
)

func loadFont() (*opentype.Font, error) {
	fontOnce.Do(func() {
		regular, fontErr = opentype.Parse(goregular.TTF)
	})
	return regular, fontErr
}

// clampFontSize replaces unusable sizes with DefaultFontSize and caps the
// rest at limit, which is never below DefaultFontSize.
func clampFontSize(size, limit float64) float64 {
	if size <= 0 || math.IsNaN(size) {
		size = DefaultFontSize
	}
	limit = math.Max(math.Min(limit, MaxFontSize), DefaultFontSize)
	return math.Min(size, limit)
}

// faceForSize must be called with textMu held.
func faceForSize(size float64) (font.Face, error) {
	if face, ok := faces[size]; ok {
		return face, nil
	}
	f, err := loadFont()
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("font face %.1f: %w", size, err)
	}
	if len(faces) >= maxCachedFaces {
		clear(faces)
	}
	faces[size] = face
	return face, nil
}

// MeasureText returns the size of content rendered at size, honouring line
// breaks.
func MeasureText(content string, size float64) (width, height int, err error) {
	textMu.Lock()
	defer textMu.Unlock()
	face, err := faceForSize(clampFontSize(size, MaxFontSize))
	if err != nil {
		return 0, 0, err
	}
	lines := strings.Split(content, "\n")
	d := &font.Drawer{Face: face}
	for _, line := range lines {
		width = max(width, d.MeasureString(line).Ceil())
	}
	m := face.Metrics()
	height = len(lines)*m.Height.Ceil() - m.Height.Ceil() + m.Ascent.Ceil() + m.Descent.Ceil()
	return width, height, nil
}

// drawText renders content with the top-left of its first line at anchor.
// Lines advance by the face's line height; nothing wraps.
func drawText(dst *image.RGBA, anchor geom.Point, content string, col geom.Color, size float64) error {
	textMu.Lock()
	defer textMu.Unlock()
	face, err := faceForSize(clampFontSize(size, float64(dst.Bounds().Dy())))
	if err != nil {
		return err
	}
	origin := pixelCentre(anchor)
	if !origin.In(dst.Bounds().Inset(-textReach)) {
		return nil
	}
	m := face.Metrics()
	baseline := origin.Y + m.Ascent.Ceil()
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col.NRGBA()),
		Face: face,
	}
	for _, line := range strings.Split(content, "\n") {
		d.Dot = fixed.P(origin.X, baseline)
		d.DrawString(line)
		baseline += m.Height.Ceil()
	}
	return nil
}
