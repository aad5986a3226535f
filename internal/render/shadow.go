package render

import (
	"image"
	"image/color"
	"image/draw"
)

// ShadowOptions configures the drop shadow added to exported images.
type ShadowOptions struct {
	Radius  int
	Offset  image.Point
	Opacity float64
}

// ShadowResult is the output of ApplyShadow.
type ShadowResult struct {
	Image *image.RGBA
	// Offset is where the original top-left corner landed in Image.
	Offset image.Point
}

// DefaultShadowOptions returns the shadow used by `save.shadow = true`.
func DefaultShadowOptions() ShadowOptions {
	return ShadowOptions{
		Radius:  24,
		Offset:  image.Pt(16, 16),
		Opacity: 0.55,
	}
}

// ApplyShadow places img on a larger transparent canvas above a blurred copy
// of its alpha channel. A non-positive opacity returns img unchanged.
func ApplyShadow(img *image.RGBA, opts ShadowOptions) ShadowResult {
	if img == nil || img.Bounds().Empty() || opts.Opacity <= 0 {
		return ShadowResult{Image: img}
	}
	opacity := min(opts.Opacity, 1)
	radius := max(opts.Radius, 0)

	src := img.Bounds()
	padded := src.Inset(-radius)
	shadow := padded.Add(opts.Offset)
	union := src.Union(shadow)

	alpha := image.NewGray(padded.Sub(padded.Min))
	for y := src.Min.Y; y < src.Max.Y; y++ {
		for x := src.Min.X; x < src.Max.X; x++ {
			alpha.Pix[alpha.PixOffset(x-padded.Min.X, y-padded.Min.Y)] = img.Pix[img.PixOffset(x, y)+3]
		}
	}
	boxBlur(alpha.Pix, alpha.Rect.Dx(), alpha.Rect.Dy(), alpha.Stride, 1, radius)

	dst := image.NewRGBA(union.Sub(union.Min))
	shade := image.NewUniform(color.NRGBA{A: uint8(opacity*255 + 0.5)})
	draw.DrawMask(dst, alpha.Rect.Add(shadow.Min.Sub(union.Min)), shade, image.Point{}, alpha, image.Point{}, draw.Over)
	draw.Draw(dst, src.Sub(union.Min), img, src.Min, draw.Over)
	return ShadowResult{Image: dst, Offset: src.Min.Sub(union.Min)}
}
