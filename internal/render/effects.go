package render

import (
	"image"
)

// HighlightFactor scales the colour channels of pixels outside a Highlight.
const HighlightFactor = 0.5

var highlightLUT = func() (lut [256]uint8) {
	for i := range lut {
		lut[i] = uint8(float64(i) * HighlightFactor)
	}
	return lut
}()

// boxBlur runs a separable box blur over an interleaved 8-bit buffer with
// channels values per pixel. Each output value is the rounded mean of the
// (2*radius+1) window along each axis; windows shrink at the edges.
func boxBlur(pix []uint8, w, h, stride, channels, radius int) {
	if radius <= 0 || w <= 0 || h <= 0 {
		return
	}
	tmp := make([]uint8, w*h*channels)
	prefix := make([]int, max(w, h)+1)

	for y := 0; y < h; y++ {
		row := y * stride
		for ch := 0; ch < channels; ch++ {
			for x := 0; x < w; x++ {
				prefix[x+1] = prefix[x] + int(pix[row+x*channels+ch])
			}
			for x := 0; x < w; x++ {
				x0 := max(x-radius, 0)
				x1 := min(x+radius, w-1)
				n := x1 - x0 + 1
				tmp[(y*w+x)*channels+ch] = uint8((prefix[x1+1] - prefix[x0] + n/2) / n)
			}
		}
	}

	for x := 0; x < w; x++ {
		for ch := 0; ch < channels; ch++ {
			for y := 0; y < h; y++ {
				prefix[y+1] = prefix[y] + int(tmp[(y*w+x)*channels+ch])
			}
			for y := 0; y < h; y++ {
				y0 := max(y-radius, 0)
				y1 := min(y+radius, h-1)
				n := y1 - y0 + 1
				pix[y*stride+x*channels+ch] = uint8((prefix[y1+1] - prefix[y0] + n/2) / n)
			}
		}
	}
}

// blurRegion blurs the pixels of dst inside r, reading dst's current state.
func blurRegion(dst *image.RGBA, r image.Rectangle, radius int) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() || radius <= 0 {
		return
	}
	sub := dst.SubImage(r).(*image.RGBA)
	boxBlur(sub.Pix, r.Dx(), r.Dy(), sub.Stride, 4, radius)
}

// pixelateRegion replaces each block x block cell of r with its average.
// Cells are aligned to r's top-left corner; edge cells are clipped.
func pixelateRegion(dst *image.RGBA, r image.Rectangle, block int) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() || block <= 1 {
		return
	}
	for by := r.Min.Y; by < r.Max.Y; by += block {
		for bx := r.Min.X; bx < r.Max.X; bx += block {
			cell := image.Rect(bx, by, bx+block, by+block).Intersect(r)
			var sum [4]int
			for y := cell.Min.Y; y < cell.Max.Y; y++ {
				off := dst.PixOffset(cell.Min.X, y)
				for x := 0; x < cell.Dx(); x++ {
					for ch := 0; ch < 4; ch++ {
						sum[ch] += int(dst.Pix[off+x*4+ch])
					}
				}
			}
			n := cell.Dx() * cell.Dy()
			var avg [4]uint8
			for ch := range avg {
				avg[ch] = uint8((sum[ch] + n/2) / n)
			}
			for y := cell.Min.Y; y < cell.Max.Y; y++ {
				off := dst.PixOffset(cell.Min.X, y)
				for x := 0; x < cell.Dx(); x++ {
					copy(dst.Pix[off+x*4:off+x*4+4], avg[:])
				}
			}
		}
	}
}

// highlightOutside darkens every pixel of dst outside keep. Pixels are
// premultiplied, so scaling the colour channels darkens without touching
// alpha.
func highlightOutside(dst *image.RGBA, keep image.Rectangle) {
	b := dst.Bounds()
	keep = keep.Intersect(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := dst.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			if !image.Pt(x, y).In(keep) {
				p := dst.Pix[off : off+3 : off+3]
				p[0] = highlightLUT[p[0]]
				p[1] = highlightLUT[p[1]]
				p[2] = highlightLUT[p[2]]
			}
			off += 4
		}
	}
}

// crop copies r out of src into a zero-based image. Parts of r outside src
// are dropped.
func crop(src *image.RGBA, r image.Rectangle) *image.RGBA {
	r = r.Intersect(src.Bounds())
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		s := src.PixOffset(r.Min.X, r.Min.Y+y)
		copy(out.Pix[y*out.Stride:y*out.Stride+r.Dx()*4], src.Pix[s:s+r.Dx()*4])
	}
	return out
}
