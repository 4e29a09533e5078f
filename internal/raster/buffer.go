package raster

import (
	"image"
	"image/color"
	"image/draw"
)

const bytesPerPixel = 4

// Buffer is a dense width x height grid of colors stored as non-premultiplied
// RGBA bytes, 4 per pixel, row-major.
type Buffer struct {
	width  int
	height int
	pix    []uint8
}

// NewBuffer allocates a buffer of the given size filled with transparent black.
// Negative dimensions are treated as zero.
func NewBuffer(width, height int) *Buffer {
	width = max(width, 0)
	height = max(height, 0)

	return &Buffer{
		width:  width,
		height: height,
		pix:    make([]uint8, width*height*bytesPerPixel),
	}
}

// Filled allocates a buffer with every pixel set to c.
func Filled(width, height int, c Color) *Buffer {
	buf := NewBuffer(width, height)
	for i := 0; i < len(buf.pix); i += bytesPerPixel {
		buf.pix[i+0] = c.R
		buf.pix[i+1] = c.G
		buf.pix[i+2] = c.B
		buf.pix[i+3] = c.A
	}

	return buf
}

// Width returns the number of columns.
func (b *Buffer) Width() int { return b.width }

// Height returns the number of rows.
func (b *Buffer) Height() int { return b.height }

// Empty reports whether the buffer has no pixels.
func (b *Buffer) Empty() bool { return b.width == 0 || b.height == 0 }

// At returns the color at (x, y). The coordinate must be in range.
func (b *Buffer) At(x, y int) color.Color {
	return b.Pixel(x, y)
}

// Pixel returns the color at (x, y). The coordinate must be in range.
func (b *Buffer) Pixel(x, y int) Color {
	i := b.offset(x, y)

	return Color{R: b.pix[i+0], G: b.pix[i+1], B: b.pix[i+2], A: b.pix[i+3]}
}

// Set stores c at (x, y). The coordinate must be in range.
func (b *Buffer) Set(x, y int, c Color) {
	i := b.offset(x, y)
	b.pix[i+0] = c.R
	b.pix[i+1] = c.G
	b.pix[i+2] = c.B
	b.pix[i+3] = c.A
}

// Clamped returns the color at (x, y) after clamping both coordinates into the
// buffer, replicating edge pixels for out-of-range reads.
func (b *Buffer) Clamped(x, y int) Color {
	return b.Pixel(clampIndex(x, b.width), clampIndex(y, b.height))
}

// Contains reports whether (x, y) addresses a pixel of the buffer.
func (b *Buffer) Contains(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

// SameSize reports whether both buffers have identical dimensions.
func (b *Buffer) SameSize(other *Buffer) bool {
	return b.width == other.width && b.height == other.height
}

// Equal reports whether both buffers have identical dimensions and pixels.
func (b *Buffer) Equal(other *Buffer) bool {
	if !b.SameSize(other) {
		return false
	}

	for i := range b.pix {
		if b.pix[i] != other.pix[i] {
			return false
		}
	}

	return true
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{
		width:  b.width,
		height: b.height,
		pix:    make([]uint8, len(b.pix)),
	}
	copy(out.pix, b.pix)

	return out
}

// CopyFrom makes b a pixel-identical copy of src, reusing b's storage when it
// is large enough.
func (b *Buffer) CopyFrom(src *Buffer) {
	b.resize(src.width, src.height)
	copy(b.pix, src.pix)
}

// resize changes the dimensions of b. Pixel contents are unspecified afterwards.
func (b *Buffer) resize(width, height int) {
	n := width * height * bytesPerPixel
	if cap(b.pix) < n {
		b.pix = make([]uint8, n)
	}

	b.pix = b.pix[:n]
	b.width = width
	b.height = height
}

// Bounds implements image.Image.
func (b *Buffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.width, b.height)
}

// ColorModel implements image.Image.
func (b *Buffer) ColorModel() color.Model {
	return color.NRGBAModel
}

// ToImage copies the buffer into a new image.NRGBA anchored at the origin.
func (b *Buffer) ToImage() *image.NRGBA {
	img := image.NewNRGBA(b.Bounds())
	copy(img.Pix, b.pix)

	return img
}

// FromImage converts any image into a buffer anchored at the origin.
func FromImage(img image.Image) *Buffer {
	bounds := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)

	// A freshly allocated NRGBA has Stride == 4*width, so rows are contiguous.
	return &Buffer{
		width:  bounds.Dx(),
		height: bounds.Dy(),
		pix:    nrgba.Pix,
	}
}

func (b *Buffer) offset(x, y int) int {
	return (y*b.width + x) * bytesPerPixel
}

func clampIndex(v, size int) int {
	return max(0, min(size-1, v))
}
