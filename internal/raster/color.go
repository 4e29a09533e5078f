// Package raster provides the owned pixel buffer the pipeline operates on and
// the per-pixel mapping primitive every other operation is built from.
package raster

import "image/color"

const (
	// MaxIntensity is the largest value a single channel can hold.
	MaxIntensity = 255

	grayWeightRed   = 11
	grayWeightGreen = 16
	grayWeightBlue  = 5
	grayWeightShift = 5 // weights sum to 32

	alphaShift = 24
	redShift   = 16
	greenShift = 8
	byteMask   = 0xff
)

// Color is a non-premultiplied 8-bit RGBA value.
type Color struct {
	R uint8
	G uint8
	B uint8
	A uint8
}

var (
	// Black is opaque black.
	Black = Color{R: 0, G: 0, B: 0, A: MaxIntensity}
	// White is opaque white.
	White = Color{R: MaxIntensity, G: MaxIntensity, B: MaxIntensity, A: MaxIntensity}
)

// Pack returns the color as a single 0xAARRGGBB word.
func (c Color) Pack() uint32 {
	return uint32(c.A)<<alphaShift |
		uint32(c.R)<<redShift |
		uint32(c.G)<<greenShift |
		uint32(c.B)
}

// Unpack is the inverse of Color.Pack.
func Unpack(v uint32) Color {
	return Color{
		R: uint8(v >> redShift & byteMask),
		G: uint8(v >> greenShift & byteMask),
		B: uint8(v & byteMask),
		A: uint8(v >> alphaShift & byteMask),
	}
}

// Gray returns the perceptual intensity of the color using integer weights
// 11:16:5 over 32. A color whose channels are already equal maps to itself.
func (c Color) Gray() uint8 {
	sum := grayWeightRed*int(c.R) + grayWeightGreen*int(c.G) + grayWeightBlue*int(c.B)

	return uint8(sum >> grayWeightShift)
}

// WithGray returns a color with all three channels set to v and the alpha of c.
func (c Color) WithGray(v uint8) Color {
	return Color{R: v, G: v, B: v, A: c.A}
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}.RGBA()
}

// ClampChannel limits v to the 0..255 range of a channel.
func ClampChannel(v int) uint8 {
	if v < 0 {
		return 0
	}

	if v > MaxIntensity {
		return MaxIntensity
	}

	return uint8(v)
}
