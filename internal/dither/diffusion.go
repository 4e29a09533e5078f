package dither

import "github.com/book-expert/image-pipeline-service/internal/raster"

// Floyd-Steinberg weights, in sixteenths.
const (
	weightEast      = 7
	weightSouthWest = 3
	weightSouth     = 5
	weightSouthEast = 1
	weightDivisor   = 16
)

// serpentine scans even rows left to right and odd rows right to left,
// carrying one scalar error from each visited pixel to the next, including
// across row ends.
func serpentine(dst, gray *raster.Buffer) {
	width := gray.Width()
	carried := 0

	for y := range gray.Height() {
		for i := range width {
			x := i
			if y%2 == 1 {
				x = width - 1 - i
			}

			value := int(gray.Pixel(x, y).R) + carried
			out := quantize(value)
			carried = value - out

			put(dst, x, y, out)
		}
	}
}

// floydSteinberg scans in raster order and adds each pixel's quantization
// error directly into the unvisited pixels of gray. The order is significant:
// a pixel must receive all diffusion from earlier pixels before it is read.
func floydSteinberg(dst, gray *raster.Buffer) {
	for y := range gray.Height() {
		for x := range gray.Width() {
			value := int(gray.Pixel(x, y).R)
			out := quantize(value)
			put(dst, x, y, out)
			diffuse(gray, x, y, value-out)
		}
	}
}

// diffuse spreads err from (x, y) to the east, south-west, south and
// south-east neighbours. Targets outside the image are dropped.
func diffuse(gray *raster.Buffer, x, y, err int) {
	addError(gray, x+1, y, err*weightEast/weightDivisor)
	addError(gray, x-1, y+1, err*weightSouthWest/weightDivisor)
	addError(gray, x, y+1, err*weightSouth/weightDivisor)
	addError(gray, x+1, y+1, err*weightSouthEast/weightDivisor)
}

func addError(gray *raster.Buffer, x, y, delta int) {
	if !gray.Contains(x, y) {
		return
	}

	c := gray.Pixel(x, y)
	gray.Set(x, y, c.WithGray(raster.ClampChannel(int(c.R)+delta)))
}
