// Package filter implements the per-pixel functions the pipeline maps over an
// image: integer convolution, the 3x3 rank filter, thresholding and the point
// operations (grayscale, gamma).
package filter

import (
	"github.com/book-expert/image-pipeline-service/internal/kernel"
	"github.com/book-expert/image-pipeline-service/internal/raster"
)

const channels = 3

// Convolve returns a pixel function applying k to every color channel
// independently.
//
// Samples outside the image are clamped to the nearest edge pixel. Each
// channel sum is divided by max(weightSum, 1) with integer division, so
// kernels whose weights sum to zero or less are not normalized at all, and
// the result is clamped to 0..255. Alpha is copied from the centre pixel.
// A zero-value kernel with no cells copies the source pixel.
func Convolve(k kernel.Kernel) raster.PixelFunc {
	if k.Cols() == 0 || k.Rows() == 0 {
		return func(src *raster.Buffer, x, y int) raster.Color {
			return src.Pixel(x, y)
		}
	}

	halfCols := k.Cols() / 2
	halfRows := k.Rows() / 2

	return func(src *raster.Buffer, x, y int) raster.Color {
		var sums [channels]int

		factor := 0

		for ky := range k.Rows() {
			for kx := range k.Cols() {
				sample := src.Clamped(x+kx-halfCols, y+ky-halfRows)
				weight := k.Weight(kx, ky)

				sums[0] += int(sample.R) * weight
				sums[1] += int(sample.G) * weight
				sums[2] += int(sample.B) * weight
				factor += weight
			}
		}

		divisor := max(factor, 1)

		return raster.Color{
			R: raster.ClampChannel(sums[0] / divisor),
			G: raster.ClampChannel(sums[1] / divisor),
			B: raster.ClampChannel(sums[2] / divisor),
			A: src.Pixel(x, y).A,
		}
	}
}
