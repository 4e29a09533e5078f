package filter

import (
	"math"

	"github.com/book-expert/image-pipeline-service/internal/raster"
)

const (
	// ThresholdLevel separates black from white in Threshold and the dithers.
	ThresholdLevel = 128

	// MinGamma is the smallest gamma accepted; lower values are raised to it.
	MinGamma = 0.01

	levels = raster.MaxIntensity + 1
)

// Grayscale replaces the color channels with the perceptual intensity of the
// pixel. Applying it twice gives the same result as applying it once.
func Grayscale(src *raster.Buffer, x, y int) raster.Color {
	c := src.Pixel(x, y)

	return c.WithGray(c.Gray())
}

// Threshold outputs black when the pixel intensity is below ThresholdLevel and
// white otherwise, keeping alpha.
func Threshold(src *raster.Buffer, x, y int) raster.Color {
	c := src.Pixel(x, y)
	if c.Gray() < ThresholdLevel {
		return c.WithGray(0)
	}

	return c.WithGray(raster.MaxIntensity)
}

// Gamma returns a pixel function mapping every channel through
// 255 * (v/255)^(1/gamma). Values above one brighten mid tones.
func Gamma(gamma float64) raster.PixelFunc {
	table := gammaTable(gamma)

	return func(src *raster.Buffer, x, y int) raster.Color {
		c := src.Pixel(x, y)

		return raster.Color{R: table[c.R], G: table[c.G], B: table[c.B], A: c.A}
	}
}

func gammaTable(gamma float64) [levels]uint8 {
	if math.IsNaN(gamma) || gamma < MinGamma {
		gamma = MinGamma
	}

	var table [levels]uint8

	exponent := 1 / gamma
	for v := range levels {
		normalized := float64(v) / raster.MaxIntensity
		table[v] = raster.ClampChannel(int(math.Round(raster.MaxIntensity * math.Pow(normalized, exponent))))
	}

	return table
}
