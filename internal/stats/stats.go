// Package stats summarizes the intensity distribution of an image and decides
// whether an image is blank.
package stats

import (
	"math"

	"github.com/book-expert/logger"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/book-expert/image-pipeline-service/internal/raster"
)

const (
	percentToRatio = 100.0
	maxColorValue  = float64(raster.MaxIntensity)
)

// Summary describes the gray levels of an image.
type Summary struct {
	Mean       float64
	StdDev     float64
	Min        float64
	Max        float64
	BlackRatio float64
	WhiteRatio float64
	Pixels     int
}

// Luma computes a Summary over the perceptual intensity of every pixel. An
// empty buffer yields the zero Summary.
func Luma(buf *raster.Buffer) Summary {
	if buf.Empty() {
		return Summary{}
	}

	samples := make([]float64, 0, buf.Width()*buf.Height())
	black, white := 0, 0

	visitPixels(buf, func(c raster.Color) {
		gray := c.Gray()
		samples = append(samples, float64(gray))

		switch gray {
		case 0:
			black++
		case raster.MaxIntensity:
			white++
		}
	})

	mean, stdDev := stat.MeanStdDev(samples, nil)
	if math.IsNaN(stdDev) {
		// Single-pixel images have no sample variance.
		stdDev = 0
	}

	total := float64(len(samples))

	return Summary{
		Mean:       mean,
		StdDev:     stdDev,
		Min:        floats.Min(samples),
		Max:        floats.Max(samples),
		BlackRatio: float64(black) / total,
		WhiteRatio: float64(white) / total,
		Pixels:     len(samples),
	}
}

// NonWhiteRatio returns the fraction of pixels with any channel below
// (1 - fuzz) * 255. fuzz is a tolerance in 0..1.
func NonWhiteRatio(buf *raster.Buffer, fuzz float64) float64 {
	if buf.Empty() {
		return 0
	}

	whiteThreshold := uint8((1.0 - fuzz) * maxColorValue)
	nonWhite := 0

	visitPixels(buf, func(c raster.Color) {
		if isNonWhite(c, whiteThreshold) {
			nonWhite++
		}
	})

	return float64(nonWhite) / float64(buf.Width()*buf.Height())
}

// IsBlank reports whether fewer than threshold of the pixels are non-white,
// tolerating fuzzPercent percent deviation from pure white.
func IsBlank(buf *raster.Buffer, fuzzPercent int, threshold float64) bool {
	return NonWhiteRatio(buf, float64(fuzzPercent)/percentToRatio) < threshold
}

// Logger returns a subscriber that logs a Summary of every published image.
func Logger(log *logger.Logger, label string) func(*raster.Buffer) {
	return func(buf *raster.Buffer) {
		s := Luma(buf)
		log.Info(
			"[%s] %dx%d mean=%.1f stddev=%.1f range=%.0f..%.0f black=%.3f white=%.3f",
			label,
			buf.Width(),
			buf.Height(),
			s.Mean,
			s.StdDev,
			s.Min,
			s.Max,
			s.BlackRatio,
			s.WhiteRatio,
		)
	}
}

func visitPixels(buf *raster.Buffer, visitor func(c raster.Color)) {
	for y := range buf.Height() {
		for x := range buf.Width() {
			visitor(buf.Pixel(x, y))
		}
	}
}

func isNonWhite(c raster.Color, whiteThreshold uint8) bool {
	return c.R < whiteThreshold || c.G < whiteThreshold || c.B < whiteThreshold
}
