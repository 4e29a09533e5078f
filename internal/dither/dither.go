// Package dither converts a grayscale image into a strictly black and white
// halftone using error diffusion, Floyd-Steinberg, ordered or block pattern
// dithering.
package dither

import (
	"errors"
	"fmt"
	"strings"

	"github.com/book-expert/image-pipeline-service/internal/raster"
)

// ErrUnknownMode is returned for a Mode outside the defined set.
var ErrUnknownMode = errors.New("unknown dithering mode")

const (
	threshold    = 128
	maxIntensity = raster.MaxIntensity
)

// Mode selects the halftoning algorithm.
type Mode int

const (
	// ErrorDiffusion carries a single running error along a serpentine scan.
	ErrorDiffusion Mode = iota + 1
	// FloydSteinberg spreads the error to four unvisited neighbours.
	FloydSteinberg
	// Pattern applies the ordered matrix once per 4x4 block.
	Pattern
	// Ordered compares every pixel against the tiled 4x4 matrix.
	Ordered
)

var modeNames = map[Mode]string{
	ErrorDiffusion: "error-diffusion",
	FloydSteinberg: "floyd-steinberg",
	Pattern:        "pattern",
	Ordered:        "ordered",
}

// String returns the mode's command line name.
func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}

	return fmt.Sprintf("Mode(%d)", int(m))
}

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	_, ok := modeNames[m]

	return ok
}

// Modes lists all modes in declaration order.
func Modes() []Mode {
	return []Mode{ErrorDiffusion, FloydSteinberg, Pattern, Ordered}
}

// ParseMode resolves a mode name case-insensitively. Underscores are accepted
// in place of dashes.
func ParseMode(name string) (Mode, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	for mode, modeName := range modeNames {
		if modeName == normalized {
			return mode, nil
		}
	}

	return 0, fmt.Errorf("%q: %w", name, ErrUnknownMode)
}

// Render writes the halftone of gray into dst, resizing dst to match. gray
// must already be reduced to equal channels; only its red channel is read.
// FloydSteinberg diffuses its error into gray itself, so gray is modified.
// Alpha is carried over unchanged.
func Render(dst, gray *raster.Buffer, mode Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("render: %w", ErrUnknownMode)
	}

	dst.CopyFrom(gray)

	if gray.Empty() {
		return nil
	}

	switch mode {
	case ErrorDiffusion:
		serpentine(dst, gray)
	case FloydSteinberg:
		floydSteinberg(dst, gray)
	case Ordered:
		ordered(dst, gray)
	case Pattern:
		pattern(dst, gray)
	}

	return nil
}

// quantize maps an intensity to black or white.
func quantize(value int) int {
	if value < threshold {
		return 0
	}

	return maxIntensity
}

// put stores a binary level at (x, y) keeping the alpha already present in dst.
func put(dst *raster.Buffer, x, y, level int) {
	c := dst.Pixel(x, y)
	dst.Set(x, y, c.WithGray(uint8(level)))
}
