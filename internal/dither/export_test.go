package dither

import "github.com/book-expert/image-pipeline-service/internal/raster"

// Exported test-only accessors for unexported functions.

// DiffuseForTest exposes the Floyd-Steinberg diffusion step.
func DiffuseForTest(gray *raster.Buffer, x, y, err int) { diffuse(gray, x, y, err) }

// PatternNumberForTest exposes the intensity to pattern number mapping.
func PatternNumberForTest(intensity float64) int { return patternNumber(intensity) }

// MatrixCellForTest returns the order matrix entry at column x, row y.
func MatrixCellForTest(x, y int) int { return orderMatrix[y][x] }
