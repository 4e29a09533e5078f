package filter

import (
	"slices"

	"github.com/book-expert/image-pipeline-service/internal/raster"
)

const (
	rankWindow = 3
	rankSize   = rankWindow * rankWindow

	// RankIndex is the sorted position the rank filter outputs: the sixth
	// smallest of nine, one above the median.
	RankIndex = 5
)

// Rank is the 3x3 order-statistic filter. It gathers the clamped
// neighbourhood as packed 0xAARRGGBB words, sorts them ascending and returns
// the word at RankIndex.
func Rank(src *raster.Buffer, x, y int) raster.Color {
	var window [rankSize]uint32

	for wy := range rankWindow {
		for wx := range rankWindow {
			window[wx+wy*rankWindow] = src.Clamped(x+wx-1, y+wy-1).Pack()
		}
	}

	return raster.Unpack(SelectRank(window[:]))
}

// SelectRank sorts values in place and returns the element at RankIndex.
// values must hold exactly nine elements.
func SelectRank(values []uint32) uint32 {
	slices.Sort(values)

	return values[RankIndex]
}
