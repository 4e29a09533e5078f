package dither

import "github.com/book-expert/image-pipeline-service/internal/raster"

const (
	matrixSize = 4
	// patternLevels is the number of distinct pattern numbers above zero.
	patternLevels = matrixSize * matrixSize
)

// orderMatrix is the 4x4 index matrix shared by the ordered and pattern
// dithers, indexed [y][x].
var orderMatrix = [matrixSize][matrixSize]int{
	{1, 9, 3, 11},
	{13, 5, 15, 7},
	{4, 12, 2, 10},
	{16, 8, 14, 6},
}

// patternNumber maps a normalized intensity in [0, 1] to 0..16.
func patternNumber(intensity float64) int {
	return min(int(intensity*(patternLevels+1)), patternLevels)
}

// level returns the output for pattern number p at matrix cell (mx, my).
func level(p, mx, my int) int {
	if p < orderMatrix[my][mx] {
		return 0
	}

	return maxIntensity
}

func ordered(dst, gray *raster.Buffer) {
	for y := range gray.Height() {
		for x := range gray.Width() {
			intensity := float64(gray.Pixel(x, y).R) / maxIntensity
			p := patternNumber(intensity)
			put(dst, x, y, level(p, x%matrixSize, y%matrixSize))
		}
	}
}

// pattern derives one pattern number per 4x4 block from the block's mean
// intensity.
func pattern(dst, gray *raster.Buffer) {
	for by := 0; by < gray.Height(); by += matrixSize {
		for bx := 0; bx < gray.Width(); bx += matrixSize {
			p := blockPatternNumber(gray, bx, by)

			for y := by; y < min(by+matrixSize, gray.Height()); y++ {
				for x := bx; x < min(bx+matrixSize, gray.Width()); x++ {
					put(dst, x, y, level(p, x-bx, y-by))
				}
			}
		}
	}
}

// blockPatternNumber averages the block over its full 4x4 area. Cells that
// fall outside the image contribute zero, so edge blocks come out darker.
func blockPatternNumber(gray *raster.Buffer, bx, by int) int {
	sum := 0

	for y := by; y < min(by+matrixSize, gray.Height()); y++ {
		for x := bx; x < min(bx+matrixSize, gray.Width()); x++ {
			sum += int(gray.Pixel(x, y).R)
		}
	}

	return patternNumber(float64(sum) / float64(patternLevels*maxIntensity))
}
