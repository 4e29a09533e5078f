package raster

// PixelFunc computes the output color for (x, y) from the source buffer. It
// must not write to src and must not depend on the order coordinates are
// visited in.
type PixelFunc func(src *Buffer, x, y int) Color

// Map evaluates fn at every coordinate of src and stores the results in dst,
// which is resized to match src. src is only read, so fn always observes the
// unmodified pre-image even when it samples a neighbourhood.
//
// dst should be a different buffer from src. When both are the same buffer
// the pass reads from a temporary copy of src, costing one allocation.
func Map(dst, src *Buffer, fn PixelFunc) {
	if dst == src {
		src = src.Clone()
	}

	dst.resize(src.width, src.height)

	if src.Empty() {
		return
	}

	for y := range src.height {
		for x := range src.width {
			dst.Set(x, y, fn(src, x, y))
		}
	}
}
