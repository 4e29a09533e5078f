// Package kernel defines the odd-sized integer weight matrices used by the
// convolution filter, together with a catalog of common named kernels.
package kernel

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSize is returned when a kernel dimension is not positive.
	ErrInvalidSize = errors.New("kernel dimensions must be positive")
	// ErrEvenDimension is returned when a kernel has an even width or height.
	ErrEvenDimension = errors.New("kernel must have odd dimensions")
	// ErrWeightCount is returned when the weight list does not fill the matrix.
	ErrWeightCount = errors.New("kernel weight count does not match dimensions")
	// ErrRaggedRows is returned by FromRows when rows differ in length.
	ErrRaggedRows = errors.New("kernel rows must all have the same length")
)

// Kernel is an immutable cols x rows matrix of signed weights. Both
// dimensions are odd so the matrix has a well defined centre cell.
//
// Only kernels from New, FromRows or the catalog are valid. The zero value
// has no cells; Convolve treats it as the identity.
type Kernel struct {
	weights []int
	cols    int
	rows    int
}

// New builds a kernel from weights given in row-major order.
func New(cols, rows int, weights ...int) (Kernel, error) {
	if cols <= 0 || rows <= 0 {
		return Kernel{}, fmt.Errorf("%dx%d: %w", cols, rows, ErrInvalidSize)
	}

	if cols%2 == 0 || rows%2 == 0 {
		return Kernel{}, fmt.Errorf("%dx%d: %w", cols, rows, ErrEvenDimension)
	}

	if len(weights) != cols*rows {
		return Kernel{}, fmt.Errorf(
			"%dx%d needs %d weights, got %d: %w",
			cols,
			rows,
			cols*rows,
			len(weights),
			ErrWeightCount,
		)
	}

	owned := make([]int, len(weights))
	copy(owned, weights)

	return Kernel{weights: owned, cols: cols, rows: rows}, nil
}

// FromRows builds a kernel from a slice of equally long rows.
func FromRows(rows [][]int) (Kernel, error) {
	if len(rows) == 0 {
		return Kernel{}, fmt.Errorf("no rows: %w", ErrInvalidSize)
	}

	cols := len(rows[0])
	weights := make([]int, 0, cols*len(rows))

	for i, row := range rows {
		if len(row) != cols {
			return Kernel{}, fmt.Errorf(
				"row %d has %d weights, want %d: %w",
				i,
				len(row),
				cols,
				ErrRaggedRows,
			)
		}

		weights = append(weights, row...)
	}

	return New(cols, len(rows), weights...)
}

// MustNew is like New but panics on error. It is meant for static tables.
func MustNew(cols, rows int, weights ...int) Kernel {
	k, err := New(cols, rows, weights...)
	if err != nil {
		panic(err)
	}

	return k
}

// Cols returns the kernel width.
func (k Kernel) Cols() int { return k.cols }

// Rows returns the kernel height.
func (k Kernel) Rows() int { return k.rows }

// Weight returns the weight in column kx of row ky.
func (k Kernel) Weight(kx, ky int) int {
	return k.weights[ky*k.cols+kx]
}

// Sum returns the sum of all weights.
func (k Kernel) Sum() int {
	total := 0
	for _, w := range k.weights {
		total += w
	}

	return total
}

// String renders the kernel size, e.g. "3x3".
func (k Kernel) String() string {
	return fmt.Sprintf("%dx%d", k.cols, k.rows)
}
