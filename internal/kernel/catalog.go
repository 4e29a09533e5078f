package kernel

import "sort"

// Named kernels. Weights are listed row by row.
var (
	Identity = MustNew(3, 3,
		0, 0, 0,
		0, 1, 0,
		0, 0, 0,
	)

	Box = MustNew(3, 3,
		1, 1, 1,
		1, 1, 1,
		1, 1, 1,
	)

	Gaussian3 = MustNew(3, 3,
		1, 2, 1,
		2, 4, 2,
		1, 2, 1,
	)

	Gaussian5 = MustNew(5, 5,
		1, 4, 7, 4, 1,
		4, 16, 26, 16, 4,
		7, 26, 41, 26, 7,
		4, 16, 26, 16, 4,
		1, 4, 7, 4, 1,
	)

	// EdgesH is the Sobel operator for horizontal gradients.
	EdgesH = MustNew(3, 3,
		1, 0, -1,
		2, 0, -2,
		1, 0, -1,
	)

	// EdgesV is the Sobel operator for vertical gradients.
	EdgesV = MustNew(3, 3,
		1, 2, 1,
		0, 0, 0,
		-1, -2, -1,
	)

	// Edges2 is the 4-neighbour Laplacian.
	Edges2 = MustNew(3, 3,
		0, -1, 0,
		-1, 4, -1,
		0, -1, 0,
	)

	// Edges3 responds to diagonal edges.
	Edges3 = MustNew(3, 3,
		1, 0, -1,
		0, 0, 0,
		-1, 0, 1,
	)

	// Sharpen sums to zero, so the convolution leaves it unnormalized.
	Sharpen = MustNew(3, 3,
		-1, -1, -1,
		-1, 8, -1,
		-1, -1, -1,
	)

	Emboss = MustNew(3, 3,
		-2, -1, 0,
		-1, 1, 1,
		0, 1, 2,
	)
)

var catalog = map[string]Kernel{
	"identity":  Identity,
	"box":       Box,
	"gaussian3": Gaussian3,
	"gaussian5": Gaussian5,
	"edges-h":   EdgesH,
	"edges-v":   EdgesV,
	"edges2":    Edges2,
	"edges3":    Edges3,
	"sharpen":   Sharpen,
	"emboss":    Emboss,
}

// Lookup returns the catalog kernel registered under name.
func Lookup(name string) (Kernel, bool) {
	k, ok := catalog[name]

	return k, ok
}

// Names returns all catalog names in sorted order.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
