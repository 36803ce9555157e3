package model_selection

import (
	"math/rand/v2"

	"github.com/YuminosukeSato/statlearn/pkg/errors"
)

// BootstrapSample draws n indices uniformly with replacement from [0, n) and
// returns the drawn multiset together with the out-of-bag complement (indices
// never drawn, in ascending order). For large n roughly (1-1/n)^n ≈ 36.8% of
// observations end up out-of-bag, which the ensemble package relies on for
// resampling-free error estimation.
func BootstrapSample(n int, seed int64) (indices, outOfBag []int, err error) {
	if n < 1 {
		return nil, nil, errors.NewValidationError("n",
			"bootstrap requires at least 1 sample", n)
	}

	r := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))

	indices = make([]int, n)
	drawn := make([]bool, n)
	for i := 0; i < n; i++ {
		idx := r.IntN(n)
		indices[i] = idx
		drawn[idx] = true
	}

	outOfBag = make([]int, 0, n/3+1)
	for i := 0; i < n; i++ {
		if !drawn[i] {
			outOfBag = append(outOfBag, i)
		}
	}

	return indices, outOfBag, nil
}
