// Package model_selection implements the resampling engine: k-fold and
// leave-one-out cross-validation splitters, bootstrap sampling with
// out-of-bag tracking, and a generic cross-validated error estimator. All
// randomness is driven by explicit seeds; repeated calls with the same seed
// produce identical partitions.
package model_selection

import (
	"math/rand/v2"

	"github.com/YuminosukeSato/statlearn/pkg/errors"
)

// Fold holds the train/test index partition for one cross-validation fold.
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// KFold is a k-fold cross-validation splitter with a deterministic seeded
// shuffle.
type KFold struct {
	NSplits int
	Seed    int64
}

// NewKFold creates a k-fold splitter. Validation of NSplits against the
// sample count happens in Split, where n is known.
func NewKFold(nSplits int, seed int64) *KFold {
	return &KFold{
		NSplits: nSplits,
		Seed:    seed,
	}
}

// GetNSplits returns the number of splits.
func (kf *KFold) GetNSplits() int {
	return kf.NSplits
}

// Split partitions [0, n) into NSplits folds. Every index lands in exactly
// one test fold and fold sizes differ by at most one. NSplits outside [2, n]
// is a fatal validation error.
func (kf *KFold) Split(n int) ([]Fold, error) {
	if kf.NSplits < 2 || kf.NSplits > n {
		return nil, errors.NewValidationError("n_splits",
			"must be between 2 and the number of samples", kf.NSplits)
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	r := rand.New(rand.NewPCG(uint64(kf.Seed), uint64(kf.Seed)))
	r.Shuffle(len(indices), func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	folds := make([]Fold, kf.NSplits)
	foldSize := n / kf.NSplits
	remainder := n % kf.NSplits

	currentIdx := 0
	for i := 0; i < kf.NSplits; i++ {
		testSize := foldSize
		if i < remainder {
			testSize++
		}

		testIndices := make([]int, testSize)
		copy(testIndices, indices[currentIdx:currentIdx+testSize])

		trainIndices := make([]int, 0, n-testSize)
		trainIndices = append(trainIndices, indices[:currentIdx]...)
		trainIndices = append(trainIndices, indices[currentIdx+testSize:]...)

		folds[i] = Fold{
			TrainIndices: trainIndices,
			TestIndices:  testIndices,
		}

		currentIdx += testSize
	}

	return folds, nil
}

// LeaveOneOut returns n folds each holding out exactly one observation.
// The shuffle is irrelevant here since every observation is held out once.
func LeaveOneOut(n int) ([]Fold, error) {
	if n < 2 {
		return nil, errors.NewValidationError("n",
			"leave-one-out requires at least 2 samples", n)
	}

	folds := make([]Fold, n)
	for i := 0; i < n; i++ {
		train := make([]int, 0, n-1)
		for j := 0; j < n; j++ {
			if j != i {
				train = append(train, j)
			}
		}
		folds[i] = Fold{
			TrainIndices: train,
			TestIndices:  []int{i},
		}
	}

	return folds, nil
}
