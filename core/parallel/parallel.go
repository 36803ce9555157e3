// Package parallel provides the data-parallel helpers used for
// cross-validation folds and bootstrap replicates. The unit of work is always
// a whole fold or replicate; nothing here is used inside a single sequential
// fit.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize divides items across the available CPU cores and executes fn
// for each assigned range [start, end).
func Parallelize(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}

	// Ceiling division so every item is covered
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}

		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}

// ForEach runs fn(i) for every i in [0, items), distributing indices across
// workers. Results must be written to per-index slots; fn must not share
// mutable state across indices.
func ForEach(items int, fn func(i int)) {
	Parallelize(items, func(start, end int) {
		for i := start; i < end; i++ {
			fn(i)
		}
	})
}

// MaybeForEach runs fn(i) for every i, in parallel when parallel is true and
// sequentially otherwise. Sequential execution preserves index order.
func MaybeForEach(items int, parallel bool, fn func(i int)) {
	if !parallel {
		for i := 0; i < items; i++ {
			fn(i)
		}
		return
	}
	ForEach(items, fn)
}
