// Package parallel fans independent per-column work out over CPU cores.
package parallel

import (
	"runtime"
	"sync"
)

// Workers returns how many goroutines Parallelize uses for items.
func Workers(items int) int {
	n := runtime.NumCPU()
	if n > items {
		n = items
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Parallelize divides the specified total number (items) according to the number of CPU cores,
// and executes the specified function (fn) in parallel for each range (start, end)
func Parallelize(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	numWorkers := Workers(items)

	// Calculate the number of items each worker handles (ceiling division)
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

// ParallelizeWithThreshold performs parallelization only when work exceeds the threshold.
// Below it, fn runs once over the whole range on the calling goroutine.
func ParallelizeWithThreshold(items, work, threshold int, fn func(start, end int)) {
	if items == 0 {
		return
	}
	if work <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}

// ForEach calls fn(i) for every i in [0, items). When work exceeds threshold
// the calls are spread over Workers(items) goroutines. fn must only write to
// state owned by index i. The error of the lowest failing index is returned,
// so the result does not depend on scheduling.
func ForEach(items, work, threshold int, fn func(i int) error) error {
	errs := make([]error, items)
	ParallelizeWithThreshold(items, work, threshold, func(start, end int) {
		for i := start; i < end; i++ {
			errs[i] = fn(i)
		}
	})
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
