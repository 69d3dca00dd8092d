// Package parallel splits index ranges across CPU cores.
//
// The fitters use it to score large datasets against one candidate model;
// fn must only read shared state and write to disjoint ranges of its output.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize divides [0, items) into one contiguous chunk per CPU core and
// runs fn(start, end) for each chunk concurrently. It returns when all chunks
// are done.
func Parallelize(items int, fn func(start, end int)) {
	if items <= 0 {
		return
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}

	// ceiling division
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for start := 0; start < items; start += chunkSize {
		end := start + chunkSize
		if end > items {
			end = items
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn(0, items) on the calling goroutine unless
// threshold is positive and items exceeds it.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if threshold <= 0 || items <= threshold {
		if items > 0 {
			fn(0, items)
		}
		return
	}
	Parallelize(items, fn)
}
