// Package parallel runs independent units of work (one-vs-rest classifiers,
// per-column statistics) on a bounded number of goroutines.
package parallel

import (
	"runtime"
	"sync"

	"github.com/YuminosukeSato/dslr/pkg/errors"
)

// Workers returns the number of goroutines used for n items when the caller
// asks for max workers. max <= 0 means runtime.NumCPU().
func Workers(n, max int) int {
	if max <= 0 {
		max = runtime.NumCPU()
	}
	if max > n {
		max = n
	}
	if max < 1 {
		max = 1
	}
	return max
}

// ForEach calls fn(i) for every i in [0, n) using at most maxWorkers
// goroutines. Items are split into contiguous ranges, one per worker.
// Panics in fn are converted to errors. When several items fail, the error of
// the lowest index is returned so the result does not depend on scheduling.
func ForEach(n, maxWorkers int, fn func(i int) error) error {
	if n <= 0 {
		return nil
	}

	numWorkers := Workers(n, maxWorkers)
	if numWorkers == 1 {
		for i := 0; i < n; i++ {
			if err := call(fn, i); err != nil {
				return err
			}
		}
		return nil
	}

	// ceiling division
	chunkSize := (n + numWorkers - 1) / numWorkers
	errs := make([]error, n)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				errs[i] = call(fn, i)
			}
		}(start, end)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// ForEachWithThreshold runs sequentially when n <= threshold and otherwise
// behaves like ForEach.
func ForEachWithThreshold(n, threshold, maxWorkers int, fn func(i int) error) error {
	if n <= threshold {
		return ForEach(n, 1, fn)
	}
	return ForEach(n, maxWorkers, fn)
}

func call(fn func(i int) error, i int) (err error) {
	defer errors.Recover(&err, "parallel.ForEach")
	return fn(i)
}
