package dynamo

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ParallelFor executes fn over [0, n) split into contiguous chunks.
// It returns only after every chunk has finished, and reports the first error.
// workers <= 0 means GOMAXPROCS.
func ParallelFor(n, minChunk, workers int, fn func(start, end int) error) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if minChunk < 1 {
		minChunk = 1
	}
	if n <= minChunk || workers <= 1 {
		return fn(0, n)
	}

	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var g errgroup.Group
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		g.Go(func() error {
			return fn(start, end)
		})
	}

	return g.Wait()
}
