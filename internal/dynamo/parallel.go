package dynamo

import (
	"runtime"
	"sync"
)

// Workers resolves a requested worker count. Zero or negative means one
// worker per available CPU.
func Workers(n int) int {
	if n <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

// ParallelFor executes fn over [0, n) split into contiguous chunks, one per
// worker. Chunks never overlap, so fn may write to disjoint rows freely.
// A panic in any chunk is re-raised on the calling goroutine once all
// chunks have finished.
func ParallelFor(n, minChunk, workers int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if minChunk < 1 {
		minChunk = 1
	}
	workers = Workers(workers)
	if n <= minChunk || workers <= 1 {
		fn(0, n)
		return
	}

	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var (
		wg       sync.WaitGroup
		once     sync.Once
		panicked any
	)
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					once.Do(func() { panicked = r })
				}
			}()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
	if panicked != nil {
		panic(panicked)
	}
}
