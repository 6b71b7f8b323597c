package algorithms

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// minParallelRows keeps tiny images on the calling goroutine.
const minParallelRows = 64

// parallelRows splits [0, height) into contiguous chunks and runs fn on each
// concurrently. fn must only write rows inside its own chunk.
func parallelRows(height int, fn func(y0, y1 int)) {
	workers := min(runtime.GOMAXPROCS(0), height)
	if workers <= 1 || height < minParallelRows {
		fn(0, height)
		return
	}

	chunk := (height + workers - 1) / workers
	var g errgroup.Group
	for y0 := 0; y0 < height; y0 += chunk {
		y1 := min(y0+chunk, height)
		g.Go(func() error {
			fn(y0, y1)
			return nil
		})
	}
	_ = g.Wait()
}
