// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package parallel runs data-parallel loops over index ranges.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// MinGrain is the smallest range handed to a single goroutine. Loops over
// fewer than 2*MinGrain indices run on the calling goroutine.
const MinGrain = 64

// For calls fn on disjoint half-open ranges [lo, hi) covering [0, n). The
// ranges are processed concurrently by at most GOMAXPROCS goroutines and For
// returns after all of them have finished. fn must only write to data owned by
// its range.
func For(n int, fn func(lo, hi int)) {
	workers := runtime.GOMAXPROCS(0)
	if n < 2*MinGrain || workers == 1 {
		if n > 0 {
			fn(0, n)
		}
		return
	}
	chunk := (n + workers - 1) / workers
	if chunk < MinGrain {
		chunk = MinGrain
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	_ = g.Wait()
}
