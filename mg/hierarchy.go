// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mg

import (
	"fmt"
	"time"

	"github.com/saintbenjamin/gpt/block"
	"github.com/saintbenjamin/gpt/lattice"
	"github.com/saintbenjamin/gpt/operator"
)

// Timing is the runtime of the setup of one level.
type Timing struct {
	Orthonormalize time.Duration
	NullVectors    time.Duration
	CoarseOperator time.Duration
	Total          time.Duration
}

func (t Timing) String() string {
	return fmt.Sprintf("orthonormalize %v, null vectors %v, coarse operator %v, total %v",
		t.Orthonormalize, t.NullVectors, t.CoarseOperator, t.Total)
}

// Level is one level of a multigrid hierarchy.
type Level[T lattice.Scalar] struct {
	// Index is 0 for the finest level.
	Index int
	Op    operator.Operator[T]
	// Map transfers to the next coarser level. It is nil on the coarsest
	// level.
	Map    *block.Map[T]
	Timing Timing
}

// Grid returns the grid of the level.
func (l *Level[T]) Grid() *lattice.Grid { return l.Op.Grid() }

// Pair is a level transition: the block map from a level and the coarse
// operator of the next level.
type Pair[T lattice.Scalar] struct {
	Map    *block.Map[T]
	Coarse operator.Operator[T]
}

// Hierarchy is a linear chain of levels, finest first.
type Hierarchy[T lattice.Scalar] struct {
	Levels []*Level[T]
}

// Len returns the number of levels.
func (h *Hierarchy[T]) Len() int { return len(h.Levels) }

// Pairs returns the level transitions.
func (h *Hierarchy[T]) Pairs() []Pair[T] {
	var out []Pair[T]
	for i, l := range h.Levels[:len(h.Levels)-1] {
		out = append(out, Pair[T]{Map: l.Map, Coarse: h.Levels[i+1].Op})
	}
	return out
}

// Times returns the setup timing of every level transition. The coarsest
// level has no setup of its own.
func (h *Hierarchy[T]) Times() []Timing {
	out := make([]Timing, len(h.Levels)-1)
	for i, l := range h.Levels[:len(h.Levels)-1] {
		out[i] = l.Timing
	}
	return out
}
