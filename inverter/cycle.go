// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inverter

import (
	"fmt"

	"github.com/saintbenjamin/gpt/block"
	"github.com/saintbenjamin/gpt/lattice"
	"github.com/saintbenjamin/gpt/operator"
)

// CycleKind tags the variants of Cycle.
type CycleKind int

const (
	// Smoother is a solver on one level.
	Smoother CycleKind = iota
	// CoarseCorrection projects to the next level, applies the next cycle
	// there, promotes the correction and then smooths.
	CoarseCorrection
	// KrylovWrapped is a flexible Krylov solver preconditioned by the inner
	// cycle.
	KrylovWrapped
)

func (k CycleKind) String() string {
	switch k {
	case Smoother:
		return "smoother"
	case CoarseCorrection:
		return "coarse correction"
	case KrylovWrapped:
		return "krylov wrapped"
	}
	return "unknown"
}

// Cycle is a multigrid preconditioner built bottom-up from its levels.
// Only the fields of its Kind are set.
type Cycle[T lattice.Scalar] struct {
	Kind CycleKind
	// Level is the index of the level the cycle acts on, 0 for the finest.
	Level int

	// Solver is the smoother of a Smoother and the wrapping solver of a
	// KrylovWrapped cycle.
	Solver Inverter[T]

	// Op is the operator of the level of a CoarseCorrection. Map and Next
	// are the transfer to and the cycle on the next coarser level. Post, if
	// not nil, smooths after the correction.
	Op   operator.Operator[T]
	Map  *block.Map[T]
	Next *Cycle[T]
	Post *Cycle[T]

	// Inner preconditions the Solver of a KrylovWrapped cycle.
	Inner *Cycle[T]

	apply Inverter[T]
}

// NewSmoother returns the cycle that applies s.
func NewSmoother[T lattice.Scalar](level int, s Inverter[T]) *Cycle[T] {
	return &Cycle[T]{Kind: Smoother, Level: level, Solver: s, apply: s}
}

// NewCoarseCorrection returns the cycle that corrects the approximation on
// the level of op with next, applied on the coarse grid of m, and then
// applies post if it is not nil.
func NewCoarseCorrection[T lattice.Scalar](level int, op operator.Operator[T], m *block.Map[T], next, post *Cycle[T]) *Cycle[T] {
	if next.Level != level+1 {
		panic("inverter: coarse correction does not connect adjacent levels")
	}
	c := &Cycle[T]{Kind: CoarseCorrection, Level: level, Op: op, Map: m, Next: next, Post: post}
	mg := NewMultiGrid(op, Inverter[T](next), m)
	if post == nil {
		c.apply = mg
	} else {
		c.apply = NewSequence[T](mg, post)
	}
	return c
}

// NewKrylovWrapped returns the cycle that applies s preconditioned by
// inner. s is copied.
func NewKrylovWrapped[T lattice.Scalar](level int, s *Solver[T], inner *Cycle[T]) *Cycle[T] {
	if inner.Level != level {
		panic("inverter: wrapped cycle acts on a different level")
	}
	w := s.Modified(inner)
	return &Cycle[T]{Kind: KrylovWrapped, Level: level, Solver: w, Inner: inner, apply: w}
}

// Apply implements Inverter.
func (c *Cycle[T]) Apply(dst, src *lattice.Field[T]) error {
	if err := c.apply.Apply(dst, src); err != nil {
		return fmt.Errorf("level %d %v: %w", c.Level, c.Kind, err)
	}
	return nil
}

// History implements Inverter.
func (c *Cycle[T]) History() History { return c.apply.History() }

// Levels returns the number of levels spanned by c.
func (c *Cycle[T]) Levels() int {
	switch c.Kind {
	case CoarseCorrection:
		return 1 + c.Next.Levels()
	case KrylovWrapped:
		return c.Inner.Levels()
	}
	return 1
}

// Name implements Inverter.
func (c *Cycle[T]) Name() string {
	switch c.Kind {
	case CoarseCorrection:
		if c.Post != nil {
			return fmt.Sprintf("mg%d(%s; %s)", c.Level, c.Next.Name(), c.Post.Name())
		}
		return fmt.Sprintf("mg%d(%s)", c.Level, c.Next.Name())
	case KrylovWrapped:
		return fmt.Sprintf("%s[%s]", c.Solver.Name(), c.Inner.Name())
	}
	return c.Solver.Name()
}

// Clone implements Inverter.
func (c *Cycle[T]) Clone() Inverter[T] {
	switch c.Kind {
	case CoarseCorrection:
		var post *Cycle[T]
		if c.Post != nil {
			post = c.Post.Clone().(*Cycle[T])
		}
		return NewCoarseCorrection(c.Level, c.Op, c.Map, c.Next.Clone().(*Cycle[T]), post)
	case KrylovWrapped:
		return NewKrylovWrapped(c.Level, c.Solver.(*Solver[T]), c.Inner.Clone().(*Cycle[T]))
	}
	return NewSmoother(c.Level, c.Solver.Clone())
}
