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

// MultiGrid is a coarse-grid correction. It projects the residual of the
// running approximation to the coarse grid, solves there and adds the
// promoted correction.
type MultiGrid[T lattice.Scalar] struct {
	fine   operator.Operator[T]
	m      *block.Map[T]
	coarse Inverter[T]

	r, e   *lattice.Field[T]
	rc, ec *lattice.Field[T]
}

// NewMultiGrid returns the coarse-grid correction for the fine operator
// using the block map m. coarse solves on the coarse grid of m.
func NewMultiGrid[T lattice.Scalar](fine operator.Operator[T], coarse Inverter[T], m *block.Map[T]) *MultiGrid[T] {
	if !fine.Grid().SameShape(m.FineGrid()) || fine.NComp() != m.NComp() {
		panic("inverter: block map does not match the fine operator")
	}
	return &MultiGrid[T]{
		fine:   fine,
		m:      m,
		coarse: coarse,
		r:      m.NewFineField(),
		e:      m.NewFineField(),
		rc:     m.NewCoarseField(),
		ec:     m.NewCoarseField(),
	}
}

// Apply implements Inverter.
func (mg *MultiGrid[T]) Apply(dst, src *lattice.Field[T]) error {
	if dst.IsZero() {
		mg.r.CopyFrom(src)
	} else {
		operator.Residual(mg.fine, mg.r, dst, src)
	}
	mg.m.Project(mg.rc, mg.r)
	mg.ec.Zero()
	if err := mg.coarse.Apply(mg.ec, mg.rc); err != nil {
		return fmt.Errorf("coarse grid correction: %w", err)
	}
	mg.m.Promote(mg.e, mg.ec)
	lattice.Axpy(1, mg.e, dst)
	return nil
}

// History returns the history of the coarse solver.
func (mg *MultiGrid[T]) History() History { return mg.coarse.History() }

// Name implements Inverter.
func (mg *MultiGrid[T]) Name() string { return "multi_grid(" + mg.coarse.Name() + ")" }

// Clone implements Inverter.
func (mg *MultiGrid[T]) Clone() Inverter[T] {
	return NewMultiGrid(mg.fine, mg.coarse.Clone(), mg.m)
}
