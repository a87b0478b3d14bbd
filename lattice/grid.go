// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lattice

import (
	"fmt"
	"slices"
)

// Grid is a periodic hyper-rectangular lattice with a fixed extent per
// dimension and a precision. Sites are numbered lexicographically with the
// first dimension running fastest. A Grid owns no field data.
type Grid struct {
	extent []int
	stride []int
	sites  int
	prec   Precision
}

// NewGrid returns a grid with the given extent and precision.
func NewGrid(extent []int, prec Precision) (*Grid, error) {
	if len(extent) == 0 {
		return nil, NewConfigError("grid", "extent", "no dimensions")
	}
	if prec != Single && prec != Double {
		return nil, NewConfigError("grid", "precision", "unknown precision %d", int(prec))
	}
	g := &Grid{
		extent: slices.Clone(extent),
		stride: make([]int, len(extent)),
		sites:  1,
		prec:   prec,
	}
	for d, l := range extent {
		if l <= 0 {
			return nil, NewConfigError("grid", "extent", "dimension %d has non-positive extent %d", d, l)
		}
		g.stride[d] = g.sites
		g.sites *= l
	}
	return g, nil
}

// Dims returns the number of dimensions.
func (g *Grid) Dims() int { return len(g.extent) }

// Extent returns a copy of the extent of g.
func (g *Grid) Extent() []int { return slices.Clone(g.extent) }

// Len returns the extent of g along dimension d.
func (g *Grid) Len(d int) int { return g.extent[d] }

// Stride returns the distance between the indices of neighboring sites along
// dimension d.
func (g *Grid) Stride(d int) int { return g.stride[d] }

// Sites returns the number of sites.
func (g *Grid) Sites() int { return g.sites }

// Precision returns the precision of fields on g.
func (g *Grid) Precision() Precision { return g.prec }

func (g *Grid) String() string {
	return fmt.Sprintf("grid%v(%v)", g.extent, g.prec)
}

// Coord stores the coordinates of site into c and returns it. If c is nil a
// new slice is allocated.
func (g *Grid) Coord(site int, c []int) []int {
	if c == nil {
		c = make([]int, len(g.extent))
	}
	for d, l := range g.extent {
		c[d] = site % l
		site /= l
	}
	return c
}

// Index returns the site with coordinates c. Coordinates are taken modulo
// the extent.
func (g *Grid) Index(c []int) int {
	if len(c) != len(g.extent) {
		panic("lattice: coordinate dimension mismatch")
	}
	var site int
	for d, l := range g.extent {
		x := c[d] % l
		if x < 0 {
			x += l
		}
		site += x * g.stride[d]
	}
	return site
}

// Neighbor returns the site one step from site along dimension dim, forward
// if dir > 0 and backward otherwise. The grid is periodic.
func (g *Grid) Neighbor(site, dim, dir int) int {
	l, s := g.extent[dim], g.stride[dim]
	x := (site / s) % l
	if dir > 0 {
		if x == l-1 {
			return site - (l-1)*s
		}
		return site + s
	}
	if x == 0 {
		return site + (l-1)*s
	}
	return site - s
}

// OnBoundary reports whether site lies on the last slice of dimension dim,
// so that its forward neighbor wraps around.
func (g *Grid) OnBoundary(site, dim int) bool {
	return (site/g.stride[dim])%g.extent[dim] == g.extent[dim]-1
}

// SameShape reports whether g and h have the same extent.
func (g *Grid) SameShape(h *Grid) bool {
	return slices.Equal(g.extent, h.extent)
}

// Converted returns a grid with the extent of g and precision p.
func (g *Grid) Converted(p Precision) *Grid {
	if p == g.prec {
		return g
	}
	h, err := NewGrid(g.extent, p)
	if err != nil {
		panic(err)
	}
	return h
}

// Coarsened returns the grid whose sites are the blocks of the given extent
// tiling g. Every block extent must divide the corresponding extent of g.
func (g *Grid) Coarsened(block []int) (*Grid, error) {
	if len(block) != len(g.extent) {
		return nil, NewConfigError("block", "block_size", "%d dimensions for a %d-dimensional grid", len(block), len(g.extent))
	}
	coarse := make([]int, len(block))
	for d, b := range block {
		if b <= 0 || g.extent[d]%b != 0 {
			return nil, NewConfigError("block", "block_size", "block extent %d does not divide grid extent %d in dimension %d", b, g.extent[d], d)
		}
		coarse[d] = g.extent[d] / b
	}
	return NewGrid(coarse, g.prec)
}
