// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package block implements the aggregation of a fine lattice into blocks and
// the transfer operators between the fine lattice and the coarse lattice
// whose sites are the blocks.
package block

import (
	"slices"

	"github.com/saintbenjamin/gpt/lattice"
)

// Partition is a decomposition of a fine grid into equal hyper-rectangular
// blocks. Block b holds the fine sites mapped to site b of the coarse grid.
//
// A block is stored as runs of consecutive fine sites along the first
// dimension, so data of a block can be copied run by run.
type Partition struct {
	fine, coarse *lattice.Grid
	block        []int
	runLen       int
	// runs[b*nruns+k] is the first fine site of run k of block b.
	runs  []int
	nruns int
}

// NewPartition partitions fine into blocks of extent blockSize. Every block
// extent must divide the fine extent.
func NewPartition(fine *lattice.Grid, blockSize []int) (*Partition, error) {
	coarse, err := fine.Coarsened(blockSize)
	if err != nil {
		return nil, err
	}
	p := &Partition{
		fine:   fine,
		coarse: coarse,
		block:  slices.Clone(blockSize),
		runLen: blockSize[0],
	}
	p.nruns = 1
	for _, b := range blockSize[1:] {
		p.nruns *= b
	}
	p.runs = make([]int, coarse.Sites()*p.nruns)

	nd := fine.Dims()
	cc := make([]int, nd) // coarse coordinates
	off := make([]int, nd)
	fc := make([]int, nd)
	for b := 0; b < coarse.Sites(); b++ {
		coarse.Coord(b, cc)
		clear(off)
		for k := 0; k < p.nruns; k++ {
			for d := range fc {
				fc[d] = cc[d]*blockSize[d] + off[d]
			}
			p.runs[b*p.nruns+k] = fine.Index(fc)
			// Advance the offset within the block, skipping dimension 0.
			for d := 1; d < nd; d++ {
				off[d]++
				if off[d] < blockSize[d] {
					break
				}
				off[d] = 0
			}
		}
	}
	return p, nil
}

// Fine returns the fine grid.
func (p *Partition) Fine() *lattice.Grid { return p.fine }

// Coarse returns the coarse grid.
func (p *Partition) Coarse() *lattice.Grid { return p.coarse }

// BlockSize returns the extent of a block.
func (p *Partition) BlockSize() []int { return slices.Clone(p.block) }

// Blocks returns the number of blocks.
func (p *Partition) Blocks() int { return p.coarse.Sites() }

// BlockSites returns the number of fine sites in a block.
func (p *Partition) BlockSites() int { return p.nruns * p.runLen }

// Runs returns the first fine sites of the runs of block b. Each run holds
// RunLen consecutive sites.
func (p *Partition) Runs(b int) []int { return p.runs[b*p.nruns : (b+1)*p.nruns] }

// RunLen returns the number of sites of a run.
func (p *Partition) RunLen() int { return p.runLen }

// BlockOf returns the block holding the fine site.
func (p *Partition) BlockOf(site int) int {
	var b int
	for d := 0; d < p.fine.Dims(); d++ {
		x := (site / p.fine.Stride(d)) % p.fine.Len(d)
		b += (x / p.block[d]) * p.coarse.Stride(d)
	}
	return b
}

// gather copies the ncomp-component data of block b from src into dst.
func gather[T lattice.Scalar](p *Partition, dst, src []T, b, ncomp int) {
	n := p.runLen * ncomp
	for k, site := range p.Runs(b) {
		copy(dst[k*n:(k+1)*n], src[site*ncomp:site*ncomp+n])
	}
}

// scatter copies the ncomp-component data of block b from src into dst.
func scatter[T lattice.Scalar](p *Partition, dst, src []T, b, ncomp int) {
	n := p.runLen * ncomp
	for k, site := range p.Runs(b) {
		copy(dst[site*ncomp:site*ncomp+n], src[k*n:(k+1)*n])
	}
}
