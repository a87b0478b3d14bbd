// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lattice

import (
	"math"
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/stat/distuv"
)

// RNG is a seeded source of random numbers for sampling fields. An RNG is
// not safe for concurrent use.
type RNG struct {
	rnd     *rand.Rand
	normal  distuv.Normal
	uniform distuv.Uniform
}

// NewRNG returns a generator seeded from the string seed. Equal seeds
// produce equal streams.
func NewRNG(seed string) *RNG {
	h := xxhash.Sum64String(seed)
	rnd := rand.New(rand.NewPCG(h, h^0x9e3779b97f4a7c15))
	return &RNG{
		rnd: rnd,
		normal: distuv.Normal{
			Mu:    0,
			Sigma: 1 / math.Sqrt2,
			Src:   rnd,
		},
		uniform: distuv.Uniform{Min: -0.5, Max: 0.5, Src: rnd},
	}
}

// Rand returns the underlying generator.
func (r *RNG) Rand() *rand.Rand { return r.rnd }

// CNormal returns a complex number whose real and imaginary parts are
// independent normal variates, so that E|z|² = 1.
func (r *RNG) CNormal() complex128 {
	re := r.normal.Rand()
	im := r.normal.Rand()
	return complex(re, im)
}

// Uniform returns a variate uniform in [-1/2, 1/2).
func (r *RNG) Uniform() float64 { return r.uniform.Rand() }

// CNormal fills the fields with complex normal variates. The fields are
// sampled in order, each site by site.
func CNormal[T Scalar](r *RNG, fields ...*Field[T]) {
	for _, f := range fields {
		for i := range f.Data {
			f.Data[i] = T(r.CNormal())
		}
	}
}
