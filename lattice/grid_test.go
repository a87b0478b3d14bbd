// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lattice

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestNewGrid(t *testing.T) {
	for _, test := range []struct {
		extent []int
		prec   Precision
		ok     bool
	}{
		{[]int{4, 4, 4, 4}, Double, true},
		{[]int{16, 8, 8, 16}, Single, true},
		{[]int{1}, Double, true},
		{nil, Double, false},
		{[]int{4, 0, 4}, Double, false},
		{[]int{4, -2}, Single, false},
		{[]int{4}, Precision(7), false},
	} {
		g, err := NewGrid(test.extent, test.prec)
		if test.ok != (err == nil) {
			t.Errorf("Case %v: unexpected error %v", test.extent, err)
			continue
		}
		if err != nil {
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("Case %v: error %v is not a configuration error", test.extent, err)
			}
			continue
		}
		want := 1
		for _, l := range test.extent {
			want *= l
		}
		if g.Sites() != want {
			t.Errorf("Case %v: unexpected number of sites %d, want %d", test.extent, g.Sites(), want)
		}
	}
}

func TestGridIndexing(t *testing.T) {
	g, err := NewGrid([]int{4, 3, 2, 5}, Double)
	if err != nil {
		t.Fatal(err)
	}
	// The first dimension runs fastest.
	if g.Index([]int{1, 0, 0, 0}) != 1 || g.Index([]int{0, 1, 0, 0}) != 4 || g.Index([]int{0, 0, 0, 1}) != 24 {
		t.Errorf("unexpected lexicographic order")
	}
	if g.Index([]int{-1, 3, 2, 5}) != g.Index([]int{3, 0, 0, 0}) {
		t.Errorf("coordinates are not periodic")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	properties.Property("Index inverts Coord", prop.ForAll(
		func(site int) bool {
			return g.Index(g.Coord(site, nil)) == site
		},
		gen.IntRange(0, g.Sites()-1),
	))
	properties.Property("backward step inverts forward step", prop.ForAll(
		func(site, dim int) bool {
			return g.Neighbor(g.Neighbor(site, dim, +1), dim, -1) == site
		},
		gen.IntRange(0, g.Sites()-1),
		gen.IntRange(0, g.Dims()-1),
	))
	properties.Property("forward step increments one coordinate", prop.ForAll(
		func(site, dim int) bool {
			c := g.Coord(site, nil)
			c[dim]++
			return g.Neighbor(site, dim, +1) == g.Index(c)
		},
		gen.IntRange(0, g.Sites()-1),
		gen.IntRange(0, g.Dims()-1),
	))
	properties.TestingRun(t)
}

func TestGridCoarsened(t *testing.T) {
	g, _ := NewGrid([]int{16, 8, 8, 16}, Single)
	c, err := g.Coarsened([]int{2, 2, 2, 2})
	if err != nil {
		t.Fatal(err)
	}
	if !c.SameShape(mustGrid(t, []int{8, 4, 4, 8}, Double)) || c.Precision() != Single {
		t.Errorf("unexpected coarse grid %v", c)
	}
	for _, block := range [][]int{{3, 2, 2, 2}, {2, 2, 2}, {2, 0, 2, 2}} {
		_, err := g.Coarsened(block)
		var cerr *ConfigurationError
		if !errors.As(err, &cerr) || cerr.Option != "block_size" {
			t.Errorf("Case %v: unexpected error %v", block, err)
		}
	}
}

func mustGrid(t *testing.T, extent []int, prec Precision) *Grid {
	t.Helper()
	g, err := NewGrid(extent, prec)
	if err != nil {
		t.Fatal(err)
	}
	return g
}
