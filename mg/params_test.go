// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saintbenjamin/gpt/inverter"
	"github.com/saintbenjamin/gpt/lattice"
)

func setupOptionMap() map[string]any {
	return map[string]any{
		"block_size":        []any{[]any{2, 2, 2, 2}, []any{2, 1, 1, 1}},
		"n_block_ortho":     1,
		"check_block_ortho": true,
		"n_basis":           30,
		"make_hermitian":    false,
		"save_links":        true,
		"vector_type":       "null",
		"n_pre_ortho":       1,
		"n_post_ortho":      0,
		"solver":            map[string]any{"eps": 1e-3, "maxiter": 50, "restartlen": 25, "checkres": false},
		"distribution":      "cnormal",
	}
}

func TestParseSetupParams(t *testing.T) {
	p, err := ParseSetupParams(setupOptionMap())
	require.NoError(t, err)
	assert.Equal(t, 2, p.Transitions())
	assert.Equal(t, [][]int{{2, 2, 2, 2}, {2, 1, 1, 1}}, p.BlockSize)
	assert.Equal(t, []int{30, 30}, p.NBasis)
	assert.Equal(t, []int{1, 1}, p.NPreOrtho)
	assert.Equal(t, []VectorType{NullVectors, NullVectors}, p.VectorType)
	want := inverter.Spec{Method: inverter.FGMRES, Params: inverter.Params{Eps: 1e-3, MaxIter: 50, RestartLen: 25}}
	assert.Equal(t, []inverter.Spec{want, want}, p.Solver)

	m := setupOptionMap()
	m["n_basis"] = []any{30, 20}
	m["save_links"] = []any{true, false}
	delete(m, "distribution")
	p, err = ParseSetupParams(m)
	require.NoError(t, err)
	assert.Equal(t, []int{30, 20}, p.NBasis)
	assert.Equal(t, []bool{true, false}, p.SaveLinks)
	assert.Equal(t, "cnormal", p.Distribution)
}

func TestParseSetupParamsErrors(t *testing.T) {
	for _, test := range []struct {
		name   string
		edit   func(map[string]any)
		option string
	}{
		{"missing block size", func(m map[string]any) { delete(m, "block_size") }, "block_size"},
		{"missing n_basis", func(m map[string]any) { delete(m, "n_basis") }, "n_basis"},
		{"unknown option", func(m map[string]any) { m["n_basis_vectors"] = 3 }, "n_basis_vectors"},
		{"per-level length", func(m map[string]any) { m["n_basis"] = []any{30} }, "n_basis"},
		{"vector type", func(m map[string]any) { m["vector_type"] = "eigen" }, "vector_type"},
		{"hermitian without links", func(m map[string]any) {
			m["make_hermitian"] = true
			m["save_links"] = false
		}, "make_hermitian"},
		{"null without solver", func(m map[string]any) { delete(m, "solver") }, "solver"},
		{"distribution", func(m map[string]any) { m["distribution"] = "uniform" }, "distribution"},
		{"negative basis", func(m map[string]any) { m["n_basis"] = -1 }, "n_basis"},
		{"solver option", func(m map[string]any) { m["solver"] = map[string]any{"eps": 1e-3} }, "maxiter"},
	} {
		t.Run(test.name, func(t *testing.T) {
			m := setupOptionMap()
			test.edit(m)
			_, err := ParseSetupParams(m)
			require.ErrorIs(t, err, lattice.ErrConfiguration)
			var cerr *lattice.ConfigurationError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, test.option, cerr.Option)
		})
	}

	m := setupOptionMap()
	delete(m, "solver")
	m["vector_type"] = "test"
	_, err := ParseSetupParams(m)
	assert.NoError(t, err)
}
