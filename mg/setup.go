// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mg builds aggregation-based multigrid hierarchies for lattice
// operators and assembles multigrid cycles from them.
package mg

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/saintbenjamin/gpt/block"
	"github.com/saintbenjamin/gpt/inverter"
	"github.com/saintbenjamin/gpt/lattice"
	"github.com/saintbenjamin/gpt/operator"
)

// Distribution samples one component of a basis vector.
type Distribution func(rng *lattice.RNG) complex128

// Distributions holds the distributions known by name.
var Distributions = map[string]Distribution{
	"cnormal": (*lattice.RNG).CNormal,
	"z2": func(rng *lattice.RNG) complex128 {
		if rng.Rand().IntN(2) == 0 {
			return -1
		}
		return 1
	},
}

// Option configures Setup.
type Option func(*setupOptions)

type setupOptions struct {
	rng       *lattice.RNG
	dist      Distribution
	logger    zerolog.Logger
	solverOps []inverter.Option
}

// WithRNG sets the generator the basis is sampled with. The default is
// seeded with "mg".
func WithRNG(rng *lattice.RNG) Option {
	return func(o *setupOptions) { o.rng = rng }
}

// WithDistribution overrides the distribution named in the parameters.
func WithDistribution(d Distribution) Option {
	return func(o *setupOptions) { o.dist = d }
}

// WithLogger sets the logger of the setup and of its solvers.
func WithLogger(l zerolog.Logger) Option {
	return func(o *setupOptions) { o.logger = l }
}

// WithSolverOptions adds options for the null vector solvers.
func WithSolverOptions(opts ...inverter.Option) Option {
	return func(o *setupOptions) { o.solverOps = append(o.solverOps, opts...) }
}

// Setup builds the multigrid hierarchy of op. The hierarchy has
// params.Transitions()+1 levels; level 0 holds op itself.
//
// Setup fails without a hierarchy if a block size does not tile a grid, if
// a block basis fails the orthonormality check or if ctx is done.
func Setup[T lattice.Scalar](ctx context.Context, op operator.Operator[T], params SetupParams, opts ...Option) (*Hierarchy[T], error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	o := setupOptions{logger: zerolog.Nop()}
	for _, fn := range opts {
		fn(&o)
	}
	if o.rng == nil {
		o.rng = lattice.NewRNG("mg")
	}
	if o.dist == nil {
		o.dist = Distributions[params.Distribution]
	}
	tol := params.OrthoTolerance
	if tol == 0 {
		tol = block.DefaultTolerance(lattice.PrecisionOf[T]())
	}

	h := &Hierarchy[T]{}
	cur := op
	for l := 0; l < params.Transitions(); l++ {
		lvl, next, err := setupLevel(ctx, l, cur, params, tol, &o)
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", l, err)
		}
		o.logger.Info().Int("level", l).
			Stringer("fine", cur.Grid()).
			Stringer("coarse", next.Grid()).
			Int("n_basis", params.NBasis[l]).
			Dur("total", lvl.Timing.Total).
			Msg("multigrid level ready")
		h.Levels = append(h.Levels, lvl)
		cur = next
	}
	h.Levels = append(h.Levels, &Level[T]{Index: params.Transitions(), Op: cur})
	return h, nil
}

func setupLevel[T lattice.Scalar](ctx context.Context, l int, op operator.Operator[T], params SetupParams, tol float64, o *setupOptions) (*Level[T], operator.Operator[T], error) {
	start := time.Now()
	var t Timing

	part, err := block.NewPartition(op.Grid(), params.BlockSize[l])
	if err != nil {
		return nil, nil, err
	}
	basis := lattice.NewFields[T](op.Grid(), op.NComp(), params.NBasis[l])
	for _, v := range basis {
		for i := range v.Data {
			v.Data[i] = T(o.dist(o.rng))
		}
	}

	ortho := time.Now()
	for i := 0; i < params.NPreOrtho[l]; i++ {
		if err := block.OrthonormalizeGlobal(basis); err != nil {
			return nil, nil, err
		}
	}
	if params.VectorType[l] == NullVectors && params.NBlockOrtho[l] > 0 {
		m, err := blockOrthonormalize(part, basis, params.NBlockOrtho[l])
		if err != nil {
			return nil, nil, err
		}
		for i := range basis {
			basis[i] = m.Vector(i)
		}
	}
	t.Orthonormalize += time.Since(ortho)
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	if params.VectorType[l] == NullVectors {
		nv := time.Now()
		if err := relax(ctx, l, op, params.Solver[l], basis, o); err != nil {
			return nil, nil, err
		}
		t.NullVectors = time.Since(nv)
	}

	ortho = time.Now()
	for i := 0; i < params.NPostOrtho[l]; i++ {
		if err := block.OrthonormalizeGlobal(basis); err != nil {
			return nil, nil, err
		}
	}
	m, err := blockOrthonormalize(part, basis, params.NBlockOrtho[l])
	if err != nil {
		return nil, nil, err
	}
	if params.CheckBlockOrtho[l] {
		if err := m.CheckOrthonormality(tol); err != nil {
			return nil, nil, err
		}
	}
	t.Orthonormalize += time.Since(ortho)
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	co := time.Now()
	var coarse operator.Operator[T]
	if params.SaveLinks[l] {
		coarse, err = NewCoarse(op, m, params.MakeHermitian[l])
		if err != nil {
			return nil, nil, err
		}
	} else {
		coarse = NewGalerkin(op, m)
	}
	t.CoarseOperator = time.Since(co)
	t.Total = time.Since(start)
	return &Level[T]{Index: l, Op: op, Map: m, Timing: t}, coarse, nil
}

func blockOrthonormalize[T lattice.Scalar](part *block.Partition, basis []*lattice.Field[T], passes int) (*block.Map[T], error) {
	m, err := block.NewMapPartition(part, basis)
	if err != nil {
		return nil, err
	}
	for i := 0; i < passes; i++ {
		if err := m.Orthonormalize(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// relax moves every basis vector v towards the near-null space of op by
// solving A e = -A v approximately and adding e to v.
func relax[T lattice.Scalar](ctx context.Context, l int, op operator.Operator[T], spec inverter.Spec, basis []*lattice.Field[T], o *setupOptions) error {
	opts := append([]inverter.Option{inverter.WithLogger(o.logger)}, o.solverOps...)
	opts = append(opts, inverter.WithName(fmt.Sprintf("setup%d", l)))
	s, err := inverter.New(op, spec, opts...)
	if err != nil {
		return err
	}
	r := operator.NewField(op)
	e := operator.NewField(op)
	for i, v := range basis {
		if err := ctx.Err(); err != nil {
			return err
		}
		op.Apply(r, v)
		lattice.Scale(-1, r)
		e.Zero()
		if err := s.Apply(e, r); err != nil {
			return fmt.Errorf("null vector %d: %w", i, err)
		}
		lattice.Axpy(1, e, v)
	}
	h := s.History()
	o.logger.Debug().Int("level", l).
		Int("vectors", len(basis)).
		Int("iterations", h.Iterations()).
		Msg("null vectors relaxed")
	return nil
}
