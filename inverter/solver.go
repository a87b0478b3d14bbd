// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inverter

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/saintbenjamin/gpt/iterative"
	"github.com/saintbenjamin/gpt/lattice"
	"github.com/saintbenjamin/gpt/operator"
)

// Option configures an inverter.
type Option func(*settings)

type settings struct {
	name      string
	logger    zerolog.Logger
	observers []Observer
}

func newSettings(name string, opts []Option) settings {
	s := settings{name: name, logger: zerolog.Nop()}
	for _, o := range opts {
		o(&s)
	}
	return s
}

// WithName sets the name reported in records, logs and metrics.
func WithName(name string) Option {
	return func(s *settings) { s.name = name }
}

// WithLogger sets the logger. The default logger discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithObserver adds an observer notified after every solve.
func WithObserver(o Observer) Option {
	return func(s *settings) { s.observers = append(s.observers, o) }
}

// Solver is a Krylov solver for a fixed operator, optionally with a
// preconditioner.
type Solver[T lattice.Scalar] struct {
	method Method
	op     operator.Operator[T]
	params Params
	prec   Inverter[T]
	settings

	krylov  iterative.Method[T]
	normal  *operator.Normal[T]
	history History
}

// New returns a solver for op using the method and parameters of spec.
func New[T lattice.Scalar](op operator.Operator[T], spec Spec, opts ...Option) (*Solver[T], error) {
	if err := spec.Params.validate(string(spec.Method)); err != nil {
		return nil, err
	}
	switch spec.Method {
	case FGMRES, GMRES, BiCGSTAB, CG, BiCG, CGNE:
	default:
		return nil, lattice.NewConfigError(string(spec.Method), "method", "unknown method %q", spec.Method)
	}
	return &Solver[T]{
		method:   spec.Method,
		op:       op,
		params:   spec.Params,
		settings: newSettings(string(spec.Method), opts),
	}, nil
}

// NewFGMRES returns a flexible GMRES solver for op. It panics if params are
// invalid.
func NewFGMRES[T lattice.Scalar](op operator.Operator[T], params Params, opts ...Option) *Solver[T] {
	return mustNew(op, Spec{Method: FGMRES, Params: params}, opts)
}

// NewGMRES returns a left-preconditioned GMRES solver for op. The
// preconditioner must not change between iterations.
func NewGMRES[T lattice.Scalar](op operator.Operator[T], params Params, opts ...Option) *Solver[T] {
	return mustNew(op, Spec{Method: GMRES, Params: params}, opts)
}

// NewBiCGSTAB returns a BiCGSTAB solver for op.
func NewBiCGSTAB[T lattice.Scalar](op operator.Operator[T], params Params, opts ...Option) *Solver[T] {
	return mustNew(op, Spec{Method: BiCGSTAB, Params: params}, opts)
}

func mustNew[T lattice.Scalar](op operator.Operator[T], spec Spec, opts []Option) *Solver[T] {
	s, err := New(op, spec, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Modified returns a copy of s with an empty history that uses prec as its
// preconditioner.
func (s *Solver[T]) Modified(prec Inverter[T]) *Solver[T] {
	return &Solver[T]{
		method:   s.method,
		op:       s.op,
		params:   s.params,
		prec:     prec,
		settings: s.settings,
	}
}

// Clone returns an independent copy of s. The preconditioner is cloned too.
func (s *Solver[T]) Clone() Inverter[T] {
	var prec Inverter[T]
	if s.prec != nil {
		prec = s.prec.Clone()
	}
	return s.Modified(prec)
}

// Operator returns the operator of s.
func (s *Solver[T]) Operator() operator.Operator[T] { return s.op }

// Params returns the parameters of s.
func (s *Solver[T]) Params() Params { return s.params }

// Preconditioner returns the preconditioner of s, or nil.
func (s *Solver[T]) Preconditioner() Inverter[T] { return s.prec }

// Name implements Inverter.
func (s *Solver[T]) Name() string { return s.name }

// History implements Inverter.
func (s *Solver[T]) History() History { return s.history }

// Apply implements Inverter.
func (s *Solver[T]) Apply(dst, src *lattice.Field[T]) error {
	err := s.Solve(dst, src)
	if errors.Is(err, ErrIterationLimit) {
		return nil
	}
	return err
}

// Solve refines dst towards the solution of A dst = src. If the iteration
// limit is reached, the approximation is stored in dst and Solve returns
// ErrIterationLimit.
func (s *Solver[T]) Solve(dst, src *lattice.Field[T]) error {
	if !dst.Compatible(src) || src.NComp != s.op.NComp() || !src.Grid.SameShape(s.op.Grid()) {
		panic("inverter: field layout mismatch")
	}
	start := time.Now()
	bnorm := src.Norm()
	if bnorm == 0 {
		bnorm = 1
	}
	rec := Record{Solver: s.name}

	var err error
	if s.params.MaxIter == 0 {
		err = s.noIterations(&rec, dst, src, bnorm)
	} else {
		err = s.iterate(&rec, dst, src, bnorm)
	}
	rec.Runtime = time.Since(start)
	s.record(rec, err)
	return err
}

// noIterations records the relative residual of the guess.
func (s *Solver[T]) noIterations(rec *Record, dst, src *lattice.Field[T], bnorm float64) error {
	if dst.IsZero() {
		rec.ResidualNorm = src.Norm() / bnorm
	} else {
		r := src.Like()
		operator.Residual(s.op, r, dst, src)
		rec.ResidualNorm = r.Norm() / bnorm
	}
	rec.Converged = rec.ResidualNorm < s.params.Eps
	if !rec.Converged {
		return ErrIterationLimit
	}
	return nil
}

func (s *Solver[T]) iterate(rec *Record, dst, src *lattice.Field[T], bnorm float64) error {
	if s.prec != nil && (s.method == BiCG || s.method == CGNE) {
		return lattice.NewConfigError(s.name, "method", "%s takes no preconditioner", s.method)
	}
	if s.krylov == nil {
		s.krylov = s.newMethod()
	}
	op, rhs, rhsNorm := s.op, src, bnorm
	if s.method == CGNE {
		if s.normal == nil {
			s.normal = operator.NewNormal(s.op)
		}
		op, rhs = s.normal, src.Like()
		s.op.ApplyAdjoint(rhs, src)
		if rhsNorm = rhs.Norm(); rhsNorm == 0 {
			rhsNorm = 1
		}
	}
	cfg := iterative.Settings[T]{
		Tolerance:     s.params.Eps,
		MaxIterations: s.params.MaxIter,
		CheckResidual: s.params.CheckRes,
		Trace: func(_ int, rnorm float64) {
			rec.Residuals = append(rec.Residuals, rnorm/rhsNorm)
		},
	}
	if !dst.IsZero() {
		cfg.X0 = dst.Data
	}
	if s.prec != nil {
		g, nc := src.Grid, src.NComp
		cfg.PSolve = func(z, r []T) error {
			zf := &lattice.Field[T]{Grid: g, NComp: nc, Data: z}
			zf.Zero()
			return s.prec.Apply(zf, &lattice.Field[T]{Grid: g, NComp: nc, Data: r})
		}
	}
	res, err := iterative.LinearSolve(operator.Ops(op), rhs.Data, s.krylov, cfg)
	if res.X != nil {
		copy(dst.Data, res.X)
	}
	rec.Iterations = res.Stats.Iterations
	rec.ResidualNorm = res.Stats.ResidualNorm / rhsNorm
	rec.Converged = res.Stats.Converged
	if s.method == CGNE && res.X != nil {
		// Report the residual of A x = b rather than of the normal equations.
		r := src.Like()
		operator.Residual(s.op, r, dst, src)
		rec.ResidualNorm = r.Norm() / bnorm
	}
	if err != nil && !errors.Is(err, ErrIterationLimit) {
		return fmt.Errorf("%s: %w", s.name, err)
	}
	return err
}

func (s *Solver[T]) newMethod() iterative.Method[T] {
	switch s.method {
	case GMRES:
		return &iterative.GMRES[T]{Restart: s.params.RestartLen}
	case BiCGSTAB:
		return &iterative.BiCGSTAB[T]{}
	case CG, CGNE:
		return &iterative.CG[T]{}
	case BiCG:
		return &iterative.BiCG[T]{}
	}
	return &iterative.FGMRES[T]{Restart: s.params.RestartLen}
}

func (s *Solver[T]) record(rec Record, err error) {
	s.history = append(s.history, rec)
	ev := s.logger.Debug()
	if err != nil && !errors.Is(err, ErrIterationLimit) {
		ev = s.logger.Warn().Err(err)
	}
	ev.Str("solver", s.name).
		Int("iterations", rec.Iterations).
		Float64("residual", rec.ResidualNorm).
		Bool("converged", rec.Converged).
		Dur("runtime", rec.Runtime).
		Msg("solve finished")
	for _, o := range s.observers {
		o.Observe(rec)
	}
}
