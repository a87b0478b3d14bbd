// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inverter

import (
	"fmt"
	"strings"
	"time"

	"github.com/saintbenjamin/gpt/lattice"
	"github.com/saintbenjamin/gpt/operator"
)

// Sequence applies its stages in order. Every stage refines the running
// approximation left by the previous one, so a stage solving with the
// operator of the sequence acts as a residual correction.
type Sequence[T lattice.Scalar] struct {
	stages []Inverter[T]
	times  []time.Duration
}

// NewSequence returns the sequence of stages.
func NewSequence[T lattice.Scalar](stages ...Inverter[T]) *Sequence[T] {
	if len(stages) == 0 {
		panic("inverter: empty sequence")
	}
	return &Sequence[T]{
		stages: stages,
		times:  make([]time.Duration, len(stages)),
	}
}

// Stages returns the stages of s.
func (s *Sequence[T]) Stages() []Inverter[T] { return s.stages }

// Times returns the accumulated runtime of every stage.
func (s *Sequence[T]) Times() []time.Duration { return s.times }

// Apply implements Inverter.
func (s *Sequence[T]) Apply(dst, src *lattice.Field[T]) error {
	for i, st := range s.stages {
		start := time.Now()
		err := st.Apply(dst, src)
		s.times[i] += time.Since(start)
		if err != nil {
			return fmt.Errorf("sequence stage %d (%s): %w", i, st.Name(), err)
		}
	}
	return nil
}

// History returns the concatenated histories of the stages.
func (s *Sequence[T]) History() History {
	var h History
	for _, st := range s.stages {
		h = append(h, st.History()...)
	}
	return h
}

// Name implements Inverter.
func (s *Sequence[T]) Name() string {
	names := make([]string, len(s.stages))
	for i, st := range s.stages {
		names[i] = st.Name()
	}
	return "sequence(" + strings.Join(names, ", ") + ")"
}

// Clone implements Inverter.
func (s *Sequence[T]) Clone() Inverter[T] {
	stages := make([]Inverter[T], len(s.stages))
	for i, st := range s.stages {
		stages[i] = st.Clone()
	}
	return NewSequence(stages...)
}

// ResidualMonitor is a diagnostic stage that logs the relative residual of the
// running approximation without changing it.
type ResidualMonitor[T lattice.Scalar] struct {
	op  operator.Operator[T]
	tag string
	settings

	r    *lattice.Field[T]
	last float64
}

// CalculateResidual returns a monitor reporting |src - A dst|/|src| under tag.
func CalculateResidual[T lattice.Scalar](op operator.Operator[T], tag string, opts ...Option) *ResidualMonitor[T] {
	return &ResidualMonitor[T]{
		op:       op,
		tag:      tag,
		settings: newSettings("calculate_residual", opts),
		last:     -1,
	}
}

// Apply implements Inverter. dst is not modified.
func (p *ResidualMonitor[T]) Apply(dst, src *lattice.Field[T]) error {
	if p.r == nil || !p.r.Compatible(src) {
		p.r = src.Like()
	}
	operator.Residual(p.op, p.r, dst, src)
	bnorm := src.Norm()
	if bnorm == 0 {
		bnorm = 1
	}
	p.last = p.r.Norm() / bnorm
	p.logger.Info().Str("tag", p.tag).Float64("residual", p.last).Msg("calculate_residual")
	return nil
}

// Last returns the most recent relative residual, or -1 before the first
// call.
func (p *ResidualMonitor[T]) Last() float64 { return p.last }

// History implements Inverter. A monitor records no solves.
func (p *ResidualMonitor[T]) History() History { return nil }

// Name implements Inverter.
func (p *ResidualMonitor[T]) Name() string { return p.name + "(" + p.tag + ")" }

// Clone implements Inverter.
func (p *ResidualMonitor[T]) Clone() Inverter[T] {
	return &ResidualMonitor[T]{op: p.op, tag: p.tag, settings: p.settings, last: -1}
}
