// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inverter

import (
	"fmt"

	"github.com/saintbenjamin/gpt/lattice"
)

// MixedPrecision applies an inverter working in precision I to fields in
// precision O. The guess and the right-hand side are rounded to I and the
// result is converted back, once per call.
type MixedPrecision[O, I lattice.Scalar] struct {
	inner Inverter[I]
	dst   *lattice.Field[I]
	src   *lattice.Field[I]
	nconv int
}

// NewMixedPrecision wraps inner.
func NewMixedPrecision[O, I lattice.Scalar](inner Inverter[I]) *MixedPrecision[O, I] {
	return &MixedPrecision[O, I]{inner: inner}
}

// Apply implements Inverter.
func (mp *MixedPrecision[O, I]) Apply(dst, src *lattice.Field[O]) error {
	if mp.src == nil || mp.src.NComp != src.NComp || !mp.src.Grid.SameShape(src.Grid) {
		g := src.Grid.Converted(lattice.PrecisionOf[I]())
		mp.src = lattice.NewField[I](g, src.NComp)
		mp.dst = lattice.NewField[I](g, src.NComp)
	}
	if err := lattice.Convert(mp.src, src); err != nil {
		return fmt.Errorf("mixed precision: %w", err)
	}
	if err := lattice.Convert(mp.dst, dst); err != nil {
		return fmt.Errorf("mixed precision: %w", err)
	}
	if err := mp.inner.Apply(mp.dst, mp.src); err != nil {
		return err
	}
	mp.nconv++
	return lattice.Convert(dst, mp.dst)
}

// Conversions returns the number of completed round trips.
func (mp *MixedPrecision[O, I]) Conversions() int { return mp.nconv }

// Inner returns the wrapped inverter.
func (mp *MixedPrecision[O, I]) Inner() Inverter[I] { return mp.inner }

// History returns the history of the inner inverter.
func (mp *MixedPrecision[O, I]) History() History { return mp.inner.History() }

// Name implements Inverter.
func (mp *MixedPrecision[O, I]) Name() string {
	return fmt.Sprintf("mixed_precision(%s, %v, %v)", mp.inner.Name(), lattice.PrecisionOf[I](), lattice.PrecisionOf[O]())
}

// Clone implements Inverter.
func (mp *MixedPrecision[O, I]) Clone() Inverter[O] {
	return NewMixedPrecision[O](mp.inner.Clone())
}
