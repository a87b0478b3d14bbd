// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lattice

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is matched by every ConfigurationError.
	ErrConfiguration = errors.New("lattice: invalid configuration")
	// ErrPrecisionConversion is matched by every PrecisionConversionError.
	ErrPrecisionConversion = errors.New("lattice: precision conversion failed")
	// ErrOrthogonality is matched by every OrthogonalityViolation.
	ErrOrthogonality = errors.New("lattice: basis is not block orthonormal")
)

// ConfigurationError reports an invalid, unknown or missing option.
type ConfigurationError struct {
	// Component is the object being configured, for example "fgmres".
	Component string
	// Option is the name of the offending option.
	Option string
	// Reason explains what is wrong with it.
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Component == "" {
		return fmt.Sprintf("configuration: option %q: %s", e.Option, e.Reason)
	}
	return fmt.Sprintf("configuration: %s: option %q: %s", e.Component, e.Option, e.Reason)
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// NewConfigError returns a ConfigurationError with a formatted reason.
func NewConfigError(component, option, format string, a ...any) error {
	return &ConfigurationError{Component: component, Option: option, Reason: fmt.Sprintf(format, a...)}
}

// PrecisionConversionError reports a layout mismatch between the fields of a
// precision conversion.
type PrecisionConversionError struct {
	Reason string
}

func (e *PrecisionConversionError) Error() string {
	return "precision conversion: " + e.Reason
}

// Is reports whether target is ErrPrecisionConversion.
func (e *PrecisionConversionError) Is(target error) bool { return target == ErrPrecisionConversion }

// OrthogonalityViolation reports a block whose restricted basis vectors are
// not orthonormal to within Tolerance. I == J denotes a norm deviation.
//
// If Dependent is set, vector I lost all but a fraction Deviation of its
// norm to projections on its predecessors, and Tolerance is the fraction
// below which it counts as linearly dependent.
type OrthogonalityViolation struct {
	Block     int
	I, J      int
	Deviation float64
	Tolerance float64
	Dependent bool
}

func (e *OrthogonalityViolation) Error() string {
	if e.Dependent {
		return fmt.Sprintf("orthogonality: block %d: vector %d is linearly dependent: residual fraction %.3g <= %.3g", e.Block, e.I, e.Deviation, e.Tolerance)
	}
	if e.I == e.J {
		return fmt.Sprintf("orthogonality: block %d: vector %d has norm deviation %.3g > %.3g", e.Block, e.I, e.Deviation, e.Tolerance)
	}
	return fmt.Sprintf("orthogonality: block %d: vectors %d and %d overlap by %.3g > %.3g", e.Block, e.I, e.J, e.Deviation, e.Tolerance)
}

// Is reports whether target is ErrOrthogonality.
func (e *OrthogonalityViolation) Is(target error) bool { return target == ErrOrthogonality }
