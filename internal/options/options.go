// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package options decodes flat sets of named options, such as the parameter
// maps of solvers and multigrid setups, into typed values.
//
// Values are decoded with mapstructure without weak typing: a number is not
// read as a string nor a string as a number. Integral floats, as produced by
// YAML and JSON decoders, are accepted where integers are expected.
//
// A Set records the first problem it encounters. Unknown options are reported
// by Err once all known options have been read.
package options

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/go-viper/mapstructure/v2"

	"github.com/saintbenjamin/gpt/lattice"
)

// Set is a named option map being decoded for one component.
type Set struct {
	component string
	m         map[string]any
	seen      map[string]bool
	err       error
}

// New returns a Set decoding m for the named component.
func New(component string, m map[string]any) *Set {
	return &Set{
		component: component,
		m:         m,
		seen:      make(map[string]bool),
	}
}

func (s *Set) fail(key, format string, a ...any) {
	if s.err == nil {
		s.err = lattice.NewConfigError(s.component, key, format, a...)
	}
}

func (s *Set) lookup(key string, required bool) (any, bool) {
	s.seen[key] = true
	v, ok := s.m[key]
	if !ok {
		if required {
			s.fail(key, "missing required option")
		}
		return nil, false
	}
	if v == nil {
		s.fail(key, "missing value")
		return nil, false
	}
	return v, true
}

// Has reports whether key is present.
func (s *Set) Has(key string) bool {
	_, ok := s.m[key]
	return ok
}

// integral rejects floats with a fractional part where an integer is wanted.
func integral(_, to reflect.Type, data any) (any, error) {
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return data, nil
	}
	var f float64
	switch x := data.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	default:
		return data, nil
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("expected an integer, got %v", f)
	}
	return data, nil
}

func decode[V any](v any) (V, error) {
	var out V
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  integral,
		ErrorUnused: true,
		Result:      &out,
	})
	if err != nil {
		return out, err
	}
	err = dec.Decode(v)
	return out, err
}

// get decodes the option key into dst.
func get[V any](s *Set, key string, dst *V, required bool) {
	v, ok := s.lookup(key, required)
	if !ok {
		return
	}
	x, err := decode[V](v)
	if err != nil {
		s.fail(key, "%v", err)
		return
	}
	*dst = x
}

// Float stores the option key into dst. A missing option leaves dst unchanged
// unless required is true.
func (s *Set) Float(key string, dst *float64, required bool) { get(s, key, dst, required) }

// Int stores the integer option key into dst.
func (s *Set) Int(key string, dst *int, required bool) { get(s, key, dst, required) }

// Bool stores the boolean option key into dst.
func (s *Set) Bool(key string, dst *bool, required bool) { get(s, key, dst, required) }

// String stores the string option key into dst.
func (s *Set) String(key string, dst *string, required bool) { get(s, key, dst, required) }

// Floats stores the list option key into dst.
func (s *Set) Floats(key string, dst *[]float64, required bool) { get(s, key, dst, required) }

// IntLists stores the nested integer list option key into dst.
func (s *Set) IntLists(key string, dst *[][]int, required bool) { get(s, key, dst, required) }

// Ints stores the option key, given either as a single integer or as a list
// of n integers, into dst. A single value is repeated n times.
func (s *Set) Ints(key string, dst *[]int, n int, required bool) {
	perLevel(s, key, dst, n, required)
}

// Bools is Ints for booleans.
func (s *Set) Bools(key string, dst *[]bool, n int, required bool) {
	perLevel(s, key, dst, n, required)
}

// Strings is Ints for strings.
func (s *Set) Strings(key string, dst *[]string, n int, required bool) {
	perLevel(s, key, dst, n, required)
}

// Maps is Ints for nested option maps.
func (s *Set) Maps(key string, dst *[]map[string]any, n int, required bool) {
	perLevel(s, key, dst, n, required)
}

func perLevel[V any](s *Set, key string, dst *[]V, n int, required bool) {
	v, ok := s.lookup(key, required)
	if !ok {
		return
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		list, err := decode[[]V](v)
		if err != nil {
			s.fail(key, "%v", err)
			return
		}
		if len(list) != n {
			s.fail(key, "expected %d values, got %d", n, len(list))
			return
		}
		*dst = list
	default:
		x, err := decode[V](v)
		if err != nil {
			s.fail(key, "%v", err)
			return
		}
		out := make([]V, n)
		for i := range out {
			out[i] = x
		}
		*dst = out
	}
}

// Map returns the nested option map stored under key.
func (s *Set) Map(key string, required bool) map[string]any {
	var m map[string]any
	get(s, key, &m, required)
	return m
}

// Skip marks key as known without decoding it.
func (s *Set) Skip(key string) {
	s.seen[key] = true
}

// Err returns the first decoding error or, if there was none, an error naming
// the first unknown option in lexical order.
func (s *Set) Err() error {
	if s.err != nil {
		return s.err
	}
	var unknown []string
	for k := range s.m {
		if !s.seen[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return lattice.NewConfigError(s.component, unknown[0], "unknown option")
	}
	return nil
}
