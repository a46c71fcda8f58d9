// Package accum holds the reflect-backed accumulators the container builders
// fill: a slice and a set, each either pinned to a fixed element type or
// widening its working element type as new runtime types arrive.
package accum

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/reoring/collectas/internal/lattice"
)

// ErrConvert marks an element that cannot be represented in the element type.
var ErrConvert = errors.New("accum: element not representable")

// ErrNotComparable marks a set element whose runtime value cannot be a map key.
var ErrNotComparable = errors.New("accum: element not comparable")

// ConvertError describes a failed element move.
type ConvertError struct {
	Value  any
	Target reflect.Type
	Err    error
}

func (e *ConvertError) Error() string {
	return fmt.Sprintf("%v (%T) into %v: %v", e.Value, e.Value, e.Target, e.Err)
}

func (e *ConvertError) Unwrap() error { return e.Err }

var emptyStruct = reflect.TypeFor[struct{}]()

// joinValue joins the working type with the type of v; nil joins through
// JoinNil so a registered interface can hold it.
func joinValue(lat *lattice.Lattice, work reflect.Type, v any) reflect.Type {
	if v == nil {
		return lat.JoinNil(work)
	}
	return lat.Join(work, lattice.TypeOf(v))
}

// Slice accumulates elements into a reflect slice.
type Slice struct {
	lat       *lattice.Lattice
	elem      reflect.Type
	buf       reflect.Value
	fixed     bool
	widenings int
}

// NewFixedSlice returns a slice accumulator pinned to elem. capHint
// preallocates when non-negative.
func NewFixedSlice(lat *lattice.Lattice, elem reflect.Type, capHint int) *Slice {
	if capHint < 0 {
		capHint = 0
	}
	return &Slice{
		lat:   lat,
		elem:  elem,
		buf:   reflect.MakeSlice(reflect.SliceOf(elem), 0, capHint),
		fixed: true,
	}
}

// NewWideningSlice returns a slice accumulator whose element type is set by
// the first element and widened by later ones.
func NewWideningSlice(lat *lattice.Lattice) *Slice { return &Slice{lat: lat} }

// NewSeededSlice returns a widening slice accumulator whose working element
// type starts at elem instead of the first element's type.
func NewSeededSlice(lat *lattice.Lattice, elem reflect.Type, capHint int) *Slice {
	s := NewFixedSlice(lat, elem, capHint)
	s.fixed = false
	return s
}

// Add appends v, widening the working element type when v does not fit.
func (s *Slice) Add(v any) error {
	rv := reflect.ValueOf(v)
	if !s.fixed {
		t := lattice.TypeOf(v)
		switch {
		case s.elem == nil:
			s.elem = t
			s.buf = reflect.MakeSlice(reflect.SliceOf(t), 0, 8)
		case !s.lat.Fits(s.elem, t):
			if j := joinValue(s.lat, s.elem, v); j != s.elem {
				s.widenOrAny(j)
			}
		}
	}
	cv, ok := s.lat.Convert(rv, s.elem)
	if !ok && !s.fixed {
		// a numeric join can still lose digits, e.g. int64 above 2^53 in float64
		s.widenOrAny(lattice.AnyType)
		cv, ok = s.lat.Convert(rv, s.elem)
	}
	if !ok {
		return &ConvertError{Value: v, Target: s.elem, Err: ErrConvert}
	}
	s.buf = reflect.Append(s.buf, cv)
	return nil
}

// widenOrAny widens to the join, or to any when an accumulated value does not
// survive the move.
func (s *Slice) widenOrAny(to reflect.Type) {
	if s.widen(to) != nil {
		// any holds every value, so this cannot fail
		_ = s.widen(lattice.AnyType)
	}
}

func (s *Slice) widen(to reflect.Type) error {
	n := s.buf.Len()
	next := reflect.MakeSlice(reflect.SliceOf(to), n, max(2*n, 8))
	for i := 0; i < n; i++ {
		cv, ok := s.lat.Convert(s.buf.Index(i), to)
		if !ok {
			return &ConvertError{Value: s.buf.Index(i).Interface(), Target: to, Err: ErrConvert}
		}
		next.Index(i).Set(cv)
	}
	s.buf = next
	s.elem = to
	s.widenings++
	return nil
}

// Len returns the number of accumulated elements.
func (s *Slice) Len() int {
	if !s.buf.IsValid() {
		return 0
	}
	return s.buf.Len()
}

// Elem returns the current element type; nil before the first Add of a
// widening accumulator.
func (s *Slice) Elem() reflect.Type { return s.elem }

// Widenings counts reallocations caused by widening.
func (s *Slice) Widenings() int { return s.widenings }

// Value returns the accumulated slice. A widening accumulator that never
// received an element returns a zero-length slice of fallback.
func (s *Slice) Value(fallback reflect.Type) reflect.Value {
	if !s.buf.IsValid() {
		return reflect.MakeSlice(reflect.SliceOf(fallback), 0, 0)
	}
	return s.buf
}

// Set accumulates distinct elements into a reflect map[E]struct{}.
type Set struct {
	lat       *lattice.Lattice
	elem      reflect.Type
	m         reflect.Value
	fixed     bool
	widenings int
}

// NewFixedSet returns a set accumulator pinned to elem.
func NewFixedSet(lat *lattice.Lattice, elem reflect.Type, sizeHint int) *Set {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &Set{
		lat:   lat,
		elem:  elem,
		m:     reflect.MakeMapWithSize(reflect.MapOf(elem, emptyStruct), sizeHint),
		fixed: true,
	}
}

// NewWideningSet returns a set accumulator typed by its elements.
func NewWideningSet(lat *lattice.Lattice) *Set { return &Set{lat: lat} }

// NewSeededSet returns a widening set accumulator starting at elem.
func NewSeededSet(lat *lattice.Lattice, elem reflect.Type, sizeHint int) *Set {
	s := NewFixedSet(lat, elem, sizeHint)
	s.fixed = false
	return s
}

// Add inserts v. Duplicates under the current element type collapse.
func (s *Set) Add(v any) error {
	rv := reflect.ValueOf(v)
	if rv.IsValid() && !rv.Comparable() {
		return &ConvertError{Value: v, Target: s.elem, Err: ErrNotComparable}
	}
	if !s.fixed {
		t := lattice.TypeOf(v)
		switch {
		case s.elem == nil:
			s.elem = t
			s.m = reflect.MakeMap(reflect.MapOf(t, emptyStruct))
		case !s.lat.Fits(s.elem, t):
			if j := joinValue(s.lat, s.elem, v); j != s.elem {
				s.widenOrAny(j)
			}
		}
	}
	cv, ok := s.lat.Convert(rv, s.elem)
	if !ok && !s.fixed {
		s.widenOrAny(lattice.AnyType)
		cv, ok = s.lat.Convert(rv, s.elem)
	}
	if !ok {
		return &ConvertError{Value: v, Target: s.elem, Err: ErrConvert}
	}
	s.m.SetMapIndex(cv, reflect.Zero(emptyStruct))
	return nil
}

func (s *Set) widenOrAny(to reflect.Type) {
	if s.widen(to) != nil {
		_ = s.widen(lattice.AnyType)
	}
}

func (s *Set) widen(to reflect.Type) error {
	next := reflect.MakeMapWithSize(reflect.MapOf(to, emptyStruct), s.m.Len())
	it := s.m.MapRange()
	for it.Next() {
		cv, ok := s.lat.Convert(it.Key(), to)
		if !ok {
			return &ConvertError{Value: it.Key().Interface(), Target: to, Err: ErrConvert}
		}
		next.SetMapIndex(cv, reflect.Zero(emptyStruct))
	}
	s.m = next
	s.elem = to
	s.widenings++
	return nil
}

// Len returns the number of distinct elements.
func (s *Set) Len() int {
	if !s.m.IsValid() {
		return 0
	}
	return s.m.Len()
}

// Elem returns the current element type.
func (s *Set) Elem() reflect.Type { return s.elem }

// Widenings counts reallocations caused by widening.
func (s *Set) Widenings() int { return s.widenings }

// Value returns the accumulated map, or an empty map keyed by fallback.
func (s *Set) Value(fallback reflect.Type) reflect.Value {
	if !s.m.IsValid() {
		return reflect.MakeMap(reflect.MapOf(fallback, emptyStruct))
	}
	return s.m
}
