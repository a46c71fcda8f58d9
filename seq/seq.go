// Package seq builds collectas.Sequence values that declare their element
// type, length, shape and finiteness, and wrappers that transform or
// re-declare another sequence while forwarding what it declares.
package seq

import (
	"fmt"
	"io"
	"iter"
	"reflect"

	"github.com/reoring/collectas"
)

// ---- finite sources ----

type sliceSeq[T any] struct {
	vals []T
	i    int
}

// Of returns a finite sequence over vals declaring element type T and the
// length of vals. The slice itself is exposed as the sequence's value.
func Of[T any](vals ...T) collectas.Sequence {
	if vals == nil {
		vals = []T{}
	}
	return &sliceSeq[T]{vals: vals}
}

// Values returns a finite sequence over vals declaring element type any.
func Values(vals ...any) collectas.Sequence { return Of(vals...) }

func (s *sliceSeq[T]) Next() (any, error) {
	if s.i >= len(s.vals) {
		return nil, io.EOF
	}
	v := s.vals[s.i]
	s.i++
	return v, nil
}

func (s *sliceSeq[T]) ElemType() reflect.Type { return reflect.TypeFor[T]() }
func (s *sliceSeq[T]) Len() int               { return len(s.vals) }
func (s *sliceSeq[T]) Value() any             { return s.vals }

type emptySeq struct{ elem reflect.Type }

// Empty returns an empty sequence declaring element type t. A nil t declares
// nothing.
func Empty(t reflect.Type) collectas.Sequence { return emptySeq{elem: t} }

// None returns an empty sequence declaring collectas.Nothing, i.e. proven
// empty of any value.
func None() collectas.Sequence { return Empty(reflect.TypeFor[collectas.Nothing]()) }

func (emptySeq) Next() (any, error)       { return nil, io.EOF }
func (e emptySeq) ElemType() reflect.Type { return e.elem }
func (emptySeq) Len() int                 { return 0 }

// ---- open-ended sources ----

type chanSeq[T any] struct{ ch <-chan T }

// Chan returns a sequence receiving from ch until it is closed.
func Chan[T any](ch <-chan T) collectas.Sequence { return chanSeq[T]{ch: ch} }

func (c chanSeq[T]) Next() (any, error) {
	v, ok := <-c.ch
	if !ok {
		return nil, io.EOF
	}
	return v, nil
}

func (c chanSeq[T]) ElemType() reflect.Type           { return reflect.TypeFor[T]() }
func (c chanSeq[T]) Finiteness() collectas.Finiteness { return collectas.FiniteUnknown }
func (c chanSeq[T]) Producer() any                    { return c.ch }

type iterSeq[T any] struct {
	it   iter.Seq[T]
	next func() (T, bool)
	stop func()
}

// Iter returns a sequence pulling from it. CollectAs closes the sequence,
// which stops the iterator early when the build does not drain it.
func Iter[T any](it iter.Seq[T]) collectas.Sequence {
	next, stop := iter.Pull(it)
	return &iterSeq[T]{it: it, next: next, stop: stop}
}

func (s *iterSeq[T]) Next() (any, error) {
	v, ok := s.next()
	if !ok {
		return nil, io.EOF
	}
	return v, nil
}

func (s *iterSeq[T]) ElemType() reflect.Type { return reflect.TypeFor[T]() }
func (s *iterSeq[T]) Producer() any          { return s.it }
func (s *iterSeq[T]) Close() error {
	s.stop()
	return nil
}

type funcSeq struct {
	next func() (any, bool)
}

// Func returns a sequence calling next until it reports false. Nothing is
// declared about the elements.
func Func(next func() (any, bool)) collectas.Sequence { return funcSeq{next: next} }

func (f funcSeq) Next() (any, error) {
	v, ok := f.next()
	if !ok {
		return nil, io.EOF
	}
	return v, nil
}

func (f funcSeq) Producer() any { return f.next }

// ---- infinite sources ----

type repeatSeq struct{ v any }

// Repeat returns an infinite sequence of v.
func Repeat(v any) collectas.Sequence { return repeatSeq{v: v} }

func (r repeatSeq) Next() (any, error)             { return r.v, nil }
func (r repeatSeq) ElemType() reflect.Type         { return reflect.TypeOf(r.v) }
func (repeatSeq) Finiteness() collectas.Finiteness { return collectas.Infinite }

// Number is the element constraint of Count.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64
}

type countSeq[T Number] struct{ cur, step T }

// Count returns the infinite sequence start, start+step, start+2*step, ...
func Count[T Number](start, step T) collectas.Sequence {
	return &countSeq[T]{cur: start, step: step}
}

func (c *countSeq[T]) Next() (any, error) {
	v := c.cur
	c.cur += c.step
	return v, nil
}

func (c *countSeq[T]) ElemType() reflect.Type           { return reflect.TypeFor[T]() }
func (c *countSeq[T]) Finiteness() collectas.Finiteness { return collectas.Infinite }

// ---- wrappers ----

// forward exposes the declarations of an inner sequence. Wrappers embed it
// and shadow what they change.
type forward struct {
	inner collectas.Sequence
	info  collectas.SequenceInfo
}

func newForward(s collectas.Sequence) forward {
	return forward{inner: s, info: collectas.Inspect(s)}
}

func (f forward) Next() (any, error) { return f.inner.Next() }
func (f forward) Producer() any      { return f.inner }
func (f forward) Close() error {
	if c, ok := f.inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type declared struct {
	forward
	elem reflect.Type
}

// Declare re-declares the element type of s. Length, shape, finiteness and the
// underlying value are forwarded.
func Declare(s collectas.Sequence, t reflect.Type) collectas.Sequence {
	return declared{forward: newForward(s), elem: t}
}

func (d declared) ElemType() reflect.Type           { return d.elem }
func (d declared) Len() int                         { return d.info.Len }
func (d declared) Shape() []int                     { return d.info.Shape }
func (d declared) Finiteness() collectas.Finiteness { return d.info.Finiteness }
func (d declared) Value() any                       { return d.info.Value }

type shaped struct {
	forward
	extents []int
}

// Shape declares row-major extents for s. Element type and finiteness are
// forwarded; the length becomes the product of the extents.
func Shape(s collectas.Sequence, extents ...int) collectas.Sequence {
	return shaped{forward: newForward(s), extents: append([]int{}, extents...)}
}

func (s shaped) ElemType() reflect.Type { return s.info.Elem }
func (s shaped) Shape() []int           { return append([]int{}, s.extents...) }
func (s shaped) Len() int {
	n := 1
	for _, e := range s.extents {
		n *= e
	}
	return n
}
func (s shaped) Finiteness() collectas.Finiteness {
	if s.info.Finiteness == collectas.Infinite {
		return collectas.Infinite
	}
	return collectas.FiniteKnown
}

type mapped[T, U any] struct {
	forward
	fn func(T) U
	i  int
}

// Map applies fn to every element of s and declares element type U. Length,
// shape and finiteness are forwarded. An element that is not a T fails with an
// element_conversion issue.
func Map[T, U any](s collectas.Sequence, fn func(T) U) collectas.Sequence {
	return &mapped[T, U]{forward: newForward(s), fn: fn}
}

func (m *mapped[T, U]) Next() (any, error) {
	v, err := m.inner.Next()
	if err != nil {
		return nil, err
	}
	i := m.i
	m.i++
	t, ok := v.(T)
	if !ok && !(v == nil && nilable(reflect.TypeFor[T]())) {
		return nil, collectas.Issues{collectas.IssueAt(collectas.IndexPath(i), collectas.CodeElementConversion,
			fmt.Sprintf("cannot map %v (%T) as %v", v, v, reflect.TypeFor[T]()),
			map[string]any{"value": v, "target": reflect.TypeFor[T]().String()})}
	}
	return m.fn(t), nil
}

func (m *mapped[T, U]) ElemType() reflect.Type           { return reflect.TypeFor[U]() }
func (m *mapped[T, U]) Len() int                         { return m.info.Len }
func (m *mapped[T, U]) Shape() []int                     { return m.info.Shape }
func (m *mapped[T, U]) Finiteness() collectas.Finiteness { return m.info.Finiteness }
func (m *mapped[T, U]) Producer() any                    { return m.fn }

func nilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

type taken struct {
	forward
	n, seen int
}

// Take yields at most n elements of s. Taking from an infinite sequence is
// finite with length n.
func Take(s collectas.Sequence, n int) collectas.Sequence {
	return &taken{forward: newForward(s), n: max(n, 0)}
}

func (t *taken) Next() (any, error) {
	if t.seen >= t.n {
		return nil, io.EOF
	}
	v, err := t.inner.Next()
	if err != nil {
		return nil, err
	}
	t.seen++
	return v, nil
}

func (t *taken) ElemType() reflect.Type { return t.info.Elem }
func (t *taken) Len() int {
	switch {
	case t.info.Finiteness == collectas.Infinite:
		return t.n
	case t.info.Len >= 0:
		return min(t.n, t.info.Len)
	}
	return -1
}
func (t *taken) Finiteness() collectas.Finiteness {
	if t.Len() >= 0 {
		return collectas.FiniteKnown
	}
	return collectas.FiniteUnknown
}
