package collectas

import (
	"errors"
	"io"
	"iter"
	"reflect"
)

// Sequence is a single-pass pull producer of elements. Next returns io.EOF
// once the sequence is exhausted. Once handed to CollectAs the sequence is
// owned by the call and must not be reused.
//
// A Sequence may additionally implement any of ElemTyped, Sized, Shaped,
// Bounded, Valued, Producer and io.Closer. They are discovered by type
// assertion before the first element is pulled.
type Sequence interface {
	Next() (any, error)
}

// ElemTyped declares the element type. The declaration may be imprecise (an
// interface such as any); a nil type means undeclared.
type ElemTyped interface {
	ElemType() reflect.Type
}

// Sized declares the number of elements. A negative length means undeclared.
type Sized interface {
	Len() int
}

// Shaped declares row-major extents. A nil shape means undeclared; an empty
// non-nil shape declares a zero-dimensional (single element) sequence.
type Shaped interface {
	Shape() []int
}

// Bounded declares the finiteness class.
type Bounded interface {
	Finiteness() Finiteness
}

// Valued exposes the concrete container behind the sequence, so a container
// that already has the requested type can be copied instead of rebuilt.
type Valued interface {
	Value() any
}

// Producer exposes what produces the elements (a function, a channel or an
// inner Sequence). Only the best-effort InferPolicy looks at it.
type Producer interface {
	Producer() any
}

// SequenceInfo is what a Sequence declares about itself.
type SequenceInfo struct {
	Elem       reflect.Type // nil when undeclared
	Len        int          // -1 when undeclared
	Shape      []int        // nil when undeclared
	Finiteness Finiteness
	Value      any
	HasValue   bool
}

// Precise reports whether the declared element type is a concrete type or
// Nothing, and can therefore be trusted without looking at elements.
func (i SequenceInfo) Precise() bool { return precise(i.Elem) }

// Rank returns the declared dimension count, or -1 when no shape is declared.
func (i SequenceInfo) Rank() int {
	if i.Shape == nil {
		return -1
	}
	return len(i.Shape)
}

// Size returns the declared element count from Len or Shape, or -1.
func (i SequenceInfo) Size() int {
	if i.Len >= 0 {
		return i.Len
	}
	if i.Shape != nil {
		n := 1
		for _, e := range i.Shape {
			n *= e
		}
		return n
	}
	return -1
}

func precise(t reflect.Type) bool {
	return t != nil && (t == nothingType || t.Kind() != reflect.Interface)
}

// Inspect reads the declared capabilities of s without consuming it.
func Inspect(s Sequence) SequenceInfo {
	info := SequenceInfo{Len: -1}
	if et, ok := s.(ElemTyped); ok {
		info.Elem = et.ElemType()
	}
	if sz, ok := s.(Sized); ok {
		if n := sz.Len(); n >= 0 {
			info.Len = n
		}
	}
	if sh, ok := s.(Shaped); ok {
		if ext := sh.Shape(); ext != nil {
			info.Shape = append([]int{}, ext...)
		}
	}
	switch b, ok := s.(Bounded); {
	case ok:
		info.Finiteness = b.Finiteness()
	case info.Len >= 0 || info.Shape != nil:
		info.Finiteness = FiniteKnown
	default:
		info.Finiteness = FiniteUnknown
	}
	if v, ok := s.(Valued); ok {
		info.Value, info.HasValue = v.Value(), true
	}
	return info
}

// From adapts a Go value to a Sequence:
//   - a Sequence is returned as is;
//   - Tuple yields its positions in order;
//   - slices and arrays yield their elements; rectangular nested slices and
//     arrays are flattened row-major and declare their shape, ragged ones
//     yield their direct elements;
//   - map[E]struct{} yields its keys;
//   - channels yield received values until closed;
//   - iter.Seq[E] functions yield their values;
//   - a non-nil pointer is a zero-dimensional sequence of its target.
//
// Anything else fails with an invalid_type issue.
func From(v any) (Sequence, error) {
	switch x := v.(type) {
	case nil:
		return nil, failAt("", CodeInvalidType, nil, map[string]any{"type": "<nil>"})
	case Sequence:
		return x, nil
	case Tuple:
		return &tupleSeq{t: x}, nil
	}
	rv := reflect.ValueOf(v)
	t := rv.Type()
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return newGridSeq(rv), nil
	case reflect.Map:
		if t.Elem() == emptyStructType {
			return &setSeq{v: rv, it: rv.MapRange()}, nil
		}
	case reflect.Chan:
		if t.ChanDir()&reflect.RecvDir != 0 {
			return &chanSeq{ch: rv}, nil
		}
	case reflect.Func:
		if yt, ok := iterSeqElem(t); ok {
			return newIterSeq(rv, yt), nil
		}
	case reflect.Pointer:
		if !rv.IsNil() {
			return &scalarSeq{p: rv}, nil
		}
	}
	return nil, failAt("", CodeInvalidType, nil, map[string]any{"type": t.String()})
}

// iterSeqElem reports whether t has the shape of iter.Seq[E] and returns E.
func iterSeqElem(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() != reflect.Func || t.NumIn() != 1 || t.NumOut() != 0 {
		return nil, false
	}
	y := t.In(0)
	if y.Kind() != reflect.Func || y.NumIn() != 1 || y.NumOut() != 1 || y.Out(0).Kind() != reflect.Bool {
		return nil, false
	}
	return y.In(0), true
}

// gridSeq walks a slice or array, flattening rectangular nesting row-major.
type gridSeq struct {
	v     reflect.Value
	shape []int
	elem  reflect.Type
	idx   []int
	done  bool
}

func newGridSeq(v reflect.Value) *gridSeq {
	shape, elem := gridShape(v)
	g := &gridSeq{v: v, shape: shape, elem: elem, idx: make([]int, len(shape))}
	for _, e := range shape {
		if e == 0 {
			g.done = true
		}
	}
	return g
}

// gridShape returns the extents of v when every nested slice or array level is
// rectangular, else the one-dimensional shape of v itself.
func gridShape(v reflect.Value) ([]int, reflect.Type) {
	depth := 0
	elem := v.Type()
	for elem.Kind() == reflect.Slice || elem.Kind() == reflect.Array {
		elem = elem.Elem()
		depth++
	}
	shape := make([]int, depth)
	if rectangular(v, shape, 0, make([]bool, depth)) {
		return shape, elem
	}
	return []int{v.Len()}, v.Type().Elem()
}

func rectangular(v reflect.Value, shape []int, level int, seen []bool) bool {
	if level == len(shape) {
		return true
	}
	n := v.Len()
	if seen[level] && shape[level] != n {
		return false
	}
	shape[level], seen[level] = n, true
	for i := 0; i < n; i++ {
		if !rectangular(v.Index(i), shape, level+1, seen) {
			return false
		}
	}
	return true
}

func (g *gridSeq) Next() (any, error) {
	if g.done {
		return nil, io.EOF
	}
	cur := g.v
	for _, i := range g.idx {
		cur = cur.Index(i)
	}
	// odometer advance, last axis fastest
	for k := len(g.idx) - 1; ; k-- {
		if k < 0 {
			g.done = true
			break
		}
		g.idx[k]++
		if g.idx[k] < g.shape[k] {
			break
		}
		g.idx[k] = 0
	}
	return cur.Interface(), nil
}

func (g *gridSeq) ElemType() reflect.Type { return g.elem }
func (g *gridSeq) Len() int {
	n := 1
	for _, e := range g.shape {
		n *= e
	}
	return n
}
func (g *gridSeq) Shape() []int { return append([]int{}, g.shape...) }
func (g *gridSeq) Value() any   { return g.v.Interface() }

type setSeq struct {
	v  reflect.Value
	it *reflect.MapIter
}

func (s *setSeq) Next() (any, error) {
	if !s.it.Next() {
		return nil, io.EOF
	}
	return s.it.Key().Interface(), nil
}

func (s *setSeq) ElemType() reflect.Type { return s.v.Type().Key() }
func (s *setSeq) Len() int               { return s.v.Len() }
func (s *setSeq) Value() any             { return s.v.Interface() }

type chanSeq struct{ ch reflect.Value }

func (c *chanSeq) Next() (any, error) {
	v, ok := c.ch.Recv()
	if !ok {
		return nil, io.EOF
	}
	return v.Interface(), nil
}

func (c *chanSeq) ElemType() reflect.Type { return c.ch.Type().Elem() }
func (c *chanSeq) Producer() any          { return c.ch.Interface() }

// iterSeq pulls from an iter.Seq[E] of any element type through reflection.
type iterSeq struct {
	fn   reflect.Value
	elem reflect.Type
	next func() (any, bool)
	stop func()
}

func newIterSeq(fn reflect.Value, elem reflect.Type) *iterSeq {
	yieldType := fn.Type().In(0)
	erased := func(yield func(any) bool) {
		y := reflect.MakeFunc(yieldType, func(args []reflect.Value) []reflect.Value {
			return []reflect.Value{reflect.ValueOf(yield(args[0].Interface()))}
		})
		fn.Call([]reflect.Value{y})
	}
	next, stop := iter.Pull(iter.Seq[any](erased))
	return &iterSeq{fn: fn, elem: elem, next: next, stop: stop}
}

func (s *iterSeq) Next() (any, error) {
	v, ok := s.next()
	if !ok {
		return nil, io.EOF
	}
	return v, nil
}

func (s *iterSeq) ElemType() reflect.Type { return s.elem }
func (s *iterSeq) Producer() any          { return s.fn.Interface() }
func (s *iterSeq) Close() error {
	s.stop()
	return nil
}

// scalarSeq is the zero-dimensional sequence behind a pointer.
type scalarSeq struct {
	p    reflect.Value
	done bool
}

func (s *scalarSeq) Next() (any, error) {
	if s.done {
		return nil, io.EOF
	}
	s.done = true
	return s.p.Elem().Interface(), nil
}

func (s *scalarSeq) ElemType() reflect.Type { return s.p.Type().Elem() }
func (s *scalarSeq) Len() int               { return 1 }
func (s *scalarSeq) Shape() []int           { return []int{} }
func (s *scalarSeq) Value() any             { return s.p.Interface() }

type tupleSeq struct {
	t Tuple
	i int
}

func (s *tupleSeq) Next() (any, error) {
	if s.i >= s.t.Len() {
		return nil, io.EOF
	}
	v := s.t.At(s.i)
	s.i++
	return v, nil
}

func (s *tupleSeq) Len() int   { return s.t.Len() }
func (s *tupleSeq) Value() any { return s.t }

// closeSeq releases s when it holds resources, ignoring sequences that do not.
func closeSeq(s Sequence) error {
	if c, ok := s.(io.Closer); ok {
		if err := c.Close(); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
	}
	return nil
}
