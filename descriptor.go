package collectas

import (
	"fmt"
	"reflect"
	"strings"
)

// Descriptor describes the wanted output container at any level of detail.
// Descriptors are immutable; chain methods return modified copies.
//
//	collectas.Slice()                                  // some []E, E inferred
//	collectas.Slice().Elem(reflect.TypeFor[float64]()) // []float64
//	collectas.Slice().Dims(2)                          // [][]E
//	collectas.Buffer().Extents(2, 3)                   // [2][3]E
//	collectas.Of[map[string]struct{}]()                // exactly that set type
type Descriptor struct {
	kind    Kind
	elem    reflect.Type
	dims    int
	extents []int
	pos     []reflect.Type
	tag     any
	exact   reflect.Type
	bottom  bool
	bad     string
}

// Set describes map[E]struct{}.
func Set() Descriptor { return Descriptor{kind: KindSet, dims: AnyDims} }

// Slice describes growable slices: []E, or nested slices when Dims > 1. Its
// kind is KindSequence.
func Slice() Descriptor { return Descriptor{kind: KindSequence, dims: AnyDims} }

// Buffer describes fixed-size arrays: [N]E, or nested arrays when Dims > 1.
func Buffer() Descriptor { return Descriptor{kind: KindBuffer, dims: AnyDims} }

// TupleOf describes a Tuple. When types are given they pin the arity and the
// type of each position; a nil entry leaves that position unconstrained.
func TupleOf(types ...reflect.Type) Descriptor {
	d := Descriptor{kind: KindTuple, dims: AnyDims}
	if len(types) > 0 {
		d.pos = append([]reflect.Type(nil), types...)
	}
	return d
}

// Extension describes a container kind registered under tag's type with
// RegisterKind.
func Extension(tag any) Descriptor {
	return Descriptor{kind: KindExtension, dims: AnyDims, tag: tag}
}

// Of describes exactly the Go type T.
func Of[T any]() Descriptor { return TypeOf(reflect.TypeFor[T]()) }

// TypeOf describes exactly the Go type t:
//   - []E and nested slices are Sequence, one dimension per slice level;
//   - [N]E and nested arrays are Buffer with the array lengths as extents;
//   - map[E]struct{} is Set;
//   - Tuple is Tuple with unconstrained positions;
//   - *E is a zero-dimensional Sequence of E.
//
// Named types are honored: the result is converted to t. Nothing describes no
// container at all and fails with EmptyTypeTarget when used.
func TypeOf(t reflect.Type) Descriptor {
	d := Descriptor{dims: AnyDims, exact: t}
	switch {
	case t == nil:
		d.bad = "nil type"
		return d
	case t == nothingType:
		d.bottom = true
		return d
	case t == tupleType:
		d.kind = KindTuple
		return d
	}
	switch t.Kind() {
	case reflect.Slice:
		d.kind = KindSequence
		d.elem, d.dims = t, 0
		for d.elem.Kind() == reflect.Slice {
			d.elem = d.elem.Elem()
			d.dims++
		}
	case reflect.Array:
		d.kind = KindBuffer
		d.elem = t
		for d.elem.Kind() == reflect.Array {
			d.extents = append(d.extents, d.elem.Len())
			d.elem = d.elem.Elem()
		}
		d.dims = len(d.extents)
	case reflect.Map:
		if t.Elem() != emptyStructType {
			d.bad = "maps other than map[E]struct{} are not containers"
			return d
		}
		d.kind = KindSet
		d.elem = t.Key()
	case reflect.Pointer:
		d.kind = KindSequence
		d.elem, d.dims = t.Elem(), 0
	default:
		d.bad = "not a container type"
	}
	return d
}

// Elem pins the element type. Nil or Placeholder leaves it unspecified.
func (d Descriptor) Elem(t reflect.Type) Descriptor {
	d.elem = t
	d.exact = nil
	return d
}

// Dims pins the dimension count. AnyDims leaves it unspecified.
func (d Descriptor) Dims(n int) Descriptor {
	d.dims = n
	d.exact = nil
	return d
}

// Extents pins the extent of every dimension, outermost first. Without a
// prior Dims call the dimension count becomes len(extents).
func (d Descriptor) Extents(extents ...int) Descriptor {
	d.extents = append([]int{}, extents...)
	d.exact = nil
	return d
}

// Kind returns the container kind.
func (d Descriptor) Kind() Kind { return d.kind }

// ElemType returns the pinned element type as written, or nil.
func (d Descriptor) ElemType() reflect.Type { return d.elem }

// Rank returns the pinned dimension count.
func (d Descriptor) Rank() (int, bool) {
	switch {
	case d.dims != AnyDims:
		return d.dims, true
	case d.extents != nil:
		return len(d.extents), true
	}
	return 0, false
}

// Shape returns a copy of the pinned extents, or nil.
func (d Descriptor) Shape() []int {
	if d.extents == nil {
		return nil
	}
	return append([]int{}, d.extents...)
}

// Positions returns a copy of the pinned tuple position types, or nil.
func (d Descriptor) Positions() []reflect.Type {
	return append([]reflect.Type(nil), d.pos...)
}

// Tag returns the extension tag, or nil.
func (d Descriptor) Tag() any { return d.tag }

// Type returns the exact Go type for descriptors built with Of/TypeOf.
func (d Descriptor) Type() reflect.Type { return d.exact }

func (d Descriptor) String() string {
	if d.exact != nil {
		return d.exact.String()
	}
	b := &strings.Builder{}
	b.WriteString(d.kind.String())
	switch d.kind {
	case KindTuple:
		if d.pos != nil {
			names := make([]string, len(d.pos))
			for i, p := range d.pos {
				names[i] = typeName(p)
			}
			fmt.Fprintf(b, "(%s)", strings.Join(names, ", "))
		}
		return b.String()
	case KindExtension:
		fmt.Fprintf(b, "[%T]", d.tag)
	}
	if d.elem != nil {
		fmt.Fprintf(b, " of %s", d.elem)
	}
	if d.extents != nil {
		fmt.Fprintf(b, " %v", d.extents)
	} else if d.dims != AnyDims {
		fmt.Fprintf(b, " dims=%d", d.dims)
	}
	return b.String()
}
