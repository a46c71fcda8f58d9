package collectas

import (
	"reflect"
	"slices"
)

// Class is the normalized verdict on a Descriptor. Spelling variants that mean
// the same thing (Placeholder vs no element type, AnyDims vs no Dims call)
// classify identically.
type Class struct {
	Kind      Kind
	Elem      reflect.Type   // nil when unspecified
	Dims      int            // AnyDims when unspecified
	Extents   []int          // nil unless pinned
	Positions []reflect.Type // tuple positions; nil entries are unconstrained
	Tag       any
	Exact     reflect.Type // the exact Go type for Of/TypeOf descriptors
}

// HasElem reports whether the element type is pinned.
func (c Class) HasElem() bool { return c.Elem != nil }

// HasShape reports whether the dimension count is pinned.
func (c Class) HasShape() bool { return c.Dims != AnyDims }

// Classify normalizes d and reports its kind, element type and shape. It is a
// pure function of d. Failures are UnrecognizedDescriptor or EmptyTypeTarget
// issues.
func Classify(d Descriptor) (Class, error) {
	if d.bottom {
		return Class{}, failAt("", CodeEmptyTypeTarget, nil, map[string]any{"type": nothingType.String()})
	}
	if d.bad != "" {
		return Class{}, unrecognized(d, d.bad)
	}
	c := Class{Kind: d.kind, Elem: d.elem, Dims: d.dims, Tag: d.tag, Exact: d.exact}
	if c.Elem == placeholderType {
		c.Elem = nil
	}
	switch c.Kind {
	case KindSet, KindSequence, KindBuffer, KindTuple, KindExtension:
	default:
		return Class{}, unrecognized(d, "unknown container kind")
	}
	if c.Dims < AnyDims {
		return Class{}, unrecognized(d, "negative dimension count")
	}
	if d.extents != nil {
		if slices.ContainsFunc(d.extents, func(e int) bool { return e < 0 }) {
			return Class{}, unrecognized(d, "negative extent")
		}
		if c.Dims != AnyDims && c.Dims != len(d.extents) {
			return Class{}, unrecognized(d, "extents disagree with dimension count")
		}
		c.Dims = len(d.extents)
		c.Extents = slices.Clone(d.extents)
	}
	switch c.Kind {
	case KindSet:
		if c.HasShape() {
			return Class{}, unrecognized(d, "set has no shape")
		}
		if c.Elem != nil && !c.Elem.Comparable() {
			return Class{}, unrecognized(d, "set element type is not comparable")
		}
	case KindTuple:
		if c.HasShape() {
			return Class{}, unrecognized(d, "tuple has no shape")
		}
		if c.Elem != nil {
			return Class{}, unrecognized(d, "tuple positions keep their own types")
		}
		if d.pos != nil {
			c.Positions = make([]reflect.Type, len(d.pos))
			for i, p := range d.pos {
				if p != placeholderType {
					c.Positions[i] = p
				}
			}
		}
	case KindExtension:
		if c.Tag == nil {
			return Class{}, unrecognized(d, "extension without tag")
		}
		if _, ok := LookupKind(c.Tag); !ok {
			return Class{}, unrecognized(d, "extension kind not registered")
		}
	}
	return c, nil
}

func unrecognized(d Descriptor, reason string) error {
	return failAt("", CodeUnrecognizedDescriptor, nil, map[string]any{
		"descriptor": d.String(),
		"reason":     reason,
	})
}

// routeKey selects a builder once the descriptor is classified.
type routeKey struct {
	kind     Kind
	hasElem  bool
	hasShape bool
}

func (c Class) route() routeKey {
	return routeKey{kind: c.Kind, hasElem: c.HasElem(), hasShape: c.HasShape()}
}
