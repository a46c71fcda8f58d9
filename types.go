package collectas

import (
	"reflect"

	"github.com/reoring/collectas/internal/lattice"
)

// Kind is the coarse container family a Descriptor asks for.
type Kind int

const (
	KindInvalid   Kind = iota // Zero Descriptor; always rejected.
	KindSet                   // map[E]struct{}
	KindSequence              // []E, [][]E, ...; *E when zero-dimensional
	KindBuffer                // [N]E, [R][C]E, ...; *E when zero-dimensional
	KindTuple                 // Tuple
	KindExtension             // registered through RegisterKind
)

func (k Kind) String() string {
	switch k {
	case KindSet:
		return "set"
	case KindSequence:
		return "sequence"
	case KindBuffer:
		return "buffer"
	case KindTuple:
		return "tuple"
	case KindExtension:
		return "extension"
	default:
		return "invalid"
	}
}

// Finiteness is the declared finiteness class of a Sequence.
type Finiteness int

const (
	FiniteUnknown Finiteness = iota // Finite, length not known up front.
	FiniteKnown                     // Finite with a declared length or shape.
	Infinite                        // Never ends; rejected before consumption.
)

func (f Finiteness) String() string {
	switch f {
	case FiniteKnown:
		return "finite"
	case Infinite:
		return "infinite"
	default:
		return "finite-unknown"
	}
}

// AnyDims leaves the dimension count of a Descriptor unspecified.
const AnyDims = -1

// Nothing is the uninhabited type. No value implements it, so a container
// whose element type is Nothing is proven empty. Naming Nothing as the output
// type itself is an EmptyTypeTarget error.
type Nothing interface{ nothing() }

// Placeholder spells out "any element type" explicitly. Descriptor.Elem with
// Placeholder is the same as not calling Elem at all.
type Placeholder interface{ placeholder() }

var (
	nothingType     = reflect.TypeFor[Nothing]()
	placeholderType = reflect.TypeFor[Placeholder]()
	tupleType       = reflect.TypeFor[Tuple]()
	emptyStructType = reflect.TypeFor[struct{}]()
)

// CollectOpt bundles per-call options. Options are merged left to right;
// non-zero fields of later values win.
type CollectOpt struct {
	// Empty decides the element type of an empty sequence whose element type
	// is neither pinned by the descriptor nor precisely declared. Nil means
	// FailPolicy.
	Empty EmptyPolicy
	// Interfaces registers supertypes used to join otherwise unrelated element
	// types (for example the interface shared by a set of tagged variants),
	// tried in order. Non-interface types are rejected as invalid_type.
	Interfaces []reflect.Type
}

func mergeOpts(opts []CollectOpt) CollectOpt {
	var out CollectOpt
	for _, o := range opts {
		if o.Empty != nil {
			out.Empty = o.Empty
		}
		if o.Interfaces != nil {
			out.Interfaces = o.Interfaces
		}
	}
	if out.Empty == nil {
		out.Empty = FailPolicy
	}
	return out
}

func (o CollectOpt) lattice() (*lattice.Lattice, error) {
	for _, t := range o.Interfaces {
		if t == nil || t.Kind() != reflect.Interface {
			return nil, Issues{issueAt("", CodeInvalidType, nil, map[string]any{"interface": typeName(t)})}
		}
	}
	return lattice.New(lattice.WithBottom(nothingType), lattice.WithInterfaces(o.Interfaces...)), nil
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
