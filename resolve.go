package collectas

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/reoring/collectas/internal/accum"
	"github.com/reoring/collectas/internal/lattice"
	"github.com/reoring/collectas/internal/stream"
)

// call carries the state of one CollectAs invocation.
type call struct {
	class Class
	orig  Sequence // the sequence as handed in, for policies
	seq   Sequence // remaining elements; may hold a peeked element
	info  SequenceInfo
	opt   CollectOpt
	lat   *lattice.Lattice
	shape shapePlan
}

type elemMode int

const (
	elemDeferred elemMode = iota // working type comes from the first element
	elemPinned                   // descriptor type; convert or fail
	elemSeeded                   // declared or policy type; widen from it
)

type elemPlan struct {
	t    reflect.Type
	mode elemMode
}

type shapePlan struct {
	dims    int
	extents []int // target extents; nil when only the element count can tell
}

type elemStep func(c *call) (elemPlan, error)

type shapeStep func(c *call) (shapePlan, error)

// pinnedElem uses the descriptor's element type without looking at the
// sequence.
func pinnedElem(c *call) (elemPlan, error) {
	return elemPlan{t: c.class.Elem, mode: elemPinned}, nil
}

// resolvedElem settles the element type when the descriptor leaves it open:
// a precise declared type is trusted as the starting point, an empty sequence
// asks the policy, anything else defers to the builder.
func resolvedElem(c *call) (elemPlan, error) {
	if c.info.Precise() {
		return elemPlan{t: c.info.Elem, mode: elemSeeded}, nil
	}
	rest, _, ok, err := stream.Peek(c.seq)
	if err != nil {
		return elemPlan{}, elementIssue(0, err)
	}
	if !ok {
		t, err := applyEmptyPolicy(c.opt.Empty, c.orig)
		if err != nil {
			return elemPlan{}, err
		}
		return elemPlan{t: t, mode: elemSeeded}, nil
	}
	c.seq = rest
	return elemPlan{mode: elemDeferred}, nil
}

// inferredShape takes the dimension count from the declared shape, or 1.
func inferredShape(c *call) (shapePlan, error) {
	if c.info.Shape == nil {
		return shapePlan{dims: 1}, nil
	}
	return shapePlan{dims: len(c.info.Shape), extents: slices.Clone(c.info.Shape)}, nil
}

// pinnedShape checks the descriptor's dimension count against the declared
// shape. A request for one dimension accepts any declared dimension count of
// at least one and flattens row-major.
func pinnedShape(c *call) (shapePlan, error) {
	want, ext := c.class.Dims, c.class.Extents
	rank := c.info.Rank()
	switch {
	case want == 1:
		if rank == 0 {
			return shapePlan{}, dimensionMismatch(want, rank)
		}
		if ext != nil {
			if n := c.info.Size(); n >= 0 && n != ext[0] {
				return shapePlan{}, dimensionMismatch(ext, []int{n})
			}
		}
		return shapePlan{dims: 1, extents: ext}, nil
	case want == 0:
		// a one-dimensional source of a single element is a valid scalar;
		// the element count is checked while building
		if rank >= 2 {
			return shapePlan{}, dimensionMismatch(want, rank)
		}
		return shapePlan{dims: 0, extents: []int{}}, nil
	}
	if rank >= 0 && rank != want {
		return shapePlan{}, dimensionMismatch(want, rank)
	}
	if ext != nil {
		if rank == want && !slices.Equal(ext, c.info.Shape) {
			return shapePlan{}, dimensionMismatch(ext, c.info.Shape)
		}
		return shapePlan{dims: want, extents: ext}, nil
	}
	if rank < 0 {
		return shapePlan{}, dimensionMismatch(want, "undeclared")
	}
	return shapePlan{dims: want, extents: slices.Clone(c.info.Shape)}, nil
}

func dimensionMismatch(want, got any) error {
	return failAt("", CodeDimensionMismatch, nil, map[string]any{
		"want": fmt.Sprint(want),
		"got":  fmt.Sprint(got),
	})
}

// identityTarget returns the fully resolved runtime type of the result when it
// can be known without consuming the sequence, or nil.
func (c *call) identityTarget() reflect.Type {
	if c.class.Exact != nil {
		return c.class.Exact
	}
	elem := c.class.Elem
	if elem == nil {
		if !c.info.Precise() {
			return nil
		}
		elem = c.info.Elem
	}
	switch c.class.Kind {
	case KindSet:
		if !elem.Comparable() {
			return nil
		}
		return reflect.MapOf(elem, emptyStructType)
	case KindSequence:
		if c.shape.dims == 0 {
			return reflect.PointerTo(elem)
		}
		return accum.SliceType(elem, c.shape.dims)
	case KindBuffer:
		if c.shape.dims == 0 {
			return reflect.PointerTo(elem)
		}
		ext := c.shape.extents
		if ext == nil && c.shape.dims == 1 && c.info.Size() >= 0 {
			ext = []int{c.info.Size()}
		}
		if len(ext) != c.shape.dims {
			return nil
		}
		return accum.ArrayType(elem, ext)
	}
	return nil
}

// identity returns a shallow copy of the sequence's own container when it
// already has the target type.
func (c *call) identity() (reflect.Value, bool) {
	if !c.info.HasValue || c.info.Value == nil {
		return reflect.Value{}, false
	}
	target := c.identityTarget()
	if target == nil || reflect.TypeOf(c.info.Value) != target {
		return reflect.Value{}, false
	}
	return accum.ShallowCopy(reflect.ValueOf(c.info.Value)), true
}
