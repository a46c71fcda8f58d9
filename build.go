package collectas

import (
	"errors"
	"reflect"
	"strconv"

	"github.com/reoring/collectas/internal/accum"
	"github.com/reoring/collectas/internal/stream"
)

// route is one row of the dispatch table: how to settle the shape, how to
// settle the element type, and which builder consumes the sequence.
type route struct {
	shape shapeStep // nil for kinds without shape
	elem  elemStep  // nil for kinds without a single element type
	build func(c *call, e elemPlan) (reflect.Value, error)
}

var routes = map[routeKey]route{
	{KindSet, true, false}:  {elem: pinnedElem, build: buildSet},
	{KindSet, false, false}: {elem: resolvedElem, build: buildSet},

	{KindSequence, true, true}:   {shape: pinnedShape, elem: pinnedElem, build: buildSequence},
	{KindSequence, true, false}:  {shape: inferredShape, elem: pinnedElem, build: buildSequence},
	{KindSequence, false, true}:  {shape: pinnedShape, elem: resolvedElem, build: buildSequence},
	{KindSequence, false, false}: {shape: inferredShape, elem: resolvedElem, build: buildSequence},

	{KindBuffer, true, true}:   {shape: pinnedShape, elem: pinnedElem, build: buildBuffer},
	{KindBuffer, true, false}:  {shape: inferredShape, elem: pinnedElem, build: buildBuffer},
	{KindBuffer, false, true}:  {shape: pinnedShape, elem: resolvedElem, build: buildBuffer},
	{KindBuffer, false, false}: {shape: inferredShape, elem: resolvedElem, build: buildBuffer},

	{KindTuple, false, false}: {build: buildTuple},
}

// drain pulls the remaining elements into a slice accumulator chosen by the
// element plan. A positive limit stops after that many elements.
func drain(c *call, e elemPlan, limit int) (*accum.Slice, error) {
	var acc *accum.Slice
	hint := c.info.Size()
	if limit > 0 {
		hint = limit
	}
	switch e.mode {
	case elemPinned:
		acc = accum.NewFixedSlice(c.lat, e.t, hint)
	case elemSeeded:
		acc = accum.NewSeededSlice(c.lat, e.t, hint)
	default:
		acc = accum.NewWideningSlice(c.lat)
	}
	n := 0
	err := stream.Each(c.seq, func(_ int, v any) (bool, error) {
		if err := acc.Add(v); err != nil {
			return false, err
		}
		n++
		return limit <= 0 || n < limit, nil
	})
	if err != nil {
		return nil, elementIssue(n, err)
	}
	return acc, nil
}

func fallbackElem(e elemPlan) reflect.Type {
	if e.t != nil {
		return e.t
	}
	return nothingType
}

func buildSequence(c *call, e elemPlan) (reflect.Value, error) {
	if c.shape.dims == 0 {
		return buildScalar(c, e)
	}
	acc, err := drain(c, e, 0)
	if err != nil {
		return reflect.Value{}, err
	}
	flat := acc.Value(fallbackElem(e))
	if c.shape.dims == 1 {
		if ext := c.shape.extents; ext != nil && flat.Len() != ext[0] {
			return reflect.Value{}, dimensionMismatch(ext, []int{flat.Len()})
		}
		return flat, nil
	}
	return reshape(flat, c.shape.extents)
}

func reshape(flat reflect.Value, extents []int) (reflect.Value, error) {
	out, err := accum.Reshape(flat, extents)
	if errors.Is(err, accum.ErrShape) {
		return reflect.Value{}, dimensionMismatch(extents, flat.Len())
	}
	return out, err
}

func buildBuffer(c *call, e elemPlan) (reflect.Value, error) {
	if c.shape.dims == 0 {
		return buildScalar(c, e)
	}
	acc, err := drain(c, e, 0)
	if err != nil {
		return reflect.Value{}, err
	}
	flat := acc.Value(fallbackElem(e))
	ext := c.shape.extents
	if ext == nil {
		ext = []int{flat.Len()}
	}
	nested, err := reshape(flat, ext)
	if err != nil {
		return reflect.Value{}, err
	}
	arr, err := accum.ToArray(nested, flat.Type().Elem(), ext)
	if errors.Is(err, accum.ErrShape) {
		return reflect.Value{}, dimensionMismatch(ext, flat.Len())
	}
	return arr, err
}

// buildScalar wraps the only element of the sequence in a pointer. Reading
// stops at the second element.
func buildScalar(c *call, e elemPlan) (reflect.Value, error) {
	acc, err := drain(c, e, 2)
	if err != nil {
		return reflect.Value{}, err
	}
	if n := acc.Len(); n != 1 {
		got := "0"
		if n > 1 {
			got = "more than 1"
		}
		return reflect.Value{}, failAt("", CodeArity, nil, map[string]any{"want": 1, "got": got})
	}
	flat := acc.Value(nil)
	p := reflect.New(flat.Type().Elem())
	p.Elem().Set(flat.Index(0))
	return p, nil
}

func buildSet(c *call, e elemPlan) (reflect.Value, error) {
	if e.t != nil && !e.t.Comparable() {
		return reflect.Value{}, failAt("", CodeElementConversion, accum.ErrNotComparable, map[string]any{
			"value":  "elements",
			"type":   e.t.String(),
			"target": "set",
		})
	}
	var acc *accum.Set
	switch e.mode {
	case elemPinned:
		acc = accum.NewFixedSet(c.lat, e.t, c.info.Size())
	case elemSeeded:
		acc = accum.NewSeededSet(c.lat, e.t, c.info.Size())
	default:
		acc = accum.NewWideningSet(c.lat)
	}
	n := 0
	err := stream.Each(c.seq, func(_ int, v any) (bool, error) {
		if err := acc.Add(v); err != nil {
			return false, err
		}
		n++
		return true, nil
	})
	if err != nil {
		return reflect.Value{}, elementIssue(n, err)
	}
	return acc.Value(fallbackElem(e)), nil
}

// buildTuple keeps each position's own type. A Tuple that already satisfies
// the pinned positions is returned as is; tuples are immutable.
func buildTuple(c *call, _ elemPlan) (reflect.Value, error) {
	pos := c.class.Positions
	if t, ok := c.info.Value.(Tuple); ok && t.matches(pos) {
		return reflect.ValueOf(t), nil
	}
	var vals []any
	err := stream.Each(c.seq, func(_ int, v any) (bool, error) {
		vals = append(vals, v)
		return pos == nil || len(vals) <= len(pos), nil
	})
	if err != nil {
		return reflect.Value{}, elementIssue(len(vals), err)
	}
	if pos == nil {
		return reflect.ValueOf(Tuple{vals: vals}), nil
	}
	if len(vals) != len(pos) {
		got := any(len(vals))
		if len(vals) > len(pos) {
			got = "more than " + strconv.Itoa(len(pos))
		}
		return reflect.Value{}, failAt("", CodeArity, nil, map[string]any{"want": len(pos), "got": got})
	}
	for i, p := range pos {
		if p == nil {
			continue
		}
		cv, ok := c.lat.Convert(reflect.ValueOf(vals[i]), p)
		if !ok {
			return reflect.Value{}, elementIssue(i, &accum.ConvertError{Value: vals[i], Target: p, Err: accum.ErrConvert})
		}
		vals[i] = cv.Interface()
	}
	return reflect.ValueOf(Tuple{vals: vals}), nil
}
