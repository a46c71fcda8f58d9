package collectas

import (
	"fmt"
	"reflect"

	"github.com/reoring/collectas/internal/accum"
)

// CollectAs collects src into a container described by d.
//
// src is anything From accepts. The call owns src: it is consumed at most once
// and closed when it implements io.Closer. On failure no partial result is
// returned; the error is Issues (see the Code constants) or the error of a
// non-default EmptyPolicy, verbatim.
//
// Steps, in order:
//   - a sequence declared Infinite is rejected before any element is read;
//   - d is classified (UnrecognizedDescriptor, EmptyTypeTarget);
//   - extension kinds are handed to their registered builder;
//   - the dimension count is settled (DimensionMismatch);
//   - when the sequence's own container already has the resolved target type,
//     a shallow copy of it is returned without converting anything;
//   - otherwise the builder for the kind consumes the sequence.
func CollectAs(d Descriptor, src any, opts ...CollectOpt) (any, error) {
	v, err := collect(d, src, mergeOpts(opts))
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// Collector fixes the descriptor and returns a function taking only the
// source. Options given at call time are applied after the ones given here.
func Collector(d Descriptor, opts ...CollectOpt) func(src any, opts ...CollectOpt) (any, error) {
	base := append([]CollectOpt(nil), opts...)
	return func(src any, more ...CollectOpt) (any, error) {
		all := make([]CollectOpt, 0, len(base)+len(more))
		all = append(append(all, base...), more...)
		return CollectAs(d, src, all...)
	}
}

// Into collects src into exactly the Go type T, see Of.
func Into[T any](src any, opts ...CollectOpt) (T, error) {
	var zero T
	v, err := collect(Of[T](), src, mergeOpts(opts))
	if err != nil {
		return zero, err
	}
	out, ok := v.Interface().(T)
	if !ok {
		return zero, failAt("", CodeInvalidType, nil, map[string]any{"want": reflect.TypeFor[T]().String(), "got": v.Type().String()})
	}
	return out, nil
}

func collect(d Descriptor, src any, opt CollectOpt) (_ reflect.Value, err error) {
	seq, err := From(src)
	if err != nil {
		return reflect.Value{}, err
	}
	defer func() {
		if cerr := closeSeq(seq); cerr != nil && err == nil {
			err = failAt("", CodeParseError, cerr, nil)
		}
	}()

	info := Inspect(seq)
	if info.Finiteness == Infinite {
		return reflect.Value{}, failAt("", CodeInfiniteSequence, nil, map[string]any{"descriptor": d.String()})
	}
	class, err := Classify(d)
	if err != nil {
		return reflect.Value{}, err
	}
	if class.Kind == KindExtension {
		return collectExtension(d, class, seq)
	}
	lat, err := opt.lattice()
	if err != nil {
		return reflect.Value{}, err
	}
	c := &call{class: class, orig: seq, seq: seq, info: info, opt: opt, lat: lat}

	r, ok := routes[class.route()]
	if !ok {
		return reflect.Value{}, unrecognized(d, "no builder for "+class.Kind.String())
	}
	if r.shape != nil {
		if c.shape, err = r.shape(c); err != nil {
			return reflect.Value{}, err
		}
	}
	if class.Kind != KindTuple {
		if v, ok := c.identity(); ok {
			return v, nil
		}
	}
	var e elemPlan
	if r.elem != nil {
		if e, err = r.elem(c); err != nil {
			return reflect.Value{}, err
		}
	}
	v, err := r.build(c, e)
	if err != nil {
		return reflect.Value{}, err
	}
	return retype(v, class.Exact)
}

func collectExtension(d Descriptor, class Class, seq Sequence) (reflect.Value, error) {
	b, ok := LookupKind(class.Tag)
	if !ok {
		return reflect.Value{}, unrecognized(d, "extension kind not registered")
	}
	out, err := b(d, seq)
	if err != nil {
		return reflect.Value{}, err
	}
	if out == nil {
		return reflect.Value{}, fmt.Errorf("collectas: extension %T returned nil", class.Tag)
	}
	return reflect.ValueOf(out), nil
}

// retype converts a built container to the exact named type requested with
// Of/TypeOf.
func retype(v reflect.Value, exact reflect.Type) (reflect.Value, error) {
	if exact == nil || v.Type() == exact {
		return v, nil
	}
	out, ok := accum.Retype(v, exact)
	if !ok {
		return reflect.Value{}, failAt("", CodeElementConversion, nil, map[string]any{
			"value":  "result",
			"type":   v.Type().String(),
			"target": exact.String(),
		})
	}
	return out, nil
}
