package collectas

import (
	"reflect"
)

// EmptyPolicy decides the element type of an empty sequence when neither the
// descriptor nor a precise declared element type settles it. Its error is
// returned to the caller of CollectAs verbatim.
type EmptyPolicy interface {
	ElemTypeForEmpty(seq Sequence) (reflect.Type, error)
}

// EmptyPolicyFunc adapts a function to EmptyPolicy.
type EmptyPolicyFunc func(seq Sequence) (reflect.Type, error)

func (f EmptyPolicyFunc) ElemTypeForEmpty(seq Sequence) (reflect.Type, error) { return f(seq) }

var (
	// FailPolicy is the default: it always fails with empty_elem_undetermined.
	FailPolicy EmptyPolicy = failPolicy{}

	// InferPolicy guesses the element type from what produces the sequence:
	// the element type declared further down a chain of wrappers, the result
	// type of a producing function, the yield type of an iter.Seq or the
	// element type of a channel. The first concrete type found wins.
	//
	// The answer depends on how the sequence happens to be assembled and may
	// change as producers or the runtime evolve. Do not use it where the
	// result type must be deterministic.
	InferPolicy EmptyPolicy = inferPolicy{}
)

type failPolicy struct{}

func (failPolicy) ElemTypeForEmpty(Sequence) (reflect.Type, error) {
	return nil, failAt("", CodeEmptyElemUndetermined, nil, nil)
}

type inferPolicy struct{}

// maxProducerDepth bounds the walk through wrapper chains.
const maxProducerDepth = 32

func (inferPolicy) ElemTypeForEmpty(seq Sequence) (reflect.Type, error) {
	if t := inferElem(seq, 0); t != nil {
		return t, nil
	}
	return nil, failAt("", CodeEmptyElemUndetermined, nil, map[string]any{"policy": "infer"})
}

func inferElem(v any, depth int) reflect.Type {
	if v == nil || depth > maxProducerDepth {
		return nil
	}
	if s, ok := v.(Sequence); ok {
		if et, ok := s.(ElemTyped); ok && precise(et.ElemType()) {
			return et.ElemType()
		}
		if p, ok := s.(Producer); ok {
			return inferElem(p.Producer(), depth+1)
		}
		return nil
	}
	t := reflect.TypeOf(v)
	switch t.Kind() {
	case reflect.Chan:
		return concrete(t.Elem())
	case reflect.Func:
		if yt, ok := iterSeqElem(t); ok {
			return concrete(yt)
		}
		if t.NumOut() > 0 {
			return concrete(t.Out(0))
		}
	}
	return nil
}

func concrete(t reflect.Type) reflect.Type {
	if precise(t) {
		return t
	}
	return nil
}

// applyEmptyPolicy runs p on an empty sequence. A policy that answers with no
// type and no error counts as undetermined.
func applyEmptyPolicy(p EmptyPolicy, seq Sequence) (reflect.Type, error) {
	t, err := p.ElemTypeForEmpty(seq)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, failAt("", CodeEmptyElemUndetermined, nil, nil)
	}
	return t, nil
}
