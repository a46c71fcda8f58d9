package collectas_test

import (
	"errors"
	"io"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/reoring/collectas"
)

// lastKind keeps the final three elements of the input, in order.
type lastKind struct{}

type last3 [3]any

func buildLast3(_ collectas.Descriptor, s collectas.Sequence) (any, error) {
	var out last3
	n := 0
	for {
		v, err := s.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		copy(out[:], out[1:])
		out[2] = v
		n++
	}
	if n < 3 {
		return nil, collectas.Issues{collectas.IssueAt("", collectas.CodeArity, "need at least 3 elements", map[string]any{"want": 3, "got": n})}
	}
	return out, nil
}

func init() { collectas.MustRegisterKind(lastKind{}, buildLast3) }

func TestExtension_Dispatch(t *testing.T) {
	v, err := collectas.CollectAs(collectas.Extension(lastKind{}), []int{1, 2, 3, 4, 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != (last3{3, 4, 5}) {
		t.Fatalf("got %v", v)
	}
	_, err = collectas.CollectAs(collectas.Extension(lastKind{}), []int{1})
	if !errors.Is(err, collectas.ErrArity) {
		t.Fatalf("builder issues pass through, got %v", err)
	}
}

func TestExtension_InfiniteRejectedFirst(t *testing.T) {
	p := &tracker{infinite: true}
	_, err := collectas.CollectAs(collectas.Extension(lastKind{}), p)
	if !errors.Is(err, collectas.ErrInfiniteSequence) || p.pulled != 0 {
		t.Fatalf("got %v after %d pulls", err, p.pulled)
	}
}

func TestRegisterKind_Rejections(t *testing.T) {
	if err := collectas.RegisterKind(lastKind{}, buildLast3); !errors.Is(err, collectas.ErrDuplicateKind) {
		t.Fatalf("duplicate: %v", err)
	}
	for _, tag := range []any{nil, struct{}{}, time.Duration(0), collectas.Tuple{}} {
		if err := collectas.RegisterKind(tag, buildLast3); !errors.Is(err, collectas.ErrKindTag) {
			t.Fatalf("%T: want ErrKindTag, got %v", tag, err)
		}
	}
	type localKind struct{}
	if err := collectas.RegisterKind(localKind{}, nil); err == nil {
		t.Fatalf("nil builder accepted")
	}
}

func TestKinds_ListsRegistered(t *testing.T) {
	if !slices.Contains(collectas.Kinds(), reflect.TypeFor[lastKind]()) {
		t.Fatalf("Kinds() = %v", collectas.Kinds())
	}
	if _, ok := collectas.LookupKind(lastKind{}); !ok {
		t.Fatalf("LookupKind failed")
	}
	if _, ok := collectas.LookupKind(nil); ok {
		t.Fatalf("LookupKind(nil) succeeded")
	}
}
