package collectas

import (
	"fmt"
	"reflect"
	"strings"

	json "github.com/goccy/go-json"
)

// Tuple is an immutable fixed-arity aggregate whose positions keep their own
// types. The zero Tuple has arity 0.
type Tuple struct {
	vals []any
}

// NewTuple copies vals into a Tuple.
func NewTuple(vals ...any) Tuple {
	return Tuple{vals: append([]any(nil), vals...)}
}

// Len returns the arity.
func (t Tuple) Len() int { return len(t.vals) }

// At returns position i. It panics when i is out of range, like indexing.
func (t Tuple) At(i int) any { return t.vals[i] }

// Values returns a copy of the positions.
func (t Tuple) Values() []any { return append([]any(nil), t.vals...) }

// Types returns the runtime type of each position; nil positions report nil.
func (t Tuple) Types() []reflect.Type {
	out := make([]reflect.Type, len(t.vals))
	for i, v := range t.vals {
		out[i] = reflect.TypeOf(v)
	}
	return out
}

// Equal reports whether both tuples have the same arity and deeply equal
// positions.
func (t Tuple) Equal(o Tuple) bool {
	if len(t.vals) != len(o.vals) {
		return false
	}
	for i := range t.vals {
		if !reflect.DeepEqual(t.vals[i], o.vals[i]) {
			return false
		}
	}
	return true
}

func (t Tuple) String() string {
	b := &strings.Builder{}
	b.WriteByte('(')
	for i, v := range t.vals {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "%v", v)
	}
	if len(t.vals) == 1 {
		b.WriteByte(',')
	}
	b.WriteByte(')')
	return b.String()
}

// MarshalJSON encodes the positions as a JSON array.
func (t Tuple) MarshalJSON() ([]byte, error) {
	if t.vals == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t.vals)
}

// matches reports whether every position already has its pinned type.
func (t Tuple) matches(positions []reflect.Type) bool {
	if positions == nil {
		return true
	}
	if len(positions) != len(t.vals) {
		return false
	}
	for i, p := range positions {
		if p == nil {
			continue
		}
		rt := reflect.TypeOf(t.vals[i])
		if p.Kind() == reflect.Interface && (rt == nil || rt.Implements(p)) {
			continue
		}
		if rt != p {
			return false
		}
	}
	return true
}
