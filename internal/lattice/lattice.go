// Package lattice implements the element-type join used when a collection has
// to widen its working element type, plus the lossless conversion that moves
// values into a joined type. It knows nothing about containers.
package lattice

import (
	"math"
	"reflect"
)

// AnyType is the top of the lattice.
var AnyType = reflect.TypeFor[any]()

// category orders the numeric families from narrowest to widest.
type category int

const (
	catNone category = iota
	catSigned
	catUnsigned
	catFloat
	catComplex
)

var basicTypes = map[reflect.Kind]reflect.Type{
	reflect.Int:        reflect.TypeFor[int](),
	reflect.Int8:       reflect.TypeFor[int8](),
	reflect.Int16:      reflect.TypeFor[int16](),
	reflect.Int32:      reflect.TypeFor[int32](),
	reflect.Int64:      reflect.TypeFor[int64](),
	reflect.Uint:       reflect.TypeFor[uint](),
	reflect.Uint8:      reflect.TypeFor[uint8](),
	reflect.Uint16:     reflect.TypeFor[uint16](),
	reflect.Uint32:     reflect.TypeFor[uint32](),
	reflect.Uint64:     reflect.TypeFor[uint64](),
	reflect.Uintptr:    reflect.TypeFor[uintptr](),
	reflect.Float32:    reflect.TypeFor[float32](),
	reflect.Float64:    reflect.TypeFor[float64](),
	reflect.Complex64:  reflect.TypeFor[complex64](),
	reflect.Complex128: reflect.TypeFor[complex128](),
}

var signedBySize = map[int]reflect.Type{
	8:  reflect.TypeFor[int8](),
	16: reflect.TypeFor[int16](),
	32: reflect.TypeFor[int32](),
	64: reflect.TypeFor[int64](),
}

// Lattice joins element types. The zero value is not usable; call New.
// A Lattice is immutable after construction and safe for concurrent use.
type Lattice struct {
	bottom reflect.Type
	ifaces []reflect.Type
}

// Option configures a Lattice.
type Option func(*Lattice)

// WithBottom names the uninhabited type. It is the identity element of Join.
func WithBottom(t reflect.Type) Option { return func(l *Lattice) { l.bottom = t } }

// WithInterfaces registers interface supertypes used to join otherwise
// unrelated types, tried in registration order. Non-interface types panic.
func WithInterfaces(ts ...reflect.Type) Option {
	return func(l *Lattice) {
		for _, t := range ts {
			if t == nil || t.Kind() != reflect.Interface {
				panic("lattice: WithInterfaces requires interface types")
			}
			l.ifaces = append(l.ifaces, t)
		}
	}
}

// New builds a Lattice.
func New(opts ...Option) *Lattice {
	l := &Lattice{}
	for _, fn := range opts {
		fn(l)
	}
	return l
}

// Bottom returns the configured uninhabited type, or nil.
func (l *Lattice) Bottom() reflect.Type { return l.bottom }

// Interfaces returns a copy of the registered interface supertypes.
func (l *Lattice) Interfaces() []reflect.Type {
	out := make([]reflect.Type, len(l.ifaces))
	copy(out, l.ifaces)
	return out
}

// TypeOf returns the runtime type of v. A nil interface value has no type of
// its own and is reported as AnyType.
func TypeOf(v any) reflect.Type {
	if v == nil {
		return AnyType
	}
	return reflect.TypeOf(v)
}

// Fits reports whether a value of runtime type t can be stored in a container
// whose element type is work without widening or conversion. A nil value,
// reported by TypeOf as AnyType, fits every nilable work type except the
// bottom type.
func (l *Lattice) Fits(work, t reflect.Type) bool {
	if work == nil || t == nil {
		return false
	}
	if t == work {
		return true
	}
	if t == AnyType {
		return work != l.bottom && nilable(work.Kind())
	}
	return work.Kind() == reflect.Interface && t.Implements(work)
}

// Join returns the narrowest type able to hold values of both a and b.
// Join is commutative; nil and the bottom type are its identity.
func (l *Lattice) Join(a, b reflect.Type) reflect.Type {
	switch {
	case a == nil || a == l.bottom:
		return b
	case b == nil || b == l.bottom:
		return a
	case a == b:
		return a
	}
	if a.Kind() == reflect.Interface && b.Implements(a) {
		if b.Kind() == reflect.Interface && a.Implements(b) {
			// mutually assignable interfaces; pick deterministically
			if a.String() <= b.String() {
				return a
			}
			return b
		}
		return a
	}
	if b.Kind() == reflect.Interface && a.Implements(b) {
		return b
	}
	if t, ok := numericJoin(a, b); ok {
		return t
	}
	for _, it := range l.ifaces {
		if a.Implements(it) && b.Implements(it) {
			return it
		}
	}
	return AnyType
}

// JoinNil returns the narrowest type able to hold the values of t and nil:
// t itself when nilable, else the first registered interface t implements,
// else AnyType.
func (l *Lattice) JoinNil(t reflect.Type) reflect.Type {
	switch {
	case t == nil || t == l.bottom:
		return AnyType
	case nilable(t.Kind()):
		return t
	}
	for _, it := range l.ifaces {
		if t.Implements(it) {
			return it
		}
	}
	return AnyType
}

// JoinAll folds Join over ts. An empty list joins to nil.
func (l *Lattice) JoinAll(ts ...reflect.Type) reflect.Type {
	var acc reflect.Type
	for _, t := range ts {
		acc = l.Join(acc, t)
	}
	return acc
}

func classOf(t reflect.Type) category {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return catSigned
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return catUnsigned
	case reflect.Float32, reflect.Float64:
		return catFloat
	case reflect.Complex64, reflect.Complex128:
		return catComplex
	default:
		return catNone
	}
}

// sized reports whether k names an explicitly sized numeric kind.
func sized(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Uint, reflect.Uintptr:
		return false
	}
	return true
}

// pickWider returns the predeclared type of the wider operand. On a width tie
// sized kinds win so that int/int64 joins to int64 in either order.
func pickWider(a, b reflect.Type) reflect.Type {
	switch {
	case a.Bits() > b.Bits():
		return basicTypes[a.Kind()]
	case b.Bits() > a.Bits():
		return basicTypes[b.Kind()]
	case a.Kind() == b.Kind():
		return basicTypes[a.Kind()]
	case sized(a.Kind()) && !sized(b.Kind()):
		return basicTypes[a.Kind()]
	case sized(b.Kind()) && !sized(a.Kind()):
		return basicTypes[b.Kind()]
	}
	// uint vs uintptr
	if a.Kind() == reflect.Uint {
		return basicTypes[a.Kind()]
	}
	return basicTypes[b.Kind()]
}

func numericJoin(a, b reflect.Type) (reflect.Type, bool) {
	ca, cb := classOf(a), classOf(b)
	if ca == catNone || cb == catNone {
		return nil, false
	}
	if ca > cb {
		a, b = b, a
		ca, cb = cb, ca
	}
	switch {
	case ca == cb:
		return pickWider(a, b), true
	case ca == catSigned && cb == catUnsigned:
		if b.Bits() >= 64 {
			// no signed type holds both ranges
			return AnyType, true
		}
		w := max(a.Bits(), 2*b.Bits())
		if w == a.Bits() {
			return basicTypes[a.Kind()], true
		}
		return signedBySize[w], true
	case cb == catFloat:
		if b.Bits() == 32 && a.Bits() <= 16 {
			return basicTypes[reflect.Float32], true
		}
		return basicTypes[reflect.Float64], true
	default: // cb == catComplex
		part := b.Bits() / 2
		need := 64
		switch ca {
		case catFloat:
			need = a.Bits()
		default:
			if a.Bits() <= 16 {
				need = 32
			}
		}
		if max(part, need) == 32 {
			return basicTypes[reflect.Complex64], true
		}
		return basicTypes[reflect.Complex128], true
	}
}

func nilable(k reflect.Kind) bool {
	switch k {
	case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

// Convert moves v into type to without losing information. The boolean is
// false when no lossless conversion exists. An invalid v stands for nil.
func (l *Lattice) Convert(v reflect.Value, to reflect.Type) (reflect.Value, bool) {
	if !v.IsValid() {
		if nilable(to.Kind()) {
			return reflect.Zero(to), true
		}
		return reflect.Value{}, false
	}
	from := v.Type()
	if from == to {
		return v, true
	}
	if from.Kind() == reflect.Interface {
		// unwrap boxed values so the checks below see the dynamic type
		if v.IsNil() {
			return l.Convert(reflect.Value{}, to)
		}
		return l.Convert(v.Elem(), to)
	}
	if from.AssignableTo(to) {
		out := reflect.New(to).Elem()
		out.Set(v)
		return out, true
	}
	if classOf(from) != catNone && classOf(to) != catNone {
		return convertNumber(v, to)
	}
	if from.Kind() == to.Kind() && (from.Kind() == reflect.String || from.Kind() == reflect.Bool) {
		return v.Convert(to), true
	}
	return reflect.Value{}, false
}

func convertNumber(v reflect.Value, to reflect.Type) (reflect.Value, bool) {
	from := classOf(v.Type())
	if classOf(to) == catComplex && from != catComplex {
		return toComplex(v, to)
	}
	if !v.CanConvert(to) {
		return reflect.Value{}, false
	}
	out := v.Convert(to)
	if isNaN(v) {
		return out, classOf(to) == catFloat || classOf(to) == catComplex
	}
	switch {
	case from == catSigned && classOf(to) == catUnsigned && v.Int() < 0:
		return reflect.Value{}, false
	case from == catUnsigned && classOf(to) == catSigned && out.Int() < 0:
		return reflect.Value{}, false
	case from == catFloat && (classOf(to) == catSigned || classOf(to) == catUnsigned) && math.IsInf(v.Float(), 0):
		return reflect.Value{}, false
	}
	if back := out.Convert(v.Type()); !back.Equal(v) {
		return reflect.Value{}, false
	}
	return out, true
}

// toComplex builds complex(x, 0); reflect has no real-to-complex conversion.
func toComplex(v reflect.Value, to reflect.Type) (reflect.Value, bool) {
	var f float64
	switch classOf(v.Type()) {
	case catSigned:
		f = float64(v.Int())
		if int64(f) != v.Int() {
			return reflect.Value{}, false
		}
	case catUnsigned:
		f = float64(v.Uint())
		if uint64(f) != v.Uint() {
			return reflect.Value{}, false
		}
	default:
		f = v.Float()
	}
	out := reflect.New(to).Elem()
	out.SetComplex(complex(f, 0))
	if r := real(out.Complex()); r != f && !math.IsNaN(f) {
		return reflect.Value{}, false
	}
	return out, true
}

func isNaN(v reflect.Value) bool {
	switch classOf(v.Type()) {
	case catFloat:
		return math.IsNaN(v.Float())
	case catComplex:
		c := v.Complex()
		return math.IsNaN(real(c)) || math.IsNaN(imag(c))
	}
	return false
}
