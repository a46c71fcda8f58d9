package lattice_test

import (
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/collectas/internal/lattice"
)

type never interface{ never() }

type celsius float64

type shape interface{ Area() float64 }

type square struct{ s float64 }

func (q square) Area() float64 { return q.s * q.s }

type circle struct{ r float64 }

func (c circle) Area() float64 { return math.Pi * c.r * c.r }

type label string

func (l label) String() string { return string(l) }

type code int

func (c code) String() string { return fmt.Sprint(int(c)) }

var (
	tInt        = reflect.TypeFor[int]()
	tInt8       = reflect.TypeFor[int8]()
	tInt16      = reflect.TypeFor[int16]()
	tInt32      = reflect.TypeFor[int32]()
	tInt64      = reflect.TypeFor[int64]()
	tUint       = reflect.TypeFor[uint]()
	tUint8      = reflect.TypeFor[uint8]()
	tUint16     = reflect.TypeFor[uint16]()
	tUint32     = reflect.TypeFor[uint32]()
	tUint64     = reflect.TypeFor[uint64]()
	tUintptr    = reflect.TypeFor[uintptr]()
	tFloat32    = reflect.TypeFor[float32]()
	tFloat64    = reflect.TypeFor[float64]()
	tComplex64  = reflect.TypeFor[complex64]()
	tComplex128 = reflect.TypeFor[complex128]()
	tString     = reflect.TypeFor[string]()
	tBool       = reflect.TypeFor[bool]()
	tAny        = lattice.AnyType
	tNever      = reflect.TypeFor[never]()
	tShape      = reflect.TypeFor[shape]()
	tStringer   = reflect.TypeFor[fmt.Stringer]()
)

func newLattice(opts ...lattice.Option) *lattice.Lattice {
	return lattice.New(append([]lattice.Option{lattice.WithBottom(tNever)}, opts...)...)
}

func TestJoin_NumericLattice(t *testing.T) {
	l := newLattice()
	cases := []struct {
		a, b, want reflect.Type
	}{
		// signed
		{tInt8, tInt8, tInt8},
		{tInt8, tInt16, tInt16},
		{tInt8, tInt32, tInt32},
		{tInt8, tInt64, tInt64},
		{tInt16, tInt32, tInt32},
		{tInt32, tInt64, tInt64},
		{tInt8, tInt, tInt},
		{tInt32, tInt, tInt},
		{tInt, tInt64, tInt64},
		// unsigned
		{tUint8, tUint16, tUint16},
		{tUint16, tUint64, tUint64},
		{tUint32, tUint, tUint},
		{tUint, tUint64, tUint64},
		{tUintptr, tUint64, tUint64},
		{tUint, tUintptr, tUint},
		// mixed sign
		{tInt8, tUint8, tInt16},
		{tInt16, tUint8, tInt16},
		{tInt8, tUint16, tInt32},
		{tInt32, tUint16, tInt32},
		{tInt8, tUint32, tInt64},
		{tInt, tUint32, tInt},
		{tInt64, tUint32, tInt64},
		{tInt64, tUint64, tAny},
		{tInt8, tUint, tAny},
		{tInt, tUintptr, tAny},
		// integers with floats
		{tInt8, tFloat32, tFloat32},
		{tInt16, tFloat32, tFloat32},
		{tUint16, tFloat32, tFloat32},
		{tInt32, tFloat32, tFloat64},
		{tInt64, tFloat32, tFloat64},
		{tInt, tFloat64, tFloat64},
		{tUint64, tFloat64, tFloat64},
		// floats
		{tFloat32, tFloat32, tFloat32},
		{tFloat32, tFloat64, tFloat64},
		// complex
		{tComplex64, tComplex128, tComplex128},
		{tFloat32, tComplex64, tComplex64},
		{tFloat64, tComplex64, tComplex128},
		{tInt8, tComplex64, tComplex64},
		{tInt32, tComplex64, tComplex128},
		{tUint16, tComplex64, tComplex64},
		{tInt, tComplex128, tComplex128},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%v+%v", tc.a, tc.b), func(t *testing.T) {
			assert.Equal(t, tc.want, l.Join(tc.a, tc.b))
			assert.Equal(t, tc.want, l.Join(tc.b, tc.a), "join must be commutative")
		})
	}
}

func TestJoin_IdentityAndBottom(t *testing.T) {
	l := newLattice()
	all := []reflect.Type{tInt, tUint8, tFloat64, tComplex64, tString, tBool, tAny, tShape}
	for _, x := range all {
		assert.Equal(t, x, l.Join(x, x), "idempotent for %v", x)
		assert.Equal(t, x, l.Join(nil, x), "nil is identity for %v", x)
		assert.Equal(t, x, l.Join(tNever, x), "bottom is identity for %v", x)
		assert.Equal(t, x, l.Join(x, tNever), "bottom is identity for %v", x)
		assert.Equal(t, tAny, l.Join(x, tAny), "any absorbs %v", x)
	}
	assert.Nil(t, l.JoinAll())
	assert.Equal(t, tNever, l.Join(tNever, tNever))
}

func TestJoin_NamedNumericsLoseTheirName(t *testing.T) {
	l := newLattice()
	tc := reflect.TypeFor[celsius]()
	assert.Equal(t, tc, l.Join(tc, tc))
	assert.Equal(t, tFloat64, l.Join(tc, tFloat64))
	assert.Equal(t, tFloat64, l.Join(tFloat32, tc))
	assert.Equal(t, tFloat64, l.Join(tc, tInt))
}

func TestJoin_NonNumericFallsBackToAny(t *testing.T) {
	l := newLattice()
	assert.Equal(t, tAny, l.Join(tString, tInt))
	assert.Equal(t, tAny, l.Join(tBool, tInt8))
	assert.Equal(t, tAny, l.Join(tBool, tString))
	assert.Equal(t, tAny, l.Join(reflect.TypeFor[[]int](), reflect.TypeFor[[]float64]()))
	assert.Equal(t, tAny, l.Join(reflect.TypeFor[square](), reflect.TypeFor[circle]()))
}

func TestJoin_InterfaceAbsorbsImplementers(t *testing.T) {
	l := newLattice()
	tSquare := reflect.TypeFor[square]()
	assert.Equal(t, tShape, l.Join(tShape, tSquare))
	assert.Equal(t, tShape, l.Join(tSquare, tShape))
	assert.Equal(t, tAny, l.Join(tShape, tInt))
	assert.True(t, l.Fits(tShape, tSquare))
	assert.False(t, l.Fits(tSquare, tShape))
	assert.False(t, l.Fits(tInt, tInt64))
	assert.True(t, l.Fits(tAny, tString))
}

func TestJoin_RegisteredInterfacesForTaggedVariants(t *testing.T) {
	tSquare, tCircle := reflect.TypeFor[square](), reflect.TypeFor[circle]()
	l := newLattice(lattice.WithInterfaces(tShape, tStringer))
	assert.Equal(t, tShape, l.Join(tSquare, tCircle))
	assert.Equal(t, tShape, l.JoinAll(tSquare, tCircle, tSquare))
	assert.Equal(t, tStringer, l.Join(reflect.TypeFor[label](), reflect.TypeFor[code]()))
	assert.Equal(t, tAny, l.Join(tSquare, reflect.TypeFor[label]()))
	assert.Equal(t, []reflect.Type{tShape, tStringer}, l.Interfaces())

	require.Panics(t, func() { lattice.New(lattice.WithInterfaces(tInt)) })
}

func TestJoin_NumericBeatsRegisteredInterfaces(t *testing.T) {
	l := newLattice(lattice.WithInterfaces(tStringer))
	// code implements Stringer but int does not; numeric widening applies
	assert.Equal(t, tInt, l.Join(reflect.TypeFor[code](), tInt))
}

func TestConvert_Lossless(t *testing.T) {
	l := newLattice()
	cases := []struct {
		name string
		in   any
		to   reflect.Type
		want any
		ok   bool
	}{
		{"int to float64", 3, tFloat64, 3.0, true},
		{"int8 to int64", int8(-4), tInt64, int64(-4), true},
		{"float64 integral to int", 2.0, tInt, 2, true},
		{"float64 fractional to int", 2.5, tInt, nil, false},
		{"int64 overflow to int8", int64(300), tInt8, nil, false},
		{"negative to uint", -1, tUint, nil, false},
		{"float64 to float32 exact", 0.5, tFloat32, float32(0.5), true},
		{"float64 to float32 inexact", 0.1, tFloat32, nil, false},
		{"NaN float64 to float32", math.NaN(), tFloat32, nil, true},
		{"Inf to int", math.Inf(1), tInt64, nil, false},
		{"Inf to float32", math.Inf(-1), tFloat32, float32(math.Inf(-1)), true},
		{"float to complex", 1.5, tComplex128, complex(1.5, 0), true},
		{"complex to float", complex(1, 0), tFloat64, nil, false},
		{"string to int", "1", tInt, nil, false},
		{"int to string", 65, tString, nil, false},
		{"named string", label("x"), tString, "x", true},
		{"into any", "x", tAny, "x", true},
		{"into interface", square{2}, tShape, square{2}, true},
		{"not implementing", 3, tShape, nil, false},
		{"bool to int", true, tInt, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, ok := l.Convert(reflect.ValueOf(tc.in), tc.to)
			require.Equal(t, tc.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tc.to, out.Type())
			if tc.want != nil {
				assert.Equal(t, tc.want, out.Interface())
			}
		})
	}
}

func TestConvert_NilAndBoxed(t *testing.T) {
	l := newLattice()
	out, ok := l.Convert(reflect.Value{}, tAny)
	require.True(t, ok)
	assert.True(t, out.IsNil())

	_, ok = l.Convert(reflect.Value{}, tInt)
	assert.False(t, ok)

	out, ok = l.Convert(reflect.Value{}, reflect.TypeFor[*int]())
	require.True(t, ok)
	assert.True(t, out.IsNil())

	// a boxed element read back from []any converts by its dynamic type
	boxed := reflect.ValueOf([]any{int16(7)}).Index(0)
	out, ok = l.Convert(boxed, tFloat64)
	require.True(t, ok)
	assert.Equal(t, 7.0, out.Interface())
}

func TestFits_NilValue(t *testing.T) {
	l := newLattice()
	tNil := lattice.TypeOf(nil)
	assert.True(t, l.Fits(tShape, tNil))
	assert.True(t, l.Fits(reflect.TypeFor[error](), tNil))
	assert.True(t, l.Fits(reflect.TypeFor[*int](), tNil))
	assert.True(t, l.Fits(reflect.TypeFor[[]int](), tNil))
	assert.False(t, l.Fits(tInt, tNil))
	assert.False(t, l.Fits(tNever, tNil), "nothing holds a value of the bottom type")
}

func TestJoinNil(t *testing.T) {
	l := newLattice(lattice.WithInterfaces(tShape))
	assert.Equal(t, tShape, l.JoinNil(reflect.TypeFor[square]()))
	assert.Equal(t, tShape, l.JoinNil(tShape))
	assert.Equal(t, reflect.TypeFor[*int](), l.JoinNil(reflect.TypeFor[*int]()))
	assert.Equal(t, tAny, l.JoinNil(tInt))
	assert.Equal(t, tAny, l.JoinNil(tNever))
	assert.Equal(t, tAny, l.JoinNil(nil))
}
