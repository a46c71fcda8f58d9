package accum

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrShape reports a flat length that does not match the requested extents.
var ErrShape = errors.New("accum: element count does not match extents")

// Product multiplies extents; the empty product is 1.
func Product(extents []int) int {
	n := 1
	for _, e := range extents {
		n *= e
	}
	return n
}

// SliceType returns the type of dims nested slices around elem. dims must be
// at least 1.
func SliceType(elem reflect.Type, dims int) reflect.Type {
	t := elem
	for i := 0; i < dims; i++ {
		t = reflect.SliceOf(t)
	}
	return t
}

// ArrayType returns the nested array type with the given extents, outermost
// first.
func ArrayType(elem reflect.Type, extents []int) reflect.Type {
	t := elem
	for i := len(extents) - 1; i >= 0; i-- {
		t = reflect.ArrayOf(extents[i], t)
	}
	return t
}

// Reshape turns a flat row-major slice into len(extents) nested slices.
// Offset i*stride+j addresses row i, column j, as in a dense row-major buffer.
func Reshape(flat reflect.Value, extents []int) (reflect.Value, error) {
	if flat.Len() != Product(extents) {
		return reflect.Value{}, fmt.Errorf("%w: have %d elements, extents %v", ErrShape, flat.Len(), extents)
	}
	return reshape(flat, extents), nil
}

func reshape(flat reflect.Value, extents []int) reflect.Value {
	if len(extents) == 1 {
		return flat
	}
	inner := SliceType(flat.Type().Elem(), len(extents)-1)
	rows := extents[0]
	stride := Product(extents[1:])
	out := reflect.MakeSlice(reflect.SliceOf(inner), rows, rows)
	for i := 0; i < rows; i++ {
		lo, hi := i*stride, (i+1)*stride
		// cap the window so appends on one row never bleed into the next
		out.Index(i).Set(reshape(flat.Slice3(lo, hi, hi), extents[1:]))
	}
	return out
}

// ToArray copies len(extents) nested slices into the matching nested array
// type. Every level must have exactly the given extent.
func ToArray(v reflect.Value, elem reflect.Type, extents []int) (reflect.Value, error) {
	out := reflect.New(ArrayType(elem, extents)).Elem()
	if err := fillArray(out, v, extents); err != nil {
		return reflect.Value{}, err
	}
	return out, nil
}

func fillArray(dst, src reflect.Value, extents []int) error {
	if src.Len() != extents[0] {
		return fmt.Errorf("%w: have %d, want %d", ErrShape, src.Len(), extents[0])
	}
	if len(extents) == 1 {
		reflect.Copy(dst, src)
		return nil
	}
	for i := 0; i < extents[0]; i++ {
		if err := fillArray(dst.Index(i), src.Index(i), extents[1:]); err != nil {
			return err
		}
	}
	return nil
}

// ShallowCopy returns a copy of a slice, array, map or pointer container that
// shares element values with v but not its top-level storage.
func ShallowCopy(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Slice:
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		reflect.Copy(out, v)
		return out
	case reflect.Map:
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		it := v.MapRange()
		for it.Next() {
			out.SetMapIndex(it.Key(), it.Value())
		}
		return out
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(v.Elem())
		return out
	default:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		return out
	}
}

// Retype converts v to t where the two differ only in type names, walking
// into slice and array levels whose element types are named differently.
func Retype(v reflect.Value, t reflect.Type) (reflect.Value, bool) {
	if v.Type() == t {
		return v, true
	}
	if v.Type().ConvertibleTo(t) && v.Kind() == t.Kind() {
		return v.Convert(t), true
	}
	switch {
	case v.Kind() == reflect.Slice && t.Kind() == reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(t), true
		}
		out := reflect.MakeSlice(t, v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			e, ok := Retype(v.Index(i), t.Elem())
			if !ok {
				return reflect.Value{}, false
			}
			out.Index(i).Set(e)
		}
		return out, true
	case v.Kind() == reflect.Array && t.Kind() == reflect.Array && v.Len() == t.Len():
		out := reflect.New(t).Elem()
		for i := 0; i < v.Len(); i++ {
			e, ok := Retype(v.Index(i), t.Elem())
			if !ok {
				return reflect.Value{}, false
			}
			out.Index(i).Set(e)
		}
		return out, true
	}
	return reflect.Value{}, false
}
