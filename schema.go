package collectas

import (
	"reflect"

	js "github.com/reoring/collectas/jsonschema"
)

// JSONSchema projects the descriptor onto the JSON representation of the
// containers it accepts: sets are arrays with unique items, pinned extents
// become item counts and pinned tuple positions become prefixItems. An
// unspecified element type is the empty schema.
func (d Descriptor) JSONSchema() (*js.Schema, error) {
	c, err := Classify(d)
	if err != nil {
		return nil, err
	}
	s := classSchema(c)
	s.Schema = js.Draft
	return s, nil
}

func classSchema(c Class) *js.Schema {
	switch c.Kind {
	case KindSet:
		return &js.Schema{Type: "array", UniqueItems: true, Items: elemSchema(c.Elem)}
	case KindTuple:
		s := &js.Schema{Type: "array"}
		if c.Positions != nil {
			s.PrefixItems = make([]*js.Schema, len(c.Positions))
			for i, p := range c.Positions {
				s.PrefixItems[i] = elemSchema(p)
			}
			s.MinItems, s.MaxItems = js.Count(len(c.Positions)), js.Count(len(c.Positions))
		}
		return s
	case KindSequence, KindBuffer:
		switch {
		case c.Dims == 0:
			return elemSchema(c.Elem)
		case c.Dims == AnyDims:
			// one level is certain; deeper nesting depends on the input
			return &js.Schema{Type: "array", Items: &js.Schema{}}
		}
		s := elemSchema(c.Elem)
		for i := c.Dims - 1; i >= 0; i-- {
			s = &js.Schema{Type: "array", Items: s}
			if c.Extents != nil {
				s.MinItems, s.MaxItems = js.Count(c.Extents[i]), js.Count(c.Extents[i])
			}
		}
		return s
	}
	return &js.Schema{Description: "extension " + c.Kind.String()}
}

// elemSchema maps a Go element type onto JSON types; nil and interface types
// accept anything.
func elemSchema(t reflect.Type) *js.Schema {
	if t == nil {
		return &js.Schema{}
	}
	switch t.Kind() {
	case reflect.Bool:
		return &js.Schema{Type: "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return &js.Schema{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return &js.Schema{Type: "number"}
	case reflect.String:
		return &js.Schema{Type: "string"}
	case reflect.Slice, reflect.Array:
		return &js.Schema{Type: "array", Items: elemSchema(t.Elem())}
	case reflect.Map:
		if t.Key().Kind() == reflect.String {
			return &js.Schema{Type: "object", AdditionalProperties: elemSchema(t.Elem())}
		}
	case reflect.Pointer:
		return &js.Schema{AnyOf: []*js.Schema{elemSchema(t.Elem()), {Type: "null"}}}
	}
	return &js.Schema{}
}
