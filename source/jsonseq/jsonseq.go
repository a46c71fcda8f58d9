// Package jsonseq streams the elements of a top-level JSON array as a
// collectas.Sequence, decoding one element per Next with goccy/go-json.
//
// Integers decode to int64 and other numbers to float64, so a mixed array
// widens to float64 when collected without an element type, or to any when an
// integer would lose digits as float64. Nested arrays and objects decode to
// []any and map[string]any.
package jsonseq

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"

	json "github.com/goccy/go-json"

	"github.com/reoring/collectas"
)

// Sequence is a single-pass sequence over a JSON array.
type Sequence struct {
	dec     *json.Decoder
	started bool
	done    bool
	i       int
}

// NewReader wraps an io.Reader holding one JSON array.
func NewReader(r io.Reader) *Sequence {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return &Sequence{dec: dec}
}

// NewBytes wraps a byte slice holding one JSON array.
func NewBytes(b []byte) *Sequence { return NewReader(bytes.NewReader(b)) }

// Next decodes the next array element.
func (s *Sequence) Next() (any, error) {
	if s.done {
		return nil, io.EOF
	}
	if !s.started {
		s.started = true
		tok, err := s.dec.Token()
		if err != nil {
			s.done = true
			if errors.Is(err, io.EOF) {
				return nil, s.fail("", errors.New("empty input"))
			}
			return nil, s.fail("", err)
		}
		if d, ok := tok.(json.Delim); !ok || d != '[' {
			s.done = true
			return nil, s.fail("", fmt.Errorf("expected array, got %v", tok))
		}
	}
	if !s.dec.More() {
		s.done = true
		if _, err := s.dec.Token(); err != nil && !errors.Is(err, io.EOF) {
			return nil, s.fail(collectas.IndexPath(s.i), err)
		}
		return nil, io.EOF
	}
	var raw any
	if err := s.dec.Decode(&raw); err != nil {
		s.done = true
		return nil, s.fail(collectas.IndexPath(s.i), err)
	}
	s.i++
	return normalize(raw), nil
}

// ElemType declares any: elements are typed only once decoded.
func (s *Sequence) ElemType() reflect.Type { return reflect.TypeFor[any]() }

// Finiteness reports FiniteUnknown; the array length is only known at its end.
func (s *Sequence) Finiteness() collectas.Finiteness { return collectas.FiniteUnknown }

func (s *Sequence) fail(path string, err error) error {
	return collectas.Issues{{
		Path:    path,
		Code:    collectas.CodeParseError,
		Message: err.Error(),
		Cause:   err,
		Params:  map[string]any{"offset": s.dec.InputOffset()},
	}}
}

// number is satisfied by json.Number from either goccy/go-json or
// encoding/json.
type number interface {
	Int64() (int64, error)
	Float64() (float64, error)
	String() string
}

func normalize(v any) any {
	switch x := v.(type) {
	case number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case []any:
		for i := range x {
			x[i] = normalize(x[i])
		}
		return x
	case map[string]any:
		for k, e := range x {
			x[k] = normalize(e)
		}
		return x
	}
	return v
}
