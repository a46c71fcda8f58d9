// Package yamlseq exposes the items of a YAML sequence document as a
// collectas.Sequence. The document is parsed into a yaml.v3 node tree up
// front; items are decoded lazily, one per Next.
package yamlseq

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/reoring/collectas"
)

// Sequence is a single-pass sequence over YAML sequence items. It declares
// its length, and a shape when built with NewGrid.
type Sequence struct {
	items []*yaml.Node
	shape []int
	i     int
}

// NewBytes parses data, which must hold a single YAML sequence.
func NewBytes(data []byte) (*Sequence, error) { return NewReader(bytes.NewReader(data)) }

// NewReader parses the first document of r, which must be a YAML sequence.
func NewReader(r io.Reader) (*Sequence, error) {
	root, err := parse(r)
	if err != nil {
		return nil, err
	}
	return &Sequence{items: root.Content}, nil
}

// NewGrid parses a rectangular nested YAML sequence (a list of equally long
// lists, to any depth) and yields its leaves row-major with the declared
// shape. Ragged nesting fails with a dimension_mismatch issue.
func NewGrid(data []byte) (*Sequence, error) {
	root, err := parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	shape := gridShape(root)
	leaves, err := flatten(root, shape, "")
	if err != nil {
		return nil, err
	}
	return &Sequence{items: leaves, shape: shape}, nil
}

func parse(r io.Reader) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty document")
		}
		return nil, collectas.Issues{{Code: collectas.CodeParseError, Message: err.Error(), Cause: err}}
	}
	n := &doc
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	if n.Kind != yaml.SequenceNode {
		return nil, collectas.Issues{collectas.IssueAt("", collectas.CodeInvalidType,
			fmt.Sprintf("expected a YAML sequence at line %d", n.Line), map[string]any{"line": n.Line})}
	}
	return n, nil
}

// gridShape follows the first item down through nested sequences.
func gridShape(n *yaml.Node) []int {
	var shape []int
	for n.Kind == yaml.SequenceNode {
		shape = append(shape, len(n.Content))
		if len(n.Content) == 0 {
			break
		}
		n = n.Content[0]
	}
	return shape
}

func flatten(n *yaml.Node, shape []int, path string) ([]*yaml.Node, error) {
	if len(shape) == 0 {
		if n.Kind == yaml.SequenceNode {
			return nil, ragged(path, n)
		}
		return []*yaml.Node{n}, nil
	}
	if n.Kind != yaml.SequenceNode || len(n.Content) != shape[0] {
		return nil, ragged(path, n)
	}
	var out []*yaml.Node
	for i, c := range n.Content {
		leaves, err := flatten(c, shape[1:], fmt.Sprintf("%s/%d", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, leaves...)
	}
	return out, nil
}

func ragged(path string, n *yaml.Node) error {
	return collectas.Issues{collectas.IssueAt(path, collectas.CodeDimensionMismatch,
		fmt.Sprintf("ragged YAML sequence at line %d", n.Line), map[string]any{"line": n.Line})}
}

// Next decodes the next item into a plain Go value (int, float64, string,
// bool, nil, []any or map[string]any).
func (s *Sequence) Next() (any, error) {
	if s.i >= len(s.items) {
		return nil, io.EOF
	}
	n := s.items[s.i]
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, collectas.Issues{{
			Path:    collectas.IndexPath(s.i),
			Code:    collectas.CodeParseError,
			Message: err.Error(),
			Cause:   err,
			Params:  map[string]any{"line": n.Line},
		}}
	}
	s.i++
	return v, nil
}

// ElemType declares any: scalars are typed by their YAML tags when decoded.
func (s *Sequence) ElemType() reflect.Type { return reflect.TypeFor[any]() }

// Len declares the number of items.
func (s *Sequence) Len() int { return len(s.items) }

// Shape declares the grid extents for NewGrid sequences, nil otherwise.
func (s *Sequence) Shape() []int {
	if s.shape == nil {
		return nil
	}
	return append([]int{}, s.shape...)
}
