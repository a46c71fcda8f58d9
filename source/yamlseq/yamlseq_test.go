package yamlseq_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/reoring/collectas"
	"github.com/reoring/collectas/source/yamlseq"
)

func TestNewBytes_Items(t *testing.T) {
	s, err := yamlseq.NewBytes([]byte("- 1\n- two\n- 3.5\n- [a, b]\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Len() != 4 {
		t.Fatalf("len = %d", s.Len())
	}
	if s.Shape() != nil {
		t.Fatalf("plain sequences declare no shape, got %v", s.Shape())
	}
	v, err := collectas.CollectAs(collectas.Slice(), s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []any{1, "two", 3.5, []any{"a", "b"}}
	if !reflect.DeepEqual(v, want) {
		t.Fatalf("got %#v want %#v", v, want)
	}
}

func TestNewReader_RejectsMapping(t *testing.T) {
	_, err := yamlseq.NewReader(strings.NewReader("a: 1\n"))
	if !collectas.HasCode(err, collectas.CodeInvalidType) {
		t.Fatalf("want invalid_type, got %v", err)
	}
}

func TestNewReader_Empty(t *testing.T) {
	_, err := yamlseq.NewReader(strings.NewReader(""))
	if !collectas.HasCode(err, collectas.CodeParseError) {
		t.Fatalf("want parse_error, got %v", err)
	}
}

func TestNewGrid_ShapeAndWidening(t *testing.T) {
	s, err := yamlseq.NewGrid([]byte("- [1, 2]\n- [3, 4.5]\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(s.Shape(), []int{2, 2}) {
		t.Fatalf("shape = %v", s.Shape())
	}
	v, err := collectas.CollectAs(collectas.Slice(), s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [][]float64{{1, 2}, {3, 4.5}}
	if !reflect.DeepEqual(v, want) {
		t.Fatalf("got %#v want %#v", v, want)
	}
}

func TestNewGrid_FlattensForOneDimension(t *testing.T) {
	s, err := yamlseq.NewGrid([]byte("[[1, 2], [3, 4]]"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := collectas.CollectAs(collectas.Slice().Dims(1), s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(v, []int{1, 2, 3, 4}) {
		t.Fatalf("got %#v", v)
	}
}

func TestNewGrid_Ragged(t *testing.T) {
	_, err := yamlseq.NewGrid([]byte("- [1, 2]\n- [3]\n"))
	iss, ok := collectas.AsIssues(err)
	if !ok || iss[0].Code != collectas.CodeDimensionMismatch || iss[0].Path != "/1" {
		t.Fatalf("unexpected error: %v", err)
	}
}
