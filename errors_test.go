package collectas_test

import (
	"errors"
	"io"
	"testing"

	"github.com/reoring/collectas"
	"github.com/reoring/collectas/i18n"
)

func TestIssues_ErrorFormat(t *testing.T) {
	iss := collectas.Issues{
		{Code: collectas.CodeArity, Message: "arity mismatch"},
		collectas.IssueAt(collectas.IndexPath(2), collectas.CodeElementConversion, "bad", nil),
	}
	if got, want := iss.Error(), "arity at /: arity mismatch; element_conversion at /2: bad"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	var many collectas.Issues
	for i := 0; i < 5; i++ {
		many = collectas.AppendIssues(many, collectas.IssueAt(collectas.IndexPath(i), collectas.CodeParseError, "", nil))
	}
	if got, want := many.Error(), "parse_error at /0; parse_error at /1; parse_error at /2; ... (total 5)"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestIssues_UnwrapExposesCausesAndSentinels(t *testing.T) {
	err := error(collectas.Issues{{Code: collectas.CodeDimensionMismatch, Cause: io.ErrShortBuffer}})
	if !errors.Is(err, collectas.ErrDimensionMismatch) {
		t.Fatalf("sentinel not reachable")
	}
	if !errors.Is(err, io.ErrShortBuffer) {
		t.Fatalf("cause not reachable")
	}
	if errors.Is(err, collectas.ErrArity) {
		t.Fatalf("unrelated sentinel matched")
	}
	wrapped := errors.Join(errors.New("context"), err)
	if !collectas.HasCode(wrapped, collectas.CodeDimensionMismatch) {
		t.Fatalf("HasCode must see through wrapping")
	}
	if _, ok := collectas.AsIssues(io.EOF); ok {
		t.Fatalf("AsIssues matched a plain error")
	}
}

func TestIssues_ParamsAndLocalizedMessages(t *testing.T) {
	_, err := collectas.CollectAs(collectas.TupleOf(nil, nil), []int{1})
	iss, ok := collectas.AsIssues(err)
	if !ok || len(iss) != 1 {
		t.Fatalf("got %v", err)
	}
	if iss[0].Params["want"] != 2 || iss[0].Params["got"] != 1 {
		t.Fatalf("params: %#v", iss[0].Params)
	}
	if iss[0].Message != "arity mismatch: want 2, got 1" {
		t.Fatalf("message: %q", iss[0].Message)
	}

	i18n.SetLanguage("ja")
	defer i18n.SetLanguage("en")
	_, err = collectas.CollectAs(collectas.TupleOf(nil, nil), []int{1})
	iss, _ = collectas.AsIssues(err)
	if iss[0].Message == "arity mismatch: want 2, got 1" {
		t.Fatalf("message not localized: %q", iss[0].Message)
	}
}
