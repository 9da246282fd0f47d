package pointer

import (
	"testing"

	"github.com/kson-org/kson-sub001/internal/kson/ast"
	"github.com/kson-org/kson-sub001/internal/kson/lexer"
	kparser "github.com/kson-org/kson-sub001/internal/kson/parser"
	"github.com/kson-org/kson-sub001/internal/kson/value"
)

func parseValue(t *testing.T, src string) *value.Value {
	t.Helper()
	tokens := lexer.Tokenize(src, lexer.Options{})
	b := kparser.New(tokens, kparser.Options{}).Parse()
	root, msgs := ast.Lower(b)
	if len(msgs) != 0 {
		t.Fatalf("unexpected parse errors for %q: %v", src, msgs)
	}
	return value.FromAST(root.Content)
}

func TestNavigate_Literal(t *testing.T) {
	v := parseValue(t, "a: { b: 1, c: 2 }")
	p, errMsg := Parse("/a/b")
	if errMsg != nil {
		t.Fatalf("Parse: %v", errMsg)
	}
	got := Navigate(v, p)
	if len(got) != 1 || got[0].Number != 1 {
		t.Fatalf("got %v", got)
	}
}

func TestNavigate_ArrayIndex(t *testing.T) {
	v := parseValue(t, "list: [10, 20, 30]")
	p, _ := ParseGlob("/list/1")
	got := Navigate(v, p)
	if len(got) != 1 || got[0].Number != 20 {
		t.Fatalf("got %v", got)
	}
}

func TestNavigate_Wildcard(t *testing.T) {
	v := parseValue(t, "a: 1\nb: 2\nc: 3")
	p, errMsg := ParseGlob("/*")
	if errMsg != nil {
		t.Fatalf("ParseGlob: %v", errMsg)
	}
	got := Navigate(v, p)
	if len(got) != 3 {
		t.Fatalf("got %d results, want 3", len(got))
	}
}

func TestNavigate_RecursiveDescent(t *testing.T) {
	v := parseValue(t, "a: { b: { id: 1 } }\nc: { id: 2 }")
	p, errMsg := ParseGlob("/**/id")
	if errMsg != nil {
		t.Fatalf("ParseGlob: %v", errMsg)
	}
	got := Navigate(v, p)
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2: %v", len(got), got)
	}
}

func TestNavigate_GlobPattern(t *testing.T) {
	v := parseValue(t, "foo_a: 1\nfoo_b: 2\nbar: 3")
	p, errMsg := ParseGlob("/foo_*")
	if errMsg != nil {
		t.Fatalf("ParseGlob: %v", errMsg)
	}
	got := Navigate(v, p)
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2: %v", len(got), got)
	}
}

func TestNavigate_MissingKeyReturnsNothing(t *testing.T) {
	v := parseValue(t, "a: 1")
	p, _ := Parse("/missing")
	got := Navigate(v, p)
	if len(got) != 0 {
		t.Fatalf("got %v, want no results", got)
	}
}
