package kson

import "testing"

func TestParse_ValueAndAstPresentWhenErrorFree(t *testing.T) {
	result := Parse(`name: "Ada"
age: 36`, Options{})
	if len(result.Messages) != 0 {
		t.Fatalf("unexpected diagnostics: %v", result.Messages)
	}
	if result.Value == nil || result.Ast == nil {
		t.Fatal("expected both Value and Ast on an error-free parse")
	}
	if got := result.Value.Lookup("name"); got == nil || got.Str != "Ada" {
		t.Errorf("got %v", got)
	}
}

func TestParse_ValueNilOnError(t *testing.T) {
	result := Parse(`{ unclosed`, Options{})
	if len(result.Messages) == 0 {
		t.Fatal("expected diagnostics for an unclosed object")
	}
	if result.Value != nil {
		t.Error("Value must be nil when the document has parse errors")
	}
}

func TestParse_GapFreeTokens(t *testing.T) {
	result := Parse(`a: 1`, Options{GapFree: true})
	if len(result.Tokens) == 0 {
		t.Fatal("expected a gap-free token stream when requested")
	}
}

func TestParseAndValidate_EndToEnd(t *testing.T) {
	doc := Parse(`name: "Ada"
age: 36`, Options{})
	if len(doc.Messages) != 0 {
		t.Fatalf("unexpected document diagnostics: %v", doc.Messages)
	}

	s, lookup, schemaMsgs := ParseSchema(`type: "object"
required: ["name", "age"]
properties: {
  name: { type: "string" },
  age: { type: "number", minimum: 0 },
}`, Options{})
	if len(schemaMsgs) != 0 {
		t.Fatalf("unexpected schema diagnostics: %v", schemaMsgs)
	}

	if msgs := Validate(doc.Value, s, lookup); len(msgs) != 0 {
		t.Errorf("expected a conformant document, got %v", msgs)
	}
}

func TestNavigatePointer(t *testing.T) {
	doc := Parse(`items: [1, 2, 3]`, Options{})
	results, err := NavigatePointer(doc.Value, "/items/1")
	if err != nil {
		t.Fatalf("NavigatePointer: %v", err)
	}
	if len(results) != 1 || results[0].Number != 2 {
		t.Fatalf("got %v", results)
	}
}

func TestNavigateSchema(t *testing.T) {
	s, lookup, msgs := ParseSchema(`properties: { name: { type: "string" } }`, Options{})
	if len(msgs) != 0 {
		t.Fatalf("unexpected diagnostics: %v", msgs)
	}
	results, err := NavigateSchema(s, lookup, "/name")
	if err != nil {
		t.Fatalf("NavigateSchema: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
}

func TestFormat_IsUnimplementedContract(t *testing.T) {
	if _, err := Format(nil, FormatOptions{}); err == nil {
		t.Fatal("Format is an external-collaborator contract and must error")
	}
}
