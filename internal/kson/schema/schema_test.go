package schema

import (
	"testing"

	"github.com/kson-org/kson-sub001/internal/kson/ast"
	"github.com/kson-org/kson-sub001/internal/kson/lexer"
	kparser "github.com/kson-org/kson-sub001/internal/kson/parser"
	"github.com/kson-org/kson-sub001/internal/kson/pointer"
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

func mustParseSchema(t *testing.T, src string) (*Schema, *IdLookup) {
	t.Helper()
	s, lookup, msgs := Parse(src, Options{})
	if len(msgs) != 0 {
		t.Fatalf("unexpected schema parse diagnostics for %q: %v", src, msgs)
	}
	return s, lookup
}

func TestValidate_TypeMismatch(t *testing.T) {
	s, lookup := mustParseSchema(t, `type: "string"`)
	v := parseValue(t, "42")
	msgs := Validate(v, s, lookup)
	if len(msgs) != 1 {
		t.Fatalf("got %d diagnostics, want 1: %v", len(msgs), msgs)
	}
}

func TestValidate_RequiredMissing(t *testing.T) {
	s, lookup := mustParseSchema(t, `type: "object"
required: ["name", "age"]`)
	v := parseValue(t, `name: "Ada"`)
	msgs := Validate(v, s, lookup)
	if len(msgs) != 1 {
		t.Fatalf("got %d diagnostics, want 1: %v", len(msgs), msgs)
	}
}

func TestValidate_NumericRange(t *testing.T) {
	s, lookup := mustParseSchema(t, `minimum: 0
maximum: 10`)
	if msgs := Validate(parseValue(t, "5"), s, lookup); len(msgs) != 0 {
		t.Errorf("5 should be in range, got %v", msgs)
	}
	if msgs := Validate(parseValue(t, "-1"), s, lookup); len(msgs) == 0 {
		t.Errorf("-1 should violate minimum")
	}
	if msgs := Validate(parseValue(t, "11"), s, lookup); len(msgs) == 0 {
		t.Errorf("11 should violate maximum")
	}
}

func TestValidate_Pattern(t *testing.T) {
	s, lookup := mustParseSchema(t, `type: "string"
pattern: "^[a-z]+$"`)
	if msgs := Validate(parseValue(t, `"abc"`), s, lookup); len(msgs) != 0 {
		t.Errorf("abc should match pattern, got %v", msgs)
	}
	if msgs := Validate(parseValue(t, `"ABC"`), s, lookup); len(msgs) == 0 {
		t.Errorf("ABC should not match pattern")
	}
}

func TestValidate_EnumAndConst(t *testing.T) {
	s, lookup := mustParseSchema(t, `enum: ["a", "b", "c"]`)
	if msgs := Validate(parseValue(t, `"b"`), s, lookup); len(msgs) != 0 {
		t.Errorf("b is enumerated, got %v", msgs)
	}
	if msgs := Validate(parseValue(t, `"z"`), s, lookup); len(msgs) == 0 {
		t.Errorf("z is not enumerated")
	}
}

func TestValidate_ArrayItemsAndUnique(t *testing.T) {
	s, lookup := mustParseSchema(t, `items: { type: "number" }
uniqueItems: true`)
	if msgs := Validate(parseValue(t, "[1, 2, 3]"), s, lookup); len(msgs) != 0 {
		t.Errorf("got %v", msgs)
	}
	if msgs := Validate(parseValue(t, "[1, 2, 2]"), s, lookup); len(msgs) == 0 {
		t.Errorf("duplicate items should fail uniqueItems")
	}
	if msgs := Validate(parseValue(t, `[1, "x"]`), s, lookup); len(msgs) == 0 {
		t.Errorf("string item should fail items type")
	}
}

func TestValidate_Combinators(t *testing.T) {
	anyOf, lookup := mustParseSchema(t, `anyOf: [{ type: "string" }, { type: "number" }]`)
	if msgs := Validate(parseValue(t, "42"), anyOf, lookup); len(msgs) != 0 {
		t.Errorf("number should satisfy anyOf, got %v", msgs)
	}
	if msgs := Validate(parseValue(t, "true"), anyOf, lookup); len(msgs) == 0 {
		t.Errorf("boolean should fail anyOf")
	}

	oneOf, lookup2 := mustParseSchema(t, `oneOf: [{ minimum: 0 }, { maximum: 5 }]`)
	if msgs := Validate(parseValue(t, "10"), oneOf, lookup2); len(msgs) != 0 {
		t.Errorf("10 matches only minimum, got %v", msgs)
	}
	if msgs := Validate(parseValue(t, "2"), oneOf, lookup2); len(msgs) == 0 {
		t.Errorf("2 matches both branches and should fail oneOf")
	}

	not, lookup3 := mustParseSchema(t, `not: { type: "string" }`)
	if msgs := Validate(parseValue(t, "42"), not, lookup3); len(msgs) != 0 {
		t.Errorf("number should satisfy not-string, got %v", msgs)
	}
	if msgs := Validate(parseValue(t, `"x"`), not, lookup3); len(msgs) == 0 {
		t.Errorf("string should fail not-string")
	}
}

func TestValidate_IfThenElse(t *testing.T) {
	s, lookup := mustParseSchema(t, `if: { type: "string" }
then: { minLength: 3 }
else: { minimum: 100 }`)
	if msgs := Validate(parseValue(t, `"ab"`), s, lookup); len(msgs) == 0 {
		t.Errorf("short string should fail then-branch minLength")
	}
	if msgs := Validate(parseValue(t, "5"), s, lookup); len(msgs) == 0 {
		t.Errorf("small number should fail else-branch minimum")
	}
}

func TestValidate_RefResolution(t *testing.T) {
	s, lookup := mustParseSchema(t, `properties: {
  a: { "$ref": "#/properties/b" },
  b: { type: "number" },
}`)
	v := parseValue(t, `a: "not a number"`)
	msgs := Validate(v, s, lookup)
	if len(msgs) == 0 {
		t.Fatalf("expected $ref'd schema to apply and reject a string")
	}
}

// TestValidate_RefIntoDefinitions is scenario E (spec.md §8): a $ref into
// `#/definitions/S` alongside an ignored sibling keyword.
func TestValidate_RefIntoDefinitions(t *testing.T) {
	_, _, schemaMsgs := Parse(`definitions: { S: { type: "string" } }
properties: { x: { "$ref": "#/definitions/S", minLength: 5 } }`, Options{})
	found := false
	for _, m := range schemaMsgs {
		if m.Kind == "SCHEMA_REF_IGNORED_PROPERTY" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected SCHEMA_REF_IGNORED_PROPERTY, got %v", schemaMsgs)
	}

	s, lookup, _ := Parse(`definitions: { S: { type: "string" } }
properties: { x: { "$ref": "#/definitions/S", minLength: 5 } }`, Options{})
	v := parseValue(t, `x: "ab"`)
	msgs := Validate(v, s, lookup)
	if len(msgs) != 0 {
		t.Fatalf("expected no diagnostics ($ref ignores sibling minLength:5), got %v", msgs)
	}
}

func TestValidate_RefIntoDefsAlias(t *testing.T) {
	s, lookup := mustParseSchema(t, `"$defs": { Name: { type: "string" } }
properties: { name: { "$ref": "#/$defs/Name" } }`)
	if msgs := Validate(parseValue(t, `name: "Ada"`), s, lookup); len(msgs) != 0 {
		t.Errorf("expected a conformant document, got %v", msgs)
	}
	if msgs := Validate(parseValue(t, "name: 42"), s, lookup); len(msgs) == 0 {
		t.Errorf("expected a type mismatch resolved through #/$defs/Name")
	}
}

func TestValidate_RefCycleIsConformant(t *testing.T) {
	s, lookup := mustParseSchema(t, `properties: {
  next: { "$ref": "#" },
}`)
	v := parseValue(t, `next: { next: { next: {} } }`)
	if msgs := Validate(v, s, lookup); len(msgs) != 0 {
		t.Errorf("self-referential schema should not loop or flag, got %v", msgs)
	}
}

func TestParse_RefSiblingIgnoredWarning(t *testing.T) {
	_, _, msgs := Parse(`{ "$ref": "#/x", minimum: 1 }`, Options{})
	if len(msgs) != 1 {
		t.Fatalf("expected exactly one SCHEMA_REF_IGNORED_PROPERTY diagnostic, got %v", msgs)
	}
}

func TestParse_BooleanSchema(t *testing.T) {
	s, lookup, msgs := Parse("false", Options{})
	if len(msgs) != 0 {
		t.Fatalf("unexpected diagnostics: %v", msgs)
	}
	if !s.IsBoolean() || s.Accepts() {
		t.Fatalf("expected a rejecting boolean schema")
	}
	if msgs := Validate(parseValue(t, "1"), s, lookup); len(msgs) == 0 {
		t.Errorf("boolean-false schema should reject everything")
	}
}

func TestNavigate_Properties(t *testing.T) {
	s, lookup := mustParseSchema(t, `properties: {
  name: { type: "string" },
  age: { type: "number" },
}`)
	p, errMsg := pointer.Parse("/name")
	if errMsg != nil {
		t.Fatalf("Parse: %v", errMsg)
	}
	results := Navigate(s, lookup, p)
	if len(results) != 1 || results[0].Keywords.Type[0] != "string" {
		t.Fatalf("got %v", results)
	}
}

func TestNavigate_Wildcard(t *testing.T) {
	s, lookup := mustParseSchema(t, `properties: {
  a: { type: "string" },
  b: { type: "number" },
}`)
	p, errMsg := pointer.ParseGlob("/*")
	if errMsg != nil {
		t.Fatalf("ParseGlob: %v", errMsg)
	}
	if results := Navigate(s, lookup, p); len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
}
