package schema

import (
	"regexp"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kson-org/kson-sub001/internal/kson/ast"
	"github.com/kson-org/kson-sub001/internal/kson/diag"
	"github.com/kson-org/kson-sub001/internal/kson/lexer"
	"github.com/kson-org/kson-sub001/internal/kson/loc"
	kparser "github.com/kson-org/kson-sub001/internal/kson/parser"
	"github.com/kson-org/kson-sub001/internal/kson/value"
)

// Options configures a schema parse. Logger defaults to a no-op logger,
// matching every other KSON component's Options shape.
type Options struct {
	Logger *zap.Logger
}

// Parse parses source as KSON and traverses the result into a Schema,
// building its IdLookup in the same top-down pass (§4.5 "Schema parsing").
// Parse errors in the underlying KSON document (not schema-semantic
// errors) abort with those messages and a nil Schema.
func Parse(source string, opts Options) (*Schema, *IdLookup, []diag.Message) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	tokens := lexer.Tokenize(source, lexer.Options{GapFree: false, Logger: log})
	p := kparser.New(tokens, kparser.Options{Logger: log})
	builder := p.Parse()

	root, msgs := ast.Lower(builder)
	if len(msgs) > 0 {
		return nil, nil, msgs
	}
	if root == nil || root.Content == nil {
		m := diag.New(diag.SchemaEmpty, loc.Zero, "schema source is empty")
		return nil, nil, []diag.Message{m}
	}

	v := value.FromAST(root.Content)
	lookup := NewIdLookup()
	var out []diag.Message
	s := build(v, "", "", lookup, &out)
	if s.ID == "" && !s.IsBoolean() {
		// Mint a synthetic anchor id so a root schema that declares no
		// $id of its own is still a stable $ref target if it later ends
		// up bundled as a sub-document of a larger schema (§9 "bundled
		// schemas ... must be supported transparently"). The anchor is
		// only a key in lookup: s.ID stays empty, so the root's base URI
		// scope (and every "#/..." fragment $ref indexed under it) is
		// unchanged.
		lookup.byURI[uuid.NewString()] = s
	}
	log.Debug("schema parse complete",
		zap.Int("messages", len(out)),
		zap.Int("ids", len(lookup.byURI)),
	)
	return s, lookup, out
}

// build converts a KsonValue into a Schema, recording it in lookup under
// baseURI (the nearest enclosing $id) at the document pointer ptr, and
// appending any schema-parsing diagnostics to out.
func build(v *value.Value, baseURI, ptr string, lookup *IdLookup, out *[]diag.Message) *Schema {
	if v == nil {
		return &Schema{Boolean: boolPtr(true), Loc: loc.Zero}
	}
	if v.Kind == value.KindBool {
		b := v.Bool
		s := &Schema{Boolean: &b, Loc: v.Loc}
		lookup.index(baseURI, ptr, s)
		return s
	}
	if v.Kind != value.KindObject {
		*out = append(*out, diag.New(diag.SchemaRootInvalid, v.Loc,
			"schema must be a boolean or an object, found %s", kindName(v.Kind)))
		return &Schema{Boolean: boolPtr(true), Loc: v.Loc}
	}

	s := &Schema{Loc: v.Loc}
	scopeURI := baseURI
	if idVal := v.Lookup("$id"); idVal != nil && idVal.Kind == value.KindString {
		scopeURI = resolveURI(baseURI, idVal.Str)
		s.ID = scopeURI
	}

	if ref := v.Lookup("$ref"); ref != nil && ref.Kind == value.KindString {
		s.Keywords.Ref = resolveURI(scopeURI, ref.Str)
		reportIgnoredSiblings(v, out)
		lookup.index(baseURI, ptr, s)
		return s
	}

	buildKeywords(v, scopeURI, ptr, lookup, out, &s.Keywords)
	lookup.index(baseURI, ptr, s)
	return s
}

// reportIgnoredSiblings emits SCHEMA_REF_IGNORED_PROPERTY for every
// keyword alongside $ref other than title/description (§4.5).
func reportIgnoredSiblings(v *value.Value, out *[]diag.Message) {
	for _, p := range v.Properties {
		switch p.Key {
		case "$ref", "title", "description":
			continue
		default:
			*out = append(*out, diag.New(diag.SchemaRefIgnoredProperty, p.Value.Loc,
				"property %q alongside $ref is ignored during evaluation", p.Key))
		}
	}
}

func buildKeywords(v *value.Value, baseURI, ptr string, lookup *IdLookup, out *[]diag.Message, k *Keywords) {
	if t := v.Lookup("type"); t != nil {
		k.Type = parseTypeKeyword(t, out)
	}
	if e := v.Lookup("enum"); e != nil && e.Kind == value.KindArray {
		for _, item := range e.Array {
			k.Enum = append(k.Enum, toLiteral(item))
		}
	}
	if c := v.Lookup("const"); c != nil {
		lit := toLiteral(c)
		k.Const = &lit
	}
	if f := v.Lookup("format"); f != nil && f.Kind == value.KindString {
		k.Format = f.Str
	}

	k.Minimum = numberKeyword(v, "minimum", out)
	k.Maximum = numberKeyword(v, "maximum", out)
	k.ExclusiveMinimum = numberKeyword(v, "exclusiveMinimum", out)
	k.ExclusiveMaximum = numberKeyword(v, "exclusiveMaximum", out)
	k.MultipleOf = numberKeyword(v, "multipleOf", out)

	k.MinLength = integerKeyword(v, "minLength", out)
	k.MaxLength = integerKeyword(v, "maxLength", out)
	if p := v.Lookup("pattern"); p != nil && p.Kind == value.KindString {
		if re, err := regexp.Compile(p.Str); err == nil {
			k.Pattern = re
		} else {
			*out = append(*out, diag.New(diag.SchemaKeywordType, p.Loc,
				"pattern %q is not a valid regular expression: %v", p.Str, err))
		}
	}

	buildArrayKeywords(v, baseURI, ptr, lookup, out, k)
	buildObjectKeywords(v, baseURI, ptr, lookup, out, k)
	buildDefinitions(v, "definitions", baseURI, ptr, lookup, out)
	buildDefinitions(v, "$defs", baseURI, ptr, lookup, out)

	k.AllOf = buildSchemaList(v, "allOf", baseURI, ptr, lookup, out)
	k.AnyOf = buildSchemaList(v, "anyOf", baseURI, ptr, lookup, out)
	k.OneOf = buildSchemaList(v, "oneOf", baseURI, ptr, lookup, out)
	if n := v.Lookup("not"); n != nil {
		k.Not = build(n, baseURI, ptr+"/not", lookup, out)
	}

	if iff := v.Lookup("if"); iff != nil {
		k.If = build(iff, baseURI, ptr+"/if", lookup, out)
	}
	if then := v.Lookup("then"); then != nil {
		k.Then = build(then, baseURI, ptr+"/then", lookup, out)
	}
	if els := v.Lookup("else"); els != nil {
		k.Else = build(els, baseURI, ptr+"/else", lookup, out)
	}
}

// buildDefinitions walks a `definitions` or `$defs` container (the
// canonical draft-07 reuse idiom), building and indexing each sub-schema
// at its document pointer so a pointer-fragment $ref into it — e.g.
// `#/definitions/S` — resolves through IdLookup.byPointer. Entries are
// not stored on Keywords: they participate in evaluation only indirectly,
// through whatever $ref names them.
func buildDefinitions(v *value.Value, key, baseURI, ptr string, lookup *IdLookup, out *[]diag.Message) {
	defs := v.Lookup(key)
	if defs == nil || defs.Kind != value.KindObject {
		return
	}
	for _, p := range defs.Properties {
		build(p.Value, baseURI, ptr+"/"+key+"/"+escapePointerSegment(p.Key), lookup, out)
	}
}

func buildArrayKeywords(v *value.Value, baseURI, ptr string, lookup *IdLookup, out *[]diag.Message, k *Keywords) {
	if items := v.Lookup("items"); items != nil {
		if items.Kind == value.KindArray {
			for i, item := range items.Array {
				k.ItemsTuple = append(k.ItemsTuple, build(item, baseURI, tuplePtr(ptr, "items", i), lookup, out))
			}
		} else {
			k.Items = build(items, baseURI, ptr+"/items", lookup, out)
		}
	}
	if ai := v.Lookup("additionalItems"); ai != nil {
		k.AdditionalItems = build(ai, baseURI, ptr+"/additionalItems", lookup, out)
	}
	k.MinItems = integerKeyword(v, "minItems", out)
	k.MaxItems = integerKeyword(v, "maxItems", out)
	if u := v.Lookup("uniqueItems"); u != nil && u.Kind == value.KindBool {
		k.UniqueItems = u.Bool
	}
	if c := v.Lookup("contains"); c != nil {
		k.Contains = build(c, baseURI, ptr+"/contains", lookup, out)
	}
}

func buildObjectKeywords(v *value.Value, baseURI, ptr string, lookup *IdLookup, out *[]diag.Message, k *Keywords) {
	if props := v.Lookup("properties"); props != nil && props.Kind == value.KindObject {
		k.Properties = make(map[string]*Schema, len(props.Properties))
		for _, p := range props.Properties {
			sub := build(p.Value, baseURI, ptr+"/properties/"+escapePointerSegment(p.Key), lookup, out)
			if _, exists := k.Properties[p.Key]; !exists {
				k.PropertyOrder = append(k.PropertyOrder, p.Key)
			}
			k.Properties[p.Key] = sub
		}
	}
	if pp := v.Lookup("patternProperties"); pp != nil && pp.Kind == value.KindObject {
		for _, p := range pp.Properties {
			re, err := regexp.Compile(p.Key)
			if err != nil {
				// Invalid regexes are skipped, not reported (§4.5).
				continue
			}
			sub := build(p.Value, baseURI, ptr+"/patternProperties/"+escapePointerSegment(p.Key), lookup, out)
			k.PatternProperties = append(k.PatternProperties, PatternProperty{Pattern: re, Schema: sub})
		}
	}
	if ap := v.Lookup("additionalProperties"); ap != nil {
		k.AdditionalProperties = build(ap, baseURI, ptr+"/additionalProperties", lookup, out)
	}
	if req := v.Lookup("required"); req != nil && req.Kind == value.KindArray {
		for _, item := range req.Array {
			if item.Kind == value.KindString {
				k.Required = append(k.Required, item.Str)
			}
		}
	}
	k.MinProperties = integerKeyword(v, "minProperties", out)
	k.MaxProperties = integerKeyword(v, "maxProperties", out)

	if dep := v.Lookup("dependencies"); dep != nil && dep.Kind == value.KindObject {
		k.Dependencies = make(map[string]Dependency, len(dep.Properties))
		for _, p := range dep.Properties {
			if p.Value.Kind == value.KindArray {
				var names []string
				for _, item := range p.Value.Array {
					if item.Kind == value.KindString {
						names = append(names, item.Str)
					}
				}
				k.Dependencies[p.Key] = Dependency{Properties: names}
				continue
			}
			sub := build(p.Value, baseURI, ptr+"/dependencies/"+escapePointerSegment(p.Key), lookup, out)
			k.Dependencies[p.Key] = Dependency{Schema: sub}
		}
	}
}

func buildSchemaList(v *value.Value, key, baseURI, ptr string, lookup *IdLookup, out *[]diag.Message) []*Schema {
	arr := v.Lookup(key)
	if arr == nil || arr.Kind != value.KindArray {
		return nil
	}
	list := make([]*Schema, 0, len(arr.Array))
	for i, item := range arr.Array {
		list = append(list, build(item, baseURI, tuplePtr(ptr, key, i), lookup, out))
	}
	return list
}

func parseTypeKeyword(t *value.Value, out *[]diag.Message) []string {
	switch t.Kind {
	case value.KindString:
		return []string{t.Str}
	case value.KindArray:
		names := make([]string, 0, len(t.Array))
		for _, item := range t.Array {
			if item.Kind == value.KindString {
				names = append(names, item.Str)
			} else {
				*out = append(*out, diag.New(diag.SchemaKeywordType, item.Loc, "type array entries must be strings"))
			}
		}
		return names
	default:
		*out = append(*out, diag.New(diag.SchemaKeywordType, t.Loc, "type must be a string or an array of strings"))
		return nil
	}
}

// numberKeyword reads a numeric keyword, reporting nothing if absent or
// already invalid as a number at the value layer (NUMBER lexemes are
// always valid float64s by the time they reach a KsonValue).
func numberKeyword(v *value.Value, key string, out *[]diag.Message) *float64 {
	n := v.Lookup(key)
	if n == nil {
		return nil
	}
	if n.Kind != value.KindNumber {
		*out = append(*out, diag.New(diag.SchemaKeywordType, n.Loc, "%s must be a number", key))
		return nil
	}
	f := n.Number
	return &f
}

// integerKeyword reads an integer-valued length keyword (minLength,
// maxItems, etc.), requiring a zero fractional part per §4.5.
func integerKeyword(v *value.Value, key string, out *[]diag.Message) *int {
	n := v.Lookup(key)
	if n == nil {
		return nil
	}
	if n.Kind != value.KindNumber {
		*out = append(*out, diag.New(diag.SchemaKeywordType, n.Loc, "%s must be a number", key))
		return nil
	}
	if n.Number != float64(int(n.Number)) {
		*out = append(*out, diag.New(diag.SchemaIntegerRequired, n.Loc, "%s must be an integer", key))
		return nil
	}
	i := int(n.Number)
	return &i
}

func toLiteral(v *value.Value) ksonLiteral {
	if v == nil {
		return ksonLiteral{kind: litNull}
	}
	switch v.Kind {
	case value.KindBool:
		return ksonLiteral{kind: litBool, b: v.Bool}
	case value.KindNumber:
		return ksonLiteral{kind: litNumber, num: v.Number}
	case value.KindString:
		return ksonLiteral{kind: litString, str: v.Str}
	case value.KindArray:
		arr := make([]ksonLiteral, len(v.Array))
		for i, item := range v.Array {
			arr[i] = toLiteral(item)
		}
		return ksonLiteral{kind: litArray, arr: arr}
	case value.KindObject:
		fields := make([]literalField, 0, len(v.Properties))
		for _, p := range v.Properties {
			fields = append(fields, literalField{key: p.Key, val: toLiteral(p.Value)})
		}
		return ksonLiteral{kind: litObject, fields: fields}
	default:
		return ksonLiteral{kind: litNull}
	}
}

func kindName(k value.Kind) string {
	switch k {
	case value.KindNull:
		return "null"
	case value.KindBool:
		return "boolean"
	case value.KindNumber:
		return "number"
	case value.KindString:
		return "string"
	case value.KindArray:
		return "array"
	case value.KindObject:
		return "object"
	case value.KindEmbed:
		return "embed"
	default:
		return "unknown"
	}
}

func tuplePtr(ptr, key string, i int) string {
	return ptr + "/" + key + "/" + strconv.Itoa(i)
}

func escapePointerSegment(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '~':
			out = append(out, '~', '0')
		case '/':
			out = append(out, '~', '1')
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}

func boolPtr(b bool) *bool { return &b }
