package schema

import (
	"math"
	"sort"

	"github.com/kson-org/kson-sub001/internal/kson/diag"
	"github.com/kson-org/kson-sub001/internal/kson/value"
)

// evalCtx carries per-Validate-call state: the IdLookup every $ref must
// resolve through and the cycle-breaking visited set from §5 (the current
// base URI scope is passed to eval as a parameter instead) ("bounds $ref cycles by maintaining a visited-set
// of (value_span, schema_uri) pairs during evaluation — detection on
// re-entry returns conformant to break cycles safely").
type evalCtx struct {
	lookup  *IdLookup
	visited map[visitKey]bool
}

type visitKey struct {
	schema *Schema
	start  int
	end    int
}

// Validate evaluates value against schema, returning every diagnostic the
// evaluator produces. Diagnostics are always anchored to v's location,
// never the schema's (§4.5 "for each keyword it produces zero or more
// diagnostics with locations attached to the value").
func Validate(v *value.Value, s *Schema, lookup *IdLookup) []diag.Message {
	ctx := &evalCtx{lookup: lookup, visited: make(map[visitKey]bool)}
	var out []diag.Message
	ctx.eval(v, s, "", &out)
	return out
}

func (c *evalCtx) eval(v *value.Value, s *Schema, baseURI string, out *[]diag.Message) {
	if s == nil {
		return
	}
	if s.IsBoolean() {
		if !s.Accepts() {
			*out = append(*out, diag.New(diag.TypeMismatch, v.Loc, "value is not permitted here"))
		}
		return
	}
	if s.ID != "" {
		baseURI = s.ID
	}
	k := &s.Keywords
	if k.Ref != "" {
		c.evalRef(v, k.Ref, baseURI, out)
		return
	}

	c.evalType(v, k, out)
	c.evalEnumConst(v, k, out)
	c.evalNumeric(v, k, out)
	c.evalString(v, k, out)
	c.evalArray(v, k, baseURI, out)
	c.evalObject(v, k, baseURI, out)
	c.evalCombinators(v, k, baseURI, out)
	c.evalConditional(v, k, baseURI, out)
}

func (c *evalCtx) evalRef(v *value.Value, ref, baseURI string, out *[]diag.Message) {
	target, ok := c.lookup.Resolve(ref, baseURI)
	if !ok {
		*out = append(*out, diag.New(diag.SchemaRefUnresolved, v.Loc, "unresolved $ref %q", ref))
		return
	}
	key := visitKey{schema: target, start: v.Loc.StartOffset, end: v.Loc.EndOffset}
	if c.visited[key] {
		return // cycle: treat as conformant (§5)
	}
	c.visited[key] = true
	c.eval(v, target, baseURI, out)
	delete(c.visited, key)
}

func (c *evalCtx) evalType(v *value.Value, k *Keywords, out *[]diag.Message) {
	if len(k.Type) == 0 {
		return
	}
	for _, t := range k.Type {
		if matchesType(v, t) {
			return
		}
	}
	*out = append(*out, diag.New(diag.TypeMismatch, v.Loc, "value does not match type %v", k.Type))
}

func matchesType(v *value.Value, t string) bool {
	switch t {
	case "null":
		return v.Kind == value.KindNull
	case "boolean":
		return v.Kind == value.KindBool
	case "object":
		return v.Kind == value.KindObject
	case "array":
		return v.Kind == value.KindArray
	case "string":
		return v.Kind == value.KindString
	case "number":
		return v.Kind == value.KindNumber
	case "integer":
		return v.Kind == value.KindNumber && v.Number == math.Trunc(v.Number)
	default:
		return false
	}
}

func (c *evalCtx) evalEnumConst(v *value.Value, k *Keywords, out *[]diag.Message) {
	lit := toLiteral(v)
	if len(k.Enum) > 0 {
		matched := false
		for _, e := range k.Enum {
			if e.equal(lit) {
				matched = true
				break
			}
		}
		if !matched {
			*out = append(*out, diag.New(diag.EnumMismatch, v.Loc, "value is not one of the enumerated values"))
		}
	}
	if k.Const != nil && !k.Const.equal(lit) {
		*out = append(*out, diag.New(diag.ConstMismatch, v.Loc, "value does not equal the required constant"))
	}
}

func (c *evalCtx) evalNumeric(v *value.Value, k *Keywords, out *[]diag.Message) {
	if v.Kind != value.KindNumber {
		return
	}
	n := v.Number
	if k.Minimum != nil && n < *k.Minimum {
		*out = append(*out, diag.New(diag.RangeFailure, v.Loc, "%v is less than minimum %v", n, *k.Minimum))
	}
	if k.Maximum != nil && n > *k.Maximum {
		*out = append(*out, diag.New(diag.RangeFailure, v.Loc, "%v is greater than maximum %v", n, *k.Maximum))
	}
	if k.ExclusiveMinimum != nil && n <= *k.ExclusiveMinimum {
		*out = append(*out, diag.New(diag.RangeFailure, v.Loc, "%v is not greater than exclusiveMinimum %v", n, *k.ExclusiveMinimum))
	}
	if k.ExclusiveMaximum != nil && n >= *k.ExclusiveMaximum {
		*out = append(*out, diag.New(diag.RangeFailure, v.Loc, "%v is not less than exclusiveMaximum %v", n, *k.ExclusiveMaximum))
	}
	if k.MultipleOf != nil && *k.MultipleOf != 0 {
		q := n / *k.MultipleOf
		if math.Abs(q-math.Round(q)) > 1e-9 {
			*out = append(*out, diag.New(diag.MultipleOfFailure, v.Loc, "%v is not a multiple of %v", n, *k.MultipleOf))
		}
	}
}

func (c *evalCtx) evalString(v *value.Value, k *Keywords, out *[]diag.Message) {
	if v.Kind != value.KindString {
		return
	}
	length := len([]rune(v.Str))
	if k.MinLength != nil && length < *k.MinLength {
		*out = append(*out, diag.New(diag.LengthOutOfRange, v.Loc, "string length %d is less than minLength %d", length, *k.MinLength))
	}
	if k.MaxLength != nil && length > *k.MaxLength {
		*out = append(*out, diag.New(diag.LengthOutOfRange, v.Loc, "string length %d is greater than maxLength %d", length, *k.MaxLength))
	}
	if k.Pattern != nil && !k.Pattern.MatchString(v.Str) {
		*out = append(*out, diag.New(diag.PatternMismatch, v.Loc, "string does not match pattern %q", k.Pattern.String()))
	}
}

func (c *evalCtx) evalArray(v *value.Value, k *Keywords, baseURI string, out *[]diag.Message) {
	if v.Kind != value.KindArray {
		return
	}
	n := len(v.Array)
	if k.MinItems != nil && n < *k.MinItems {
		*out = append(*out, diag.New(diag.CountOutOfRange, v.Loc, "array has %d items, fewer than minItems %d", n, *k.MinItems))
	}
	if k.MaxItems != nil && n > *k.MaxItems {
		*out = append(*out, diag.New(diag.CountOutOfRange, v.Loc, "array has %d items, more than maxItems %d", n, *k.MaxItems))
	}
	if k.UniqueItems {
		c.checkUnique(v, out)
	}
	for i, item := range v.Array {
		switch {
		case i < len(k.ItemsTuple):
			c.eval(item, k.ItemsTuple[i], baseURI, out)
		case k.ItemsTuple != nil:
			if k.AdditionalItems != nil {
				c.eval(item, k.AdditionalItems, baseURI, out)
			}
		case k.Items != nil:
			c.eval(item, k.Items, baseURI, out)
		}
	}
	if k.Contains != nil {
		found := false
		for _, item := range v.Array {
			var sub []diag.Message
			c.eval(item, k.Contains, baseURI, &sub)
			if len(sub) == 0 {
				found = true
				break
			}
		}
		if !found {
			*out = append(*out, diag.New(diag.CountOutOfRange, v.Loc, "array does not contain a matching item"))
		}
	}
}

func (c *evalCtx) checkUnique(v *value.Value, out *[]diag.Message) {
	seen := make([]ksonLiteral, 0, len(v.Array))
	for _, item := range v.Array {
		lit := toLiteral(item)
		for _, prior := range seen {
			if prior.equal(lit) {
				*out = append(*out, diag.New(diag.UniqueItemsFailure, v.Loc, "array items must be unique"))
				return
			}
		}
		seen = append(seen, lit)
	}
}

func (c *evalCtx) evalObject(v *value.Value, k *Keywords, baseURI string, out *[]diag.Message) {
	if v.Kind != value.KindObject {
		return
	}
	n := len(v.Properties)
	if k.MinProperties != nil && n < *k.MinProperties {
		*out = append(*out, diag.New(diag.CountOutOfRange, v.Loc, "object has %d properties, fewer than minProperties %d", n, *k.MinProperties))
	}
	if k.MaxProperties != nil && n > *k.MaxProperties {
		*out = append(*out, diag.New(diag.CountOutOfRange, v.Loc, "object has %d properties, more than maxProperties %d", n, *k.MaxProperties))
	}
	for _, name := range k.Required {
		if v.Lookup(name) == nil {
			*out = append(*out, diag.New(diag.RequiredMissing, v.Loc, "missing required property %q", name))
		}
	}
	for _, p := range v.Properties {
		matchedByName := false
		if sub, ok := k.Properties[p.Key]; ok {
			c.eval(p.Value, sub, baseURI, out)
			matchedByName = true
		}
		matchedByPattern := false
		for _, pp := range k.PatternProperties {
			if pp.Pattern.MatchString(p.Key) {
				c.eval(p.Value, pp.Schema, baseURI, out)
				matchedByPattern = true
			}
		}
		if !matchedByName && !matchedByPattern && k.AdditionalProperties != nil {
			c.eval(p.Value, k.AdditionalProperties, baseURI, out)
		}
	}
	for _, key := range sortedKeys(k.Dependencies) {
		dep := k.Dependencies[key]
		if v.Lookup(key) == nil {
			continue
		}
		if dep.Schema != nil {
			c.eval(v, dep.Schema, baseURI, out)
			continue
		}
		for _, req := range dep.Properties {
			if v.Lookup(req) == nil {
				*out = append(*out, diag.New(diag.RequiredMissing, v.Loc,
					"property %q requires %q to also be present", key, req))
			}
		}
	}
}

func (c *evalCtx) evalCombinators(v *value.Value, k *Keywords, baseURI string, out *[]diag.Message) {
	for _, sub := range k.AllOf {
		c.eval(v, sub, baseURI, out)
	}
	if len(k.AnyOf) > 0 {
		matched := false
		var firstFailures []diag.Message
		for i, sub := range k.AnyOf {
			var subOut []diag.Message
			c.eval(v, sub, baseURI, &subOut)
			if len(subOut) == 0 {
				matched = true
				break
			}
			if i == 0 {
				firstFailures = subOut
			}
		}
		if !matched {
			*out = append(*out, diag.New(diag.AnyOfFailure, v.Loc, "value matches none of the anyOf schemas"))
			*out = append(*out, firstFailures...)
		}
	}
	if len(k.OneOf) > 0 {
		matchCount := 0
		for _, sub := range k.OneOf {
			var subOut []diag.Message
			c.eval(v, sub, baseURI, &subOut)
			if len(subOut) == 0 {
				matchCount++
			}
		}
		if matchCount != 1 {
			*out = append(*out, diag.New(diag.OneOfFailure, v.Loc, "value matches %d of the oneOf schemas, expected exactly 1", matchCount))
		}
	}
	if k.Not != nil {
		var subOut []diag.Message
		c.eval(v, k.Not, baseURI, &subOut)
		if len(subOut) == 0 {
			*out = append(*out, diag.New(diag.NotFailure, v.Loc, "value must not match the 'not' schema"))
		}
	}
}

func (c *evalCtx) evalConditional(v *value.Value, k *Keywords, baseURI string, out *[]diag.Message) {
	if k.If == nil {
		return
	}
	var ifOut []diag.Message
	c.eval(v, k.If, baseURI, &ifOut)
	if len(ifOut) == 0 {
		if k.Then != nil {
			c.eval(v, k.Then, baseURI, out)
		}
		return
	}
	if k.Else != nil {
		c.eval(v, k.Else, baseURI, out)
	}
}

// sortedKeys is a small helper kept for deterministic diagnostic ordering
// where evaluation walks a Go map (Dependencies); property and
// pattern-property evaluation walk v.Properties instead, which is already
// insertion-ordered.
func sortedKeys(m map[string]Dependency) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
