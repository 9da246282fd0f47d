package schema

import "github.com/kson-org/kson-sub001/internal/kson/pointer"

// Navigate answers "which schema applies at document pointer p" (§4.5
// Navigator contract). It walks properties / patternProperties /
// additionalProperties / items / additionalItems / combinators / $ref as
// p's segments are consumed. A strict pointer consumes one segment path,
// but can still yield several schemas when a property, matching
// patternProperties, combinators or if/then/else branches all apply at
// the same position; a glob pointer (p.Glob) additionally fans out over
// segments. Results are deduplicated by node identity (§4.5 "uniqueness
// by node identity is" guaranteed).
func Navigate(root *Schema, lookup *IdLookup, p pointer.Pointer) []*Schema {
	seen := make(map[*Schema]bool)
	var out []*Schema
	walk(root, lookup, "", p.Tokens, func(s *Schema) {
		if s != nil && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	})
	return out
}

func walk(s *Schema, lookup *IdLookup, baseURI string, tokens []pointer.Token, emit func(*Schema)) {
	if s == nil {
		return
	}
	if s.ID != "" {
		baseURI = s.ID
	}
	if s.Keywords.Ref != "" {
		if target, ok := lookup.Resolve(s.Keywords.Ref, baseURI); ok {
			walk(target, lookup, baseURI, tokens, emit)
		}
		return
	}
	if len(tokens) == 0 {
		emit(s)
		// Combinators compatible with the empty remaining pointer also
		// apply at this document position (§4.5: "all matches are
		// returned" when more than one sub-schema is compatible).
		for _, sub := range s.Keywords.AllOf {
			walk(sub, lookup, baseURI, tokens, emit)
		}
		for _, sub := range s.Keywords.AnyOf {
			walk(sub, lookup, baseURI, tokens, emit)
		}
		for _, sub := range s.Keywords.OneOf {
			walk(sub, lookup, baseURI, tokens, emit)
		}
		return
	}

	head, rest := tokens[0], tokens[1:]
	switch head.Kind {
	case pointer.Wildcard:
		for _, name := range s.Keywords.PropertyOrder {
			walk(s.Keywords.Properties[name], lookup, baseURI, rest, emit)
		}
		if s.Keywords.Items != nil {
			walk(s.Keywords.Items, lookup, baseURI, rest, emit)
		}
		for _, sub := range s.Keywords.ItemsTuple {
			walk(sub, lookup, baseURI, rest, emit)
		}
	case pointer.RecursiveDescent:
		// Zero-level match included: the remainder may apply right here.
		walk(s, lookup, baseURI, rest, emit)
		for _, name := range s.Keywords.PropertyOrder {
			walk(s.Keywords.Properties[name], lookup, baseURI, tokens, emit)
		}
		if s.Keywords.Items != nil {
			walk(s.Keywords.Items, lookup, baseURI, tokens, emit)
		}
		for _, sub := range s.Keywords.ItemsTuple {
			walk(sub, lookup, baseURI, tokens, emit)
		}
	case pointer.GlobPattern:
		for _, name := range s.Keywords.PropertyOrder {
			if pointer.MatchGlob(head.Literal, name) {
				walk(s.Keywords.Properties[name], lookup, baseURI, rest, emit)
			}
		}
	default: // Literal
		navigateLiteralSegment(s, lookup, baseURI, head.Literal, rest, emit)
	}

	// Combinators are navigated with the full, unconsumed remaining
	// pointer at every level, since a compatible branch might define the
	// matching property instead of (or in addition to) this schema.
	for _, sub := range s.Keywords.AllOf {
		walk(sub, lookup, baseURI, tokens, emit)
	}
	for _, sub := range s.Keywords.AnyOf {
		walk(sub, lookup, baseURI, tokens, emit)
	}
	for _, sub := range s.Keywords.OneOf {
		walk(sub, lookup, baseURI, tokens, emit)
	}
	if s.Keywords.If != nil {
		walk(s.Keywords.If, lookup, baseURI, tokens, emit)
	}
	if s.Keywords.Then != nil {
		walk(s.Keywords.Then, lookup, baseURI, tokens, emit)
	}
	if s.Keywords.Else != nil {
		walk(s.Keywords.Else, lookup, baseURI, tokens, emit)
	}
}

func navigateLiteralSegment(s *Schema, lookup *IdLookup, baseURI, segment string, rest []pointer.Token, emit func(*Schema)) {
	if sub, ok := s.Keywords.Properties[segment]; ok {
		walk(sub, lookup, baseURI, rest, emit)
	}
	matched := false
	for _, pp := range s.Keywords.PatternProperties {
		if pp.Pattern.MatchString(segment) {
			walk(pp.Schema, lookup, baseURI, rest, emit)
			matched = true
		}
	}
	if _, ok := s.Keywords.Properties[segment]; !ok && !matched && s.Keywords.AdditionalProperties != nil {
		walk(s.Keywords.AdditionalProperties, lookup, baseURI, rest, emit)
	}

	if idx, ok := pointer.ArrayIndex(segment); ok && idx >= 0 {
		if idx < len(s.Keywords.ItemsTuple) {
			walk(s.Keywords.ItemsTuple[idx], lookup, baseURI, rest, emit)
		} else if s.Keywords.ItemsTuple != nil {
			if s.Keywords.AdditionalItems != nil {
				walk(s.Keywords.AdditionalItems, lookup, baseURI, rest, emit)
			}
		} else if s.Keywords.Items != nil {
			walk(s.Keywords.Items, lookup, baseURI, rest, emit)
		}
	}
}
