package pointer

import (
	"strconv"

	"github.com/kson-org/kson-sub001/internal/kson/value"
)

// Navigate walks a (possibly glob) pointer over a KsonValue tree per
// §4.6: a Literal segment addresses an object property by name or an
// array element by RFC-6901 index; Wildcard returns every child of the
// current node; RecursiveDescent returns the current node (the
// zero-segment match) plus every descendant reachable by the remaining
// pointer; GlobPattern matches object property names (and, for arrays,
// literal index strings) via MatchGlob. Matching is backtracking-free and
// finite: descent always terminates at primitive leaves (§4.6).
func Navigate(v *value.Value, p Pointer) []*value.Value {
	return navigate(v, p.Tokens)
}

func navigate(v *value.Value, tokens []Token) []*value.Value {
	if v == nil {
		return nil
	}
	if len(tokens) == 0 {
		return []*value.Value{v}
	}
	head, rest := tokens[0], tokens[1:]

	switch head.Kind {
	case Wildcard:
		return navigateChildren(v, rest)
	case RecursiveDescent:
		var out []*value.Value
		out = append(out, navigate(v, rest)...)
		for _, child := range directChildren(v) {
			out = append(out, navigate(child, tokens)...)
		}
		return out
	case GlobPattern:
		var out []*value.Value
		switch v.Kind {
		case value.KindObject:
			for _, p := range v.Properties {
				if MatchGlob(head.Literal, p.Key) {
					out = append(out, navigate(p.Value, rest)...)
				}
			}
		case value.KindArray:
			for i, item := range v.Array {
				if MatchGlob(head.Literal, strconv.Itoa(i)) {
					out = append(out, navigate(item, rest)...)
				}
			}
		}
		return out
	default: // Literal
		switch v.Kind {
		case value.KindObject:
			if child := v.Lookup(head.Literal); child != nil {
				return navigate(child, rest)
			}
			return nil
		case value.KindArray:
			idx, ok := ArrayIndex(head.Literal)
			if !ok || idx < 0 || idx >= len(v.Array) {
				return nil
			}
			return navigate(v.Array[idx], rest)
		default:
			return nil
		}
	}
}

func navigateChildren(v *value.Value, rest []Token) []*value.Value {
	var out []*value.Value
	for _, child := range directChildren(v) {
		out = append(out, navigate(child, rest)...)
	}
	return out
}

func directChildren(v *value.Value) []*value.Value {
	switch v.Kind {
	case value.KindObject:
		out := make([]*value.Value, 0, len(v.Properties))
		for _, p := range v.Properties {
			out = append(out, p.Value)
		}
		return out
	case value.KindArray:
		return v.Array
	default:
		return nil
	}
}
