// Package value defines KsonValue, the semantic model consumed by schema
// validation: plain null/bool/number/string/array/object/embed data with
// source spans preserved, independent of the AST's grammar-level shape
// (object_definition vs. bare object_internals collapse to the same
// Object here).
package value

import (
	"github.com/kson-org/kson-sub001/internal/kson/ast"
	"github.com/kson-org/kson-sub001/internal/kson/loc"
)

// Kind discriminates the closed set of KSON value shapes.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
	KindEmbed
)

// Property is one (key, value) pair in an Object's ordered sequence.
// Duplicate keys are both preserved here for diagnostic purposes; only
// the lookup map collapses to last-writer-wins (§3, resolving the
// corresponding Open Question: no diagnostic is emitted for the
// duplicate, matching the source).
type Property struct {
	Key   string
	Value *Value
}

// Value is the tagged union described by the KsonValue data model. Only
// the field matching Kind is meaningful.
type Value struct {
	Kind Kind
	Loc  loc.Location

	Bool   bool
	Number float64
	Raw    string // original source text of a Number, for round-trip checks
	Str    string

	Array []*Value

	Properties []Property
	lookup     map[string]*Value

	EmbedTag      string
	EmbedMetadata string
	EmbedContent  string
}

// Lookup resolves a key to its last-writer-wins value, or nil.
func (v *Value) Lookup(key string) *Value {
	if v == nil || v.lookup == nil {
		return nil
	}
	return v.lookup[key]
}

// FromAST converts a lowered AST root's content into a KsonValue tree. It
// assumes the AST is already known error-free (ast.Lower only returns a
// non-nil Root in that case).
func FromAST(content ast.Node) *Value {
	if content == nil {
		return &Value{Kind: KindNull}
	}
	switch n := content.(type) {
	case *ast.ObjectDefinition:
		if n.Internals == nil {
			return &Value{Kind: KindObject, Loc: n.Location(), lookup: map[string]*Value{}}
		}
		return fromObjectInternals(n.Internals)
	case *ast.ObjectInternals:
		return fromObjectInternals(n)
	case *ast.List:
		return fromList(n)
	case *ast.EmbedBlock:
		return &Value{Kind: KindEmbed, Loc: n.Location(), EmbedTag: n.Tag, EmbedContent: n.Content}
	case *ast.Identifier:
		return &Value{Kind: KindString, Loc: n.Location(), Str: n.Name}
	case *ast.String:
		return &Value{Kind: KindString, Loc: n.Location(), Str: n.Value}
	case *ast.Number:
		return &Value{Kind: KindNumber, Loc: n.Location(), Number: n.Value, Raw: n.Raw}
	case *ast.True:
		return &Value{Kind: KindBool, Loc: n.Location(), Bool: true}
	case *ast.False:
		return &Value{Kind: KindBool, Loc: n.Location(), Bool: false}
	case *ast.Null:
		return &Value{Kind: KindNull, Loc: n.Location()}
	default:
		return &Value{Kind: KindNull}
	}
}

func fromObjectInternals(oi *ast.ObjectInternals) *Value {
	v := &Value{Kind: KindObject, Loc: oi.Location(), lookup: make(map[string]*Value, len(oi.Properties))}
	for _, p := range oi.Properties {
		key := keyText(p.Key)
		val := FromAST(p.Value)
		v.Properties = append(v.Properties, Property{Key: key, Value: val})
		v.lookup[key] = val // last writer wins
	}
	return v
}

func keyText(n ast.Node) string {
	switch k := n.(type) {
	case *ast.Identifier:
		return k.Name
	case *ast.String:
		return k.Value
	default:
		return ""
	}
}

func fromList(l *ast.List) *Value {
	v := &Value{Kind: KindArray, Loc: l.Location()}
	for _, e := range l.Elements {
		v.Array = append(v.Array, FromAST(e.Value))
	}
	return v
}
