// Package ast defines the typed syntax tree produced by lowering a marker
// tree (see internal/kson/parser) once it is known to be error-free.
package ast

import (
	"github.com/kson-org/kson-sub001/internal/kson/loc"
)

// NodeKind discriminates the closed set of AstNode shapes named in the
// data model: KsonRoot, ObjectDefinition, ObjectInternals, ObjectProperty,
// List, ListElement, EmbedBlock, IdentifierNode, StringNode, NumberNode,
// True/False/NullNode.
type NodeKind int

const (
	KindRoot NodeKind = iota
	KindObjectDefinition
	KindObjectInternals
	KindObjectProperty
	KindList
	KindListElement
	KindEmbedBlock
	KindIdentifier
	KindString
	KindNumber
	KindTrue
	KindFalse
	KindNull
)

// Node is implemented by every AST shape. Every node carries its source
// span so downstream diagnostics (schema evaluation, navigation) can
// anchor to exact document locations.
type Node interface {
	Kind() NodeKind
	Location() loc.Location
}

// Root is the top of the tree: either a bare object_internals document or
// a single value, plus the comments that could not be claimed by any
// inner commentable node.
type Root struct {
	Content          Node
	Comments         []string
	TrailingComments []string
	Loc              loc.Location
}

func (n *Root) Kind() NodeKind        { return KindRoot }
func (n *Root) Location() loc.Location { return n.Loc }

// ObjectDefinition is `name? "{" internals "}"`. Name is nil for an
// anonymous object.
type ObjectDefinition struct {
	Name      *Identifier
	Internals *ObjectInternals
	Loc       loc.Location
}

func (n *ObjectDefinition) Kind() NodeKind        { return KindObjectDefinition }
func (n *ObjectDefinition) Location() loc.Location { return n.Loc }

// ObjectInternals is the possibly-empty, comma-optional property list
// inside an object (or the whole document, for a bare top-level object).
type ObjectInternals struct {
	Properties []*ObjectProperty
	Loc        loc.Location
}

func (n *ObjectInternals) Kind() NodeKind        { return KindObjectInternals }
func (n *ObjectInternals) Location() loc.Location { return n.Loc }

// ObjectProperty is one `keyword value`. Key is either an Identifier or a
// String.
type ObjectProperty struct {
	Key      Node
	Value    Node
	Comments []string
	Loc      loc.Location
}

func (n *ObjectProperty) Kind() NodeKind        { return KindObjectProperty }
func (n *ObjectProperty) Location() loc.Location { return n.Loc }

// List is either a dash_list or a bracket_list; the grammar distinction
// does not survive lowering since both produce the same shape.
type List struct {
	Elements []*ListElement
	Loc      loc.Location
}

func (n *List) Kind() NodeKind        { return KindList }
func (n *List) Location() loc.Location { return n.Loc }

// ListElement is one value inside a List, with its own claimed comments.
type ListElement struct {
	Value    Node
	Comments []string
	Loc      loc.Location
}

func (n *ListElement) Kind() NodeKind        { return KindListElement }
func (n *ListElement) Location() loc.Location { return n.Loc }

// EmbedBlock is a `%%tag\n...content...%%` (or $$) block. Content is
// already indent-stripped and escape-rewritten by the lexer.
type EmbedBlock struct {
	Tag     string
	Content string
	Loc     loc.Location
}

func (n *EmbedBlock) Kind() NodeKind        { return KindEmbedBlock }
func (n *EmbedBlock) Location() loc.Location { return n.Loc }

// Identifier is a bare, unquoted name used as a key or a literal value.
type Identifier struct {
	Name string
	Loc  loc.Location
}

func (n *Identifier) Kind() NodeKind        { return KindIdentifier }
func (n *Identifier) Location() loc.Location { return n.Loc }

// String is a decoded quoted string (escapes resolved).
type String struct {
	Value string
	Loc   loc.Location
}

func (n *String) Kind() NodeKind        { return KindString }
func (n *String) Location() loc.Location { return n.Loc }

// Number is a parsed numeric literal, with both the IEEE-754 value and the
// original source text (needed for round-trip / canonical re-serialization
// checks).
type Number struct {
	Value float64
	Raw   string
	Loc   loc.Location
}

func (n *Number) Kind() NodeKind        { return KindNumber }
func (n *Number) Location() loc.Location { return n.Loc }

// True, False, Null are the three reserved-keyword literals.
type True struct{ Loc loc.Location }

func (n *True) Kind() NodeKind        { return KindTrue }
func (n *True) Location() loc.Location { return n.Loc }

type False struct{ Loc loc.Location }

func (n *False) Kind() NodeKind        { return KindFalse }
func (n *False) Location() loc.Location { return n.Loc }

type Null struct{ Loc loc.Location }

func (n *Null) Kind() NodeKind        { return KindNull }
func (n *Null) Location() loc.Location { return n.Loc }
