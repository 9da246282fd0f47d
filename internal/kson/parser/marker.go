// Package parser implements the marker-tree substrate and the
// recursive-descent grammar that turns a KSON token stream into a marker
// tree: a token-range-tagged tree that the AST lowerer later walks.
package parser

import (
	"fmt"

	"github.com/kson-org/kson-sub001/internal/kson/diag"
	"github.com/kson-org/kson-sub001/internal/kson/lexer"
)

// ParsedKind is the closed set of labels a marker can be finalized with.
// Together with lexer.Kind it forms the element sum type called for by
// the "tagged element kind unifying tokens and parsed kinds" guidance:
// a Marker's Element is either a raw token kind (leaf) or one of these
// (interior node).
type ParsedKind int

const (
	ROOT ParsedKind = iota
	OBJECT_DEFINITION
	OBJECT_INTERNALS
	OBJECT_PROPERTY
	LIST
	LIST_ELEMENT
	KEYWORD
	EMBED_BLOCK
	// STRING_LITERAL wraps a STRING_OPEN_QUOTE..STRING_CLOSE_QUOTE run. The
	// grammar's `string` production needs its own multi-token marker
	// distinct from KEYWORD (which also scans a string but then requires a
	// trailing COLON); this keeps the two grammar rules from colliding on
	// one label.
	STRING_LITERAL
	ERROR
	INCOMPLETE
)

var parsedKindNames = map[ParsedKind]string{
	ROOT:              "ROOT",
	OBJECT_DEFINITION: "OBJECT_DEFINITION",
	OBJECT_INTERNALS:  "OBJECT_INTERNALS",
	OBJECT_PROPERTY:   "OBJECT_PROPERTY",
	LIST:              "LIST",
	LIST_ELEMENT:      "LIST_ELEMENT",
	KEYWORD:           "KEYWORD",
	EMBED_BLOCK:       "EMBED_BLOCK",
	STRING_LITERAL:    "STRING_LITERAL",
	ERROR:             "ERROR",
	INCOMPLETE:        "INCOMPLETE",
}

func (k ParsedKind) String() string {
	if n, ok := parsedKindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("ParsedKind(%d)", int(k))
}

// Element is the tagged union of a raw token kind (for leaf markers that
// wrap a single token) and a ParsedKind (for interior, grammar-level
// markers). Exactly one of the two is meaningful, selected by IsToken.
type Element struct {
	isToken bool
	token   lexer.Kind
	parsed  ParsedKind
}

func TokenElement(k lexer.Kind) Element  { return Element{isToken: true, token: k} }
func ParsedElement(k ParsedKind) Element { return Element{parsed: k} }

func (e Element) IsToken() bool      { return e.isToken }
func (e Element) Token() lexer.Kind  { return e.token }
func (e Element) Parsed() ParsedKind { return e.parsed }

func (e Element) String() string {
	if e.isToken {
		return e.token.String()
	}
	return e.parsed.String()
}

// marker is one arena-allocated node. Children are indexed into the same
// arena, never back-referenced as pointers, per the "model markers as an
// arena with parent-indexed children" guidance: rollback_to/drop only
// ever touch the tail entry of children, which is O(1).
type marker struct {
	firstToken int
	lastToken  int // -1 while the marker is still open (INCOMPLETE)
	element    Element
	err        *diag.Message
	parent     int // -1 for the root
	children   []int
	incomplete bool
}

// Handle is a live reference to an open marker returned by Builder.Mark.
// Exactly one Handle may be outstanding for any given arena index at a
// time; calling Done/Drop/RollbackTo/Error consumes it.
type Handle struct {
	b   *Builder
	idx int
}

// Done finalizes the marker with the given label. last_token_index becomes
// current_index - 1, i.e. the marker covers every token consumed since it
// was opened.
func (h Handle) Done(kind ParsedKind) {
	h.b.finish(h.idx, ParsedElement(kind), nil)
}

// DoneToken finalizes a leaf marker for the token under the cursor. The
// grammar rules call it before advancing past that token, so the marker's
// recorded range is empty (LastToken is FirstToken-1): the leaf's token is
// the one at FirstToken, and its comments stay with the enclosing marker.
func (h Handle) DoneToken(kind lexer.Kind) {
	h.b.finish(h.idx, TokenElement(kind), nil)
}

// Drop removes this marker but re-parents its children to its own parent
// in place, preserving order. Used when a marker turns out to have been
// speculative scaffolding that shouldn't appear as its own tree node.
func (h Handle) Drop() {
	h.b.drop(h.idx)
}

// RollbackTo removes this marker and its whole subtree, and rewinds the
// builder's token cursor back to where the marker was opened. Only the
// tail (most recently opened, still-open) marker may ever be rolled back
// — the builder enforces this by panicking on any marker operation that
// does not target the most recently opened marker (see Builder.popOpen).
func (h Handle) RollbackTo() {
	h.b.rollback(h.idx)
}

// Error finalizes the marker as an ERROR node carrying msg, and marks the
// whole parse as errored (see Builder.Errored).
func (h Handle) Error(msg diag.Message) {
	m := msg
	h.b.finish(h.idx, ParsedElement(ERROR), &m)
	h.b.errored = true
}

// FirstToken reports the token index this marker starts at, useful for
// building a diag.Message location before the marker is finalized.
func (h Handle) FirstToken() int { return h.b.arena[h.idx].firstToken }
