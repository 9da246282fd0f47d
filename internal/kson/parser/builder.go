package parser

import (
	"github.com/kson-org/kson-sub001/internal/kson/diag"
	"github.com/kson-org/kson-sub001/internal/kson/lexer"
	"github.com/kson-org/kson-sub001/internal/kson/loc"
)

// Builder is the single-owner token cursor plus marker arena that backs
// one parse. It is never shared across parses (see §9 "mutable shared
// builder").
type Builder struct {
	tokens  []lexer.Token
	current int

	arena []marker
	// open is the stack of currently-unfinished marker indices, root
	// first. Only open[len(open)-1] — the deepest unresolved descendant
	// of the root — may ever receive a further Mark() call; this is the
	// linchpin invariant from §4.3.
	open []int

	errored bool
}

// NewBuilder creates a Builder over a finished token stream. Whitespace
// and comment tokens should already have been filtered by the lexer
// (gap_free=false) before parsing; the grammar has no use for them.
func NewBuilder(tokens []lexer.Token) *Builder {
	return &Builder{tokens: tokens}
}

// TokenKind reports the kind of the token under the cursor, or lexer.EOF
// past the end of the stream.
func (b *Builder) TokenKind() lexer.Kind {
	if b.current >= len(b.tokens) {
		return lexer.EOF
	}
	return b.tokens[b.current].Kind
}

// TokenText returns the lexeme of the token under the cursor.
func (b *Builder) TokenText() string {
	if b.current >= len(b.tokens) {
		return ""
	}
	return b.tokens[b.current].Lexeme
}

// Current returns the full token under the cursor.
func (b *Builder) Current() lexer.Token {
	if b.current >= len(b.tokens) {
		return lexer.Token{Kind: lexer.EOF}
	}
	return b.tokens[b.current]
}

// LookAhead returns the kind of the token n positions ahead of the cursor
// (LookAhead(0) == TokenKind()).
func (b *Builder) LookAhead(n int) lexer.Kind {
	i := b.current + n
	if i < 0 || i >= len(b.tokens) {
		return lexer.EOF
	}
	return b.tokens[i].Kind
}

// Advance consumes and returns the token under the cursor. Advancing past
// EOF repeatedly returns the synthetic EOF token without moving further.
func (b *Builder) Advance() lexer.Token {
	t := b.Current()
	if b.current < len(b.tokens) {
		b.current++
	}
	return t
}

// Eof reports whether the cursor has reached (or passed) the EOF token.
func (b *Builder) Eof() bool {
	return b.TokenKind() == lexer.EOF
}

// CurrentIndex exposes the raw token index, used by the parser to compute
// leftover-token spans (EOF_NOT_REACHED).
func (b *Builder) CurrentIndex() int { return b.current }

// Tokens exposes the underlying stream read-only, for span computation.
func (b *Builder) Tokens() []lexer.Token { return b.tokens }

// Errored reports whether any marker has been finalized via Error.
func (b *Builder) Errored() bool { return b.errored }

// Mark opens a new marker at the current token. Per the deepest-tail
// invariant, it is only ever legal to call this while the previous
// in-flight marker (if any) is still open; the arena records the new
// marker as a child of whatever is currently open, or as the root if
// nothing is.
func (b *Builder) Mark() Handle {
	idx := len(b.arena)
	parent := -1
	if len(b.open) > 0 {
		parent = b.open[len(b.open)-1]
		b.arena[parent].children = append(b.arena[parent].children, idx)
	}
	b.arena = append(b.arena, marker{
		firstToken: b.current,
		lastToken:  -1,
		parent:     parent,
		incomplete: true,
	})
	b.open = append(b.open, idx)
	return Handle{b: b, idx: idx}
}

// finish closes the open marker at idx, which must be the tail of b.open.
func (b *Builder) finish(idx int, el Element, err *diag.Message) {
	m := &b.arena[idx]
	m.element = el
	m.err = err
	m.lastToken = b.current - 1
	m.incomplete = false
	b.popOpen(idx)
}

// drop removes the marker at idx, splicing its children into its parent's
// child list at the position it occupied.
func (b *Builder) drop(idx int) {
	m := &b.arena[idx]
	parent := m.parent
	if parent >= 0 {
		pm := &b.arena[parent]
		pos := indexOfChild(pm.children, idx)
		if pos >= 0 {
			replacement := make([]int, 0, len(pm.children)-1+len(m.children))
			replacement = append(replacement, pm.children[:pos]...)
			replacement = append(replacement, m.children...)
			replacement = append(replacement, pm.children[pos+1:]...)
			pm.children = replacement
		}
		for _, c := range m.children {
			b.arena[c].parent = parent
		}
	}
	b.popOpen(idx)
}

// rollback removes the marker at idx and its whole subtree, and rewinds
// the token cursor back to where the marker was first opened. Because of
// the deepest-tail invariant, idx is always the last entry of its
// parent's children, so removal is O(1).
func (b *Builder) rollback(idx int) {
	m := &b.arena[idx]
	b.current = m.firstToken
	if m.parent >= 0 {
		pm := &b.arena[m.parent]
		if n := len(pm.children); n > 0 && pm.children[n-1] == idx {
			pm.children = pm.children[:n-1]
		}
	}
	b.popOpen(idx)
}

func (b *Builder) popOpen(idx int) {
	n := len(b.open)
	if n == 0 || b.open[n-1] != idx {
		panic("parser: marker operation on a non-tail marker violates the deepest-unresolved-descendant invariant")
	}
	b.open = b.open[:n-1]
}

func indexOfChild(children []int, idx int) int {
	for i, c := range children {
		if c == idx {
			return i
		}
	}
	return -1
}

// Root returns the index of the outermost marker (the first one opened),
// or -1 if no marker was ever created.
func (b *Builder) Root() int {
	if len(b.arena) == 0 {
		return -1
	}
	return 0
}

// Node is the read-only view of a finalized marker handed to the AST
// lowerer; it deliberately hides the mutation-only fields of marker.
type Node struct {
	FirstToken int
	LastToken  int
	Element    Element
	Err        *diag.Message
	Children   []int
}

// NodeAt exposes read access to an arena slot for the AST lowerer.
func (b *Builder) NodeAt(idx int) Node {
	m := b.arena[idx]
	return Node{
		FirstToken: m.firstToken,
		LastToken:  m.lastToken,
		Element:    m.element,
		Err:        m.err,
		Children:   m.children,
	}
}

// Location computes the source span covering tokens [first,last] of the
// builder's stream.
func (b *Builder) Location(first, last int) loc.Location {
	if first >= len(b.tokens) {
		first = len(b.tokens) - 1
	}
	if last >= len(b.tokens) {
		last = len(b.tokens) - 1
	}
	if first < 0 || last < 0 || first > last {
		return loc.Zero
	}
	return loc.Merge(b.tokens[first].Location, b.tokens[last].Location)
}
