// Package scanner provides character-level cursor discipline for the KSON
// lexer: byte offsets and zero-based line/column tracking, and lexeme
// extraction from a selection window.
//
// Thread Safety: a Scanner is NOT safe for concurrent use. Each lex
// operation must create its own Scanner via New().
package scanner

import (
	"fmt"
	"unicode/utf8"
)

// Lexeme is a slice of source text together with the span it came from.
type Lexeme struct {
	Text string
	Loc  Location
}

// Location mirrors loc.Location's shape locally to keep this package
// dependency-free; the lexer converts it to loc.Location at its
// boundary (see lexer.toLoc).
type Location struct {
	FirstLine, FirstColumn int
	LastLine, LastColumn   int
	StartOffset, EndOffset int
}

// Scanner is a character cursor over a UTF-8 source string.
type Scanner struct {
	source string

	selectionStart int
	current        int

	line   int
	column int

	// line/column as of selectionStart, so extractLexeme can report the
	// span's starting position even after current has moved on.
	startLine   int
	startColumn int

	peeked bool
}

// New creates a Scanner positioned at the start of source.
func New(source string) *Scanner {
	return &Scanner{
		source:      source,
		line:        0,
		column:      0,
		startLine:   0,
		startColumn: 0,
	}
}

// Peek returns the next rune without consuming it, or (0, false) at EOF.
func (s *Scanner) Peek() (rune, bool) {
	s.peeked = true
	if s.current >= len(s.source) {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(s.source[s.current:])
	return r, true
}

// PeekNext returns the rune after the next one, or (0, false) if fewer
// than two runes remain.
func (s *Scanner) PeekNext() (rune, bool) {
	if s.current >= len(s.source) {
		return 0, false
	}
	_, size := utf8.DecodeRuneInString(s.source[s.current:])
	next := s.current + size
	if next >= len(s.source) {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(s.source[next:])
	return r, true
}

// Advance consumes and returns one Unicode scalar value. Calling Advance
// past EOF without an intervening Peek is a usage bug and panics loudly
// rather than silently returning garbage.
func (s *Scanner) Advance() rune {
	if !s.peeked {
		panic("scanner: Advance called without a preceding Peek")
	}
	s.peeked = false
	if s.current >= len(s.source) {
		panic("scanner: Advance called at EOF")
	}
	r, size := utf8.DecodeRuneInString(s.source[s.current:])
	s.current += size
	if r == '\n' {
		s.line++
		s.column = 0
	} else {
		s.column++
	}
	return r
}

// AtEOF reports whether the cursor has reached the end of source.
func (s *Scanner) AtEOF() bool {
	return s.current >= len(s.source)
}

// ExtractLexeme returns the text between the last extraction point (or the
// start of the source) and the current cursor position, then starts a
// fresh selection at the current position.
func (s *Scanner) ExtractLexeme() Lexeme {
	if s.selectionStart > s.current {
		panic(fmt.Sprintf("scanner: selection inverted, start=%d current=%d", s.selectionStart, s.current))
	}
	text := s.source[s.selectionStart:s.current]
	l := Lexeme{
		Text: text,
		Loc: Location{
			FirstLine:   s.startLine,
			FirstColumn: s.startColumn,
			LastLine:    s.line,
			LastColumn:  s.column,
			StartOffset: s.selectionStart,
			EndOffset:   s.current,
		},
	}
	s.selectionStart = s.current
	s.startLine = s.line
	s.startColumn = s.column
	return l
}

// CurrentLocation snapshots the cursor's position as a zero-width span
// without mutating scanner state.
func (s *Scanner) CurrentLocation() Location {
	return Location{
		FirstLine:   s.line,
		FirstColumn: s.column,
		LastLine:    s.line,
		LastColumn:  s.column,
		StartOffset: s.current,
		EndOffset:   s.current,
	}
}

// Offset returns the current byte offset.
func (s *Scanner) Offset() int { return s.current }
