// Package loc provides the source-span type shared by every stage of the
// KSON pipeline: scanner, lexer, parser, AST, values, and schema
// diagnostics all anchor to a Location.
package loc

import "fmt"

// Location is a half-open span in a source document. Lines and columns are
// zero-based internally; String adds one for display.
type Location struct {
	FirstLine   int
	FirstColumn int
	LastLine    int
	LastColumn  int
	StartOffset int
	EndOffset   int
}

// Zero is the location of an empty document at its very start.
var Zero = Location{}

// Merge returns the smallest span covering both a and b. It panics if the
// two spans are not orderable (a must start no later than b ends) since a
// caller merging unrelated spans is a bug, not a recoverable condition.
func Merge(a, b Location) Location {
	if a.StartOffset > b.EndOffset {
		panic(fmt.Sprintf("loc: cannot merge disjoint spans %v and %v", a, b))
	}
	m := a
	if b.LastLine > m.LastLine || (b.LastLine == m.LastLine && b.LastColumn > m.LastColumn) {
		m.LastLine = b.LastLine
		m.LastColumn = b.LastColumn
	}
	if b.EndOffset > m.EndOffset {
		m.EndOffset = b.EndOffset
	}
	if b.FirstLine < m.FirstLine || (b.FirstLine == m.FirstLine && b.FirstColumn < m.FirstColumn) {
		m.FirstLine = b.FirstLine
		m.FirstColumn = b.FirstColumn
	}
	if b.StartOffset < m.StartOffset {
		m.StartOffset = b.StartOffset
	}
	return m
}

// String renders the span with one-based, human-facing coordinates, e.g.
// "1.1-2.4". It is not the diagnostic line format (see messages.Sink),
// just a compact debugging aid.
func (l Location) String() string {
	return fmt.Sprintf("%d.%d-%d.%d", l.FirstLine+1, l.FirstColumn+1, l.LastLine+1, l.LastColumn+1)
}
