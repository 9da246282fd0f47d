// Package diag defines the diagnostic message type shared by the parser,
// schema evaluator, and the message sink, so none of those packages need
// to import each other just to talk about an error location.
package diag

import (
	"fmt"

	"github.com/kson-org/kson-sub001/internal/kson/loc"
)

// Kind is a closed catalog of diagnostic variants. Named kinds let callers
// branch on error category without string matching; Text carries the
// human-readable rendering.
type Kind string

const (
	// Lexing / string / embed
	IllegalChar             Kind = "ILLEGAL_CHAR"
	IllegalControlInString   Kind = "STRING_ILLEGAL_CTL"
	UnclosedString           Kind = "UNCLOSED_STRING"
	UnclosedEmbed            Kind = "UNCLOSED_EMBED"
	DanglingEmbedDelim       Kind = "DANGLING_EMBED_DELIM"

	// Parsing
	ObjectNoClose      Kind = "OBJECT_NO_CLOSE"
	ListNoClose        Kind = "LIST_NO_CLOSE"
	DanglingListDash    Kind = "DANGLING_LIST_DASH"
	ExpectedValue       Kind = "EXPECTED_VALUE"
	ExpectedColon       Kind = "EXPECTED_COLON"
	ExpectedKey         Kind = "EXPECTED_KEY"
	EOFNotReached       Kind = "EOF_NOT_REACHED"

	// Number sub-grammar
	InvalidDigits         Kind = "INVALID_DIGITS"
	IllegalMinusSign       Kind = "ILLEGAL_MINUS_SIGN"
	DanglingDecimal        Kind = "DANGLING_DECIMAL"
	DanglingExpIndicator   Kind = "DANGLING_EXP_INDICATOR"

	// Schema parsing
	SchemaEmpty              Kind = "SCHEMA_EMPTY"
	SchemaRootInvalid         Kind = "SCHEMA_ROOT_INVALID"
	SchemaKeywordType         Kind = "SCHEMA_KEYWORD_TYPE"
	SchemaIntegerRequired     Kind = "SCHEMA_INTEGER_REQUIRED"
	SchemaRefIgnoredProperty  Kind = "SCHEMA_REF_IGNORED_PROPERTY"
	SchemaRefUnresolved       Kind = "SCHEMA_REF_UNRESOLVED"

	// Schema evaluation
	TypeMismatch        Kind = "TYPE_MISMATCH"
	EnumMismatch        Kind = "ENUM_MISMATCH"
	ConstMismatch       Kind = "CONST_MISMATCH"
	LengthOutOfRange    Kind = "LENGTH_OUT_OF_RANGE"
	CountOutOfRange     Kind = "COUNT_OUT_OF_RANGE"
	MultipleOfFailure   Kind = "MULTIPLE_OF_FAILURE"
	PatternMismatch     Kind = "PATTERN_MISMATCH"
	RequiredMissing     Kind = "REQUIRED_MISSING"
	OneOfFailure        Kind = "ONE_OF_FAILURE"
	AnyOfFailure        Kind = "ANY_OF_FAILURE"
	AllOfFailure        Kind = "ALL_OF_FAILURE"
	NotFailure          Kind = "NOT_FAILURE"
	UniqueItemsFailure  Kind = "UNIQUE_ITEMS_FAILURE"
	RangeFailure        Kind = "RANGE_FAILURE"

	// Pointers
	PointerBadStart       Kind = "JSON_POINTER_BAD_START"
	PointerInvalidEscape  Kind = "JSON_POINTER_INVALID_ESCAPE"
	PointerIncompleteEscape Kind = "JSON_POINTER_INCOMPLETE_ESCAPE"
)

// Message is a single diagnostic anchored to a source span.
type Message struct {
	Kind Kind
	Loc  loc.Location
	Text string
}

// New builds a Message from a kind, location, and a printf-style text.
func New(kind Kind, at loc.Location, format string, args ...any) Message {
	return Message{Kind: kind, Loc: at, Text: fmt.Sprintf(format, args...)}
}

// Format renders "Error:L.C – L.C, text" per the wire format in §6.
func (m Message) Format() string {
	return fmt.Sprintf("Error:%d.%d – %d.%d, %s",
		m.Loc.FirstLine+1, m.Loc.FirstColumn+1, m.Loc.LastLine+1, m.Loc.LastColumn+1, m.Text)
}

func (m Message) String() string { return m.Format() }
