package lexer

import (
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/kson-org/kson-sub001/internal/kson/loc"
	"github.com/kson-org/kson-sub001/internal/kson/scanner"
)

// Options configures a single tokenize call.
type Options struct {
	// GapFree requests that WHITESPACE and COMMENT tokens remain in the
	// returned stream so every source byte is covered by exactly one
	// token (required for editor integrations; see property 1 in
	// spec.md §8). When false, those tokens are dropped after lexing.
	GapFree bool
	// Logger receives structured diagnostics about the lex pass. A nil
	// Logger is replaced with zap.NewNop().
	Logger *zap.Logger
}

// Lexer tokenizes KSON source code.
//
// Thread Safety: Lexer instances are NOT thread-safe. Each goroutine must
// create its own Lexer via New().
type Lexer struct {
	sc     *scanner.Scanner
	source string
	opts   Options
	log    *zap.Logger

	tokens []Token

	// pendingComments holds comment texts not yet attached to a token;
	// they are claimed by the next non-comment token emitted.
	pendingComments []string
}

// New creates a Lexer for source using opts.
func New(source string, opts Options) *Lexer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lexer{
		sc:     scanner.New(source),
		source: source,
		opts:   opts,
		log:    logger,
	}
}

// Tokenize runs the lexer to completion and returns the token stream,
// always terminated by a single EOF token.
func Tokenize(source string, opts Options) []Token {
	l := New(source, opts)
	return l.Run()
}

// Run scans the entire source and returns its tokens.
func (l *Lexer) Run() []Token {
	for !l.sc.AtEOF() {
		l.sc.Peek()
		l.scanToken()
	}
	l.flushPendingComments()
	l.appendToken(Token{Kind: EOF, Location: toLoc(l.sc.CurrentLocation())})

	if !l.opts.GapFree {
		l.tokens = filterGapTokens(l.tokens)
	}

	l.log.Debug("lex complete",
		zap.Int("tokens", len(l.tokens)),
		zap.Bool("gap_free", l.opts.GapFree),
	)
	return l.tokens
}

func filterGapTokens(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if t.Kind == WHITESPACE || t.Kind == COMMENT {
			continue
		}
		out = append(out, t)
	}
	return out
}

// scanToken dispatches on the next rune. KSON's grammar is small but the
// character classes it distinguishes are many; this function is the
// single dispatch point and delegates actual scanning to focused helpers.
func (l *Lexer) scanToken() {
	r, ok := l.sc.Peek()
	if !ok {
		return
	}
	if kind, isStruct := singleCharStructural[r]; isStruct {
		l.sc.Advance()
		l.emit(kind)
		l.attachTrailingComment()
		return
	}
	switch {
	case isInlineSpace(r) || r == '\n' || r == '\r':
		l.scanWhitespace()
	case r == '#':
		l.scanComment()
	case r == '"' || r == '\'':
		l.scanString(r)
		l.attachTrailingComment()
	case r == '%' || r == '$':
		l.scanEmbedOrFallback(r)
		l.attachTrailingComment()
	case r == '-':
		l.scanDashOrNumber()
		l.attachTrailingComment()
	case unicode.IsDigit(r):
		l.scanNumber()
		l.attachTrailingComment()
	case isIdentStart(r):
		l.scanIdentifier()
		l.attachTrailingComment()
	default:
		l.sc.Advance()
		l.emit(ILLEGAL_CHAR)
		l.attachTrailingComment()
	}
}

func isInlineSpace(r rune) bool {
	return r == ' ' || r == '\t'
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentCont(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// scanWhitespace consumes a maximal run of spaces, tabs, CR and LF into a
// single WHITESPACE token.
func (l *Lexer) scanWhitespace() {
	for {
		r, ok := l.sc.Peek()
		if !ok || !(isInlineSpace(r) || r == '\n' || r == '\r') {
			break
		}
		l.sc.Advance()
		l.sc.Peek()
	}
	l.emit(WHITESPACE)
}

// scanComment consumes a '#' run to end of line (or EOF) and attaches its
// cleaned text to pendingComments, to be claimed by the next real token.
func (l *Lexer) scanComment() {
	l.sc.Advance() // '#'
	for {
		r, ok := l.sc.Peek()
		if !ok || r == '\n' {
			break
		}
		l.sc.Advance()
		l.sc.Peek()
	}
	lex := l.sc.ExtractLexeme()
	text := strings.TrimSpace(strings.TrimPrefix(lex.Text, "#"))
	l.pendingComments = append(l.pendingComments, text)
	l.appendToken(Token{
		Kind:     COMMENT,
		Lexeme:   lex.Text,
		Location: toLoc(lex.Loc),
		Value:    text,
	})
}

// emit finalizes the current selection as a token of kind.
func (l *Lexer) emit(kind Kind) {
	lex := l.sc.ExtractLexeme()
	l.appendToken(Token{
		Kind:     kind,
		Lexeme:   lex.Text,
		Value:    lex.Text,
		Location: toLoc(lex.Loc),
	})
}

// appendToken records a finished token, claiming any pending comments
// unless the token is itself a comment or whitespace (which never claim).
func (l *Lexer) appendToken(t Token) {
	if t.Kind != COMMENT && t.Kind != WHITESPACE && len(l.pendingComments) > 0 {
		t.Comments = append(t.Comments, l.pendingComments...)
		l.pendingComments = nil
	}
	l.tokens = append(l.tokens, t)
}

func (l *Lexer) flushPendingComments() {
	// Comments with nothing left to attach to are claimed by EOF.
}

// attachTrailingComment implements §4.2.4. It runs once per completed
// lexical unit from the top-level scanToken dispatch (never from inside
// scanString/scanEmbedBody's interior loops, where a bare '#' is
// ordinary content, not a comment): after emitting a non-opener token,
// it looks past inline whitespace (not across a newline) for a trailing
// comment on the same line. A comment found there is folded into
// pendingComments exactly like a leading comment — so it is claimed by
// whatever token comes next, not by the token it trails. That is the
// "normalized to a leading comment of the next semantic element" rule:
// `key: 1 # hi` followed by `other: 2` attaches "hi" to `other`, not to
// the `1` it visually trails (spec.md §8 scenario D). The whitespace and
// comment text are still emitted as ordinary lookahead tokens so the
// gap-free stream stays contiguous.
func (l *Lexer) attachTrailingComment() {
	save := *l.sc
	consumedWhitespace := false
	for {
		r, ok := l.sc.Peek()
		if !ok || !isInlineSpace(r) {
			break
		}
		l.sc.Advance()
		l.sc.Peek()
		consumedWhitespace = true
	}
	r, ok := l.sc.Peek()
	if !ok || r != '#' {
		*l.sc = save
		return
	}
	if consumedWhitespace {
		l.emit(WHITESPACE)
	} else {
		l.sc.ExtractLexeme() // keep selection clean; zero-width
	}
	l.scanComment()
}

// scanDashOrNumber implements: a leading '-' followed by whitespace/EOF is
// LIST_DASH; otherwise it begins a NUMBER.
func (l *Lexer) scanDashOrNumber() {
	l.sc.Advance() // '-'
	r, ok := l.sc.Peek()
	if !ok || isInlineSpace(r) || r == '\n' || r == '\r' {
		l.emit(LIST_DASH)
		return
	}
	l.scanNumberBody()
}

// scanNumber scans a NUMBER token starting at the current digit.
func (l *Lexer) scanNumber() {
	l.scanNumberBody()
}

// scanNumberBody greedily consumes alphanumerics, '+', '-', and '.'
// following the initial digit or minus sign; validation of the resulting
// lexeme against JSON's number grammar is deferred to the parser's number
// sub-parser (§4.4).
func (l *Lexer) scanNumberBody() {
	for {
		r, ok := l.sc.Peek()
		if !ok || !(unicode.IsDigit(r) || unicode.IsLetter(r) || r == '+' || r == '-' || r == '.') {
			break
		}
		l.sc.Advance()
		l.sc.Peek()
	}
	l.emit(NUMBER)
}

// scanIdentifier scans an identifier and reclassifies reserved keywords.
func (l *Lexer) scanIdentifier() {
	for {
		r, ok := l.sc.Peek()
		if !ok || !isIdentCont(r) {
			break
		}
		l.sc.Advance()
		l.sc.Peek()
	}
	lex := l.sc.ExtractLexeme()
	kind := IDENTIFIER
	if k, ok := reservedKeywords[lex.Text]; ok {
		kind = k
	}
	l.appendToken(Token{
		Kind:     kind,
		Lexeme:   lex.Text,
		Value:    lex.Text,
		Location: toLoc(lex.Loc),
	})
}

// scanString implements §4.2.2: a quoted string bracketed by matching
// STRING_OPEN_QUOTE / STRING_CLOSE_QUOTE tokens with STRING,
// STRING_ESCAPE, STRING_UNICODE_ESCAPE and STRING_ILLEGAL_CTL tokens in
// between. If EOF precedes the closing quote, the close token is simply
// never emitted; the parser flags that as an error.
func (l *Lexer) scanString(quote rune) {
	l.sc.Advance()
	l.emit(STRING_OPEN_QUOTE)

	for {
		r, ok := l.sc.Peek()
		if !ok || r == quote {
			break
		}
		switch {
		case r == '\\':
			l.scanStringEscape()
		case r < 0x20 && r != '\t' && r != '\n' && r != '\r':
			l.sc.Advance()
			l.emit(STRING_ILLEGAL_CTL)
		default:
			l.scanStringRun(quote)
		}
	}

	if l.sc.AtEOF() {
		return
	}
	l.sc.Advance()
	l.emit(STRING_CLOSE_QUOTE)
}

// scanStringRun consumes a maximal run of ordinary string content: no
// escapes, no illegal control characters, no closing quote.
func (l *Lexer) scanStringRun(quote rune) {
	for {
		r, ok := l.sc.Peek()
		if !ok || r == quote || r == '\\' || (r < 0x20 && r != '\t' && r != '\n' && r != '\r') {
			break
		}
		l.sc.Advance()
		l.sc.Peek()
	}
	l.emit(STRING)
}

// scanStringEscape handles a backslash escape: either a Unicode escape
// (\uXXXX, consuming up to four hex digits and stopping at the delimiter
// or EOF) or a two-character escape \X.
func (l *Lexer) scanStringEscape() {
	l.sc.Advance() // backslash
	r, ok := l.sc.Peek()
	if ok && r == 'u' {
		l.sc.Advance()
		for i := 0; i < 4; i++ {
			r, ok := l.sc.Peek()
			if !ok || !isHexDigit(r) {
				break
			}
			l.sc.Advance()
			l.sc.Peek()
		}
		l.emit(STRING_UNICODE_ESCAPE)
		return
	}
	if ok {
		l.sc.Advance()
	}
	l.emit(STRING_ESCAPE)
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// scanEmbedOrFallback handles '%' and '$': an embed block opens only when
// the character is immediately doubled (the primary `%%` or alternate
// `$$` delimiter); a lone occurrence of either character is ILLEGAL_CHAR,
// since neither is a KSON operator on its own.
func (l *Lexer) scanEmbedOrFallback(delim rune) {
	l.sc.Advance()
	r, ok := l.sc.Peek()
	if !ok || r != delim {
		l.emit(ILLEGAL_CHAR)
		return
	}
	l.sc.Advance()
	l.emit(EMBED_OPEN_DELIM)
	l.scanEmbedTagAndBody(delim)
}

// scanEmbedTagAndBody implements §4.2.3 in full: optional tag, preamble
// newline, indent-trimmed and escape-rewritten body, and the closing
// delimiter (or an EMBED_DELIM_PARTIAL if the source ends mid-delimiter).
func (l *Lexer) scanEmbedTagAndBody(delim rune) {
	l.scanEmbedInlineWhitespace()

	r, ok := l.sc.Peek()
	hasTag := ok && r != '\n'
	if hasTag {
		l.scanEmbedTag(delim)
	}

	r, ok = l.sc.Peek()
	if ok && r == '\n' {
		l.sc.Advance()
		l.emit(EMBED_PREAMBLE_NEWLINE)
	}

	l.scanEmbedBody(delim)
}

func (l *Lexer) scanEmbedInlineWhitespace() {
	consumed := false
	for {
		r, ok := l.sc.Peek()
		if !ok || !isInlineSpace(r) {
			break
		}
		l.sc.Advance()
		l.sc.Peek()
		consumed = true
	}
	if consumed {
		l.emit(WHITESPACE)
	} else {
		l.sc.ExtractLexeme()
	}
}

// scanEmbedTag scans up to newline or the close delimiter; an empty tag
// is allowed.
func (l *Lexer) scanEmbedTag(delim rune) {
	for {
		r, ok := l.sc.Peek()
		if !ok || r == '\n' {
			break
		}
		if r == delim {
			if next, ok2 := l.sc.PeekNext(); ok2 && next == delim {
				break
			}
		}
		l.sc.Advance()
		l.sc.Peek()
	}
	lex := l.sc.ExtractLexeme()
	l.appendToken(Token{
		Kind:     EMBED_TAG,
		Lexeme:   lex.Text,
		Value:    strings.TrimSpace(lex.Text),
		Location: toLoc(lex.Loc),
	})
}

// scanEmbedBody consumes raw body text until an unescaped close
// delimiter (two adjacent delim runes) or EOF, then computes the cleaned
// content: minimum-indent stripped and escaped-close-delimiters rewritten.
func (l *Lexer) scanEmbedBody(delim rune) {
	for {
		r, ok := l.sc.Peek()
		if !ok {
			break
		}
		if r == delim {
			next, ok2 := l.sc.PeekNext()
			if ok2 && next == delim {
				break // full close delimiter ahead
			}
			if !ok2 {
				break // a lone delimiter char immediately precedes EOF
			}
		}
		l.sc.Advance()
		l.sc.Peek()
	}
	lex := l.sc.ExtractLexeme()
	cleaned := cleanEmbedBody(lex.Text, delim)
	l.appendToken(Token{
		Kind:     EMBED_CONTENT,
		Lexeme:   lex.Text,
		Value:    cleaned,
		Location: toLoc(lex.Loc),
	})

	if l.sc.AtEOF() {
		return
	}
	r, _ := l.sc.Peek()
	next, hasNext := l.sc.PeekNext()
	if r == delim && hasNext && next == delim {
		l.sc.Advance()
		l.sc.Peek()
		l.sc.Advance()
		l.emit(EMBED_CLOSE_DELIM)
		return
	}
	// Only one delimiter char remains before EOF: a dangling partial.
	l.sc.Advance()
	l.emit(EMBED_DELIM_PARTIAL)
}

// The only two embed delimiters the grammar recognizes (§4.2.3); their
// escape-rewrite patterns are compiled once at package init so concurrent
// parses never share mutable cache state (spec.md §5: independent parses
// run without synchronization).
var (
	percentEscapePattern = regexp.MustCompile(`%(\\+)%`)
	dollarEscapePattern  = regexp.MustCompile(`\$(\\+)\$`)
)

func embedEscapePattern(delim rune) *regexp.Regexp {
	if delim == '$' {
		return dollarEscapePattern
	}
	return percentEscapePattern
}

// cleanEmbedBody rewrites escaped close delimiters (one backslash
// stripped per occurrence) and strips the minimum common indent from
// every line, per §4.2.3 and the worked example in spec.md §8 (scenarios
// B and C).
func cleanEmbedBody(raw string, delim rune) string {
	rewritten := embedEscapePattern(delim).ReplaceAllStringFunc(raw, func(m string) string {
		backslashes := m[1 : len(m)-1]
		return string(delim) + backslashes[:len(backslashes)-1] + string(delim)
	})
	return stripMinimumIndent(rewritten)
}

func stripMinimumIndent(body string) string {
	lines := strings.Split(body, "\n")
	min := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := leadingIndentWidth(line)
		if min == -1 || indent < min {
			min = indent
		}
	}
	if min <= 0 {
		return body
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		if len(line) >= min {
			out[i] = line[min:]
		} else {
			out[i] = ""
		}
	}
	return strings.Join(out, "\n")
}

func leadingIndentWidth(line string) int {
	n := 0
	for _, r := range line {
		if r != ' ' && r != '\t' {
			break
		}
		n++
	}
	return n
}

func toLoc(l scanner.Location) loc.Location {
	return loc.Location{
		FirstLine:   l.FirstLine,
		FirstColumn: l.FirstColumn,
		LastLine:    l.LastLine,
		LastColumn:  l.LastColumn,
		StartOffset: l.StartOffset,
		EndOffset:   l.EndOffset,
	}
}
