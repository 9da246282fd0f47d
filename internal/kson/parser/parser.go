package parser

import (
	"go.uber.org/zap"

	"github.com/kson-org/kson-sub001/internal/kson/diag"
	"github.com/kson-org/kson-sub001/internal/kson/lexer"
)

// Options configures a Parser. Logger defaults to a no-op logger, mirroring
// the lexer's own Options.
type Options struct {
	Logger *zap.Logger
}

// Parser recognizes the KSON grammar over a Builder, producing a marker
// tree. It never bails on the first error: malformed constructs are
// recorded as ERROR markers in place, and parsing continues past them so
// independent later errors are still found in one pass (see §7).
type Parser struct {
	b   *Builder
	log *zap.Logger
}

// New creates a Parser over an already-tokenized, whitespace/comment
// filtered stream (gap_free=false).
func New(tokens []lexer.Token, opts Options) *Parser {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{b: NewBuilder(tokens), log: log}
}

// Parse runs the grammar's start rule:
//
//	kson → (object_internals | value) EOF
//
// and returns the finished Builder (holding the marker tree) for the AST
// lowerer to walk.
func (p *Parser) Parse() *Builder {
	root := p.b.Mark()

	if p.looksLikeBareObjectInternals() {
		p.parseObjectInternals()
	} else {
		p.parseValue()
	}

	if !p.b.Eof() {
		first := p.b.CurrentIndex()
		for !p.b.Eof() {
			p.b.Advance()
		}
		last := p.b.CurrentIndex() - 1
		loc := p.b.Location(first, last)
		extra := p.b.Mark()
		extra.Error(diag.New(diag.EOFNotReached, loc, "unexpected trailing content after document end"))
	}

	root.Done(ROOT)
	p.log.Debug("parse complete", zap.Bool("errored", p.b.Errored()))
	return p.b
}

// looksLikeBareObjectInternals decides between the two kson alternatives.
// A leading IDENTIFIER (or a true/false/null keyword) or STRING followed
// by COLON (optionally after a string's open/close quote pair) at the top
// level means the document is a bare, brace-less object body; anything
// else is parsed as a value.
func (p *Parser) looksLikeBareObjectInternals() bool {
	switch p.b.TokenKind() {
	case lexer.IDENTIFIER, lexer.TRUE, lexer.FALSE, lexer.NULL:
		return p.b.LookAhead(1) == lexer.COLON
	case lexer.STRING_OPEN_QUOTE:
		return p.keywordAheadAfterString()
	default:
		return false
	}
}

// keywordAheadAfterString scans ahead (without consuming) past a quoted
// string to see whether a COLON immediately follows its closing quote.
func (p *Parser) keywordAheadAfterString() bool {
	n := 1
	for {
		k := p.b.LookAhead(n)
		switch k {
		case lexer.STRING_CLOSE_QUOTE:
			return p.b.LookAhead(n+1) == lexer.COLON
		case lexer.STRING, lexer.STRING_ESCAPE, lexer.STRING_UNICODE_ESCAPE, lexer.STRING_ILLEGAL_CTL:
			n++
		default:
			return false
		}
	}
}

// object_internals → ( keyword value ","? )*
func (p *Parser) parseObjectInternals() Handle {
	m := p.b.Mark()
	for p.atKeywordStart() && !p.b.Eof() {
		p.parseObjectProperty()
	}
	m.Done(OBJECT_INTERNALS)
	return m
}

func (p *Parser) atKeywordStart() bool {
	switch p.b.TokenKind() {
	case lexer.IDENTIFIER, lexer.TRUE, lexer.FALSE, lexer.NULL:
		return p.b.LookAhead(1) == lexer.COLON
	case lexer.STRING_OPEN_QUOTE:
		return p.keywordAheadAfterString()
	default:
		return false
	}
}

// keyword value ","?
func (p *Parser) parseObjectProperty() {
	prop := p.b.Mark()
	p.parseKeyword()
	p.parseValue()
	if p.b.TokenKind() == lexer.COMMA {
		p.b.Advance()
	}
	prop.Done(OBJECT_PROPERTY)
}

// keyword → ( IDENTIFIER | string ) ":"
func (p *Parser) parseKeyword() {
	m := p.b.Mark()
	if p.b.TokenKind() == lexer.STRING_OPEN_QUOTE {
		p.parseStringLiteral()
	} else {
		p.parseIdentifierLike()
	}
	if p.b.TokenKind() == lexer.COLON {
		p.b.Advance()
		m.Done(KEYWORD)
		return
	}
	loc := p.b.Location(m.FirstToken(), p.b.CurrentIndex()-1)
	m.Error(diag.New(diag.ExpectedColon, loc, "expected ':' after key"))
}

func (p *Parser) parseIdentifierLike() {
	m := p.b.Mark()
	switch p.b.TokenKind() {
	case lexer.IDENTIFIER:
		m.DoneToken(lexer.IDENTIFIER)
	case lexer.TRUE:
		m.DoneToken(lexer.TRUE)
	case lexer.FALSE:
		m.DoneToken(lexer.FALSE)
	case lexer.NULL:
		m.DoneToken(lexer.NULL)
	default:
		loc := p.b.Location(p.b.CurrentIndex(), p.b.CurrentIndex())
		m.Error(diag.New(diag.ExpectedKey, loc, "expected a key"))
		return
	}
	p.b.Advance()
}

// value → object_definition | list | literal | embed_block
func (p *Parser) parseValue() {
	switch p.b.TokenKind() {
	case lexer.L_CURLY, lexer.IDENTIFIER:
		if p.b.TokenKind() == lexer.IDENTIFIER && p.b.LookAhead(1) != lexer.L_CURLY {
			p.parseLiteral()
			return
		}
		p.parseObjectDefinition()
	case lexer.L_SQUARE:
		p.parseBracketList()
	case lexer.LIST_DASH:
		p.parseDashList(false)
	case lexer.EMBED_OPEN_DELIM:
		p.parseEmbedBlock()
	case lexer.STRING_OPEN_QUOTE, lexer.NUMBER, lexer.TRUE, lexer.FALSE, lexer.NULL:
		p.parseLiteral()
	default:
		m := p.b.Mark()
		loc := p.b.Location(p.b.CurrentIndex(), p.b.CurrentIndex())
		found := p.b.TokenKind()
		if !p.b.Eof() {
			p.b.Advance()
		}
		m.Error(diag.New(diag.ExpectedValue, loc, "expected a value, found %s", found))
	}
}

// object_def → ( IDENTIFIER? ) "{" object_internals "}"
func (p *Parser) parseObjectDefinition() {
	m := p.b.Mark()
	if p.b.TokenKind() == lexer.IDENTIFIER {
		name := p.b.Mark()
		name.DoneToken(lexer.IDENTIFIER)
		p.b.Advance()
	}
	if p.b.TokenKind() != lexer.L_CURLY {
		loc := p.b.Location(m.FirstToken(), p.b.CurrentIndex())
		m.Error(diag.New(diag.ExpectedValue, loc, "expected '{'"))
		return
	}
	p.b.Advance()
	p.parseObjectInternals()
	if p.b.TokenKind() == lexer.R_CURLY {
		p.b.Advance()
		m.Done(OBJECT_DEFINITION)
		return
	}
	loc := p.b.Location(m.FirstToken(), p.b.CurrentIndex()-1)
	m.Error(diag.New(diag.ObjectNoClose, loc, "object is missing a closing '}'"))
}

// list → dash_list | bracket_list
func (p *Parser) parseList() {
	if p.b.TokenKind() == lexer.LIST_DASH {
		p.parseDashList(false)
	} else {
		p.parseBracketList()
	}
}

// dash_list → ( LIST_DASH ( value | bracket_list ) )*
// A dash_list is NOT directly nestable in a dash_list: a dash immediately
// following another dash is DANGLING_LIST_DASH, not a nested list (§4.4,
// resolving the Open Question in favor of accepting bracket-lists inside
// dash-list elements while rejecting bare nested dashes).
func (p *Parser) parseDashList(nested bool) {
	m := p.b.Mark()
	for p.b.TokenKind() == lexer.LIST_DASH {
		dash := p.b.CurrentIndex()
		p.b.Advance()
		elem := p.b.Mark()
		if p.b.TokenKind() == lexer.LIST_DASH {
			loc := p.b.Location(dash, p.b.CurrentIndex())
			elem.Error(diag.New(diag.DanglingListDash, loc, "dash-list elements cannot directly nest another dash-list"))
			continue
		}
		if p.b.TokenKind() == lexer.L_SQUARE {
			p.parseBracketList()
		} else {
			p.parseValue()
		}
		elem.Done(LIST_ELEMENT)
	}
	m.Done(LIST)
}

// bracket_list → "[" ( value "," )* value? "]"
func (p *Parser) parseBracketList() {
	m := p.b.Mark()
	p.b.Advance() // '['
	for p.b.TokenKind() != lexer.R_SQUARE && !p.b.Eof() {
		elem := p.b.Mark()
		p.parseValue()
		elem.Done(LIST_ELEMENT)
		if p.b.TokenKind() == lexer.COMMA {
			p.b.Advance()
			continue
		}
		break
	}
	if p.b.TokenKind() == lexer.R_SQUARE {
		p.b.Advance()
		m.Done(LIST)
		return
	}
	loc := p.b.Location(m.FirstToken(), p.b.CurrentIndex()-1)
	m.Error(diag.New(diag.ListNoClose, loc, "list is missing a closing ']'"))
}

// literal → string | IDENTIFIER | NUMBER | TRUE | FALSE | NULL
func (p *Parser) parseLiteral() {
	switch p.b.TokenKind() {
	case lexer.STRING_OPEN_QUOTE:
		p.parseStringLiteral()
	case lexer.NUMBER:
		m := p.b.Mark()
		if pn := ParseNumber(p.b.TokenText()); pn.Err != "" {
			loc := p.b.Location(p.b.CurrentIndex(), p.b.CurrentIndex())
			p.b.Advance()
			m.Error(diag.New(pn.Err, loc, "invalid number %q", pn.Raw))
			return
		}
		m.DoneToken(lexer.NUMBER)
		p.b.Advance()
	case lexer.IDENTIFIER:
		m := p.b.Mark()
		m.DoneToken(lexer.IDENTIFIER)
		p.b.Advance()
	case lexer.TRUE:
		m := p.b.Mark()
		m.DoneToken(lexer.TRUE)
		p.b.Advance()
	case lexer.FALSE:
		m := p.b.Mark()
		m.DoneToken(lexer.FALSE)
		p.b.Advance()
	case lexer.NULL:
		m := p.b.Mark()
		m.DoneToken(lexer.NULL)
		p.b.Advance()
	default:
		m := p.b.Mark()
		loc := p.b.Location(p.b.CurrentIndex(), p.b.CurrentIndex())
		m.Error(diag.New(diag.ExpectedValue, loc, "expected a literal, found %s", p.b.TokenKind()))
	}
}

// string → STRING_OPEN_QUOTE STRING STRING_CLOSE_QUOTE
func (p *Parser) parseStringLiteral() {
	m := p.b.Mark()
	p.b.Advance() // open quote
	for {
		switch p.b.TokenKind() {
		case lexer.STRING, lexer.STRING_ESCAPE, lexer.STRING_UNICODE_ESCAPE, lexer.STRING_ILLEGAL_CTL:
			p.b.Advance()
		default:
			goto done
		}
	}
done:
	if p.b.TokenKind() == lexer.STRING_CLOSE_QUOTE {
		p.b.Advance()
		m.Done(STRING_LITERAL)
		return
	}
	loc := p.b.Location(m.FirstToken(), p.b.CurrentIndex()-1)
	m.Error(diag.New(diag.UnclosedString, loc, "string is missing a closing quote"))
}

// embed_block → EMBED_OPEN_DELIM EMBED_TAG? EMBED_CONTENT? EMBED_CLOSE_DELIM
func (p *Parser) parseEmbedBlock() {
	m := p.b.Mark()
	p.b.Advance() // open delim
	for p.b.TokenKind() == lexer.EMBED_TAG || p.b.TokenKind() == lexer.EMBED_PREAMBLE_NEWLINE || p.b.TokenKind() == lexer.EMBED_CONTENT {
		p.b.Advance()
	}
	switch p.b.TokenKind() {
	case lexer.EMBED_CLOSE_DELIM:
		p.b.Advance()
		m.Done(EMBED_BLOCK)
	case lexer.EMBED_DELIM_PARTIAL:
		p.b.Advance()
		loc := p.b.Location(m.FirstToken(), p.b.CurrentIndex()-1)
		m.Error(diag.New(diag.DanglingEmbedDelim, loc, "embed block ends with a single dangling delimiter character"))
	default:
		loc := p.b.Location(m.FirstToken(), p.b.CurrentIndex()-1)
		m.Error(diag.New(diag.UnclosedEmbed, loc, "embed block is missing its closing delimiter"))
	}
}
