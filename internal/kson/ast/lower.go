package ast

import (
	"strconv"
	"strings"

	"github.com/kson-org/kson-sub001/internal/kson/diag"
	"github.com/kson-org/kson-sub001/internal/kson/lexer"
	"github.com/kson-org/kson-sub001/internal/kson/loc"
	"github.com/kson-org/kson-sub001/internal/kson/parser"
)

// Lower walks a finished marker tree and produces a typed AST, but only
// when the parse carries no errors (§7: "AST lowering is skipped if any
// parse error exists"). When it does carry errors, Lower returns the
// collected diagnostics instead.
func Lower(b *parser.Builder) (*Root, []diag.Message) {
	root := b.Root()
	if root < 0 {
		return nil, nil
	}
	if b.Errored() {
		var msgs []diag.Message
		collectErrors(b, root, &msgs)
		return nil, msgs
	}
	l := &lowerer{b: b, tokens: b.Tokens()}
	n, _ := l.lower(root)
	r, _ := n.(*Root)
	return r, nil
}

func collectErrors(b *parser.Builder, idx int, out *[]diag.Message) {
	n := b.NodeAt(idx)
	if n.Err != nil {
		*out = append(*out, *n.Err)
	}
	for _, c := range n.Children {
		collectErrors(b, c, out)
	}
}

type lowerer struct {
	b      *parser.Builder
	tokens []lexer.Token
}

// lower builds the AST node for marker idx and returns the comments that
// remain unclaimed for the nearest commentable ancestor to pick up (ROOT,
// OBJECT_PROPERTY, LIST_ELEMENT claim; everything else passes them up per
// §4.4's comment attribution rule).
func (l *lowerer) lower(idx int) (Node, []string) {
	n := l.b.NodeAt(idx)

	if n.Element.IsToken() {
		return l.lowerToken(n), nil
	}

	switch n.Element.Parsed() {
	case parser.ROOT:
		return l.lowerRoot(n)
	case parser.OBJECT_DEFINITION:
		return l.lowerObjectDefinition(n)
	case parser.OBJECT_INTERNALS:
		return l.lowerObjectInternals(n)
	case parser.OBJECT_PROPERTY:
		return l.lowerObjectProperty(n)
	case parser.LIST:
		return l.lowerList(n)
	case parser.LIST_ELEMENT:
		return l.lowerListElement(n)
	case parser.KEYWORD:
		return l.lowerKeyword(n)
	case parser.STRING_LITERAL:
		return l.lowerStringLiteral(n), l.directComments(n)
	case parser.EMBED_BLOCK:
		return l.lowerEmbedBlock(n)
	default:
		return nil, l.directComments(n)
	}
}

// directComments gathers comments attached to tokens n owns directly
// (i.e. not inside any child marker's range).
func (l *lowerer) directComments(n parser.Node) []string {
	var out []string
	pos := n.FirstToken
	for _, c := range n.Children {
		cn := l.b.NodeAt(c)
		out = append(out, l.tokenComments(pos, cn.FirstToken-1)...)
		pos = cn.LastToken + 1
	}
	out = append(out, l.tokenComments(pos, n.LastToken)...)
	return out
}

// tokenComments gathers, in source order, the comments attached to the
// tokens at indices first..last (inclusive), ignoring indices outside the
// token stream.
func (l *lowerer) tokenComments(first, last int) []string {
	var out []string
	for i := first; i <= last && i >= 0 && i < len(l.tokens); i++ {
		out = append(out, l.tokens[i].Comments...)
	}
	return out
}

func (l *lowerer) loc(n parser.Node) loc.Location {
	return l.b.Location(n.FirstToken, n.LastToken)
}

func (l *lowerer) lowerToken(n parser.Node) Node {
	tok := l.tokens[n.FirstToken]
	// A leaf marker is finalized before its token is consumed, so its
	// recorded range is empty; the span is that of the token at FirstToken.
	at := l.b.Location(n.FirstToken, n.FirstToken)
	switch n.Element.Token() {
	case lexer.IDENTIFIER:
		return &Identifier{Name: tok.Lexeme, Loc: at}
	case lexer.NUMBER:
		pn := parser.ParseNumber(tok.Lexeme)
		return &Number{Value: pn.Value, Raw: tok.Lexeme, Loc: at}
	case lexer.TRUE:
		return &True{Loc: at}
	case lexer.FALSE:
		return &False{Loc: at}
	case lexer.NULL:
		return &Null{Loc: at}
	default:
		return &Identifier{Name: tok.Lexeme, Loc: at}
	}
}

func (l *lowerer) lowerRoot(n parser.Node) (Node, []string) {
	r := &Root{Loc: l.loc(n)}
	if len(n.Children) == 0 {
		return r, nil
	}
	contentIdx := n.Children[0]
	cn := l.b.NodeAt(contentIdx)
	content, unclaimed := l.lower(contentIdx)
	r.Content = content
	r.Comments = l.tokenComments(n.FirstToken, cn.FirstToken-1)
	r.TrailingComments = append(unclaimed, l.tokenComments(cn.LastToken+1, n.LastToken)...)
	return r, nil
}

func (l *lowerer) lowerObjectDefinition(n parser.Node) (Node, []string) {
	od := &ObjectDefinition{Loc: l.loc(n)}
	var unclaimed []string
	for _, c := range n.Children {
		cn := l.b.NodeAt(c)
		node, u := l.lower(c)
		unclaimed = append(unclaimed, u...)
		if cn.Element.IsToken() && cn.Element.Token() == lexer.IDENTIFIER {
			od.Name, _ = node.(*Identifier)
			continue
		}
		if oi, ok := node.(*ObjectInternals); ok {
			od.Internals = oi
		}
	}
	return od, append(l.directComments(n), unclaimed...)
}

func (l *lowerer) lowerObjectInternals(n parser.Node) (Node, []string) {
	oi := &ObjectInternals{Loc: l.loc(n)}
	var unclaimed []string
	for _, c := range n.Children {
		node, u := l.lower(c)
		unclaimed = append(unclaimed, u...)
		if p, ok := node.(*ObjectProperty); ok {
			oi.Properties = append(oi.Properties, p)
		}
	}
	return oi, append(l.directComments(n), unclaimed...)
}

func (l *lowerer) lowerObjectProperty(n parser.Node) (Node, []string) {
	prop := &ObjectProperty{Loc: l.loc(n)}
	var unclaimed []string
	if len(n.Children) > 0 {
		keyIdx := n.Children[0]
		keyNode, u := l.lower(keyIdx)
		unclaimed = append(unclaimed, u...)
		prop.Key = keyNode
	}
	if len(n.Children) > 1 {
		valIdx := n.Children[1]
		valNode, u := l.lower(valIdx)
		unclaimed = append(unclaimed, u...)
		prop.Value = valNode
	}
	prop.Comments = append(l.directComments(n), unclaimed...)
	return prop, nil
}

func (l *lowerer) lowerKeyword(n parser.Node) (Node, []string) {
	// KEYWORD wraps exactly one key (Identifier or StringLiteral) plus the
	// consumed COLON; it has no AST shape of its own, so it returns the
	// key node directly to its ObjectProperty parent.
	if len(n.Children) == 0 {
		return nil, l.directComments(n)
	}
	node, unclaimed := l.lower(n.Children[0])
	return node, append(l.directComments(n), unclaimed...)
}

func (l *lowerer) lowerList(n parser.Node) (Node, []string) {
	list := &List{Loc: l.loc(n)}
	var unclaimed []string
	for _, c := range n.Children {
		node, u := l.lower(c)
		unclaimed = append(unclaimed, u...)
		if le, ok := node.(*ListElement); ok {
			list.Elements = append(list.Elements, le)
		}
	}
	return list, append(l.directComments(n), unclaimed...)
}

func (l *lowerer) lowerListElement(n parser.Node) (Node, []string) {
	elem := &ListElement{Loc: l.loc(n)}
	var unclaimed []string
	if len(n.Children) > 0 {
		node, u := l.lower(n.Children[0])
		unclaimed = append(unclaimed, u...)
		elem.Value = node
	}
	elem.Comments = append(l.directComments(n), unclaimed...)
	return elem, nil
}

func (l *lowerer) lowerStringLiteral(n parser.Node) Node {
	var b strings.Builder
	for i := n.FirstToken + 1; i < n.LastToken; i++ {
		tok := l.tokens[i]
		switch tok.Kind {
		case lexer.STRING:
			b.WriteString(tok.Lexeme)
		case lexer.STRING_ESCAPE:
			b.WriteString(decodeShortEscape(tok.Lexeme))
		case lexer.STRING_UNICODE_ESCAPE:
			b.WriteString(decodeUnicodeEscape(tok.Lexeme))
		case lexer.STRING_ILLEGAL_CTL:
			b.WriteString(tok.Lexeme)
		}
	}
	return &String{Value: b.String(), Loc: l.loc(n)}
}

func decodeShortEscape(lexeme string) string {
	if len(lexeme) < 2 {
		return lexeme
	}
	switch lexeme[1] {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case '"', '\'', '\\', '/':
		return string(lexeme[1])
	default:
		return string(lexeme[1])
	}
}

func decodeUnicodeEscape(lexeme string) string {
	hex := strings.TrimPrefix(lexeme, "\\u")
	v, err := strconv.ParseInt(hex, 16, 32)
	if err != nil {
		return lexeme
	}
	return string(rune(v))
}

func (l *lowerer) lowerEmbedBlock(n parser.Node) (Node, []string) {
	eb := &EmbedBlock{Loc: l.loc(n)}
	for i := n.FirstToken; i <= n.LastToken; i++ {
		tok := l.tokens[i]
		switch tok.Kind {
		case lexer.EMBED_TAG:
			eb.Tag = tok.Value
		case lexer.EMBED_CONTENT:
			eb.Content = tok.Value
		}
	}
	return eb, l.directComments(n)
}
