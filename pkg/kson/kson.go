// Package kson is the public API surface of the KSON core toolchain
// (§6): parsing KSON documents and schemas, validating a document against
// a schema, and navigating both by JSON-Pointer (plus the glob
// extension). It is a thin facade over internal/kson's pipeline stages;
// callers needing the marker tree or raw tokens reach past this package
// into internal/kson directly (this facade only re-exports what an
// external collaborator — a CLI, an LSP server — actually needs).
package kson

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kson-org/kson-sub001/internal/kson/ast"
	"github.com/kson-org/kson-sub001/internal/kson/diag"
	"github.com/kson-org/kson-sub001/internal/kson/lexer"
	kparser "github.com/kson-org/kson-sub001/internal/kson/parser"
	"github.com/kson-org/kson-sub001/internal/kson/pointer"
	"github.com/kson-org/kson-sub001/internal/kson/schema"
	"github.com/kson-org/kson-sub001/internal/kson/value"
)

// Options configures a Parse or ParseSchema call.
type Options struct {
	// GapFree requests a gap-free token stream alongside the result,
	// suitable for backing an editor's syntax service (§4.2). It has no
	// effect on the parsed Value or Ast.
	GapFree bool
	Logger  *zap.Logger
}

// ParseResult is everything one KSON compilation produces (§6 `parse`).
type ParseResult struct {
	// Value is the semantic document, non-nil only when Messages is empty
	// (§7: "AST lowering is skipped if any parse error exists").
	Value *value.Value
	// Ast is the typed syntax tree Value was derived from; nil under the
	// same condition as Value (§8 property 9).
	Ast      *ast.Root
	Messages []diag.Message
	// Tokens is the gap-free token stream when Options.GapFree was set,
	// for editor integrations that need full source coverage; nil
	// otherwise.
	Tokens []lexer.Token
}

// Parse tokenizes and parses source, lowering to both an AST and a
// KsonValue when the document is error-free.
func Parse(source string, opts Options) ParseResult {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var tokens []lexer.Token
	if opts.GapFree {
		tokens = lexer.Tokenize(source, lexer.Options{GapFree: true, Logger: log})
	}
	parseTokens := lexer.Tokenize(source, lexer.Options{GapFree: false, Logger: log})

	p := kparser.New(parseTokens, kparser.Options{Logger: log})
	builder := p.Parse()
	root, msgs := ast.Lower(builder)

	result := ParseResult{Ast: root, Messages: msgs, Tokens: tokens}
	if root != nil {
		result.Value = value.FromAST(root.Content)
	}
	return result
}

// ParseSchema parses source as a JSON-Schema-Draft-7 document (§4.5).
// The returned *schema.IdLookup must accompany the schema into every
// Validate/NavigateSchema call, since $ref resolution is document-local
// and keyed by that index.
func ParseSchema(source string, opts Options) (*schema.Schema, *schema.IdLookup, []diag.Message) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return schema.Parse(source, schema.Options{Logger: log})
}

// Validate evaluates v against s, resolving any $ref through lookup
// (§4.5 Evaluator contract).
func Validate(v *value.Value, s *schema.Schema, lookup *schema.IdLookup) []diag.Message {
	return schema.Validate(v, s, lookup)
}

// NavigatePointer resolves a JSON-Pointer (or, if p begins with a glob
// metacharacter anywhere in its segments, a glob pointer) against v and
// returns every matching node (§4.6).
func NavigatePointer(v *value.Value, p string) ([]*value.Value, error) {
	ptr, errMsg := pointer.ParseGlob(p)
	if errMsg != nil {
		return nil, errors.New(errMsg.Text)
	}
	return pointer.Navigate(v, ptr), nil
}

// NavigateSchema resolves a strict JSON-Pointer against s and returns the
// schema node(s) that apply there (§4.5 Navigator contract).
func NavigateSchema(s *schema.Schema, lookup *schema.IdLookup, p string) ([]*schema.Schema, error) {
	ptr, errMsg := pointer.Parse(p)
	if errMsg != nil {
		return nil, errors.New(errMsg.Text)
	}
	return schema.Navigate(s, lookup, ptr), nil
}

// NavigateSchemaGlob is NavigateSchema's glob-pointer counterpart,
// exposed as its own operation (rather than overloading NavigateSchema on
// the pointer string's shape) so call sites are unambiguous about which
// semantics — strict or glob — they asked for.
func NavigateSchemaGlob(s *schema.Schema, lookup *schema.IdLookup, p string) ([]*schema.Schema, error) {
	ptr, errMsg := pointer.ParseGlob(p)
	if errMsg != nil {
		return nil, errors.New(errMsg.Text)
	}
	return schema.Navigate(s, lookup, ptr), nil
}

// FormatOptions is the external formatter's configuration contract (§6):
// Tabs, or Spaces with a tab size. The core only specifies this shape; it
// implements no formatter of its own (§1 Non-goals).
type FormatOptions struct {
	Tabs    bool
	TabSize int // meaningful only when !Tabs; 0 means the default of 2
}

// Format is a contract-only stub: the core toolchain specifies this
// signature for an external formatter collaborator but does not
// implement layout itself (§1, §6). Calling it always errors.
func Format(v *value.Value, opts FormatOptions) (string, error) {
	return "", fmt.Errorf("kson: Format is an external formatter contract, not implemented by the core toolchain")
}
