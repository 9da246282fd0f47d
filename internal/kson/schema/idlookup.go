package schema

import (
	"net/url"
	"strings"
)

// IdLookup indexes every `$id` found while parsing a bundled schema
// document into an absolute-URI-keyed table (§3 SchemaIdLookup, §9 "$id
// indexing"), plus a pointer-keyed table covering every node (not just
// $id ones) so a pure JSON-Pointer fragment `$ref` — the common case when
// a document declares no `$id` at all (§8 scenario E) — still resolves
// without a network or filesystem round trip. Both tables are built in
// the single top-down parse pass; resolution never leaves the document
// (§1 Non-goals: no external $ref resolution).
type IdLookup struct {
	byURI     map[string]*Schema // absolute $id -> the schema node that declared it
	byPointer map[string]*Schema // "<baseURI>#<jsonPointer>" -> every node, $id or not
}

// NewIdLookup creates an empty index for one schema-parsing pass.
func NewIdLookup() *IdLookup {
	return &IdLookup{
		byURI:     make(map[string]*Schema),
		byPointer: make(map[string]*Schema),
	}
}

// index records node at the given base URI scope and document pointer.
// Called once per schema node as parse.go walks the document.
func (l *IdLookup) index(baseURI, pointer string, node *Schema) {
	l.byPointer[baseURI+"#"+pointer] = node
	if node.ID != "" {
		l.byURI[node.ID] = node
	}
}

// Resolve looks up a `$ref` string evaluated in scope baseURI (the
// nearest enclosing `$id`, or "" at the document root). It tries, in
// order: the pointer-qualified form (handles both `$id`-rooted and bare
// documents transparently, satisfying "bundled schemas ... must be
// supported transparently" from §9), then a bare absolute-URI match for
// refs with no fragment.
func (l *IdLookup) Resolve(ref, baseURI string) (*Schema, bool) {
	target, frag := splitRef(ref, baseURI)
	if node, ok := l.byPointer[target+"#"+frag]; ok {
		return node, true
	}
	if frag == "" {
		if node, ok := l.byURI[target]; ok {
			return node, true
		}
	}
	return nil, false
}

// splitRef resolves ref's URI component against baseURI (empty baseURI
// means "no enclosing $id yet", and a ref with no URI component inherits
// baseURI unchanged) and returns the resolved absolute URI plus the
// fragment (without its leading '#').
func splitRef(ref, baseURI string) (absolute, fragment string) {
	hash := strings.IndexByte(ref, '#')
	uriPart := ref
	if hash >= 0 {
		uriPart = ref[:hash]
		fragment = ref[hash+1:]
	}
	if uriPart == "" {
		return baseURI, fragment
	}
	return resolveURI(baseURI, uriPart), fragment
}

// resolveURI joins a possibly-relative $id/$ref URI against a base,
// falling back to the raw ref when either side fails to parse as a URI
// (keeping resolution purely document-local and side-effect free, per
// the no-network-resolution Non-goal).
func resolveURI(base, ref string) string {
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if refURL.IsAbs() || base == "" {
		return ref
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}
