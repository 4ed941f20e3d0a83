package bookdl

import "strings"

// Node is a single element matched by a selector query: its attributes and
// its extracted text, whitespace-trimmed.
type Node struct {
	Attrs map[string]string
	Text  string
}

// Attr returns the named attribute or "" when absent.
func (n Node) Attr(name string) string {
	return n.Attrs[name]
}

// Querier evaluates selector expressions against markup.
//
// Results preserve document order. A selector that matches nothing returns
// an empty slice, not an error; an invalid selector expression returns
// EINVALID.
type Querier interface {
	Query(markup, selector string) ([]Node, error)
}

// IsMarkup reports whether s looks like a markup document. Browsers
// occasionally hand back session ids or error strings in place of a page;
// those must never be parsed as content.
func IsMarkup(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "<")
}
