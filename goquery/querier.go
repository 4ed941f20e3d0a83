// Package goquery implements markup querying and challenge detection for
// bookdl using CSS selectors.
package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/kalisz/bookdl"
	"golang.org/x/net/html"
)

// Ensure Querier implements bookdl.Querier at compile time.
var _ bookdl.Querier = (*Querier)(nil)

// Querier evaluates CSS selector expressions against markup.
// The zero value is ready to use.
type Querier struct{}

// NewQuerier creates a new Querier.
func NewQuerier() *Querier {
	return &Querier{}
}

// Query parses the markup and returns the nodes matched by the selector in
// document order. A selector that matches nothing returns an empty slice;
// an invalid selector expression returns EINVALID.
func (q *Querier) Query(markup, selector string) ([]bookdl.Node, error) {
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, bookdl.Errorf(bookdl.EINVALID, "invalid selector %q: %v", selector, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, bookdl.Errorf(bookdl.EINVALID, "failed to parse markup: %v", err)
	}

	nodes := []bookdl.Node{}
	doc.FindMatcher(matcher).Each(func(_ int, sel *goquery.Selection) {
		node := bookdl.Node{Text: strings.TrimSpace(sel.Text())}
		if len(sel.Nodes) > 0 {
			node.Attrs = nodeAttrs(sel.Nodes[0])
		}
		nodes = append(nodes, node)
	})

	return nodes, nil
}

// ValidateSelector reports whether the expression compiles as a CSS
// selector. Used by configuration validation so that bad selectors fail
// before any network activity.
func ValidateSelector(selector string) error {
	if _, err := cascadia.Compile(selector); err != nil {
		return bookdl.Errorf(bookdl.EINVALID, "invalid selector %q: %v", selector, err)
	}
	return nil
}

func nodeAttrs(n *html.Node) map[string]string {
	attrs := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		attrs[a.Key] = a.Val
	}
	return attrs
}
