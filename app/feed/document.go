package feed

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

// Document is a parsed page that can be queried by CSS selector.
type Document interface {
	// FindAll returns every node matching selector, in document order.
	FindAll(selector string) []Node
}

// Node is a single element of a Document.
type Node interface {
	// Find returns the first descendant matching selector.
	Find(selector string) (Node, bool)
	// Text returns the node's text with whitespace collapsed and trimmed.
	Text() string
	// Attr returns the named attribute, if present.
	Attr(name string) (string, bool)
}

type htmlDocument struct {
	doc *goquery.Document
}

type htmlNode struct {
	sel *goquery.Selection
}

// NewDocument parses HTML. Malformed markup is recovered the way browsers do.
func NewDocument(data []byte) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &htmlDocument{doc: doc}, nil
}

func (d *htmlDocument) FindAll(selector string) []Node {
	selection := d.doc.Find(selector)
	nodes := make([]Node, 0, selection.Length())
	selection.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, &htmlNode{sel: s})
	})
	return nodes
}

func (n *htmlNode) Find(selector string) (Node, bool) {
	found := n.sel.Find(selector).First()
	if found.Length() == 0 {
		return nil, false
	}
	return &htmlNode{sel: found}, true
}

func (n *htmlNode) Text() string {
	return NormalizeText(n.sel.Text())
}

func (n *htmlNode) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}

// NormalizeText collapses runs of whitespace into single spaces, trims the
// result and converts it to NFC.
func NormalizeText(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}
