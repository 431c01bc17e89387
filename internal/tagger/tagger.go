// Package tagger assigns stable identifiers to document elements.
//
// Every element in a parsed document receives a data attribute holding a
// prefixed ULID. Identifiers are assigned exactly once: re-running the
// tagger over an already tagged document assigns nothing, so selection
// references held elsewhere stay valid across parse/serialize cycles.
//
// Nodes injected by the bootstrapper carry a marker attribute and are
// never tagged; they are editor plumbing, not document content.
package tagger

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/GriffinCanCode/PageForge/backend/internal/shared/id"
)

// Attribute names written into the document
const (
	// IDAttr holds the element identifier
	IDAttr = "data-pf-id"

	// InjectedAttr marks nodes added by the bootstrapper
	InjectedAttr = "data-pf-injected"

	// SelectedClass is toggled on the currently selected element
	SelectedClass = "pf-selected"
)

// Tagger assigns identifiers to untagged elements
type Tagger struct {
	gen *id.Generator
}

// New creates a tagger backed by the default generator
func New() *Tagger {
	return NewWithGenerator(id.Default())
}

// NewWithGenerator creates a tagger with a custom generator.
// Deterministic entropy sources make tagged output reproducible in tests.
func NewWithGenerator(gen *id.Generator) *Tagger {
	return &Tagger{gen: gen}
}

// Tag walks the document and assigns an identifier to every element that
// does not already carry one. Returns the number of identifiers assigned.
//
// Existing identifier values are never rewritten, whatever they contain;
// hand-edited markup may carry foreign values and they survive untouched.
func (t *Tagger) Tag(doc *goquery.Document) int {
	tagged := 0

	doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		if _, injected := sel.Attr(InjectedAttr); injected {
			return
		}
		if existing, ok := sel.Attr(IDAttr); ok && existing != "" {
			return
		}
		sel.SetAttr(IDAttr, t.gen.NewElement().String())
		tagged++
	})

	return tagged
}

// TagMarkup parses markup leniently, tags it, and returns the serialized
// result along with the number of identifiers assigned. Broken markup is
// recovered the way browsers recover it, never rejected.
func (t *Tagger) TagMarkup(markup string) (string, int, error) {
	doc, err := Parse(markup)
	if err != nil {
		return "", 0, err
	}

	tagged := t.Tag(doc)

	out, err := Serialize(doc)
	if err != nil {
		return "", 0, err
	}
	return out, tagged, nil
}

// Count returns the number of elements carrying an identifier
func Count(doc *goquery.Document) int {
	return doc.Find(selectorAny()).Length()
}

// Lookup finds the element with the given identifier. The returned
// selection is empty when the identifier matches nothing.
func Lookup(doc *goquery.Document, elementID string) *goquery.Selection {
	return doc.Find(Selector(elementID))
}

// Selector builds the attribute selector matching one identifier
func Selector(elementID string) string {
	return fmt.Sprintf("[%s=%q]", IDAttr, elementID)
}

func selectorAny() string {
	return fmt.Sprintf("[%s]", IDAttr)
}

// Parse builds a document from markup using browser-grade error
// recovery. Fragment input grows the implied html/head/body shell.
func Parse(markup string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	return doc, nil
}

// Serialize renders the full document back to markup. The doctype is
// preserved when the tree carries one and prepended when it does not, so
// browsers render the result in standards mode either way.
func Serialize(doc *goquery.Document) (string, error) {
	if len(doc.Nodes) == 0 {
		return "", fmt.Errorf("serialize: empty document")
	}
	root := doc.Nodes[0]

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return "", fmt.Errorf("serialize markup: %w", err)
	}

	out := buf.String()
	if !hasDoctype(root) {
		out = Doctype + out
	}
	return out, nil
}

// Doctype is the standards-mode prefix guaranteed on serialized output
const Doctype = "<!DOCTYPE html>"

func hasDoctype(root *html.Node) bool {
	for n := root.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == html.DoctypeNode {
			return true
		}
	}
	return false
}
