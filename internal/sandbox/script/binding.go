package script

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// idAttr is the identifier attribute scripts address elements by
const idAttr = "data-pf-id"

// DocumentBinding exposes a live document tree to sandboxed scripts.
// Mutations flip the dirty flag so the caller knows the document needs
// re-serialization after the script returns.
type DocumentBinding struct {
	doc   *goquery.Document
	dirty bool
}

// NewBinding wraps a document for script access
func NewBinding(doc *goquery.Document) *DocumentBinding {
	return &DocumentBinding{doc: doc}
}

// Dirty reports whether any script mutated the document
func (b *DocumentBinding) Dirty() bool {
	return b.dirty
}

// query returns selections for a CSS selector
func (b *DocumentBinding) query(selector string) *goquery.Selection {
	return b.doc.Find(selector)
}

// byID resolves an element identifier to its selection
func (b *DocumentBinding) byID(elementID string) *goquery.Selection {
	return b.doc.Find(fmt.Sprintf("[%s=%q]", idAttr, elementID))
}

// proxy builds the script-visible view of one element
func (b *DocumentBinding) proxy(sel *goquery.Selection) map[string]interface{} {
	elementID, _ := sel.Attr(idAttr)
	className, _ := sel.Attr("class")

	return map[string]interface{}{
		"tagName":   goquery.NodeName(sel),
		"elementId": elementID,
		"className": className,
		"getAttribute": func(name string) string {
			val, _ := sel.Attr(name)
			return val
		},
		"setAttribute": func(name, value string) {
			sel.SetAttr(name, value)
			b.dirty = true
		},
		"removeAttribute": func(name string) {
			sel.RemoveAttr(name)
			b.dirty = true
		},
		"text": func() string {
			return sel.Text()
		},
		"setText": func(value string) {
			sel.SetText(value)
			b.dirty = true
		},
		"html": func() string {
			inner, _ := sel.Html()
			return inner
		},
		"setHtml": func(value string) {
			sel.SetHtml(value)
			b.dirty = true
		},
		"addClass": func(name string) {
			sel.AddClass(name)
			b.dirty = true
		},
		"removeClass": func(name string) {
			sel.RemoveClass(name)
			b.dirty = true
		},
	}
}
