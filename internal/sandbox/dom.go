package sandbox

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/GriffinCanCode/PageForge/backend/internal/shared/types"
	"github.com/GriffinCanCode/PageForge/backend/internal/tagger"
)

// DOM owns the live document tree of a render context. All access runs
// on the engine goroutine, so no locking happens here.
type DOM struct {
	doc *goquery.Document
}

// LoadDOM parses bootstrapped markup into a live tree
func LoadDOM(markup string) (*DOM, error) {
	doc, err := tagger.Parse(markup)
	if err != nil {
		return nil, err
	}
	return &DOM{doc: doc}, nil
}

// Document exposes the underlying tree for script bindings
func (d *DOM) Document() *goquery.Document {
	return d.doc
}

// Serialize renders the current tree with its doctype
func (d *DOM) Serialize() (string, error) {
	return tagger.Serialize(d.doc)
}

// Lookup finds one element by identifier; empty selection when unknown
func (d *DOM) Lookup(elementID string) *goquery.Selection {
	return tagger.Lookup(d.doc, elementID)
}

// Select marks the element as the current selection and returns its
// snapshot. Selecting replaces any previous selection; text elements
// become editable, images do not.
func (d *DOM) Select(elementID string) (*types.Selection, bool) {
	sel := d.Lookup(elementID)
	if sel.Length() == 0 {
		return nil, false
	}

	d.ClearSelection()

	sel.AddClass(tagger.SelectedClass)

	tag := goquery.NodeName(sel)
	props := types.PropertyPatch{}
	if tag == "img" {
		props[types.PropSrc], _ = sel.Attr("src")
	} else {
		inner, err := sel.Html()
		if err == nil {
			props[types.PropInnerHTML] = inner
		}
		sel.SetAttr("contenteditable", "true")
	}

	return &types.Selection{
		ElementID: elementID,
		Tag:       tag,
		Props:     props,
	}, true
}

// ClearSelection removes selection state from whatever holds it.
// Clearing an empty selection is a no-op.
func (d *DOM) ClearSelection() {
	selected := d.doc.Find("." + tagger.SelectedClass)
	if selected.Length() == 0 {
		return
	}

	selected.RemoveClass(tagger.SelectedClass)
	selected.RemoveAttr("contenteditable")

	// Drop class attributes the removal emptied
	d.doc.Find("[class='']").RemoveAttr("class")
}

// SelectedID returns the identifier of the current selection
func (d *DOM) SelectedID() (string, bool) {
	selected := d.doc.Find("." + tagger.SelectedClass).First()
	if selected.Length() == 0 {
		return "", false
	}
	return selected.Attr(tagger.IDAttr)
}

// ApplyProps patches one element. Style names merge into the inline
// style attribute one property at a time; innerHTML and src replace
// content and image source. Returns false when the identifier matches
// nothing, and the tree stays untouched.
func (d *DOM) ApplyProps(elementID string, props types.PropertyPatch) bool {
	sel := d.Lookup(elementID)
	if sel.Length() == 0 {
		return false
	}

	for name, value := range props {
		switch name {
		case types.PropInnerHTML:
			sel.SetHtml(value)
		case types.PropSrc:
			sel.SetAttr("src", value)
		default:
			d.setStyle(sel, name, value)
		}
	}
	return true
}

// setStyle merges one property into the element's inline style
func (d *DOM) setStyle(sel *goquery.Selection, name, value string) {
	current, _ := sel.Attr("style")
	decls := setProperty(parseStyle(current), name, value)

	if len(decls) == 0 {
		sel.RemoveAttr("style")
		return
	}
	sel.SetAttr("style", renderStyle(decls))
}

// SetText replaces an element's text content, ending any markup it held.
// Returns false when the identifier matches nothing.
func (d *DOM) SetText(elementID, text string) bool {
	sel := d.Lookup(elementID)
	if sel.Length() == 0 {
		return false
	}
	sel.SetText(text)
	return true
}

// Count returns the number of tagged elements in the tree
func (d *DOM) Count() int {
	return tagger.Count(d.doc)
}
