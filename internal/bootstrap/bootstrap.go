// Package bootstrap prepares raw markup for editing.
//
// Bootstrapping parses a document leniently, tags every element with a
// stable identifier, injects the selection stylesheet and the behavior
// script, and serializes the result with a standards-mode doctype. The
// output is what a render context loads; the injected nodes carry a
// marker attribute so they are never tagged, never exported, and are
// replaced rather than duplicated when a document is bootstrapped again.
package bootstrap

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/GriffinCanCode/PageForge/backend/internal/shared/id"
	"github.com/GriffinCanCode/PageForge/backend/internal/tagger"
)

// Injected node kinds stored in the marker attribute
const (
	KindStyle  = "style"
	KindScript = "script"
)

// Result describes a bootstrapped document
type Result struct {
	// Markup is the serialized document ready for a render context
	Markup string

	// Tagged is the number of identifiers assigned during this pass
	Tagged int

	// Channel is the token scoping this document's message channel.
	// Every bootstrap mints a fresh token; events carrying an older
	// token belong to a superseded context and are dropped.
	Channel id.ChannelToken
}

// Bootstrapper turns raw markup into editable documents
type Bootstrapper struct {
	tagger *tagger.Tagger
	origin string
}

// New creates a bootstrapper. The origin restricts where the injected
// script posts its events; "*" disables the restriction for contexts
// whose embedding origin is unknown.
func New(t *tagger.Tagger, origin string) *Bootstrapper {
	if origin == "" {
		origin = "*"
	}
	return &Bootstrapper{tagger: t, origin: origin}
}

// Bootstrap prepares markup for editing. Already bootstrapped input is
// handled by replacing the injected nodes, so repeated calls never stack
// duplicate styles or scripts, and identifiers assigned earlier survive.
func (b *Bootstrapper) Bootstrap(markup string) (*Result, error) {
	doc, err := tagger.Parse(markup)
	if err != nil {
		return nil, err
	}

	// Stale injections from a previous bootstrap go away first; their
	// replacements carry this context's channel token.
	doc.Find(injectedSelector()).Remove()

	tagged := b.tagger.Tag(doc)
	channel := id.NewChannelToken()

	if err := b.inject(doc, channel); err != nil {
		return nil, err
	}

	out, err := tagger.Serialize(doc)
	if err != nil {
		return nil, err
	}

	return &Result{
		Markup:  out,
		Tagged:  tagged,
		Channel: channel,
	}, nil
}

// inject adds the selection stylesheet to head and the behavior script
// to the end of body. The parser guarantees both containers exist.
func (b *Bootstrapper) inject(doc *goquery.Document, channel id.ChannelToken) error {
	head := doc.Find("head").First()
	if head.Length() == 0 {
		return fmt.Errorf("bootstrap: document has no head")
	}
	body := doc.Find("body").First()
	if body.Length() == 0 {
		return fmt.Errorf("bootstrap: document has no body")
	}

	head.AppendHtml(fmt.Sprintf(
		"<style %s=%q>%s</style>",
		tagger.InjectedAttr, KindStyle, selectionStyle,
	))
	body.AppendHtml(fmt.Sprintf(
		"<script %s=%q>%s</script>",
		tagger.InjectedAttr, KindScript, renderScript(channel, b.origin),
	))

	return nil
}

// Strip removes the editor's transient fingerprints from markup: the
// injected nodes, the selection class, and contenteditable state.
// Element identifiers stay; they are stable data and keep references
// valid if the exported file is imported again.
func Strip(markup string) (string, error) {
	doc, err := tagger.Parse(markup)
	if err != nil {
		return "", err
	}

	doc.Find(injectedSelector()).Remove()

	doc.Find("." + tagger.SelectedClass).RemoveClass(tagger.SelectedClass)
	doc.Find("[class='']").RemoveAttr("class")

	doc.Find("[contenteditable]").RemoveAttr("contenteditable")
	doc.Find("[data-pf-wired]").RemoveAttr("data-pf-wired")

	return tagger.Serialize(doc)
}

// IsBootstrapped reports whether markup already carries injected nodes
func IsBootstrapped(markup string) bool {
	return strings.Contains(markup, tagger.InjectedAttr)
}

func injectedSelector() string {
	return fmt.Sprintf("[%s]", tagger.InjectedAttr)
}
