// Package inspect answers structural queries against a document.
//
// Queries run against the markup string itself, so they never touch a
// live sandbox. CSS selectors go through goquery; XPath expressions go
// through htmlquery. Matches carry the stable element identifier when
// the queried node has one, which lets callers feed results straight
// back into selection and patching.
package inspect

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/GriffinCanCode/PageForge/backend/internal/shared/utils"
	"github.com/GriffinCanCode/PageForge/backend/internal/tagger"
)

// maxTextPreview caps the text carried per match
const maxTextPreview = 240

// Match describes one element found by a query
type Match struct {
	// ElementID is empty when the matched node was never tagged,
	// such as injected runtime nodes or head metadata
	ElementID string `json:"element_id,omitempty"`
	Tag       string `json:"tag"`
	Text      string `json:"text"`
	Markup    string `json:"markup"`
}

// CSS returns every element matching a CSS selector
func CSS(markup, selector string) ([]Match, error) {
	if err := utils.ValidateMarkup(markup); err != nil {
		return nil, err
	}
	if selector == "" {
		return nil, fmt.Errorf("selector is required")
	}

	// Compile through cascadia directly so a malformed selector is an
	// error instead of a silent empty result
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}

	var matches []Match
	doc.FindMatcher(matcher).Each(func(_ int, sel *goquery.Selection) {
		node := sel.Get(0)
		if node == nil || node.Type != html.ElementNode {
			return
		}
		outer, err := goquery.OuterHtml(sel)
		if err != nil {
			outer = ""
		}
		id, _ := sel.Attr(tagger.IDAttr)
		matches = append(matches, Match{
			ElementID: id,
			Tag:       node.Data,
			Text:      preview(sel.Text()),
			Markup:    outer,
		})
	})
	return matches, nil
}

// XPath returns every element matching an XPath expression
func XPath(markup, expr string) ([]Match, error) {
	if err := utils.ValidateMarkup(markup); err != nil {
		return nil, err
	}
	if expr == "" {
		return nil, fmt.Errorf("xpath expression is required")
	}

	doc, err := htmlquery.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}

	nodes, err := htmlquery.QueryAll(doc, expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}

	var matches []Match
	for _, node := range nodes {
		if node.Type != html.ElementNode {
			continue
		}
		matches = append(matches, Match{
			ElementID: nodeAttr(node, tagger.IDAttr),
			Tag:       node.Data,
			Markup:    htmlquery.OutputHTML(node, true),
			Text:      preview(nodeText(node)),
		})
	}
	return matches, nil
}

// Text extracts the trimmed text of every XPath match, dropping blanks
func Text(markup, expr string) ([]string, error) {
	matches, err := XPath(markup, expr)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(matches))
	for _, m := range matches {
		if m.Text != "" {
			texts = append(texts, m.Text)
		}
	}
	return texts, nil
}

// Attribute extracts an attribute from every XPath match, deduplicated
// and with empty values dropped
func Attribute(markup, expr, attr string) ([]string, error) {
	if attr == "" {
		return nil, fmt.Errorf("attribute name is required")
	}
	if err := utils.ValidateMarkup(markup); err != nil {
		return nil, err
	}

	doc, err := htmlquery.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}

	nodes, err := htmlquery.QueryAll(doc, expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}

	seen := make(map[string]bool, len(nodes))
	values := make([]string, 0, len(nodes))
	for _, node := range nodes {
		val := nodeAttr(node, attr)
		if val == "" || seen[val] {
			continue
		}
		seen[val] = true
		values = append(values, val)
	}
	return values, nil
}

func nodeAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var buf bytes.Buffer
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(buf.String())
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= maxTextPreview {
		return s
	}
	return s[:maxTextPreview-3] + "..."
}
