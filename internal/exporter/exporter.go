// Package exporter produces downloadable documents.
//
// An export starts from the editor's live markup, strips every editor
// fingerprint, and optionally sanitizes the result and compresses it
// for transfer. Stable element identifiers survive export so a file
// can round-trip back into the editor.
package exporter

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/klauspost/compress/gzip"
	"github.com/microcosm-cc/bluemonday"

	"github.com/GriffinCanCode/PageForge/backend/internal/bootstrap"
	"github.com/GriffinCanCode/PageForge/backend/internal/config"
	"github.com/GriffinCanCode/PageForge/backend/internal/tagger"
)

// Options selects per-export behavior on top of the configured defaults
type Options struct {
	// Sanitize scrubs the markup through an allowlist policy
	Sanitize bool
	// Gzip compresses the body and sets the encoding accordingly
	Gzip bool
}

// Result is a ready-to-serve export
type Result struct {
	Filename    string
	ContentType string
	Encoding    string
	Body        []byte
}

// Exporter turns live documents into downloadable files
type Exporter struct {
	cfg    config.ExportConfig
	policy *bluemonday.Policy
}

// New creates an exporter with a sanitization policy that keeps what
// the editor produces: inline styles, stable identifiers, and data URL
// images from asset inlining.
func New(cfg config.ExportConfig) *Exporter {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("style").Globally()
	policy.AllowAttrs(tagger.IDAttr).Matching(regexp.MustCompile(`^[a-zA-Z0-9_]+$`)).Globally()
	policy.AllowDataURIImages()
	policy.AllowElements("html", "head", "body", "title", "style")

	return &Exporter{cfg: cfg, policy: policy}
}

// Export strips editor state from markup and packages it for download
func (e *Exporter) Export(markup string, opts Options) (*Result, error) {
	clean, err := bootstrap.Strip(markup)
	if err != nil {
		return nil, fmt.Errorf("strip markup: %w", err)
	}

	if opts.Sanitize || e.cfg.Sanitize {
		clean = tagger.Doctype + "\n" + e.policy.Sanitize(clean)
	}

	result := &Result{
		Filename:    e.cfg.Filename,
		ContentType: "text/html; charset=utf-8",
		Body:        []byte(clean),
	}

	if opts.Gzip {
		compressed, err := compress(result.Body)
		if err != nil {
			return nil, fmt.Errorf("compress export: %w", err)
		}
		result.Body = compressed
		result.Encoding = "gzip"
	}

	return result, nil
}

// compress gzips a body at the default level
func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
