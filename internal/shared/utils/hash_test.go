package utils

import (
	"strings"
	"testing"
)

func TestHashDeterminism(t *testing.T) {
	hasher := DefaultHasher()

	h1 := hasher.HashString("<html><body></body></html>")
	h2 := hasher.HashString("<html><body></body></html>")

	if h1 != h2 {
		t.Error("identical input should produce identical hashes")
	}

	h3 := hasher.HashString("<html><body>x</body></html>")
	if h1 == h3 {
		t.Error("different input should produce different hashes")
	}
}

func TestHashFieldsOrderIndependent(t *testing.T) {
	hasher := DefaultHasher()

	h1 := hasher.HashFields("a", "b", "c")
	h2 := hasher.HashFields("c", "a", "b")

	if h1 != h2 {
		t.Error("field order should not affect the hash")
	}
}

func TestDocumentFingerprint(t *testing.T) {
	di := NewDocumentIdentifier(nil)

	markup := `<!DOCTYPE html><html><body><p data-pf-id="el_1">hi</p></body></html>`
	fp := di.Fingerprint(markup)

	if len(fp) != 64 {
		t.Errorf("sha256 hex fingerprint should be 64 chars, got %d", len(fp))
	}

	if di.Changed(fp, markup) {
		t.Error("unchanged markup should not report as changed")
	}

	if !di.Changed(fp, markup+" ") {
		t.Error("modified markup should report as changed")
	}
}

func TestShortFingerprint(t *testing.T) {
	di := NewDocumentIdentifier(nil)

	full := di.Fingerprint("doc")
	short := di.ShortFingerprint(full)

	if len(short) != 8 {
		t.Errorf("short fingerprint should be 8 chars, got %d", len(short))
	}
	if !strings.HasPrefix(full, short) {
		t.Error("short fingerprint should prefix the full hash")
	}

	if di.ShortFingerprint("abc") != "abc" {
		t.Error("hashes shorter than 8 chars pass through unchanged")
	}
}
