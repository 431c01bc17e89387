package importer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/GriffinCanCode/PageForge/backend/internal/config"
	"github.com/GriffinCanCode/PageForge/backend/internal/resilience"
)

func testImporter(cfg config.ImporterConfig) *Importer {
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = 5 * time.Second
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	return New(cfg, nil)
}

func TestImportFetchesPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head></head><body><h1>Imported</h1><img src="/pic.png"></body></html>`))
	}))
	defer srv.Close()

	imp := testImporter(config.ImporterConfig{})

	markup, err := imp.Import(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if !strings.Contains(markup, "Imported") {
		t.Error("markup missing page content")
	}
	if !strings.Contains(markup, srv.URL+"/pic.png") {
		t.Errorf("relative src not absolutized: %s", markup)
	}
}

func TestImportRejectsNonHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"not": "html"}`))
	}))
	defer srv.Close()

	imp := testImporter(config.ImporterConfig{})

	if _, err := imp.Import(context.Background(), srv.URL); !errors.Is(err, ErrNotHTML) {
		t.Errorf("err = %v, want %v", err, ErrNotHTML)
	}
}

func TestImportTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>" + strings.Repeat("x", 4096) + "</html>"))
	}))
	defer srv.Close()

	imp := testImporter(config.ImporterConfig{MaxBodyBytes: 100})

	if _, err := imp.Import(context.Background(), srv.URL); !errors.Is(err, ErrTooLarge) {
		t.Errorf("err = %v, want %v", err, ErrTooLarge)
	}
}

func TestImportBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	imp := testImporter(config.ImporterConfig{})

	if _, err := imp.Import(context.Background(), srv.URL); !errors.Is(err, ErrBadStatus) {
		t.Errorf("err = %v, want %v", err, ErrBadStatus)
	}
}

func TestImportBadScheme(t *testing.T) {
	imp := testImporter(config.ImporterConfig{})

	if _, err := imp.Import(context.Background(), "ftp://example.com/page"); err == nil {
		t.Error("expected error for unsupported scheme")
	}
}

func TestImportDeclaredCharset(t *testing.T) {
	// "café" in latin-1: the é is a single 0xE9 byte
	body := append([]byte("<html><body><p>caf"), 0xE9)
	body = append(body, []byte("</p></body></html>")...)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		w.Write(body)
	}))
	defer srv.Close()

	imp := testImporter(config.ImporterConfig{})

	markup, err := imp.Import(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if !strings.Contains(markup, "café") {
		t.Errorf("charset not decoded: %s", markup)
	}
}

func TestImportSniffedUTF8(t *testing.T) {
	// Multibyte UTF-8 with no charset declaration anywhere still decodes
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body><p>Привет мир</p></body></html>"))
	}))
	defer srv.Close()

	imp := testImporter(config.ImporterConfig{})

	markup, err := imp.Import(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if !strings.Contains(markup, "Привет мир") {
		t.Errorf("sniffed utf-8 not decoded: %s", markup)
	}
}

func TestImportDetectedCharset(t *testing.T) {
	// Shift-JIS with no declaration: invalid as UTF-8, so only the
	// statistical detector can identify it
	phrase := strings.Repeat("こんにちは世界のみなさん ", 10)
	enc, _ := charset.Lookup("shift_jis")
	encoded, err := enc.NewEncoder().Bytes([]byte(phrase))
	if err != nil {
		t.Fatalf("failed to encode fixture: %v", err)
	}

	body := append([]byte("<html><body><p>"), encoded...)
	body = append(body, []byte("</p></body></html>")...)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write(body)
	}))
	defer srv.Close()

	imp := testImporter(config.ImporterConfig{})

	markup, err := imp.Import(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if !strings.Contains(markup, "こんにちは世界") {
		t.Errorf("detected charset not decoded: %s", markup)
	}
}

func TestImportRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			http.Error(w, "flaky", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>recovered</body></html>"))
	}))
	defer srv.Close()

	imp := testImporter(config.ImporterConfig{RetryMax: 3})

	markup, err := imp.Import(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Import failed after retries: %v", err)
	}
	if !strings.Contains(markup, "recovered") {
		t.Error("markup missing recovered content")
	}
	if calls.Load() < 3 {
		t.Errorf("server saw %d calls, want at least 3", calls.Load())
	}
}

func TestImportBreakerOpens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	imp := testImporter(config.ImporterConfig{})

	for i := 0; i < 3; i++ {
		imp.Import(context.Background(), srv.URL)
	}

	if imp.BreakerState() != resilience.StateOpen {
		t.Fatalf("breaker state = %s, want open", imp.BreakerState())
	}

	_, err := imp.Import(context.Background(), srv.URL)
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Errorf("err = %v, want %v", err, resilience.ErrCircuitOpen)
	}
}

func TestImportInlinesImages(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><img src="/pic.png"></body></html>`))
	})
	mux.HandleFunc("/pic.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write(png)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	imp := testImporter(config.ImporterConfig{InlineAssets: true})

	markup, err := imp.Import(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if !strings.Contains(markup, "data:image/png;base64,") {
		t.Errorf("image not inlined: %s", markup)
	}
}

func TestImportMarkupNormalizes(t *testing.T) {
	imp := testImporter(config.ImporterConfig{})

	out, err := imp.ImportMarkup("<div><p>pasted</div>")
	if err != nil {
		t.Fatalf("ImportMarkup failed: %v", err)
	}

	if !strings.HasPrefix(out, "<!DOCTYPE html>") {
		t.Error("normalized markup missing doctype")
	}
	if !strings.Contains(out, "</p>") {
		t.Error("parser did not close the dangling paragraph")
	}
}

func TestImportMarkupRejectsOversize(t *testing.T) {
	imp := testImporter(config.ImporterConfig{})

	if _, err := imp.ImportMarkup(strings.Repeat("x", 3<<20)); err == nil {
		t.Error("expected size validation error")
	}
}

func TestImportBytesDeclaredCharset(t *testing.T) {
	body := append([]byte(`<html><head><meta charset="iso-8859-1"></head><body><p>caf`), 0xE9)
	body = append(body, []byte("</p></body></html>")...)

	imp := testImporter(config.ImporterConfig{})

	markup, err := imp.ImportBytes(body)
	if err != nil {
		t.Fatalf("ImportBytes failed: %v", err)
	}
	if !strings.Contains(markup, "café") {
		t.Errorf("meta charset not decoded: %s", markup)
	}
}

func TestImportBytesDetectedCharset(t *testing.T) {
	phrase := strings.Repeat("こんにちは世界のみなさん ", 10)
	enc, _ := charset.Lookup("shift_jis")
	encoded, err := enc.NewEncoder().Bytes([]byte(phrase))
	if err != nil {
		t.Fatalf("failed to encode fixture: %v", err)
	}

	body := append([]byte("<html><body><p>"), encoded...)
	body = append(body, []byte("</p></body></html>")...)

	imp := testImporter(config.ImporterConfig{})

	markup, err := imp.ImportBytes(body)
	if err != nil {
		t.Fatalf("ImportBytes failed: %v", err)
	}
	if !strings.Contains(markup, "こんにちは世界") {
		t.Errorf("detected charset not decoded: %s", markup)
	}
}

func TestImportBytesRejectsBinary(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

	imp := testImporter(config.ImporterConfig{})

	if _, err := imp.ImportBytes(png); !errors.Is(err, ErrNotHTML) {
		t.Errorf("err = %v, want %v", err, ErrNotHTML)
	}
}

func TestImportBytesTooLarge(t *testing.T) {
	imp := testImporter(config.ImporterConfig{MaxBodyBytes: 100})

	if _, err := imp.ImportBytes([]byte("<html>" + strings.Repeat("x", 4096) + "</html>")); !errors.Is(err, ErrTooLarge) {
		t.Errorf("err = %v, want %v", err, ErrTooLarge)
	}
}

func TestImportBytesEmpty(t *testing.T) {
	imp := testImporter(config.ImporterConfig{})

	if _, err := imp.ImportBytes(nil); err == nil {
		t.Error("expected error for empty upload")
	}
}

func TestImageDataURL(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

	imp := testImporter(config.ImporterConfig{})

	dataURL, err := imp.ImageDataURL(png)
	if err != nil {
		t.Fatalf("ImageDataURL failed: %v", err)
	}
	if !strings.HasPrefix(dataURL, "data:image/png;base64,") {
		t.Errorf("unexpected data URL: %s", dataURL)
	}
}

func TestImageDataURLRejectsText(t *testing.T) {
	imp := testImporter(config.ImporterConfig{})

	if _, err := imp.ImageDataURL([]byte("<html><body>page</body></html>")); !errors.Is(err, ErrNotImage) {
		t.Errorf("err = %v, want %v", err, ErrNotImage)
	}
}

func TestImageDataURLTooLarge(t *testing.T) {
	imp := testImporter(config.ImporterConfig{})

	if _, err := imp.ImageDataURL(make([]byte, maxImageBytes+1)); !errors.Is(err, ErrTooLarge) {
		t.Errorf("err = %v, want %v", err, ErrTooLarge)
	}
}
