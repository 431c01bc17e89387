package importer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/saintfish/chardet"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/GriffinCanCode/PageForge/backend/internal/config"
	"github.com/GriffinCanCode/PageForge/backend/internal/logging"
	"github.com/GriffinCanCode/PageForge/backend/internal/resilience"
	"github.com/GriffinCanCode/PageForge/backend/internal/shared/utils"
	"github.com/GriffinCanCode/PageForge/backend/internal/tagger"
)

var (
	// ErrTooLarge marks a response body over the configured limit
	ErrTooLarge = errors.New("document exceeds size limit")

	// ErrNotHTML marks a fetch that returned something other than a page
	ErrNotHTML = errors.New("fetched content is not html")

	// ErrBadStatus marks a non-2xx fetch response
	ErrBadStatus = errors.New("fetch returned error status")

	// ErrNotImage marks an image upload with a non-image payload
	ErrNotImage = errors.New("uploaded content is not an image")
)

// Inlining limits keep data URLs from bloating the document
const (
	maxInlineAssetBytes = 256 * 1024
	maxInlineAssets     = 20

	// Base64 grows by a third; this cap keeps an uploaded image's data
	// URL inside the property value limit when it lands in a src patch.
	maxImageBytes = 180 * 1024
)

// Importer fetches and normalizes external documents
type Importer struct {
	cfg     config.ImporterConfig
	client  *resty.Client
	breaker *resilience.Breaker
	logger  *logging.Logger
}

// New creates an importer. Retries ride on the transport; the circuit
// breaker sits above them so a host that keeps failing after retries
// stops consuming connections.
func New(cfg config.ImporterConfig, logger *logging.Logger) *Importer {
	if logger == nil {
		logger = logging.NewNop()
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	rc.RetryWaitMin = 250 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = cfg.FetchTimeout
	rc.Logger = nil

	client := resty.NewWithClient(rc.StandardClient())
	client.SetDoNotParseResponse(true)
	client.SetHeader("User-Agent", "pageforge-importer/1.0")

	breaker := resilience.New("import-fetch", resilience.Settings{
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("import circuit state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Importer{
		cfg:     cfg,
		client:  client,
		breaker: breaker,
		logger:  logger,
	}
}

// Import fetches a page and returns normalized UTF-8 markup with asset
// references resolved against the page URL.
func (i *Importer) Import(ctx context.Context, pageURL string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", pageURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", base.Scheme)
	}

	raw, contentType, err := i.fetch(ctx, pageURL)
	if err != nil {
		return "", err
	}

	if !isHTML(raw, contentType) {
		return "", ErrNotHTML
	}

	markup, err := decode(raw, contentType)
	if err != nil {
		return "", fmt.Errorf("decode %q: %w", pageURL, err)
	}

	return i.normalize(ctx, markup, base)
}

// ImportMarkup normalizes pasted markup without a fetch
func (i *Importer) ImportMarkup(markup string) (string, error) {
	if err := utils.ValidateMarkup(markup); err != nil {
		return "", err
	}
	doc, err := tagger.Parse(markup)
	if err != nil {
		return "", err
	}
	return tagger.Serialize(doc)
}

// ImportBytes normalizes an uploaded document file. The bytes run through
// the same charset pipeline as fetched pages; binary payloads are rejected
// but markup structure is not checked.
func (i *Importer) ImportBytes(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("upload is empty")
	}
	if int64(len(data)) > i.cfg.MaxBodyBytes {
		return "", ErrTooLarge
	}

	kind := mimetype.Detect(data)
	if !kind.Is("text/html") && !strings.HasPrefix(kind.String(), "text/") {
		return "", fmt.Errorf("%w: detected %s", ErrNotHTML, kind.String())
	}

	markup, err := decode(data, "")
	if err != nil {
		return "", fmt.Errorf("decode upload: %w", err)
	}
	return i.ImportMarkup(markup)
}

// ImageDataURL converts an uploaded image into a data URL suitable for a
// src patch. Anything that does not sniff as an image is rejected.
func (i *Importer) ImageDataURL(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("upload is empty")
	}
	if len(data) > maxImageBytes {
		return "", ErrTooLarge
	}

	kind := mimetype.Detect(data)
	if !strings.HasPrefix(kind.String(), "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrNotImage, kind.String())
	}

	return fmt.Sprintf("data:%s;base64,%s",
		kind.String(), base64.StdEncoding.EncodeToString(data)), nil
}

// fetch retrieves a URL through the breaker with the body size capped
func (i *Importer) fetch(ctx context.Context, target string) ([]byte, string, error) {
	var body []byte
	var contentType string

	err := i.breaker.Do(func() error {
		resp, err := i.client.R().SetContext(ctx).Get(target)
		if err != nil {
			return err
		}
		defer resp.RawBody().Close()

		if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
			return fmt.Errorf("%w: %d from %s", ErrBadStatus, resp.StatusCode(), target)
		}

		data, err := readCapped(resp.RawBody(), i.cfg.MaxBodyBytes)
		if err != nil {
			return err
		}

		body = data
		contentType = resp.Header().Get("Content-Type")
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	i.logger.Info("fetched document",
		zap.String("url", target),
		zap.Int("bytes", len(body)))

	return body, contentType, nil
}

// readCapped reads at most limit bytes and errors past the cap
func readCapped(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}

// isHTML accepts based on the header when present, the sniffed type
// otherwise
func isHTML(raw []byte, contentType string) bool {
	if contentType != "" {
		return strings.Contains(contentType, "html")
	}
	return mimetype.Detect(raw).Is("text/html")
}

// decode converts raw bytes to UTF-8. The header and meta tags decide
// when they can; otherwise the statistical detector gets a vote before
// settling on the transport default.
func decode(raw []byte, contentType string) (string, error) {
	enc, name, certain := charset.DetermineEncoding(raw, contentType)

	if !certain && name == "windows-1252" {
		if best, err := chardet.NewTextDetector().DetectBest(raw); err == nil {
			if detected, _ := charset.Lookup(best.Charset); detected != nil {
				enc = detected
			}
		}
	}

	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// normalize parses the fetched page, absolutizes asset references, and
// inlines small images when configured to.
func (i *Importer) normalize(ctx context.Context, markup string, base *url.URL) (string, error) {
	doc, err := tagger.Parse(markup)
	if err != nil {
		return "", err
	}

	absolutize(doc, base)

	if i.cfg.InlineAssets {
		i.inlineImages(ctx, doc, base)
	}

	return tagger.Serialize(doc)
}

// refAttrs maps elements to the attribute that carries their reference
var refAttrs = map[string]string{
	"img":    "src",
	"script": "src",
	"link":   "href",
	"a":      "href",
	"source": "src",
	"iframe": "src",
}

// absolutize rewrites relative references so the document renders away
// from its origin
func absolutize(doc *goquery.Document, base *url.URL) {
	for tag, attr := range refAttrs {
		doc.Find(tag + "[" + attr + "]").Each(func(_ int, sel *goquery.Selection) {
			ref, _ := sel.Attr(attr)
			if ref == "" || strings.HasPrefix(ref, "data:") || strings.HasPrefix(ref, "#") {
				return
			}
			parsed, err := url.Parse(ref)
			if err != nil || parsed.IsAbs() {
				return
			}
			sel.SetAttr(attr, base.ResolveReference(parsed).String())
		})
	}
}

// inlineImages replaces small image sources with data URLs. Failures
// leave the absolute reference in place.
func (i *Importer) inlineImages(ctx context.Context, doc *goquery.Document, base *url.URL) {
	inlined := 0
	doc.Find("img[src]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if inlined >= maxInlineAssets {
			return false
		}

		src, _ := sel.Attr("src")
		if src == "" || strings.HasPrefix(src, "data:") {
			return true
		}

		data, err := i.fetchAsset(ctx, src)
		if err != nil {
			i.logger.Debug("asset inline skipped",
				zap.String("src", src),
				zap.Error(err))
			return true
		}

		mime := mimetype.Detect(data)
		if !strings.HasPrefix(mime.String(), "image/") {
			return true
		}

		sel.SetAttr("src", fmt.Sprintf("data:%s;base64,%s",
			mime.String(), base64.StdEncoding.EncodeToString(data)))
		inlined++
		return true
	})

	if inlined > 0 {
		i.logger.Info("inlined images", zap.Int("count", inlined))
	}
}

// fetchAsset retrieves one asset capped at the inline limit
func (i *Importer) fetchAsset(ctx context.Context, target string) ([]byte, error) {
	var body []byte
	err := i.breaker.Do(func() error {
		resp, err := i.client.R().SetContext(ctx).Get(target)
		if err != nil {
			return err
		}
		defer resp.RawBody().Close()

		if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
			return fmt.Errorf("%w: %d from %s", ErrBadStatus, resp.StatusCode(), target)
		}

		body, err = readCapped(resp.RawBody(), maxInlineAssetBytes)
		return err
	})
	return body, err
}

// BreakerState exposes the fetch circuit for monitoring
func (i *Importer) BreakerState() resilience.State {
	return i.breaker.State()
}
