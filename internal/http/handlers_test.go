package http

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/PageForge/backend/internal/bootstrap"
	"github.com/GriffinCanCode/PageForge/backend/internal/config"
	"github.com/GriffinCanCode/PageForge/backend/internal/exporter"
	"github.com/GriffinCanCode/PageForge/backend/internal/host"
	"github.com/GriffinCanCode/PageForge/backend/internal/importer"
	"github.com/GriffinCanCode/PageForge/backend/internal/sandbox"
	"github.com/GriffinCanCode/PageForge/backend/internal/session"
	"github.com/GriffinCanCode/PageForge/backend/internal/tagger"
	"github.com/GriffinCanCode/PageForge/backend/internal/templates"
)

const apiPage = `<!DOCTYPE html>
<html>
<head><title>Doc</title></head>
<body>
<h1>Title</h1>
<p>Body copy</p>
</body>
</html>`

type apiFixture struct {
	router  *gin.Engine
	manager *session.Manager
}

func newTestAPI(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	library := templates.NewLibrary()
	scanner := templates.NewScanner(library, config.TemplatesConfig{
		Dir:     t.TempDir(),
		Pattern: "**/*.html",
	}, nil)
	require.NoError(t, scanner.SeedDefaults())

	imp := importer.New(config.ImporterConfig{
		FetchTimeout: time.Second,
		MaxBodyBytes: 1 << 20,
	}, nil)
	exp := exporter.New(config.ExportConfig{Filename: "export.html"})

	factory := func(session.Mode) (host.RenderContext, error) {
		return sandbox.NewEngine(sandbox.DefaultConfig(), nil)
	}
	manager := session.NewManager(
		config.SessionConfig{MaxSessions: 8},
		config.SandboxConfig{
			PoolSize:     2,
			ExecTimeout:  2 * time.Second,
			ReadyTimeout: 2 * time.Second,
			AckTimeout:   2 * time.Second,
			QueueSize:    16,
		},
		bootstrap.New(tagger.New(), ""),
		factory,
		nil,
		nil,
	)
	t.Cleanup(manager.CloseAll)

	handlers := NewHandlers(manager, library, imp, exp, nil, nil)
	router := gin.New()
	Register(router, handlers)

	return &apiFixture{router: router, manager: manager}
}

func (f *apiFixture) do(t *testing.T, method, path string, body io.Reader, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) doJSON(t *testing.T, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	return f.do(t, method, path, body, map[string]string{"Content-Type": "application/json"})
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (f *apiFixture) createSession(t *testing.T, payload interface{}) string {
	t.Helper()
	w := f.doJSON(t, http.MethodPost, "/sessions", payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	info := decodeJSON(t, w)
	id, _ := info["id"].(string)
	require.NotEmpty(t, id)
	return id
}

// elementID resolves a selector through the inspection endpoint, the
// way an operator UI finds its targets
func (f *apiFixture) elementID(t *testing.T, sessionID, selector string) string {
	t.Helper()
	w := f.do(t, http.MethodGet, "/sessions/"+sessionID+"/elements?selector="+url.QueryEscape(selector), nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	out := decodeJSON(t, w)
	matches, ok := out["matches"].([]interface{})
	require.True(t, ok)
	require.NotEmpty(t, matches)

	first, ok := matches[0].(map[string]interface{})
	require.True(t, ok)
	id, _ := first["element_id"].(string)
	require.NotEmpty(t, id)
	return id
}

// waitForSelection polls session state until the async selection event
// lands
func (f *apiFixture) waitForSelection(t *testing.T, sessionID string) map[string]interface{} {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		w := f.do(t, http.MethodGet, "/sessions/"+sessionID, nil, nil)
		info := decodeJSON(t, w)
		if sel, ok := info["selection"].(map[string]interface{}); ok {
			return sel
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("selection never registered")
	return nil
}

func multipartBody(t *testing.T, field, filename string, content []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestRoot(t *testing.T) {
	f := newTestAPI(t)

	w := f.do(t, http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "online", decodeJSON(t, w)["status"])
}

func TestHealth(t *testing.T) {
	f := newTestAPI(t)

	w := f.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	out := decodeJSON(t, w)
	assert.Equal(t, "healthy", out["status"])
	assert.Contains(t, out, "sessions")
	assert.Contains(t, out, "templates")
	assert.Contains(t, out, "importer")
}

func TestListTemplates(t *testing.T) {
	f := newTestAPI(t)

	w := f.do(t, http.MethodGet, "/templates", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := decodeJSON(t, w)
	all, _ := out["templates"].([]interface{})
	assert.GreaterOrEqual(t, len(all), 3)

	w = f.do(t, http.MethodGet, "/templates?category=marketing", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	out = decodeJSON(t, w)
	filtered, _ := out["templates"].([]interface{})
	require.Len(t, filtered, 1)
	meta, _ := filtered[0].(map[string]interface{})
	assert.Equal(t, "landing", meta["id"])
}

func TestGetTemplate(t *testing.T) {
	f := newTestAPI(t)

	w := f.do(t, http.MethodGet, "/templates/blank", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decodeJSON(t, w)["markup"], "<!DOCTYPE html>")

	w = f.do(t, http.MethodGet, "/templates/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSaveTemplateLifecycle(t *testing.T) {
	f := newTestAPI(t)

	w := f.doJSON(t, http.MethodPost, "/templates", map[string]interface{}{
		"name":     "Pricing Page",
		"category": "marketing",
		"markup":   apiPage,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	tplID, _ := decodeJSON(t, w)["template_id"].(string)
	require.NotEmpty(t, tplID)

	w = f.do(t, http.MethodGet, "/templates/"+tplID, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodDelete, "/templates/"+tplID, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodDelete, "/templates/"+tplID, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSaveTemplateRequiresName(t *testing.T) {
	f := newTestAPI(t)

	w := f.doJSON(t, http.MethodPost, "/templates", map[string]interface{}{
		"markup": apiPage,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateSessionDefaults(t *testing.T) {
	f := newTestAPI(t)

	w := f.doJSON(t, http.MethodPost, "/sessions", map[string]interface{}{})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	info := decodeJSON(t, w)
	assert.Equal(t, "engine", info["mode"])
	assert.Greater(t, info["elements"].(float64), float64(0))
}

func TestCreateSessionFromHTML(t *testing.T) {
	f := newTestAPI(t)

	id := f.createSession(t, map[string]interface{}{"html": apiPage})

	w := f.do(t, http.MethodGet, "/sessions/"+id+"/document", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<h1")
	assert.Contains(t, body, tagger.IDAttr)
}

func TestCreateSessionUnknownTemplate(t *testing.T) {
	f := newTestAPI(t)

	w := f.doJSON(t, http.MethodPost, "/sessions", map[string]interface{}{
		"template_id": "missing",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateSessionBadMode(t *testing.T) {
	f := newTestAPI(t)

	w := f.doJSON(t, http.MethodPost, "/sessions", map[string]interface{}{
		"mode": "banana",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionLifecycle(t *testing.T) {
	f := newTestAPI(t)
	id := f.createSession(t, map[string]interface{}{"html": apiPage})

	w := f.do(t, http.MethodGet, "/sessions", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	sessions, _ := decodeJSON(t, w)["sessions"].([]interface{})
	assert.Len(t, sessions, 1)

	w = f.do(t, http.MethodGet, "/sessions/"+id, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodDelete, "/sessions/"+id, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/sessions/"+id, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionNotFound(t *testing.T) {
	f := newTestAPI(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/sessions/missing"},
		{http.MethodGet, "/sessions/missing/document"},
		{http.MethodGet, "/sessions/missing/render"},
		{http.MethodGet, "/sessions/missing/export"},
		{http.MethodPost, "/sessions/missing/selection/clear"},
	}
	for _, p := range paths {
		w := f.do(t, p.method, p.path, nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, p.path)
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	f := newTestAPI(t)
	id := f.createSession(t, map[string]interface{}{"html": apiPage})

	w := f.do(t, http.MethodGet, "/sessions/"+id+"/document", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "<script", "clean document should carry no runtime")

	replacement := `<!DOCTYPE html><html><head><title>Next</title></head><body><h2>Replaced</h2></body></html>`
	w = f.do(t, http.MethodPut, "/sessions/"+id+"/document", strings.NewReader(replacement), map[string]string{"Content-Type": "text/html"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decodeJSON(t, w)["success"])

	w = f.do(t, http.MethodGet, "/sessions/"+id+"/document", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Replaced")
	assert.NotContains(t, w.Body.String(), "Body copy")
}

func TestPutDocumentRejectsEmpty(t *testing.T) {
	f := newTestAPI(t)
	id := f.createSession(t, map[string]interface{}{"html": apiPage})

	w := f.do(t, http.MethodPut, "/sessions/"+id+"/document", strings.NewReader(""), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRenderDocument(t *testing.T) {
	f := newTestAPI(t)
	id := f.createSession(t, map[string]interface{}{"html": apiPage})

	w := f.do(t, http.MethodGet, "/sessions/"+id+"/render", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, body, "<script", "render output should carry the frame runtime")
	assert.Contains(t, body, tagger.IDAttr)
}

func TestSelectThenApplyProps(t *testing.T) {
	f := newTestAPI(t)
	id := f.createSession(t, map[string]interface{}{"html": apiPage})
	headingID := f.elementID(t, id, "h1")

	w := f.doJSON(t, http.MethodPost, "/sessions/"+id+"/select", map[string]interface{}{
		"element_id": headingID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	sel := f.waitForSelection(t, id)
	assert.Equal(t, headingID, sel["element_id"])
	assert.Equal(t, "h1", sel["tag"])

	w = f.doJSON(t, http.MethodPost, "/sessions/"+id+"/props", map[string]interface{}{
		"patch": map[string]string{"background": "red"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodGet, "/sessions/"+id+"/document", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "background")
}

func TestApplyPropsTargeted(t *testing.T) {
	f := newTestAPI(t)
	id := f.createSession(t, map[string]interface{}{"html": apiPage})
	paraID := f.elementID(t, id, "p")

	w := f.doJSON(t, http.MethodPost, "/sessions/"+id+"/props", map[string]interface{}{
		"element_id": paraID,
		"patch":      map[string]string{"innerHTML": "Rewritten copy"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodGet, "/sessions/"+id+"/document", nil, nil)
	assert.Contains(t, w.Body.String(), "Rewritten copy")
}

func TestApplyPropsNoSelection(t *testing.T) {
	f := newTestAPI(t)
	id := f.createSession(t, map[string]interface{}{"html": apiPage})

	w := f.doJSON(t, http.MethodPost, "/sessions/"+id+"/props", map[string]interface{}{
		"patch": map[string]string{"color": "blue"},
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestApplyPropsRejectsBadPatch(t *testing.T) {
	f := newTestAPI(t)
	id := f.createSession(t, map[string]interface{}{"html": apiPage})

	w := f.doJSON(t, http.MethodPost, "/sessions/"+id+"/props", map[string]interface{}{
		"patch": map[string]string{},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClearSelection(t *testing.T) {
	f := newTestAPI(t)
	id := f.createSession(t, map[string]interface{}{"html": apiPage})
	headingID := f.elementID(t, id, "h1")

	w := f.doJSON(t, http.MethodPost, "/sessions/"+id+"/select", map[string]interface{}{
		"element_id": headingID,
	})
	require.Equal(t, http.StatusOK, w.Code)
	f.waitForSelection(t, id)

	w = f.do(t, http.MethodPost, "/sessions/"+id+"/selection/clear", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/sessions/"+id, nil, nil)
	info := decodeJSON(t, w)
	assert.Nil(t, info["selection"])
}

func TestImportFile(t *testing.T) {
	f := newTestAPI(t)
	id := f.createSession(t, map[string]interface{}{"html": apiPage})

	upload := `<html><body><article>Imported story</article></body></html>`
	body, contentType := multipartBody(t, "file", "page.html", []byte(upload))
	w := f.do(t, http.MethodPost, "/sessions/"+id+"/import", body, map[string]string{"Content-Type": contentType})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodGet, "/sessions/"+id+"/document", nil, nil)
	assert.Contains(t, w.Body.String(), "Imported story")
}

func TestImportFileRejectsBinary(t *testing.T) {
	f := newTestAPI(t)
	id := f.createSession(t, map[string]interface{}{"html": apiPage})

	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
	body, contentType := multipartBody(t, "file", "image.png", png)
	w := f.do(t, http.MethodPost, "/sessions/"+id+"/import", body, map[string]string{"Content-Type": contentType})
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestImportFileRequiresFile(t *testing.T) {
	f := newTestAPI(t)
	id := f.createSession(t, map[string]interface{}{"html": apiPage})

	w := f.do(t, http.MethodPost, "/sessions/"+id+"/import", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportURLRequiresURL(t *testing.T) {
	f := newTestAPI(t)
	id := f.createSession(t, map[string]interface{}{"html": apiPage})

	w := f.doJSON(t, http.MethodPost, "/sessions/"+id+"/import-url", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadImage(t *testing.T) {
	f := newTestAPI(t)
	id := f.createSession(t, map[string]interface{}{"html": apiPage})

	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
	body, contentType := multipartBody(t, "file", "logo.png", png)
	w := f.do(t, http.MethodPost, "/sessions/"+id+"/images", body, map[string]string{"Content-Type": contentType})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	out := decodeJSON(t, w)
	dataURL, _ := out["data_url"].(string)
	assert.True(t, strings.HasPrefix(dataURL, "data:image/png;base64,"))
}

func TestUploadImageRejectsText(t *testing.T) {
	f := newTestAPI(t)
	id := f.createSession(t, map[string]interface{}{"html": apiPage})

	body, contentType := multipartBody(t, "file", "notes.txt", []byte("plain text"))
	w := f.do(t, http.MethodPost, "/sessions/"+id+"/images", body, map[string]string{"Content-Type": contentType})
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestExportDocument(t *testing.T) {
	f := newTestAPI(t)
	id := f.createSession(t, map[string]interface{}{"html": apiPage})

	w := f.do(t, http.MethodGet, "/sessions/"+id+"/export", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "export.html")
	assert.NotContains(t, w.Body.String(), "<script")
	assert.Contains(t, w.Body.String(), "<h1")
}

func TestExportDocumentGzip(t *testing.T) {
	f := newTestAPI(t)
	id := f.createSession(t, map[string]interface{}{"html": apiPage})

	w := f.do(t, http.MethodGet, "/sessions/"+id+"/export", nil, map[string]string{"Accept-Encoding": "gzip"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	gz, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	defer gz.Close()
	decompressed, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Contains(t, string(decompressed), "<h1")
}

func TestExportDocumentSanitized(t *testing.T) {
	f := newTestAPI(t)
	page := `<!DOCTYPE html><html><body><h1 onclick="steal()">Safe</h1></body></html>`
	id := f.createSession(t, map[string]interface{}{"html": page})

	w := f.do(t, http.MethodGet, "/sessions/"+id+"/export?sanitize=1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Safe")
	assert.NotContains(t, w.Body.String(), "onclick")
}

func TestRunScript(t *testing.T) {
	f := newTestAPI(t)
	id := f.createSession(t, map[string]interface{}{"html": apiPage})

	w := f.doJSON(t, http.MethodPost, "/sessions/"+id+"/script", map[string]interface{}{
		"source": `document.querySelector('h1').text()`,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	out := decodeJSON(t, w)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "Title", out["value"])
	assert.Equal(t, false, out["mutated"])
}

func TestRunScriptMutation(t *testing.T) {
	f := newTestAPI(t)
	id := f.createSession(t, map[string]interface{}{"html": apiPage})

	w := f.doJSON(t, http.MethodPost, "/sessions/"+id+"/script", map[string]interface{}{
		"source": `document.querySelector('h1').setText('Scripted')`,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decodeJSON(t, w)["mutated"])

	w = f.do(t, http.MethodGet, "/sessions/"+id+"/document", nil, nil)
	assert.Contains(t, w.Body.String(), "Scripted")
}

func TestRunScriptRequiresSource(t *testing.T) {
	f := newTestAPI(t)
	id := f.createSession(t, map[string]interface{}{"html": apiPage})

	w := f.doJSON(t, http.MethodPost, "/sessions/"+id+"/script", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInspectElements(t *testing.T) {
	f := newTestAPI(t)
	id := f.createSession(t, map[string]interface{}{"html": apiPage})

	w := f.do(t, http.MethodGet, "/sessions/"+id+"/elements?selector=h1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := decodeJSON(t, w)
	assert.Equal(t, float64(1), out["count"])

	w = f.do(t, http.MethodGet, "/sessions/"+id+"/elements?xpath="+url.QueryEscape("//p"), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	out = decodeJSON(t, w)
	assert.Equal(t, float64(1), out["count"])
}

func TestInspectElementsParamRules(t *testing.T) {
	f := newTestAPI(t)
	id := f.createSession(t, map[string]interface{}{"html": apiPage})

	w := f.do(t, http.MethodGet, "/sessions/"+id+"/elements", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/sessions/"+id+"/elements?selector=h1&xpath="+url.QueryEscape("//p"), nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
