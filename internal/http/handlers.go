package http

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/PageForge/backend/internal/exporter"
	"github.com/GriffinCanCode/PageForge/backend/internal/importer"
	"github.com/GriffinCanCode/PageForge/backend/internal/inspect"
	"github.com/GriffinCanCode/PageForge/backend/internal/logging"
	"github.com/GriffinCanCode/PageForge/backend/internal/monitoring"
	"github.com/GriffinCanCode/PageForge/backend/internal/session"
	"github.com/GriffinCanCode/PageForge/backend/internal/shared/types"
	"github.com/GriffinCanCode/PageForge/backend/internal/shared/utils"
	"github.com/GriffinCanCode/PageForge/backend/internal/templates"
)

// DefaultTemplate seeds sessions created without markup or an explicit
// template choice
const DefaultTemplate = "blank"

const contentTypeHTML = "text/html; charset=utf-8"

// Handlers contains all HTTP handlers
type Handlers struct {
	sessions *session.Manager
	library  *templates.Library
	importer *importer.Importer
	exporter *exporter.Exporter
	metrics  *monitoring.Metrics
	logger   *logging.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(
	sessions *session.Manager,
	library *templates.Library,
	imp *importer.Importer,
	exp *exporter.Exporter,
	metrics *monitoring.Metrics,
	logger *logging.Logger,
) *Handlers {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handlers{
		sessions: sessions,
		library:  library,
		importer: imp,
		exporter: exp,
		metrics:  metrics,
		logger:   logger,
	}
}

// session resolves the :id route parameter, answering 404 on a miss
func (h *Handlers) session(c *gin.Context) (*session.Session, bool) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return nil, false
	}
	return s, true
}

func (h *Handlers) recordCommand(msgType types.MessageType) {
	if h.metrics != nil {
		h.metrics.RecordCommand(string(msgType))
	}
}

func (h *Handlers) observeLoad(start time.Time) {
	if h.metrics != nil {
		h.metrics.ObserveDocumentLoad(time.Since(start))
	}
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "PageForge Editor Service",
		"version": "0.2.0",
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"sessions":  h.sessions.Stats(),
		"templates": h.library.Stats(),
		"importer":  gin.H{"breaker": h.importer.BreakerState().String()},
	})
}

// ListTemplates lists the starter documents
func (h *Handlers) ListTemplates(c *gin.Context) {
	categoryParam := c.Query("category")

	if categoryParam != "" {
		if err := utils.ValidateCategory(categoryParam, false); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	var category *string
	if categoryParam != "" {
		category = &categoryParam
	}

	c.JSON(http.StatusOK, gin.H{
		"templates": h.library.ListMetadata(category),
		"stats":     h.library.Stats(),
	})
}

// GetTemplate returns one template with its markup
func (h *Handlers) GetTemplate(c *gin.Context) {
	tpl, ok := h.library.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
		return
	}
	c.JSON(http.StatusOK, tpl)
}

// SaveTemplate stores a starter document for reuse
func (h *Handlers) SaveTemplate(c *gin.Context) {
	var tpl types.Template
	if err := c.ShouldBindJSON(&tpl); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := utils.ValidateMarkup(tpl.Markup); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateCategory(tpl.Category, false); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.library.Save(&tpl); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":     true,
		"template_id": tpl.ID,
	})
}

// DeleteTemplate removes a template from the library
func (h *Handlers) DeleteTemplate(c *gin.Context) {
	tplID := c.Param("id")
	if !h.library.Exists(tplID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
		return
	}
	h.library.Delete(tplID)

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"template_id": tplID,
	})
}

// CreateSession opens an editor session from a template or raw markup.
// An empty body starts from the default template in the default mode.
func (h *Handlers) CreateSession(c *gin.Context) {
	var req struct {
		TemplateID string       `json:"template_id"`
		HTML       string       `json:"html"`
		Mode       session.Mode `json:"mode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	markup := req.HTML
	if markup == "" {
		tplID := req.TemplateID
		if tplID == "" {
			tplID = DefaultTemplate
		}
		tpl, ok := h.library.Get(tplID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
			return
		}
		markup = tpl.Markup
	} else if err := utils.ValidateMarkup(markup); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	s, err := h.sessions.Create(c.Request.Context(), markup, req.Mode)
	if err != nil {
		c.JSON(createStatus(err), gin.H{"error": err.Error()})
		return
	}
	h.observeLoad(start)
	h.recordCommand(types.CommandLoadDocument)

	c.JSON(http.StatusCreated, s.Info())
}

// ListSessions lists every live session
func (h *Handlers) ListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"sessions": h.sessions.List(),
		"stats":    h.sessions.Stats(),
	})
}

// GetSession returns one session's state snapshot
func (h *Handlers) GetSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Info())
}

// DeleteSession tears a session down
func (h *Handlers) DeleteSession(c *gin.Context) {
	sessionID := c.Param("id")
	if err := h.sessions.Close(sessionID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"session_id": sessionID,
	})
}

// GetDocument returns the document with editor fingerprints stripped,
// stable identifiers intact
func (h *Handlers) GetDocument(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	markup, err := s.Controller().Export()
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, contentTypeHTML, []byte(markup))
}

// PutDocument replaces the document with raw markup from the body
func (h *Handlers) PutDocument(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	markup := string(raw)
	if err := utils.ValidateMarkup(markup); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	if err := s.Replace(c.Request.Context(), markup); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.observeLoad(start)
	h.recordCommand(types.CommandLoadDocument)

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"elements": s.Controller().Elements(),
	})
}

// RenderDocument serves the bootstrapped markup a browser frame loads
// as its srcdoc
func (h *Handlers) RenderDocument(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	markup := s.Controller().Document()
	if markup == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "no document loaded"})
		return
	}
	c.Data(http.StatusOK, contentTypeHTML, []byte(markup))
}

// ImportFile replaces the document with an uploaded HTML file
func (h *Handlers) ImportFile(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	data, err := readUpload(c, "file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	markup, err := h.importer.ImportBytes(data)
	if err != nil {
		c.JSON(importStatus(err), gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	if err := s.Replace(c.Request.Context(), markup); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.observeLoad(start)
	h.recordCommand(types.CommandLoadDocument)

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"elements": s.Controller().Elements(),
	})
}

// ImportURL fetches a page and replaces the document with it
func (h *Handlers) ImportURL(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req struct {
		URL string `json:"url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	markup, err := h.importer.Import(c.Request.Context(), req.URL)
	if err != nil {
		c.JSON(importStatus(err), gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	if err := s.Replace(c.Request.Context(), markup); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.observeLoad(start)
	h.recordCommand(types.CommandLoadDocument)

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"source":   req.URL,
		"elements": s.Controller().Elements(),
	})
}

// UploadImage turns an uploaded image into a data URL for src patches
func (h *Handlers) UploadImage(c *gin.Context) {
	if _, ok := h.session(c); !ok {
		return
	}

	data, err := readUpload(c, "file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dataURL, err := h.importer.ImageDataURL(data)
	if err != nil {
		c.JSON(importStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data_url": dataURL,
		"bytes":    len(data),
	})
}

// ExportDocument downloads the clean document, optionally sanitized,
// gzipped when the client accepts it
func (h *Handlers) ExportDocument(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	markup, err := s.Controller().Export()
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	opts := exporter.Options{
		Sanitize: truthy(c.Query("sanitize")),
		Gzip:     strings.Contains(c.GetHeader("Accept-Encoding"), "gzip"),
	}
	result, err := h.exporter.Export(markup, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	if result.Encoding != "" {
		c.Header("Content-Encoding", result.Encoding)
		c.Header("Vary", "Accept-Encoding")
	}
	c.Data(http.StatusOK, result.ContentType, result.Body)
}

// SelectElement clicks an element on the operator's behalf. Selection
// state lands asynchronously via the selection event.
func (h *Handlers) SelectElement(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req struct {
		ElementID string `json:"element_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateID(req.ElementID, "element_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.Controller().Click(req.ElementID); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	h.recordCommand(types.CommandClick)

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"element_id": req.ElementID,
	})
}

// ApplyProps patches an element, or the current selection when no
// element is named
func (h *Handlers) ApplyProps(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req struct {
		ElementID string              `json:"element_id"`
		Patch     types.PropertyPatch `json:"patch" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ElementID != "" {
		if err := utils.ValidateID(req.ElementID, "element_id", false); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if err := utils.ValidatePatch(req.Patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.Controller().ApplyProps(c.Request.Context(), req.ElementID, req.Patch); err != nil {
		c.JSON(applyStatus(err), gin.H{"error": err.Error()})
		return
	}
	h.recordCommand(types.CommandApplyProps)

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"selection": s.Controller().Selection(),
	})
}

// ClearSelection drops the active selection
func (h *Handlers) ClearSelection(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	if err := s.Controller().ClearSelection(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	h.recordCommand(types.CommandClearSelection)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RunScript executes behavior script against the document. Engine
// sessions return the result synchronously; frame sessions get the
// command over their stream and answer with events.
func (h *Handlers) RunScript(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req struct {
		Source string `json:"source" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateScript(req.Source); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.Controller().Script(c.Request.Context(), req.Source)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	h.recordCommand(types.CommandRunScript)

	if result == nil {
		c.JSON(http.StatusAccepted, gin.H{"success": true, "async": true})
		return
	}

	resp := gin.H{
		"success":     result.Error == nil,
		"value":       result.Value,
		"mutated":     result.Mutated,
		"duration_ms": result.Duration.Milliseconds(),
		"console":     consoleLines(result.Console),
	}
	if result.Error != nil {
		resp["error"] = result.Error.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// InspectElements resolves a CSS selector or XPath expression against
// the current document
func (h *Handlers) InspectElements(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	selector := c.Query("selector")
	xpath := c.Query("xpath")
	if (selector == "") == (xpath == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "exactly one of selector or xpath is required"})
		return
	}

	markup, err := s.Controller().Export()
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	var matches []inspect.Match
	if selector != "" {
		if err := utils.ValidateSelector(selector, "selector"); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		matches, err = inspect.CSS(markup, selector)
	} else {
		if err := utils.ValidateSelector(xpath, "xpath"); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		matches, err = inspect.XPath(markup, xpath)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"matches": matches,
		"count":   len(matches),
	})
}
