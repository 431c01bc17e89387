package http

import "github.com/gin-gonic/gin"

// Register wires every handler into the router. The websocket stream
// and the metrics endpoint are wired by the server, which owns those
// dependencies.
func Register(router gin.IRouter, h *Handlers) {
	router.GET("/", h.Root)
	router.GET("/health", h.Health)

	router.GET("/templates", h.ListTemplates)
	router.POST("/templates", h.SaveTemplate)
	router.GET("/templates/:id", h.GetTemplate)
	router.DELETE("/templates/:id", h.DeleteTemplate)

	router.POST("/sessions", h.CreateSession)
	router.GET("/sessions", h.ListSessions)
	router.GET("/sessions/:id", h.GetSession)
	router.DELETE("/sessions/:id", h.DeleteSession)

	router.GET("/sessions/:id/document", h.GetDocument)
	router.PUT("/sessions/:id/document", h.PutDocument)
	router.GET("/sessions/:id/render", h.RenderDocument)
	router.GET("/sessions/:id/export", h.ExportDocument)

	router.POST("/sessions/:id/import", h.ImportFile)
	router.POST("/sessions/:id/import-url", h.ImportURL)
	router.POST("/sessions/:id/images", h.UploadImage)

	router.POST("/sessions/:id/select", h.SelectElement)
	router.POST("/sessions/:id/props", h.ApplyProps)
	router.POST("/sessions/:id/selection/clear", h.ClearSelection)
	router.POST("/sessions/:id/script", h.RunScript)

	router.GET("/sessions/:id/elements", h.InspectElements)
}
