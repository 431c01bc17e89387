// Package http provides the HTTP handlers for the PageForge REST API.
//
// Every endpoint is a method on Handlers, wired into a Gin router by
// the server package. Sessions are the unit of work: each one binds a
// document host to a render context, and the document routes under
// /sessions/:id operate through that host.
//
// Endpoints:
//   - Health: / and /health
//   - Templates: /templates, /templates/:id
//   - Sessions: /sessions, /sessions/:id
//   - Document: /sessions/:id/document, /sessions/:id/render,
//     /sessions/:id/export
//   - Import: /sessions/:id/import, /sessions/:id/import-url,
//     /sessions/:id/images
//   - Editing: /sessions/:id/select, /sessions/:id/props,
//     /sessions/:id/selection/clear, /sessions/:id/script
//   - Inspection: /sessions/:id/elements
//
// Example Usage:
//
//	handlers := http.NewHandlers(sessions, library, imp, exp, metrics, logger)
//	router.GET("/health", handlers.Health)
//	router.POST("/sessions", handlers.CreateSession)
package http
