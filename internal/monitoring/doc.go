/*
Package monitoring provides Prometheus metrics for the editor backend.

# Overview

Tracks the HTTP surface (request counts, latency, response size), editor
sessions, protocol traffic (commands toward render contexts, events back),
document loads, and websocket connections. Every collector registers on a
private registry so multiple instances never collide.

# Usage

	metrics := monitoring.NewMetrics()

	// Add middleware to the Gin router
	router.Use(monitoring.Middleware(metrics))

	// Expose the scrape endpoint
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Record domain activity
	metrics.SessionOpened()
	metrics.RecordCommand("apply-props")
	metrics.ObserveDocumentLoad(elapsed)
*/
package monitoring
