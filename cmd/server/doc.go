// Package main is the entry point for the PageForge editor backend.
//
// This application serves the visual HTML editor: documents are tagged
// with stable element identifiers, loaded into a render context, and
// edited through REST commands and a websocket event stream.
//
// Architecture:
//
//	Editor UI (browser) → Go Backend → Render context (in-process engine
//	                                   or browser iframe over websocket)
//
// The server provides:
//   - REST API for sessions, documents, templates, and imports
//   - WebSocket streaming for frames and operator event feeds
//   - Scripted document manipulation in a sandboxed runtime
//   - Sanitized export with optional gzip compression
//   - Rate limiting and metrics
//
// Configuration:
//   - Environment variables (12-factor)
//   - Optional TOML file via CONFIG_FILE or -config
//   - CLI flags (override env vars)
//
// Usage:
//
//	# Default configuration
//	./server
//
//	# Explicit port and config file
//	./server -port 8000 -config ./pageforge.toml
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
