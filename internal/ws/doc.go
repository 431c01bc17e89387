// Package ws provides WebSocket streams for editing sessions.
//
// One endpoint serves two roles. The operator feed relays the protocol
// events a session's controller accepts, so an editor UI can react to
// selections and content changes as they happen. The frame role turns
// the connection into the session's render context: a browser iframe,
// primed by the injected runtime script, attaches here and the host's
// commands flow out while the frame's events flow back.
//
// Frames are sonic-encoded protocol messages in both directions.
//
// Roles:
//   - ?role=operator (default): read-only event feed
//   - ?role=frame: remote render context for frame-mode sessions
//
// A frame that reconnects, for example after the iframe reloads,
// supersedes the previous connection. Commands issued while no frame is
// attached are dropped; the protocol's acknowledgment timeouts cover
// the gap.
//
// Example Usage:
//
//	handler := ws.NewHandler(sessions, metrics, logger)
//	router.GET("/sessions/:id/stream", handler.HandleStream)
package ws
