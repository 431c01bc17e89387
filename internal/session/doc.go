// Package session manages concurrent editing sessions.
//
// Each session binds one document host to one render context: either
// the in-process sandbox engine or a browser frame reached over the
// websocket stream. The manager enforces a session cap, reaps sessions
// that sit idle past their TTL, and reports aggregate editor stats.
//
// Key Components:
//   - Manager: session registry with capacity and idle reaping
//   - Session: one host controller plus its render context
//   - Factory: builds the render context for a requested mode
//
// Example Usage:
//
//	mgr := session.NewManager(cfg.Sessions, cfg.Sandbox, boot, factory, nil, logger)
//	s, err := mgr.Create(ctx, markup, session.ModeEngine)
//	if err != nil {
//	    return err
//	}
//	defer mgr.Close(s.ID)
//	s.Controller().Click("el_1")
package session
