// Package host owns the editing state of one document.
//
// The controller holds the authoritative markup string and the current
// selection, and talks to a render context over the message protocol.
// Events from the context (selection, content-changed, props-applied)
// update host state; commands (apply-props, clear-selection, input,
// load-document) drive the context. Property application is
// acknowledged: the controller correlates each apply-props with its
// props-applied event by sequence number and falls back to a timeout
// when the acknowledgment never arrives.
//
// Key Components:
//   - Controller: document plus selection owner, one per editing session
//   - RenderContext: the injected command/event surface of a context
//   - Event dispatch with channel token filtering
//
// Example Usage:
//
//	ctrl := host.NewController(cfg, engine, booter, logger)
//	if err := ctrl.SetDocument(ctx, markup); err != nil {
//	    log.Fatal(err)
//	}
//	err = ctrl.ApplyProps(ctx, "", types.PropertyPatch{"background": "red"})
package host
