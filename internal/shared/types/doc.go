// Package types provides shared data structures for the editor backend.
//
// This package defines core types used across all backend components,
// ensuring type safety and consistent data structures.
//
// Core Types:
//   - Message: Envelope for host/render-context communication
//   - PropertyPatch: Property name to replacement value mapping
//   - Selection: Currently selected element state
//   - Template: Installable starter document
//
// Message Protocol:
//   - Events flow from a render context to the host (selection,
//     content-changed, iframe-ready, props-applied)
//   - Commands flow from the host to a render context (apply-props,
//     clear-selection, click, input, run-script, load-document)
//
// Example Usage:
//
//	msg := types.NewApplyProps(token, "pf-7", types.PropertyPatch{
//	    "background": "red",
//	}, seq)
//	data, _ := types.Encode(msg)
package types
