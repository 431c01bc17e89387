package host

import "errors"

var (
	// ErrNoDocument marks operations that need a loaded document
	ErrNoDocument = errors.New("no document loaded")

	// ErrNoSelection marks property application with nothing selected
	ErrNoSelection = errors.New("no element selected")

	// ErrApplyTimeout marks an apply-props that was never acknowledged.
	// The usual cause is a patch aimed at an element the document no
	// longer contains; the context ignores those silently.
	ErrApplyTimeout = errors.New("property application not acknowledged")

	// ErrReadyTimeout marks a document load the context never confirmed
	ErrReadyTimeout = errors.New("render context not ready")

	// ErrClosed marks operations against a closed controller
	ErrClosed = errors.New("controller closed")
)
