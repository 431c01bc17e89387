package sandbox

import (
	"errors"
	"time"
)

// State tracks the render context lifecycle
type State int32

const (
	// StateIdle means no document is loaded yet
	StateIdle State = iota
	// StateReady means a document is loaded and the command surface is live
	StateReady
	// StateClosed means the context has shut down
	StateClosed
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

var (
	// ErrClosed marks operations against a closed context
	ErrClosed = errors.New("render context is closed")
	// ErrNotReady marks operations that need a loaded document
	ErrNotReady = errors.New("render context has no document loaded")
	// ErrScriptTimeout marks script execution that exceeded its budget
	ErrScriptTimeout = errors.New("script execution timeout")
)

// Config defines render context behavior
type Config struct {
	// QueueSize buffers the command and event channels
	QueueSize int
	// ExecTimeout bounds one script execution
	ExecTimeout time.Duration
	// ScriptPoolSize sizes the script runtime pool
	ScriptPoolSize int
}

// DefaultConfig returns a production-ready configuration
func DefaultConfig() Config {
	return Config{
		QueueSize:      64,
		ExecTimeout:    5 * time.Second,
		ScriptPoolSize: 4,
	}
}
