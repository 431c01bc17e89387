package script

import (
	"time"
)

// Config defines script runtime configuration
type Config struct {
	Timeout        time.Duration // Execution timeout
	EnableConsole  bool          // Allow console.log/warn/error
	EnableDocument bool          // Expose the document API
}

// Result holds execution result
type Result struct {
	Value    interface{}   // Return value
	Console  []LogEntry    // Console output
	Duration time.Duration // Execution time
	Error    error         // Execution error
	Mutated  bool          // Whether the script changed the document
}

// LogEntry represents console output
type LogEntry struct {
	Level   string    // log, warn, error
	Message string    // Log message
	Time    time.Time // Timestamp
}

// Default configuration
func DefaultConfig() Config {
	return Config{
		Timeout:        5 * time.Second,
		EnableConsole:  true,
		EnableDocument: true,
	}
}
