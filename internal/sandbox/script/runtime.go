// Package script executes user scripts against a live document.
//
// Runtimes are sandboxed goja VMs with the module system and process
// globals stripped, console capture, and interrupt-based timeouts.
// The document API operates on the real tree through a binding that
// tracks whether anything mutated.
package script

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dop251/goja"
)

// Runtime wraps a goja VM with security controls
type Runtime struct {
	vm     *goja.Runtime
	config Config
	mu     sync.RWMutex

	// Console output
	console   []LogEntry
	consoleMu sync.Mutex

	// Interrupt channel
	interrupt chan struct{}
}

// New creates a new sandboxed runtime
func New(config Config) (*Runtime, error) {
	vm := goja.New()
	vm.SetMaxCallStackSize(1024)

	r := &Runtime{
		vm:        vm,
		config:    config,
		console:   []LogEntry{},
		interrupt: make(chan struct{}),
	}

	if err := r.setupGlobals(); err != nil {
		return nil, err
	}

	return r, nil
}

// Execute runs script code with timeout and resource limits
func (r *Runtime) Execute(ctx context.Context, code string, binding *DocumentBinding) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	result := &Result{
		Console: []LogEntry{},
	}

	// Setup timeout
	timer := time.NewTimer(r.config.Timeout)
	defer timer.Stop()

	// Setup interrupt handler
	go func() {
		select {
		case <-timer.C:
			r.vm.Interrupt("execution timeout exceeded")
		case <-ctx.Done():
			r.vm.Interrupt("context cancelled")
		case <-r.interrupt:
			return
		}
	}()

	// Clear console
	r.consoleMu.Lock()
	r.console = []LogEntry{}
	r.consoleMu.Unlock()

	// Inject document if provided
	if binding != nil && r.config.EnableDocument {
		if err := r.injectDocument(binding); err != nil {
			return nil, fmt.Errorf("failed to inject document: %w", err)
		}
	}

	// Execute script
	val, err := r.vm.RunString(code)

	// Stop interrupt goroutine
	close(r.interrupt)
	r.interrupt = make(chan struct{})

	result.Duration = time.Since(start)

	if binding != nil {
		result.Mutated = binding.Dirty()
	}

	if err != nil {
		result.Error = err
		return result, err
	}

	// Extract result value
	result.Value = r.exportValue(val)

	// Collect console output
	r.consoleMu.Lock()
	result.Console = append([]LogEntry{}, r.console...)
	r.consoleMu.Unlock()

	return result, nil
}

// setupGlobals configures global objects and security
func (r *Runtime) setupGlobals() error {
	// Remove dangerous globals
	r.vm.Set("require", goja.Undefined())
	r.vm.Set("process", goja.Undefined())
	r.vm.Set("module", goja.Undefined())
	r.vm.Set("exports", goja.Undefined())

	// Setup console if enabled
	if r.config.EnableConsole {
		console := r.vm.NewObject()
		console.Set("log", r.makeConsoleFunc("log"))
		console.Set("warn", r.makeConsoleFunc("warn"))
		console.Set("error", r.makeConsoleFunc("error"))
		console.Set("info", r.makeConsoleFunc("info"))
		r.vm.Set("console", console)
	}

	// Setup timers (no-op for security)
	r.vm.Set("setTimeout", func(call goja.FunctionCall) goja.Value {
		return goja.Undefined()
	})
	r.vm.Set("setInterval", func(call goja.FunctionCall) goja.Value {
		return goja.Undefined()
	})

	return nil
}

// makeConsoleFunc creates a console function
func (r *Runtime) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		var msg string
		for i, arg := range call.Arguments {
			if i > 0 {
				msg += " "
			}
			msg += arg.String()
		}

		r.consoleMu.Lock()
		r.console = append(r.console, LogEntry{
			Level:   level,
			Message: msg,
			Time:    time.Now(),
		})
		r.consoleMu.Unlock()

		return goja.Undefined()
	}
}

// injectDocument exposes the document API over the live tree
func (r *Runtime) injectDocument(binding *DocumentBinding) error {
	document := r.vm.NewObject()

	document.Set("querySelector", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return goja.Null()
		}
		sel := binding.query(call.Arguments[0].String())
		if sel.Length() == 0 {
			return goja.Null()
		}
		return r.vm.ToValue(binding.proxy(sel.First()))
	})

	document.Set("querySelectorAll", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return r.vm.ToValue([]interface{}{})
		}
		sel := binding.query(call.Arguments[0].String())
		proxies := make([]interface{}, 0, sel.Length())
		sel.Each(func(_ int, s *goquery.Selection) {
			proxies = append(proxies, binding.proxy(s))
		})
		return r.vm.ToValue(proxies)
	})

	document.Set("getElementById", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return goja.Null()
		}
		sel := binding.byID(call.Arguments[0].String())
		if sel.Length() == 0 {
			return goja.Null()
		}
		return r.vm.ToValue(binding.proxy(sel.First()))
	})

	r.vm.Set("document", document)
	return nil
}

// exportValue converts goja value to Go value
func (r *Runtime) exportValue(val goja.Value) interface{} {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil
	}
	return val.Export()
}

// Reset clears the runtime state
func (r *Runtime) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.vm = goja.New()
	r.vm.SetMaxCallStackSize(1024)
	r.console = []LogEntry{}
	return r.setupGlobals()
}

// Close releases resources
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.vm = nil
	r.console = nil
	return nil
}
