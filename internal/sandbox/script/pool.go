package script

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrPoolClosed = errors.New("script pool is closed")
	ErrTimeout    = errors.New("script runtime acquisition timeout")
)

// Pool manages reusable script runtimes
type Pool struct {
	config   Config
	runtimes chan *Runtime
	size     int
	mu       sync.RWMutex
	closed   bool
}

// NewPool creates a runtime pool
func NewPool(config Config, size int) (*Pool, error) {
	if size <= 0 {
		size = 4
	}

	pool := &Pool{
		config:   config,
		runtimes: make(chan *Runtime, size),
		size:     size,
	}

	// Pre-create runtimes
	for i := 0; i < size; i++ {
		runtime, err := New(config)
		if err != nil {
			pool.Close()
			return nil, err
		}
		pool.runtimes <- runtime
	}

	return pool, nil
}

// Acquire gets a runtime from the pool with timeout
func (p *Pool) Acquire(ctx context.Context) (*Runtime, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrPoolClosed
	}

	select {
	case runtime := <-p.runtimes:
		return runtime, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(5 * time.Second):
		return nil, ErrTimeout
	}
}

// Release returns a runtime to the pool
func (p *Pool) Release(runtime *Runtime) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return runtime.Close()
	}

	// Reset runtime state
	if err := runtime.Reset(); err != nil {
		runtime.Close()
		// Create new runtime
		if newRuntime, err := New(p.config); err == nil {
			p.runtimes <- newRuntime
		}
		return err
	}

	select {
	case p.runtimes <- runtime:
		return nil
	default:
		// Pool full, close runtime
		return runtime.Close()
	}
}

// Execute runs code using the pool
func (p *Pool) Execute(ctx context.Context, code string, binding *DocumentBinding) (*Result, error) {
	runtime, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Release(runtime)

	return runtime.Execute(ctx, code, binding)
}

// Close closes the pool and all runtimes
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true
	close(p.runtimes)

	// Close all runtimes
	for runtime := range p.runtimes {
		runtime.Close()
	}

	return nil
}

// Stats returns pool statistics
func (p *Pool) Stats() map[string]interface{} {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return map[string]interface{}{
		"size":      p.size,
		"available": len(p.runtimes),
		"in_use":    p.size - len(p.runtimes),
		"closed":    p.closed,
	}
}
