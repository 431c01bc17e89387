package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/PageForge/backend/internal/bootstrap"
	"github.com/GriffinCanCode/PageForge/backend/internal/config"
	"github.com/GriffinCanCode/PageForge/backend/internal/host"
	"github.com/GriffinCanCode/PageForge/backend/internal/logging"
	"github.com/GriffinCanCode/PageForge/backend/internal/shared/types"
)

// Mode selects the render context backing a session
type Mode string

const (
	// ModeEngine renders in the in-process sandbox
	ModeEngine Mode = "engine"

	// ModeFrame renders in a browser frame that attaches over the
	// websocket stream after creation
	ModeFrame Mode = "frame"
)

var (
	// ErrNotFound means no session has the given ID
	ErrNotFound = errors.New("session not found")

	// ErrAtCapacity means the configured session limit is reached
	ErrAtCapacity = errors.New("session limit reached")

	// ErrBadMode means the requested context mode is not known
	ErrBadMode = errors.New("unknown context mode")
)

// Factory builds the render context for a new session
type Factory func(mode Mode) (host.RenderContext, error)

// Metrics receives session lifecycle notifications
type Metrics interface {
	SessionOpened()
	SessionClosed()
}

// Session binds one document host to one render context
type Session struct {
	ID        string
	Mode      Mode
	CreatedAt time.Time

	ctrl *host.Controller
	rc   host.RenderContext

	mu       sync.RWMutex
	lastUsed time.Time
}

// Controller returns the session's document host
func (s *Session) Controller() *host.Controller {
	return s.ctrl
}

// Context returns the render context backing this session
func (s *Session) Context() host.RenderContext {
	return s.rc
}

// Replace swaps the document wholesale, the way Create loads the first
// one. Engine sessions wait for the new context to come up; frame
// sessions stage the markup and pick it up on the next frame load.
func (s *Session) Replace(ctx context.Context, markup string) error {
	if s.Mode == ModeFrame {
		return s.ctrl.StageDocument(markup)
	}
	return s.ctrl.SetDocument(ctx, markup)
}

// Touch records activity, pushing the idle deadline out
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastUsed = time.Now()
	s.mu.Unlock()
}

// LastUsed returns the time of the most recent activity
func (s *Session) LastUsed() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUsed
}

// Info is the wire representation of one session
type Info struct {
	ID        string           `json:"id"`
	Mode      Mode             `json:"mode"`
	CreatedAt time.Time        `json:"created_at"`
	LastUsed  time.Time        `json:"last_used"`
	Edits     uint64           `json:"edits"`
	Elements  int              `json:"elements"`
	Selection *types.Selection `json:"selection,omitempty"`
}

// Info snapshots the session for API responses
func (s *Session) Info() Info {
	return Info{
		ID:        s.ID,
		Mode:      s.Mode,
		CreatedAt: s.CreatedAt,
		LastUsed:  s.LastUsed(),
		Edits:     s.ctrl.Edits(),
		Elements:  s.ctrl.Elements(),
		Selection: s.ctrl.Selection(),
	}
}

// Manager owns every live editing session
type Manager struct {
	cfg     config.SessionConfig
	sandbox config.SandboxConfig
	boot    *bootstrap.Bootstrapper
	factory Factory
	metrics Metrics
	logger  *logging.Logger

	createMu sync.Mutex
	sessions sync.Map
	active   atomic.Int64
	created  atomic.Uint64

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewManager creates a session manager and starts the idle reaper when
// an idle TTL is configured.
func NewManager(cfg config.SessionConfig, sandbox config.SandboxConfig, boot *bootstrap.Bootstrapper, factory Factory, metrics Metrics, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}

	m := &Manager{
		cfg:     cfg,
		sandbox: sandbox,
		boot:    boot,
		factory: factory,
		metrics: metrics,
		logger:  logger,
		done:    make(chan struct{}),
	}

	if cfg.IdleTTL > 0 {
		m.wg.Add(1)
		go m.reap()
	}

	return m
}

// Create spins up a session with the given document. Engine sessions
// complete the ready handshake before returning; frame sessions stage
// the document and report ready once the browser attaches.
func (m *Manager) Create(ctx context.Context, markup string, mode Mode) (*Session, error) {
	if mode == "" {
		mode = ModeEngine
	}
	if mode != ModeEngine && mode != ModeFrame {
		return nil, fmt.Errorf("%w: %q", ErrBadMode, mode)
	}

	m.createMu.Lock()
	defer m.createMu.Unlock()

	if m.cfg.MaxSessions > 0 && int(m.active.Load()) >= m.cfg.MaxSessions {
		return nil, ErrAtCapacity
	}

	rc, err := m.factory(mode)
	if err != nil {
		return nil, fmt.Errorf("create render context: %w", err)
	}

	ctrl := host.NewController(m.sandbox, rc, m.boot, m.logger)

	if mode == ModeFrame {
		err = ctrl.StageDocument(markup)
	} else {
		err = ctrl.SetDocument(ctx, markup)
	}
	if err != nil {
		ctrl.Close()
		return nil, err
	}

	now := time.Now()
	s := &Session{
		ID:        uuid.NewString(),
		Mode:      mode,
		CreatedAt: now,
		ctrl:      ctrl,
		rc:        rc,
		lastUsed:  now,
	}

	m.sessions.Store(s.ID, s)
	m.active.Add(1)
	m.created.Add(1)
	if m.metrics != nil {
		m.metrics.SessionOpened()
	}

	m.logger.Info("session created",
		zap.String("session", s.ID),
		zap.String("mode", string(mode)))
	return s, nil
}

// Get returns a session and marks it active
func (m *Manager) Get(id string) (*Session, error) {
	val, ok := m.sessions.Load(id)
	if !ok {
		return nil, ErrNotFound
	}
	s := val.(*Session)
	s.Touch()
	return s, nil
}

// List returns info for every live session
func (m *Manager) List() []Info {
	var infos []Info
	m.sessions.Range(func(_, value interface{}) bool {
		infos = append(infos, value.(*Session).Info())
		return true
	})
	return infos
}

// Close tears one session down
func (m *Manager) Close(id string) error {
	val, ok := m.sessions.LoadAndDelete(id)
	if !ok {
		return ErrNotFound
	}

	s := val.(*Session)
	s.ctrl.Close()
	m.active.Add(-1)
	if m.metrics != nil {
		m.metrics.SessionClosed()
	}

	m.logger.Info("session closed", zap.String("session", id))
	return nil
}

// CloseAll tears down every session; used at shutdown
func (m *Manager) CloseAll() {
	m.closeOnce.Do(func() {
		close(m.done)
		m.wg.Wait()
	})

	m.sessions.Range(func(key, _ interface{}) bool {
		_ = m.Close(key.(string))
		return true
	})
}

// Stats aggregates editor-wide statistics across live sessions
func (m *Manager) Stats() types.EditorStats {
	stats := types.EditorStats{
		TotalSessions: int(m.created.Load()),
	}
	m.sessions.Range(func(_, value interface{}) bool {
		s := value.(*Session)
		stats.ActiveSessions++
		stats.TaggedElements += s.ctrl.Elements()
		return true
	})
	return stats
}

// reap closes sessions that sat idle past the TTL
func (m *Manager) reap() {
	defer m.wg.Done()

	ticker := time.NewTicker(sweepEvery(m.cfg.IdleTTL))
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Manager) sweep() {
	cutoff := time.Now().Add(-m.cfg.IdleTTL)

	var stale []string
	m.sessions.Range(func(key, value interface{}) bool {
		if value.(*Session).LastUsed().Before(cutoff) {
			stale = append(stale, key.(string))
		}
		return true
	})

	for _, id := range stale {
		m.logger.Info("reaping idle session", zap.String("session", id))
		_ = m.Close(id)
	}
}

// sweepEvery sizes the reaper interval from the TTL
func sweepEvery(ttl time.Duration) time.Duration {
	interval := ttl / 4
	if interval > time.Minute {
		return time.Minute
	}
	if interval < 10*time.Millisecond {
		return 10 * time.Millisecond
	}
	return interval
}
