package ws

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/PageForge/backend/internal/logging"
	"github.com/GriffinCanCode/PageForge/backend/internal/shared/types"
	"github.com/GriffinCanCode/PageForge/backend/internal/shared/utils"
)

// ErrContextClosed marks a Serve call on a context that already shut down
var ErrContextClosed = errors.New("render context closed")

// Metrics counts stream connections and protocol frames.
type Metrics interface {
	IncWSConnections()
	DecWSConnections()
	RecordWSMessage(direction, msgType string)
	RecordEvent(msgType string)
}

// RemoteContext bridges the host controller to a browser frame over a
// websocket. It exists from session creation; the frame attaches later,
// when the iframe's injected script opens the stream.
//
// Commands sent while no frame is attached are dropped. The protocol is
// fire-and-forget, so the controller's acknowledgment timeouts already
// cover a frame that never saw a command.
type RemoteContext struct {
	metrics Metrics
	logger  *logging.Logger

	mu   sync.Mutex
	conn *websocket.Conn

	events chan *types.Message

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewRemoteContext creates a detached remote context. queueSize bounds
// the inbound event buffer.
func NewRemoteContext(queueSize int, metrics Metrics, logger *logging.Logger) *RemoteContext {
	if queueSize <= 0 {
		queueSize = 64
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &RemoteContext{
		metrics: metrics,
		logger:  logger,
		events:  make(chan *types.Message, queueSize),
		done:    make(chan struct{}),
	}
}

// Send encodes a command and writes it to the attached frame. With no
// frame attached the command is dropped.
func (rc *RemoteContext) Send(msg *types.Message) error {
	data, err := types.Encode(msg)
	if err != nil {
		return err
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.conn == nil {
		rc.logger.Debug("dropping command, no frame attached",
			zap.String("type", string(msg.Type)))
		return nil
	}

	if err := rc.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	if rc.metrics != nil {
		rc.metrics.RecordWSMessage("out", string(msg.Type))
	}
	return nil
}

// Events returns the inbound event stream consumed by the controller
func (rc *RemoteContext) Events() <-chan *types.Message {
	return rc.events
}

// Serve attaches conn as the live frame and reads it until it drops.
// A second frame connecting supersedes the first; the superseded Serve
// call returns. Malformed frames are skipped, not fatal.
func (rc *RemoteContext) Serve(conn *websocket.Conn) error {
	rc.mu.Lock()
	select {
	case <-rc.done:
		rc.mu.Unlock()
		conn.Close()
		return ErrContextClosed
	default:
	}
	if rc.conn != nil {
		rc.conn.Close()
	}
	conn.SetReadLimit(utils.MaxMessageSize)
	rc.conn = conn
	rc.wg.Add(1)
	rc.mu.Unlock()
	defer rc.wg.Done()

	defer func() {
		rc.mu.Lock()
		if rc.conn == conn {
			rc.conn = nil
		}
		rc.mu.Unlock()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				rc.logger.Debug("frame stream read ended", zap.Error(err))
			}
			return nil
		}

		msg, err := types.Decode(data)
		if err != nil {
			rc.logger.Warn("discarding malformed frame", zap.Error(err))
			continue
		}

		if rc.metrics != nil {
			rc.metrics.RecordWSMessage("in", string(msg.Type))
			rc.metrics.RecordEvent(string(msg.Type))
		}

		select {
		case rc.events <- msg:
		case <-rc.done:
			return nil
		}
	}
}

// Attached reports whether a frame currently holds the stream
func (rc *RemoteContext) Attached() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.conn != nil
}

// Close detaches any frame and closes the event stream.
func (rc *RemoteContext) Close() {
	rc.closeOnce.Do(func() {
		close(rc.done)

		rc.mu.Lock()
		if rc.conn != nil {
			rc.conn.Close()
			rc.conn = nil
		}
		rc.mu.Unlock()

		rc.wg.Wait()
		close(rc.events)
	})
}
