package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/PageForge/backend/internal/logging"
	"github.com/GriffinCanCode/PageForge/backend/internal/session"
	"github.com/GriffinCanCode/PageForge/backend/internal/shared/types"
	"github.com/GriffinCanCode/PageForge/backend/internal/shared/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in dev
	},
}

// Stream roles
const (
	RoleOperator = "operator"
	RoleFrame    = "frame"
)

// keepAliveEvery is how often a connected stream touches its session so
// the idle reaper leaves in-frame editing alone
const keepAliveEvery = time.Minute

// Handler manages WebSocket connections
type Handler struct {
	sessions *session.Manager
	metrics  Metrics
	logger   *logging.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(sessions *session.Manager, metrics Metrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{
		sessions: sessions,
		metrics:  metrics,
		logger:   logger,
	}
}

// HandleStream upgrades GET /sessions/:id/stream. The default role is
// the operator event feed; role=frame hands the connection to the
// session's remote render context.
func (h *Handler) HandleStream(c *gin.Context) {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	role := c.DefaultQuery("role", RoleOperator)
	if role != RoleOperator && role != RoleFrame {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		return
	}

	var remote *RemoteContext
	if role == RoleFrame {
		rc, ok := sess.Context().(*RemoteContext)
		if !ok {
			c.JSON(http.StatusConflict, gin.H{"error": "session does not render in a frame"})
			return
		}
		remote = rc
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			zap.String("session_id", sess.ID),
			zap.Error(err))
		return
	}

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	stop := make(chan struct{})
	defer close(stop)
	go h.keepAlive(sess, stop)

	if role == RoleFrame {
		h.serveFrame(conn, remote, sess.ID)
		return
	}
	h.serveOperator(conn, sess)
}

// serveFrame blocks on the remote context until the frame drops
func (h *Handler) serveFrame(conn *websocket.Conn, remote *RemoteContext, sessionID string) {
	h.logger.Info("frame attached", zap.String("session_id", sessionID))

	err := remote.Serve(conn)

	h.logger.Info("frame detached",
		zap.String("session_id", sessionID),
		zap.Error(err))
}

// serveOperator relays the session's event feed until the operator
// disconnects
func (h *Handler) serveOperator(conn *websocket.Conn, sess *session.Session) {
	defer conn.Close()
	conn.SetReadLimit(utils.MaxMessageSize)

	events, cancel := sess.Controller().Subscribe()
	defer cancel()

	// The read side only notices the operator going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-events:
			if !ok {
				return
			}
			data, err := types.Encode(msg)
			if err != nil {
				h.logger.Warn("skipping unencodable event", zap.Error(err))
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
			if h.metrics != nil {
				h.metrics.RecordWSMessage("out", string(msg.Type))
			}
		case <-gone:
			return
		}
	}
}

// keepAlive touches the session while a stream is connected
func (h *Handler) keepAlive(sess *session.Session, stop <-chan struct{}) {
	t := time.NewTicker(keepAliveEvery)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			sess.Touch()
		case <-stop:
			return
		}
	}
}
