package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/PageForge/backend/internal/bootstrap"
	"github.com/GriffinCanCode/PageForge/backend/internal/config"
	"github.com/GriffinCanCode/PageForge/backend/internal/exporter"
	api "github.com/GriffinCanCode/PageForge/backend/internal/http"
	"github.com/GriffinCanCode/PageForge/backend/internal/host"
	"github.com/GriffinCanCode/PageForge/backend/internal/importer"
	"github.com/GriffinCanCode/PageForge/backend/internal/logging"
	"github.com/GriffinCanCode/PageForge/backend/internal/middleware"
	"github.com/GriffinCanCode/PageForge/backend/internal/monitoring"
	"github.com/GriffinCanCode/PageForge/backend/internal/sandbox"
	"github.com/GriffinCanCode/PageForge/backend/internal/session"
	"github.com/GriffinCanCode/PageForge/backend/internal/tagger"
	"github.com/GriffinCanCode/PageForge/backend/internal/templates"
	"github.com/GriffinCanCode/PageForge/backend/internal/tracing"
	"github.com/GriffinCanCode/PageForge/backend/internal/ws"
)

// Server wraps the HTTP server and its dependencies
type Server struct {
	router   *gin.Engine
	sessions *session.Manager
	library  *templates.Library
	tracer   *tracing.Tracer
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
	httpSrv  *http.Server
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger := buildLogger(cfg.Logging)

	logger.Info("Initializing PageForge server",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
	)

	// Metrics first; most components report into them
	metrics := monitoring.NewMetrics()
	tracer := tracing.New("backend", logger)

	// Template library with built-in starters plus whatever the
	// template directory holds
	library := templates.NewLibrary()
	scanner := templates.NewScanner(library, cfg.Templates, logger)
	if err := scanner.SeedDefaults(); err != nil {
		logger.Warn("Failed to seed starter templates", zap.Error(err))
	}
	if err := scanner.Scan(); err != nil {
		logger.Warn("Template directory scan failed", zap.Error(err))
	}

	imp := importer.New(cfg.Importer, logger)
	exp := exporter.New(cfg.Export)

	boot := bootstrap.New(tagger.New(), "")

	// Engine sessions render in-process; frame sessions hand rendering
	// to a browser that attaches over the stream route
	factory := func(mode session.Mode) (host.RenderContext, error) {
		if mode == session.ModeFrame {
			return ws.NewRemoteContext(cfg.Sandbox.QueueSize, metrics, logger), nil
		}
		return sandbox.NewEngine(sandbox.Config{
			QueueSize:      cfg.Sandbox.QueueSize,
			ExecTimeout:    cfg.Sandbox.ExecTimeout,
			ScriptPoolSize: cfg.Sandbox.PoolSize,
		}, logger)
	}
	sessions := session.NewManager(cfg.Sessions, cfg.Sandbox, boot, factory, metrics, logger)

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(cfg.RateLimit))
	}

	// Register routes
	handlers := api.NewHandlers(sessions, library, imp, exp, metrics, logger)
	api.Register(router, handlers)

	wsHandler := ws.NewHandler(sessions, metrics, logger)
	router.GET("/sessions/:id/stream", wsHandler.HandleStream)

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router:   router,
		sessions: sessions,
		library:  library,
		tracer:   tracer,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// Router exposes the configured engine, mainly for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port

	// No write timeout: stream connections stay open for the life of
	// an editing session
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	if err := s.httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close gracefully shuts down the server: stop accepting requests,
// then tear down every session so render contexts disconnect cleanly
func (s *Server) Close(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	var shutdownErr error
	if s.httpSrv != nil {
		shutdownErr = s.httpSrv.Shutdown(ctx)
	}

	s.sessions.CloseAll()
	s.tracer.Close()
	s.logger.Sync()

	return shutdownErr
}

// buildLogger maps app configuration onto a logger
func buildLogger(cfg config.LogConfig) *logging.Logger {
	logCfg := logging.DefaultConfig()
	if cfg.Development {
		logCfg = logging.DevelopmentConfig()
	}
	if cfg.Level != "" {
		logCfg.Level = cfg.Level
	}
	logCfg.File = cfg.File

	logger, err := logging.New(logCfg)
	if err != nil {
		return logging.NewDefault()
	}
	return logger
}
