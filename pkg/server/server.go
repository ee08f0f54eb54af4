package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-go/weft/pkg/protocol"
	"github.com/vango-go/weft/pkg/runtime"
)

// Server serves one application instance per websocket session.
//
// Routes:
//
//	GET /ws       websocket endpoint speaking pkg/protocol
//	GET /metrics  Prometheus metrics of the server and its runtimes
//	GET /healthz  liveness and session count
type Server struct {
	config         *Config
	mount          Mount
	sessions       *SessionManager
	metrics        *Metrics
	runtimeMetrics *runtime.Metrics
	router         chi.Router
	upgrader       websocket.Upgrader
	httpServer     *http.Server
	tracer         trace.Tracer
	logger         *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a server that mounts an application per session. Unset
// config fields take their defaults.
func New(mount Mount, config *Config) (*Server, error) {
	if mount == nil {
		return nil, ErrNilMount
	}
	config = config.withDefaults()

	tracer := config.Tracer
	if tracer == nil {
		tracer = otel.Tracer(runtime.DefaultTracerName)
	}

	s := &Server{
		config:   config,
		mount:    mount,
		sessions: NewSessionManager(config.MaxSessions),
		metrics:  NewMetrics(config.Registry, config.MetricsNamespace),
		runtimeMetrics: runtime.NewMetrics(
			runtime.WithRegistry(config.Registry),
			runtime.WithNamespace(config.MetricsNamespace),
		),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     config.CheckOrigin,
		},
		tracer: tracer,
		logger: config.Logger.With("component", "server"),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/ws", s.HandleWebSocket)
	r.Handle("/metrics", promhttp.HandlerFor(config.Registry, promhttp.HandlerOpts{}))
	r.Get("/healthz", s.handleHealth)
	s.router = r

	return s, nil
}

// Router returns the server's router so callers can add routes.
func (s *Server) Router() chi.Router { return s.router }

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler { return s.router }

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HandleWebSocket upgrades the request and starts a session.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.sessions.Full() {
		http.Error(w, ErrMaxSessionsReached.Error(), http.StatusServiceUnavailable)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	session := newSession(s.ctx, conn, s.config, s.metrics, s.tracer)
	if err := s.sessions.add(session); err != nil {
		s.logger.Warn("session refused", "error", err)
		session.sendError(protocol.ErrServerError, err.Error(), true)
		session.CloseWith(protocol.CloseError, err.Error())
		return
	}
	session.open()
	session.logger.Info("session opened",
		"remote_addr", r.RemoteAddr,
		"request_id", middleware.GetReqID(r.Context()))

	if err := session.start(s.mount, s.runtimeMetrics); err != nil {
		session.logger.Error("session start failed", "error", err)
		session.Close()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Count(),
	})
}

// Run listens on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", s.config.Address)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		return s.Shutdown(context.Background())
	}
}

// Shutdown closes every session and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.sessions.CloseAll(protocol.CloseServerShutdown, "server shutting down")
	s.cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}
	s.logger.Info("server shutdown complete")
	return nil
}

// Sessions returns the session manager.
func (s *Server) Sessions() *SessionManager { return s.sessions }

// Config returns the server configuration.
func (s *Server) Config() *Config { return s.config }
