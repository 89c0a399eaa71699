// Package api exposes the healthcare assistant over HTTP: session
// management, chat turns, a server-sent-event stream, and health and
// metrics endpoints.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/drcloud/assistant/internal/api/response"
	"github.com/drcloud/assistant/internal/logging"
	"github.com/drcloud/assistant/internal/metrics"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "dr-cloud-healthcare-assistant"

// Server handles HTTP API requests
type Server struct {
	port             int
	server           *http.Server
	router           *http.ServeMux
	logger           *logging.Logger
	readinessChecker ReadinessChecker
}

// New creates a new API server
func New(port int, svc ChatService, readinessChecker ReadinessChecker) *Server {
	s := &Server{
		port:             port,
		logger:           logging.GetLogger("api"),
		router:           http.NewServeMux(),
		readinessChecker: readinessChecker,
	}

	sessionHandler := NewSessionHandler(svc, s.logger)
	chatHandler := NewChatHandler(svc, s.logger)

	s.router.HandleFunc("/health", s.handleHealth)
	s.router.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.Handler().ServeHTTP(w, r)
	})
	s.router.HandleFunc("/api/v1/session/new", s.withMethod(http.MethodPost, sessionHandler.HandleNew))
	s.router.HandleFunc("/api/v1/session/state", s.withMethod(http.MethodGet, sessionHandler.HandleState))
	s.router.HandleFunc("/api/v1/session", s.withMethod(http.MethodDelete, sessionHandler.HandleDelete))
	s.router.HandleFunc("/api/v1/chat", s.withMethod(http.MethodPost, chatHandler.Handle))
	s.router.HandleFunc("/api/v1/chat/stream", s.withMethod(http.MethodPost, chatHandler.HandleStream))

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.corsMiddleware(s.router),
		// Streamed chat turns can outlive the usual write timeout, so
		// only reads are bounded here.
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	return s
}

// Handler returns the HTTP handler, including middleware.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// withMethod wraps a handler to enforce HTTP method
func (s *Server) withMethod(method string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			response.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
				fmt.Sprintf("Method %s not allowed for %s", r.Method, r.URL.Path))
			return
		}
		handler(w, r)
	}
}

// corsMiddleware adds CORS headers to allow browser access
// For local development only - allows all origins
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleHealth handles health check requests. It reports 503 until the
// service dependencies have initialized.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ready := s.readinessChecker != nil && s.readinessChecker.IsReady()

	status := "healthy"
	code := http.StatusOK
	if !ready {
		status = "initializing"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = response.WriteJSON(w, map[string]string{
		"status":  status,
		"service": ServiceName,
	})
}

// Start implements the lifecycle.Component interface
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting API server on port %d", s.port)

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error: %v", err)
		}
	}()

	s.logger.Info("HTTP API server started and listening on port %d", s.port)
	return nil
}

// Stop implements the lifecycle.Component interface
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")

	done := make(chan error, 1)
	go func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		done <- s.server.Shutdown(shutdownCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			s.logger.Error("HTTP server shutdown error: %v", err)
			return err
		}
		s.logger.Info("HTTP server stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("HTTP server shutdown timeout")
		return ctx.Err()
	}
}

// Name implements the lifecycle.Component interface
func (s *Server) Name() string {
	return "API Server"
}
