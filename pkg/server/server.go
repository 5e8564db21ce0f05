// Package server provides the HTTP server of the chat relay.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"mercator-hq/chatrelay/pkg/config"
	"mercator-hq/chatrelay/pkg/conversation"
	"mercator-hq/chatrelay/pkg/proxy/handlers"
	"mercator-hq/chatrelay/pkg/proxy/middleware"
	"mercator-hq/chatrelay/pkg/telemetry/metrics"
)

// Banner is the plain-text body served at "/".
const Banner = "LLM Chat Backend is running!"

// ProviderManager resolves routes and reports on the configured providers.
type ProviderManager interface {
	handlers.RouteResolver
	handlers.ProviderRegistry
}

// Deps are the components the server routes requests to.
type Deps struct {
	Providers   ProviderManager
	Catalog     handlers.ModelLister
	Assembler   *conversation.Assembler
	Attachments handlers.AttachmentReader

	// Metrics may be nil; /metrics is only mounted when it is enabled.
	Metrics       *metrics.Collector
	MetricsConfig config.MetricsConfig

	// Audit may be nil.
	Audit handlers.AuditRecorder
}

// Server is the chat relay HTTP server.
type Server struct {
	config       *config.ProxyConfig
	deps         Deps
	httpServer   *http.Server
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
	addr         net.Addr
}

// NewServer creates a new server.
func NewServer(cfg *config.ProxyConfig, deps Deps) *Server {
	return &Server{
		config: cfg,
		deps:   deps,
	}
}

// Start listens on the configured address and serves until ctx is
// cancelled or the server fails.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled or the server fails. On
// cancellation the server is shut down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		ln.Close()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.addr = ln.Addr()
	s.httpServer = &http.Server{
		Handler:        s.Handler(),
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting chat relay",
			"address", ln.Addr().String(),
			"providers", s.deps.Providers.ProviderCount(),
		)

		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}
}

// Shutdown gracefully shuts down the server. Open streams are given
// ShutdownTimeout to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		slog.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx := ctx
		if s.config.ShutdownTimeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
			defer cancel()
		}

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		slog.Info("chat relay stopped")
	})

	return shutdownErr
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	chat := handlers.NewChatHandler(handlers.ChatDeps{
		Resolver:     s.deps.Providers,
		Assembler:    s.deps.Assembler,
		Attachments:  s.deps.Attachments,
		Metrics:      s.deps.Metrics,
		Audit:        s.deps.Audit,
		MaxBodyBytes: s.config.MaxRequestBodyBytes,
	})

	mux.HandleFunc("/{$}", banner)
	mux.Handle("/api/chat", chat)
	mux.Handle("/api/models", handlers.NewModelsHandler(s.deps.Catalog))
	mux.Handle("/health", handlers.NewHealthHandler())
	mux.Handle("/ready", handlers.NewReadyHandler(s.deps.Providers))
	mux.Handle("/health/providers", handlers.NewProviderHealthHandler(s.deps.Providers))

	if s.deps.Metrics != nil && s.deps.MetricsConfig.Enabled {
		path := s.deps.MetricsConfig.Path
		if path == "" {
			path = config.DefaultPrometheusPath
		}
		mux.Handle(path, s.deps.Metrics.Handler())
	}

	var handler http.Handler = mux
	handler = middleware.CORSMiddleware(s.config.CORS)(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.RecoveryMiddleware(handler)

	return handler
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the address the server is listening on, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

func banner(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, Banner)
}
