// ABOUTME: Gateway HTTP server: route registration, CORS, panic recovery, lifecycle.
// ABOUTME: Hosts the JSON-RPC and REST adapters over the shared registry/dispatch pipeline.

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/2389/toolgate/internal/dispatch"
	"github.com/2389/toolgate/internal/envelope"
	"github.com/2389/toolgate/internal/registry"
)

// Config holds gateway server construction parameters.
type Config struct {
	Registry       *registry.Registry
	Dispatcher     *dispatch.Dispatcher
	AllowedOrigins []string
	HTTPAddr       string
	Logger         *slog.Logger
}

// Server is the protocol-translating gateway front end. Both adapters share
// one pipeline: registry lookup, scope gate, upstream dispatch.
type Server struct {
	registry       *registry.Registry
	dispatcher     *dispatch.Dispatcher
	allowedOrigins []string
	httpAddr       string
	logger         *slog.Logger
}

// NewServer creates a gateway server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Registry == nil {
		return nil, errors.New("registry is required")
	}
	if cfg.Dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	addr := cfg.HTTPAddr
	if addr == "" {
		addr = ":8787"
	}

	return &Server{
		registry:       cfg.Registry,
		dispatcher:     cfg.Dispatcher,
		allowedOrigins: cfg.AllowedOrigins,
		httpAddr:       addr,
		logger:         logger,
	}, nil
}

// RegisterRoutes registers all gateway endpoints on the given ServeMux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/mcp", s.handleMCP)
	mux.HandleFunc("/tools", s.handleToolsList)
	mux.HandleFunc("/tools/", s.handleToolCall)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/", s.handleRoot)
}

// Handler returns the complete request-handling chain: mux, panic recovery,
// CORS. The CORS layer serves browser preflight; the REST adapter's origin
// gate is separate and stricter.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	corsOpts := cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "x-tenant-id", "x-actor-id", "x-scopes"},
	}
	if len(s.allowedOrigins) > 0 {
		corsOpts.AllowedOrigins = s.allowedOrigins
	} else {
		corsOpts.AllowedOrigins = []string{"*"}
	}

	return cors.New(corsOpts).Handler(s.recoverPanics(mux))
}

// recoverPanics converts any handler panic into a 500 envelope. A single bad
// request must never take the gateway down.
func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("request handler panicked",
					"path", r.URL.Path,
					"panic", rec,
				)
				s.writeJSON(w, http.StatusInternalServerError,
					envelope.ErrDetails(envelope.CodeUpstreamError, "Internal gateway error", fmt.Sprint(rec)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and blocks until the context is canceled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.httpAddr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("gateway listening",
			"addr", s.httpAddr,
			"tools", s.registry.Len(),
			"secret_configured", s.dispatcher.HasSecret(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("gateway server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down gateway")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("gateway shutdown: %w", err)
	}
	return nil
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"service":   "toolgate-gateway",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleRoot handles GET / with a service summary.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"service":    "toolgate-gateway",
		"tool_count": s.registry.Len(),
		"tools":      s.registry.ToolNames(),
		"domains":    s.dispatcher.Targets(),
		"endpoints": map[string]string{
			"mcp":   "/mcp",
			"tools": "/tools",
			"call":  "/tools/:toolName/call",
		},
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("failed to encode response", "error", err)
	}
}

// missingScopes returns the required scopes the caller does not hold, in
// required order.
func missingScopes(provided, required []string) []string {
	held := make(map[string]struct{}, len(provided))
	for _, s := range provided {
		held[s] = struct{}{}
	}
	missing := []string{}
	for _, s := range required {
		if _, ok := held[s]; !ok {
			missing = append(missing, s)
		}
	}
	return missing
}
