// ABOUTME: HTTP server for a domain tool service's single invoke endpoint.
// ABOUTME: Guards calls with the shared gateway token and maps tool errors to the RPC envelope.

package domain

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/2389/toolgate/internal/envelope"
)

// Config holds configuration for a domain tool service server.
type Config struct {
	ToolSet *ToolSet
	Secret  string
	Logger  *slog.Logger
}

// Server exposes one domain's tools to the gateway over HTTP.
type Server struct {
	toolset *ToolSet
	secret  string
	logger  *slog.Logger
}

// NewServer creates a domain tool service server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.ToolSet == nil {
		return nil, errors.New("tool set is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		toolset: cfg.ToolSet,
		secret:  cfg.Secret,
		logger:  logger,
	}, nil
}

// RegisterRoutes registers the service endpoints on the given ServeMux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/tools/", s.handleInvoke)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/", s.handleRoot)
}

// handleInvoke handles POST /tools/{name}/invoke.
func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	// A panicking tool must never take the process down with it.
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("tool handler panicked", "panic", rec)
			s.writeEnvelope(w, http.StatusInternalServerError,
				envelope.ErrDetails(envelope.CodeUpstreamError, "Failed to execute tool", fmt.Sprint(rec)))
		}
	}()

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	toolName, ok := invokePathTool(r.URL.Path)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	// Shared-secret check at the trust boundary. Constant-time comparison so
	// the token cannot be probed byte by byte.
	token := r.Header.Get("x-gateway-token")
	if s.secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.secret)) != 1 {
		s.writeEnvelope(w, http.StatusForbidden,
			envelope.Err(envelope.CodeForbidden, "Invalid or missing gateway token"))
		return
	}

	var req envelope.RPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeEnvelope(w, http.StatusInternalServerError,
			envelope.ErrDetails(envelope.CodeUpstreamError, "Failed to execute tool", err.Error()))
		return
	}
	if req.Input == nil {
		s.writeEnvelope(w, http.StatusBadRequest,
			envelope.ErrDetails(envelope.CodeValidationError, "Tool input validation failed", "input is required"))
		return
	}

	result, err := s.toolset.Invoke(r.Context(), toolName, req.Input)
	if err != nil {
		s.writeInvokeError(w, toolName, err)
		return
	}

	s.logger.Debug("tool executed",
		"domain", s.toolset.Domain,
		"tool", toolName,
		"request_id", contextRequestID(req.Context),
	)
	s.writeEnvelope(w, http.StatusOK, envelope.OK(result))
}

// writeInvokeError maps tool invocation failures onto the RPC envelope.
func (s *Server) writeInvokeError(w http.ResponseWriter, toolName string, err error) {
	var ve *ValidationError
	switch {
	case errors.Is(err, ErrToolNotFound):
		s.writeEnvelope(w, http.StatusNotFound,
			envelope.Err(envelope.CodeToolNotFound,
				fmt.Sprintf("Tool '%s' not found in Domain %s", toolName, s.toolset.Domain)))
	case errors.As(err, &ve):
		s.writeEnvelope(w, http.StatusBadRequest,
			envelope.ErrDetails(envelope.CodeValidationError, "Tool input validation failed", ve.Details))
	default:
		s.logger.Error("tool execution failed",
			"domain", s.toolset.Domain,
			"tool", toolName,
			"error", err,
		)
		s.writeEnvelope(w, http.StatusInternalServerError,
			envelope.ErrDetails(envelope.CodeUpstreamError, "Failed to execute tool", err.Error()))
	}
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"domain":    s.toolset.Domain,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleRoot handles GET / with service information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"service":      fmt.Sprintf("Domain %s Tool Service", s.toolset.Domain),
		"tools":        s.toolset.ToolNames(),
		"rpc_endpoint": "/tools/:toolName/invoke",
	})
}

func (s *Server) writeEnvelope(w http.ResponseWriter, status int, resp *envelope.RPCResponse) {
	s.writeJSON(w, status, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("failed to encode response", "error", err)
	}
}

// invokePathTool extracts the tool name from /tools/{name}/invoke.
func invokePathTool(path string) (string, bool) {
	const prefix = "/tools/"
	const suffix = "/invoke"
	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		return "", false
	}
	name := strings.TrimSuffix(strings.TrimPrefix(path, prefix), suffix)
	if name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}

func contextRequestID(rc *envelope.RPCContext) string {
	if rc == nil {
		return ""
	}
	return rc.RequestID
}
