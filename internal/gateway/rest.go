// ABOUTME: REST adapter: GET /tools catalog and POST /tools/:name/call execution.
// ABOUTME: Same pipeline as the JSON-RPC adapter, with the ok/data envelope and plain HTTP statuses.

package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/2389/toolgate/internal/envelope"
	"github.com/2389/toolgate/internal/registry"
)

// restToolDescriptor is the tool shape returned by GET /tools. Unlike the
// MCP descriptor it includes the scope requirements and owning domain, so
// REST clients can predict authorization outcomes.
type restToolDescriptor struct {
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	InputSchema    json.RawMessage `json:"inputSchema"`
	RequiredScopes []string        `json:"requiredScopes"`
	Domain         string          `json:"domain"`
}

// restCallRequest is the POST /tools/:name/call body. "arguments" is the
// canonical key; "input" is a deprecated alias kept for older clients.
type restCallRequest struct {
	Arguments map[string]any `json:"arguments"`
	Input     map[string]any `json:"input"`
}

// args resolves the effective argument map. Omitted arguments are an empty
// map, never nil; whether an empty call is valid is the tool schema's call.
func (r restCallRequest) args() map[string]any {
	if r.Arguments != nil {
		return r.Arguments
	}
	if r.Input != nil {
		return r.Input
	}
	return map[string]any{}
}

// handleToolsList handles GET /tools.
func (s *Server) handleToolsList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	tools := s.registry.GetAllTools()
	descriptors := make([]restToolDescriptor, len(tools))
	for i, tool := range tools {
		descriptors[i] = restToolDescriptor{
			Name:           tool.Name,
			Description:    tool.Description,
			InputSchema:    tool.InputSchema,
			RequiredScopes: tool.RequiredScopes,
			Domain:         tool.Domain,
		}
	}

	s.writeJSON(w, http.StatusOK, envelope.OK(map[string]any{
		"tools": descriptors,
		"count": len(descriptors),
	}))
}

// handleToolCall handles POST /tools/{name}/call.
func (s *Server) handleToolCall(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	toolName, ok := callPathTool(r.URL.Path)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	// Origin gate before anything else. Absent Origin is never blocked.
	if !originAllowed(r.Header.Get("Origin"), s.allowedOrigins) {
		s.writeJSON(w, http.StatusForbidden,
			envelope.Err(envelope.CodeForbidden, "Origin not allowed"))
		return
	}

	// An empty body is a call with no arguments, not a malformed request.
	var body restCallRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		s.writeJSON(w, http.StatusBadRequest,
			envelope.ErrDetails(envelope.CodeValidationError, "Invalid request body", err.Error()))
		return
	}

	tool, found := s.registry.GetToolByName(toolName)
	if !found {
		s.writeJSON(w, http.StatusNotFound,
			envelope.Err(envelope.CodeToolNotFound, fmt.Sprintf("Tool '%s' not found", toolName)))
		return
	}

	rc := ExtractContext(r)
	if !registry.HasRequiredScopes(rc.Scopes, tool.RequiredScopes) {
		missing := missingScopes(rc.Scopes, tool.RequiredScopes)
		s.writeJSON(w, http.StatusForbidden,
			envelope.ErrDetails(envelope.CodeScopeMissing,
				fmt.Sprintf("Missing required scopes: %s", strings.Join(missing, ", ")),
				map[string]any{
					"required": tool.RequiredScopes,
					"provided": rc.Scopes,
				}))
		return
	}

	resp, err := s.dispatcher.Dispatch(r.Context(), tool.Domain, tool.Name, body.args(), rc)
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError,
			envelope.Err(envelope.CodeUpstreamError, configErrorMessage(err, tool.Domain)))
		return
	}

	if !resp.OK {
		// Upstream failures pass through with their own code; the HTTP status
		// follows the failure class.
		s.writeJSON(w, statusForCode(resp.Error.Code), resp)
		return
	}

	s.logger.Info("tool call completed",
		"protocol", "rest",
		"tool", tool.Name,
		"domain", tool.Domain,
		"request_id", rc.RequestID,
	)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"data": resp.Data,
		"context": map[string]any{
			"request_id": rc.RequestID,
			"tenant_id":  rc.TenantID,
			"actor_id":   rc.ActorID,
		},
	})
}

// statusForCode maps envelope error codes onto HTTP status classes.
func statusForCode(code string) int {
	switch code {
	case envelope.CodeValidationError:
		return http.StatusBadRequest
	case envelope.CodeForbidden, envelope.CodeScopeMissing:
		return http.StatusForbidden
	case envelope.CodeToolNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// callPathTool extracts the tool name from /tools/{name}/call.
func callPathTool(path string) (string, bool) {
	const prefix = "/tools/"
	const suffix = "/call"
	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		return "", false
	}
	name := strings.TrimSuffix(strings.TrimPrefix(path, prefix), suffix)
	if name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}
