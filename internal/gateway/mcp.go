// ABOUTME: JSON-RPC 2.0 adapter on /mcp: tools/list and tools/call.
// ABOUTME: Translates pipeline outcomes into JSON-RPC errors and MCP content blocks.

package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/2389/toolgate/internal/dispatch"
	"github.com/2389/toolgate/internal/envelope"
	"github.com/2389/toolgate/internal/registry"
)

// JSON-RPC 2.0 error codes.
const (
	jsonrpcParseError     = -32700
	jsonrpcInvalidRequest = -32600
	jsonrpcMethodNotFound = -32601
	jsonrpcInvalidParams  = -32602
	jsonrpcInternalError  = -32603
)

// jsonrpcRequest is an inbound JSON-RPC 2.0 request.
type jsonrpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// jsonrpcResponse is an outbound JSON-RPC 2.0 response.
type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *jsonrpcError   `json:"error,omitempty"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// callParams are the params of a tools/call request.
type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// mcpToolDescriptor is the tool shape advertised by tools/list.
type mcpToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// handleMCP serves the /mcp endpoint: GET returns the capability descriptor,
// POST handles JSON-RPC method dispatch.
func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, http.StatusOK, map[string]any{
			"name":        "toolgate-gateway",
			"description": "Protocol-translating tool gateway",
			"protocol":    "jsonrpc-2.0",
			"methods":     []string{"tools/list", "tools/call"},
		})
	case http.MethodPost:
		s.handleMCPCall(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleMCPCall(w http.ResponseWriter, r *http.Request) {
	var req jsonrpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeRPC(w, http.StatusBadRequest, jsonrpcResponse{
			JSONRPC: "2.0",
			Error:   &jsonrpcError{Code: jsonrpcParseError, Message: "Parse error"},
		})
		return
	}

	switch req.Method {
	case "tools/list":
		s.rpcToolsList(w, req)
	case "tools/call":
		s.rpcToolsCall(w, r, req)
	default:
		// The JSON-RPC envelope carries the error; the HTTP status stays 200.
		s.writeRPC(w, http.StatusOK, jsonrpcResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &jsonrpcError{
				Code:    jsonrpcMethodNotFound,
				Message: fmt.Sprintf("Unknown method: %s", req.Method),
			},
		})
	}
}

// rpcToolsList lists the full catalog. Listing requires no authorization;
// scopes gate execution, not discovery.
func (s *Server) rpcToolsList(w http.ResponseWriter, req jsonrpcRequest) {
	tools := s.registry.GetAllTools()
	descriptors := make([]mcpToolDescriptor, len(tools))
	for i, tool := range tools {
		descriptors[i] = mcpToolDescriptor{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		}
	}
	s.writeRPC(w, http.StatusOK, jsonrpcResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  map[string]any{"tools": descriptors},
	})
}

// rpcToolsCall runs the shared pipeline and translates each outcome into a
// JSON-RPC error or an MCP content block.
func (s *Server) rpcToolsCall(w http.ResponseWriter, r *http.Request, req jsonrpcRequest) {
	var params callParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			s.writeRPC(w, http.StatusBadRequest, jsonrpcResponse{
				JSONRPC: "2.0",
				ID:      req.ID,
				Error:   &jsonrpcError{Code: jsonrpcInvalidParams, Message: "Invalid params"},
			})
			return
		}
	}
	// Omitted arguments mean "call with no arguments", not a malformed
	// request; the domain service decides whether the schema allows that.
	if params.Arguments == nil {
		params.Arguments = map[string]any{}
	}

	// A missing name falls through lookup like any other unknown tool.
	tool, found := s.registry.GetToolByName(params.Name)
	if !found {
		s.writeRPC(w, http.StatusNotFound, jsonrpcResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &jsonrpcError{
				Code:    jsonrpcMethodNotFound,
				Message: fmt.Sprintf("Tool '%s' not found", params.Name),
				Data: map[string]any{
					"code":           envelope.CodeToolNotFound,
					"availableTools": s.registry.ToolNames(),
				},
			},
		})
		return
	}

	rc := ExtractContext(r)
	if !registry.HasRequiredScopes(rc.Scopes, tool.RequiredScopes) {
		missing := missingScopes(rc.Scopes, tool.RequiredScopes)
		s.writeRPC(w, http.StatusForbidden, jsonrpcResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &jsonrpcError{
				Code:    jsonrpcInvalidParams,
				Message: fmt.Sprintf("Missing required scopes: %s", strings.Join(missing, ", ")),
				Data: map[string]any{
					"code":     envelope.CodeScopeMissing,
					"required": tool.RequiredScopes,
					"provided": rc.Scopes,
				},
			},
		})
		return
	}

	resp, err := s.dispatcher.Dispatch(r.Context(), tool.Domain, tool.Name, params.Arguments, rc)
	if err != nil {
		s.writeRPC(w, http.StatusInternalServerError, jsonrpcResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &jsonrpcError{
				Code:    jsonrpcInternalError,
				Message: configErrorMessage(err, tool.Domain),
				Data:    map[string]any{"code": envelope.CodeUpstreamError},
			},
		})
		return
	}

	if !resp.OK {
		// Upstream failure relayed on the JSON-RPC error channel. The HTTP
		// status stays 200; the JSON-RPC envelope is the error surface here.
		s.writeRPC(w, http.StatusOK, jsonrpcResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &jsonrpcError{
				Code:    jsonrpcInternalError,
				Message: resp.Error.Message,
				Data: map[string]any{
					"code":    resp.Error.Code,
					"details": resp.Error.Details,
				},
			},
		})
		return
	}

	text, err := json.MarshalIndent(resp.Data, "", "  ")
	if err != nil {
		s.writeRPC(w, http.StatusInternalServerError, jsonrpcResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &jsonrpcError{
				Code:    jsonrpcInternalError,
				Message: "Failed to encode tool result",
				Data:    map[string]any{"code": envelope.CodeUpstreamError},
			},
		})
		return
	}

	s.logger.Info("tool call completed",
		"protocol", "jsonrpc",
		"tool", tool.Name,
		"domain", tool.Domain,
		"request_id", rc.RequestID,
	)
	s.writeRPC(w, http.StatusOK, jsonrpcResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": string(text)},
			},
		},
	})
}

// configErrorMessage maps dispatcher configuration sentinels onto the
// caller-visible messages.
func configErrorMessage(err error, domain string) string {
	switch {
	case errors.Is(err, dispatch.ErrTargetNotConfigured):
		return fmt.Sprintf("Domain %s target not configured", domain)
	case errors.Is(err, dispatch.ErrSecretNotConfigured):
		return "Gateway secret not configured"
	default:
		return "Upstream dispatch failed"
	}
}

func (s *Server) writeRPC(w http.ResponseWriter, status int, resp jsonrpcResponse) {
	s.writeJSON(w, status, resp)
}
