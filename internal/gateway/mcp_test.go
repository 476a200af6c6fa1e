// ABOUTME: Tests for the JSON-RPC adapter: method dispatch, error translation, content blocks.

package gateway

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/toolgate/internal/dispatch"
	"github.com/2389/toolgate/internal/domain"
)

// mcpPost sends a JSON-RPC request to /mcp with the given scopes header.
func mcpPost(t *testing.T, handler http.Handler, body map[string]any, scopes string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if scopes != "" {
		req.Header.Set("x-scopes", scopes)
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func rpcError(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected a JSON-RPC error, got %v", body)
	return errObj
}

func TestMCPDescriptor(t *testing.T) {
	handler := newTestGateway(t, defaultOpts(t))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/mcp", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "jsonrpc-2.0", body["protocol"])
	assert.Equal(t, []any{"tools/list", "tools/call"}, body["methods"])
}

func TestMCPToolsList(t *testing.T) {
	handler := newTestGateway(t, defaultOpts(t))

	rr := mcpPost(t, handler, map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/list",
	}, "")

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "2.0", body["jsonrpc"])
	assert.Equal(t, float64(1), body["id"])

	tools := body["result"].(map[string]any)["tools"].([]any)
	require.Len(t, tools, 4)

	names := make([]string, len(tools))
	for i, tl := range tools {
		entry := tl.(map[string]any)
		names[i] = entry["name"].(string)
		assert.NotNil(t, entry["inputSchema"], "tool %s must carry a schema", names[i])
	}
	assert.Equal(t, []string{"hello", "list-top-customers", "sum", "normalize-text"}, names)
}

func TestMCPToolsCallSuccess(t *testing.T) {
	handler := newTestGateway(t, defaultOpts(t))

	rr := mcpPost(t, handler, map[string]any{
		"jsonrpc": "2.0",
		"id":      7,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      "sum",
			"arguments": map[string]any{"a": 2, "b": 3},
		},
	}, "math:execute")

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, float64(7), body["id"])
	require.Nil(t, body["error"])

	content := body["result"].(map[string]any)["content"].([]any)
	require.Len(t, content, 1)
	block := content[0].(map[string]any)
	assert.Equal(t, "text", block["type"])

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(block["text"].(string)), &payload))
	assert.Equal(t, float64(5), payload["result"])
	assert.Equal(t, float64(2), payload["a"])
	assert.Equal(t, float64(3), payload["b"])
}

func TestMCPToolsCallUnknownTool(t *testing.T) {
	handler := newTestGateway(t, defaultOpts(t))

	rr := mcpPost(t, handler, map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": "bogus"},
	}, "")

	require.Equal(t, http.StatusNotFound, rr.Code)
	errObj := rpcError(t, decodeBody(t, rr))
	assert.Equal(t, float64(-32601), errObj["code"])
	assert.Equal(t, "Tool 'bogus' not found", errObj["message"])

	data := errObj["data"].(map[string]any)
	assert.Equal(t, "TOOL_NOT_FOUND", data["code"])
	assert.Len(t, data["availableTools"], 4)
}

func TestMCPToolsCallMissingScopes(t *testing.T) {
	handler := newTestGateway(t, defaultOpts(t))

	rr := mcpPost(t, handler, map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      "list-top-customers",
			"arguments": map[string]any{"limit": 3},
		},
	}, "read:greetings")

	require.Equal(t, http.StatusForbidden, rr.Code)
	errObj := rpcError(t, decodeBody(t, rr))
	assert.Equal(t, float64(-32602), errObj["code"])
	assert.Equal(t, "Missing required scopes: customers:read", errObj["message"])

	data := errObj["data"].(map[string]any)
	assert.Equal(t, "SCOPE_MISSING", data["code"])
	assert.Equal(t, []any{"customers:read"}, data["required"])
	assert.Equal(t, []any{"read:greetings"}, data["provided"])
}

func TestMCPToolsCallExtraScopesStillPass(t *testing.T) {
	// Containment, not equality: holding more scopes than required is fine.
	handler := newTestGateway(t, defaultOpts(t))

	rr := mcpPost(t, handler, map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      "hello",
			"arguments": map[string]any{"name": "Ada"},
		},
	}, "read:greetings, customers:read, math:execute")

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	require.Nil(t, body["error"])
}

func TestMCPToolsCallTargetNotConfigured(t *testing.T) {
	opts := defaultOpts(t)
	delete(opts.targets, "A")
	handler := newTestGateway(t, opts)

	rr := mcpPost(t, handler, map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      "hello",
			"arguments": map[string]any{},
		},
	}, "read:greetings")

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	errObj := rpcError(t, decodeBody(t, rr))
	assert.Equal(t, float64(-32603), errObj["code"])
	assert.Equal(t, "Domain A target not configured", errObj["message"])
	assert.Equal(t, "UPSTREAM_ERROR", errObj["data"].(map[string]any)["code"])
}

func TestMCPToolsCallSecretNotConfigured(t *testing.T) {
	opts := defaultOpts(t)
	opts.secret = ""
	handler := newTestGateway(t, opts)

	rr := mcpPost(t, handler, map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      "sum",
			"arguments": map[string]any{"a": 1, "b": 2},
		},
	}, "math:execute")

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	errObj := rpcError(t, decodeBody(t, rr))
	assert.Equal(t, "Gateway secret not configured", errObj["message"])
}

func TestMCPToolsCallUpstreamFailureKeeps200(t *testing.T) {
	handler := newTestGateway(t, defaultOpts(t))

	// sum without operands fails validation at the domain service; the
	// JSON-RPC adapter relays it on the error channel without forcing an
	// HTTP error status.
	rr := mcpPost(t, handler, map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      "sum",
			"arguments": map[string]any{"a": 1},
		},
	}, "math:execute")

	require.Equal(t, http.StatusOK, rr.Code)
	errObj := rpcError(t, decodeBody(t, rr))
	assert.Equal(t, float64(-32603), errObj["code"])
	assert.Equal(t, "Tool input validation failed", errObj["message"])

	data := errObj["data"].(map[string]any)
	assert.Equal(t, "VALIDATION_ERROR", data["code"])
	assert.NotNil(t, data["details"])
}

func TestMCPToolsCallSecretMismatchRelayedAsUpstream(t *testing.T) {
	opts := defaultOpts(t)
	opts.targets["B"] = dispatch.Target{
		Binding: dispatch.NewHandlerBinding(domainHandler(t, domain.DomainB(), "other-secret")),
	}
	handler := newTestGateway(t, opts)

	rr := mcpPost(t, handler, map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      "sum",
			"arguments": map[string]any{"a": 1, "b": 2},
		},
	}, "math:execute")

	require.Equal(t, http.StatusOK, rr.Code)
	errObj := rpcError(t, decodeBody(t, rr))
	assert.Equal(t, float64(-32603), errObj["code"])
	assert.Equal(t, "Remote tool endpoint returned 403", errObj["message"])
	assert.Equal(t, "UPSTREAM_ERROR", errObj["data"].(map[string]any)["code"])
}

func TestMCPUnknownMethod(t *testing.T) {
	handler := newTestGateway(t, defaultOpts(t))

	rr := mcpPost(t, handler, map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "resources/list",
	}, "")

	// The error rides the JSON-RPC envelope; the HTTP status is not forced.
	require.Equal(t, http.StatusOK, rr.Code)
	errObj := rpcError(t, decodeBody(t, rr))
	assert.Equal(t, float64(-32601), errObj["code"])
	assert.Equal(t, "Unknown method: resources/list", errObj["message"])
}

func TestMCPMissingToolNameFallsToLookup(t *testing.T) {
	handler := newTestGateway(t, defaultOpts(t))

	rr := mcpPost(t, handler, map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"arguments": map[string]any{}},
	}, "")

	require.Equal(t, http.StatusNotFound, rr.Code)
	errObj := rpcError(t, decodeBody(t, rr))
	assert.Equal(t, float64(-32601), errObj["code"])

	data := errObj["data"].(map[string]any)
	assert.Equal(t, "TOOL_NOT_FOUND", data["code"])
	assert.Len(t, data["availableTools"], 4)
}

func TestMCPToolsCallOmittedArguments(t *testing.T) {
	// Absent arguments mean an empty argument map; a tool whose schema has
	// no required properties runs with its defaults.
	handler := newTestGateway(t, defaultOpts(t))

	rr := mcpPost(t, handler, map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": "hello"},
	}, "read:greetings")

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	require.Nil(t, body["error"], "omitted arguments must not fail validation")

	content := body["result"].(map[string]any)["content"].([]any)
	block := content[0].(map[string]any)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(block["text"].(string)), &payload))
	assert.Equal(t, "Hello, World! Welcome to Domain A.", payload["message"])
}

func TestMCPParseError(t *testing.T) {
	handler := newTestGateway(t, defaultOpts(t))

	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader([]byte("{bad")))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	errObj := rpcError(t, decodeBody(t, rr))
	assert.Equal(t, float64(-32700), errObj["code"])
}

func TestMCPMethodNotAllowed(t *testing.T) {
	handler := newTestGateway(t, defaultOpts(t))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/mcp", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
