// ABOUTME: Tests for the domain service HTTP surface: token guard, invoke flow, error mapping.

package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/2389/toolgate/internal/envelope"
)

const testSecret = "test-secret"

func setupTestServer(t *testing.T, ts *ToolSet) *http.ServeMux {
	t.Helper()
	server, err := NewServer(Config{
		ToolSet: ts,
		Secret:  testSecret,
		Logger:  slog.Default(),
	})
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	mux := http.NewServeMux()
	server.RegisterRoutes(mux)
	return mux
}

func invoke(t *testing.T, mux *http.ServeMux, tool, token string, body any) (*httptest.ResponseRecorder, *envelope.RPCResponse) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/tools/"+tool+"/invoke", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("x-gateway-token", token)
	}

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	var resp envelope.RPCResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return rr, &resp
}

func TestInvokeTokenGuard(t *testing.T) {
	mux := setupTestServer(t, DomainB())

	t.Run("missing token", func(t *testing.T) {
		rr, resp := invoke(t, mux, "sum", "", envelope.RPCRequest{Input: map[string]any{"a": 2, "b": 3}})
		if rr.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rr.Code)
		}
		if resp.Error == nil || resp.Error.Code != envelope.CodeForbidden {
			t.Errorf("expected FORBIDDEN, got %+v", resp.Error)
		}
	})

	t.Run("wrong token", func(t *testing.T) {
		rr, resp := invoke(t, mux, "sum", "not-the-secret", envelope.RPCRequest{Input: map[string]any{"a": 2, "b": 3}})
		if rr.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rr.Code)
		}
		if resp.Error.Code != envelope.CodeForbidden {
			t.Errorf("expected FORBIDDEN, got %s", resp.Error.Code)
		}
	})
}

func TestInvokeSuccess(t *testing.T) {
	mux := setupTestServer(t, DomainB())

	rr, resp := invoke(t, mux, "sum", testSecret, envelope.RPCRequest{
		Input:   map[string]any{"a": 2, "b": 3},
		Context: &envelope.RPCContext{RequestID: "req-1", Scopes: []string{"math:execute"}},
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !resp.OK {
		t.Fatalf("expected ok response, got %+v", resp.Error)
	}
	if resp.Data["result"] != float64(5) {
		t.Errorf("expected result 5, got %v", resp.Data["result"])
	}
}

func TestInvokeUnknownTool(t *testing.T) {
	mux := setupTestServer(t, DomainB())

	rr, resp := invoke(t, mux, "hello", testSecret, envelope.RPCRequest{Input: map[string]any{}})
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
	if resp.Error.Code != envelope.CodeToolNotFound {
		t.Errorf("expected TOOL_NOT_FOUND, got %s", resp.Error.Code)
	}
	if resp.Error.Message != "Tool 'hello' not found in Domain B" {
		t.Errorf("unexpected message: %s", resp.Error.Message)
	}
}

func TestInvokeValidationFailure(t *testing.T) {
	mux := setupTestServer(t, DomainA())

	rr, resp := invoke(t, mux, "list-top-customers", testSecret,
		envelope.RPCRequest{Input: map[string]any{"limit": 51}})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
	if resp.Error.Code != envelope.CodeValidationError {
		t.Errorf("expected VALIDATION_ERROR, got %s", resp.Error.Code)
	}
	if resp.Error.Details == nil {
		t.Error("expected field-level details")
	}
}

func TestInvokeMissingInput(t *testing.T) {
	mux := setupTestServer(t, DomainB())

	rr, resp := invoke(t, mux, "sum", testSecret, map[string]any{"context": nil})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
	if resp.Error.Code != envelope.CodeValidationError {
		t.Errorf("expected VALIDATION_ERROR, got %s", resp.Error.Code)
	}
}

func TestInvokeMalformedJSON(t *testing.T) {
	mux := setupTestServer(t, DomainB())

	req := httptest.NewRequest(http.MethodPost, "/tools/sum/invoke", bytes.NewReader([]byte("{not json")))
	req.Header.Set("x-gateway-token", testSecret)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rr.Code)
	}
	var resp envelope.RPCResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error.Code != envelope.CodeUpstreamError {
		t.Errorf("expected UPSTREAM_ERROR, got %s", resp.Error.Code)
	}
}

func TestInvokePanicRecovery(t *testing.T) {
	ts, err := NewToolSet("X", &Tool{
		Name:       "explode",
		SchemaJSON: `{"type":"object"}`,
		Handler: func(context.Context, map[string]any) (map[string]any, error) {
			panic("boom")
		},
	})
	if err != nil {
		t.Fatalf("building tool set: %v", err)
	}
	mux := setupTestServer(t, ts)

	rr, resp := invoke(t, mux, "explode", testSecret, envelope.RPCRequest{Input: map[string]any{}})
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rr.Code)
	}
	if resp.Error.Code != envelope.CodeUpstreamError {
		t.Errorf("expected UPSTREAM_ERROR, got %s", resp.Error.Code)
	}
}

func TestInvokeMethodNotAllowed(t *testing.T) {
	mux := setupTestServer(t, DomainB())

	req := httptest.NewRequest(http.MethodGet, "/tools/sum/invoke", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rr.Code)
	}
}

func TestHealthAndRoot(t *testing.T) {
	mux := setupTestServer(t, DomainA())

	t.Run("health", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		var body map[string]any
		if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["status"] != "ok" || body["domain"] != "A" {
			t.Errorf("unexpected health body: %v", body)
		}
		if body["timestamp"] == "" {
			t.Error("expected a timestamp")
		}
	})

	t.Run("root lists tools", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		var body map[string]any
		if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		tools := body["tools"].([]any)
		if len(tools) != 2 {
			t.Errorf("expected 2 tools, got %v", tools)
		}
	})
}

func TestInvokePathTool(t *testing.T) {
	cases := []struct {
		path string
		want string
		ok   bool
	}{
		{"/tools/sum/invoke", "sum", true},
		{"/tools/normalize-text/invoke", "normalize-text", true},
		{"/tools//invoke", "", false},
		{"/tools/a/b/invoke", "", false},
		{"/tools/sum", "", false},
		{"/other", "", false},
	}
	for _, tc := range cases {
		got, ok := invokePathTool(tc.path)
		if got != tc.want || ok != tc.ok {
			t.Errorf("invokePathTool(%q) = (%q, %v), want (%q, %v)", tc.path, got, ok, tc.want, tc.ok)
		}
	}
}
