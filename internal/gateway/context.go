// ABOUTME: Per-request call context extraction from trusted gateway headers.
// ABOUTME: Builds the RPCContext forwarded to domain services on every call.

package gateway

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/2389/toolgate/internal/envelope"
)

// ExtractContext builds the call context from request headers. Identity
// headers are taken at face value; the gateway sits behind an authenticating
// edge and performs containment checks, not authentication. The request ID is
// always generated here, never accepted from the caller.
func ExtractContext(r *http.Request) *envelope.RPCContext {
	return &envelope.RPCContext{
		TenantID:  r.Header.Get("x-tenant-id"),
		ActorID:   r.Header.Get("x-actor-id"),
		Scopes:    parseHeaderList(r.Header.Get("x-scopes")),
		RequestID: uuid.New().String(),
	}
}

// parseHeaderList splits a comma-separated header value, trimming whitespace
// and dropping empty segments. An absent header yields an empty, non-nil set.
func parseHeaderList(value string) []string {
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// originAllowed implements the browser-origin gate for the REST call
// endpoint. Requests without an Origin header are never blocked; this is a
// CSRF-style mitigation for browser calls, not a substitute for token auth.
// The gate fails closed: with no allowlist entries configured, any request
// carrying an Origin header is rejected.
func originAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return true
	}
	lowerOrigin := strings.ToLower(origin)
	for _, entry := range allowed {
		if entry == "" {
			continue
		}
		if strings.Contains(lowerOrigin, strings.ToLower(entry)) {
			return true
		}
	}
	return false
}
