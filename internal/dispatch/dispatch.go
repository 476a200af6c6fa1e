// ABOUTME: Upstream dispatcher that forwards authorized tool calls to domain services.
// ABOUTME: Selects a transport per domain and normalizes every outcome into the RPC envelope.

package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/2389/toolgate/internal/envelope"
)

// ErrTargetNotConfigured indicates the tool's domain has neither a transport
// binding nor a public base URL. This is a configuration error, not a
// transient failure, and must not be retried.
var ErrTargetNotConfigured = errors.New("domain target not configured")

// ErrSecretNotConfigured indicates no shared secret is configured, so no
// domain service would accept the call.
var ErrSecretNotConfigured = errors.New("gateway secret not configured")

// DefaultTimeout bounds a single upstream call. There are no retries, so a
// hang would otherwise be user-visible as a stalled request.
const DefaultTimeout = 10 * time.Second

// Target describes how to reach one domain's tool service. When both are set,
// the binding takes priority over the public URL.
type Target struct {
	Binding http.RoundTripper
	BaseURL string
}

// TargetStatus is the per-domain configuration summary exposed for diagnostics.
type TargetStatus struct {
	URL        string `json:"url,omitempty"`
	HasBinding bool   `json:"binding"`
}

// Config holds dispatcher construction parameters.
type Config struct {
	Targets map[string]Target
	Secret  string
	Timeout time.Duration
	Logger  *slog.Logger
}

// Dispatcher performs single-attempt, fail-fast calls to domain tool services.
type Dispatcher struct {
	targets map[string]Target
	secret  string
	client  *http.Client
	logger  *slog.Logger
	timeout time.Duration
}

// New creates a Dispatcher. A missing secret or empty target set is not an
// error here; those conditions fail individual calls at dispatch time.
func New(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	targets := make(map[string]Target, len(cfg.Targets))
	for domain, target := range cfg.Targets {
		targets[domain] = target
	}

	return &Dispatcher{
		targets: targets,
		secret:  cfg.Secret,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		timeout: timeout,
	}
}

// Dispatch forwards a tool call to the owning domain's service and returns the
// normalized outcome. The returned error is non-nil only for configuration
// gaps (ErrTargetNotConfigured, ErrSecretNotConfigured); every transport or
// upstream failure is converted into an UPSTREAM_ERROR response instead.
func (d *Dispatcher) Dispatch(ctx context.Context, domain, toolName string, input map[string]any, rc *envelope.RPCContext) (*envelope.RPCResponse, error) {
	target, ok := d.targets[domain]
	if !ok || (target.Binding == nil && target.BaseURL == "") {
		return nil, fmt.Errorf("domain %s: %w", domain, ErrTargetNotConfigured)
	}
	if d.secret == "" {
		return nil, ErrSecretNotConfigured
	}

	endpointPath := "/tools/" + toolName + "/invoke"

	// Transport selection: binding first, public URL second.
	client := d.client
	endpoint := target.BaseURL + endpointPath
	if target.Binding != nil {
		client = &http.Client{Transport: target.Binding, Timeout: d.timeout}
		endpoint = "http://" + BindingHost + endpointPath
	}

	body, err := json.Marshal(envelope.RPCRequest{Input: input, Context: rc})
	if err != nil {
		return envelope.ErrDetails(envelope.CodeUpstreamError,
			"Failed to reach remote tool endpoint", err.Error()), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return envelope.ErrDetails(envelope.CodeUpstreamError,
			"Failed to reach remote tool endpoint", err.Error()), nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-gateway-token", d.secret)

	resp, err := client.Do(req)
	if err != nil {
		d.logger.Warn("upstream call failed",
			"domain", domain,
			"tool", toolName,
			"request_id", requestID(rc),
			"error", err,
		)
		return envelope.ErrDetails(envelope.CodeUpstreamError,
			"Failed to reach remote tool endpoint", err.Error()), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		d.logger.Warn("upstream returned non-2xx",
			"domain", domain,
			"tool", toolName,
			"request_id", requestID(rc),
			"status", resp.StatusCode,
		)
		return envelope.ErrDetails(envelope.CodeUpstreamError,
			fmt.Sprintf("Remote tool endpoint returned %d", resp.StatusCode),
			string(detail)), nil
	}

	var rpcResp envelope.RPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return envelope.ErrDetails(envelope.CodeUpstreamError,
			"Failed to reach remote tool endpoint", err.Error()), nil
	}

	// The domain service's own ok/error discriminant passes through verbatim.
	return &rpcResp, nil
}

// Targets returns per-domain configuration status for the root endpoint.
func (d *Dispatcher) Targets() map[string]TargetStatus {
	out := make(map[string]TargetStatus, len(d.targets))
	for domain, target := range d.targets {
		out[domain] = TargetStatus{
			URL:        target.BaseURL,
			HasBinding: target.Binding != nil,
		}
	}
	return out
}

// HasSecret reports whether a shared secret is configured.
func (d *Dispatcher) HasSecret() bool {
	return d.secret != ""
}

func requestID(rc *envelope.RPCContext) string {
	if rc == nil {
		return ""
	}
	return rc.RequestID
}
