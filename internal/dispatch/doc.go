// Package dispatch forwards tool calls from the gateway to domain services.
//
// Each domain is reached through a Target: a transport binding (preferred,
// avoids any public network hop) or a public base URL. Transport selection is
// an ordered fallback, and a domain with neither configured fails immediately
// without a network attempt.
//
// Calls are single-attempt and fail-fast. Tool execution carries no
// idempotency guarantee, so the dispatcher never retries; it bounds each call
// with a timeout and propagates the inbound request context so a dropped
// client cancels upstream work.
package dispatch
