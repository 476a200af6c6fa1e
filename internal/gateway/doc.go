// Package gateway implements the protocol-translating gateway front end.
//
// Two adapters share one pipeline. The JSON-RPC 2.0 adapter on /mcp serves
// tools/list and tools/call; the REST adapter serves GET /tools and POST
// /tools/:name/call. Both run registry lookup, the scope containment gate,
// and upstream dispatch, then translate the outcome into their own wire
// envelope and status mapping.
//
// The gateway does not authenticate callers. It trusts the x-tenant-id,
// x-actor-id, and x-scopes headers placed by an authenticating edge in front
// of it, and enforces containment of each tool's required scopes in the
// caller's declared set. Request IDs are always generated here and are never
// accepted from the caller.
package gateway
