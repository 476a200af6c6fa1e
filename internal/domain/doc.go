// Package domain implements the per-domain tool executor services.
//
// Each domain service exposes exactly one operation, POST
// /tools/{name}/invoke, guarded by the x-gateway-token shared secret. The
// service owns its tool table, validates input against each tool's JSON
// Schema, and executes the tool as a pure function from validated input to a
// result map. Validation happens once at the edge; handlers operate on input
// that already satisfies the schema and only fill in defaults.
package domain
