// Package registry provides the static tool catalog and the scope gate.
//
// The registry is constructed once at process start and never mutated, so it
// needs no locking and is safe for unlimited concurrent readers. Each tool
// belongs to exactly one domain; tool names are unique across the catalog.
//
// Input schemas held here are advertisement only. The gateway never validates
// inputs against them; validation happens at the owning domain tool service,
// which keeps its own disjoint tool table.
package registry
