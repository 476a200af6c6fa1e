// ABOUTME: Static tool registry mapping tool names to metadata and owning domains.
// ABOUTME: Built once at startup, read-only afterwards, safe for concurrent readers.

package registry

import (
	"encoding/json"
	"fmt"
)

// ToolDefinition describes a tool the gateway advertises and routes.
type ToolDefinition struct {
	Name           string
	Description    string
	InputSchema    json.RawMessage
	RequiredScopes []string
	Domain         string
}

// Registry holds the process-wide tool catalog. Entries are immutable for the
// process lifetime; listing preserves registration order.
type Registry struct {
	tools  []ToolDefinition
	byName map[string]int
}

// New builds a registry from the given definitions. Tool names must be unique
// and every tool must name its owning domain.
func New(tools ...ToolDefinition) (*Registry, error) {
	r := &Registry{
		tools:  make([]ToolDefinition, 0, len(tools)),
		byName: make(map[string]int, len(tools)),
	}
	for _, tool := range tools {
		if tool.Name == "" {
			return nil, fmt.Errorf("tool with empty name")
		}
		if tool.Domain == "" {
			return nil, fmt.Errorf("tool '%s' has no owning domain", tool.Name)
		}
		if _, exists := r.byName[tool.Name]; exists {
			return nil, fmt.Errorf("duplicate tool name '%s'", tool.Name)
		}
		r.byName[tool.Name] = len(r.tools)
		r.tools = append(r.tools, tool)
	}
	return r, nil
}

// GetAllTools returns every tool in registration order. The returned slice is
// a copy; callers may not mutate registry state through it.
func (r *Registry) GetAllTools() []ToolDefinition {
	out := make([]ToolDefinition, len(r.tools))
	copy(out, r.tools)
	return out
}

// GetToolByName looks up a tool. Absence is a valid outcome, not an error.
func (r *Registry) GetToolByName(name string) (ToolDefinition, bool) {
	i, ok := r.byName[name]
	if !ok {
		return ToolDefinition{}, false
	}
	return r.tools[i], true
}

// ToolNames returns all tool names in registration order.
func (r *Registry) ToolNames() []string {
	names := make([]string, len(r.tools))
	for i, tool := range r.tools {
		names[i] = tool.Name
	}
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.tools)
}
