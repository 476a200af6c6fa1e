// ABOUTME: Tool tables for domain services with schema-validated invocation.
// ABOUTME: Validates input once at the edge, then hands typed maps to pure handlers.

package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrToolNotFound indicates the tool name is not in this domain's table.
var ErrToolNotFound = errors.New("tool not found")

// ValidationError reports a schema validation failure with field-level details.
type ValidationError struct {
	Details any
	cause   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("tool input validation failed: %v", e.cause)
}

func (e *ValidationError) Unwrap() error {
	return e.cause
}

// Handler executes a tool against schema-validated input.
type Handler func(ctx context.Context, input map[string]any) (map[string]any, error)

// Tool is one entry in a domain's tool table.
type Tool struct {
	Name        string
	Description string
	SchemaJSON  string
	Handler     Handler

	schema *jsonschema.Schema
}

// ToolSet is a domain's own tool catalog, disjoint from the gateway registry.
// Each domain owns its catalog; the duplication is intentional.
type ToolSet struct {
	Domain string
	tools  map[string]*Tool
	names  []string
}

// NewToolSet compiles each tool's input schema and builds the lookup table.
func NewToolSet(domainID string, tools ...*Tool) (*ToolSet, error) {
	ts := &ToolSet{
		Domain: domainID,
		tools:  make(map[string]*Tool, len(tools)),
		names:  make([]string, 0, len(tools)),
	}

	for _, tool := range tools {
		if _, exists := ts.tools[tool.Name]; exists {
			return nil, fmt.Errorf("duplicate tool '%s' in domain %s", tool.Name, domainID)
		}

		var doc any
		if err := json.Unmarshal([]byte(tool.SchemaJSON), &doc); err != nil {
			return nil, fmt.Errorf("tool '%s': parsing schema: %w", tool.Name, err)
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("schema.json", doc); err != nil {
			return nil, fmt.Errorf("tool '%s': adding schema resource: %w", tool.Name, err)
		}
		schema, err := compiler.Compile("schema.json")
		if err != nil {
			return nil, fmt.Errorf("tool '%s': compiling schema: %w", tool.Name, err)
		}

		tool.schema = schema
		ts.tools[tool.Name] = tool
		ts.names = append(ts.names, tool.Name)
	}

	return ts, nil
}

// ToolNames lists the tools in registration order.
func (ts *ToolSet) ToolNames() []string {
	names := make([]string, len(ts.names))
	copy(names, ts.names)
	return names
}

// Invoke validates the input against the named tool's schema and executes it.
// Returns ErrToolNotFound for unknown names and *ValidationError for schema
// failures; any other error is an execution failure.
func (ts *ToolSet) Invoke(ctx context.Context, name string, input map[string]any) (map[string]any, error) {
	tool, ok := ts.tools[name]
	if !ok {
		return nil, fmt.Errorf("'%s': %w", name, ErrToolNotFound)
	}

	// The schema validator needs a decoded JSON value; the input map already is one.
	if err := tool.schema.Validate(toJSONValue(input)); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return nil, &ValidationError{Details: ve.BasicOutput(), cause: ve}
		}
		return nil, err
	}

	return tool.Handler(ctx, input)
}

// toJSONValue normalizes an input map for schema validation. Values decoded by
// encoding/json are already in the validator's expected shape; a nil map
// validates as an empty object.
func toJSONValue(input map[string]any) any {
	if input == nil {
		return map[string]any{}
	}
	return input
}
