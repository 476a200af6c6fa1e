// ABOUTME: Canonical tool catalog advertised by the gateway.
// ABOUTME: Schemas are advertisement only; enforcement happens in the domain services.

package registry

import "encoding/json"

// Default builds the registry of all tools across both domains.
func Default() *Registry {
	r, err := New(
		ToolDefinition{
			Name:           "hello",
			Description:    "Generates a greeting message. Accepts an optional name parameter.",
			InputSchema:    json.RawMessage(`{"type":"object","properties":{"name":{"type":"string","description":"Name to greet (optional, defaults to 'World')"}}}`),
			RequiredScopes: []string{"read:greetings"},
			Domain:         "A",
		},
		ToolDefinition{
			Name:           "list-top-customers",
			Description:    "Returns top customers by spending. Requires customer read scope.",
			InputSchema:    json.RawMessage(`{"type":"object","properties":{"limit":{"type":"integer","description":"Number of customers to return (1-50, default 5)","minimum":1,"maximum":50}}}`),
			RequiredScopes: []string{"customers:read"},
			Domain:         "A",
		},
		ToolDefinition{
			Name:           "sum",
			Description:    "Calculates the sum of two numbers.",
			InputSchema:    json.RawMessage(`{"type":"object","properties":{"a":{"type":"number","description":"First number"},"b":{"type":"number","description":"Second number"}},"required":["a","b"]}`),
			RequiredScopes: []string{"math:execute"},
			Domain:         "B",
		},
		ToolDefinition{
			Name:           "normalize-text",
			Description:    "Normalizes text to lower, upper, or title case.",
			InputSchema:    json.RawMessage(`{"type":"object","properties":{"text":{"type":"string","description":"Text to normalize"},"mode":{"type":"string","enum":["lower","upper","title"],"description":"Normalization mode"}},"required":["text","mode"]}`),
			RequiredScopes: []string{"text:transform"},
			Domain:         "B",
		},
	)
	if err != nil {
		// The default catalog is defined above; a construction failure is a
		// programming error, not a runtime condition.
		panic(err)
	}
	return r
}
