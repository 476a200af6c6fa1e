// ABOUTME: Domain A tool table: greeting and mock customer lookup.

package domain

import (
	"context"
	"fmt"
)

// Customer is one entry in the mock customer database.
type Customer struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	TotalSpent int    `json:"total_spent"`
}

// mockCustomers is the canonical customer list, in registration order.
var mockCustomers = []Customer{
	{ID: "cust_001", Name: "Acme Corp", TotalSpent: 125000},
	{ID: "cust_002", Name: "TechStart Inc", TotalSpent: 87500},
	{ID: "cust_003", Name: "Global Solutions", TotalSpent: 234000},
	{ID: "cust_004", Name: "CloudFirst Ltd", TotalSpent: 156000},
	{ID: "cust_005", Name: "DataPro Systems", TotalSpent: 198500},
	{ID: "cust_006", Name: "NextGen AI", TotalSpent: 267000},
}

// DomainA builds the Domain A tool set: hello and list-top-customers.
func DomainA() *ToolSet {
	ts, err := NewToolSet("A",
		&Tool{
			Name:        "hello",
			Description: "Generates a greeting message. Accepts an optional name parameter.",
			SchemaJSON:  `{"type":"object","properties":{"name":{"type":"string"}}}`,
			Handler:     helloTool,
		},
		&Tool{
			Name:        "list-top-customers",
			Description: "Returns top customers by spending. Requires customer read scope.",
			SchemaJSON:  `{"type":"object","properties":{"limit":{"type":"integer","minimum":1,"maximum":50}}}`,
			Handler:     listTopCustomersTool,
		},
	)
	if err != nil {
		panic(err)
	}
	return ts
}

func helloTool(_ context.Context, input map[string]any) (map[string]any, error) {
	name := "World"
	if v, ok := input["name"].(string); ok && v != "" {
		name = v
	}
	return map[string]any{
		"message": fmt.Sprintf("Hello, %s! Welcome to Domain A.", name),
	}, nil
}

func listTopCustomersTool(_ context.Context, input map[string]any) (map[string]any, error) {
	// Schema bounds limit to 1..50; out-of-range values are a validation
	// failure upstream of this handler, never silently clamped here.
	limit := 5
	if v, ok := input["limit"].(float64); ok {
		limit = int(v)
	}
	if limit > len(mockCustomers) {
		limit = len(mockCustomers)
	}

	customers := make([]Customer, limit)
	copy(customers, mockCustomers[:limit])

	return map[string]any{
		"customers": customers,
		"count":     len(customers),
	}, nil
}
