// ABOUTME: Domain B tool table: arithmetic and text normalization.

package domain

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// DomainB builds the Domain B tool set: sum and normalize-text.
func DomainB() *ToolSet {
	ts, err := NewToolSet("B",
		&Tool{
			Name:        "sum",
			Description: "Calculates the sum of two numbers.",
			SchemaJSON:  `{"type":"object","properties":{"a":{"type":"number"},"b":{"type":"number"}},"required":["a","b"]}`,
			Handler:     sumTool,
		},
		&Tool{
			Name:        "normalize-text",
			Description: "Normalizes text to lower, upper, or title case.",
			SchemaJSON:  `{"type":"object","properties":{"text":{"type":"string"},"mode":{"type":"string","enum":["lower","upper","title"]}},"required":["text","mode"]}`,
			Handler:     normalizeTextTool,
		},
	)
	if err != nil {
		panic(err)
	}
	return ts
}

func sumTool(_ context.Context, input map[string]any) (map[string]any, error) {
	a, _ := input["a"].(float64)
	b, _ := input["b"].(float64)
	return map[string]any{
		"result": a + b,
		"a":      a,
		"b":      b,
	}, nil
}

func normalizeTextTool(_ context.Context, input map[string]any) (map[string]any, error) {
	text, _ := input["text"].(string)
	mode, _ := input["mode"].(string)

	var result string
	switch mode {
	case "lower":
		result = strings.ToLower(text)
	case "upper":
		result = strings.ToUpper(text)
	case "title":
		result = toTitleCase(text)
	default:
		// The schema's enum makes this unreachable; kept as a guard.
		return nil, fmt.Errorf("unknown mode '%s'", mode)
	}

	return map[string]any{
		"result":   result,
		"original": text,
		"mode":     mode,
	}, nil
}

// toTitleCase uppercases the first rune of each space-separated word and
// lowercases the rest.
func toTitleCase(text string) string {
	words := strings.Split(text, " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		for j := 1; j < len(runes); j++ {
			runes[j] = unicode.ToLower(runes[j])
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
