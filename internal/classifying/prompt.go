package classifying

import (
	"encoding/json"
	"fmt"
	"strings"
)

// systemInstruction builds the instruction shared by all backends
func systemInstruction(shopName string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a product classification expert for %q.\n", shopName)
	sb.WriteString("Analyze the provided product image or description and categorize it into EXACTLY ONE of the following categories:\n")
	for _, c := range Categories {
		fmt.Fprintf(&sb, "- %s (%s)\n", c, c.Hint())
	}
	sb.WriteString(`
You must return your response in JSON format. Provide a likely product name, the specific category (from the list above), a confidence score (0-1), a brief reasoning for the choice, and some relevant search tags.`)
	return sb.String()
}

// schemaFields are the keys every answer must carry
var schemaFields = []string{"productName", "category", "confidence", "reasoning", "suggestedTags"}

// jsonSchema is the output schema in JSON Schema form, used by the Ollama
// and OpenAI backends
func jsonSchema() json.RawMessage {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"productName": map[string]any{
				"type":        "string",
				"description": "Likely name of the product.",
			},
			"category": map[string]any{
				"type":        "string",
				"description": "The category name exactly as defined in the list.",
				"enum":        labels(),
			},
			"confidence": map[string]any{
				"type":        "number",
				"description": "Confidence level from 0 to 1.",
				"minimum":     0,
				"maximum":     1,
			},
			"reasoning": map[string]any{
				"type":        "string",
				"description": "Reasoning for this classification.",
			},
			"suggestedTags": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Relevant search or SEO tags.",
			},
		},
		"required":             schemaFields,
		"additionalProperties": false,
	}
	data, err := json.Marshal(schema)
	if err != nil {
		panic(err)
	}
	return data
}
