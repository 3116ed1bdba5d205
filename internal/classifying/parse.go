package classifying

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseAnalysisJSON parses the JSON answer of a model. An empty answer is
// read as an empty object. In strict mode the result must also satisfy the
// output schema.
func parseAnalysisJSON(text string, strict bool) (*AnalysisResult, error) {
	text = strings.TrimSpace(text)

	// Remove markdown code blocks if present
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if text == "" {
		text = "{}"
	}

	var result AnalysisResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	result.ProductName = strings.TrimSpace(result.ProductName)
	result.Reasoning = strings.TrimSpace(result.Reasoning)
	if result.SuggestedTags == nil {
		result.SuggestedTags = []string{}
	}

	if strict {
		if err := validateResult(&result); err != nil {
			return nil, err
		}
	}

	return &result, nil
}

func validateResult(r *AnalysisResult) error {
	if !r.Category.Valid() {
		return fmt.Errorf("%w: category %q is not allowed", ErrSchemaViolation, r.Category)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v is outside [0,1]", ErrSchemaViolation, r.Confidence)
	}
	if r.ProductName == "" {
		return fmt.Errorf("%w: productName is empty", ErrSchemaViolation)
	}
	return nil
}
