package llm

import "encoding/json"

// BuildCandidateJSONSchema returns the JSON-Schema (draft 2020-12 subset) for
// the stage-1 candidate payload as a generic map. It is embedded in the prompt
// and also used locally to validate the salvaged response.
func BuildCandidateJSONSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"products": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"product_name":       map[string]any{"type": "string"},
						"variant_identifier": map[string]any{"type": "string"},
						"product_family":     map[string]any{"type": "string"},
						"manufacturer":       map[string]any{"type": "string"},
					},
					"required": []string{"product_name", "variant_identifier", "product_family", "manufacturer"},
				},
			},
			"confidence_score": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
			"annotation_type": map[string]any{
				"type": "string",
				"enum": []string{"highlight", "box", "circle", "none", "unknown"},
			},
			"page_numbers": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "integer"},
			},
		},
		"required": []string{"products"},
	}
}

// BuildSelectionJSONSchema returns the JSON-Schema for the stage-2 judgment
// payload: an index set plus a free-text evidence string.
func BuildSelectionJSONSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"selected_ids": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "integer"},
			},
			"evidence": map[string]any{"type": "string"},
		},
		"required": []string{"selected_ids", "evidence"},
	}
}

// MustJSON renders v as indented JSON for embedding in prompts.
func MustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
