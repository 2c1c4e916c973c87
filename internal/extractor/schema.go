package extractor

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// candidateSchema constrains the normalized extraction payload: required
// fields present, experience and confidence numeric, confidence in [0,1].
func candidateSchema() map[string]any {
	stringProp := map[string]any{"type": "string"}
	optionalString := map[string]any{"type": []string{"string", "number"}}

	return map[string]any{
		"type": "object",
		"required": []string{
			"candidate_name", "email", "phone", "years_of_experience",
			"skills", "education", "previous_roles", "extraction_confidence",
		},
		"properties": map[string]any{
			"candidate_name":      stringProp,
			"email":               stringProp,
			"phone":               stringProp,
			"years_of_experience": map[string]any{"type": "number", "minimum": 0},
			"skills": map[string]any{
				"type":  "array",
				"items": stringProp,
			},
			"education": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"degree":          stringProp,
						"institution":     stringProp,
						"location":        stringProp,
						"gpa":             optionalString,
						"graduation_date": stringProp,
						"duration":        stringProp,
					},
				},
			},
			"previous_roles": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"role":     stringProp,
						"company":  stringProp,
						"duration": stringProp,
					},
				},
			},
			"extraction_confidence": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		},
	}
}

// validateCandidateJSON validates the normalized payload against the
// candidate schema. Validation failure counts as an attempt failure for
// the repair protocol, same as a parse failure.
func validateCandidateJSON(data []byte) error {
	b, err := json.Marshal(candidateSchema())
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("candidate.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("candidate.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("candidate JSON does not match schema: %w", err)
	}
	return nil
}
