package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/feichai0017/docintel/internal/models"
)

// BuildClassificationSchema constrains the model's answer to the taxonomy
func BuildClassificationSchema(taxonomy []models.DocumentType) map[string]any {
	typeNames := make([]string, 0, len(taxonomy))
	subNames := make([]string, 0)
	seenSub := make(map[string]bool)
	for _, t := range taxonomy {
		typeNames = append(typeNames, t.Name)
		for _, s := range t.SubTypes {
			if !seenSub[s.Name] {
				seenSub[s.Name] = true
				subNames = append(subNames, s.Name)
			}
		}
	}

	// the model answers "" when the type has no sub-types
	subNames = append(subNames, "")

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"type":       map[string]any{"type": "string", "enum": typeNames},
			"subType":    map[string]any{"type": "string", "enum": subNames},
			"confidence": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
			"reasoning":  map[string]any{"type": "string"},
		},
		"required": []string{"type", "subType", "confidence"},
	}
}

// ValidateJSONAgainstSchema validates data against schemaMap
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("classification.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("classification.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
