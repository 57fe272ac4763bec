package scenario

import (
	"bytes"
	"encoding/json"
	"fmt"

	_ "embed"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema/scenario-v1.json
var scenarioSchemaJSON string

// Validator checks scenario documents against the embedded schema before
// they are turned into devices.
type Validator struct {
	schema *jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()

	if err := compiler.AddResource("scenario-v1.json",
		bytes.NewReader([]byte(scenarioSchemaJSON))); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	schema, err := compiler.Compile("scenario-v1.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// ValidateDocument validates raw scenario YAML. The document is decoded to a
// generic value and round-tripped through JSON so the schema sees the number
// types it expects.
func (v *Validator) ValidateDocument(data []byte) error {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}

	encoded, err := json.Marshal(normalize(raw))
	if err != nil {
		return fmt.Errorf("failed to normalize document: %w", err)
	}
	var generic interface{}
	if err := json.Unmarshal(encoded, &generic); err != nil {
		return fmt.Errorf("failed to normalize document: %w", err)
	}

	if err := v.schema.Validate(generic); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// normalize rewrites YAML maps into JSON-marshalable form. Scenario device
// ids are integer keys on disk and must become string keys.
func normalize(value interface{}) interface{} {
	switch typed := value.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(typed))
		for key, inner := range typed {
			result[key] = normalize(inner)
		}
		return result
	case map[interface{}]interface{}:
		result := make(map[string]interface{}, len(typed))
		for key, inner := range typed {
			result[fmt.Sprintf("%v", key)] = normalize(inner)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(typed))
		for i, inner := range typed {
			result[i] = normalize(inner)
		}
		return result
	default:
		return value
	}
}
