package config

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaSource string

var documentSchema = jsonschema.MustCompileString("config.schema.json", schemaSource)

// Schema returns the raw JSON schema for configuration documents.
func Schema() []byte {
	return []byte(schemaSource)
}

// ValidateDocument checks a raw configuration document against the embedded
// schema. It catches misspelled keys and wrong value kinds that a plain
// decode into Config would silently ignore.
func ValidateDocument(data []byte, format Format) error {
	var doc any
	switch format {
	case FormatYAML:
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("decode yaml document: %w", err)
		}
		if raw == nil {
			return nil
		}
		// Round trip through JSON so the validator sees JSON value kinds.
		encoded, err := json.Marshal(raw)
		if err != nil {
			return fmt.Errorf("normalise yaml document: %w", err)
		}
		if err := json.Unmarshal(encoded, &doc); err != nil {
			return fmt.Errorf("normalise yaml document: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("decode json document: %w", err)
		}
	}
	if err := documentSchema.Validate(doc); err != nil {
		return err
	}
	return nil
}
