package wardly

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
)

// buildParamsSchema generates the OpenAI-style parameters schema for a
// descriptor: {type: "object", properties: {...}, required: [...]}.
// Property order in JSON is undefined; the required list keeps field
// declaration order so exports are deterministic.
func buildParamsSchema(d *ToolDescriptor) map[string]any {
	props := make(map[string]any, len(d.Fields))
	var required []any
	for _, f := range d.Fields {
		props[f.Name] = fieldSchema(f)
		if f.Required {
			required = append(required, f.Name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// fieldSchema maps one FieldSpec to its JSON Schema node. Dates stay plain
// strings with format "date" so models emit YYYY-MM-DD; enums list their
// allowed values verbatim.
func fieldSchema(f FieldSpec) map[string]any {
	node := map[string]any{}
	switch f.Type {
	case FieldInteger:
		node["type"] = "integer"
	case FieldNumber:
		node["type"] = "number"
	case FieldBoolean:
		node["type"] = "boolean"
	case FieldDate:
		node["type"] = "string"
		node["format"] = "date"
	case FieldEnum:
		node["type"] = "string"
		enum := make([]any, len(f.Enum))
		for i, v := range f.Enum {
			enum[i] = v
		}
		node["enum"] = enum
	default:
		node["type"] = "string"
	}
	if f.Description != "" {
		node["description"] = f.Description
	}
	return node
}

// compileRawSchema compiles a raw JSON Schema map into a resolved validator.
// The map is not mutated.
func compileRawSchema(schemaMap map[string]any) (*jsonschema.Resolved, error) {
	data, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, err
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return s.Resolve(nil)
}

// schemaValidator validates a JSON-like value (e.g. map[string]any from
// json.Unmarshal). *jsonschema.Resolved implements it.
type schemaValidator interface {
	Validate(v any) error
}

// validateAgainstSchema checks an already-parsed argument value against a
// tool's compiled schema. Failures come back as ClientError so the message
// can go to the model for self-correction.
func validateAgainstSchema(validate schemaValidator, v any) error {
	if err := validate.Validate(v); err != nil {
		return &ClientError{Reason: err.Error(), Err: ErrValidation}
	}
	return nil
}
