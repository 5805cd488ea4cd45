package schema

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// FieldError is one field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries the field-level details of a payload validation
// failure; handlers render it as a structured 400.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "payload validation failed"
	}
	return fmt.Sprintf("payload validation failed: %s: %s", e.Fields[0].Field, e.Fields[0].Message)
}

// JSONSchema builds a JSON Schema document from a table's column schema.
// Row payloads are maps of column name to value.
func JSONSchema(columns []Column) map[string]any {
	properties := make(map[string]any, len(columns))
	var required []string

	for _, col := range columns {
		properties[col.Name] = propertySchema(col.Type)
		if col.Required {
			required = append(required, col.Name)
		}
	}

	doc := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	return doc
}

func propertySchema(t ColumnType) map[string]any {
	nullable := func(kind ...string) map[string]any {
		return map[string]any{"type": append(kind, "null")}
	}

	switch t {
	case TypeEmail:
		s := nullable("string")
		s["format"] = "email"
		return s
	case TypeURL:
		s := nullable("string")
		s["format"] = "uri"
		return s
	case TypeNumber, TypeDecimal:
		return nullable("number")
	case TypeInteger:
		return nullable("integer")
	case TypeBoolean:
		return nullable("boolean")
	case TypeDate, TypeDateTime:
		return nullable("string", "number")
	case TypeReference:
		return nullable("string", "array", "integer")
	case TypeCustomArray:
		return nullable("array", "string")
	default:
		return nullable("string")
	}
}

// ValidatePayload checks a row payload against the table's generated JSON
// Schema. A nil return means the payload is valid; validation failures come
// back as a *ValidationError with per-field messages.
func ValidatePayload(columns []Column, payload map[string]any) error {
	schemaLoader := gojsonschema.NewGoLoader(JSONSchema(columns))
	documentLoader := gojsonschema.NewGoLoader(payload)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("failed to validate payload: %w", err)
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{}
	for _, desc := range result.Errors() {
		verr.Fields = append(verr.Fields, FieldError{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}
	return verr
}
