package schema

import (
	"errors"
	"testing"
)

var validateColumns = []Column{
	{ID: 1, Name: "name", Type: TypeText, Required: true},
	{ID: 2, Name: "age", Type: TypeInteger},
	{ID: 3, Name: "email", Type: TypeEmail},
	{ID: 4, Name: "active", Type: TypeBoolean},
	{ID: 5, Name: "tags", Type: TypeCustomArray},
}

func TestValidatePayloadAccepts(t *testing.T) {
	payloads := []map[string]any{
		{"name": "John", "age": 25, "email": "john@example.com", "active": true},
		{"name": "John"},
		{"name": "John", "age": nil, "email": nil},
		{"name": "John", "tags": []any{"a", "b"}},
		{"name": "John", "tags": "raw"},
	}
	for i, payload := range payloads {
		if err := ValidatePayload(validateColumns, payload); err != nil {
			t.Errorf("payload %d should validate: %v", i, err)
		}
	}
}

func TestValidatePayloadRejects(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"missing required", map[string]any{"age": 25}},
		{"wrong type for integer", map[string]any{"name": "x", "age": "old"}},
		{"non-integral number", map[string]any{"name": "x", "age": 2.5}},
		{"bad email format", map[string]any{"name": "x", "email": "not-an-email"}},
		{"wrong type for boolean", map[string]any{"name": "x", "active": "yes"}},
		{"unknown column", map[string]any{"name": "x", "ghost": 1}},
	}

	for _, tt := range tests {
		err := ValidatePayload(validateColumns, tt.payload)
		if err == nil {
			t.Errorf("%s: expected validation failure", tt.name)
			continue
		}
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%s: err = %T, want *ValidationError", tt.name, err)
			continue
		}
		if len(verr.Fields) == 0 {
			t.Errorf("%s: expected field-level details", tt.name)
		}
	}
}

func TestJSONSchemaShape(t *testing.T) {
	doc := JSONSchema(validateColumns)

	props, ok := doc["properties"].(map[string]any)
	if !ok || len(props) != len(validateColumns) {
		t.Fatalf("unexpected properties: %+v", doc["properties"])
	}
	if doc["additionalProperties"] != false {
		t.Error("additionalProperties should be false")
	}

	required, ok := doc["required"].([]string)
	if !ok || len(required) != 1 || required[0] != "name" {
		t.Errorf("required = %v, want [name]", doc["required"])
	}
}
