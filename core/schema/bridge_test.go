package schema

import (
	"encoding/json"
	"testing"
)

// externalTree decodes a JSON literal into the generic tree shape the bridge
// receives from remote tool descriptions.
func externalTree(t *testing.T, doc string) map[string]any {
	t.Helper()
	var tree map[string]any
	if err := json.Unmarshal([]byte(doc), &tree); err != nil {
		t.Fatalf("test document does not decode: %v", err)
	}
	return tree
}

func TestFromJSONSchema_BasicObject(t *testing.T) {
	compiled := FromJSONSchema(externalTree(t, `{
		"type": "object",
		"description": "search parameters",
		"properties": {
			"query":  {"type": "string", "minLength": 1},
			"limit":  {"type": "integer", "minimum": 1, "maximum": 100},
			"strict": {"type": "boolean"}
		},
		"required": ["query"]
	}`))

	if compiled.Description() != "search parameters" {
		t.Errorf("Description() = %q, want search parameters", compiled.Description())
	}
	if compiled.TypeID() != "" {
		t.Errorf("TypeID() = %q, want empty for bridged schemas", compiled.TypeID())
	}

	if _, err := compiled.Parse(map[string]any{"query": "go"}); err != nil {
		t.Errorf("Parse() error = %v, want nil for minimal valid value", err)
	}

	if _, err := compiled.Parse(map[string]any{}); err == nil {
		t.Error("Parse() error = nil, want required violation for missing query")
	}
	if _, err := compiled.Parse(map[string]any{"query": ""}); err == nil {
		t.Error("Parse() error = nil, want minLength violation")
	}
	if _, err := compiled.Parse(map[string]any{"query": "go", "limit": 0.5}); err == nil {
		t.Error("Parse() error = nil, want integer violation")
	}
	if _, err := compiled.Parse(map[string]any{"query": "go", "limit": 101}); err == nil {
		t.Error("Parse() error = nil, want maximum violation")
	}
}

func TestFromJSONSchema_UnknownFieldsPermittedByDefault(t *testing.T) {
	compiled := FromJSONSchema(externalTree(t, `{
		"type": "object",
		"properties": {"a": {"type": "string"}}
	}`))

	out, err := compiled.Parse(map[string]any{"a": "x", "extra": 1})
	if err != nil {
		t.Fatalf("Parse() error = %v, want unknown fields tolerated", err)
	}
	if out["extra"] != 1 {
		t.Error("unknown field did not pass through a permissive object")
	}
}

func TestFromJSONSchema_AdditionalPropertiesFalse(t *testing.T) {
	compiled := FromJSONSchema(externalTree(t, `{
		"type": "object",
		"properties": {"a": {"type": "string"}},
		"additionalProperties": false
	}`))

	if _, err := compiled.Parse(map[string]any{"a": "x", "extra": 1}); err == nil {
		t.Error("Parse() error = nil, want unknown_field violation when the tree closes the object")
	}
}

func TestFromJSONSchema_Enums(t *testing.T) {
	t.Run("string enum", func(t *testing.T) {
		compiled := FromJSONSchema(externalTree(t, `{
			"type": "object",
			"properties": {"color": {"enum": ["red", "green"]}},
			"required": ["color"]
		}`))

		if _, err := compiled.Parse(map[string]any{"color": "red"}); err != nil {
			t.Errorf("Parse(red) error = %v", err)
		}
		if _, err := compiled.Parse(map[string]any{"color": "blue"}); err == nil {
			t.Error("Parse(blue) error = nil, want enum violation")
		}
	})

	t.Run("numeric enum projects string literals", func(t *testing.T) {
		compiled := FromJSONSchema(externalTree(t, `{
			"type": "object",
			"properties": {"level": {"enum": [1, 2, 3]}},
			"required": ["level"]
		}`))

		out, err := compiled.Parse(map[string]any{"level": "2"})
		if err != nil {
			t.Fatalf("Parse(\"2\") error = %v", err)
		}
		if out["level"] != float64(2) {
			t.Errorf("level = %v (%T), want float64(2)", out["level"], out["level"])
		}
	})

	t.Run("mixed-kind enum degrades to declared type", func(t *testing.T) {
		compiled := FromJSONSchema(externalTree(t, `{
			"type": "object",
			"properties": {"v": {"type": "string", "enum": ["a", 1]}},
			"required": ["v"]
		}`))

		// The unusable enum is dropped; the string type still applies.
		if _, err := compiled.Parse(map[string]any{"v": "anything"}); err != nil {
			t.Errorf("Parse() error = %v, want nil after degrading the enum", err)
		}
		if _, err := compiled.Parse(map[string]any{"v": 7}); err == nil {
			t.Error("Parse() error = nil, want string type violation")
		}
	})
}

func TestFromJSONSchema_NestedArraysAndObjects(t *testing.T) {
	compiled := FromJSONSchema(externalTree(t, `{
		"type": "object",
		"properties": {
			"points": {
				"type": "array",
				"minItems": 1,
				"items": {
					"type": "object",
					"properties": {
						"x": {"type": "number"},
						"y": {"type": "number"}
					},
					"required": ["x", "y"]
				}
			}
		},
		"required": ["points"]
	}`))

	valid := map[string]any{"points": []any{map[string]any{"x": 1, "y": 2}}}
	if _, err := compiled.Parse(valid); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	_, err := compiled.Parse(map[string]any{"points": []any{map[string]any{"x": 1}}})
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("Parse() error = %v, want *ValidationError", err)
	}
	if got := verr.Violations[0].Path; got != "points[0].y" {
		t.Errorf("Path = %q, want points[0].y", got)
	}
}

func TestFromJSONSchema_DegradesNeverFails(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty tree", `{}`},
		{"unknown type", `{"type": "object", "properties": {"v": {"type": "quantum"}}}`},
		{"untyped property", `{"type": "object", "properties": {"v": {}}}`},
		{"constraint on wrong type", `{"type": "object", "properties": {"v": {"type": "number", "minLength": 3}}}`},
		{"malformed constraint", `{"type": "object", "properties": {"v": {"type": "string", "pattern": "(unclosed"}}}`},
		{"non-list required", `{"type": "object", "required": "query"}`},
		{"unrecognized format", `{"type": "object", "properties": {"v": {"type": "string", "format": "hostname"}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compiled := FromJSONSchema(externalTree(t, tt.doc))
			if compiled == nil {
				t.Fatal("FromJSONSchema() = nil, conversion must always produce a schema")
			}
			// The degraded parts accept anything.
			if _, err := compiled.Parse(map[string]any{"v": "whatever"}); err != nil {
				t.Errorf("Parse() error = %v, want permissive acceptance", err)
			}
		})
	}
}

func TestFromJSONSchema_AppliedConstraintsSurviveDescribe(t *testing.T) {
	compiled := FromJSONSchema(externalTree(t, `{
		"type": "object",
		"properties": {
			"name": {"type": "string", "minLength": 2, "format": "email"},
			"v":    {"type": "number", "minLength": 3}
		}
	}`))

	d := compiled.Describe()
	name := d.Properties["name"]
	if name.MinLength == nil || *name.MinLength != 2 || name.Format != "email" {
		t.Errorf("name = %+v, want recognized constraints reflected", name)
	}
	// The incompatible constraint was dropped from validation and from the
	// description alike.
	if v := d.Properties["v"]; v.MinLength != nil {
		t.Errorf("v = %+v, want dropped constraint absent", v)
	}
	if d.AdditionalProperties != nil {
		t.Error("open objects must not serialize additionalProperties")
	}
}
