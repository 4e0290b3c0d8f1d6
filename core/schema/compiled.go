package schema

import (
	"encoding/json"
	"fmt"
)

// Compiled is the immutable output of compiling a type definition. It is
// shared read-only by every consumer holding a reference and is safe for
// concurrent use. A Compiled schema is itself a Validator, so definitions
// nest (a field may reference another compiled type).
type Compiled struct {
	id          TypeID
	description string
	root        *objectValidator
	schema      *Description
}

// TypeID returns the identity this schema was compiled from. Schemas built
// by the JSON-Schema bridge have no identity.
func (c *Compiled) TypeID() TypeID { return c.id }

// Description returns the definition-level description.
func (c *Compiled) Description() string { return c.description }

// Describe returns the machine-readable description tree: field names,
// descriptions, required fields, and constraint summaries, shaped as a JSON
// Schema object. The tree is shared and must not be modified.
func (c *Compiled) Describe() *Description { return c.schema }

// Category implements Validator.
func (c *Compiled) Category() Category { return CategoryObject }

// Validate implements Validator, checking value as this object type at the
// given path.
func (c *Compiled) Validate(path string, value any) (any, []Violation) {
	return c.root.Validate(path, value)
}

// Parse validates a value against the schema and returns its normalized
// form. On failure it returns a *ValidationError carrying every violation
// found, each with a dot/index-qualified field path - never just the first.
func (c *Compiled) Parse(value any) (map[string]any, error) {
	normalized, violations := c.root.Validate("", value)
	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}
	m, ok := normalized.(map[string]any)
	if !ok {
		// The root validator normalizes objects to maps; anything else
		// would have violated above.
		return nil, &ValidationError{Violations: []Violation{
			{Rule: "type", Value: value, Message: "must be an object"},
		}}
	}
	return m, nil
}

// ParseJSON decodes JSON bytes and parses the result. Malformed JSON is
// reported as a ValidationError, keeping the failure recoverable for
// callers validating model output.
func (c *Compiled) ParseJSON(data []byte) (map[string]any, error) {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, &ValidationError{Violations: []Violation{
			{Rule: "json", Message: fmt.Sprintf("invalid JSON: %v", err)},
		}}
	}
	return c.Parse(value)
}

// ParseResult is the outcome of SafeParse.
type ParseResult struct {
	Success bool             `json:"success"`
	Value   map[string]any   `json:"value,omitempty"`
	Error   *ValidationError `json:"error,omitempty"`
}

// SafeParse validates a value without returning an error, mirroring Parse.
func (c *Compiled) SafeParse(value any) ParseResult {
	parsed, err := c.Parse(value)
	if err != nil {
		var verr *ValidationError
		if ve, ok := err.(*ValidationError); ok {
			verr = ve
		} else {
			verr = &ValidationError{Violations: []Violation{{Message: err.Error()}}}
		}
		return ParseResult{Success: false, Error: verr}
	}
	return ParseResult{Success: true, Value: parsed}
}
