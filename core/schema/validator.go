package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Category is the runtime category of a validator. Rules are gated on the
// category of the validator they refine, which may differ from the field's
// declared base kind (an enum of strings is CategoryString, an enum of
// numbers CategoryNumber).
type Category int

const (
	CategoryString Category = iota
	CategoryNumber
	CategoryBool
	CategoryDate
	CategoryArray
	CategoryObject
	CategoryAny
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryString:
		return "string"
	case CategoryNumber:
		return "number"
	case CategoryBool:
		return "bool"
	case CategoryDate:
		return "date"
	case CategoryArray:
		return "array"
	case CategoryObject:
		return "object"
	case CategoryAny:
		return "any"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the category name.
func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// Validator checks one value and returns its normalized form. Validation is
// synchronous, side-effect-free, and safe for concurrent use.
type Validator interface {
	// Category is the runtime category this validator accepts.
	Category() Category

	// Validate checks value at the given path. It returns the normalized
	// value (numeric enums project string literals back to numbers, dates
	// parse to time.Time) and all violations found.
	Validate(path string, value any) (any, []Violation)
}

// stringValidator accepts string values.
type stringValidator struct{}

func (stringValidator) Category() Category { return CategoryString }

func (stringValidator) Validate(path string, value any) (any, []Violation) {
	s, ok := value.(string)
	if !ok {
		return value, []Violation{{Path: path, Rule: "type", Value: value, Message: "must be a string"}}
	}
	return s, nil
}

// numberValidator accepts numeric values and normalizes them to float64.
type numberValidator struct{}

func (numberValidator) Category() Category { return CategoryNumber }

func (numberValidator) Validate(path string, value any) (any, []Violation) {
	n, ok := numberValue(value)
	if !ok {
		return value, []Violation{{Path: path, Rule: "type", Value: value, Message: "must be a number"}}
	}
	return n, nil
}

// boolValidator accepts boolean values.
type boolValidator struct{}

func (boolValidator) Category() Category { return CategoryBool }

func (boolValidator) Validate(path string, value any) (any, []Violation) {
	b, ok := value.(bool)
	if !ok {
		return value, []Violation{{Path: path, Rule: "type", Value: value, Message: "must be a boolean"}}
	}
	return b, nil
}

// dateValidator accepts time.Time values or RFC 3339 strings and normalizes
// to time.Time.
type dateValidator struct{}

func (dateValidator) Category() Category { return CategoryDate }

func (dateValidator) Validate(path string, value any) (any, []Violation) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return value, []Violation{{Path: path, Rule: "type", Value: value, Message: "must be an RFC 3339 timestamp"}}
		}
		return t, nil
	default:
		return value, []Violation{{Path: path, Rule: "type", Value: value, Message: "must be a date"}}
	}
}

// stringEnumValidator accepts one of a closed set of strings.
type stringEnumValidator struct {
	values []string
}

func (stringEnumValidator) Category() Category { return CategoryString }

func (v stringEnumValidator) Validate(path string, value any) (any, []Violation) {
	s, ok := value.(string)
	if !ok {
		return value, []Violation{{Path: path, Rule: "enum", Value: value, Message: "must be a string"}}
	}
	for _, allowed := range v.values {
		if s == allowed {
			return s, nil
		}
	}
	return value, []Violation{{
		Path: path, Rule: "enum", Value: value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(v.values, ", ")),
	}}
}

// numberEnumValidator accepts one of a closed set of numbers. The string
// form of each literal is also accepted and projected back to its numeric
// value, so callers always receive the number, never the string key.
type numberEnumValidator struct {
	values    []float64
	byLiteral map[string]float64
}

func newNumberEnumValidator(values []float64) numberEnumValidator {
	byLiteral := make(map[string]float64, len(values))
	for _, n := range values {
		byLiteral[formatNumber(n)] = n
	}
	return numberEnumValidator{values: values, byLiteral: byLiteral}
}

func (numberEnumValidator) Category() Category { return CategoryNumber }

func (v numberEnumValidator) Validate(path string, value any) (any, []Violation) {
	if s, ok := value.(string); ok {
		if n, ok := v.byLiteral[s]; ok {
			return n, nil
		}
		return value, v.violation(path, value)
	}
	if n, ok := numberValue(value); ok {
		for _, allowed := range v.values {
			if n == allowed {
				return n, nil
			}
		}
	}
	return value, v.violation(path, value)
}

func (v numberEnumValidator) violation(path string, value any) []Violation {
	literals := make([]string, len(v.values))
	for i, n := range v.values {
		literals[i] = formatNumber(n)
	}
	return []Violation{{
		Path: path, Rule: "enum", Value: value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(literals, ", ")),
	}}
}

// arrayValidator accepts a slice and validates every element.
type arrayValidator struct {
	elem Validator
}

func (arrayValidator) Category() Category { return CategoryArray }

func (v arrayValidator) Validate(path string, value any) (any, []Violation) {
	items, ok := value.([]any)
	if !ok {
		return value, []Violation{{Path: path, Rule: "type", Value: value, Message: "must be an array"}}
	}
	var violations []Violation
	out := make([]any, len(items))
	for i, item := range items {
		normalized, vs := v.elem.Validate(indexPath(path, i), item)
		out[i] = normalized
		violations = append(violations, vs...)
	}
	return out, violations
}

// anyValidator accepts everything. It is only reachable through the
// JSON-Schema bridge, where the producing side is untrusted; registry-driven
// compilation never falls back to it.
type anyValidator struct{}

func (anyValidator) Category() Category { return CategoryAny }

func (anyValidator) Validate(path string, value any) (any, []Violation) {
	return value, nil
}

// ruleCheck is one compiled rule: it inspects the normalized value and
// reports at most one violation.
type ruleCheck func(path string, value any) *Violation

// chain runs a base validator and then every compiled rule in declaration
// order, collecting all violations. Rules only run when the base check
// passed; they never change the validator's category.
type chain struct {
	base   Validator
	checks []ruleCheck
}

func (c chain) Category() Category { return c.base.Category() }

func (c chain) Validate(path string, value any) (any, []Violation) {
	normalized, violations := c.base.Validate(path, value)
	if len(violations) > 0 {
		return normalized, violations
	}
	for _, check := range c.checks {
		if v := check(path, normalized); v != nil {
			violations = append(violations, *v)
		}
	}
	return normalized, violations
}

// objectField is one compiled field of an object validator.
type objectField struct {
	name      string
	optional  bool
	validator Validator
}

// objectValidator validates a map of named fields. Unknown fields are
// rejected unless allowUnknown is set (the bridge sets it for permissive
// external schemas).
type objectValidator struct {
	fields       []objectField
	allowUnknown bool
}

func (*objectValidator) Category() Category { return CategoryObject }

func (o *objectValidator) Validate(path string, value any) (any, []Violation) {
	m, ok := value.(map[string]any)
	if !ok {
		return value, []Violation{{Path: path, Rule: "type", Value: value, Message: "must be an object"}}
	}

	var violations []Violation
	out := make(map[string]any, len(m))

	if !o.allowUnknown {
		known := make(map[string]bool, len(o.fields))
		for _, f := range o.fields {
			known[f.name] = true
		}
		for name := range m {
			if !known[name] {
				violations = append(violations, Violation{
					Path: joinPath(path, name), Rule: "unknown_field", Value: name,
					Message: "unknown field: not declared in schema",
				})
			}
		}
	}

	for _, f := range o.fields {
		fieldPath := joinPath(path, f.name)
		fieldValue, present := m[f.name]

		// Omission of an optional field bypasses every rule; presence
		// enforces them all.
		if !present {
			if !f.optional {
				violations = append(violations, Violation{
					Path: fieldPath, Rule: "required", Message: "field is required",
				})
			}
			continue
		}

		normalized, vs := f.validator.Validate(fieldPath, fieldValue)
		violations = append(violations, vs...)
		out[f.name] = normalized
	}

	if o.allowUnknown {
		known := make(map[string]bool, len(o.fields))
		for _, f := range o.fields {
			known[f.name] = true
		}
		for name, v := range m {
			if !known[name] {
				out[name] = v
			}
		}
	}

	return out, violations
}

// numberValue converts the numeric types a decoded value may carry.
func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// formatNumber renders a number the way its literal is written: no trailing
// zeros, no exponent for typical enum values.
func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
