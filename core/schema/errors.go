package schema

import (
	"fmt"
	"strings"
)

// DefinitionError reports a malformed declaration: an empty or mixed-kind
// enum, an array field without an item type, a field with no resolvable
// type. Definition errors are raised during compilation, never at parse
// time, and indicate a configuration problem.
type DefinitionError struct {
	Type   TypeID `json:"type"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

func (e *DefinitionError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("type %q: %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("type %q: field %q: %s", e.Type, e.Field, e.Reason)
}

// CompatibilityError reports a rule declared on a field whose resolved
// category cannot be checked by that rule kind. Raised during compilation.
type CompatibilityError struct {
	Type     TypeID   `json:"type"`
	Field    string   `json:"field"`
	Rule     RuleKind `json:"rule"`
	Category Category `json:"category"`
}

func (e *CompatibilityError) Error() string {
	return fmt.Sprintf("type %q: field %q: rule %q cannot apply to %s values",
		e.Type, e.Field, e.Rule, e.Category)
}

// Violation is a single constraint failure on a concrete value.
type Violation struct {
	// Path locates the failing value: "age", "address.zip_code", "tags[1]".
	Path string `json:"path"`

	// Rule is the rule or check that failed.
	Rule string `json:"rule"`

	// Value is the offending value, when useful.
	Value any `json:"value,omitempty"`

	// Message is a human-readable reason.
	Message string `json:"message"`
}

func (v Violation) String() string {
	if v.Path == "" {
		return v.Message
	}
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// ValidationError reports every constraint failure found while parsing one
// value against an already-valid compiled schema. It is per-call and
// recoverable: callers report it back (for example to the model that
// produced the arguments) rather than aborting.
type ValidationError struct {
	Violations []Violation `json:"violations"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	return strings.Join(msgs, "; ")
}

// add records a violation.
func (e *ValidationError) add(path, rule string, value any, message string) {
	e.Violations = append(e.Violations, Violation{
		Path:    path,
		Rule:    rule,
		Value:   value,
		Message: message,
	})
}

// joinPath appends a field name to a path prefix.
func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// indexPath appends an array index to a path.
func indexPath(prefix string, i int) string {
	return fmt.Sprintf("%s[%d]", prefix, i)
}
