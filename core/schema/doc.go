/*
Package schema compiles declarative field definitions into cached runtime
validators.

A type is declared once, field by field, against a registry. On first use the
compiler turns the declaration into an immutable Compiled schema that can
validate values and describe itself in a machine-readable form (the shape
handed to a language model in a tool-calling request).

# Declaring a type

Fields are registered at module initialization time:

	schema.RegisterField("user", "email", schema.FieldAttrs{Type: schema.String()})
	schema.RegisterRule("user", "email", schema.Rule{Kind: schema.RuleEmail})
	schema.RegisterField("user", "age", schema.FieldAttrs{Type: schema.Number()})
	schema.RegisterRule("user", "age", schema.Rule{Kind: schema.RuleMinimum, Value: 0})
	schema.RegisterRule("user", "age", schema.Rule{Kind: schema.RuleMaximum, Value: 150})

# Compiling and parsing

Compilation happens lazily, exactly once per type identity:

	compiled, err := schema.Compile("user")
	if err != nil {
		// DefinitionError or CompatibilityError: a configuration problem,
		// surfaced at startup, never at parse time.
	}

	value, err := compiled.Parse(map[string]any{"email": "a@b.co", "age": 30})
	if err != nil {
		// *ValidationError carrying every violation with its field path.
	}

Compiling the same identity again returns the same instance. Compiled schemas
are immutable and safe for concurrent use.

# Base types

Supported base types:

  - string:  text value
  - number:  numeric value (integers and floats)
  - bool:    boolean value
  - date:    time.Time or an RFC 3339 string
  - enum:    one of a closed set of values, all string or all number
  - array:   ordered list of a declared item type
  - object:  a reference to another registered type

Numeric enums accept both the numeric literal and its string form, and always
yield the numeric value back.

# Rules

Rules refine a field's base validator in declaration order. Each rule kind is
gated by a compatibility table; applying a rule to a category it cannot check
(say, min_length on a number) is a CompatibilityError raised during
compilation.

# Descriptions

Compiled.Describe returns a JSON-Schema-shaped tree of the type: property
names, descriptions, required fields, and per-field constraint summaries.
FromJSONSchema converts in the other direction, building a Compiled schema
from an externally supplied schema tree (for example one advertised by a
remote MCP tool server). External trees are untrusted: unrecognized constructs
degrade to permissive validators instead of failing.
*/
package schema
