package schema

// Description is a machine-readable summary of a compiled type or field,
// shaped as a JSON Schema node so it can be embedded directly in an LLM
// tool-calling request. Only the keys a field actually constrains are set.
type Description struct {
	Type        string `json:"type,omitempty"`
	Format      string `json:"format,omitempty"`
	Description string `json:"description,omitempty"`
	Enum        []any  `json:"enum,omitempty"`

	// Object keys
	Properties           map[string]*Description `json:"properties,omitempty"`
	Required             []string                `json:"required,omitempty"`
	AdditionalProperties *bool                   `json:"additionalProperties,omitempty"`

	// PropertyOrder preserves field registration order for deterministic
	// listings; JSON object keys carry no order of their own.
	PropertyOrder []string `json:"-"`

	// Array keys
	Items       *Description `json:"items,omitempty"`
	MinItems    *int         `json:"minItems,omitempty"`
	MaxItems    *int         `json:"maxItems,omitempty"`
	UniqueItems bool         `json:"uniqueItems,omitempty"`

	// String keys
	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`

	// Number keys
	Minimum          *float64 `json:"minimum,omitempty"`
	Maximum          *float64 `json:"maximum,omitempty"`
	ExclusiveMinimum *float64 `json:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum *float64 `json:"exclusiveMaximum,omitempty"`
	MultipleOf       *float64 `json:"multipleOf,omitempty"`
}

// describeType builds the description node for one field, mirroring the
// resolver's recursion. It runs after resolution and rule compilation
// succeeded, so parameters are known to be well-formed. Caller holds the
// compiler lock.
func (c *Compiler) describeType(id TypeID, field string, ref *TypeRef, rules []Rule, visiting map[TypeID]bool) (*Description, error) {
	d, cat, err := c.describeBase(id, field, ref, visiting)
	if err != nil {
		return nil, err
	}
	for _, rule := range rules {
		applyRuleToDescription(d, rule, cat)
	}
	return d, nil
}

// describeBase renders the pre-rules description of a type descriptor and
// reports its category for polymorphic rule mapping.
func (c *Compiler) describeBase(id TypeID, field string, ref *TypeRef, visiting map[TypeID]bool) (*Description, Category, error) {
	switch ref.Kind {
	case KindString:
		return &Description{Type: "string"}, CategoryString, nil

	case KindNumber:
		return &Description{Type: "number"}, CategoryNumber, nil

	case KindBool:
		return &Description{Type: "boolean"}, CategoryBool, nil

	case KindDate:
		return &Description{Type: "string", Format: "date-time"}, CategoryDate, nil

	case KindEnum:
		typ := "string"
		cat := CategoryString
		if _, ok := ref.Enum[0].(string); !ok {
			typ = "number"
			cat = CategoryNumber
		}
		return &Description{Type: typ, Enum: append([]any(nil), ref.Enum...)}, cat, nil

	case KindArray:
		items, _, err := c.describeBase(id, field, ref.Elem, visiting)
		if err != nil {
			return nil, 0, err
		}
		return &Description{Type: "array", Items: items}, CategoryArray, nil

	case KindObject:
		nested, err := c.compileLocked(ref.Ref, visiting)
		if err != nil {
			return nil, 0, err
		}
		// Shallow copy so the field's own description does not leak into
		// the nested type's shared tree.
		d := *nested.schema
		return &d, CategoryObject, nil

	default:
		return nil, 0, &DefinitionError{Type: id, Field: field, Reason: "unresolvable type descriptor"}
	}
}

// applyRuleToDescription folds one rule into the description node. The rule
// already passed the compatibility gate and parameter checks.
func applyRuleToDescription(d *Description, rule Rule, cat Category) {
	switch rule.Kind {
	case RuleEmail:
		d.Format = "email"
	case RuleURL:
		d.Format = "uri"
	case RuleUUID:
		d.Format = "uuid"
	case RuleCUID:
		d.Format = "cuid"
	case RuleDatetime:
		d.Format = "date-time"
	case RuleIP:
		d.Format = "ip"

	case RulePattern:
		if s, ok := rule.Value.(string); ok {
			d.Pattern = s
		}

	case RuleMinLength:
		d.MinLength = intPtrFrom(rule.Value)
	case RuleMaxLength:
		d.MaxLength = intPtrFrom(rule.Value)

	case RuleMinimum:
		d.Minimum = floatPtrFrom(rule.Value)
	case RuleMaximum:
		d.Maximum = floatPtrFrom(rule.Value)
	case RuleExclusiveMinimum:
		d.ExclusiveMinimum = floatPtrFrom(rule.Value)
	case RuleExclusiveMaximum:
		d.ExclusiveMaximum = floatPtrFrom(rule.Value)
	case RuleMultipleOf:
		d.MultipleOf = floatPtrFrom(rule.Value)
	case RuleInt:
		d.Type = "integer"

	case RuleMinItems:
		d.MinItems = intPtrFrom(rule.Value)
	case RuleMaxItems:
		d.MaxItems = intPtrFrom(rule.Value)
	case RuleUniqueItems:
		d.UniqueItems = true

	case RuleMin:
		switch cat {
		case CategoryNumber:
			d.Minimum = floatPtrFrom(rule.Value)
		case CategoryString:
			d.MinLength = intPtrFrom(rule.Value)
		case CategoryArray:
			d.MinItems = intPtrFrom(rule.Value)
		}
	case RuleMax:
		switch cat {
		case CategoryNumber:
			d.Maximum = floatPtrFrom(rule.Value)
		case CategoryString:
			d.MaxLength = intPtrFrom(rule.Value)
		case CategoryArray:
			d.MaxItems = intPtrFrom(rule.Value)
		}

	case RuleOneOf:
		switch vs := rule.Value.(type) {
		case []any:
			d.Enum = append([]any(nil), vs...)
		case []string:
			d.Enum = make([]any, len(vs))
			for i, v := range vs {
				d.Enum[i] = v
			}
		}
	}
}

func intPtrFrom(v any) *int {
	if n, ok := numberValue(v); ok {
		i := int(n)
		return &i
	}
	return nil
}

func floatPtrFrom(v any) *float64 {
	if n, ok := numberValue(v); ok {
		return &n
	}
	return nil
}
