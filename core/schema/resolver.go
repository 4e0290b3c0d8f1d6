package schema

// resolveType turns one field's declared type descriptor into its base
// validator, before any rules apply. Nested type references recurse into the
// compiler (reusing its cache); array item types recurse into this resolver.
//
// The resolver never falls back to an unconstrained validator: an untyped
// field, an empty or mixed-kind enum, an array without an item descriptor,
// or a reference to an unregistered type is a DefinitionError naming the
// offending field.
func (c *Compiler) resolveType(id TypeID, field string, ref *TypeRef, visiting map[TypeID]bool) (Validator, error) {
	if ref == nil {
		return nil, &DefinitionError{Type: id, Field: field, Reason: "field has no type descriptor"}
	}

	switch ref.Kind {
	case KindString:
		return stringValidator{}, nil

	case KindNumber:
		return numberValidator{}, nil

	case KindBool:
		return boolValidator{}, nil

	case KindDate:
		return dateValidator{}, nil

	case KindEnum:
		return resolveEnum(id, field, ref.Enum)

	case KindArray:
		if ref.Elem == nil {
			return nil, &DefinitionError{Type: id, Field: field, Reason: "array type requires an item type descriptor"}
		}
		elem, err := c.resolveType(id, field, ref.Elem, visiting)
		if err != nil {
			return nil, err
		}
		return arrayValidator{elem: elem}, nil

	case KindObject:
		if ref.Ref == "" {
			return nil, &DefinitionError{Type: id, Field: field, Reason: "object type requires a type reference"}
		}
		nested, err := c.compileLocked(ref.Ref, visiting)
		if err != nil {
			return nil, err
		}
		return nested, nil

	default:
		return nil, &DefinitionError{Type: id, Field: field, Reason: "unresolvable type descriptor"}
	}
}

// resolveEnum builds the closed-set validator for an enum declaration.
// Values must be non-empty and all of one kind: all strings, or all numbers.
// A numeric enum keeps a reverse projection from each literal's string form
// back to its numeric value.
func resolveEnum(id TypeID, field string, values []any) (Validator, error) {
	if len(values) == 0 {
		return nil, &DefinitionError{Type: id, Field: field, Reason: "enum requires at least one value"}
	}

	if _, ok := values[0].(string); ok {
		strs := make([]string, len(values))
		for i, v := range values {
			s, ok := v.(string)
			if !ok {
				return nil, &DefinitionError{Type: id, Field: field, Reason: "enum values must all be strings or all be numbers"}
			}
			strs[i] = s
		}
		return stringEnumValidator{values: strs}, nil
	}

	nums := make([]float64, len(values))
	for i, v := range values {
		n, ok := numberValue(v)
		if !ok {
			return nil, &DefinitionError{Type: id, Field: field, Reason: "enum values must all be strings or all be numbers"}
		}
		nums[i] = n
	}
	return newNumberEnumValidator(nums), nil
}
