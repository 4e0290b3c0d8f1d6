package schema

import (
	"sort"
)

// FromJSONSchema builds a Compiled schema from an externally supplied
// generic schema tree: the type/properties/required/constraint-key shape
// used by remote tool-description protocols such as MCP.
//
// The producing side is untrusted and not under this system's control, so
// conversion never fails: an unknown type, a malformed constraint, or a
// non-object root degrades to a permissive validator instead of raising an
// error. Recognized constructs get the same rule semantics as
// registry-compiled schemas.
func FromJSONSchema(tree map[string]any) *Compiled {
	root, desc := bridgeObject(tree)
	return &Compiled{
		description: stringKey(tree, "description"),
		root:        root,
		schema:      desc,
	}
}

// bridgeObject converts an object node. Properties it does not recognize
// validate permissively; unknown incoming fields are accepted unless the
// tree explicitly sets additionalProperties to false.
func bridgeObject(node map[string]any) (*objectValidator, *Description) {
	allowUnknown := true
	if ap, ok := node["additionalProperties"].(bool); ok && !ap {
		allowUnknown = false
	}

	required := make(map[string]bool)
	var requiredOrder []string
	switch rs := node["required"].(type) {
	case []any:
		for _, r := range rs {
			if name, ok := r.(string); ok && !required[name] {
				required[name] = true
				requiredOrder = append(requiredOrder, name)
			}
		}
	case []string:
		for _, name := range rs {
			if !required[name] {
				required[name] = true
				requiredOrder = append(requiredOrder, name)
			}
		}
	}

	props, _ := node["properties"].(map[string]any)
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]objectField, 0, len(names))
	properties := make(map[string]*Description, len(names))
	for _, name := range names {
		child, _ := props[name].(map[string]any)
		validator, desc := bridgeNode(child)
		fields = append(fields, objectField{
			name:      name,
			optional:  !required[name],
			validator: validator,
		})
		properties[name] = desc
	}

	desc := &Description{
		Type:          "object",
		Description:   stringKey(node, "description"),
		Properties:    properties,
		PropertyOrder: names,
		Required:      requiredOrder,
	}
	if !allowUnknown {
		strict := false
		desc.AdditionalProperties = &strict
	}

	return &objectValidator{fields: fields, allowUnknown: allowUnknown}, desc
}

// bridgeNode converts one schema node into a validator and its description.
// A nil or unrecognized node yields the permissive any-validator.
func bridgeNode(node map[string]any) (Validator, *Description) {
	if node == nil {
		return anyValidator{}, &Description{}
	}

	base, desc := bridgeBase(node)
	desc.Description = stringKey(node, "description")

	rules := bridgeRules(node)
	if len(rules) == 0 {
		return base, desc
	}

	cat := base.Category()
	var checks []ruleCheck
	for _, rule := range rules {
		// Untrusted input: constraints that cannot apply to this node's
		// category, or carry malformed parameters, are dropped rather
		// than surfaced as compile errors.
		if !rule.Kind.compatibleWith(cat) {
			continue
		}
		check, err := compileRule("", "", rule, cat)
		if err != nil {
			continue
		}
		checks = append(checks, check)
		applyRuleToDescription(desc, rule, cat)
	}
	if len(checks) == 0 {
		return base, desc
	}
	return chain{base: base, checks: checks}, desc
}

// bridgeBase resolves the node's base validator from its type and enum keys.
func bridgeBase(node map[string]any) (Validator, *Description) {
	if values, ok := node["enum"].([]any); ok && len(values) > 0 {
		v, err := resolveEnum("", "", values)
		if err == nil {
			typ := "string"
			if v.Category() == CategoryNumber {
				typ = "number"
			}
			return v, &Description{Type: typ, Enum: append([]any(nil), values...)}
		}
		// Mixed-kind enum from an untrusted producer: fall through to the
		// declared type, or permissive.
	}

	switch stringKey(node, "type") {
	case "string":
		return stringValidator{}, &Description{Type: "string"}

	case "number":
		return numberValidator{}, &Description{Type: "number"}

	case "integer":
		check, _ := compileRule("", "", Rule{Kind: RuleInt}, CategoryNumber)
		return chain{base: numberValidator{}, checks: []ruleCheck{check}}, &Description{Type: "integer"}

	case "boolean":
		return boolValidator{}, &Description{Type: "boolean"}

	case "array":
		items, _ := node["items"].(map[string]any)
		elem, elemDesc := bridgeNode(items)
		return arrayValidator{elem: elem}, &Description{Type: "array", Items: elemDesc}

	case "object":
		return bridgeObject(node)

	default:
		return anyValidator{}, &Description{}
	}
}

// bridgeRules maps the node's recognized constraint keys onto the pipeline's
// rule vocabulary.
func bridgeRules(node map[string]any) []Rule {
	var rules []Rule
	add := func(kind RuleKind, value any) {
		rules = append(rules, Rule{Kind: kind, Value: value})
	}

	if v, ok := node["format"].(string); ok {
		switch v {
		case "email":
			add(RuleEmail, nil)
		case "uri", "url":
			add(RuleURL, nil)
		case "uuid":
			add(RuleUUID, nil)
		case "cuid":
			add(RuleCUID, nil)
		case "date-time":
			add(RuleDatetime, nil)
		case "ip", "ipv4", "ipv6":
			add(RuleIP, nil)
		}
	}
	if v, ok := node["pattern"].(string); ok {
		add(RulePattern, v)
	}
	if v, ok := node["minLength"]; ok {
		add(RuleMinLength, v)
	}
	if v, ok := node["maxLength"]; ok {
		add(RuleMaxLength, v)
	}
	if v, ok := node["minimum"]; ok {
		add(RuleMinimum, v)
	}
	if v, ok := node["maximum"]; ok {
		add(RuleMaximum, v)
	}
	if v, ok := node["exclusiveMinimum"]; ok {
		add(RuleExclusiveMinimum, v)
	}
	if v, ok := node["exclusiveMaximum"]; ok {
		add(RuleExclusiveMaximum, v)
	}
	if v, ok := node["multipleOf"]; ok {
		add(RuleMultipleOf, v)
	}
	if v, ok := node["minItems"]; ok {
		add(RuleMinItems, v)
	}
	if v, ok := node["maxItems"]; ok {
		add(RuleMaxItems, v)
	}
	if v, ok := node["uniqueItems"].(bool); ok && v {
		add(RuleUniqueItems, nil)
	}

	return rules
}

// stringKey reads a string value from a generic tree node.
func stringKey(node map[string]any, key string) string {
	if node == nil {
		return ""
	}
	s, _ := node[key].(string)
	return s
}
