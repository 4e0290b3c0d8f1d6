package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// cuidPattern matches collision-resistant IDs: a leading "c" followed by at
// least eight characters without whitespace or dashes.
var cuidPattern = regexp.MustCompile(`^[cC][^\s-]{8,}$`)

// applyRules folds a field's ordered rule list onto its base validator.
// Each rule is checked against the current validator's category via the
// compatibility table and compiled into a check; a mismatch is a
// CompatibilityError, a malformed parameter a DefinitionError. Both happen
// here, during compilation, never on the first parse.
func (c *Compiler) applyRules(id TypeID, field string, base Validator, rules []Rule) (Validator, error) {
	if len(rules) == 0 {
		return base, nil
	}

	cat := base.Category()
	checks := make([]ruleCheck, 0, len(rules))
	for _, rule := range rules {
		if !rule.Kind.compatibleWith(cat) {
			return nil, &CompatibilityError{Type: id, Field: field, Rule: rule.Kind, Category: cat}
		}
		check, err := compileRule(id, field, rule, cat)
		if err != nil {
			return nil, err
		}
		checks = append(checks, check)
	}

	return chain{base: base, checks: checks}, nil
}

// compileRule compiles one rule into its check function. The category has
// already passed the compatibility gate, so checks may assume the normalized
// value shape for that category.
func compileRule(id TypeID, field string, rule Rule, cat Category) (ruleCheck, error) {
	switch rule.Kind {
	case RuleEmail:
		return stringCheck(rule, "must be a valid email address", func(s string) bool {
			_, err := mail.ParseAddress(s)
			return err == nil
		}), nil

	case RuleURL:
		return stringCheck(rule, "must be a valid URL", func(s string) bool {
			_, err := url.ParseRequestURI(s)
			return err == nil
		}), nil

	case RulePattern:
		expr, ok := rule.Value.(string)
		if !ok {
			return nil, &DefinitionError{Type: id, Field: field, Reason: "pattern rule requires a string parameter"}
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, &DefinitionError{Type: id, Field: field, Reason: fmt.Sprintf("invalid pattern %q: %v", expr, err)}
		}
		return stringCheck(rule, "does not match required pattern", re.MatchString), nil

	case RuleUUID:
		return stringCheck(rule, "must be a valid UUID", func(s string) bool {
			_, err := uuid.Parse(s)
			return err == nil
		}), nil

	case RuleCUID:
		return stringCheck(rule, "must be a valid CUID", cuidPattern.MatchString), nil

	case RuleDatetime:
		return stringCheck(rule, "must be an RFC 3339 timestamp", func(s string) bool {
			_, err := time.Parse(time.RFC3339, s)
			return err == nil
		}), nil

	case RuleIP:
		return stringCheck(rule, "must be a valid IP address", func(s string) bool {
			return net.ParseIP(s) != nil
		}), nil

	case RuleMinLength:
		n, err := intParam(id, field, rule)
		if err != nil {
			return nil, err
		}
		return stringCheck(rule, fmt.Sprintf("must be at least %d characters", n), func(s string) bool {
			return len(s) >= n
		}), nil

	case RuleMaxLength:
		n, err := intParam(id, field, rule)
		if err != nil {
			return nil, err
		}
		return stringCheck(rule, fmt.Sprintf("must be at most %d characters", n), func(s string) bool {
			return len(s) <= n
		}), nil

	case RuleMinimum:
		return numberBound(id, field, rule, "must be at least %v", func(v, bound float64) bool { return v >= bound })

	case RuleMaximum:
		return numberBound(id, field, rule, "must be at most %v", func(v, bound float64) bool { return v <= bound })

	case RuleExclusiveMinimum:
		return numberBound(id, field, rule, "must be greater than %v", func(v, bound float64) bool { return v > bound })

	case RuleExclusiveMaximum:
		return numberBound(id, field, rule, "must be less than %v", func(v, bound float64) bool { return v < bound })

	case RuleMultipleOf:
		div, err := numberParam(id, field, rule)
		if err != nil {
			return nil, err
		}
		if div == 0 {
			return nil, &DefinitionError{Type: id, Field: field, Reason: "multiple_of rule requires a non-zero parameter"}
		}
		return numberCheck(rule, fmt.Sprintf("must be a multiple of %v", div), func(v float64) bool {
			return isMultiple(v, div)
		}), nil

	case RuleInt:
		return numberCheck(rule, "must be an integer", func(v float64) bool {
			return v == math.Trunc(v)
		}), nil

	case RuleMinItems:
		n, err := intParam(id, field, rule)
		if err != nil {
			return nil, err
		}
		return arrayCheck(rule, fmt.Sprintf("must have at least %d items", n), func(items []any) bool {
			return len(items) >= n
		}), nil

	case RuleMaxItems:
		n, err := intParam(id, field, rule)
		if err != nil {
			return nil, err
		}
		return arrayCheck(rule, fmt.Sprintf("must have at most %d items", n), func(items []any) bool {
			return len(items) <= n
		}), nil

	case RuleUniqueItems:
		return uniqueItemsCheck(rule), nil

	case RuleOneOf:
		return oneOfCheck(id, field, rule)

	case RuleMin, RuleMax:
		return compilePolymorphicBound(id, field, rule, cat)

	default:
		return nil, &DefinitionError{Type: id, Field: field, Reason: fmt.Sprintf("unknown rule kind %q", rule.Kind)}
	}
}

// compilePolymorphicBound compiles min/max against the current category:
// string length, numeric bound, or element count.
func compilePolymorphicBound(id TypeID, field string, rule Rule, cat Category) (ruleCheck, error) {
	lower := rule.Kind == RuleMin

	switch cat {
	case CategoryNumber:
		if lower {
			return numberBound(id, field, rule, "must be at least %v", func(v, bound float64) bool { return v >= bound })
		}
		return numberBound(id, field, rule, "must be at most %v", func(v, bound float64) bool { return v <= bound })

	case CategoryString:
		n, err := intParam(id, field, rule)
		if err != nil {
			return nil, err
		}
		if lower {
			return stringCheck(rule, fmt.Sprintf("must be at least %d characters", n), func(s string) bool {
				return len(s) >= n
			}), nil
		}
		return stringCheck(rule, fmt.Sprintf("must be at most %d characters", n), func(s string) bool {
			return len(s) <= n
		}), nil

	case CategoryArray:
		n, err := intParam(id, field, rule)
		if err != nil {
			return nil, err
		}
		if lower {
			return arrayCheck(rule, fmt.Sprintf("must have at least %d items", n), func(items []any) bool {
				return len(items) >= n
			}), nil
		}
		return arrayCheck(rule, fmt.Sprintf("must have at most %d items", n), func(items []any) bool {
			return len(items) <= n
		}), nil

	default:
		// Unreachable: the compatibility table gates min/max to the three
		// categories above.
		return nil, &CompatibilityError{Type: id, Field: field, Rule: rule.Kind, Category: cat}
	}
}

// stringCheck wraps a string predicate into a rule check.
func stringCheck(rule Rule, defaultMsg string, ok func(string) bool) ruleCheck {
	msg := message(rule, defaultMsg)
	kind := string(rule.Kind)
	return func(path string, value any) *Violation {
		s, isStr := value.(string)
		if !isStr || ok(s) {
			return nil
		}
		return &Violation{Path: path, Rule: kind, Value: value, Message: msg}
	}
}

// numberCheck wraps a numeric predicate into a rule check.
func numberCheck(rule Rule, defaultMsg string, ok func(float64) bool) ruleCheck {
	msg := message(rule, defaultMsg)
	kind := string(rule.Kind)
	return func(path string, value any) *Violation {
		n, isNum := numberValue(value)
		if !isNum || ok(n) {
			return nil
		}
		return &Violation{Path: path, Rule: kind, Value: value, Message: msg}
	}
}

// arrayCheck wraps a slice predicate into a rule check.
func arrayCheck(rule Rule, defaultMsg string, ok func([]any) bool) ruleCheck {
	msg := message(rule, defaultMsg)
	kind := string(rule.Kind)
	return func(path string, value any) *Violation {
		items, isSlice := value.([]any)
		if !isSlice || ok(items) {
			return nil
		}
		return &Violation{Path: path, Rule: kind, Value: len(items), Message: msg}
	}
}

// numberBound compiles an inclusive or exclusive numeric bound.
func numberBound(id TypeID, field string, rule Rule, format string, ok func(v, bound float64) bool) (ruleCheck, error) {
	bound, err := numberParam(id, field, rule)
	if err != nil {
		return nil, err
	}
	return numberCheck(rule, fmt.Sprintf(format, bound), func(v float64) bool {
		return ok(v, bound)
	}), nil
}

// uniqueItemsCheck rejects duplicate elements by structural equality of a
// canonical serialized form: two distinct objects with identical contents
// count as duplicates.
func uniqueItemsCheck(rule Rule) ruleCheck {
	msg := message(rule, "must not contain duplicate items")
	kind := string(rule.Kind)
	return func(path string, value any) *Violation {
		items, isSlice := value.([]any)
		if !isSlice {
			return nil
		}
		seen := make(map[string]bool, len(items))
		for _, item := range items {
			key := canonicalForm(item)
			if seen[key] {
				return &Violation{Path: path, Rule: kind, Value: item, Message: msg}
			}
			seen[key] = true
		}
		return nil
	}
}

// oneOfCheck restricts a string to a closed value set.
func oneOfCheck(id TypeID, field string, rule Rule) (ruleCheck, error) {
	var allowed []string
	switch vs := rule.Value.(type) {
	case []string:
		allowed = vs
	case []any:
		allowed = make([]string, len(vs))
		for i, v := range vs {
			allowed[i] = fmt.Sprintf("%v", v)
		}
	default:
		return nil, &DefinitionError{Type: id, Field: field, Reason: "one_of rule requires a list parameter"}
	}
	if len(allowed) == 0 {
		return nil, &DefinitionError{Type: id, Field: field, Reason: "one_of rule requires at least one value"}
	}

	msg := message(rule, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
	kind := string(rule.Kind)
	return func(path string, value any) *Violation {
		s, isStr := value.(string)
		if !isStr {
			return nil
		}
		for _, a := range allowed {
			if s == a {
				return nil
			}
		}
		return &Violation{Path: path, Rule: kind, Value: value, Message: msg}
	}, nil
}

// canonicalForm serializes a value deterministically for structural
// comparison. encoding/json sorts map keys, which makes the output stable
// regardless of insertion order.
func canonicalForm(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	return string(b)
}

// isMultiple reports whether v is divisible by div within floating-point
// tolerance.
func isMultiple(v, div float64) bool {
	q := v / div
	return math.Abs(q-math.Round(q)) < 1e-9
}

// numberParam extracts a required numeric rule parameter.
func numberParam(id TypeID, field string, rule Rule) (float64, error) {
	n, ok := numberValue(rule.Value)
	if !ok {
		return 0, &DefinitionError{
			Type: id, Field: field,
			Reason: fmt.Sprintf("%s rule requires a numeric parameter", rule.Kind),
		}
	}
	return n, nil
}

// intParam extracts a required integer rule parameter.
func intParam(id TypeID, field string, rule Rule) (int, error) {
	n, err := numberParam(id, field, rule)
	if err != nil {
		return 0, err
	}
	if n != math.Trunc(n) {
		return 0, &DefinitionError{
			Type: id, Field: field,
			Reason: fmt.Sprintf("%s rule requires an integer parameter", rule.Kind),
		}
	}
	return int(n), nil
}

// message returns the rule's custom message or the default.
func message(rule Rule, defaultMsg string) string {
	if rule.Message != "" {
		return rule.Message
	}
	return defaultMsg
}
