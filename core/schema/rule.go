package schema

// Rule is a named, parameterized constraint applied to one field.
// Rules are ordered; each refines the validator produced by the one before.
type Rule struct {
	// Kind is the rule kind. See Rule* constants.
	Kind RuleKind `yaml:"kind" json:"kind"`

	// Value is the rule parameter (number, pattern string, value list, ...).
	// Kinds like email or uuid take no parameter.
	Value any `yaml:"value,omitempty" json:"value,omitempty"`

	// Message is the custom violation message (optional).
	Message string `yaml:"message,omitempty" json:"message,omitempty"`
}

// RuleKind identifies the kind of rule.
type RuleKind string

const (
	// String rules
	RuleEmail     RuleKind = "email"      // RFC 5322 address
	RuleURL       RuleKind = "url"        // absolute URL
	RulePattern   RuleKind = "pattern"    // regular expression match
	RuleMinLength RuleKind = "min_length" // minimum string length
	RuleMaxLength RuleKind = "max_length" // maximum string length
	RuleUUID      RuleKind = "uuid"       // UUID string
	RuleCUID      RuleKind = "cuid"       // CUID string
	RuleDatetime  RuleKind = "datetime"   // RFC 3339 timestamp string
	RuleIP        RuleKind = "ip"         // IPv4 or IPv6 address

	// Number rules
	RuleMinimum          RuleKind = "minimum"           // inclusive lower bound
	RuleMaximum          RuleKind = "maximum"           // inclusive upper bound
	RuleExclusiveMinimum RuleKind = "exclusive_minimum" // exclusive lower bound
	RuleExclusiveMaximum RuleKind = "exclusive_maximum" // exclusive upper bound
	RuleMultipleOf       RuleKind = "multiple_of"       // divisibility
	RuleInt              RuleKind = "int"               // integral value

	// Array rules
	RuleMinItems    RuleKind = "min_items"    // minimum element count
	RuleMaxItems    RuleKind = "max_items"    // maximum element count
	RuleUniqueItems RuleKind = "unique_items" // no structurally equal elements

	// Polymorphic rules: length bound on strings, value bound on numbers,
	// element count bound on arrays.
	RuleMin RuleKind = "min"
	RuleMax RuleKind = "max"

	// RuleOneOf restricts a string to a closed set of values.
	RuleOneOf RuleKind = "one_of"
)

// ruleCompat maps each rule kind to the validator categories it may be
// applied to. The pipeline consults this table against the resolved
// validator's category before compiling a rule; a mismatch is a
// CompatibilityError.
var ruleCompat = map[RuleKind][]Category{
	RuleEmail:     {CategoryString},
	RuleURL:       {CategoryString},
	RulePattern:   {CategoryString},
	RuleMinLength: {CategoryString},
	RuleMaxLength: {CategoryString},
	RuleUUID:      {CategoryString},
	RuleCUID:      {CategoryString},
	RuleDatetime:  {CategoryString},
	RuleIP:        {CategoryString},

	RuleMinimum:          {CategoryNumber},
	RuleMaximum:          {CategoryNumber},
	RuleExclusiveMinimum: {CategoryNumber},
	RuleExclusiveMaximum: {CategoryNumber},
	RuleMultipleOf:       {CategoryNumber},
	RuleInt:              {CategoryNumber},

	RuleMinItems:    {CategoryArray},
	RuleMaxItems:    {CategoryArray},
	RuleUniqueItems: {CategoryArray},

	RuleMin: {CategoryString, CategoryNumber, CategoryArray},
	RuleMax: {CategoryString, CategoryNumber, CategoryArray},

	RuleOneOf: {CategoryString},
}

// compatibleWith reports whether the rule kind may apply to the category.
// Unknown kinds are compatible with nothing.
func (k RuleKind) compatibleWith(cat Category) bool {
	for _, c := range ruleCompat[k] {
		if c == cat {
			return true
		}
	}
	return false
}
