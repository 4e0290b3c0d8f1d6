package schema

// TypeID identifies a registered type definition.
type TypeID string

// Kind is the base kind of a type descriptor.
type Kind int

const (
	// KindString is a text value.
	KindString Kind = iota

	// KindNumber is a numeric value (integers and floats).
	KindNumber

	// KindBool is a boolean value.
	KindBool

	// KindDate is a point in time (time.Time or RFC 3339 string).
	KindDate

	// KindEnum is a closed set of values. Requires Enum.
	KindEnum

	// KindArray is an ordered list. Requires Elem.
	KindArray

	// KindObject references another registered type. Requires Ref.
	KindObject
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	case KindEnum:
		return "enum"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// TypeRef describes the declared type of one field.
// Exactly one variant applies: a primitive kind, an enum with its values,
// an array with its item descriptor, or a reference to a registered type.
type TypeRef struct {
	// Kind is the base kind.
	Kind Kind

	// Enum lists the allowed values for KindEnum.
	// All values must be strings, or all numbers.
	Enum []any

	// Elem is the item type for KindArray.
	Elem *TypeRef

	// Ref is the target type for KindObject.
	Ref TypeID
}

// String returns a string type descriptor.
func String() *TypeRef { return &TypeRef{Kind: KindString} }

// Number returns a number type descriptor.
func Number() *TypeRef { return &TypeRef{Kind: KindNumber} }

// Bool returns a bool type descriptor.
func Bool() *TypeRef { return &TypeRef{Kind: KindBool} }

// Date returns a date type descriptor.
func Date() *TypeRef { return &TypeRef{Kind: KindDate} }

// Enum returns an enum type descriptor over the given values.
func Enum(values ...any) *TypeRef { return &TypeRef{Kind: KindEnum, Enum: values} }

// ArrayOf returns an array type descriptor with the given item type.
func ArrayOf(elem *TypeRef) *TypeRef { return &TypeRef{Kind: KindArray, Elem: elem} }

// Ref returns a descriptor referencing another registered type.
func Ref(id TypeID) *TypeRef { return &TypeRef{Kind: KindObject, Ref: id} }

// FieldDecl is one declared field of a type definition.
type FieldDecl struct {
	// Name is the field name, unique within its owning definition.
	Name string

	// Description for documentation and tool-calling payloads.
	Description string

	// Optional fields may be omitted entirely. When present, all rules
	// still apply.
	Optional bool

	// Type is the declared type descriptor. A field without a type
	// descriptor is valid until compile time.
	Type *TypeRef

	// Rules are applied in declaration order on top of the base type.
	Rules []Rule
}

// FieldAttrs carries the attributes of a field registration.
// Nil attributes leave the existing slot value untouched, so repeated
// registrations merge last-write-wins per attribute.
type FieldAttrs struct {
	Description *string
	Optional    *bool
	Type        *TypeRef
}
