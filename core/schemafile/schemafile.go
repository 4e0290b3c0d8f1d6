package schemafile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/artpar/toolgate/core/schema"
)

// File is the top-level structure of a declaration file.
type File struct {
	Types []Type `yaml:"types"`
	Tools []Tool `yaml:"tools,omitempty"`
}

// Tool declares a tool bound to a declared argument type. Handlers are
// attached by the host program; a declaration alone describes and validates.
type Tool struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	ArgsType    string `yaml:"args_type"`
}

// Type is one declared type: an identity, an optional description, and an
// ordered field list.
type Type struct {
	ID          string  `yaml:"id"`
	Description string  `yaml:"description,omitempty"`
	Fields      []Field `yaml:"fields"`
}

// Field is one declared field. The type keys (type, values, items, ref)
// describe the base type; rules refine it in order.
type Field struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description,omitempty"`
	Optional    bool          `yaml:"optional,omitempty"`
	Type        string        `yaml:"type"`
	Values      []any         `yaml:"values,omitempty"`
	Items       *Item         `yaml:"items,omitempty"`
	Ref         string        `yaml:"ref,omitempty"`
	Rules       []schema.Rule `yaml:"rules,omitempty"`
}

// Item describes an array's element type. Items nest, so arrays of arrays
// declare naturally.
type Item struct {
	Type   string `yaml:"type"`
	Values []any  `yaml:"values,omitempty"`
	Items  *Item  `yaml:"items,omitempty"`
	Ref    string `yaml:"ref,omitempty"`
}

// ParseFile parses type declarations from a YAML file.
func ParseFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses type declarations from YAML bytes.
func Parse(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("parse yaml: %w", err)
	}

	if err := Validate(f); err != nil {
		return File{}, err
	}

	return f, nil
}

// ParseDir parses all declaration files from a directory, including
// subdirectories.
func ParseDir(dir string) ([]File, error) {
	var files []File

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			sub, err := ParseDir(path)
			if err != nil {
				return nil, err
			}
			files = append(files, sub...)
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		f, err := ParseFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		files = append(files, f)
	}

	return files, nil
}

// Register registers every declaration from the file with the registry.
// Field order in the file becomes registration order.
func Register(r *schema.Registry, f File) {
	for _, t := range f.Types {
		id := schema.TypeID(t.ID)
		if t.Description != "" {
			r.SetDescription(id, t.Description)
		}
		for _, field := range t.Fields {
			ref := field.typeRef()
			attrs := schema.FieldAttrs{Type: ref}
			if field.Description != "" {
				desc := field.Description
				attrs.Description = &desc
			}
			if field.Optional {
				opt := true
				attrs.Optional = &opt
			}
			r.RegisterField(id, field.Name, attrs)
			for _, rule := range field.Rules {
				r.RegisterRule(id, field.Name, rule)
			}
		}
	}
}

// Load parses every file under dir and registers the declarations.
func Load(r *schema.Registry, dir string) ([]File, error) {
	files, err := ParseDir(dir)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		Register(r, f)
	}
	return files, nil
}

// Validate checks the structural rules of a declaration file.
func Validate(f File) error {
	var errs []string

	if len(f.Types) == 0 && len(f.Tools) == 0 {
		errs = append(errs, "file declares no types or tools")
	}

	seen := make(map[string]bool)
	for _, t := range f.Types {
		if !isValidIdentifier(t.ID) {
			errs = append(errs, fmt.Sprintf("type id %q is not a valid identifier", t.ID))
		}
		if seen[t.ID] {
			errs = append(errs, fmt.Sprintf("type %q is declared twice", t.ID))
		}
		seen[t.ID] = true

		if len(t.Fields) == 0 {
			errs = append(errs, fmt.Sprintf("type %q has no fields", t.ID))
		}

		names := make(map[string]bool)
		for _, field := range t.Fields {
			if !isValidIdentifier(field.Name) {
				errs = append(errs, fmt.Sprintf("type %q: field name %q is not a valid identifier", t.ID, field.Name))
			}
			if names[field.Name] {
				errs = append(errs, fmt.Sprintf("type %q: field %q is declared twice", t.ID, field.Name))
			}
			names[field.Name] = true

			if err := validateField(t.ID, field); err != nil {
				errs = append(errs, err.Error())
			}
		}
	}

	toolNames := make(map[string]bool)
	for _, tool := range f.Tools {
		if !isValidIdentifier(tool.Name) {
			errs = append(errs, fmt.Sprintf("tool name %q is not a valid identifier", tool.Name))
		}
		if toolNames[tool.Name] {
			errs = append(errs, fmt.Sprintf("tool %q is declared twice", tool.Name))
		}
		toolNames[tool.Name] = true
		if tool.ArgsType == "" {
			errs = append(errs, fmt.Sprintf("tool %q: args_type is required", tool.Name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// validateField checks one field's type keys. Rule parameters and
// compatibility are the compiler's concern.
func validateField(typeID string, field Field) error {
	switch field.Type {
	case "string", "number", "bool", "date":
		return nil

	case "enum":
		if len(field.Values) == 0 {
			return fmt.Errorf("type %q: field %q: enum type requires values", typeID, field.Name)
		}
		return nil

	case "array":
		if field.Items == nil {
			return fmt.Errorf("type %q: field %q: array type requires items", typeID, field.Name)
		}
		return validateItem(typeID, field.Name, field.Items)

	case "object":
		if field.Ref == "" {
			return fmt.Errorf("type %q: field %q: object type requires a ref target", typeID, field.Name)
		}
		return nil

	default:
		return fmt.Errorf("type %q: field %q: unknown type %q", typeID, field.Name, field.Type)
	}
}

func validateItem(typeID, fieldName string, item *Item) error {
	switch item.Type {
	case "string", "number", "bool", "date":
		return nil
	case "enum":
		if len(item.Values) == 0 {
			return fmt.Errorf("type %q: field %q: enum items require values", typeID, fieldName)
		}
		return nil
	case "array":
		if item.Items == nil {
			return fmt.Errorf("type %q: field %q: array items require nested items", typeID, fieldName)
		}
		return validateItem(typeID, fieldName, item.Items)
	case "object":
		if item.Ref == "" {
			return fmt.Errorf("type %q: field %q: object items require a ref target", typeID, fieldName)
		}
		return nil
	default:
		return fmt.Errorf("type %q: field %q: unknown item type %q", typeID, fieldName, item.Type)
	}
}

// typeRef converts the field's type keys into a type descriptor. Validation
// already ran, so the shape is known to be consistent.
func (f Field) typeRef() *schema.TypeRef {
	return buildRef(f.Type, f.Values, f.Items, f.Ref)
}

func (i *Item) typeRef() *schema.TypeRef {
	return buildRef(i.Type, i.Values, i.Items, i.Ref)
}

func buildRef(typ string, values []any, items *Item, ref string) *schema.TypeRef {
	switch typ {
	case "string":
		return schema.String()
	case "number":
		return schema.Number()
	case "bool":
		return schema.Bool()
	case "date":
		return schema.Date()
	case "enum":
		return schema.Enum(values...)
	case "array":
		return schema.ArrayOf(items.typeRef())
	case "object":
		return schema.Ref(schema.TypeID(ref))
	default:
		return nil
	}
}

// isValidIdentifier checks if a string is a valid identifier.
func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, c := range s {
		if i == 0 {
			if !isLetter(c) && c != '_' {
				return false
			}
		} else {
			if !isLetter(c) && !isDigit(c) && c != '_' {
				return false
			}
		}
	}

	return true
}

func isLetter(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}
