package schema

import (
	"sort"
	"sync"
)

// Registry accumulates field declarations per type identity. It is pure
// bookkeeping: no validation happens here, and an empty or partial
// declaration is valid until compile time.
//
// The registry is populated once at startup and read-only afterward. Reset
// exists for test isolation only.
type Registry struct {
	mu   sync.RWMutex
	defs map[TypeID]*definition
}

// definition is the registry's view of one type identity: an append-only,
// ordered list of field slots plus an optional description.
type definition struct {
	description string
	order       []string
	fields      map[string]*FieldDecl
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[TypeID]*definition)}
}

// DefaultRegistry is the process-wide registry used by the package-level
// functions.
var DefaultRegistry = NewRegistry()

// RegisterField records attributes for a field slot. It is idempotent per
// (id, name): registering the same pair again merges the new attributes into
// the existing slot, last write wins per attribute, rather than appending a
// duplicate. It never fails.
func (r *Registry) RegisterField(id TypeID, name string, attrs FieldAttrs) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f := r.slot(id, name)
	if attrs.Description != nil {
		f.Description = *attrs.Description
	}
	if attrs.Optional != nil {
		f.Optional = *attrs.Optional
	}
	if attrs.Type != nil {
		f.Type = attrs.Type
	}
}

// RegisterRule appends a rule to a field's ordered rule list, creating a
// bare field slot if the field was not registered yet. No type checking
// happens here; incompatibilities surface at compile time.
func (r *Registry) RegisterRule(id TypeID, name string, rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f := r.slot(id, name)
	f.Rules = append(f.Rules, rule)
}

// slot returns the field slot for (id, name), creating definition and slot
// as needed. Caller holds the lock.
func (r *Registry) slot(id TypeID, name string) *FieldDecl {
	def := r.defs[id]
	if def == nil {
		def = &definition{fields: make(map[string]*FieldDecl)}
		r.defs[id] = def
	}
	f := def.fields[name]
	if f == nil {
		f = &FieldDecl{Name: name}
		def.fields[name] = f
		def.order = append(def.order, name)
	}
	return f
}

// SetDescription records the definition-level description for a type.
func (r *Registry) SetDescription(id TypeID, description string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	def := r.defs[id]
	if def == nil {
		def = &definition{fields: make(map[string]*FieldDecl)}
		r.defs[id] = def
	}
	def.description = description
}

// Fields returns the declared fields of a type in registration order.
// An unknown type identity returns an empty list: absence of a schema is a
// legitimate state, not an error, and callers treat it as "no declared
// schema" (for example falling back to an unconstrained text contract).
func (r *Registry) Fields(id TypeID) []FieldDecl {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def := r.defs[id]
	if def == nil {
		return []FieldDecl{}
	}

	fields := make([]FieldDecl, 0, len(def.order))
	for _, name := range def.order {
		f := *def.fields[name]
		// Copy the rule list so callers cannot mutate registry state.
		f.Rules = append([]Rule(nil), f.Rules...)
		fields = append(fields, f)
	}
	return fields
}

// Description returns the definition-level description for a type.
func (r *Registry) Description(id TypeID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if def := r.defs[id]; def != nil {
		return def.description
	}
	return ""
}

// Types returns all registered type identities, sorted for deterministic
// iteration.
func (r *Registry) Types() []TypeID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]TypeID, 0, len(r.defs))
	for id := range r.defs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Reset clears the registry (used for testing).
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs = make(map[TypeID]*definition)
}

// RegisterField records field attributes in the default registry.
func RegisterField(id TypeID, name string, attrs FieldAttrs) {
	DefaultRegistry.RegisterField(id, name, attrs)
}

// RegisterRule appends a rule in the default registry.
func RegisterRule(id TypeID, name string, rule Rule) {
	DefaultRegistry.RegisterRule(id, name, rule)
}

// SetDescription sets a type description in the default registry.
func SetDescription(id TypeID, description string) {
	DefaultRegistry.SetDescription(id, description)
}

// Fields returns the declared fields of a type from the default registry.
func Fields(id TypeID) []FieldDecl {
	return DefaultRegistry.Fields(id)
}
