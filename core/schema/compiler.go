package schema

import (
	"sync"
)

// Compiler turns registered definitions into Compiled schemas. It owns the
// compiled-schema cache: a given type identity compiles exactly once per
// compiler lifetime, every later request returns the same instance, and
// concurrent first use never runs the resolution pipeline twice.
//
// Only successful compilations are cached. A definition that fails to
// compile is re-resolved on the next call, so a fixed-up registry (in tests,
// after Reset) is picked up.
type Compiler struct {
	registry *Registry

	mu    sync.Mutex
	cache map[TypeID]*Compiled
}

// NewCompiler creates a compiler over the given registry.
func NewCompiler(registry *Registry) *Compiler {
	return &Compiler{
		registry: registry,
		cache:    make(map[TypeID]*Compiled),
	}
}

// DefaultCompiler compiles definitions from DefaultRegistry.
var DefaultCompiler = NewCompiler(DefaultRegistry)

// Compile returns the Compiled schema for a type identity, compiling it on
// first use. Failure is definition-time only: a DefinitionError or
// CompatibilityError here means the declaration itself is broken, and a
// schema that compiled successfully never later fails on its own structure.
func (c *Compiler) Compile(id TypeID) (*Compiled, error) {
	// Compilation is CPU-bound and near-instant; a single lock gives both
	// the at-most-once compute guarantee and referential stability.
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.compileLocked(id, make(map[TypeID]bool))
}

// compileLocked compiles one type, recursing through nested references.
// visiting tracks the reference chain of the current compilation so that a
// cycle (a type reachable from itself) is rejected instead of recursing
// forever. Caller holds the lock.
func (c *Compiler) compileLocked(id TypeID, visiting map[TypeID]bool) (*Compiled, error) {
	if compiled, ok := c.cache[id]; ok {
		return compiled, nil
	}
	if visiting[id] {
		return nil, &DefinitionError{Type: id, Reason: "self-referential type graphs are not supported"}
	}
	visiting[id] = true
	defer delete(visiting, id)

	decls := c.registry.Fields(id)
	if len(decls) == 0 {
		return nil, &DefinitionError{Type: id, Reason: "no fields registered for type"}
	}

	fields := make([]objectField, 0, len(decls))
	properties := make(map[string]*Description, len(decls))
	order := make([]string, 0, len(decls))
	var required []string

	for _, decl := range decls {
		base, err := c.resolveType(id, decl.Name, decl.Type, visiting)
		if err != nil {
			return nil, err
		}

		validator, err := c.applyRules(id, decl.Name, base, decl.Rules)
		if err != nil {
			return nil, err
		}

		fields = append(fields, objectField{
			name:      decl.Name,
			optional:  decl.Optional,
			validator: validator,
		})

		desc, err := c.describeType(id, decl.Name, decl.Type, decl.Rules, visiting)
		if err != nil {
			return nil, err
		}
		desc.Description = decl.Description
		properties[decl.Name] = desc
		order = append(order, decl.Name)
		if !decl.Optional {
			required = append(required, decl.Name)
		}
	}

	strict := false
	compiled := &Compiled{
		id:          id,
		description: c.registry.Description(id),
		root:        &objectValidator{fields: fields},
		schema: &Description{
			Type:                 "object",
			Description:          c.registry.Description(id),
			Properties:           properties,
			PropertyOrder:        order,
			Required:             required,
			AdditionalProperties: &strict,
		},
	}

	c.cache[id] = compiled
	return compiled, nil
}

// Registry returns the registry this compiler resolves definitions from.
func (c *Compiler) Registry() *Registry {
	return c.registry
}

// Reset clears the compiled-schema cache (used for testing).
func (c *Compiler) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[TypeID]*Compiled)
}

// Compile compiles a type identity with the default compiler.
func Compile(id TypeID) (*Compiled, error) {
	return DefaultCompiler.Compile(id)
}

// Reset clears the default registry and the default compiler's cache.
// There is no invalidation path in normal operation: redefining a type after
// its first compilation is unsupported. Reset exists for test isolation.
func Reset() {
	DefaultRegistry.Reset()
	DefaultCompiler.Reset()
}
