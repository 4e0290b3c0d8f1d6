// Package tools manages tool registration and argument validation.
// A tool binds a name and description to a declared argument type; the
// registry compiles the type on registration and validates every call's
// arguments against the compiled schema.
package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/artpar/toolgate/core/schema"
)

// Handler executes a tool call with validated, normalized arguments.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Tool declares one callable tool.
type Tool struct {
	// Name is the unique tool name.
	Name string

	// Description tells a caller what the tool does.
	Description string

	// ArgsType is the registered type the arguments must conform to.
	ArgsType schema.TypeID

	// Handler runs the tool. Optional for tools that are only described,
	// never executed locally.
	Handler Handler
}

// Registered is a tool together with its compiled argument schema.
type Registered struct {
	Tool

	// Schema is the compiled argument schema, shared and immutable.
	Schema *schema.Compiled
}

// Registry manages registered tools and their compiled schemas.
type Registry struct {
	mu sync.RWMutex

	// tools by name
	tools map[string]*Registered

	// compiler resolves argument types
	compiler *schema.Compiler

	logger zerolog.Logger
}

// NewRegistry creates a tool registry backed by the given compiler.
func NewRegistry(compiler *schema.Compiler, logger zerolog.Logger) *Registry {
	return &Registry{
		tools:    make(map[string]*Registered),
		compiler: compiler,
		logger:   logger.With().Str("component", "tools").Logger(),
	}
}

// Register registers a tool. The argument type is compiled here, so a broken
// declaration fails registration, not the first call. Returns an error on a
// duplicate name.
func (r *Registry) Register(t Tool) error {
	if t.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if t.ArgsType == "" {
		return fmt.Errorf("tool %q: argument type is required", t.Name)
	}

	compiled, err := r.compiler.Compile(t.ArgsType)
	if err != nil {
		return fmt.Errorf("tool %q: compile arguments: %w", t.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("tool %q already registered", t.Name)
	}
	r.tools[t.Name] = &Registered{Tool: t, Schema: compiled}

	r.logger.Info().
		Str("tool", t.Name).
		Str("args_type", string(t.ArgsType)).
		Msg("tool registered")

	return nil
}

// Unregister removes a tool from the registry.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; !exists {
		return fmt.Errorf("tool %q not registered", name)
	}
	delete(r.tools, name)
	return nil
}

// Get returns a registered tool by name.
func (r *Registry) Get(name string) (*Registered, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	return t, ok
}

// List returns all registered tools sorted by name.
func (r *Registry) List() []*Registered {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*Registered, 0, len(r.tools))
	for _, t := range r.tools {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// ParseArguments validates raw arguments for the named tool and returns
// their normalized form. A schema violation comes back as a
// *schema.ValidationError, recoverable by the caller: report the violations
// to the producing side and retry.
func (r *Registry) ParseArguments(name string, args any) (map[string]any, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("tool %q not registered", name)
	}
	return t.Schema.Parse(args)
}

// Call validates the arguments and runs the tool's handler.
func (r *Registry) Call(ctx context.Context, name string, args any) (any, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("tool %q not registered", name)
	}
	if t.Handler == nil {
		return nil, fmt.Errorf("tool %q has no handler", name)
	}

	parsed, err := t.Schema.Parse(args)
	if err != nil {
		r.logger.Debug().
			Str("tool", name).
			Err(err).
			Msg("argument validation failed")
		return nil, err
	}

	return t.Handler(ctx, parsed)
}
