package tools

import (
	"github.com/artpar/toolgate/core/schema"
)

// Contract describes what a tool's caller must produce as output.
type Contract struct {
	// Mode is ModeStructured or ModeRawText.
	Mode ContractMode `json:"mode"`

	// TypeID is the identity behind a structured contract.
	TypeID schema.TypeID `json:"type_id,omitempty"`

	// Schema is the compiled schema of a structured contract.
	Schema *schema.Compiled `json:"-"`
}

// ContractMode selects how tool output is handled.
type ContractMode string

const (
	// ModeStructured validates output against a compiled schema.
	ModeStructured ContractMode = "structured"

	// ModeRawText passes output through untouched.
	ModeRawText ContractMode = "raw_text"
)

// ContractFor builds the output contract for a type identity. An identity
// with no registered fields yields a raw-text contract: absence of a
// declaration means unvalidated output, not an error. A declared identity
// that fails to compile is a real defect and surfaces the compile error.
func (r *Registry) ContractFor(id schema.TypeID) (Contract, error) {
	if len(r.compiler.Registry().Fields(id)) == 0 {
		return Contract{Mode: ModeRawText}, nil
	}

	compiled, err := r.compiler.Compile(id)
	if err != nil {
		return Contract{}, err
	}
	return Contract{Mode: ModeStructured, TypeID: id, Schema: compiled}, nil
}

// ParseOutput validates tool output against the contract. Raw-text
// contracts accept anything and return it untouched.
func (c Contract) ParseOutput(value any) (any, error) {
	if c.Mode == ModeRawText {
		return value, nil
	}
	return c.Schema.Parse(value)
}
