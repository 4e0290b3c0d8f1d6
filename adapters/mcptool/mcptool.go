// Package mcptool converts between compiled schemas and MCP tool
// descriptions. Local tools are advertised with their compiled argument
// schema; discovered remote tools get a validating schema built from their
// advertised input schema through the JSON-Schema bridge.
package mcptool

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/artpar/toolgate/core/schema"
	"github.com/artpar/toolgate/core/tools"
)

// ToMCP renders a registered tool as an MCP tool description. The compiled
// argument schema serializes to the wire shape directly, so what a remote
// client sees is exactly what validation enforces.
func ToMCP(t *tools.Registered) (mcp.Tool, error) {
	raw, err := json.Marshal(t.Schema.Describe())
	if err != nil {
		return mcp.Tool{}, fmt.Errorf("tool %q: marshal schema: %w", t.Name, err)
	}
	return mcp.NewToolWithRawSchema(t.Name, t.Description, raw), nil
}

// FromMCP builds a validating schema for a discovered remote tool from its
// advertised input schema. The remote side is untrusted, so conversion is
// permissive: unrecognized constructs validate as accept-all instead of
// failing discovery.
func FromMCP(t mcp.Tool) (*schema.Compiled, error) {
	tree, err := inputSchemaTree(t)
	if err != nil {
		return nil, fmt.Errorf("tool %q: decode input schema: %w", t.Name, err)
	}
	return schema.FromJSONSchema(tree), nil
}

// inputSchemaTree extracts the tool's input schema as a generic tree,
// preferring the raw form when the producer supplied one.
func inputSchemaTree(t mcp.Tool) (map[string]any, error) {
	data := []byte(t.RawInputSchema)
	if len(data) == 0 {
		var err error
		data, err = json.Marshal(t.InputSchema)
		if err != nil {
			return nil, err
		}
	}

	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}
