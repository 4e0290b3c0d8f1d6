package mcptool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/artpar/toolgate/core/schema"
	"github.com/artpar/toolgate/core/tools"
)

// Server exposes a tool registry as an MCP server.
type Server struct {
	registry  *tools.Registry
	mcpServer *server.MCPServer
	logger    zerolog.Logger
}

// NewServer creates an MCP server advertising every tool in the registry.
func NewServer(name, version string, registry *tools.Registry, logger zerolog.Logger) (*Server, error) {
	s := &Server{
		registry:  registry,
		mcpServer: server.NewMCPServer(name, version),
		logger:    logger.With().Str("component", "mcp").Logger(),
	}
	if err := s.registerTools(); err != nil {
		return nil, err
	}
	return s, nil
}

// ServeStdio starts the server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() error {
	for _, t := range s.registry.List() {
		desc, err := ToMCP(t)
		if err != nil {
			return err
		}
		s.mcpServer.AddTool(desc, s.handlerFor(t.Name))
	}
	return nil
}

// handlerFor builds the call handler for one tool. A schema violation is a
// tool-level error result, not a protocol failure: the caller sees the
// violations and can retry with corrected arguments.
func (s *Server) handlerFor(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := s.registry.Call(ctx, name, request.GetArguments())
		if err != nil {
			var verr *schema.ValidationError
			if errors.As(err, &verr) {
				s.logger.Debug().Str("tool", name).Err(verr).Msg("call arguments rejected")
				return mcp.NewToolResultError(verr.Error()), nil
			}
			return nil, fmt.Errorf("tool %q: %w", name, err)
		}

		if text, ok := out.(string); ok {
			return mcp.NewToolResultText(text), nil
		}
		jsonBytes, err := json.Marshal(out)
		if err != nil {
			return nil, fmt.Errorf("tool %q: marshal result: %w", name, err)
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	}
}
