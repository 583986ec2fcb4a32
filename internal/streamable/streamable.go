// Package streamable exposes the tool table through the MCP streamable HTTP
// transport of mark3labs/mcp-go.
package streamable

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/golovatskygroup/cloudera-ml-mcp/internal/tools"
)

// EndpointPath is where the streamable handler is mounted.
const EndpointPath = "/mcp"

// NewMCPServer builds an mcp-go server with one tool per definition. The
// input schemas are the same ones the JSON-RPC front ends advertise.
func NewMCPServer(h *tools.Handler, name, version string) *server.MCPServer {
	s := server.NewMCPServer(name, version, server.WithToolCapabilities(true))

	defs := h.Definitions()
	serverTools := make([]server.ServerTool, 0, len(defs))
	for _, def := range defs {
		serverTools = append(serverTools, server.ServerTool{
			Tool:    mcp.NewToolWithRawSchema(def.Name, def.Description, def.InputSchema()),
			Handler: callHandler(h, def.Name),
		})
	}
	s.AddTools(serverTools...)
	return s
}

func callHandler(h *tools.Handler, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		env := h.Call(ctx, name, req.GetArguments())
		text, err := json.MarshalIndent(env, "", "  ")
		if err != nil {
			return nil, err
		}
		if !env.Success {
			return mcp.NewToolResultError(string(text)), nil
		}
		return mcp.NewToolResultText(string(text)), nil
	}
}

// NewHandler returns a stateless streamable HTTP handler serving EndpointPath.
func NewHandler(h *tools.Handler, name, version string) http.Handler {
	return server.NewStreamableHTTPServer(
		NewMCPServer(h, name, version),
		server.WithEndpointPath(EndpointPath),
		server.WithStateLess(true),
	)
}
