// Package server implements the JSON-RPC side of MCP shared by the stdio
// front end and the HTTP /mcp-api endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/golovatskygroup/cloudera-ml-mcp/internal/logging"
	"github.com/golovatskygroup/cloudera-ml-mcp/internal/tools"
	"github.com/golovatskygroup/cloudera-ml-mcp/pkg/mcp"
)

const (
	StdioName = "cloudera-ml-mcp"
	HTTPName  = "cloudera-ml-http"
	Version   = "1.0.0"
)

// Server answers MCP requests from the tool handler.
type Server struct {
	handler *tools.Handler
	info    mcp.ServerInfo
	log     *zap.Logger
}

type Option func(*Server)

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithInfo sets the serverInfo returned by initialize.
func WithInfo(name, version string) Option {
	return func(s *Server) { s.info = mcp.ServerInfo{Name: name, Version: version} }
}

func New(handler *tools.Handler, opts ...Option) *Server {
	s := &Server{
		handler: handler,
		info:    mcp.ServerInfo{Name: StdioName, Version: Version},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serve runs the stdio loop until r is exhausted or ctx is canceled. Requests
// are answered one at a time, in order.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	transport := mcp.NewTransport(r, w)
	log := s.log.With(zap.String(logging.FieldTransport, "stdio"))
	log.Info("serving MCP over stdio", zap.Int("tools", len(s.handler.Tools())))

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		req, err := transport.ReadMessage()
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				return nil
			case errors.Is(err, mcp.ErrParse), errors.Is(err, mcp.ErrMessageTooLarge):
				log.Warn("dropping malformed message", zap.Error(err))
				if werr := transport.WriteResponse(mcp.NewErrorResponse(nil, mcp.ParseError, "Parse error")); werr != nil {
					return werr
				}
				continue
			default:
				return fmt.Errorf("read message: %w", err)
			}
		}

		resp := s.Handle(logging.WithLogger(ctx, log), req)
		if resp == nil {
			continue
		}
		if err := transport.WriteResponse(resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
}

// Handle answers one request. It returns nil for notifications.
func (s *Server) Handle(ctx context.Context, req *mcp.Request) *mcp.Response {
	if strings.HasPrefix(req.Method, "notifications/") {
		return nil
	}
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "tools/list":
		return s.handleListTools(req)
	case "tools/call":
		return s.handleCallTool(ctx, req)
	case "ping":
		return respond(req, map[string]any{})
	default:
		if req.IsNotification() {
			return nil
		}
		return mcp.NewErrorResponse(req.ID, mcp.MethodNotFound, "Method not found: "+req.Method)
	}
}

func (s *Server) handleInitialize(req *mcp.Request) *mcp.Response {
	return respond(req, mcp.InitializeResult{
		ProtocolVersion: mcp.ProtocolVersion,
		Capabilities: mcp.ServerCapabilities{
			Tools: &mcp.ToolsCapability{},
		},
		ServerInfo:   s.info,
		Instructions: s.instructions(),
	})
}

func (s *Server) handleListTools(req *mcp.Request) *mcp.Response {
	return respond(req, mcp.ListToolsResult{Tools: s.handler.Tools()})
}

func (s *Server) handleCallTool(ctx context.Context, req *mcp.Request) *mcp.Response {
	var params mcp.CallToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return mcp.NewErrorResponse(req.ID, mcp.InvalidParams, "Invalid params: "+err.Error())
	}
	if params.Name == "" {
		return mcp.NewErrorResponse(req.ID, mcp.InvalidParams, "Invalid params: missing tool name")
	}

	result, err := s.handler.Handle(ctx, params.Name, params.Arguments)
	if errors.Is(err, tools.ErrUnknownTool) {
		return mcp.NewErrorResponse(req.ID, mcp.MethodNotFound, "Tool not found: "+params.Name)
	}
	if err != nil {
		return mcp.NewErrorResponse(req.ID, mcp.InternalError, "Internal error: "+err.Error())
	}
	return respond(req, result)
}

func (s *Server) instructions() string {
	var sb strings.Builder
	sb.WriteString("Cloudera AI/ML workspace tools. Every tool returns JSON of the form ")
	sb.WriteString("{success, message, data, details}.\n")
	sb.WriteString("project_id defaults to the configured project when omitted.\n")
	sb.WriteString("Use search_tools and describe_tool to explore.\n\nCategories:\n")
	for _, cat := range s.handler.Registry().ListCategories() {
		fmt.Fprintf(&sb, "- %s (%d): %s\n", cat.Name, len(cat.Tools), cat.Description)
	}
	return sb.String()
}

func respond(req *mcp.Request, result any) *mcp.Response {
	resp, err := mcp.NewResponse(req.ID, result)
	if err != nil {
		return mcp.NewErrorResponse(req.ID, mcp.InternalError, "Internal error: "+err.Error())
	}
	return resp
}
