package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/golovatskygroup/cloudera-ml-mcp/internal/server"
	"github.com/golovatskygroup/cloudera-ml-mcp/internal/tools"
	"github.com/golovatskygroup/cloudera-ml-mcp/pkg/mcp"
)

const maxRequestBytes = 16 << 20

type handlers struct {
	tools *tools.Handler
	rpc   *server.Server
}

// rpcCall serves POST /mcp-api. JSON-RPC errors also set the HTTP status:
// unknown method or tool is 404, malformed input 400, internal errors 500.
func (h *handlers) rpcCall(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRequestBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, mcp.NewErrorResponse(nil, mcp.ParseError, "Parse error"))
		return
	}

	var req mcp.Request
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, mcp.NewErrorResponse(nil, mcp.ParseError, "Parse error"))
		return
	}
	if req.Method == "" {
		c.JSON(http.StatusBadRequest, mcp.NewErrorResponse(req.ID, mcp.InvalidRequest, "Invalid request: missing method"))
		return
	}

	resp := h.rpc.Handle(c.Request.Context(), &req)
	if resp == nil {
		c.Status(http.StatusAccepted)
		return
	}
	c.JSON(rpcStatus(resp), resp)
}

func rpcStatus(resp *mcp.Response) int {
	if resp.Error == nil {
		return http.StatusOK
	}
	switch resp.Error.Code {
	case mcp.MethodNotFound:
		return http.StatusNotFound
	case mcp.ParseError, mcp.InvalidRequest, mcp.InvalidParams:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *handlers) test(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"message":         "Cloudera ML HTTP Server is running",
		"transport":       "http",
		"endpoint":        "/mcp-api",
		"tools_available": len(h.tools.Tools()),
	})
}

// debugTools lists tool names; ?q= narrows the list with the catalog search.
func (h *handlers) debugTools(c *gin.Context) {
	var names []string
	if q := c.Query("q"); q != "" {
		for _, s := range h.tools.ToolSummaries(q) {
			names = append(names, s.Name)
		}
	} else {
		names = h.tools.Registry().Names()
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"tools_count": len(names),
		"tools":       names,
	})
}

type debugCallRequest struct {
	Tool   string          `json:"tool"`
	Params json.RawMessage `json:"params"`
}

// debugCall runs a tool without the JSON-RPC framing.
func (h *handlers) debugCall(c *gin.Context) {
	var req debugCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid request body: " + err.Error()})
		return
	}

	def, ok := h.tools.Lookup(req.Tool)
	if !ok {
		available := h.tools.Registry().Names()
		if len(available) > 10 {
			available = available[:10]
		}
		c.JSON(http.StatusNotFound, gin.H{
			"status":          "error",
			"message":         "Tool '" + req.Tool + "' not found",
			"available_tools": available,
			"suggestions":     h.tools.Registry().Suggest(req.Tool, 3),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"tool":   def.Name,
		"result": h.tools.CallJSON(c.Request.Context(), def.Name, req.Params),
	})
}
