package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golovatskygroup/cloudera-ml-mcp/internal/cml"
	"github.com/golovatskygroup/cloudera-ml-mcp/internal/config"
	"github.com/golovatskygroup/cloudera-ml-mcp/internal/metrics"
	"github.com/golovatskygroup/cloudera-ml-mcp/internal/testutil"
	"github.com/golovatskygroup/cloudera-ml-mcp/internal/tools"
	"github.com/golovatskygroup/cloudera-ml-mcp/pkg/mcp"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, httpCfg config.HTTPConfig) (*gin.Engine, *testutil.FakeCloudera) {
	t.Helper()
	fake := testutil.NewFakeCloudera(t)
	client := cml.New(fake.Config("p1"), cml.WithRetry(0, time.Millisecond))
	return NewRouter(RouterConfig{
		Handler: tools.NewHandler(client),
		Metrics: metrics.New(),
		HTTP:    httpCfg,
	}), fake
}

func do(t *testing.T, r http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestTestEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, config.HTTPConfig{})
	w := do(t, r, http.MethodGet, "/test", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "Cloudera ML HTTP Server is running", body["message"])
	assert.Equal(t, "/mcp-api", body["endpoint"])
	assert.Greater(t, body["tools_available"], float64(50))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRPCInitializeAndList(t *testing.T) {
	r, _ := newTestRouter(t, config.HTTPConfig{})

	w := do(t, r, http.MethodPost, "/mcp-api", `{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
	require.Equal(t, http.StatusOK, w.Code)
	result := decode(t, w)["result"].(map[string]any)
	assert.Equal(t, "2024-11-05", result["protocolVersion"])
	assert.Equal(t, map[string]any{"name": "cloudera-ml-http", "version": "1.0.0"}, result["serverInfo"])
	assert.Equal(t, map[string]any{"tools": map[string]any{}}, result["capabilities"])

	w = do(t, r, http.MethodPost, "/mcp-api", `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	require.Equal(t, http.StatusOK, w.Code)
	listed := decode(t, w)["result"].(map[string]any)["tools"].([]any)
	assert.Greater(t, len(listed), 50)
}

func TestRPCToolCall(t *testing.T) {
	r, fake := newTestRouter(t, config.HTTPConfig{})
	fake.JSON(http.MethodGet, "/api/v2/projects/p1/jobs", http.StatusOK, map[string]any{"jobs": []any{map[string]any{"id": "j1"}}})

	w := do(t, r, http.MethodPost, "/mcp-api",
		`{"jsonrpc":"2.0","id":"x","method":"tools/call","params":{"name":"list_jobs_tool","arguments":{}}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp mcp.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, `"x"`, string(resp.ID))
	var result mcp.CallToolResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.False(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "Found 1 jobs")
}

func TestRPCErrorStatuses(t *testing.T) {
	r, _ := newTestRouter(t, config.HTTPConfig{})

	tests := []struct {
		name   string
		body   string
		status int
		code   float64
		msg    string
	}{
		{"unknown tool", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"bogus_tool"}}`, http.StatusNotFound, mcp.MethodNotFound, "Tool not found: bogus_tool"},
		{"unknown method", `{"jsonrpc":"2.0","id":1,"method":"prompts/list"}`, http.StatusNotFound, mcp.MethodNotFound, "Method not found: prompts/list"},
		{"parse error", `{"jsonrpc":`, http.StatusBadRequest, mcp.ParseError, "Parse error"},
		{"missing method", `{"jsonrpc":"2.0","id":1}`, http.StatusBadRequest, mcp.InvalidRequest, "Invalid request: missing method"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/mcp-api", tt.body)
			assert.Equal(t, tt.status, w.Code)
			rpcErr := decode(t, w)["error"].(map[string]any)
			assert.Equal(t, tt.code, rpcErr["code"])
			assert.Equal(t, tt.msg, rpcErr["message"])
		})
	}
}

func TestRPCNotificationIsAccepted(t *testing.T) {
	r, _ := newTestRouter(t, config.HTTPConfig{})
	w := do(t, r, http.MethodPost, "/mcp-api", `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestDebugRoutes(t *testing.T) {
	r, fake := newTestRouter(t, config.HTTPConfig{})
	fake.JSON(http.MethodGet, "/api/v2/runtimes", http.StatusOK, map[string]any{"runtimes": []any{}})

	w := do(t, r, http.MethodGet, "/debug/tools", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(len(body["tools"].([]any))), body["tools_count"])

	w = do(t, r, http.MethodGet, "/debug/tools?q=experiment", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w)["tools"], "create_experiment")

	w = do(t, r, http.MethodPost, "/debug/call", `{"tool":"get_runtimes_tool","params":{}}`)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, "get_runtimes", body["tool"])
	assert.Equal(t, true, body["result"].(map[string]any)["success"])

	w = do(t, r, http.MethodPost, "/debug/call", `{"tool":"nope","params":{}}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	body = decode(t, w)
	assert.Equal(t, "Tool 'nope' not found", body["message"])
	assert.Len(t, body["available_tools"], 10)
}

func TestBearerTokenProtectsToolRoutes(t *testing.T) {
	r, _ := newTestRouter(t, config.HTTPConfig{AuthToken: "s3cret"})

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/test", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, r, http.MethodGet, "/debug/tools", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, r, http.MethodGet, "/debug/tools", "", "Authorization", "Bearer wrong").Code)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/debug/tools", "", "Authorization", "Bearer s3cret").Code)
}

func TestRateLimit(t *testing.T) {
	r, _ := newTestRouter(t, config.HTTPConfig{RateLimit: 0.001, RateBurst: 2})

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/debug/tools", "").Code)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/debug/tools", "").Code)
	w := do(t, r, http.MethodGet, "/debug/tools", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, config.HTTPConfig{})
	do(t, r, http.MethodGet, "/test", "")

	w := do(t, r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `cml_mcp_http_requests_total{method="GET",path="/test",status="200"} 1`)
}
