package streamable

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golovatskygroup/cloudera-ml-mcp/internal/cml"
	"github.com/golovatskygroup/cloudera-ml-mcp/internal/testutil"
	"github.com/golovatskygroup/cloudera-ml-mcp/internal/tools"
)

func newHandler(t *testing.T) (*tools.Handler, *testutil.FakeCloudera) {
	t.Helper()
	fake := testutil.NewFakeCloudera(t)
	return tools.NewHandler(cml.New(fake.Config("p1"), cml.WithRetry(0, time.Millisecond))), fake
}

func roundTrip(t *testing.T, h *tools.Handler, msg string) map[string]any {
	t.Helper()
	s := NewMCPServer(h, "test", "0.0.1")
	resp := s.HandleMessage(context.Background(), json.RawMessage(msg))
	b, err := json.Marshal(resp)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}

func TestToolsListMatchesTable(t *testing.T) {
	h, _ := newHandler(t)
	out := roundTrip(t, h, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)

	result := out["result"].(map[string]any)
	listed := result["tools"].([]any)
	assert.Len(t, listed, len(h.Definitions()))

	for _, item := range listed {
		tool := item.(map[string]any)
		if tool["name"] != "create_job" {
			continue
		}
		schema := tool["inputSchema"].(map[string]any)
		assert.ElementsMatch(t, []any{"name", "script"}, schema["required"])
		return
	}
	t.Fatal("create_job not listed")
}

func TestToolsCallReturnsEnvelope(t *testing.T) {
	h, fake := newHandler(t)
	fake.JSON(http.MethodPost, "/api/v2/projects/p1/jobs", http.StatusOK, map[string]any{"id": "123"})

	out := roundTrip(t, h, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"create_job","arguments":{"name":"train","script":"train.py"}}}`)
	result := out["result"].(map[string]any)
	assert.NotEqual(t, true, result["isError"])

	text := result["content"].([]any)[0].(map[string]any)["text"].(string)
	var env cml.Envelope
	require.NoError(t, json.Unmarshal([]byte(text), &env))
	assert.True(t, env.Success)
	assert.Equal(t, map[string]any{"id": "123"}, env.Data)

	out = roundTrip(t, h, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"create_job","arguments":{}}}`)
	result = out["result"].(map[string]any)
	assert.Equal(t, true, result["isError"])
	assert.Contains(t, result["content"].([]any)[0].(map[string]any)["text"], "Missing required parameter: name")
}

func TestHTTPHandlerInitialize(t *testing.T) {
	h, _ := newHandler(t)
	srv := httptest.NewServer(NewHandler(h, "cloudera-ml-http", "1.0.0"))
	t.Cleanup(srv.Close)

	body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"t","version":"1"}}}`
	req, err := http.NewRequest(http.MethodPost, srv.URL+EndpointPath, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"cloudera-ml-http"`)
}
