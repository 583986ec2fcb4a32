package tools

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validArgs fills every required and path parameter of def with a value of
// its declared type. project_id is always explicit.
func validArgs(def *Definition) map[string]any {
	args := map[string]any{}
	for _, p := range def.Params {
		if !p.Required && !p.FromConfig {
			continue
		}
		args[p.Name] = sampleValue(p)
	}
	return args
}

func sampleValue(p Param) any {
	if len(p.Enum) > 0 {
		return p.Enum[0]
	}
	switch p.Type {
	case Integer, Number:
		return 1
	case Boolean:
		return true
	case Array:
		return []any{"a"}
	case Object, Any:
		return map[string]any{"k": "v"}
	}
	return "x"
}

func requestPath(t *testing.T, h *Handler, def *Definition, args map[string]any) string {
	t.Helper()
	prepared, err := prepare(def, args, h.Client().Config())
	require.NoError(t, err)
	req, err := def.request(prepared)
	require.NoError(t, err)
	return req.Path
}

func singleRequestDefinitions(t *testing.T) []*Definition {
	t.Helper()
	h, _ := newTestHandler(t, "")
	var out []*Definition
	for _, def := range h.Definitions() {
		if def.Run == nil {
			out = append(out, def)
		}
	}
	require.NotEmpty(t, out)
	return out
}

func TestDefinitionsRejectMissingRequiredParams(t *testing.T) {
	for _, def := range singleRequestDefinitions(t) {
		t.Run(def.Name, func(t *testing.T) {
			h, fake := newTestHandler(t, "")
			for _, p := range def.Params {
				if !p.Required && !p.FromConfig {
					continue
				}
				args := validArgs(def)
				delete(args, p.Name)

				env := h.Call(context.Background(), def.Name, args)
				assert.False(t, env.Success, p.Name)
				assert.Equal(t, "Missing required parameter: "+p.Name, env.Message)
			}
			assert.Empty(t, fake.Requests())
		})
	}
}

func TestDefinitionsReportUpstreamErrors(t *testing.T) {
	for _, def := range singleRequestDefinitions(t) {
		t.Run(def.Name, func(t *testing.T) {
			h, fake := newTestHandler(t, "")
			args := validArgs(def)
			fake.JSON(def.Method, requestPath(t, h, def, args), http.StatusInternalServerError,
				map[string]any{"error": map[string]any{"message": "boom"}})

			env := h.Call(context.Background(), def.Name, args)
			assert.False(t, env.Success)
			assert.Contains(t, env.Message, "boom")
			require.NotEmpty(t, fake.Requests())
			assert.Equal(t, def.Method, fake.Last(t).Method)
		})
	}
}

func TestDefinitionsReturnResponseData(t *testing.T) {
	for _, def := range singleRequestDefinitions(t) {
		t.Run(def.Name, func(t *testing.T) {
			h, fake := newTestHandler(t, "")
			args := validArgs(def)
			fake.JSON(def.Method, requestPath(t, h, def, args), http.StatusOK, map[string]any{"id": "x"})

			env := h.Call(context.Background(), def.Name, args)
			require.True(t, env.Success, env.Message)
			data, ok := env.Data.(map[string]any)
			require.True(t, ok, "data is %T", env.Data)
			assert.Equal(t, "x", data["id"])
			assert.Len(t, fake.Requests(), 1)
		})
	}
}
