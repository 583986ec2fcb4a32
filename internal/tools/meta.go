package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/golovatskygroup/cloudera-ml-mcp/internal/cml"
	"github.com/golovatskygroup/cloudera-ml-mcp/pkg/mcp"
)

// metaDefinitions are the catalog tools. They answer from the registry and
// need no Cloudera connection.
func metaDefinitions() []*Definition {
	return []*Definition{
		{
			Name:        "search_tools",
			Category:    catMeta,
			Description: "Search the available tools by keyword or category. An empty query lists every tool.",
			Params: one(
				Param{Name: "query", Type: String, In: InLocal, Description: "Keywords, e.g. 'deploy model' or 'experiment run'"},
				Param{
					Name: "category", Type: String, In: InLocal, Description: "Restrict to one category",
					Enum: []string{catProjects, catFiles, catJobs, catExperiments, catModels, catApplications, catMeta},
				},
				withDefault(Param{Name: "limit", Type: Integer, In: InLocal, Description: "Maximum results"}, 10),
				withDefault(Param{Name: "include_schemas", Type: Boolean, In: InLocal, Description: "Include each tool's input schema"}, false),
			),
			Run:     searchTools,
			Offline: true,
		},
		{
			Name:        "describe_tool",
			Category:    catMeta,
			Description: "Get the description and input schema of one tool. Use after search_tools.",
			Params: one(
				Param{Name: "name", Type: String, In: InLocal, Required: true, Description: "Tool name from search_tools"},
			),
			Run:     describeTool,
			Offline: true,
		},
	}
}

func searchTools(_ context.Context, h *Handler, a Args) (string, any, error) {
	query := a.String("query")
	limit := 10
	if n, ok := a["limit"].(json.Number); ok {
		if v, err := n.Int64(); err == nil && v > 0 {
			limit = int(v)
		}
	}

	results := h.registry.Search(query, a.String("category"), limit)
	items := make([]map[string]any, 0, len(results))
	for _, s := range results {
		item := map[string]any{
			"name":        s.Name,
			"category":    s.Category,
			"description": s.Description,
		}
		if a.Bool("include_schemas") {
			if t, ok := h.registry.Lookup(s.Name); ok {
				item["inputSchema"] = t.InputSchema
			}
		}
		items = append(items, item)
	}

	data := map[string]any{"query": query, "count": len(items), "tools": items}
	if len(items) == 0 {
		cats := make([]map[string]any, 0)
		for _, c := range h.registry.ListCategories() {
			cats = append(cats, map[string]any{"name": c.Name, "description": c.Description})
		}
		data["categories"] = cats
		return fmt.Sprintf("No tools match '%s'", query), data, nil
	}
	if query == "" {
		return fmt.Sprintf("Found %d tools", len(items)), data, nil
	}
	return fmt.Sprintf("Found %d tools matching '%s'", len(items), query), data, nil
}

func describeTool(_ context.Context, h *Handler, a Args) (string, any, error) {
	name := a.String("name")
	def, ok := h.Lookup(name)
	if !ok {
		var suggestions []string
		if s := h.registry.Suggest(name, 3); len(s) > 0 {
			suggestions = s
		}
		return "", nil, &cml.Error{
			Kind:    cml.KindInvalidParam,
			Message: fmt.Sprintf("Tool '%s' not found. Use search_tools to find available tools.", name),
			Details: map[string]any{"suggestions": suggestions},
		}
	}
	return fmt.Sprintf("Tool '%s'", def.Name), describe(def), nil
}

func describe(def *Definition) map[string]any {
	t := def.Tool()
	return map[string]any{
		"name":        t.Name,
		"category":    def.Category,
		"description": t.Description,
		"inputSchema": t.InputSchema,
		"method":      def.Method,
		"paths":       def.Paths,
	}
}

// ToolSummaries returns the compact catalog used by debug listings.
func (h *Handler) ToolSummaries(query string) []mcp.ToolSummary {
	return h.registry.Search(query, "", h.registry.ToolCount())
}
