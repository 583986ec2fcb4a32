package registry

import (
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/golovatskygroup/cloudera-ml-mcp/pkg/mcp"
)

// LegacySuffix is accepted on every tool name for clients configured against
// the older "<name>_tool" naming.
const LegacySuffix = "_tool"

// Category represents a group of related tools
type Category struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Keywords    []string `yaml:"keywords" json:"keywords,omitempty"`
	Tools       []string `yaml:"tools" json:"tools"`
}

// Registry is the searchable catalog of tools.
type Registry struct {
	tools      map[string]mcp.Tool
	order      []string
	categories []Category
	summaries  map[string]mcp.ToolSummary
	mu         sync.RWMutex
}

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools:      make(map[string]mcp.Tool),
		summaries:  make(map[string]mcp.ToolSummary),
		categories: defaultCategories(),
	}
}

// Add registers a tool under category. Unknown categories are created.
func (r *Registry) Add(tool mcp.Tool, category string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if category == "" {
		category = "other"
	}
	if _, exists := r.tools[tool.Name]; !exists {
		r.order = append(r.order, tool.Name)
	}
	r.tools[tool.Name] = tool
	r.summaries[tool.Name] = mcp.ToolSummary{
		Name:        tool.Name,
		Description: truncateDescription(tool.Description, 100),
		Category:    category,
	}

	for i := range r.categories {
		if r.categories[i].Name == category {
			if !contains(r.categories[i].Tools, tool.Name) {
				r.categories[i].Tools = append(r.categories[i].Tools, tool.Name)
			}
			return
		}
	}
	r.categories = append(r.categories, Category{Name: category, Tools: []string{tool.Name}})
}

// Lookup resolves name, accepting the legacy "_tool" suffix.
func (r *Registry) Lookup(name string) (mcp.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookupLocked(name)
}

func (r *Registry) lookupLocked(name string) (mcp.Tool, bool) {
	if tool, ok := r.tools[name]; ok {
		return tool, true
	}
	if trimmed := strings.TrimSuffix(name, LegacySuffix); trimmed != name {
		tool, ok := r.tools[trimmed]
		return tool, ok
	}
	return mcp.Tool{}, false
}

// Canonical returns the registered name for name, or "" if unknown.
func (r *Registry) Canonical(name string) string {
	tool, ok := r.Lookup(name)
	if !ok {
		return ""
	}
	return tool.Name
}

// Search finds tools matching the query
func (r *Registry) Search(query string, category string, limit int) []mcp.ToolSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}
	query = strings.ToLower(strings.TrimSpace(query))

	var toolNames []string
	if category != "" {
		for _, cat := range r.categories {
			if strings.EqualFold(cat.Name, category) {
				toolNames = cat.Tools
				break
			}
		}
	} else {
		toolNames = r.order
	}

	type scored struct {
		summary mcp.ToolSummary
		score   int
	}
	var results []scored

	for _, name := range toolNames {
		summary, ok := r.summaries[name]
		if !ok {
			continue
		}
		if query == "" {
			results = append(results, scored{summary, 1})
			continue
		}

		score := 0
		nameLower := strings.ToLower(name)
		descLower := strings.ToLower(summary.Description)

		if strings.Contains(nameLower, query) {
			score += 100
		}
		if fuzzy.Match(query, nameLower) {
			score += 50
		}
		if strings.Contains(descLower, query) {
			score += 30
		}
		for _, cat := range r.categories {
			if cat.Name != summary.Category {
				continue
			}
			for _, kw := range cat.Keywords {
				if strings.Contains(query, strings.ToLower(kw)) {
					score += 20
				}
			}
		}

		if score > 0 {
			results = append(results, scored{summary, score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })

	out := make([]mcp.ToolSummary, 0, min(limit, len(results)))
	for i := 0; i < len(results) && i < limit; i++ {
		out = append(out, results[i].summary)
	}
	return out
}

// Suggest returns up to limit registered names closest to an unknown name.
func (r *Registry) Suggest(name string, limit int) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		limit = 3
	}
	name = strings.TrimSuffix(strings.ToLower(name), LegacySuffix)
	ranks := fuzzy.RankFindNormalizedFold(name, r.order)
	sort.Sort(ranks)

	var out []string
	for _, rk := range ranks {
		if len(out) == limit {
			break
		}
		out = append(out, rk.Target)
	}
	if len(out) > 0 {
		return out
	}

	// Fall back to shared words: "delete_jobs" should still find "delete_job".
	for _, candidate := range r.order {
		for _, part := range strings.Split(name, "_") {
			if len(part) > 2 && strings.Contains(candidate, part) {
				out = append(out, candidate)
				break
			}
		}
		if len(out) == limit {
			break
		}
	}
	return out
}

// Tools returns every tool in registration order.
func (r *Registry) Tools() []mcp.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]mcp.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Names returns every tool name in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// ListCategories returns the categories that have at least one tool.
func (r *Registry) ListCategories() []Category {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Category
	for _, c := range r.categories {
		if len(c.Tools) == 0 {
			continue
		}
		c.Tools = append([]string(nil), c.Tools...)
		out = append(out, c)
	}
	return out
}

// ToolCount returns total number of available tools
func (r *Registry) ToolCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func truncateDescription(desc string, maxLen int) string {
	if len(desc) <= maxLen {
		return desc
	}
	return desc[:maxLen-3] + "..."
}

func defaultCategories() []Category {
	return []Category{
		{
			Name:        "projects",
			Description: "Projects, runtimes and project lookup",
			Keywords:    []string{"project", "runtime", "workspace"},
		},
		{
			Name:        "files",
			Description: "Project files: list, upload, delete, metadata",
			Keywords:    []string{"file", "upload", "folder", "directory"},
		},
		{
			Name:        "jobs",
			Description: "Jobs and job runs",
			Keywords:    []string{"job", "run", "schedule", "script"},
		},
		{
			Name:        "experiments",
			Description: "Experiments, experiment runs, metrics and parameters",
			Keywords:    []string{"experiment", "metric", "parameter", "mlflow"},
		},
		{
			Name:        "models",
			Description: "Models, model builds and deployments",
			Keywords:    []string{"model", "build", "deploy", "deployment", "serve"},
		},
		{
			Name:        "applications",
			Description: "Applications: create, restart, stop",
			Keywords:    []string{"application", "app", "subdomain", "restart"},
		},
		{
			Name:        "meta",
			Description: "Tool discovery",
			Keywords:    []string{"search", "describe", "tool"},
		},
	}
}
