package tools

import "net/http"

func projectDefinitions() []*Definition {
	return []*Definition{
		{
			Name:        "list_projects",
			Category:    catProjects,
			Description: "List projects visible to the API key.",
			Method:      http.MethodGet,
			Paths:       []string{apiV2Projects},
			Params:      listParams(),
			Success:     "Found {count} projects",
			ListKey:     "projects",
		},
		{
			Name:        "get_project_id",
			Category:    catProjects,
			Description: "Find a project's ID by name. Use \"*\" to list every project with its ID.",
			Params: one(Param{
				Name: "project_name", Type: String, In: InLocal, Required: true,
				Description: "Exact or partial project name, or * for all",
			}),
			Run: getProjectID,
		},
		{
			Name:        "get_project",
			Category:    catProjects,
			Description: "Get a project's details.",
			Method:      http.MethodGet,
			Paths:       []string{projectBase},
			Params:      one(projectParam()),
			Success:     "Retrieved project '{project_id}'",
		},
		{
			Name:        "update_project",
			Category:    catProjects,
			Description: "Update a project's name, summary, template or visibility.",
			Method:      http.MethodPatch,
			Paths:       []string{projectBase},
			Params: one(
				projectParam(),
				bodyParam("name", String, "New project name"),
				bodyParam("summary", String, "New summary"),
				bodyParam("template", String, "Project template"),
				bodyParam("public", Boolean, "Make the project public"),
				bodyParam("disable_git_repo", Boolean, "Disable the project's git repository"),
			),
			Success: "Successfully updated project '{project_id}'",
		},
		{
			Name:        "batch_list_projects",
			Category:    catProjects,
			Description: "Fetch several projects by ID in one request.",
			Method:      http.MethodPost,
			Paths:       []string{apiV2Projects + "/batchList"},
			Params: one(Param{
				Name: "ids", Type: Array, In: InBody, Required: true, Coerce: CoerceList,
				Description: "Project IDs",
			}),
			Success: "Successfully retrieved {count} projects",
			ListKey: "projects",
		},
		{
			Name:        "get_runtimes",
			Category:    catProjects,
			Description: "List the ML runtimes available on the workspace.",
			Method:      http.MethodGet,
			Paths:       []string{"/api/v2/runtimes"},
			Params:      listParams()[:3],
			Success:     "Found {count} runtimes",
			ListKey:     "runtimes",
		},
	}
}
