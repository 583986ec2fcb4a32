package tools

import "net/http"

const applicationsBase = projectBase + "/applications"

func applicationDefinitions() []*Definition {
	app := pathParam("application_id", "Application ID")
	runtime := bodyParam("runtime_identifier", String, "ML runtime image identifier")
	env := jsonBody("environment_variables", Object, "Environment variables")

	return []*Definition{
		{
			Name:        "create_application",
			Category:    catApplications,
			Description: "Create a long-running application served on a subdomain.",
			Method:      http.MethodPost,
			Paths:       []string{applicationsBase},
			Params: params(
				one(
					projectParam(),
					requiredBody("name", String, "Application name"),
					requiredBody("subdomain", String, "Subdomain the application is served on"),
					bodyParam("script", String, "Script that starts the application"),
					withDefault(bodyParam("kernel", String, "Kernel"), "python3"),
					bodyParam("description", String, "Description"),
				),
				computeParams(1, 1),
				one(
					runtime,
					env,
					bodyParam("bypass_authentication", Boolean, "Allow unauthenticated access"),
				),
			),
			Success: "Application '{name}' created successfully",
		},
		{
			Name:        "list_applications",
			Category:    catApplications,
			Description: "List the applications of a project.",
			Method:      http.MethodGet,
			Paths:       []string{applicationsBase},
			Params:      params(one(projectParam()), listParams()),
			Success:     "Found {count} applications",
			ListKey:     "applications",
		},
		{
			Name:        "get_application",
			Category:    catApplications,
			Description: "Get an application's details and status.",
			Method:      http.MethodGet,
			Paths:       []string{applicationsBase + "/{application_id}"},
			Params:      one(projectParam(), app),
			Success:     "Retrieved application '{application_id}'",
		},
		{
			Name:        "update_application",
			Category:    catApplications,
			Description: "Update an application's settings. Restart it for changes to take effect.",
			Method:      http.MethodPatch,
			Paths:       []string{applicationsBase + "/{application_id}"},
			Params: params(
				one(
					projectParam(),
					app,
					bodyParam("name", String, "Application name"),
					bodyParam("description", String, "Description"),
					bodyParam("script", String, "Script that starts the application"),
					bodyParam("kernel", String, "Kernel"),
				),
				computeParams(nil, nil),
				one(runtime, env),
			),
			Success: "Successfully updated application '{application_id}'",
		},
		{
			Name:        "delete_application",
			Category:    catApplications,
			Description: "Delete an application.",
			Method:      http.MethodDelete,
			Paths:       []string{applicationsBase + "/{application_id}"},
			Params:      one(projectParam(), app),
			Success:     "Successfully deleted application '{application_id}'",
		},
		{
			Name:        "restart_application",
			Category:    catApplications,
			Description: "Restart an application.",
			Method:      http.MethodPost,
			Paths:       []string{applicationsBase + "/{application_id}:restart"},
			Params:      one(projectParam(), app),
			Success:     "Successfully restarted application '{application_id}'",
		},
		{
			Name:        "stop_application",
			Category:    catApplications,
			Description: "Stop an application.",
			Method:      http.MethodPost,
			Paths:       []string{applicationsBase + "/{application_id}:stop"},
			Params:      one(projectParam(), app),
			Success:     "Successfully stopped application '{application_id}'",
		},
	}
}
