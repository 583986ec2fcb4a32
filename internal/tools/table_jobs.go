package tools

import "net/http"

const jobsBase = projectBase + "/jobs"

func jobDefinitions() []*Definition {
	kernel := withDefault(bodyParam("kernel", String, "Kernel to run the script with"), "python3")
	runtime := bodyParam("runtime_identifier", String, "ML runtime image identifier")
	env := jsonBody("environment_variables", Object, "Environment variables for the job")

	return []*Definition{
		{
			Name:        "create_job",
			Category:    catJobs,
			Description: "Create a job that runs a script in a project.",
			Method:      http.MethodPost,
			Paths:       []string{jobsBase},
			Params: params(
				one(
					projectParam(),
					requiredBody("name", String, "Job name"),
					requiredBody("script", String, "Script path relative to the project root"),
					kernel,
				),
				computeParams(1, 1),
				one(
					runtime,
					env,
					bodyParam("arguments", String, "Command line arguments passed to the script"),
					bodyParam("schedule", String, "Cron schedule"),
					bodyParam("timeout", Integer, "Timeout in seconds"),
					bodyParam("parent_job_id", String, "Run after this job succeeds"),
				),
			),
			Success: "Job '{name}' created successfully",
		},
		{
			Name:        "list_jobs",
			Category:    catJobs,
			Description: "List the jobs of a project.",
			Method:      http.MethodGet,
			Paths:       []string{jobsBase},
			Params:      params(one(projectParam()), listParams()),
			Success:     "Found {count} jobs",
			ListKey:     "jobs",
		},
		{
			Name:        "get_job",
			Category:    catJobs,
			Description: "Get a job's details.",
			Method:      http.MethodGet,
			Paths:       []string{jobsBase + "/{job_id}"},
			Params:      one(projectParam(), pathParam("job_id", "Job ID")),
			Success:     "Retrieved job '{job_id}'",
		},
		{
			Name:        "update_job",
			Category:    catJobs,
			Description: "Update a job's script, resources, schedule or environment.",
			Method:      http.MethodPatch,
			Paths:       []string{jobsBase + "/{job_id}"},
			Params: params(
				one(
					projectParam(),
					pathParam("job_id", "Job ID"),
					bodyParam("name", String, "Job name"),
					bodyParam("script", String, "Script path"),
					bodyParam("kernel", String, "Kernel"),
				),
				computeParams(nil, nil),
				one(
					runtime,
					env,
					bodyParam("arguments", String, "Command line arguments"),
					bodyParam("schedule", String, "Cron schedule"),
					bodyParam("timeout", Integer, "Timeout in seconds"),
				),
			),
			Success: "Successfully updated job '{job_id}'",
		},
		{
			Name:        "delete_job",
			Category:    catJobs,
			Description: "Delete a job.",
			Method:      http.MethodDelete,
			Paths:       []string{jobsBase + "/{job_id}"},
			Params:      one(projectParam(), pathParam("job_id", "Job ID")),
			Success:     "Successfully deleted job '{job_id}'",
		},
		{
			Name:        "delete_all_jobs",
			Category:    catJobs,
			Description: "Delete every job in a project.",
			Params:      one(projectParam()),
			Run:         deleteAllJobs,
		},
		{
			Name:        "create_job_run",
			Category:    catJobs,
			Description: "Start a run of an existing job.",
			Method:      http.MethodPost,
			Paths:       []string{jobsBase + "/{job_id}/runs"},
			Params: one(
				projectParam(),
				pathParam("job_id", "Job ID"),
				runtime,
				env,
				jsonBody("override_config", Object, "Per-run overrides of the job configuration"),
			),
			Success: "Started a run of job '{job_id}'",
		},
		{
			Name:        "list_job_runs",
			Category:    catJobs,
			Description: "List the runs of a job.",
			Method:      http.MethodGet,
			Paths:       []string{jobsBase + "/{job_id}/runs"},
			Params:      params(one(projectParam(), pathParam("job_id", "Job ID")), listParams()),
			Success:     "Found {count} job runs",
			ListKey:     "job_runs",
		},
		{
			Name:        "get_job_run",
			Category:    catJobs,
			Description: "Get a job run's status and details.",
			Method:      http.MethodGet,
			Paths:       []string{jobsBase + "/{job_id}/runs/{run_id}"},
			Params:      one(projectParam(), pathParam("job_id", "Job ID"), pathParam("run_id", "Run ID")),
			Success:     "Retrieved run '{run_id}' of job '{job_id}'",
		},
		{
			Name:        "stop_job_run",
			Category:    catJobs,
			Description: "Stop a running job run.",
			Method:      http.MethodPost,
			Paths:       []string{jobsBase + "/{job_id}/runs/{run_id}:stop"},
			Params:      one(projectParam(), pathParam("job_id", "Job ID"), pathParam("run_id", "Run ID")),
			Success:     "Successfully stopped run '{run_id}' of job '{job_id}'",
		},
	}
}
