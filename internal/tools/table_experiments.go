package tools

import "net/http"

const experimentsBase = projectBase + "/experiments"

func experimentDefinitions() []*Definition {
	exp := pathParam("experiment_id", "Experiment ID")
	run := pathParam("run_id", "Experiment run ID")
	tags := Param{Name: "tags", Type: Array, In: InBody, Coerce: CoerceList, Description: "Run tags"}
	runFields := []Param{
		jsonBody("metrics", Any, "Metrics to log"),
		jsonBody("parameters", Any, "Parameters to log"),
		tags,
	}

	return []*Definition{
		{
			Name:        "create_experiment",
			Category:    catExperiments,
			Description: "Create an experiment in a project.",
			Method:      http.MethodPost,
			Paths:       []string{experimentsBase},
			Params: one(
				projectParam(),
				requiredBody("name", String, "Experiment name"),
				bodyParam("description", String, "Description"),
				bodyParam("artifact_location", String, "Where run artifacts are stored"),
			),
			Success: "Experiment '{name}' created successfully",
		},
		{
			Name:        "list_experiments",
			Category:    catExperiments,
			Description: "List the experiments of a project.",
			Method:      http.MethodGet,
			Paths:       []string{experimentsBase},
			Params:      params(one(projectParam()), listParams()),
			Success:     "Found {count} experiments",
			ListKey:     "experiments",
		},
		{
			Name:        "get_experiment",
			Category:    catExperiments,
			Description: "Get an experiment's details.",
			Method:      http.MethodGet,
			Paths:       []string{experimentsBase + "/{experiment_id}"},
			Params:      one(projectParam(), exp),
			Success:     "Retrieved experiment '{experiment_id}'",
		},
		{
			Name:        "update_experiment",
			Category:    catExperiments,
			Description: "Rename an experiment or change its description.",
			Method:      http.MethodPatch,
			Paths:       []string{experimentsBase + "/{experiment_id}"},
			Params: one(
				projectParam(),
				exp,
				bodyParam("name", String, "Experiment name"),
				bodyParam("description", String, "Description"),
			),
			Success: "Successfully updated experiment '{experiment_id}'",
		},
		{
			Name:        "delete_experiment",
			Category:    catExperiments,
			Description: "Delete an experiment and its runs.",
			Method:      http.MethodDelete,
			Paths:       []string{experimentsBase + "/{experiment_id}"},
			Params:      one(projectParam(), exp),
			Success:     "Successfully deleted experiment '{experiment_id}'",
		},
		{
			Name:        "create_experiment_run",
			Category:    catExperiments,
			Description: "Create a run in an experiment, optionally logging metrics and parameters.",
			Method:      http.MethodPost,
			Paths:       []string{experimentsBase + "/{experiment_id}/runs"},
			Params: params(
				one(
					projectParam(),
					exp,
					bodyParam("name", String, "Run name"),
					bodyParam("description", String, "Description"),
				),
				runFields,
			),
			Success: "Created a run in experiment '{experiment_id}'",
		},
		{
			Name:        "list_experiment_runs",
			Category:    catExperiments,
			Description: "List the runs of an experiment.",
			Method:      http.MethodGet,
			Paths:       []string{experimentsBase + "/{experiment_id}/runs"},
			Params:      params(one(projectParam(), exp), listParams()),
			Success:     "Found {count} experiment runs",
			ListKey:     "experiment_runs",
		},
		{
			Name:        "get_experiment_run",
			Category:    catExperiments,
			Description: "Get an experiment run with its metrics and parameters.",
			Method:      http.MethodGet,
			Paths:       []string{experimentsBase + "/{experiment_id}/runs/{run_id}"},
			Params:      one(projectParam(), exp, run),
			Success:     "Retrieved run '{run_id}' of experiment '{experiment_id}'",
		},
		{
			Name:        "update_experiment_run",
			Category:    catExperiments,
			Description: "Update an experiment run's status, metrics, parameters or tags.",
			Method:      http.MethodPatch,
			Paths:       []string{experimentsBase + "/{experiment_id}/runs/{run_id}"},
			Params: params(
				one(
					projectParam(),
					exp,
					run,
					bodyParam("name", String, "Run name"),
					bodyParam("status", String, "Run status"),
				),
				runFields,
			),
			Success: "Successfully updated run '{run_id}' of experiment '{experiment_id}'",
		},
		{
			Name:        "delete_experiment_run",
			Category:    catExperiments,
			Description: "Delete an experiment run.",
			Method:      http.MethodDelete,
			Paths:       []string{experimentsBase + "/{experiment_id}/runs/{run_id}"},
			Params:      one(projectParam(), exp, run),
			Success:     "Successfully deleted run '{run_id}' of experiment '{experiment_id}'",
		},
		{
			Name:        "delete_experiment_run_batch",
			Category:    catExperiments,
			Description: "Delete several runs of an experiment at once.",
			Method:      http.MethodDelete,
			Paths:       []string{experimentsBase + "/{experiment_id}/runs-batch"},
			Params: one(
				projectParam(),
				exp,
				Param{Name: "run_ids", Key: "ids", Type: Array, In: InBody, Required: true, Coerce: CoerceList, Description: "Run IDs to delete"},
			),
			Success: "Successfully deleted runs of experiment '{experiment_id}'",
		},
		{
			Name:        "log_experiment_run_batch",
			Category:    catExperiments,
			Description: "Log metrics, parameters and tags for several runs in one request.",
			Method:      http.MethodPost,
			Paths:       []string{experimentsBase + "/{experiment_id}/run-batch"},
			Params: one(
				projectParam(),
				exp,
				Param{
					Name: "run_updates", Key: "runs", Type: Array, In: InBody, Required: true, Coerce: CoerceJSON,
					Description: `Run updates, e.g. [{"run_id":"r1","metrics":[{"key":"acc","value":0.9}]}]`,
				},
			),
			Success: "Successfully logged batch for experiment '{experiment_id}'",
		},
	}
}
