package tools

import "net/http"

const (
	modelsBase       = projectBase + "/models"
	legacyModelsBase = legacyBase + "/models"
)

func modelDefinitions() []*Definition {
	model := pathParam("model_id", "Model ID")
	build := pathParam("build_id", "Model build ID")
	optionalBuild := Param{Name: "build_id", Type: String, In: InPath, Description: "Restrict to deployments of this build"}
	deployment := pathParam("deployment_id", "Deployment ID")
	env := jsonBody("environment_variables", Object, "Environment variables")

	return []*Definition{
		{
			Name:        "create_model",
			Category:    catModels,
			Description: "Register a model in a project.",
			Method:      http.MethodPost,
			Paths:       []string{modelsBase},
			Params: one(
				projectParam(),
				requiredBody("name", String, "Model name"),
				bodyParam("description", String, "Description"),
				bodyParam("disable_authentication", Boolean, "Serve the model without API key authentication"),
			),
			Success: "Model '{name}' created successfully",
		},
		{
			Name:        "list_models",
			Category:    catModels,
			Description: "List the models of a project.",
			Method:      http.MethodGet,
			Paths:       []string{modelsBase},
			Params:      params(one(projectParam()), listParams()),
			Success:     "Found {count} models",
			ListKey:     "models",
		},
		{
			Name:        "get_model",
			Category:    catModels,
			Description: "Get a model's details.",
			Method:      http.MethodGet,
			Paths:       []string{modelsBase + "/{model_id}"},
			Params:      one(projectParam(), model),
			Success:     "Retrieved model '{model_id}'",
		},
		{
			Name:        "delete_model",
			Category:    catModels,
			Description: "Delete a model with its builds and deployments.",
			Method:      http.MethodDelete,
			Paths:       []string{modelsBase + "/{model_id}"},
			Params:      one(projectParam(), model),
			Success:     "Successfully deleted model '{model_id}'",
		},
		{
			Name:        "create_model_build",
			Category:    catModels,
			Description: "Build a model from a script and function in the project.",
			Method:      http.MethodPost,
			Paths:       []string{modelsBase + "/{model_id}/builds"},
			Params: params(
				one(
					projectParam(),
					model,
					requiredBody("file_path", String, "Script that defines the model function"),
					requiredBody("function_name", String, "Function that serves predictions"),
					withDefault(bodyParam("kernel", String, "Kernel"), "python3"),
					bodyParam("runtime_identifier", String, "ML runtime image identifier"),
					bodyParam("replica_size", String, "Resource profile of each replica"),
				),
				computeParams(1, 2),
				one(
					withDefault(bodyParam("use_custom_docker_image", Boolean, "Build from a custom image"), false),
					bodyParam("custom_docker_image", String, "Custom image reference"),
					env,
					bodyParam("comment", String, "Build comment"),
				),
			),
			Success: "Started a build of model '{model_id}'",
		},
		{
			Name:        "list_model_builds",
			Category:    catModels,
			Description: "List the builds of a model.",
			Method:      http.MethodGet,
			Paths:       []string{modelsBase + "/{model_id}/builds"},
			Params:      params(one(projectParam(), model), listParams()),
			Success:     "Found {count} model builds",
			ListKey:     "model_builds",
		},
		{
			Name:        "get_model_build",
			Category:    catModels,
			Description: "Get a model build's status.",
			Method:      http.MethodGet,
			Paths:       []string{legacyModelsBase + "/{model_id}/builds/{build_id}"},
			Params:      one(projectParam(), model, build),
			Success:     "Retrieved build '{build_id}' of model '{model_id}'",
		},
		{
			Name:        "create_model_deployment",
			Category:    catModels,
			Description: "Deploy a model build.",
			Method:      http.MethodPost,
			Paths:       []string{modelsBase + "/{model_id}/deployments"},
			Params: params(
				one(
					projectParam(),
					model,
					requiredBody("name", String, "Deployment name"),
					requiredBody("build_id", String, "Build to deploy"),
				),
				computeParams(1, 2),
				one(
					withDefault(bodyParam("replica_count", Integer, "Number of replicas"), 1),
					bodyParam("min_replica_count", Integer, "Autoscaling lower bound"),
					bodyParam("max_replica_count", Integer, "Autoscaling upper bound"),
					withDefault(bodyParam("enable_auth", Boolean, "Require an API key to call the model"), true),
					env,
					bodyParam("target_node_selector", String, "Kubernetes node selector"),
				),
			),
			Success: "Deployment '{name}' of model '{model_id}' created successfully",
		},
		{
			Name:        "list_model_deployments",
			Category:    catModels,
			Description: "List a model's deployments, optionally for one build.",
			Method:      http.MethodGet,
			Paths: []string{
				modelsBase + "/{model_id}/builds/{build_id}/deployments",
				modelsBase + "/{model_id}/deployments",
			},
			Params:  params(one(projectParam(), model, optionalBuild), listParams()),
			Success: "Found {count} model deployments",
			ListKey: "model_deployments",
		},
		{
			Name:        "get_model_deployment",
			Category:    catModels,
			Description: "Get a model deployment's status.",
			Method:      http.MethodGet,
			Paths:       []string{legacyModelsBase + "/{model_id}/deployments/{deployment_id}"},
			Params:      one(projectParam(), model, deployment),
			Success:     "Retrieved deployment '{deployment_id}' of model '{model_id}'",
		},
		{
			Name:        "stop_model_deployment",
			Category:    catModels,
			Description: "Stop a running model deployment.",
			Method:      http.MethodPost,
			Paths: []string{
				modelsBase + "/{model_id}/builds/{build_id}/deployments/{deployment_id}:stop",
				modelsBase + "/{model_id}/deployments/{deployment_id}:stop",
			},
			Params:  one(projectParam(), model, optionalBuild, deployment),
			Success: "Successfully stopped deployment '{deployment_id}'",
		},
	}
}
