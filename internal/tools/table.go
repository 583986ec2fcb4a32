package tools

const (
	apiV2Projects = "/api/v2/projects"
	projectBase   = apiV2Projects + "/{project_id}"
	legacyBase    = "/api/v1/projects/{project_id}"
)

// Categories in listing order.
const (
	catProjects     = "projects"
	catFiles        = "files"
	catJobs         = "jobs"
	catExperiments  = "experiments"
	catModels       = "models"
	catApplications = "applications"
	catMeta         = "meta"
)

// Definitions returns the full tool table. The slice is freshly allocated.
func Definitions() []*Definition {
	var defs []*Definition
	defs = append(defs, projectDefinitions()...)
	defs = append(defs, fileDefinitions()...)
	defs = append(defs, jobDefinitions()...)
	defs = append(defs, experimentDefinitions()...)
	defs = append(defs, modelDefinitions()...)
	defs = append(defs, applicationDefinitions()...)
	return defs
}

func projectParam() Param {
	return Param{
		Name:        "project_id",
		Type:        String,
		In:          InPath,
		FromConfig:  true,
		Description: "Project ID (defaults to the configured CLOUDERA_ML_PROJECT_ID)",
	}
}

func pathParam(name, desc string) Param {
	return Param{Name: name, Type: String, In: InPath, Required: true, Description: desc}
}

func bodyParam(name string, t Type, desc string) Param {
	return Param{Name: name, Type: t, In: InBody, Description: desc}
}

func requiredBody(name string, t Type, desc string) Param {
	return Param{Name: name, Type: t, In: InBody, Required: true, Description: desc}
}

func jsonBody(name string, t Type, desc string) Param {
	return Param{Name: name, Type: t, In: InBody, Coerce: CoerceJSON, Description: desc}
}

func withDefault(p Param, v any) Param {
	p.Default = v
	return p
}

func queryParam(name string, t Type, desc string) Param {
	return Param{Name: name, Type: t, In: InQuery, Description: desc}
}

// listParams are the paging and filtering options shared by list endpoints.
func listParams() []Param {
	return []Param{
		queryParam("search_filter", String, `Filter expression, e.g. {"name":"train"}`),
		queryParam("page_size", Integer, "Maximum number of results per page"),
		queryParam("page_token", String, "Token of the page to return"),
		queryParam("sort", String, "Sort field, prefix with - for descending"),
	}
}

func params(ps ...[]Param) []Param {
	var out []Param
	for _, p := range ps {
		out = append(out, p...)
	}
	return out
}

func one(p ...Param) []Param { return p }

// computeParams are the resource knobs shared by jobs, applications and
// model builds.
func computeParams(cpu, memory any) []Param {
	cpuP := bodyParam("cpu", Number, "CPU cores")
	memP := bodyParam("memory", Number, "Memory in GB")
	gpuP := bodyParam("nvidia_gpu", Integer, "Number of GPUs")
	if cpu != nil {
		cpuP = withDefault(cpuP, cpu)
		memP = withDefault(memP, memory)
		gpuP = withDefault(gpuP, 0)
	}
	return []Param{cpuP, memP, gpuP}
}
