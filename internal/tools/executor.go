package tools

import (
	"net/url"
	"strings"

	"github.com/golovatskygroup/cloudera-ml-mcp/internal/cml"
	"github.com/golovatskygroup/cloudera-ml-mcp/internal/config"
)

// prepare turns raw call arguments into validated Args. Checks run in a
// fixed order: required parameters, configuration, coercion, schema. Nothing
// here touches the network.
func prepare(def *Definition, raw map[string]any, cfg config.Config) (Args, error) {
	args := make(Args, len(raw))
	for _, p := range def.Params {
		v, ok := raw[p.Name]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" && !p.Required {
			continue
		}
		args[p.Name] = v
	}

	for _, p := range def.Params {
		if p.FromConfig && !args.Has(p.Name) && cfg.ProjectID != "" {
			args[p.Name] = cfg.ProjectID
		}
	}

	for _, p := range def.Params {
		if (p.Required || p.FromConfig) && !args.Has(p.Name) {
			return nil, cml.MissingParam(p.Name)
		}
	}

	if !def.Offline {
		if strings.TrimSpace(cfg.Host) == "" {
			return nil, cml.MissingConfig("host")
		}
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, cml.MissingConfig("api_key")
		}
	}

	for _, p := range def.Params {
		v, ok := args[p.Name]
		if !ok {
			if p.Default == nil {
				continue
			}
			v = p.Default
		}
		cv, err := coerce(p, v)
		if err != nil {
			return nil, err
		}
		args[p.Name] = cv
	}

	for _, p := range def.Params {
		if p.Required && !args.Has(p.Name) {
			return nil, cml.MissingParam(p.Name)
		}
	}

	if err := validateArgs(def, args); err != nil {
		return nil, err
	}
	return args, nil
}

// request builds the single API call for a table-driven definition.
func (d *Definition) request(args Args) (cml.Request, error) {
	path, err := d.expandPath(args)
	if err != nil {
		return cml.Request{}, err
	}

	req := cml.Request{Method: d.Method, Path: path}
	var body map[string]any
	for _, p := range d.Params {
		v, ok := args[p.Name]
		if !ok || v == nil {
			continue
		}
		switch p.In {
		case InQuery:
			if req.Query == nil {
				req.Query = url.Values{}
			}
			req.Query.Set(p.wireName(), stringify(v))
		case InBody:
			if body == nil {
				body = map[string]any{}
			}
			body[p.wireName()] = v
		}
	}
	if body == nil && d.sendsBody() {
		body = map[string]any{}
	}
	if body != nil {
		req.Body = body
	}
	return req, nil
}

func (d *Definition) expandPath(args Args) (string, error) {
	for _, tmpl := range d.Paths {
		ok := true
		for _, name := range placeholders(tmpl) {
			if !args.Has(name) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		return placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
			name := m[1 : len(m)-1]
			return escapePathValue(d, name, args.String(name))
		}), nil
	}

	// Report the first placeholder of the most general template.
	if len(d.Paths) > 0 {
		for _, name := range placeholders(d.Paths[len(d.Paths)-1]) {
			if !args.Has(name) {
				return "", cml.MissingParam(name)
			}
		}
	}
	return "", cml.InvalidParam("No endpoint matches the given arguments for %s", d.Name)
}

func escapePathValue(d *Definition, name, v string) string {
	if p, ok := d.param(name); ok && p.RawPath {
		parts := strings.Split(strings.Trim(v, "/"), "/")
		for i, part := range parts {
			parts[i] = url.PathEscape(part)
		}
		return strings.Join(parts, "/")
	}
	return url.PathEscape(v)
}

// successMessage fills d.Success from the arguments and the response.
func (d *Definition) successMessage(args Args, data any) string {
	if d.Success == "" {
		return "Success"
	}
	return placeholderRe.ReplaceAllStringFunc(d.Success, func(m string) string {
		name := m[1 : len(m)-1]
		if name == "count" {
			return stringify(countItems(data, d.ListKey))
		}
		return args.String(name)
	})
}

func countItems(data any, key string) int {
	switch v := data.(type) {
	case []any:
		return len(v)
	case map[string]any:
		if items, ok := v[key].([]any); ok {
			return len(items)
		}
	}
	return 0
}
