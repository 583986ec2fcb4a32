package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
)

// Location says where a parameter ends up in the outgoing request.
type Location int

const (
	InBody Location = iota
	InPath
	InQuery
	// InLocal parameters are consumed by composite operations and never sent.
	InLocal
)

// Type is the JSON Schema type advertised for a parameter.
type Type string

const (
	String  Type = "string"
	Integer Type = "integer"
	Number  Type = "number"
	Boolean Type = "boolean"
	Object  Type = "object"
	Array   Type = "array"
	// Any is an object or an array; the API shape varies by server version.
	Any Type = "any"
)

func (t Type) jsonTypes() []string {
	if t == Any {
		return []string{string(Object), string(Array)}
	}
	return []string{string(t)}
}

// Coercion lists the string encodings a parameter accepts in addition to its
// native JSON type. Clients that can only send strings rely on these.
type Coercion int

const (
	// CoerceJSON accepts a JSON document encoded as a string.
	CoerceJSON Coercion = 1 << iota
	// CoerceList accepts "a, b, c" for an array of strings.
	CoerceList
)

type Param struct {
	Name        string
	Type        Type
	In          Location
	Required    bool
	Default     any
	Description string
	Coerce      Coercion
	Enum        []string

	// Key is the wire name when it differs from Name.
	Key string
	// FromConfig parameters fall back to the configured default project and
	// are required only after that fallback.
	FromConfig bool
	// RawPath keeps "/" unescaped when the value is a path placeholder.
	RawPath bool
}

func (p Param) wireName() string {
	if p.Key != "" {
		return p.Key
	}
	return p.Name
}

// RunFunc implements a composite operation on top of the handler. It
// receives validated arguments and returns the success message and data.
type RunFunc func(ctx context.Context, h *Handler, a Args) (string, any, error)

// Definition declares one tool.
type Definition struct {
	Name        string
	Category    string
	Description string

	Method string
	// Paths are tried in order; the first one whose placeholders are all
	// present in the arguments is used.
	Paths  []string
	Params []Param

	// Success is the message template; "{param}" is replaced by the argument
	// value and "{count}" by the length of the ListKey array in the response.
	Success string
	ListKey string

	Run RunFunc
	// Offline tools never reach the API and run without host or api_key.
	Offline bool
}

func (d *Definition) param(name string) (Param, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

func (d *Definition) sendsBody() bool {
	switch d.Method {
	case http.MethodPost, http.MethodPatch, http.MethodPut:
		return true
	}
	for _, p := range d.Params {
		if p.In == InBody {
			return true
		}
	}
	return false
}

// InputSchema renders the JSON Schema advertised in tools/list.
func (d *Definition) InputSchema() json.RawMessage {
	props := make(map[string]any, len(d.Params))
	required := []string{}
	for _, p := range d.Params {
		props[p.Name] = p.schema()
		if p.Required && !p.FromConfig {
			required = append(required, p.Name)
		}
	}
	b, _ := json.Marshal(map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	})
	return b
}

// validationSchema is InputSchema with the string encodings accepted by
// coercion already resolved, so it validates the normalized arguments.
func (d *Definition) validationSchema() json.RawMessage {
	props := make(map[string]any, len(d.Params))
	for _, p := range d.Params {
		s := map[string]any{"type": p.Type.jsonTypes()}
		if len(p.Enum) > 0 {
			s["enum"] = p.Enum
		}
		if p.Type == Array && p.Coerce&CoerceList != 0 {
			s["items"] = map[string]any{"type": "string"}
		}
		props[p.Name] = s
	}
	b, _ := json.Marshal(map[string]any{
		"type":       "object",
		"properties": props,
	})
	return b
}

func (p Param) schema() map[string]any {
	s := map[string]any{}
	desc := p.Description
	switch {
	case p.Coerce&CoerceJSON != 0:
		s["type"] = append(p.Type.jsonTypes(), string(String))
		desc = strings.TrimSpace(desc + " (JSON value or JSON-encoded string)")
	case p.Coerce&CoerceList != 0:
		s["type"] = append(p.Type.jsonTypes(), string(String))
		s["items"] = map[string]any{"type": "string"}
		desc = strings.TrimSpace(desc + " (array or comma-separated string)")
	default:
		s["type"] = string(p.Type)
	}
	if p.Type == Array && s["items"] == nil {
		s["items"] = map[string]any{}
	}
	if desc != "" {
		s["description"] = desc
	}
	if p.Default != nil {
		s["default"] = p.Default
	}
	if len(p.Enum) > 0 {
		s["enum"] = p.Enum
	}
	return s
}

var placeholderRe = regexp.MustCompile(`\{([a-z_]+)\}`)

func placeholders(tmpl string) []string {
	var out []string
	for _, m := range placeholderRe.FindAllStringSubmatch(tmpl, -1) {
		out = append(out, m[1])
	}
	return out
}
