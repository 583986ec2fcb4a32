package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/golovatskygroup/cloudera-ml-mcp/internal/cml"
)

// Args are the normalized arguments of one call.
type Args map[string]any

// Has reports whether name is present with a non-empty value.
func (a Args) Has(name string) bool {
	v, ok := a[name]
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t) != ""
	case []any:
		return len(t) > 0
	case []string:
		return len(t) > 0
	}
	return true
}

func (a Args) String(name string) string {
	return stringify(a[name])
}

func (a Args) Bool(name string) bool {
	b, _ := a[name].(bool)
	return b
}

func (a Args) Strings(name string) []string {
	switch v := a[name].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, stringify(item))
		}
		return out
	}
	return nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any, []string:
		return strings.Join(Args{"v": t}.Strings("v"), ",")
	default:
		return fmt.Sprint(t)
	}
}

// coerce converts v to p's type, accepting the string encodings p allows.
func coerce(p Param, v any) (any, error) {
	if s, ok := v.(string); ok {
		return coerceString(p, s)
	}

	switch p.Type {
	case String:
		switch t := v.(type) {
		case json.Number, float64, int, int64, bool:
			return stringify(t), nil
		}
	case Integer:
		switch t := v.(type) {
		case json.Number:
			if _, err := t.Int64(); err != nil {
				return nil, invalidValue(p)
			}
			return t, nil
		case float64:
			if t != float64(int64(t)) {
				return nil, invalidValue(p)
			}
			return json.Number(strconv.FormatInt(int64(t), 10)), nil
		case int:
			return json.Number(strconv.Itoa(t)), nil
		case int64:
			return json.Number(strconv.FormatInt(t, 10)), nil
		}
	case Number:
		switch t := v.(type) {
		case float64:
			return json.Number(strconv.FormatFloat(t, 'f', -1, 64)), nil
		case int:
			return json.Number(strconv.Itoa(t)), nil
		}
	case Array:
		if ss, ok := v.([]string); ok {
			out := make([]any, len(ss))
			for i, s := range ss {
				out[i] = s
			}
			return out, nil
		}
	}
	return v, nil
}

func coerceString(p Param, s string) (any, error) {
	s = strings.TrimSpace(s)
	switch p.Type {
	case String:
		return s, nil
	case Integer:
		if _, err := strconv.ParseInt(s, 10, 64); err != nil {
			return nil, invalidValue(p)
		}
		return json.Number(s), nil
	case Number:
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return nil, invalidValue(p)
		}
		return json.Number(s), nil
	case Boolean:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, invalidValue(p)
		}
		return b, nil
	}

	if p.Coerce&CoerceJSON != 0 || (p.Coerce&CoerceList != 0 && strings.HasPrefix(s, "[")) {
		var out any
		dec := json.NewDecoder(bytes.NewReader([]byte(s)))
		dec.UseNumber()
		if err := dec.Decode(&out); err != nil {
			return nil, cml.InvalidParam("Invalid JSON for %s", p.Name)
		}
		return out, nil
	}
	if p.Coerce&CoerceList != 0 {
		out := []any{}
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	}
	return s, nil
}

func invalidValue(p Param) error {
	return cml.InvalidParam("Invalid value for %s: expected %s", p.Name, p.Type)
}
