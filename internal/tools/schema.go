package tools

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/golovatskygroup/cloudera-ml-mcp/internal/cml"
)

var schemaCache sync.Map // tool name -> *jsonschema.Schema

func compileSchema(toolName string, schema json.RawMessage) (*jsonschema.Schema, error) {
	if v, ok := schemaCache.Load(toolName); ok {
		return v.(*jsonschema.Schema), nil
	}
	s, err := jsonschema.CompileString(toolName+".json", string(schema))
	if err != nil {
		return nil, err
	}
	schemaCache.Store(toolName, s)
	return s, nil
}

func firstLeafValidationError(err *jsonschema.ValidationError) *jsonschema.ValidationError {
	if err == nil {
		return nil
	}
	if len(err.Causes) == 0 {
		return err
	}
	for _, c := range err.Causes {
		if leaf := firstLeafValidationError(c); leaf != nil {
			return leaf
		}
	}
	return err
}

// validateArgs checks normalized arguments against the definition's types.
func validateArgs(def *Definition, args Args) error {
	s, err := compileSchema(def.Name, def.validationSchema())
	if err != nil {
		return fmt.Errorf("invalid input schema for %s: %w", def.Name, err)
	}
	if err := s.Validate(map[string]any(args)); err != nil {
		if ve, ok := err.(*jsonschema.ValidationError); ok {
			leaf := firstLeafValidationError(ve)
			loc := leaf.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			msg := leaf.Message
			if msg == "" {
				msg = leaf.Error()
			}
			return cml.InvalidParam("Invalid arguments at %s: %s", loc, msg)
		}
		return cml.InvalidParam("Invalid arguments: %v", err)
	}
	return nil
}
