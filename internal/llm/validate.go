package llm

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// schemaCache caches compiled parameter schemas by tool name.
var schemaCache sync.Map // map[string]*jsonschema.Schema

// ValidateToolArgs validates model-supplied arguments against the tool's
// declared parameter schema. Returns *ErrToolArguments on failure so the
// caller can feed the mistake back to the model instead of dispatching.
func ValidateToolArgs(decl ToolDecl, raw json.RawMessage) error {
	if decl.Parameters == nil {
		return nil
	}

	var parsed any
	if len(raw) == 0 {
		parsed = map[string]any{}
	} else if err := json.Unmarshal(raw, &parsed); err != nil {
		return &ErrToolArguments{
			Tool: decl.Name,
			Err:  fmt.Errorf("invalid JSON: %w", err),
		}
	}

	compiled, err := getCompiledSchema(decl)
	if err != nil {
		return &ErrToolArguments{
			Tool: decl.Name,
			Err:  fmt.Errorf("compile schema: %w", err),
		}
	}

	if err := compiled.Validate(parsed); err != nil {
		return &ErrToolArguments{
			Tool: decl.Name,
			Err:  fmt.Errorf("schema validation failed: %w", err),
		}
	}

	return nil
}

// getCompiledSchema returns a cached compiled schema or compiles and caches it.
func getCompiledSchema(decl ToolDecl) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(decl.Name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// The jsonschema library expects a parsed JSON value (any), not raw bytes.
	// Marshal then unmarshal to get a clean any representation.
	defBytes, err := json.Marshal(decl.Parameters)
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}
	var defParsed any
	if err := json.Unmarshal(defBytes, &defParsed); err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	schemaURL := fmt.Sprintf("schema://%s.json", decl.Name)
	if err := c.AddResource(schemaURL, defParsed); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}

	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	schemaCache.Store(decl.Name, compiled)
	return compiled, nil
}
