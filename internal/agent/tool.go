// Package agent drives an LLM through a multi-step tool-calling loop
// until the model stops requesting actions or a budget runs out.
package agent

import (
	"context"
	"encoding/json"

	"github.com/abhisek/paperplan/internal/llm"
)

// Tool is one host-side function the model may call.
type Tool interface {
	// Decl returns the declaration advertised to the model.
	Decl() llm.ToolDecl

	// Execute runs the tool with the model-supplied arguments and
	// returns a JSON-serializable payload.
	Execute(ctx context.Context, args json.RawMessage) (any, error)
}

// registry maps tool names to implementations.
type registry struct {
	tools map[string]Tool
	decls []llm.ToolDecl
}

func newRegistry(tools []Tool) *registry {
	r := &registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		decl := t.Decl()
		r.tools[decl.Name] = t
		r.decls = append(r.decls, decl)
	}
	return r
}

func (r *registry) lookup(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}
