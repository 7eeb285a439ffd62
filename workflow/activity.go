package workflow

import (
	"context"
	"fmt"
)

// LLMActivity adapts a typed LLM call (prompt in, text out) into an
// ActivityFunc, for use in orchestrator nodes like classify/answer_synthesize
// that delegate to the LLM port from within a workflow.
func LLMActivity(fn func(ctx context.Context, prompt string) (string, error)) ActivityFunc {
	return func(ctx context.Context, input any) (any, error) {
		prompt, ok := input.(string)
		if !ok {
			return nil, fmt.Errorf("workflow: LLMActivity expects string input, got %T", input)
		}
		return fn(ctx, prompt)
	}
}

// ToolActivity adapts a named, argument-taking call into an ActivityFunc.
// The activity input must be a map with a non-empty "name" key and an
// optional "args" map, as produced by orchestrator nodes that dispatch to
// retrieval/graph-expansion/ingestion steps by name.
func ToolActivity(fn func(ctx context.Context, name string, args map[string]any) (any, error)) ActivityFunc {
	return func(ctx context.Context, input any) (any, error) {
		m, ok := input.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("workflow: ToolActivity expects map[string]any input, got %T", input)
		}
		name, ok := m["name"].(string)
		if !ok || name == "" {
			return nil, fmt.Errorf("workflow: ToolActivity requires a non-empty %q key", "name")
		}
		args, _ := m["args"].(map[string]any)
		return fn(ctx, name, args)
	}
}
