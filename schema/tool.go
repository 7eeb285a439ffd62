package schema

// ToolResult carries the outcome of invoking a tool back through the
// message loop.
type ToolResult struct {
	CallID  string
	Content []ContentPart
	IsError bool
}

// ToolDefinition describes a tool's name, purpose, and JSON-schema input
// shape, as advertised to an llm.ChatModel.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}
