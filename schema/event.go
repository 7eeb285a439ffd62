package schema

import "time"

// StreamChunk is one incremental piece of a streamed llm.ChatModel response.
type StreamChunk struct {
	Delta        string
	ToolCalls    []ToolCall
	FinishReason string
	Usage        *Usage
	ModelID      string
}

// AgentEvent is a generic lifecycle or progress event. Payload's concrete
// type depends on Type (e.g. "tool_call" carries a ToolCall, "thought"
// carries a string).
type AgentEvent struct {
	Type      string
	AgentID   string
	Payload   any
	Timestamp time.Time
}
