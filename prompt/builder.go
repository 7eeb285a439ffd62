package prompt

import (
	"fmt"
	"strings"

	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// Builder assembles a full prompt's message sequence in a fixed slot order:
// system prompt, tool definitions, static context, a cache breakpoint,
// dynamic context, then user input. Each slot is optional.
type Builder struct {
	systemPrompt    string
	hasSystemPrompt bool
	tools           []schema.ToolDefinition
	staticContext   []string
	cacheBreakpoint bool
	dynamicContext  []schema.Message
	userInput       schema.Message
}

// Option configures a Builder.
type Option func(*Builder)

// NewBuilder returns a Builder with opts applied in order. Option order does
// not affect Build's output order — slot order is fixed.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// WithSystemPrompt sets the leading system-role message.
func WithSystemPrompt(text string) Option {
	return func(b *Builder) {
		b.systemPrompt = text
		b.hasSystemPrompt = true
	}
}

// WithToolDefinitions adds a system-role message listing the available
// tools and their descriptions.
func WithToolDefinitions(tools []schema.ToolDefinition) Option {
	return func(b *Builder) {
		b.tools = tools
	}
}

// WithStaticContext adds one system-role message per non-empty entry, in
// order, before the cache breakpoint.
func WithStaticContext(docs []string) Option {
	return func(b *Builder) {
		b.staticContext = docs
	}
}

// WithCacheBreakpoint inserts a system-role message carrying
// metadata["cache_breakpoint"] = true, marking the boundary between the
// prompt's stable prefix and its per-request suffix.
func WithCacheBreakpoint() Option {
	return func(b *Builder) {
		b.cacheBreakpoint = true
	}
}

// WithDynamicContext appends prior conversation turns after the cache
// breakpoint, before the current user input.
func WithDynamicContext(msgs []schema.Message) Option {
	return func(b *Builder) {
		b.dynamicContext = msgs
	}
}

// WithUserInput sets the final message in the built sequence.
func WithUserInput(msg schema.Message) Option {
	return func(b *Builder) {
		b.userInput = msg
	}
}

// Build assembles the configured slots into a message sequence.
func (b *Builder) Build() []schema.Message {
	var msgs []schema.Message

	if b.hasSystemPrompt {
		msgs = append(msgs, schema.NewSystemMessage(b.systemPrompt))
	}

	if len(b.tools) > 0 {
		msgs = append(msgs, schema.NewSystemMessage(renderToolDefinitions(b.tools)))
	}

	for _, doc := range b.staticContext {
		if doc == "" {
			continue
		}
		msgs = append(msgs, schema.NewSystemMessage(doc))
	}

	if b.cacheBreakpoint {
		breakpoint := schema.NewSystemMessage("")
		breakpoint.Metadata = map[string]any{"cache_breakpoint": true}
		msgs = append(msgs, breakpoint)
	}

	msgs = append(msgs, b.dynamicContext...)

	if b.userInput != nil {
		msgs = append(msgs, b.userInput)
	}

	return msgs
}

func renderToolDefinitions(tools []schema.ToolDefinition) string {
	var sb strings.Builder
	sb.WriteString("Available tools:\n")
	for _, t := range tools {
		fmt.Fprintf(&sb, "- %s: %s\n", t.Name, t.Description)
	}
	return sb.String()
}
