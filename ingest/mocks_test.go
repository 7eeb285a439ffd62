package ingest

import (
	"context"
	"iter"

	"github.com/HalfBloodPrince07/Vantage-sub000/llm"
	"github.com/HalfBloodPrince07/Vantage-sub000/rag/embedding"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// mockChatModel implements llm.ChatModel for testing, grounded on
// rag/retriever's mocks_test.go of the same shape.
type mockChatModel struct {
	generateFn func(ctx context.Context, msgs []schema.Message, opts ...llm.GenerateOption) (*schema.AIMessage, error)
}

func (m *mockChatModel) Generate(ctx context.Context, msgs []schema.Message, opts ...llm.GenerateOption) (*schema.AIMessage, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, msgs, opts...)
	}
	return schema.NewAIMessage(`{"summary":"a test document","document_type":"note","keywords":["test"],"entities":["Acme"],"topics":["testing"]}`), nil
}

func (m *mockChatModel) Stream(_ context.Context, _ []schema.Message, _ ...llm.GenerateOption) iter.Seq2[schema.StreamChunk, error] {
	return func(yield func(schema.StreamChunk, error) bool) {}
}

func (m *mockChatModel) BindTools(_ []schema.ToolDefinition) llm.ChatModel { return m }
func (m *mockChatModel) ModelID() string                                  { return "mock-model" }

// mockEmbedder implements embedding.Embedder for testing.
type mockEmbedder struct {
	dim int
}

func (m *mockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, m.dimensions())
	}
	return out, nil
}

func (m *mockEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return make([]float32, m.dimensions()), nil
}

func (m *mockEmbedder) Dimensions() int { return m.dimensions() }

func (m *mockEmbedder) dimensions() int {
	if m.dim > 0 {
		return m.dim
	}
	return 4
}

var (
	_ llm.ChatModel      = (*mockChatModel)(nil)
	_ embedding.Embedder = (*mockEmbedder)(nil)
)
