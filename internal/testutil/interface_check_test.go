package testutil

import (
	"github.com/HalfBloodPrince07/Vantage-sub000/internal/testutil/mockembedder"
	"github.com/HalfBloodPrince07/Vantage-sub000/internal/testutil/mockstore"
	"github.com/HalfBloodPrince07/Vantage-sub000/internal/testutil/mockworkflow"
	"github.com/HalfBloodPrince07/Vantage-sub000/rag/embedding"
	"github.com/HalfBloodPrince07/Vantage-sub000/rag/vectorstore"
	"github.com/HalfBloodPrince07/Vantage-sub000/workflow"
)

// Compile-time interface checks to ensure mocks implement their target interfaces.
var (
	_ embedding.Embedder      = (*mockembedder.MockEmbedder)(nil)
	_ vectorstore.VectorStore = (*mockstore.MockVectorStore)(nil)
	_ workflow.WorkflowStore  = (*mockworkflow.MockWorkflowStore)(nil)
)
